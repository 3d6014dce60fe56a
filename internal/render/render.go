// Package render turns agent responses into the pretty JSON shown to the
// user.
//
// Message values become {"type": <variant>, "content": ...} objects, with
// tool-call details where the variant has them. Maps, slices, pointers and
// structs are walked recursively so variants are found at any depth;
// everything else is left to encoding/json.
package render

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/mcpchat/mcpchat/internal/schema"
)

// Indent is the per-level indentation of Encode's output.
const Indent = "  "

// ContentCarrier is any value that carries message content. Values that
// are not one of the known message variants but implement it encode as
// {"type": <Go type name>, "content": ...}.
type ContentCarrier interface {
	MessageContent() string
}

// Encode renders v as indented JSON.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", Indent)
	if err := enc.Encode(normalize(v)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Fallback is the plain representation printed when Encode fails.
func Fallback(v any) string {
	if r, ok := v.(*schema.AgentResponse); ok && r != nil {
		return fmt.Sprintf("%+v", *r)
	}
	return fmt.Sprintf("%+v", v)
}

func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *schema.AgentResponse:
		if x == nil {
			return nil
		}
		return normalizeResponse(*x)
	case schema.AgentResponse:
		return normalizeResponse(x)
	case schema.AIMessage:
		obj := object{{"type", x.MessageType()}, {"content", x.Content}}
		if len(x.ToolCalls) > 0 {
			calls := make([]any, 0, len(x.ToolCalls))
			for _, tc := range x.ToolCalls {
				calls = append(calls, object{{"id", tc.ID}, {"name", tc.Name}, {"args", normalize(tc.Arguments)}})
			}
			obj = append(obj, field{"tool_calls", calls})
		}
		return obj
	case schema.ToolMessage:
		return object{
			{"type", x.MessageType()},
			{"content", x.Content},
			{"tool_call_id", x.ToolCallID},
			{"name", x.Name},
		}
	case schema.ResponseMessage:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil
			}
			return normalize(rv.Elem().Interface())
		}
		return object{{"type", x.MessageType()}, {"content", x.MessageContent()}}
	case ContentCarrier:
		return object{{"type", typeName(x)}, {"content", x.MessageContent()}}
	case json.Marshaler, encoding.TextMarshaler:
		return x
	}
	return normalizeReflect(reflect.ValueOf(v))
}

func normalizeResponse(r schema.AgentResponse) any {
	msgs := make([]any, 0, len(r.Messages))
	for _, m := range r.Messages {
		msgs = append(msgs, normalize(m))
	}
	return object{{"run_id", r.RunID}, {"messages", msgs}}
}

func normalizeReflect(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Key().Kind() != reflect.String {
			return rv.Interface()
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalize(iter.Value().Interface())
		}
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Interface()
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Struct:
		return normalizeStruct(rv, nil)
	}
	return rv.Interface()
}

// normalizeStruct walks exported fields the way encoding/json names them:
// json tags rename or skip, omitempty drops empty values and untagged
// embedded structs are flattened into the parent.
func normalizeStruct(rv reflect.Value, obj object) object {
	if obj == nil {
		obj = object{}
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := rv.Field(i)

		if sf.Anonymous && name == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				if !sf.IsExported() || fv.IsNil() {
					continue
				}
				ft = ft.Elem()
				fv = fv.Elem()
			}
			if ft.Kind() == reflect.Struct {
				obj = normalizeStruct(fv, obj)
				continue
			}
		}
		if !sf.IsExported() || !fv.CanInterface() {
			continue
		}
		if strings.Contains(opts, "omitempty") && isEmptyValue(fv) {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		obj = append(obj, field{name, normalize(fv.Interface())})
	}
	return obj
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return v.IsZero()
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}

type field struct {
	key   string
	value any
}

// object is a JSON object that keeps its field order.
type object []field

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		val, err := marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
