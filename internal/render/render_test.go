package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpchat/mcpchat/internal/schema"
)

func TestEncode_NestedAIMessage(t *testing.T) {
	out, err := Encode(map[string]any{"messages": []any{schema.AIMessage{Content: "hello"}}})
	require.NoError(t, err)

	assert.Equal(t, `{
  "messages": [
    {
      "type": "AIMessage",
      "content": "hello"
    }
  ]
}`, string(out))
}

type Step struct {
	Index int    `json:"index"`
	Note  string `json:"note,omitempty"`
}

type traced struct {
	Step
	Msg    schema.AIMessage `json:"msg"`
	Hidden string           `json:"-"`
	Raw    string
	secret string
}

func TestEncode_StructNestedAIMessage(t *testing.T) {
	v := map[string]any{"outer": traced{
		Step:   Step{Index: 1},
		Msg:    schema.AIMessage{Content: "hello"},
		Hidden: "x",
		Raw:    "r",
		secret: "s",
	}}

	out, err := Encode(v)
	require.NoError(t, err)

	assert.Equal(t, `{
  "outer": {
    "index": 1,
    "msg": {
      "type": "AIMessage",
      "content": "hello"
    },
    "Raw": "r"
  }
}`, string(out))
}

func TestEncode_AgentResponse(t *testing.T) {
	resp := &schema.AgentResponse{
		RunID: "run-1",
		Messages: []schema.ResponseMessage{
			schema.HumanMessage{Content: "time?"},
			schema.AIMessage{ToolCalls: []schema.ToolCall{{ID: "c1", Name: "now", Arguments: map[string]any{"tz": "UTC"}}}},
			schema.ToolMessage{Content: "12:00 <UTC>", ToolCallID: "c1", Name: "now"},
			&schema.AIMessage{Content: "It is noon."},
		},
	}

	out, err := Encode(resp)
	require.NoError(t, err)

	assert.Equal(t, `{
  "run_id": "run-1",
  "messages": [
    {
      "type": "HumanMessage",
      "content": "time?"
    },
    {
      "type": "AIMessage",
      "content": "",
      "tool_calls": [
        {
          "id": "c1",
          "name": "now",
          "args": {
            "tz": "UTC"
          }
        }
      ]
    },
    {
      "type": "ToolMessage",
      "content": "12:00 <UTC>",
      "tool_call_id": "c1",
      "name": "now"
    },
    {
      "type": "AIMessage",
      "content": "It is noon."
    }
  ]
}`, string(out))
}

type note struct{ text string }

func (n note) MessageContent() string { return n.text }

func TestEncode_ContentCarrierUsesTypeName(t *testing.T) {
	out, err := Encode([]any{&note{text: "memo"}, 3, "plain"})
	require.NoError(t, err)

	assert.JSONEq(t, `[{"type": "note", "content": "memo"}, 3, "plain"]`, string(out))
}

func TestEncode_PlainValues(t *testing.T) {
	out, err := Encode(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": 2\n}", string(out))

	out, err = Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestEncode_FailureAndFallback(t *testing.T) {
	v := map[string]any{"score": math.NaN()}

	_, err := Encode(v)
	require.Error(t, err)
	assert.Equal(t, "map[score:NaN]", Fallback(v))
}

func TestEncode_FailureInsideMessageObject(t *testing.T) {
	_, err := Encode(schema.AIMessage{ToolCalls: []schema.ToolCall{{ID: "c", Name: "n", Arguments: map[string]any{"x": math.Inf(1)}}}})
	assert.Error(t, err)
}

func TestFallback_AgentResponse(t *testing.T) {
	s := Fallback(&schema.AgentResponse{RunID: "r", Messages: []schema.ResponseMessage{schema.AIMessage{Content: "hi"}}})
	assert.Contains(t, s, "RunID:r")
	assert.Contains(t, s, "Content:hi")
}
