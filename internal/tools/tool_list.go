// Package tools aggregates tool handles from every connected MCP server
// into the single ordered list handed to the agent.
package tools

import (
	"encoding/json"

	"github.com/mcpchat/mcpchat/internal/schema"
)

// ToolList is an ordered, append-only collection of tools. It keeps every
// handle it is given: two servers exposing "search" yield two entries.
type ToolList struct {
	tools []schema.Tool
}

func NewToolList(ts ...schema.Tool) *ToolList {
	list := &ToolList{tools: make([]schema.Tool, 0, len(ts))}
	list.Append(ts...)
	return list
}

// Append adds tools in the given order after the existing ones.
func (l *ToolList) Append(ts ...schema.Tool) {
	for _, t := range ts {
		if t == nil {
			continue
		}
		l.tools = append(l.tools, t)
	}
}

// All returns a copy of the tools in insertion order.
func (l *ToolList) All() []schema.Tool {
	out := make([]schema.Tool, len(l.tools))
	copy(out, l.tools)
	return out
}

// Len returns the number of tools.
func (l *ToolList) Len() int { return len(l.tools) }

// Names returns tool names in insertion order, duplicates included.
func (l *ToolList) Names() []string {
	names := make([]string, len(l.tools))
	for i, t := range l.tools {
		names[i] = t.Name()
	}
	return names
}

// Duplicates returns each name carried by more than one tool, in order of
// first appearance.
func (l *ToolList) Duplicates() []string {
	counts := make(map[string]int, len(l.tools))
	for _, t := range l.tools {
		counts[t.Name()]++
	}
	var dups []string
	for _, t := range l.tools {
		if counts[t.Name()] > 1 {
			dups = append(dups, t.Name())
			counts[t.Name()] = 0
		}
	}
	return dups
}

// Definition describes t under the given name in OpenAI function-calling
// format. Unparseable parameter schemas are replaced by an empty object.
func Definition(name string, t schema.Tool) map[string]any {
	var params any
	if err := json.Unmarshal(t.Parameters(), &params); err != nil || params == nil {
		params = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        name,
			"description": t.Description(),
			"parameters":  params,
		},
	}
}
