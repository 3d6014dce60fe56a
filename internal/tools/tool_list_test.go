package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpchat/mcpchat/internal/schema"
)

type stubTool struct {
	name   string
	desc   string
	params string
}

func (s stubTool) Name() string                { return s.name }
func (s stubTool) Description() string         { return s.desc }
func (s stubTool) Parameters() json.RawMessage { return json.RawMessage(s.params) }
func (s stubTool) Execute(context.Context, map[string]any) (string, error) {
	return s.name, nil
}

func TestToolList_AppendKeepsOrderAndDuplicates(t *testing.T) {
	list := NewToolList(stubTool{name: "search", desc: "from A"})
	list.Append(stubTool{name: "fetch"}, stubTool{name: "search", desc: "from B"}, nil)

	require.Equal(t, 3, list.Len())
	assert.Equal(t, []string{"search", "fetch", "search"}, list.Names())
	assert.Equal(t, []string{"search"}, list.Duplicates())

	all := list.All()
	assert.Equal(t, "from A", all[0].Description())
	assert.Equal(t, "from B", all[2].Description())
}

func TestToolList_AllIsACopy(t *testing.T) {
	list := NewToolList(stubTool{name: "a"})
	all := list.All()
	all[0] = stubTool{name: "b"}
	assert.Equal(t, []string{"a"}, list.Names())
}

func TestDefinition(t *testing.T) {
	def := Definition("now", stubTool{name: "now", desc: "current time", params: `{"type":"object","properties":{"tz":{"type":"string"}}}`})

	fn := def["function"].(map[string]any)
	assert.Equal(t, "function", def["type"])
	assert.Equal(t, "now", fn["name"])
	assert.Equal(t, "current time", fn["description"])
	props := fn["parameters"].(map[string]any)["properties"].(map[string]any)
	assert.Contains(t, props, "tz")

	broken := Definition("broken", stubTool{name: "broken", params: `not json`})
	params := broken["function"].(map[string]any)["parameters"].(map[string]any)
	assert.Equal(t, "object", params["type"])
}

func TestDefinition_UsesGivenName(t *testing.T) {
	def := Definition("srv_search", stubTool{name: "search", params: `{}`})
	assert.Equal(t, "srv_search", def["function"].(map[string]any)["name"])
}

var _ schema.Tool = stubTool{}
