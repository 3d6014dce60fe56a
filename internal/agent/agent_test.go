package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpchat/mcpchat/internal/schema"
	"github.com/mcpchat/mcpchat/internal/tools"
)

// scriptedProvider replays responses in order and records every request.
type scriptedProvider struct {
	responses []schema.LLMResponse
	err       error

	requests []schema.Messages
	defs     [][]map[string]any
	opts     []schema.ChatOptions
}

func (p *scriptedProvider) Chat(_ context.Context, msgs schema.Messages, defs []map[string]any, opts schema.ChatOptions) (schema.LLMResponse, error) {
	p.requests = append(p.requests, msgs.Clone())
	p.defs = append(p.defs, defs)
	p.opts = append(p.opts, opts)
	if p.err != nil {
		return schema.LLMResponse{}, p.err
	}
	if len(p.responses) == 0 {
		return text("done"), nil
	}
	r := p.responses[0]
	if len(p.responses) > 1 {
		p.responses = p.responses[1:]
	}
	return r, nil
}

func (p *scriptedProvider) DefaultModel() string { return "test-model" }

func text(s string) schema.LLMResponse {
	return schema.LLMResponse{Content: &s, FinishReason: "stop"}
}

func call(id, name string, args map[string]any) schema.LLMResponse {
	return schema.LLMResponse{
		ToolCalls:    []schema.ToolCallRequest{{Id: id, Name: name, Arguments: args}},
		FinishReason: "tool_calls",
	}
}

type fakeTool struct {
	name   string
	server string
	result string
	err    error
	calls  []map[string]any
}

func (f *fakeTool) Name() string                { return f.name }
func (f *fakeTool) Description() string         { return f.name + " tool" }
func (f *fakeTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object","properties":{}}`) }
func (f *fakeTool) Server() string              { return f.server }
func (f *fakeTool) Execute(_ context.Context, args map[string]any) (string, error) {
	f.calls = append(f.calls, args)
	return f.result, f.err
}

func fixedID(a *Agent) *Agent {
	a.newRunID = func() string { return "run-1" }
	return a
}

func TestInvoke_DirectAnswer(t *testing.T) {
	p := &scriptedProvider{responses: []schema.LLMResponse{text("hello")}}
	a := fixedID(Build(p, tools.NewToolList(), schema.AgentSettings{SystemPrompt: "be brief"}))

	resp, err := a.Invoke(context.Background(), "hi")
	require.NoError(t, err)

	want := []schema.ResponseMessage{
		schema.SystemMessage{Content: "be brief"},
		schema.HumanMessage{Content: "hi"},
		schema.AIMessage{Content: "hello"},
	}
	assert.Equal(t, "run-1", resp.RunID)
	if diff := cmp.Diff(want, resp.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, p.opts, 1)
	assert.Equal(t, "test-model", p.opts[0].Model)
}

func TestInvoke_ToolRoundTrip(t *testing.T) {
	now := &fakeTool{name: "now", server: "time", result: "12:00"}
	p := &scriptedProvider{responses: []schema.LLMResponse{
		call("c1", "now", map[string]any{"tz": "UTC"}),
		text("<think>easy</think>It is noon."),
	}}
	a := fixedID(Build(p, tools.NewToolList(now), schema.AgentSettings{}))

	resp, err := a.Invoke(context.Background(), "time?")
	require.NoError(t, err)

	want := []schema.ResponseMessage{
		schema.HumanMessage{Content: "time?"},
		schema.AIMessage{ToolCalls: []schema.ToolCall{{ID: "c1", Name: "now", Arguments: map[string]any{"tz": "UTC"}}}},
		schema.ToolMessage{Content: "12:00", ToolCallID: "c1", Name: "now"},
		schema.AIMessage{Content: "It is noon."},
	}
	if diff := cmp.Diff(want, resp.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []map[string]any{{"tz": "UTC"}}, now.calls)

	assert.Equal(t, schema.AIMessage{Content: "It is noon."}, resp.Messages[len(resp.Messages)-1])

	// The second request carries the tool result back to the model.
	require.Len(t, p.requests, 2)
	assert.Equal(t, 3, p.requests[1].Len())
}

func TestInvoke_ToolFailuresBecomeToolMessages(t *testing.T) {
	broken := &fakeTool{name: "read", err: errors.New("permission denied")}
	p := &scriptedProvider{responses: []schema.LLMResponse{
		{ToolCalls: []schema.ToolCallRequest{
			{Id: "c1", Name: "read"},
			{Id: "c2", Name: "missing"},
		}},
		text("sorry"),
	}}
	a := Build(p, tools.NewToolList(broken), schema.AgentSettings{})

	resp, err := a.Invoke(context.Background(), "read it")
	require.NoError(t, err)

	require.Len(t, resp.Messages, 5)
	assert.Equal(t, schema.ToolMessage{Content: "Error: permission denied", ToolCallID: "c1", Name: "read"}, resp.Messages[2])
	assert.Equal(t, schema.ToolMessage{Content: "Error: Tool 'missing' not found", ToolCallID: "c2", Name: "missing"}, resp.Messages[3])
}

func TestInvoke_StopsAtMaxIterations(t *testing.T) {
	loop := &fakeTool{name: "again", result: "more"}
	p := &scriptedProvider{responses: []schema.LLMResponse{call("c", "again", nil)}}
	a := Build(p, tools.NewToolList(loop), schema.AgentSettings{MaxIter: 3})

	resp, err := a.Invoke(context.Background(), "loop")
	require.NoError(t, err)

	assert.Len(t, p.requests, 3)
	assert.Len(t, loop.calls, 3)
	final, ok := resp.Messages[len(resp.Messages)-1].(schema.AIMessage)
	require.True(t, ok)
	assert.Equal(t, MaxIterationsMessage, final.Content)
}

func TestInvoke_LLMErrorPropagates(t *testing.T) {
	p := &scriptedProvider{err: errors.New("HTTP 503")}
	a := fixedID(Build(p, nil, schema.AgentSettings{}))

	resp, err := a.Invoke(context.Background(), "hi")
	assert.Nil(t, resp)
	assert.EqualError(t, err, "agent run run-1: HTTP 503")
}

func TestInvoke_CancelledContext(t *testing.T) {
	p := &scriptedProvider{}
	a := Build(p, nil, schema.AgentSettings{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Invoke(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.requests)
}

func TestInvoke_FreshConversationPerQuery(t *testing.T) {
	p := &scriptedProvider{}
	a := Build(p, nil, schema.AgentSettings{})

	_, err := a.Invoke(context.Background(), "first")
	require.NoError(t, err)
	_, err = a.Invoke(context.Background(), "second")
	require.NoError(t, err)

	require.Len(t, p.requests, 2)
	assert.Equal(t, []schema.Message{schema.NewUserMessage("second")}, p.requests[1].Messages)
}

func TestInvoke_UniqueRunIDs(t *testing.T) {
	a := Build(&scriptedProvider{}, nil, schema.AgentSettings{})

	r1, err := a.Invoke(context.Background(), "a")
	require.NoError(t, err)
	r2, err := a.Invoke(context.Background(), "b")
	require.NoError(t, err)
	assert.NotEmpty(t, r1.RunID)
	assert.NotEqual(t, r1.RunID, r2.RunID)
}

func TestBuild_NamespacesCollidingTools(t *testing.T) {
	web := &fakeTool{name: "search", server: "web", result: "from web"}
	docs := &fakeTool{name: "search", server: "Docs-Site", result: "from docs"}
	now := &fakeTool{name: "now", server: "time"}

	p := &scriptedProvider{responses: []schema.LLMResponse{
		call("c1", "docs_site_search", map[string]any{"q": "x"}),
		text("ok"),
	}}
	a := Build(p, tools.NewToolList(web, docs, now), schema.AgentSettings{})

	assert.Equal(t, []string{"web_search", "docs_site_search", "now"}, a.ToolNames())
	assert.Equal(t, map[string]string{"web_search": "search", "docs_site_search": "search"}, a.Renamed())

	resp, err := a.Invoke(context.Background(), "find x")
	require.NoError(t, err)

	assert.Empty(t, web.calls)
	assert.Len(t, docs.calls, 1)
	assert.Equal(t, "from docs", resp.Messages[2].MessageContent())

	var defNames []string
	for _, d := range p.defs[0] {
		defNames = append(defNames, d["function"].(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"web_search", "docs_site_search", "now"}, defNames)
}

func TestBuild_SameServerCollisionGetsSuffix(t *testing.T) {
	a := Build(&scriptedProvider{}, tools.NewToolList(
		&fakeTool{name: "x", server: "s"},
		&fakeTool{name: "x", server: "s"},
		&fakeTool{name: "s_x"},
	), schema.AgentSettings{})

	assert.Equal(t, []string{"s_x_2", "s_x_3", "s_x"}, a.ToolNames())
}

func TestBuild_Defaults(t *testing.T) {
	a := Build(&scriptedProvider{}, nil, schema.AgentSettings{})
	assert.Equal(t, DefaultMaxIterations, a.settings.MaxIter)
	assert.Equal(t, "test-model", a.settings.Model)
	assert.Empty(t, a.ToolNames())
}
