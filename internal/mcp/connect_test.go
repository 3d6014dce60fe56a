package mcp

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpchat/mcpchat/internal/config"
	"github.com/mcpchat/mcpchat/internal/console"
)

func newTestConnector(d *fakeDialer, timeout time.Duration) (*Connector, *bytes.Buffer) {
	color.NoColor = true
	var buf bytes.Buffer
	return NewConnector(d.dial, NewGuard(), console.New(&buf), timeout), &buf
}

func TestConnectAll_FollowsConfigOrder(t *testing.T) {
	d := &fakeDialer{}
	c, _ := newTestConnector(d, 0)

	report, err := c.ConnectAll(context.Background(), servers("zeta", "alpha", "mid"))
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, d.dialed)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, report.Connected())
}

func TestConnectAll_FailingServerIsSkipped(t *testing.T) {
	d := &fakeDialer{
		dialErr: map[string]error{"A": errors.New("executable file not found")},
		sessions: map[string]*fakeSession{
			"B": {name: "B", tools: []mcp.Tool{
				mcp.NewTool("now", mcp.WithDescription("current time")),
				mcp.NewTool("convert", mcp.WithString("tz", mcp.Required())),
			}},
		},
	}
	c, out := newTestConnector(d, 0)

	report, err := c.ConnectAll(context.Background(), servers("A", "B"))
	require.NoError(t, err)

	assert.Equal(t, []string{"now", "convert"}, report.Tools().Names())
	assert.Equal(t, []string{"B"}, report.Connected())
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "A", report.Failed()[0].Name)
	assert.NoError(t, report.RequireTools())

	text := out.String()
	assert.Contains(t, text, "🔗 Connecting to MCP server: A\n❌ Error connecting to A: dial: executable file not found\n")
	assert.Contains(t, text, "🔧 Loaded tool: now from server B\n")
	assert.Contains(t, text, "✅ Successfully connected to B and loaded 2 tools.\n")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("server: A")), bytes.Index(out.Bytes(), []byte("server: B")))
}

func TestConnectAll_DoesNotDeduplicate(t *testing.T) {
	d := &fakeDialer{sessions: map[string]*fakeSession{
		"web":  {name: "web", tools: []mcp.Tool{mcp.NewTool("search")}},
		"docs": {name: "docs", tools: []mcp.Tool{mcp.NewTool("search")}},
	}}
	c, _ := newTestConnector(d, 0)

	report, err := c.ConnectAll(context.Background(), servers("web", "docs"))
	require.NoError(t, err)

	all := report.Tools()
	assert.Equal(t, []string{"search", "search"}, all.Names())
	assert.Equal(t, "web", report.Results[0].Tools[0].Server())
	assert.Equal(t, "docs", report.Results[1].Tools[0].Server())
}

func TestConnectAll_HandshakeFailureStillGuarded(t *testing.T) {
	log := &closeLog{}
	d := &fakeDialer{sessions: map[string]*fakeSession{
		"good":   {name: "good", tools: []mcp.Tool{mcp.NewTool("a")}, closed: log},
		"bad":    {name: "bad", initErr: errors.New("protocol mismatch"), closed: log},
		"broken": {name: "broken", listErr: errors.New("method not found"), closed: log},
	}}
	c, _ := newTestConnector(d, 0)

	report, err := c.ConnectAll(context.Background(), servers("good", "bad", "broken"))
	require.NoError(t, err)

	assert.ErrorContains(t, report.Results[1].Err, "initialize: protocol mismatch")
	assert.ErrorContains(t, report.Results[2].Err, "list tools: method not found")
	assert.Equal(t, 3, c.Guard().Len())

	require.NoError(t, c.Guard().Close())
	assert.Equal(t, []string{"broken", "bad", "good"}, log.list())
}

func TestConnectAll_AllFailYieldsNoTools(t *testing.T) {
	d := &fakeDialer{dialErr: map[string]error{
		"a": errors.New("nope"),
		"b": errors.New("nope"),
	}}
	c, _ := newTestConnector(d, 0)

	report, err := c.ConnectAll(context.Background(), servers("a", "b"))
	require.NoError(t, err)
	assert.Zero(t, report.Tools().Len())
	assert.ErrorIs(t, report.RequireTools(), ErrNoTools)
}

func TestConnectAll_SkipsDisabledServers(t *testing.T) {
	d := &fakeDialer{}
	c, out := newTestConnector(d, 0)

	list := servers("on", "off")
	list[1].Disabled = true

	report, err := c.ConnectAll(context.Background(), list)
	require.NoError(t, err)

	assert.Equal(t, []string{"on"}, d.dialed)
	assert.True(t, report.Results[1].Skipped)
	assert.Empty(t, report.Failed())
	assert.NotContains(t, out.String(), "off")
}

func TestConnectAll_HandshakeTimeout(t *testing.T) {
	d := &fakeDialer{sessions: map[string]*fakeSession{
		"slow": {name: "slow", blockInit: true},
	}}
	c, _ := newTestConnector(d, 20*time.Millisecond)

	report, err := c.ConnectAll(context.Background(), servers("slow", "fast"))
	require.NoError(t, err)

	assert.ErrorIs(t, report.Results[0].Err, context.DeadlineExceeded)
	assert.Equal(t, []string{"fast"}, report.Connected())
}

func TestConnectAll_CancelledContext(t *testing.T) {
	d := &fakeDialer{}
	c, _ := newTestConnector(d, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := c.ConnectAll(ctx, servers("a"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
	assert.Empty(t, d.dialed)
}

func TestConnectAll_RealDialFailure(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	c := NewConnector(nil, NewGuard(), console.New(&buf), 5*time.Second)
	t.Cleanup(func() { _ = c.Guard().Close() })

	report, err := c.ConnectAll(context.Background(), config.ServerList{
		{Name: "ghost", Command: "/nonexistent/mcpchat-test-server"},
	})
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Error(t, report.Results[0].Err)
	assert.ErrorIs(t, report.RequireTools(), ErrNoTools)
	assert.Contains(t, buf.String(), "❌ Error connecting to ghost:")
}

func TestEnvList_Sorted(t *testing.T) {
	assert.Nil(t, envList(nil))
	assert.Equal(t, []string{"A=1", "B=2"}, envList(map[string]string{"B": "2", "A": "1"}))
}
