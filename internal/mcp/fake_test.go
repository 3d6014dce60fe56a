package mcp

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcpchat/mcpchat/internal/config"
)

// closeLog records the order in which fake sessions are closed.
type closeLog struct {
	mu    sync.Mutex
	names []string
}

func (l *closeLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
}

func (l *closeLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

type fakeSession struct {
	name      string
	tools     []mcp.Tool
	initErr   error
	listErr   error
	blockInit bool

	callResult *mcp.CallToolResult
	callErr    error
	calls      []mcp.CallToolRequest

	closed *closeLog
}

func (f *fakeSession) Initialize(ctx context.Context, _ mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	if f.blockInit {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &mcp.InitializeResult{}, nil
}

func (f *fakeSession) ListTools(context.Context, mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &mcp.ListToolsResult{Tools: f.tools}, nil
}

func (f *fakeSession) CallTool(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f.calls = append(f.calls, req)
	return f.callResult, f.callErr
}

func (f *fakeSession) Close() error {
	if f.closed != nil {
		f.closed.add(f.name)
	}
	return nil
}

// fakeDialer serves sessions by server name and records dial order.
type fakeDialer struct {
	sessions map[string]*fakeSession
	dialErr  map[string]error
	dialed   []string
}

func (d *fakeDialer) dial(_ context.Context, cfg config.ServerConfig) (Session, error) {
	d.dialed = append(d.dialed, cfg.Name)
	if err := d.dialErr[cfg.Name]; err != nil {
		return nil, err
	}
	s, ok := d.sessions[cfg.Name]
	if !ok {
		s = &fakeSession{name: cfg.Name}
	}
	return s, nil
}

func servers(names ...string) config.ServerList {
	out := make(config.ServerList, 0, len(names))
	for _, n := range names {
		out = append(out, config.ServerConfig{Name: n, Command: n + "-cmd"})
	}
	return out
}
