// Package mcp connects to MCP servers over stdio, keeps their sessions
// alive for the lifetime of a chat, and exposes their tools as
// schema.Tool handles.
package mcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcpchat/mcpchat/internal/config"
)

// ProtocolVersion is the MCP protocol revision requested in the handshake.
const ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION

// ClientName and ClientVersion identify mcpchat in the handshake.
var (
	ClientName    = "mcpchat"
	ClientVersion = "dev"
)

// Session is the subset of an MCP client used by mcpchat.
// *client.Client satisfies it.
type Session interface {
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

var _ Session = (*client.Client)(nil)

// Dialer opens a session to one configured server. The returned session
// has not completed the handshake yet.
type Dialer func(ctx context.Context, cfg config.ServerConfig) (Session, error)

// DialStdio launches cfg.Command as a subprocess and talks MCP over its
// stdin/stdout. The subprocess inherits the current environment plus cfg.Env.
// Its stderr is forwarded to the debug log.
func DialStdio(ctx context.Context, cfg config.ServerConfig) (Session, error) {
	t := transport.NewStdio(cfg.Command, envList(cfg.Env), cfg.Args...)
	if err := t.Start(ctx); err != nil {
		return nil, fmt.Errorf("start %s: %w", cfg.Command, err)
	}
	if stderr := t.Stderr(); stderr != nil {
		go forwardStderr(cfg.Name, stderr)
	}
	return client.NewClient(t), nil
}

func forwardStderr(server string, r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		slog.Debug("MCP server stderr", "server", server, "line", sc.Text())
	}
}

// envList renders env as sorted KEY=VALUE pairs.
func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

func initializeRequest() mcp.InitializeRequest {
	return mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    ClientName,
				Version: ClientVersion,
			},
		},
	}
}
