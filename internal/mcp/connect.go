package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcpchat/mcpchat/internal/config"
	"github.com/mcpchat/mcpchat/internal/console"
	"github.com/mcpchat/mcpchat/internal/schema"
	"github.com/mcpchat/mcpchat/internal/tools"
)

// ErrNoTools is returned when no connected server contributed a tool.
var ErrNoTools = errors.New("no tools loaded from any MCP servers")

// ServerResult is the outcome of connecting to one server.
type ServerResult struct {
	Name    string
	Tools   []schema.SourcedTool
	Err     error
	Skipped bool // disabled in config, never attempted
}

// OK reports whether the server connected and listed its tools.
func (r ServerResult) OK() bool { return !r.Skipped && r.Err == nil }

// Report collects per-server results in configuration order.
type Report struct {
	Results []ServerResult
}

// Tools aggregates the tools of every successful server, in server order
// then listing order.
func (r *Report) Tools() *tools.ToolList {
	list := tools.NewToolList()
	for _, res := range r.Results {
		if !res.OK() {
			continue
		}
		for _, t := range res.Tools {
			list.Append(t)
		}
	}
	return list
}

// Connected returns the names of servers that connected successfully.
func (r *Report) Connected() []string {
	var names []string
	for _, res := range r.Results {
		if res.OK() {
			names = append(names, res.Name)
		}
	}
	return names
}

// Failed returns the results of servers that could not be used.
func (r *Report) Failed() []ServerResult {
	var out []ServerResult
	for _, res := range r.Results {
		if !res.Skipped && res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// RequireTools returns ErrNoTools when the aggregate is empty.
func (r *Report) RequireTools() error {
	if r.Tools().Len() == 0 {
		return ErrNoTools
	}
	return nil
}

// Connector opens sessions to configured servers one at a time. Every
// session it opens is handed to its Guard, including sessions of servers
// that later fail the handshake.
type Connector struct {
	dial    Dialer
	guard   *Guard
	out     *console.Printer
	timeout time.Duration
}

// NewConnector returns a Connector. A nil dial uses DialStdio. timeout
// bounds the handshake and tool listing of each server; zero means no limit.
func NewConnector(dial Dialer, guard *Guard, out *console.Printer, timeout time.Duration) *Connector {
	if dial == nil {
		dial = DialStdio
	}
	if out == nil {
		out = console.New(nil)
	}
	return &Connector{dial: dial, guard: guard, out: out, timeout: timeout}
}

// Guard returns the guard holding the opened sessions.
func (c *Connector) Guard() *Guard { return c.guard }

// ConnectAll connects to each enabled server sequentially, in order. A
// failing server is reported and skipped. The only error returned is a
// cancelled ctx; the report then holds the servers attempted so far.
func (c *Connector) ConnectAll(ctx context.Context, servers config.ServerList) (*Report, error) {
	report := &Report{Results: make([]ServerResult, 0, len(servers))}
	for _, srv := range servers {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if srv.Disabled {
			slog.Info("MCP server disabled, skipping", "server", srv.Name)
			report.Results = append(report.Results, ServerResult{Name: srv.Name, Skipped: true})
			continue
		}

		c.out.Break()
		c.out.Connectf("Connecting to MCP server: %s", srv.Name)

		res := c.connectOne(ctx, srv)
		if res.Err != nil {
			c.out.Errorf("Error connecting to %s: %v", srv.Name, res.Err)
			slog.Error("MCP server connect failed", "server", srv.Name, "err", res.Err)
		} else {
			c.out.Break()
			c.out.Successf("Successfully connected to %s and loaded %d tools.", srv.Name, len(res.Tools))
			slog.Info("MCP server connected", "server", srv.Name, "tools", len(res.Tools))
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func (c *Connector) connectOne(ctx context.Context, srv config.ServerConfig) ServerResult {
	res := ServerResult{Name: srv.Name}

	session, err := c.dial(ctx, srv)
	if err != nil {
		res.Err = fmt.Errorf("dial: %w", err)
		return res
	}
	c.guard.Push(srv.Name, session)

	callCtx, cancel := c.boundedContext(ctx)
	defer cancel()

	if _, err := session.Initialize(callCtx, initializeRequest()); err != nil {
		res.Err = fmt.Errorf("initialize: %w", err)
		return res
	}

	listed, err := session.ListTools(callCtx, mcp.ListToolsRequest{})
	if err != nil {
		res.Err = fmt.Errorf("list tools: %w", err)
		return res
	}
	if listed == nil {
		listed = &mcp.ListToolsResult{}
	}

	res.Tools = make([]schema.SourcedTool, 0, len(listed.Tools))
	for _, t := range listed.Tools {
		w, err := newToolWrapper(srv.Name, session, t)
		if err != nil {
			slog.Warn("Skipping MCP tool", "server", srv.Name, "tool", t.Name, "err", err)
			continue
		}
		res.Tools = append(res.Tools, w)
		c.out.Break()
		c.out.Toolf("Loaded tool: %s from server %s", w.Name(), srv.Name)
		slog.Debug("MCP tool registered", "server", srv.Name, "tool", w.Name())
	}
	return res
}

func (c *Connector) boundedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
