package mcp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

type guardEntry struct {
	name string
	c    io.Closer
}

// Guard owns every session opened during a run and releases them in
// reverse order of acquisition. Close is idempotent; closers pushed after
// Close are released immediately.
type Guard struct {
	mu      sync.Mutex
	entries []guardEntry
	closed  bool
}

func NewGuard() *Guard {
	return &Guard{}
}

// Push registers c under name.
func (g *Guard) Push(name string, c io.Closer) {
	if c == nil {
		return
	}
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		if err := c.Close(); err != nil {
			slog.Warn("MCP session close failed", "server", name, "err", err)
		}
		return
	}
	g.entries = append(g.entries, guardEntry{name: name, c: c})
	g.mu.Unlock()
}

// Len returns the number of sessions still held.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// Close releases all held sessions, last acquired first. Every closer runs
// even if an earlier one fails; failures are joined into the result.
func (g *Guard) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	entries := g.entries
	g.entries = nil
	g.mu.Unlock()

	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if err := e.c.Close(); err != nil {
			slog.Warn("MCP session close failed", "server", e.name, "err", err)
			errs = append(errs, fmt.Errorf("close %s: %w", e.name, err))
			continue
		}
		slog.Debug("MCP session closed", "server", e.name)
	}
	return errors.Join(errs...)
}
