// Package agent implements the ReAct-style agent that answers queries by
// alternating LLM calls with MCP tool calls.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mcpchat/mcpchat/internal/schema"
)

// DefaultMaxIterations bounds the LLM ↔ tool loop when settings leave it unset.
const DefaultMaxIterations = 25

// Agent answers one query at a time. Each Invoke starts a fresh
// conversation; nothing is remembered between queries.
type Agent struct {
	LoopRunner

	tools    *toolTable
	newRunID func() string
}

func newRunID() string { return uuid.NewString() }

// Invoke runs the agent on query and returns every message of the run.
func (a *Agent) Invoke(ctx context.Context, query string) (*schema.AgentResponse, error) {
	runID := a.newRunID()
	logger := slog.With("run_id", runID)

	conversation := schema.NewMessages()
	if a.settings.SystemPrompt != "" {
		conversation.AddSystem(a.settings.SystemPrompt)
	}
	conversation.AddUser(query)

	logger.Info("Agent run started", "model", a.settings.Model, "tools", len(a.tools.names))
	if err := a.run(ctx, &conversation, a.tools, logger); err != nil {
		return nil, fmt.Errorf("agent run %s: %w", runID, err)
	}
	logger.Info("Agent run finished", "messages", conversation.Len())

	return schema.NewAgentResponse(runID, conversation), nil
}

// ToolNames returns the tool names exposed to the model, in order.
func (a *Agent) ToolNames() []string { return a.tools.Names() }

// Renamed maps exposed names to original tool names for tools that were
// namespaced because of a name collision.
func (a *Agent) Renamed() map[string]string {
	out := make(map[string]string, len(a.tools.renamed))
	for k, v := range a.tools.renamed {
		out[k] = v
	}
	return out
}

var _ schema.Querier = (*Agent)(nil)
