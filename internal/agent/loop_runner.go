package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mcpchat/mcpchat/internal/schema"
	"github.com/mcpchat/mcpchat/internal/shared/llmutils"
)

// MaxIterationsMessage is appended as the final answer when the loop runs
// out of iterations while the model still requests tools.
const MaxIterationsMessage = "I've reached the maximum number of tool iterations without a final answer."

// LoopRunner executes the LLM ↔ tool iteration loop.
type LoopRunner struct {
	provider schema.LLMProvider
	settings schema.AgentSettings
}

func newLoopRunner(provider schema.LLMProvider, settings schema.AgentSettings) LoopRunner {
	return LoopRunner{provider: provider, settings: settings}
}

// run drives conversation until the model answers without tool calls or
// MaxIter is reached. Every assistant turn and tool result is appended to
// conversation. Only LLM failures are returned; tool failures are reported
// back to the model as tool results.
func (r *LoopRunner) run(ctx context.Context, conversation *schema.Messages, tls *toolTable, logger *slog.Logger) error {
	opts := schema.NewChatOptions(r.settings.Model, r.settings.MaxTokens, r.settings.Temperature)
	defs := tls.Definitions()

	for i := 0; i < r.settings.MaxIter; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := r.provider.Chat(ctx, *conversation, defs, opts)
		if err != nil {
			logger.Error("LLM error", "iteration", i, "err", err)
			return err
		}

		content := ""
		if resp.Content != nil {
			content = llmutils.StripThink(*resp.Content)
		}

		if !resp.HasToolCalls() {
			conversation.AddAssistant(content, nil)
			return nil
		}

		toolCalls := make([]schema.ToolCall, 0, len(resp.ToolCalls))
		for _, tc := range resp.ToolCalls {
			toolCalls = append(toolCalls, schema.ToolCall{ID: tc.Id, Name: tc.Name, Arguments: tc.Arguments})
		}
		logger.Debug("Tool calls requested", "iteration", i, "calls", llmutils.ToolHint(toolCalls))
		conversation.AddAssistant(content, toolCalls)

		for _, tc := range toolCalls {
			argsJSON, _ := json.Marshal(tc.Arguments)
			logger.Info("Tool call", "name", tc.Name, "args", llmutils.Truncate(string(argsJSON), 200))

			conversation.AddToolResult(tc.ID, tc.Name, r.execute(ctx, tls, tc, logger))
		}
	}

	logger.Warn("Max iterations reached", "max_iterations", r.settings.MaxIter)
	conversation.AddAssistant(MaxIterationsMessage, nil)
	return nil
}

func (r *LoopRunner) execute(ctx context.Context, tls *toolTable, tc schema.ToolCall, logger *slog.Logger) string {
	t := tls.Get(tc.Name)
	if t == nil {
		return fmt.Sprintf("Error: Tool '%s' not found", tc.Name)
	}
	result, err := t.Execute(ctx, tc.Arguments)
	if err != nil {
		logger.Warn("Tool failed", "name", tc.Name, "err", err)
		return fmt.Sprintf("Error: %v", err)
	}
	return result
}
