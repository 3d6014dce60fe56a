package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	openai "github.com/sashabaranov/go-openai"

	"github.com/mcpchat/mcpchat/internal/schema"
)

const requestTimeout = 120 * time.Second

// OpenAIOptions configures an OpenAIProvider.
type OpenAIOptions struct {
	Spec         *ProviderSpec
	APIKey       string
	APIBase      string
	DefaultModel string
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// OpenAIProvider talks to any OpenAI-compatible chat-completions endpoint.
// Transient HTTP failures (connection errors, 429, 5xx) are retried up to
// MaxRetries times with exponential backoff.
type OpenAIProvider struct {
	client       *openai.Client
	spec         *ProviderSpec
	apiBase      string
	defaultModel string
}

func NewOpenAIProvider(o OpenAIOptions) *OpenAIProvider {
	cfg := openai.DefaultConfig(o.APIKey)
	cfg.BaseURL = o.APIBase
	cfg.HTTPClient = newRetryingHTTPClient(o.MaxRetries, o.RetryWaitMin, o.RetryWaitMax)

	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(cfg),
		spec:         o.Spec,
		apiBase:      o.APIBase,
		defaultModel: o.DefaultModel,
	}
}

func newRetryingHTTPClient(maxRetries int, waitMin, waitMax time.Duration) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = max(maxRetries, 0)
	if waitMin > 0 {
		rc.RetryWaitMin = waitMin
	}
	if waitMax > 0 {
		rc.RetryWaitMax = waitMax
	}
	rc.Logger = slog.Default()

	hc := rc.StandardClient()
	hc.Timeout = requestTimeout
	return hc
}

func (p *OpenAIProvider) DefaultModel() string { return p.defaultModel }

// Spec returns the registry entry this provider was built from.
func (p *OpenAIProvider) Spec() *ProviderSpec { return p.spec }

// APIBase returns the endpoint base URL.
func (p *OpenAIProvider) APIBase() string { return p.apiBase }

// Chat implements schema.LLMProvider.
func (p *OpenAIProvider) Chat(
	ctx context.Context,
	messages schema.Messages,
	tools []map[string]any,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	model := opts.Model
	if model == "" {
		model = p.defaultModel
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toWireMessages(messages),
		Temperature: wireTemperature(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if len(tools) > 0 {
		req.Tools = toWireTools(tools)
		req.ToolChoice = "auto"
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return schema.LLMResponse{}, describeError(err)
	}
	return fromWireResponse(resp)
}

// wireTemperature maps t to the request field. go-openai drops a zero
// temperature from the payload, so zero is sent as the smallest positive
// float32 to keep decoding deterministic.
func wireTemperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func toWireMessages(messages schema.Messages) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, messages.Len())
	for _, m := range messages.Messages {
		wm := openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
		switch m.Role {
		case schema.RoleAssistant:
			for _, tc := range m.ToolCalls {
				wm.ToolCalls = append(wm.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: argumentsJSON(tc.Arguments),
					},
				})
			}
		case schema.RoleTool:
			wm.ToolCallID = m.ToolCallID
			if wm.Content == "" {
				wm.Content = "(empty)"
			}
		}
		out = append(out, wm)
	}
	return out
}

func argumentsJSON(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// toWireTools converts definitions in OpenAI function-calling map form.
func toWireTools(defs []map[string]any) []openai.Tool {
	out := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		fn, _ := def["function"].(map[string]any)
		if fn == nil {
			continue
		}
		name, _ := fn["name"].(string)
		desc, _ := fn["description"].(string)
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        name,
				Description: desc,
				Parameters:  fn["parameters"],
			},
		})
	}
	return out
}

func fromWireResponse(resp openai.ChatCompletionResponse) (schema.LLMResponse, error) {
	if len(resp.Choices) == 0 {
		return schema.LLMResponse{}, errors.New("empty choices in response")
	}
	choice := resp.Choices[0]
	msg := choice.Message

	var content *string
	if msg.Content != "" {
		c := msg.Content
		content = &c
	}

	var toolCalls []schema.ToolCallRequest
	for _, tc := range msg.ToolCalls {
		args, err := repairJSON(tc.Function.Arguments)
		if err != nil {
			slog.Warn("failed to parse tool arguments", "tool", tc.Function.Name, "err", err)
			args = map[string]any{}
		}
		toolCalls = append(toolCalls, schema.ToolCallRequest{
			Id:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	finish := string(choice.FinishReason)
	if finish == "" {
		finish = "stop"
	}

	return schema.LLMResponse{
		Content:      content,
		ToolCalls:    toolCalls,
		FinishReason: finish,
		Usage: map[string]int{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
	}, nil
}

// describeError shortens API errors to something fit for a terminal.
func describeError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("LLM request failed: HTTP 429: rate limit exceeded: %w", err)
		}
		return fmt.Errorf("LLM request failed: HTTP %d: %s: %w", apiErr.HTTPStatusCode, truncate(apiErr.Message, 300), err)
	}
	return fmt.Errorf("LLM request failed: %w", err)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[:n]
	}
	return s
}

// repairJSON attempts to unmarshal JSON, retrying after stripping trailing
// garbage characters. Some models emit truncated tool arguments.
func repairJSON(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return nonNil(out), nil
	}

	// Attempt 1: trim trailing non-JSON characters.
	stripped := strings.TrimRight(raw, " \t\n\r}]")
	if !strings.HasSuffix(stripped, "}") {
		stripped += "}"
	}
	if err := json.Unmarshal([]byte(stripped), &out); err == nil {
		return nonNil(out), nil
	}

	// Attempt 2: find the last complete JSON object.
	if i := strings.LastIndex(raw, "}"); i >= 0 {
		if err := json.Unmarshal([]byte(raw[:i+1]), &out); err == nil {
			return nonNil(out), nil
		}
	}

	return map[string]any{}, fmt.Errorf("cannot repair JSON: %s", raw)
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
