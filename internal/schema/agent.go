package schema

import "context"

type AgentSettings struct {
	Model        string
	MaxIter      int
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

func NewAgentSettings(model string, maxIter int, temperature float64, maxTokens int) AgentSettings {
	return AgentSettings{
		Model:       model,
		MaxIter:     maxIter,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

// Querier answers one natural-language query with a structured response.
// Implemented by agent.Agent.
type Querier interface {
	Invoke(ctx context.Context, query string) (*AgentResponse, error)
}
