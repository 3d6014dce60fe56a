package providers

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcpchat/mcpchat/internal/schema"
	"github.com/mcpchat/mcpchat/internal/shared/llmutils"
)

// Params are the raw values needed to construct a schema.LLMProvider.
// Extracted from config.ModelConfig by the caller.
type Params struct {
	ProviderName string // registry name, e.g. "gemini"; empty means infer from model
	APIKey       string // empty means read the provider's env var
	APIBase      string // empty means the provider's default base URL
	DefaultModel string
	MaxRetries   int

	// RetryWaitMin and RetryWaitMax bound the backoff between retries.
	// Zero keeps the HTTP client's defaults.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Resolve looks up the provider spec for p, inferring it from the model
// name when no provider is named and falling back to gemini.
func Resolve(p Params) (*ProviderSpec, error) {
	if name := strings.TrimSpace(p.ProviderName); name != "" {
		spec := FindByName(name)
		if spec == nil {
			return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownProvider, name, strings.Join(Names(), ", "))
		}
		return spec, nil
	}
	if spec := FindByModel(p.DefaultModel); spec != nil {
		return spec, nil
	}
	return FindByName("gemini"), nil
}

// New creates the LLM provider described by p.
func New(p Params) (*OpenAIProvider, error) {
	spec, err := Resolve(p)
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(p.APIKey)
	if apiKey == "" {
		apiKey = spec.LookupKey()
	}
	if apiKey == "" && !spec.KeyOptional {
		return nil, fmt.Errorf("%w for %s: set %s or model.api_key", ErrMissingAPIKey, spec.Label(), spec.EnvKey)
	}

	apiBase := strings.TrimRight(llmutils.StringOrDefault(strings.TrimSpace(p.APIBase), spec.DefaultAPIBase), "/")
	if apiBase == "" {
		return nil, fmt.Errorf("provider %s requires model.api_base", spec.Name)
	}

	model := llmutils.StringOrDefault(strings.TrimSpace(p.DefaultModel), spec.DefaultModel)
	if model == "" {
		return nil, fmt.Errorf("provider %s requires model.model", spec.Name)
	}

	return NewOpenAIProvider(OpenAIOptions{
		Spec:         spec,
		APIKey:       apiKey,
		APIBase:      apiBase,
		DefaultModel: model,
		MaxRetries:   p.MaxRetries,
		RetryWaitMin: p.RetryWaitMin,
		RetryWaitMax: p.RetryWaitMax,
	}), nil
}

var _ schema.LLMProvider = (*OpenAIProvider)(nil)
