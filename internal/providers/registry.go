package providers

import (
	"os"
	"strings"
)

// ProviderSpec is the metadata record for one LLM provider.
type ProviderSpec struct {
	Name        string   // config field name, e.g. "gemini"
	Keywords    []string // model-name keywords for matching (lowercase)
	EnvKey      string   // env var for the API key
	AltEnvKey   string   // checked when EnvKey is unset
	DisplayName string

	DefaultAPIBase string // fallback base URL when none is configured
	DefaultModel   string
	KeyOptional    bool // local or self-hosted endpoints may run without a key
}

// Label returns the display name, defaulting to Title-cased Name.
func (s ProviderSpec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return strings.ToTitle(s.Name[:1]) + s.Name[1:]
}

// LookupKey returns the API key found in the environment, if any.
func (s ProviderSpec) LookupKey() string {
	for _, name := range []string{s.EnvKey, s.AltEnvKey} {
		if name == "" {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// PROVIDERS is the registry. Order = match priority.
var PROVIDERS = []ProviderSpec{
	{
		Name:           "gemini",
		Keywords:       []string{"gemini"},
		EnvKey:         "GOOGLE_API_KEY",
		AltEnvKey:      "GEMINI_API_KEY",
		DisplayName:    "Gemini",
		DefaultAPIBase: "https://generativelanguage.googleapis.com/v1beta/openai",
		DefaultModel:   "gemini-2.0-flash",
	},
	{
		Name:           "openai",
		Keywords:       []string{"openai", "gpt", "o1", "o3", "o4"},
		EnvKey:         "OPENAI_API_KEY",
		DisplayName:    "OpenAI",
		DefaultAPIBase: "https://api.openai.com/v1",
		DefaultModel:   "gpt-4o-mini",
	},
	{
		Name:           "openrouter",
		Keywords:       []string{"openrouter"},
		EnvKey:         "OPENROUTER_API_KEY",
		DisplayName:    "OpenRouter",
		DefaultAPIBase: "https://openrouter.ai/api/v1",
		DefaultModel:   "google/gemini-2.0-flash-001",
	},
	{
		Name:           "deepseek",
		Keywords:       []string{"deepseek"},
		EnvKey:         "DEEPSEEK_API_KEY",
		DisplayName:    "DeepSeek",
		DefaultAPIBase: "https://api.deepseek.com/v1",
		DefaultModel:   "deepseek-chat",
	},
	{
		Name:           "groq",
		Keywords:       []string{"groq", "llama"},
		EnvKey:         "GROQ_API_KEY",
		DisplayName:    "Groq",
		DefaultAPIBase: "https://api.groq.com/openai/v1",
		DefaultModel:   "llama-3.3-70b-versatile",
	},
	{
		Name:           "ollama",
		Keywords:       []string{"ollama"},
		EnvKey:         "OLLAMA_API_KEY",
		DisplayName:    "Ollama",
		DefaultAPIBase: "http://localhost:11434/v1",
		DefaultModel:   "llama3.2",
		KeyOptional:    true,
	},
	{
		Name:        "custom",
		EnvKey:      "OPENAI_API_KEY",
		DisplayName: "Custom",
		KeyOptional: true,
	},
}

// FindByModel matches a provider by model-name keyword (case-insensitive).
// An explicit "provider/" prefix wins over keywords.
func FindByModel(model string) *ProviderSpec {
	modelLower := strings.ToLower(model)
	if prefix, _, ok := strings.Cut(modelLower, "/"); ok {
		if s := FindByName(prefix); s != nil {
			return s
		}
	}

	for i := range PROVIDERS {
		spec := &PROVIDERS[i]
		for _, kw := range spec.Keywords {
			if strings.Contains(modelLower, kw) {
				return spec
			}
		}
	}
	return nil
}

// FindByName returns the ProviderSpec whose Name equals name.
func FindByName(name string) *ProviderSpec {
	name = strings.ToLower(strings.TrimSpace(name))
	for i := range PROVIDERS {
		if PROVIDERS[i].Name == name {
			return &PROVIDERS[i]
		}
	}
	return nil
}

// Names returns all registered provider names in registry order.
func Names() []string {
	out := make([]string, len(PROVIDERS))
	for i, s := range PROVIDERS {
		out[i] = s.Name
	}
	return out
}
