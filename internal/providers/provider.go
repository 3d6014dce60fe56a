// Package providers builds the schema.LLMProvider used by the agent.
//
// Every supported backend speaks the OpenAI chat-completions protocol; the
// registry only records where each one lives and which environment
// variable carries its key.
package providers

import "errors"

// ErrMissingAPIKey is returned when a provider needs a key and none was
// configured or found in the environment.
var ErrMissingAPIKey = errors.New("missing API key")

// ErrUnknownProvider is returned for a provider name not in the registry.
var ErrUnknownProvider = errors.New("unknown provider")
