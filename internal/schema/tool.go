// Package schema contains the core contracts shared across mcpchat packages.
// Concrete implementations live in their respective packages; this package
// holds only the interfaces and value types they exchange.
package schema

import (
	"context"
	"encoding/json"
)

// Tool is the interface all LLM-callable tools must satisfy.
// MCP-backed tool handles implement it.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema (as raw JSON bytes) for this tool's parameters.
	Parameters() json.RawMessage
	Execute(ctx context.Context, params map[string]any) (string, error)
}

// SourcedTool is a Tool that knows which server exposed it.
type SourcedTool interface {
	Tool
	Server() string
}
