package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcpchat/mcpchat/internal/schema"
)

const noOutput = "(no output)"

// toolWrapper wraps a single tool discovered from an MCP server and
// implements schema.SourcedTool. It stays valid only while its session is
// held by the Guard.
type toolWrapper struct {
	session     Session
	server      string
	name        string
	description string
	parameters  json.RawMessage
}

func newToolWrapper(server string, s Session, t mcp.Tool) (*toolWrapper, error) {
	params, err := inputSchema(t)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", t.Name, err)
	}
	return &toolWrapper{
		session:     s,
		server:      server,
		name:        t.Name,
		description: t.Description,
		parameters:  params,
	}, nil
}

func (w *toolWrapper) Name() string                { return w.name }
func (w *toolWrapper) Description() string         { return w.description }
func (w *toolWrapper) Parameters() json.RawMessage { return w.parameters }
func (w *toolWrapper) Server() string              { return w.server }

func (w *toolWrapper) Execute(ctx context.Context, params map[string]any) (string, error) {
	if params == nil {
		params = map[string]any{}
	}
	res, err := w.session.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      w.name,
			Arguments: params,
		},
	})
	if err != nil {
		return "", fmt.Errorf("call %s on %s: %w", w.name, w.server, err)
	}
	if res == nil {
		return noOutput, nil
	}

	out := flattenContent(res.Content)
	if res.IsError {
		return "", errors.New(out)
	}
	return out, nil
}

// inputSchema returns the tool's JSON schema, normalised to an object
// schema with a properties map.
func inputSchema(t mcp.Tool) (json.RawMessage, error) {
	raw := t.RawInputSchema
	if len(raw) == 0 {
		b, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode input schema: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	if typ, _ := m["type"].(string); typ == "" {
		m["type"] = "object"
	}
	if _, ok := m["properties"]; !ok {
		m["properties"] = map[string]any{}
	}
	return json.Marshal(m)
}

// flattenContent joins text blocks with newlines and describes the rest.
func flattenContent(blocks []mcp.Content) string {
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		switch c := block.(type) {
		case mcp.TextContent:
			if c.Text != "" {
				parts = append(parts, c.Text)
			}
		case *mcp.TextContent:
			if c.Text != "" {
				parts = append(parts, c.Text)
			}
		case mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[image: %s]", c.MIMEType))
		case mcp.AudioContent:
			parts = append(parts, fmt.Sprintf("[audio: %s]", c.MIMEType))
		case mcp.EmbeddedResource:
			parts = append(parts, describeResource(c.Resource))
		default:
			parts = append(parts, fmt.Sprintf("[unsupported content %T]", block))
		}
	}

	out := strings.Join(parts, "\n")
	if out == "" {
		out = noOutput
	}
	return out
}

func describeResource(r mcp.ResourceContents) string {
	switch rc := r.(type) {
	case mcp.TextResourceContents:
		return rc.Text
	case mcp.BlobResourceContents:
		return fmt.Sprintf("[resource %s: %s]", rc.URI, rc.MIMEType)
	}
	return "[resource]"
}

// Ensure toolWrapper implements schema.SourcedTool at compile time.
var _ schema.SourcedTool = (*toolWrapper)(nil)
