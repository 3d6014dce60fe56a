// Package config defines the configuration schema for mcpchat and loads it
// from disk.
//
// The document is JSON (YAML is accepted for .yaml/.yml files). Server
// entries keep the order in which they appear in the file, whichever
// format is used.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrNoServers is returned when the document configures no MCP servers.
var ErrNoServers = errors.New("no MCP servers found in config")

// ServerConfig describes one MCP server launched as a subprocess.
type ServerConfig struct {
	Name     string            `json:"-" yaml:"-"`
	Command  string            `json:"command" yaml:"command"`
	Args     []string          `json:"args" yaml:"args"`
	Env      map[string]string `json:"env,omitempty" yaml:"env"`
	Disabled bool              `json:"disabled,omitempty" yaml:"disabled"`
}

// ServerList is the ordered set of configured servers, keyed by name in
// the document.
type ServerList []ServerConfig

// UnmarshalYAML decodes a mapping node while keeping document order.
func (l *ServerList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*l = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: mcp_servers must be an object", node.Line)
	}

	seen := make(map[string]bool, len(node.Content)/2)
	out := make(ServerList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if seen[name] {
			return fmt.Errorf("line %d: duplicate server %q", node.Content[i].Line, name)
		}
		seen[name] = true

		var sc ServerConfig
		if err := node.Content[i+1].Decode(&sc); err != nil {
			return fmt.Errorf("server %q: %w", name, err)
		}
		sc.Name = name
		out = append(out, sc)
	}
	*l = out
	return nil
}

// UnmarshalJSON decodes a JSON object while keeping document order.
func (l *ServerList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*l = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("mcp_servers must be an object")
	}

	seen := make(map[string]bool)
	out := make(ServerList, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		if seen[name] {
			return fmt.Errorf("duplicate server %q", name)
		}
		seen[name] = true

		var sc ServerConfig
		if err := dec.Decode(&sc); err != nil {
			return fmt.Errorf("server %q: %w", name, err)
		}
		sc.Name = name
		out = append(out, sc)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*l = out
	return nil
}

// MarshalJSON encodes the list as a JSON object in list order.
func (l ServerList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sc := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(sc.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(sc)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Names returns the server names in document order.
func (l ServerList) Names() []string {
	names := make([]string, len(l))
	for i, sc := range l {
		names[i] = sc.Name
	}
	return names
}

// ModelConfig selects and tunes the language model behind the agent.
type ModelConfig struct {
	Provider      string  `json:"provider" yaml:"provider"`
	Model         string  `json:"model" yaml:"model"`
	APIKey        string  `json:"api_key,omitempty" yaml:"api_key"`
	APIBase       string  `json:"api_base,omitempty" yaml:"api_base"`
	Temperature   float64 `json:"temperature" yaml:"temperature"`
	MaxTokens     int     `json:"max_tokens,omitempty" yaml:"max_tokens"`
	MaxRetries    int     `json:"max_retries" yaml:"max_retries"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations"`
	SystemPrompt  string  `json:"system_prompt,omitempty" yaml:"system_prompt"`
}

func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Provider:      "gemini",
		Model:         "gemini-2.0-flash",
		Temperature:   0,
		MaxRetries:    2,
		MaxIterations: 25,
	}
}

// Config is the root configuration document.
type Config struct {
	Servers ServerList  `json:"mcp_servers" yaml:"mcp_servers"`
	Model   ModelConfig `json:"model" yaml:"model"`
}

func DefaultConfig() Config {
	return Config{
		Servers: ServerList{},
		Model:   DefaultModelConfig(),
	}
}

// EnabledServers returns the servers not marked disabled, in order.
func (c *Config) EnabledServers() ServerList {
	out := make(ServerList, 0, len(c.Servers))
	for _, sc := range c.Servers {
		if !sc.Disabled {
			out = append(out, sc)
		}
	}
	return out
}

// RequireServers reports ErrNoServers when nothing is configured.
func (c *Config) RequireServers() error {
	if len(c.Servers) == 0 {
		return ErrNoServers
	}
	return nil
}

func (c *Config) validate() error {
	for _, sc := range c.Servers {
		if sc.Name == "" {
			return fmt.Errorf("server with empty name")
		}
		if sc.Command == "" {
			return fmt.Errorf("server %q: command is required", sc.Name)
		}
	}
	if c.Model.MaxRetries < 0 {
		return fmt.Errorf("model.max_retries must not be negative")
	}
	if c.Model.MaxIterations <= 0 {
		return fmt.Errorf("model.max_iterations must be positive")
	}
	return nil
}
