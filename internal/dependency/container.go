// Package dependency wires core mcpchat services using go.uber.org/dig.
package dependency

import (
	"io"
	"log/slog"
	"time"

	"go.uber.org/dig"

	"github.com/mcpchat/mcpchat/internal/config"
	"github.com/mcpchat/mcpchat/internal/console"
	"github.com/mcpchat/mcpchat/internal/mcp"
	"github.com/mcpchat/mcpchat/internal/providers"
	"github.com/mcpchat/mcpchat/internal/schema"
)

// LLMModel is a named string type so dig can distinguish it from plain
// strings when injecting the effective model name.
type LLMModel string

// ConnectTimeout bounds the handshake of each MCP server. Zero means none.
type ConnectTimeout time.Duration

// Options carries values that come from the command line rather than the
// config file.
type Options struct {
	Out            io.Writer // status output; nil means stdout
	ConnectTimeout time.Duration
	Dialer         mcp.Dialer // nil means stdio subprocesses
}

// Container resolves services lazily: a service and its dependencies are
// built on first use and shared afterwards. Callers use the typed getters;
// they never need to import dig directly.
type Container struct {
	d *dig.Container
}

// New registers all constructors. Nothing is built until a getter runs.
func New(cfg *config.Config, opts Options) (*Container, error) {
	d := dig.New()

	ctors := []any{
		func() *config.Config { return cfg },
		func() *console.Printer { return console.New(opts.Out) },
		func() ConnectTimeout { return ConnectTimeout(opts.ConnectTimeout) },
		func() mcp.Dialer { return opts.Dialer },
		newProvider,
		resolveLLMModel,
		newAgentSettings,
		mcp.NewGuard,
		newConnector,
	}
	for _, ctor := range ctors {
		if err := d.Provide(ctor); err != nil {
			return nil, err
		}
	}
	return &Container{d: d}, nil
}

// Provider builds the LLM provider. It fails when the provider needs an
// API key and none is available.
func (c *Container) Provider() (schema.LLMProvider, error) {
	var p schema.LLMProvider
	err := c.d.Invoke(func(x schema.LLMProvider) { p = x })
	return p, unwrap(err)
}

// AgentSettings returns the agent loop settings derived from the config
// and the provider.
func (c *Container) AgentSettings() (schema.AgentSettings, error) {
	var s schema.AgentSettings
	err := c.d.Invoke(func(x schema.AgentSettings) { s = x })
	return s, unwrap(err)
}

// Connector returns the MCP connector and the guard that owns its sessions.
func (c *Container) Connector() (*mcp.Connector, error) {
	var conn *mcp.Connector
	err := c.d.Invoke(func(x *mcp.Connector) { conn = x })
	return conn, unwrap(err)
}

func unwrap(err error) error {
	if err == nil {
		return nil
	}
	return dig.RootCause(err)
}

func newProvider(cfg *config.Config) (schema.LLMProvider, error) {
	m := cfg.Model
	p, err := providers.New(providers.Params{
		ProviderName: m.Provider,
		APIKey:       m.APIKey,
		APIBase:      m.APIBase,
		DefaultModel: m.Model,
		MaxRetries:   m.MaxRetries,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("LLM provider ready", "provider", p.Spec().Name, "api_base", p.APIBase(), "model", p.DefaultModel())
	return p, nil
}

func resolveLLMModel(cfg *config.Config, p schema.LLMProvider) LLMModel {
	m := cfg.Model.Model
	if m == "" {
		m = p.DefaultModel()
	}
	return LLMModel(m)
}

func newAgentSettings(cfg *config.Config, model LLMModel) schema.AgentSettings {
	s := schema.NewAgentSettings(string(model), cfg.Model.MaxIterations, cfg.Model.Temperature, cfg.Model.MaxTokens)
	s.SystemPrompt = cfg.Model.SystemPrompt
	return s
}

func newConnector(dial mcp.Dialer, guard *mcp.Guard, out *console.Printer, timeout ConnectTimeout) *mcp.Connector {
	return mcp.NewConnector(dial, guard, out, time.Duration(timeout))
}
