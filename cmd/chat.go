package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcpchat/mcpchat/internal/agent"
	"github.com/mcpchat/mcpchat/internal/config"
	"github.com/mcpchat/mcpchat/internal/console"
	"github.com/mcpchat/mcpchat/internal/dependency"
	"github.com/mcpchat/mcpchat/internal/mcp"
	"github.com/mcpchat/mcpchat/internal/repl"
)

// runChat is the default command: connect, build the agent, run the REPL.
func runChat(cmd *cobra.Command, _ []string) error {
	out := console.New(cmd.OutOrStdout())

	cfg, err := loadConfig(out)
	if err != nil {
		return err
	}
	printConfig(out, cfg)

	if err := cfg.RequireServers(); err != nil {
		out.Errorf("No MCP servers found in config.")
		return reported(err)
	}

	cont, err := dependency.New(cfg, dependency.Options{
		Out:            out.Writer(),
		ConnectTimeout: flagConnectTimeout,
	})
	if err != nil {
		return err
	}
	provider, err := cont.Provider()
	if err != nil {
		out.Errorf("Error creating LLM provider: %v", err)
		return reported(err)
	}
	settings, err := cont.AgentSettings()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	connector, err := cont.Connector()
	if err != nil {
		return err
	}
	defer closeGuard(connector.Guard())

	report, err := connector.ConnectAll(ctx, cfg.Servers)
	if err != nil {
		slog.Info("Connection interrupted", "err", err)
		return nil
	}
	slog.Info("MCP connection summary", "connected", report.Connected(), "failed", len(report.Failed()))
	if err := report.RequireTools(); err != nil {
		out.Errorf("No tools loaded from any MCP servers.")
		return nil
	}

	a := agent.Build(provider, report.Tools(), settings)
	for exposed, orig := range a.Renamed() {
		slog.Info("Tool renamed to avoid a name collision", "tool", orig, "exposed_as", exposed)
	}

	reader, err := repl.NewLineReader(os.Stdin, out.Writer(), historyFile())
	if err != nil {
		return err
	}
	defer reader.Close()

	out.Break()
	out.Agentf("Starting MCP agent loop. Type '%s' to quit.", repl.ExitKeyword)
	return repl.New(a, reader, out).Run(ctx)
}

// loadConfig resolves the config path, loads the file and applies command
// line overrides. Failures are printed and returned as reported errors.
func loadConfig(out *console.Printer) (*config.Config, error) {
	path, fellBack := config.ResolvePath(flagConfig)
	if fellBack {
		out.Warnf("%s not set. Using default config path: %s", config.EnvConfigPath, path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		out.Errorf("Error loading MCP config: %v", err)
		return nil, reported(err)
	}
	out.Successf("Loaded MCP config from %s", path)

	if flagProvider != "" {
		cfg.Model.Provider = flagProvider
	}
	if flagModel != "" {
		cfg.Model.Model = flagModel
	}
	return cfg, nil
}

// printConfig shows the effective config with secrets masked.
func printConfig(out *console.Printer, cfg *config.Config) {
	shown := *cfg
	if shown.Model.APIKey != "" {
		shown.Model.APIKey = "***"
	}
	shown.Servers = make(config.ServerList, len(cfg.Servers))
	for i, sc := range cfg.Servers {
		if len(sc.Env) > 0 {
			masked := make(map[string]string, len(sc.Env))
			for k := range sc.Env {
				masked[k] = "***"
			}
			sc.Env = masked
		}
		shown.Servers[i] = sc
	}
	b, err := json.Marshal(shown)
	if err != nil {
		slog.Warn("Cannot render config", "err", err)
		return
	}
	out.Println("Config:", string(b))
}

// signalContext cancels on SIGINT or SIGTERM. Cancelling unwinds the REPL
// and lets deferred cleanup stop the MCP servers.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("Received signal, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func closeGuard(g *mcp.Guard) {
	if err := g.Close(); err != nil {
		slog.Warn("Closing MCP sessions", "err", err)
	}
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err == nil {
		dir = filepath.Join(dir, "mcpchat")
		err = os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return filepath.Join(os.TempDir(), ".mcpchat_history")
	}
	return filepath.Join(dir, "history")
}
