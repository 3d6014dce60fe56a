// Package cmd implements the mcpchat CLI using cobra.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mcpchat/mcpchat/internal/logging"
)

// version is overridden at build time with -ldflags "-X".
var version = "0.1.0"

var (
	flagConfig         string
	flagModel          string
	flagProvider       string
	flagConnectTimeout time.Duration
	flagVerbose        bool
	flagLogLevel       string
	flagEnvFile        string
)

// rootCmd is the base command. Run without a subcommand it starts the chat.
var rootCmd = &cobra.Command{
	Use:   "mcpchat",
	Short: "Chat with an LLM agent that uses tools from MCP servers",
	Long: `mcpchat launches the MCP servers named in its config file, gathers their
tools, and relays your questions to a tool-using agent.

The config file is taken from --config, then $MCP_CONFIG_PATH, then
mcp_config.json next to the executable.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runChat,
}

// reportedError marks an error whose message was already shown to the user.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error { return reportedError{err: err} }

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var r reportedError
		if !errors.As(err, &r) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "path to the MCP config file (overrides $MCP_CONFIG_PATH)")
	pf.StringVar(&flagModel, "model", "", "model name (overrides model.model)")
	pf.StringVar(&flagProvider, "provider", "", "LLM provider (overrides model.provider)")
	pf.DurationVar(&flagConnectTimeout, "connect-timeout", 0, "per-server handshake timeout, e.g. 30s (0 = no limit)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log progress to stderr")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flagEnvFile, "env-file", ".env", "dotenv file loaded before reading the config")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the dotenv file and configures logging for every command.
func setup(_ *cobra.Command, _ []string) error {
	levelName := flagLogLevel
	if levelName == "" && flagVerbose {
		levelName = "info"
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	logging.InitForCLI(level, os.Stderr)

	if flagEnvFile != "" {
		if err := godotenv.Load(flagEnvFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load %s: %w", flagEnvFile, err)
			}
			slog.Debug("No dotenv file", "path", flagEnvFile)
		} else {
			slog.Info("Loaded dotenv file", "path", flagEnvFile)
		}
	}
	return nil
}
