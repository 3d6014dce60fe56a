package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcpchat/mcpchat/internal/config"
	"github.com/mcpchat/mcpchat/internal/providers"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show config, provider and server settings without connecting",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	cfgPath, fellBack := config.ResolvePath(flagConfig)

	fmt.Fprintf(w, "mcpchat %s status\n\n", version)

	_, statErr := os.Stat(cfgPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	source := "$" + config.EnvConfigPath
	switch {
	case flagConfig != "":
		source = "--config"
	case fellBack:
		source = "default"
	}
	fmt.Fprintf(w, "Config:    %s %s (%s)\n", cfgPath, cfgMark, source)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(w, "  (could not load config: %v)\n", err)
		return nil
	}

	params := providers.Params{ProviderName: cfg.Model.Provider, DefaultModel: cfg.Model.Model}
	spec, err := providers.Resolve(params)
	if err != nil {
		fmt.Fprintf(w, "Provider:  %v\n", err)
	} else {
		keyMark := "(not set)"
		switch {
		case cfg.Model.APIKey != "":
			keyMark = "✓ (config)"
		case spec.LookupKey() != "":
			keyMark = "✓ $" + spec.EnvKey
		case spec.KeyOptional:
			keyMark = "(optional)"
		}
		fmt.Fprintf(w, "Provider:  %s, key %s\n", spec.Label(), keyMark)
	}
	fmt.Fprintf(w, "Model:     %s (temperature %g, max retries %d)\n\n", cfg.Model.Model, cfg.Model.Temperature, cfg.Model.MaxRetries)

	fmt.Fprintf(w, "Servers (%d of %d enabled):\n", len(cfg.EnabledServers()), len(cfg.Servers))
	if len(cfg.Servers) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, sc := range cfg.Servers {
		state := "✓"
		if sc.Disabled {
			state = "disabled"
		}
		fmt.Fprintf(w, "  %-20s %s %v %s\n", sc.Name, sc.Command, sc.Args, state)
	}
	return nil
}
