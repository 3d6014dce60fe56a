package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mcpchat/mcpchat/internal/config"
	"github.com/mcpchat/mcpchat/internal/console"
	"github.com/mcpchat/mcpchat/internal/providers"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a sample MCP config file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file")
}

// sampleConfig is a working starting point: one time server, plus a
// filesystem server left disabled until its root is edited.
func sampleConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Servers = config.ServerList{
		{Name: "time", Command: "uvx", Args: []string{"mcp-server-time"}},
		{
			Name:     "filesystem",
			Command:  "npx",
			Args:     []string{"-y", "@modelcontextprotocol/server-filesystem", "/path/to/allowed/dir"},
			Disabled: true,
		},
	}
	return cfg
}

func runInit(cmd *cobra.Command, args []string) error {
	out := console.New(cmd.OutOrStdout())

	path, _ := config.ResolvePath(flagConfig)
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		if _, loadErr := config.Load(path); loadErr != nil {
			out.Errorf("Config at %s does not load: %v", path, loadErr)
			return reported(loadErr)
		}
		out.Successf("Config already exists at %s (left unchanged; use --force to replace it)", path)
		return nil
	}

	cfg := sampleConfig()
	if err := config.Save(&cfg, path); err != nil {
		return err
	}
	out.Successf("Created config at %s", path)

	spec := providers.FindByName(cfg.Model.Provider)
	out.Break()
	out.Println("Next steps:")
	if spec != nil {
		out.Printf("  1. Export %s (or put it in .env)\n", spec.EnvKey)
	}
	out.Printf("  2. Point %s at %s, or pass --config\n", config.EnvConfigPath, path)
	out.Println("  3. Run: mcpchat")
	return nil
}
