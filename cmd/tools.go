package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mcpchat/mcpchat/internal/agent"
	"github.com/mcpchat/mcpchat/internal/console"
	"github.com/mcpchat/mcpchat/internal/dependency"
	"github.com/mcpchat/mcpchat/internal/schema"
	"github.com/mcpchat/mcpchat/internal/shared/llmutils"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Connect to the configured MCP servers and list their tools",
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

func runTools(cmd *cobra.Command, _ []string) error {
	out := console.New(cmd.OutOrStdout())

	cfg, err := loadConfig(out)
	if err != nil {
		return err
	}
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
	connector, err := cont.Connector()
	if err != nil {
		return err
	}
	defer closeGuard(connector.Guard())

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	report, err := connector.ConnectAll(ctx, cfg.Servers)
	if err != nil {
		return nil
	}

	list := report.Tools()
	if list.Len() == 0 {
		out.Errorf("No tools loaded from any MCP servers.")
		return nil
	}

	out.Break()
	tw := tabwriter.NewWriter(out.Writer(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVER\tTOOL\tEXPOSED AS\tDESCRIPTION")
	exposed := agent.ExposedNames(list)
	for i, t := range list.All() {
		server := ""
		if st, ok := t.(schema.SourcedTool); ok {
			server = st.Server()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", server, t.Name(), exposed[i], llmutils.Truncate(firstLine(t.Description()), 60))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, f := range report.Failed() {
		out.Errorf("%s unavailable: %v", f.Name, f.Err)
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
