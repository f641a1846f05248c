package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/netdraw/internal/mcpserver"
	"github.com/matzehuels/netdraw/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an editing session and the diagram store over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			ed, err := c.newEditor()
			if err != nil {
				return err
			}

			c.Logger.Info("starting server", "addr", addr, "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)
			return server.New(ed, st, runner, c.Logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

// mcpCommand creates the mcp command.
func (c *CLI) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve an editing session as MCP tools on stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout so agents can
select tools, add and connect devices, and import or export diagrams.
Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := c.newEditor()
			if err != nil {
				return err
			}
			return mcpserver.New(ed, c.Logger).ServeStdio()
		},
	}
}
