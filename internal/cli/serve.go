package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/cratemover/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the solver over HTTP",
		Long: `Serve the solver over HTTP until interrupted.

Endpoints:
  POST /v1/solve    {"input": "...", "policy": "batch"}
  POST /v1/stacks   {"input": "..."}
  GET  /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			return server.New(runner, c.Logger.WithPrefix("http")).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
