package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/imtiler/internal/server"
	"github.com/matzehuels/imtiler/pkg/cache"
	"github.com/matzehuels/imtiler/pkg/pipeline"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr string
		cf   cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve tile placement over HTTP",
		Long: `Serve tile placement over HTTP.

Routes:
  POST /v1/tiles   JSON body with base64 mask images and options
  GET  /healthz    liveness probe
  GET  /version    build information

API results share the cache backend with the CLI but live under their
own key prefix.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.newCache(ctx, cf)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(store, cache.NewScopedKeyer(nil, "api:"), c.Logger)
			defer runner.Close()

			printInfo("Serving on %s", addr)
			return server.New(runner, c.Logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cf.register(cmd)

	return cmd
}
