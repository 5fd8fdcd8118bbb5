package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/partscout/internal/api"
	"github.com/matzehuels/partscout/pkg/observability/prom"
)

// serveOpts holds flags for the serve command.
type serveOpts struct {
	addr    string
	metrics bool
	dryRun  bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: ":8080", metrics: true}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve supplier searches over HTTP",
		Long: `Serve supplier searches over HTTP.

Endpoints:
  GET /suppliers         available and loaded suppliers
  GET /search?q=<term>   search every loaded supplier
  GET /metrics           Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var apiOpts []api.Option
			if opts.metrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				hooks, err := prom.New(reg)
				if err != nil {
					return err
				}
				hooks.Install()
				apiOpts = append(apiOpts, api.WithMetrics(prom.Handler(reg)))
			}

			e, err := c.newEnv(ctx, envOptions{dryRun: opts.dryRun})
			if err != nil {
				return err
			}
			defer e.Close()

			apiOpts = append(apiOpts,
				api.WithLogger(c.Logger),
				api.WithMaxResults(e.cfg.MaxResults),
			)
			if len(e.registry.Loaded()) == 0 {
				c.Logger.Warn("serving without any loaded supplier", "suppliers", c.suppliersFile(e.cfg))
			}
			return api.New(e.registry, e.dispatch, apiOpts...).Serve(ctx, opts.addr)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", opts.metrics, "expose Prometheus metrics at /metrics")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "do not record supplier companies in the inventory")

	return cmd
}
