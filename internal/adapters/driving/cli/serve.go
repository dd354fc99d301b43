package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/trakhound/trakhound-core/internal/adapters/driving/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serves the entity, query and driver API over HTTP and runs the write
buffer flush loops until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if entityService == nil || queryService == nil || driverService == nil {
		return errors.New("services not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []api.Option{
		api.WithVersion(version),
		api.WithQueryTimeout(cfg.Query.Timeout.Std()),
	}
	if engine != nil {
		opts = append(opts, api.WithMetricSets(engine.MetricsSets()...))
	}
	router := api.NewRouter(api.NewHandlers(entityService, queryService, driverService, log, opts...))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening on %s", cfg.HTTP.Listen)
		return api.Serve(ctx, cfg.HTTP.Listen, router, nil)
	})
	if engine != nil {
		g.Go(func() error { return engine.Start(ctx) })
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
