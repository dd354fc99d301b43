package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/trakhound/trakhound-core/internal/adapters/driving/mcp"
)

var mcpHTTP string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve entities to AI assistants over MCP",
	Long: `Starts a Model Context Protocol server exposing entity reads, condition
queries and driver status as tools.

By default the server speaks over stdio. Use --http to serve the streamable
HTTP transport instead.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTP, "http", "", "serve over HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Entities: entityService,
		Query:    queryService,
		Drivers:  driverService,
	}, version, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The buffers stop once the client disconnects.
		defer stop()
		if mcpHTTP != "" {
			return server.RunHTTP(ctx, mcpHTTP)
		}
		return server.Run(ctx)
	})
	if engine != nil {
		g.Go(func() error { return engine.Start(ctx) })
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
