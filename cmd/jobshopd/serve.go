package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flowforge/jobshop/internal/config"
	"github.com/flowforge/jobshop/pkg/api"
	"github.com/flowforge/jobshop/pkg/events"
)

func serveEventsCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve-events",
		Short: "Run the ops HTTP surface (health and recent-events feed)",
		Long: `serve-events starts a small, read-only HTTP surface for operators:
a liveness check and a feed of recently published domain events. It does
not expose the solve API itself — problems are solved through the
"solve" subcommand or in-process via pkg/engine.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeEvents(listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "override the configured listen address")

	return cmd
}

func runServeEvents(listenOverride string) error {
	cfg := config.LoadConfig()
	if listenOverride != "" {
		cfg.API.Listen = listenOverride
	}
	logger := slog.Default()

	bus := events.New(cfg.Telemetry.EventBufferCapacity, logger)
	srv := api.NewServer(&cfg.API, bus, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		return srv.Stop(context.Background())
	case err := <-errCh:
		return err
	}
}
