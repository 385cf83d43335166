package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wellmeet/internal/api"
	"wellmeet/internal/config"
	"wellmeet/internal/metrics"
	"wellmeet/internal/recommend"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve /recommend, /reservation and /notifications from the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := newApp(ctx, "api-main")
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Booking.Backend != config.BackendLocal {
		return errors.New("serve needs booking.backend: local")
	}

	metrics.Register()
	srv := api.NewServer(a.cfg.Server, a.db, recommend.LocalRecommender{Catalog: recommend.DefaultCatalog()}, a.logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()
	a.logger.Info().Int("http_port", a.cfg.Server.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		a.logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		a.logger.Error().Err(err).Msg("http server stopped")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	a.logger.Info().Msg("API server stopped")
	return nil
}
