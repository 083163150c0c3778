package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"storefront/internal/auth"
	"storefront/internal/database"
	"storefront/internal/events"
	httpapi "storefront/internal/http"
)

func newServeCmd(a *app) *cobra.Command {
	var migrate, seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, migrate, seed)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")
	cmd.Flags().BoolVar(&seed, "seed", false, "insert bootstrap accounts and the demo catalog before serving")
	return cmd
}

func (a *app) serve(ctx context.Context, migrate, seed bool) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			a.logger.Error("close store", "err", err)
		}
	}()

	if migrate {
		if err := st.migrate(); err != nil {
			return err
		}
	}
	if seed {
		if err := database.Seed(ctx, st.set, database.DefaultSeedConfig()); err != nil {
			return err
		}
	}

	publisher := events.NewKafkaPublisher(a.cfg.KafkaBrokers)
	defer func() {
		if err := publisher.Close(); err != nil {
			a.logger.Error("close event publisher", "err", err)
		}
	}()
	if len(a.cfg.KafkaBrokers) == 0 {
		a.logger.Info("kafka_brokers not set, order events are not published")
	}

	gin.SetMode(a.cfg.GinMode)
	tokens := auth.NewTokens(a.cfg.JWTSecret, a.cfg.JWTTTL)
	srv := httpapi.NewServer(newServices(st.set, publisher), tokens, a.logger, httpapi.WithHealthCheck(st.ping))

	httpServer := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", "timeout", a.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
