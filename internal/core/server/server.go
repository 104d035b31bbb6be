package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dealmapper/happyhour/internal/core/config"
	"github.com/dealmapper/happyhour/internal/core/health"
	middleware "github.com/dealmapper/happyhour/internal/core/middleware"
	"github.com/dealmapper/happyhour/internal/core/router"
)

// Handler bundles the serving endpoints behind one dependency.
type Handler interface {
	router.NearbyHandler
	router.EstablishmentHandler
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, now router.Clock, h Handler, ready ...health.ReadinessReporter) error {
	r := chi.NewRouter()
	r.Use(middleware.Recover())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(ready...))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/deals/nearby", router.HandleNearby(logger, cfg, now, h))
	r.Get("/establishments/{id}/deals", router.HandleEstablishmentDeals(logger, now, h, func(req *http.Request) string {
		return chi.URLParam(req, "id")
	}))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
