package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"hypertune/internal/cfg"
	"hypertune/internal/metrics"
	"hypertune/internal/orchestrator"
)

func main() {
	// Optional .env for local runs; absence is not an error.
	_ = godotenv.Load()

	settings, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()
	if settings.MetricsPort > 0 {
		startMetricsServer(ctx, settings.MetricsPort)
	}

	orch, err := orchestrator.New(settings, m)
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator init failed")
	}
	defer orch.Close()

	if err := orch.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("search run failed")
	}
	log.Info().Msg("all model families searched and persisted")
}

func startMetricsServer(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Int("port", port).Msg("metrics endpoint listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
