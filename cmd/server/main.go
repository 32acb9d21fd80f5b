package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sliding_rate_limiter/config"
	"sliding_rate_limiter/httpapi"
	"sliding_rate_limiter/limiter"
	"sliding_rate_limiter/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	clock, err := limiter.NewRealClockWithResolution(cfg.Limiter.Tick)
	if err != nil {
		log.Fatalf("failed to create clock: %v", err)
	}

	var recorder *metrics.Recorder
	opts := cfg.Limiter.Options()
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder()
		opts = append(opts, limiter.WithObserver(recorder))
	}

	ml, err := limiter.NewMemoryLimiter(clock, cfg.Limiter.Window(), cfg.Limiter.Capacity, opts...)
	if err != nil {
		log.Fatalf("failed to create limiter: %v", err)
	}

	fl, err := limiter.NewFallbackLimiter(ml, cfg.Limiter.AnomalyPolicy)
	if err != nil {
		log.Fatalf("failed to create fallback limiter: %v", err)
	}

	var metricsHandler http.Handler
	if recorder != nil {
		if err := recorder.TrackKeys(ml.Len); err != nil {
			log.Fatalf("failed to register metrics: %v", err)
		}
		metricsHandler = recorder.Handler()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: httpapi.NewRouter(ml, fl, metricsHandler),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s (window=%v capacity=%d policy=%s)", srv.Addr, cfg.Limiter.WindowLength, cfg.Limiter.Capacity, cfg.Limiter.AnomalyPolicy)
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
