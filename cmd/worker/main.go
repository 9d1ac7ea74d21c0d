package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/db"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/geocoder89/todohub/internal/repo/postgres"
	"github.com/geocoder89/todohub/internal/worker"
)

// The worker purges expired Postgres sessions. Redis expires keys on its
// own and the in-memory store is swept inside the API process.
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env).With("component", "janitor")
	slog.SetDefault(log)

	if cfg.SessionStore != "postgres" {
		log.Info("nothing to sweep", "session_store", cfg.SessionStore)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	prom := observability.NewProm(prometheus.NewRegistry())

	j := worker.NewJanitor(worker.Config{
		Interval:     cfg.JanitorInterval,
		SweepTimeout: 30 * time.Second,
	}, postgres.NewSessionsRepo(pool, prom), log).WithMetrics(prom)

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           j.HealthHandler(pool),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", "err", err)
		}
	}()

	if err := j.Run(ctx); err != nil {
		log.Error("janitor stopped with error", "err", err)
	}

	sctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(sctx)

	log.Info("worker shutdown complete")
}
