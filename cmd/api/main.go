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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/db"
	httpx "github.com/geocoder89/todohub/internal/http"
	"github.com/geocoder89/todohub/internal/http/handlers"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/geocoder89/todohub/internal/redisclient"
	"github.com/geocoder89/todohub/internal/repo/memory"
	"github.com/geocoder89/todohub/internal/repo/mongorepo"
	"github.com/geocoder89/todohub/internal/repo/postgres"
	"github.com/geocoder89/todohub/internal/repo/redisrepo"
	"github.com/geocoder89/todohub/internal/security"
	"github.com/geocoder89/todohub/internal/service"
	"github.com/geocoder89/todohub/internal/worker"
)

// stores groups the backends picked by STORE_DRIVER / SESSION_STORE.
type stores struct {
	users    service.UserStore
	tasks    service.TaskStore
	sessions auth.Store
	checks   []handlers.ReadinessCheck
	closers  []func()
	// sweeper is set when expired sessions must be purged in-process.
	sweeper worker.SessionSweeper
}

func main() {
	// Load the config set up
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdown, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: "todohub-api",
			Env:         cfg.Env,
			Endpoint:    cfg.OTelEndpoint,
			SampleRatio: cfg.OTelSampleRatio,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdown(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	st, err := openStores(ctx, cfg, prom, log)
	if err != nil {
		log.Error("store init failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		for i := len(st.closers) - 1; i >= 0; i-- {
			st.closers[i]()
		}
	}()

	hasher := security.NewHasher(cfg.BcryptCost)
	sessions := auth.NewManager(st.sessions, cfg.SessionSecret, cfg.SessionTTL)

	authSvc, err := service.NewAuthService(st.users, hasher, sessions, log)
	if err != nil {
		log.Error("auth service init failed", "err", err)
		os.Exit(1)
	}
	authSvc.WithMetrics(prom)
	taskSvc := service.NewTaskService(st.tasks)

	if err := db.EnsureSeedUser(ctx, st.users, hasher, cfg.SeedUsername, cfg.SeedPassword); err != nil {
		log.Error("seed user failed", "err", err)
		os.Exit(1)
	}

	if st.sweeper != nil {
		j := worker.NewJanitor(worker.Config{Interval: cfg.JanitorInterval}, st.sweeper, log).WithMetrics(prom)
		go func() { _ = j.Run(ctx) }()
	}

	router := httpx.NewRouter(httpx.Deps{
		Config:          cfg,
		Logger:          log,
		Auth:            authSvc,
		Tasks:           taskSvc,
		Sessions:        sessions,
		Prom:            prom,
		Gatherer:        reg,
		ReadinessChecks: st.checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"store", cfg.StoreDriver,
			"sessions", cfg.SessionStore,
		)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openStores(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (*stores, error) {
	st := &stores{}

	var pgDB postgres.DB

	switch cfg.StoreDriver {
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, pool.Close)

		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool); err != nil {
				return nil, err
			}
			log.Info("migrations applied")
		}

		pgDB = pool
		st.users = postgres.NewUsersRepo(pool, prom)
		st.tasks = postgres.NewTasksRepo(pool, prom)
		st.checks = append(st.checks, handlers.ReadinessCheck{Name: "postgres", Ping: pool.Ping})

	case "mongo":
		client, err := mongorepo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() {
			cctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = client.Disconnect(cctx)
		})

		database := client.Database(cfg.MongoDB)
		if err := mongorepo.EnsureIndexes(ctx, database); err != nil {
			return nil, err
		}

		st.users = mongorepo.NewUsersRepo(database, prom)
		st.tasks = mongorepo.NewTasksRepo(database, prom)
		st.checks = append(st.checks, handlers.ReadinessCheck{
			Name: "mongo",
			Ping: func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		})

	default:
		log.Warn("using in-memory store; data is lost on restart")
		st.users = memory.NewUsersRepo()
		st.tasks = memory.NewTasksRepo()
	}

	switch cfg.SessionStore {
	case "redis":
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		st.closers = append(st.closers, func() { _ = rc.Close() })

		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rc.Ping(pctx); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}

		st.sessions = redisrepo.NewSessionsRepo(rc.Raw())
		st.checks = append(st.checks, handlers.ReadinessCheck{Name: "redis", Ping: rc.Ping})

	case "postgres":
		// swept by cmd/worker
		st.sessions = postgres.NewSessionsRepo(pgDB, prom)

	default:
		mem := memory.NewSessionsRepo()
		st.sessions = mem
		st.sweeper = mem
	}

	return st, nil
}
