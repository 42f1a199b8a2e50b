package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"hifztracker/internal/api"
	"hifztracker/internal/config"
	"hifztracker/internal/export"
	"hifztracker/internal/logbook"
	"hifztracker/internal/logger"
	"hifztracker/internal/queue"
	"hifztracker/internal/roster"
	"hifztracker/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	for _, w := range cfg.Warnings {
		log.Warn("config", "warning", w)
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Fatal("http server failed", "error", err)
	}
}

func runHTTP(cfg config.App, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	log.Info("database ready", "driver", cfg.DBDriver)

	checks := map[string]api.HealthCheck{
		"db": func(ctx context.Context) bool { return db.Ping(ctx) == nil },
	}

	var (
		q    queue.Queue
		jobs export.Store
	)
	if cfg.QueueBackend == "redis" {
		redisClient, err := store.NewRedis(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		q = queue.NewRedisQueue(redisClient.Client, store.Key("exports"))
		jobs = export.NewRedisStore(redisClient.Client, store.Key("export")+":", cfg.ExportTTL)
		checks["redis"] = redisClient.Healthy
	} else {
		q = queue.NewInMemory(64)
		jobs = export.NewMemoryStore(cfg.ExportTTL)
	}

	students := roster.NewRepository(db)
	logs := logbook.NewRepository(db)
	exports := export.NewService(jobs, q)

	h := api.New(students, logs, exports, log, checks)
	r := api.NewRouter(h, log, api.RouterOptions{
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		// give outstanding requests 10 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.QueueBackend == "memory" {
		// the in-memory queue is only reachable from this process
		worker := export.NewWorker(jobs, logs, log)
		g.Go(func() error {
			msgs, err := q.Consume(gctx)
			if err != nil {
				return err
			}
			return worker.Run(gctx, msgs)
		})
	}

	err = g.Wait()
	log.Info("server exited")
	return err
}
