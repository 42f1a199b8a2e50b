package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hifztracker/internal/config"
	"hifztracker/internal/export"
	"hifztracker/internal/logbook"
	"hifztracker/internal/logger"
	"hifztracker/internal/queue"
	"hifztracker/internal/store"
)

// Worker consumes export jobs from Redis and renders their CSV files.
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

	if cfg.QueueBackend != "redis" {
		log.Fatal("worker needs QUEUE_BACKEND=redis; the memory backend runs inside the api process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db connect failed", "error", err)
	}
	defer db.Close()

	redisClient, err := store.NewRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis config invalid", "error", err)
	}
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Warn("redis not reachable yet, will keep polling", "addr", cfg.RedisAddr)
	}

	q := queue.NewRedisQueue(redisClient.Client, store.Key("exports"))
	jobs := export.NewRedisStore(redisClient.Client, store.Key("export")+":", cfg.ExportTTL)
	worker := export.NewWorker(jobs, logbook.NewRepository(db), log)

	msgs, err := q.Consume(ctx)
	if err != nil {
		log.Fatal("queue consume init failed", "error", err)
	}
	if err := worker.Run(ctx, msgs); err != nil {
		log.Error("worker stopped with error", "error", err)
	}
}
