package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"westrates-service/internal/bootstrap"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := bootstrap.ProvideLogger()
	cfg := bootstrap.ProvideConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := bootstrap.ProvideDB(ctx, logger, cfg)
	if err != nil {
		logger.Fatal("bootstrap db", zap.Error(err))
	}
	defer closeDB()

	loc, err := bootstrap.ProvideLocation(cfg)
	if err != nil {
		logger.Fatal("bootstrap location", zap.Error(err))
	}

	repos := bootstrap.ProvideRepos(db)
	src := bootstrap.ProvideQuoteSource(cfg)
	sched, err := bootstrap.ProvideScheduler(cfg, repos, db, src, loc, logger)
	if err != nil {
		logger.Fatal("bootstrap scheduler", zap.Error(err))
	}

	logger.Info("scheduler started",
		zap.Ints("hours", cfg.IngestHours),
		zap.String("tz", cfg.ServiceTZ),
		zap.String("pair", cfg.IngestFrom+"/"+cfg.IngestTo),
	)
	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("scheduler exited", zap.Error(err))
	}
	logger.Info("scheduler stopped")
}
