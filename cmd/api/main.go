package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"westrates-service/internal/bootstrap"
	infraconfig "westrates-service/internal/infrastructure/config"
	httpserver "westrates-service/internal/infrastructure/http"
	"westrates-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	ctx := context.Background()
	logger := bootstrap.ProvideLogger()
	defer func() { _ = logx.L().Sync() }()
	cfg := bootstrap.ProvideConfig()
	addr := ":" + cfg.Port

	db, closeDB, err := bootstrap.ProvideDB(ctx, logger, cfg)
	if err != nil {
		logger.Fatal("bootstrap db", zap.Error(err))
	}
	defer closeDB()

	idem, closeIdem, err := bootstrap.ProvideIdempotency(cfg)
	if err != nil {
		logger.Fatal("bootstrap idempotency", zap.Error(err))
	}
	defer closeIdem()

	tokens, err := bootstrap.ProvideTokenIssuer(cfg)
	if err != nil {
		logger.Fatal("bootstrap token issuer", zap.Error(err))
	}

	loc, err := bootstrap.ProvideLocation(cfg)
	if err != nil {
		logger.Fatal("bootstrap location", zap.Error(err))
	}

	repos := bootstrap.ProvideRepos(db)
	rates := bootstrap.ProvideRatesService(repos, db, idem, loc)
	users := bootstrap.ProvideUserService(repos, tokens)

	if err := bootstrap.EnsureAdmin(ctx, cfg, users, logger); err != nil {
		logger.Fatal("seed admin", zap.Error(err))
	}

	srv := httpserver.NewServer(rates, users, tokens).WithPing(db.Ping)
	server := &http.Server{
		Addr:    addr,
		Handler: httpserver.NewRouter(srv),
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}
