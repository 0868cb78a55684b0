package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"westrates-service/internal/application"
	"westrates-service/internal/config"
	"westrates-service/internal/domain"
	"westrates-service/internal/infrastructure/auth"
	"westrates-service/internal/infrastructure/binance"
	infraconfig "westrates-service/internal/infrastructure/config"
	"westrates-service/internal/infrastructure/httpx"
	"westrates-service/internal/infrastructure/logx"
	"westrates-service/internal/infrastructure/pg"
	redisstore "westrates-service/internal/infrastructure/redis"
	"westrates-service/internal/ingest"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required")
var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

type Repos struct {
	Rates application.RateRepo
	Users application.UserRepo
}

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() config.Config { return config.Load() }

// ProvideDB connects, runs migrations and returns the handle with its cleanup.
func ProvideDB(ctx context.Context, log *zap.Logger, cfg config.Config) (*pg.DB, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, ErrMissingDBURL
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, func() {}, err
	}
	cleanup := func() {
		if log != nil {
			log.Info("closing pg")
		}
		db.Close()
	}
	return db, cleanup, nil
}

func ProvideRepos(db *pg.DB) Repos {
	return Repos{
		Rates: pg.NewRateRepo(db),
		Users: pg.NewUserRepo(db),
	}
}

// ProvideIdempotency returns a Redis-backed store when
// IDEMPOTENCY_BACKEND=redis, otherwise the no-op store.
func ProvideIdempotency(cfg config.Config) (application.IdempotencyStore, func(), error) {
	if cfg.IdempotencyBackend != "redis" {
		return application.NoopIdempotency{}, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return redisstore.New(client, cfg.IdempotencyTTL), func() { _ = client.Close() }, nil
}

func ProvideQuoteSource(cfg config.Config) application.QuoteSource {
	return &binance.Client{
		BaseURL: cfg.BinanceURL,
		HTTP:    &httpx.Client{HTTP: &http.Client{Timeout: cfg.FetchTimeout}},
	}
}

func ProvideTokenIssuer(cfg config.Config) (*auth.TokenIssuer, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	return &auth.TokenIssuer{Secret: []byte(cfg.JWTSecret), TTL: cfg.AccessTokenTTL}, nil
}

// ProvideLocation loads the service timezone; both the scheduler and the
// named-range windows must share it.
func ProvideLocation(cfg config.Config) (*time.Location, error) {
	loc, err := time.LoadLocation(cfg.ServiceTZ)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", cfg.ServiceTZ, err)
	}
	return loc, nil
}

func ProvideRatesService(r Repos, db *pg.DB, idem application.IdempotencyStore, loc *time.Location) *application.RatesService {
	return application.NewRatesService(r.Rates,
		application.WithUnitOfWork(&pg.UnitOfWork{Pool: db.Pool}),
		application.WithIdempotency(idem),
		application.WithRatesLocation(loc),
	)
}

func ProvideUserService(r Repos, tokens *auth.TokenIssuer) *application.UserService {
	return application.NewUserService(r.Users, auth.Hasher{}, tokens)
}

// ProvideScheduler assembles the ingestion pipeline and its schedule.
func ProvideScheduler(cfg config.Config, r Repos, db *pg.DB, src application.QuoteSource, loc *time.Location, log *zap.Logger) (*ingest.Scheduler, error) {
	from := domain.Currency(cfg.IngestFrom)
	to := domain.Currency(cfg.IngestTo)
	if !domain.ValidCurrency(from) || !domain.ValidCurrency(to) {
		return nil, fmt.Errorf("unsupported ingest pair %s/%s", from, to)
	}
	rows := cfg.IngestRows
	if rows <= 0 || rows > infraconfig.DefaultIngestRows {
		rows = infraconfig.DefaultIngestRows
	}
	p := &ingest.Pipeline{
		Source: src,
		Rates:  r.Rates,
		UoW:    &pg.UnitOfWork{Pool: db.Pool},
		Query: application.QuoteQuery{
			Fiat:      cfg.IngestFiat,
			Asset:     cfg.IngestAsset,
			TradeType: cfg.IngestTradeType,
			Page:      1,
			Rows:      rows,
		},
		Pair: ingest.Pair{From: from, To: to},
		Log:  log,
	}
	return &ingest.Scheduler{
		Pipeline: p,
		Hours:    cfg.IngestHours,
		Loc:      loc,
		Timeout:  infraconfig.DefaultTickTimeout,
		Log:      log,
	}, nil
}

// EnsureAdmin seeds the bootstrap admin account when configured. An
// already existing account is fine.
func EnsureAdmin(ctx context.Context, cfg config.Config, users *application.UserService, log *zap.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	_, err := users.RegisterUser(ctx, application.UserCreate{
		Email:    cfg.AdminEmail,
		Username: "admin",
		Password: cfg.AdminPassword,
		Role:     domain.RoleAdmin,
	})
	switch {
	case err == nil:
		log.Info("admin account created", zap.String("email", cfg.AdminEmail))
		return nil
	case errors.Is(err, application.ErrConflict):
		return nil
	default:
		return fmt.Errorf("seed admin: %w", err)
	}
}
