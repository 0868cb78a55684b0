package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port        string
	DatabaseURL string
	// Quote source
	BinanceURL   string
	FetchTimeout time.Duration
	// Ingestion
	ServiceTZ       string
	IngestHours     []int
	IngestFiat      string
	IngestAsset     string
	IngestTradeType string
	IngestRows      int
	IngestFrom      string
	IngestTo        string
	// Auth
	JWTSecret      string
	AccessTokenTTL time.Duration
	AdminEmail     string
	AdminPassword  string
	// Redis (idempotency)
	IdempotencyBackend string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	IdempotencyTTL     time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseHours(s string, def []int) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		h, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || h < 0 || h > 23 {
			return def
		}
		out = append(out, h)
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:             getEnv("ENV", "local"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		BinanceURL:      getEnv("BINANCE_URL", "https://p2p.binance.com/bapi/c2c/v2/friendly/c2c/adv/search"),
		FetchTimeout:    time.Duration(atoiDef(getEnv("FETCH_TIMEOUT_MS", "10000"), 10000)) * time.Millisecond,
		ServiceTZ:       getEnv("SERVICE_TZ", "America/Caracas"),
		IngestHours:     parseHours(getEnv("INGEST_HOURS", "0,6,12,18"), []int{0, 6, 12, 18}),
		IngestFiat:      getEnv("INGEST_FIAT", "VES"),
		IngestAsset:     getEnv("INGEST_ASSET", "USDT"),
		IngestTradeType: getEnv("INGEST_TRADE_TYPE", "BUY"),
		IngestRows:      atoiDef(getEnv("INGEST_ROWS", "20"), 20),
		IngestFrom:      getEnv("INGEST_FROM", "VES"),
		IngestTo:        getEnv("INGEST_TO", "USDT"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		AccessTokenTTL:  time.Duration(atoiDef(getEnv("ACCESS_TOKEN_TTL_MIN", "30"), 30)) * time.Minute,
		AdminEmail:      getEnv("ADMIN_EMAIL", ""),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),

		IdempotencyBackend: getEnv("IDEMPOTENCY_BACKEND", "none"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            atoiDef(getEnv("REDIS_DB", "0"), 0),
		IdempotencyTTL:     time.Duration(atoiDef(getEnv("IDEMPOTENCY_TTL_MS", "86400000"), 86400000)) * time.Millisecond,
	}
}
