package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultTickTimeout     = 2 * time.Minute
	DefaultIngestRows      = 20
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1
)
