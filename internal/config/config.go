// Package config reads the environment-backed runtime defaults. Command-line
// flags override these; these override the compiled defaults.
package config

import (
	"runtime"
	"time"

	"go.uber.org/zap/zapcore"

	"md5check/internal/digest"
	"md5check/internal/verify"
)

type Config struct {
	Workers    int           // concurrent verification units
	ChunkSize  int           // read granularity in bytes
	StopGrace  time.Duration // wait after cancellation before aggregating
	LogLevel   zapcore.Level
	NoProgress bool
}

// Load resolves every setting from the MD5CHECK_* environment, falling back
// to compiled defaults. Malformed values accumulate into one joined error.
func Load() (Config, error) {
	var ge getenv
	cfg := Config{
		Workers:    ge.Int("MD5CHECK_WORKERS", false, runtime.NumCPU()),
		ChunkSize:  ge.Int("MD5CHECK_CHUNK_SIZE", false, digest.DefaultChunkSize),
		StopGrace:  ge.Duration("MD5CHECK_STOP_GRACE", false, verify.DefaultStopGrace),
		LogLevel:   ge.LogLevel("MD5CHECK_LOG_LEVEL", false, zapcore.InfoLevel),
		NoProgress: ge.Bool("MD5CHECK_NO_PROGRESS", false, false),
	}
	return cfg, ge.Err()
}
