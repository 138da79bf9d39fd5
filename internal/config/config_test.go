package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"md5check/internal/digest"
	"md5check/internal/verify"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"MD5CHECK_WORKERS",
		"MD5CHECK_CHUNK_SIZE",
		"MD5CHECK_STOP_GRACE",
		"MD5CHECK_LOG_LEVEL",
		"MD5CHECK_NO_PROGRESS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Greater(t, cfg.Workers, 0)
	assert.Equal(t, digest.DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, verify.DefaultStopGrace, cfg.StopGrace)
	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
	assert.False(t, cfg.NoProgress)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MD5CHECK_WORKERS", "12")
	t.Setenv("MD5CHECK_CHUNK_SIZE", "131072")
	t.Setenv("MD5CHECK_STOP_GRACE", "10s")
	t.Setenv("MD5CHECK_LOG_LEVEL", "debug")
	t.Setenv("MD5CHECK_NO_PROGRESS", "yes")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Workers)
	assert.Equal(t, 131072, cfg.ChunkSize)
	assert.Equal(t, 10*time.Second, cfg.StopGrace)
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
	assert.True(t, cfg.NoProgress)
}

func TestLoadAccumulatesErrors(t *testing.T) {
	t.Setenv("MD5CHECK_WORKERS", "many")
	t.Setenv("MD5CHECK_STOP_GRACE", "soonish")
	t.Setenv("MD5CHECK_NO_PROGRESS", "maybe")

	_, err := Load()
	require.Error(t, err)

	assert.ErrorContains(t, err, "MD5CHECK_WORKERS")
	assert.ErrorContains(t, err, "MD5CHECK_STOP_GRACE")
	assert.ErrorContains(t, err, "MD5CHECK_NO_PROGRESS")
}
