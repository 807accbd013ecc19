package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 15, cfg.SiteMine.MaxPages)
	assert.Equal(t, 60.0, cfg.Resolver.AcceptScore)
	assert.Equal(t, 0.7, cfg.Resolver.FuzzyThreshold)
	assert.Equal(t, 0.5, cfg.Anthropic.MinConfidence)
	assert.Equal(t, 3, cfg.Queue.Concurrency)
	assert.Contains(t, cfg.Search.ExcludeDomains, "untappd.com")
	assert.Contains(t, cfg.SiteMine.ExcludePaths, "/privacy*")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ENRICH_QUEUE_CONCURRENCY", "8")
	t.Setenv("ENRICH_LOG_LEVEL", "debug")
	t.Setenv("ENRICH_STORE_MAX_CONNS", "20")
	t.Setenv("ENRICH_STORE_MIN_CONNS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Queue.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, int32(20), cfg.Store.MaxConns)
	assert.Equal(t, int32(4), cfg.Store.MinConns)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level"})
	assert.Error(t, err)
}
