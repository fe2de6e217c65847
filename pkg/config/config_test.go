package config_test

import (
	"testing"

	"github.com/Aetherall/neograph-sub001/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg := config.LoadFromEnv()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 100, cfg.DefaultViewportLimit)
	require.True(t, cfg.Pool.Enabled)
	require.Equal(t, 1000, cfg.Pool.MaxSize)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("GRAPHDB_DEFAULT_VIEWPORT_LIMIT", "50")
	t.Setenv("GRAPHDB_POOL_ENABLED", "false")
	t.Setenv("GRAPHDB_POOL_MAX_SIZE", "64")

	cfg := config.LoadFromEnv()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 50, cfg.DefaultViewportLimit)
	require.False(t, cfg.Pool.Enabled)
	require.Equal(t, 64, cfg.Pool.MaxSize)
}

func TestValidateRejectsNonPositiveViewportLimit(t *testing.T) {
	cfg := config.LoadFromEnv()
	cfg.DefaultViewportLimit = 0
	require.Error(t, cfg.Validate())
}

func TestEngineOptionsProjectsViewportLimit(t *testing.T) {
	cfg := config.LoadFromEnv()
	cfg.DefaultViewportLimit = 25
	require.Equal(t, 25, cfg.EngineOptions().DefaultViewportLimit)
}
