// Package config loads Engine options from environment variables, the
// same getEnv/getEnvInt idiom the teacher used for its (far larger)
// Neo4j-compatible settings surface, trimmed to the handful of knobs
// this embeddable engine actually exposes.
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
//	eng, err := engine.New(sch, cfg.EngineOptions())
//
// Environment Variables:
//   - GRAPHDB_DEFAULT_VIEWPORT_LIMIT (int, default 100)
//   - GRAPHDB_POOL_ENABLED (bool, default true)
//   - GRAPHDB_POOL_MAX_SIZE (int, default 1000)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Aetherall/neograph-sub001/pkg/engine"
	"github.com/Aetherall/neograph-sub001/pkg/gstore"
)

// Config holds every environment-tunable setting this engine exposes.
type Config struct {
	// DefaultViewportLimit is the window size a View uses when the
	// caller doesn't specify one (engine.Options.DefaultViewportLimit).
	DefaultViewportLimit int

	// Pool is loaded from the environment and checked by Validate, but
	// nothing applies it: EngineOptions does not carry it, and the gstore
	// pools pkg/executor and pkg/reactive use are built from
	// gstore.DefaultConfig().
	Pool gstore.Config
}

// LoadFromEnv builds a Config from environment variables, falling back
// to engine.DefaultOptions()/gstore.DefaultConfig() for anything unset.
func LoadFromEnv() *Config {
	defaults := engine.DefaultOptions()
	poolDefaults := gstore.DefaultConfig()
	return &Config{
		DefaultViewportLimit: getEnvInt("GRAPHDB_DEFAULT_VIEWPORT_LIMIT", defaults.DefaultViewportLimit),
		Pool: gstore.Config{
			Enabled: getEnvBool("GRAPHDB_POOL_ENABLED", poolDefaults.Enabled),
			MaxSize: getEnvInt("GRAPHDB_POOL_MAX_SIZE", poolDefaults.MaxSize),
		},
	}
}

// Validate rejects settings that would make the engine unusable.
func (c *Config) Validate() error {
	if c.DefaultViewportLimit <= 0 {
		return fmt.Errorf("config: GRAPHDB_DEFAULT_VIEWPORT_LIMIT must be positive, got %d", c.DefaultViewportLimit)
	}
	if c.Pool.Enabled && c.Pool.MaxSize <= 0 {
		return fmt.Errorf("config: GRAPHDB_POOL_MAX_SIZE must be positive when pooling is enabled, got %d", c.Pool.MaxSize)
	}
	return nil
}

// EngineOptions projects Config onto engine.Options.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{DefaultViewportLimit: c.DefaultViewportLimit}
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}
