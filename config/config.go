package config

import (
	"os"
	"strings"
	"time"
)

// writeTimeoutMargin covers persisting artifacts and encoding the response after the engine returns.
const writeTimeoutMargin = 30 * time.Second

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - engine.go: Research engine credential and defaults
//   - store.go: Artifact directory configuration
//   - cache.go: Optional Redis metadata cache
//   - http.go: HTTP server configuration
//   - observability.go: Metrics and failure notifications
type AppConfig struct {
	// IsDev controls development mode behavior (text logs, debug level).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Research engine configuration
	Engine EngineConfig

	// Artifact store configuration
	Store StoreConfig

	// Redis metadata cache configuration
	Redis RedisConfig `envPrefix:"REDIS_"`
	Cache CacheConfig

	// HTTP server configuration
	HTTP HTTPConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Engine.Sanitize()
	c.Store.Sanitize()
	c.Cache.Sanitize()
	c.HTTP.Sanitize()
	c.Observability.Sanitize()
	c.alignWriteTimeout()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// alignWriteTimeout keeps the HTTP write deadline beyond a bounded engine call so a
// submission that completes is also delivered.
func (c *AppConfig) alignWriteTimeout() {
	if c.Engine.Timeout <= 0 {
		return
	}
	if floor := c.Engine.Timeout + writeTimeoutMargin; c.HTTP.WriteTimeout < floor {
		c.HTTP.WriteTimeout = floor
	}
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
