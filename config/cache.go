package config

import "time"

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	URI      string `env:"URI"      envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// CacheConfig controls the optional Redis read cache in front of the artifact store.
type CacheConfig struct {
	// Enabled turns on metadata caching. The artifact directory stays the source of truth.
	Enabled bool `env:"CACHE_ENABLED" envDefault:"false"`

	// MetadataTTL is how long a cached metadata document lives.
	MetadataTTL time.Duration `env:"CACHE_METADATA_TTL" envDefault:"10m"`

	// KeyPrefix namespaces cache keys when Redis is shared.
	KeyPrefix string `env:"CACHE_KEY_PREFIX" envDefault:"veille:research:"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.MetadataTTL <= 0 {
		c.MetadataTTL = 10 * time.Minute
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "veille:research:"
	}
}
