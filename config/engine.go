package config

import (
	"strings"
	"time"

	"github.com/target/veille-api/internal/domain/model"
)

const (
	defaultEngineBaseURL = "https://api.openai.com/v1"
	defaultEngineModel   = "gpt-5"
)

// EngineConfig contains the research engine credential and call defaults.
type EngineConfig struct {
	// APIKey is the engine credential. An empty key leaves the service degraded:
	// retrieval works, submissions fail with a configuration error.
	APIKey string `env:"OPENAI_API_KEY"`

	// BaseURL is the root of the Responses API.
	BaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`

	// Model, Verbosity and ReasoningEffort are applied when a request omits them.
	Model           string                `env:"OPENAI_MODEL"            envDefault:"gpt-5"`
	Verbosity       model.Verbosity       `env:"OPENAI_VERBOSITY"        envDefault:"medium"`
	ReasoningEffort model.ReasoningEffort `env:"OPENAI_REASONING_EFFORT" envDefault:"medium"`

	// Timeout bounds a single engine call. Zero disables the bound; research calls
	// routinely take minutes.
	Timeout time.Duration `env:"OPENAI_TIMEOUT" envDefault:"0s"`
}

// Sanitize trims values and restores defaults for blanks.
func (c *EngineConfig) Sanitize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultEngineBaseURL
	}
	c.Model = strings.TrimSpace(c.Model)
	if c.Model == "" {
		c.Model = defaultEngineModel
	}
	if c.Verbosity == "" {
		c.Verbosity = model.VerbosityMedium
	}
	if c.ReasoningEffort == "" {
		c.ReasoningEffort = model.ReasoningEffortMedium
	}
	if c.Timeout < 0 {
		c.Timeout = 0
	}
}

// CredentialConfigured reports whether an engine API key is present.
func (c *EngineConfig) CredentialConfigured() bool {
	return c.APIKey != ""
}

// Defaults returns the engine parameters applied when a request omits them.
func (c *EngineConfig) Defaults() model.ResearchParams {
	return model.ResearchParams{
		Model:           c.Model,
		Verbosity:       c.Verbosity,
		ReasoningEffort: c.ReasoningEffort,
	}
}
