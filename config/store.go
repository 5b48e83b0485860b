package config

import "strings"

// StoreConfig controls where research artifacts are written.
type StoreConfig struct {
	// OutputDir holds one text and one metadata file per research job.
	OutputDir string `env:"OUTPUT_DIR" envDefault:"outputs"`
}

// Sanitize restores the default directory when blank.
func (c *StoreConfig) Sanitize() {
	c.OutputDir = strings.TrimSpace(c.OutputDir)
	if c.OutputDir == "" {
		c.OutputDir = "outputs"
	}
}
