package config

import (
	"net"
	"strings"
	"time"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8000"`

	// Port overrides the port part of Addr when set (PaaS platforms inject PORT).
	Port string `env:"PORT" envDefault:""`

	// WriteTimeout must outlast an engine call because submissions block until the
	// research completes. Sanitize raises it above OPENAI_TIMEOUT when that is set.
	// With OPENAI_TIMEOUT=0 a call running past WriteTimeout still persists its
	// artifacts but the client never receives the result; fetch it via /latest.
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15m"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.Addr = strings.TrimSpace(h.Addr)
	if port := strings.TrimSpace(h.Port); port != "" {
		host, _, err := net.SplitHostPort(h.Addr)
		if err != nil {
			host = ""
		}
		h.Addr = net.JoinHostPort(host, port)
	}
	if h.Addr == "" {
		h.Addr = ":8000"
	}
	if h.WriteTimeout <= 0 {
		h.WriteTimeout = 15 * time.Minute
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
}
