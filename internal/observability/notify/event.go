package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// ResearchFailurePayload captures the data we emit when a research engine call fails.
type ResearchFailurePayload struct {
	ResearchID string
	Subject    string
	Model      string
	Error      string
	ErrorClass string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming research failure notifications.
type Sink interface {
	SendResearchFailure(ctx context.Context, payload ResearchFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload ResearchFailurePayload) error

// SendResearchFailure implements the Sink interface.
func (f SinkFunc) SendResearchFailure(ctx context.Context, payload ResearchFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
