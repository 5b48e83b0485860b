// Package model defines the core data types shared by the research pipeline.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ResearchStatusCompleted is the only status a persisted research job can have.
const ResearchStatusCompleted = "completed"

// NoTextOutputSentinel is stored as the research text when the engine reply carries no text.
const NoTextOutputSentinel = "[No text output found]"

// Verbosity controls how much text the research engine produces.
type Verbosity string

const (
	VerbosityLow    Verbosity = "low"
	VerbosityMedium Verbosity = "medium"
	VerbosityHigh   Verbosity = "high"
)

// Valid reports whether v is a known verbosity level.
func (v Verbosity) Valid() bool {
	switch v {
	case VerbosityLow, VerbosityMedium, VerbosityHigh:
		return true
	default:
		return false
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for Verbosity.
func (v *Verbosity) UnmarshalText(text []byte) error {
	parsed := Verbosity(strings.ToLower(strings.TrimSpace(string(text))))
	if parsed != "" && !parsed.Valid() {
		return fmt.Errorf("invalid Verbosity: %q (valid options: low, medium, high)", parsed)
	}
	*v = parsed
	return nil
}

// ReasoningEffort controls how much reasoning the research engine spends per call.
type ReasoningEffort string

const (
	ReasoningEffortMinimal ReasoningEffort = "minimal"
	ReasoningEffortLow     ReasoningEffort = "low"
	ReasoningEffortMedium  ReasoningEffort = "medium"
	ReasoningEffortHigh    ReasoningEffort = "high"
)

// Valid reports whether r is a known reasoning effort.
func (r ReasoningEffort) Valid() bool {
	switch r {
	case ReasoningEffortMinimal, ReasoningEffortLow, ReasoningEffortMedium, ReasoningEffortHigh:
		return true
	default:
		return false
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for ReasoningEffort.
func (r *ReasoningEffort) UnmarshalText(text []byte) error {
	parsed := ReasoningEffort(strings.ToLower(strings.TrimSpace(string(text))))
	if parsed != "" && !parsed.Valid() {
		return fmt.Errorf("invalid ReasoningEffort: %q (valid options: minimal, low, medium, high)", parsed)
	}
	*r = parsed
	return nil
}

// ResearchParams are the engine parameters a research job runs with.
type ResearchParams struct {
	Model           string          `json:"model"`
	Verbosity       Verbosity       `json:"verbosity"`
	ReasoningEffort ReasoningEffort `json:"reasoning_effort"`
}

// WithDefaults fills any blank field from defaults.
func (p ResearchParams) WithDefaults(defaults ResearchParams) ResearchParams {
	if strings.TrimSpace(p.Model) == "" {
		p.Model = defaults.Model
	}
	if p.Verbosity == "" {
		p.Verbosity = defaults.Verbosity
	}
	if p.ReasoningEffort == "" {
		p.ReasoningEffort = defaults.ReasoningEffort
	}
	return p
}

// ResearchRequest represents a request to run a new research job.
type ResearchRequest struct {
	Subject           string          `json:"subject"`
	PreviousResponses []string        `json:"previous_responses,omitempty"`
	Model             string          `json:"model,omitempty"`
	Verbosity         Verbosity       `json:"verbosity,omitempty"`
	ReasoningEffort   ReasoningEffort `json:"reasoning_effort,omitempty"`
}

// Validate validates the ResearchRequest fields.
func (r *ResearchRequest) Validate() error {
	if strings.TrimSpace(r.Subject) == "" {
		return errors.New("subject is required and cannot be empty")
	}
	if r.Verbosity != "" && !r.Verbosity.Valid() {
		return errors.New("verbosity must be one of: low, medium, high")
	}
	if r.ReasoningEffort != "" && !r.ReasoningEffort.Valid() {
		return errors.New("reasoning_effort must be one of: minimal, low, medium, high")
	}
	return nil
}

// Normalize trims the subject and model and guarantees a non-nil previous responses slice.
func (r *ResearchRequest) Normalize() {
	r.Subject = strings.TrimSpace(r.Subject)
	r.Model = strings.TrimSpace(r.Model)
	if r.PreviousResponses == nil {
		r.PreviousResponses = []string{}
	}
}

// Params returns the engine overrides carried by the request.
func (r *ResearchRequest) Params() ResearchParams {
	return ResearchParams{
		Model:           r.Model,
		Verbosity:       r.Verbosity,
		ReasoningEffort: r.ReasoningEffort,
	}
}

// ResearchMetadata is the metadata artifact persisted for every completed research job.
type ResearchMetadata struct {
	ID                string          `json:"id"`
	Model             string          `json:"model"`
	Verbosity         Verbosity       `json:"verbosity,omitempty"`
	ReasoningEffort   ReasoningEffort `json:"reasoning_effort,omitempty"`
	Subject           string          `json:"subject"`
	PreviousResponses []string        `json:"previous_responses"`
	CreatedAt         time.Time       `json:"created_at"`
	TextArtifactPath  string          `json:"text_artifact_path"`
	RawEngineResponse json.RawMessage `json:"raw_engine_response"`
}

// Summary projects the listing fields out of the metadata.
func (m *ResearchMetadata) Summary() ResearchSummary {
	return ResearchSummary{
		ID:        m.ID,
		Subject:   m.Subject,
		CreatedAt: m.CreatedAt,
		Model:     m.Model,
	}
}

// ResearchArtifact is the text and metadata pair written for one research job.
type ResearchArtifact struct {
	Metadata ResearchMetadata
	Text     string
}

// ArtifactLocation names the two files backing a research job.
type ArtifactLocation struct {
	TextPath     string `json:"text_artifact_path"`
	MetadataPath string `json:"metadata_artifact_path"`
}

// ResearchSummary is the subset of metadata returned when listing research jobs.
type ResearchSummary struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
	Model     string    `json:"model"`
}

// ResearchList is a listing of research summaries, most recent first.
type ResearchList struct {
	Total      int               `json:"total"`
	Researches []ResearchSummary `json:"researches"`
}

// ResearchResult is returned once a submitted research job has been persisted.
type ResearchResult struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
	ArtifactLocation
}

// ResearchDocument is the structured form of a research job: its metadata plus the text artifact.
type ResearchDocument struct {
	ResearchMetadata
	OutputText string `json:"output_text"`
}

// OutputFormat selects how a research job is returned.
type OutputFormat string

const (
	// OutputFormatJSON returns metadata merged with the text artifact.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatText returns the text artifact only.
	OutputFormatText OutputFormat = "text"
)

// ParseOutputFormat maps a query value onto an OutputFormat. Blank means JSON.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputFormatJSON:
		return OutputFormatJSON, nil
	case OutputFormatText:
		return OutputFormatText, nil
	default:
		return "", fmt.Errorf("format must be one of: json, text (got %q)", s)
	}
}

// Health states reported by the readiness probe.
const (
	HealthStatusHealthy  = "healthy"
	HealthStatusDegraded = "degraded"
)

// HealthStatus reports whether the service can run research without calling the engine.
type HealthStatus struct {
	Status           string    `json:"status"`
	APIKeyConfigured bool      `json:"api_key_configured"`
	Model            string    `json:"model"`
	Timestamp        time.Time `json:"timestamp"`
}

// TimestampLayout renders completion timestamps in the text artifact header.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// ResearchOutput is a research job rendered in a requested format.
// Document is set for OutputFormatJSON, Text for OutputFormatText.
type ResearchOutput struct {
	Format   OutputFormat
	Document *ResearchDocument
	Text     string
}
