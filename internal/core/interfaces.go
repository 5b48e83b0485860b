package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/target/veille-api/internal/domain/model"
)

// This file contains the port definitions the research service depends on.
// Implementations live in internal/data and internal/adapters; the service layer
// depends on these interfaces only.

// EngineRequest is everything the research engine needs for one call.
type EngineRequest struct {
	Subject           string
	PreviousResponses []string
	Params            model.ResearchParams
}

// EngineReply is the normalized engine reply.
type EngineReply struct {
	// Text is the extracted narrative, or model.NoTextOutputSentinel.
	Text string
	// Raw is the unmodified engine response body.
	Raw json.RawMessage
}

// ResearchEngine runs one research call against the external reasoning/search engine.
// Failures are reported as EngineCallFailed app errors; calls are never retried.
type ResearchEngine interface {
	Research(ctx context.Context, req EngineRequest) (*EngineReply, error)
}

// ArtifactStore persists the text/metadata pair for each research job.
type ArtifactStore interface {
	// Locate returns the artifact paths for id without touching the filesystem.
	Locate(id string) (model.ArtifactLocation, error)
	// Write stores the text artifact then the metadata artifact.
	Write(ctx context.Context, artifact *model.ResearchArtifact) (model.ArtifactLocation, error)
	Exists(ctx context.Context, id string) (bool, error)
	ReadMetadata(ctx context.Context, id string) (*model.ResearchMetadata, error)
	ReadText(ctx context.Context, id string) (string, error)
	// ListAll returns every summary, most recently written first.
	ListAll(ctx context.Context) ([]model.ResearchSummary, error)
	// LatestID returns the id of the most recently written job.
	LatestID(ctx context.Context) (string, error)
	// Delete removes both artifacts; NotFound only when neither exists.
	Delete(ctx context.Context, id string) error
}

// IDIssuer produces unique, path- and URL-safe research identifiers.
type IDIssuer interface {
	NewID() string
}

// MetadataCache is an optional read-through cache for metadata documents.
type MetadataCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
}

// Clock supplies completion timestamps.
type Clock interface {
	Now() time.Time
}
