package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/veille-api/internal/core"
	"github.com/target/veille-api/internal/domain/model"
	apperrors "github.com/target/veille-api/internal/errors"
	obserrors "github.com/target/veille-api/internal/observability/errors"
	"github.com/target/veille-api/internal/observability/metrics"
	"github.com/target/veille-api/internal/observability/notify"
)

const researchCompletedMessage = "Research completed successfully"

// failureNotifier is the subset of failurenotifier.Service the research service needs.
type failureNotifier interface {
	NotifyResearchFailure(ctx context.Context, payload notify.ResearchFailurePayload)
}

// ResearchDeps groups the ports the research service runs on.
// Engine, Store and IDs are required. Clock defaults to UTC wall time.
// Cache, Metrics and Notifier are optional.
type ResearchDeps struct {
	Engine   core.ResearchEngine
	Store    core.ArtifactStore
	IDs      core.IDIssuer
	Clock    core.Clock
	Cache    core.MetadataCache
	Metrics  metrics.Recorder
	Notifier failureNotifier
}

// ResearchConfig carries the explicit configuration injected at construction.
type ResearchConfig struct {
	// Defaults fill any engine parameter the request omits.
	Defaults model.ResearchParams
	// CredentialConfigured reports whether the engine credential is present.
	CredentialConfigured bool
	// CacheTTL bounds how long metadata documents stay cached. Zero disables caching.
	CacheTTL time.Duration
}

// ResearchServiceOptions groups dependencies for ResearchService.
type ResearchServiceOptions struct {
	Deps   ResearchDeps
	Config ResearchConfig
	Logger *slog.Logger
}

// ResearchService runs research jobs and serves their persisted artifacts.
// It is the single pipeline shared by the HTTP service and the admin CLI.
type ResearchService struct {
	engine   core.ResearchEngine
	store    core.ArtifactStore
	ids      core.IDIssuer
	clock    core.Clock
	cache    core.MetadataCache
	metrics  metrics.Recorder
	notifier failureNotifier
	cfg      ResearchConfig
	logger   *slog.Logger
}

type utcClock struct{}

func (utcClock) Now() time.Time { return time.Now().UTC() }

// NewResearchService constructs a ResearchService.
func NewResearchService(opts ResearchServiceOptions) (*ResearchService, error) {
	deps := opts.Deps
	if deps.Engine == nil {
		return nil, errors.New("ResearchEngine is required")
	}
	if deps.Store == nil {
		return nil, errors.New("ArtifactStore is required")
	}
	if deps.IDs == nil {
		return nil, errors.New("IDIssuer is required")
	}

	cfg := opts.Config
	if strings.TrimSpace(cfg.Defaults.Model) == "" {
		return nil, errors.New("default model is required")
	}
	if !cfg.Defaults.Verbosity.Valid() {
		return nil, fmt.Errorf("default verbosity %q is invalid", cfg.Defaults.Verbosity)
	}
	if !cfg.Defaults.ReasoningEffort.Valid() {
		return nil, fmt.Errorf("default reasoning effort %q is invalid", cfg.Defaults.ReasoningEffort)
	}

	clock := deps.Clock
	if clock == nil {
		clock = utcClock{}
	}
	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ResearchService{
		engine:   deps.Engine,
		store:    deps.Store,
		ids:      deps.IDs,
		clock:    clock,
		cache:    deps.Cache,
		metrics:  recorder,
		notifier: deps.Notifier,
		cfg:      cfg,
		logger:   logger.With("component", "research_service"),
	}, nil
}

// MustNewResearchService constructs a ResearchService and panics on invalid dependencies.
func MustNewResearchService(opts ResearchServiceOptions) *ResearchService {
	svc, err := NewResearchService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create ResearchService: %v", err))
	}
	return svc
}

// Submit runs one research job to completion and persists its artifacts.
//
// The call blocks for the whole engine round trip. A job is never partially visible: when the
// engine fails nothing is written. Once started, the job is not aborted by caller cancellation.
func (s *ResearchService) Submit(ctx context.Context, req model.ResearchRequest) (*model.ResearchResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if !s.cfg.CredentialConfigured {
		return nil, apperrors.Configuration("engine credential is not configured")
	}

	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	id := s.ids.NewID()
	loc, err := s.store.Locate(id)
	if err != nil {
		return nil, fmt.Errorf("locate research %s: %w", id, err)
	}
	params := req.Params().WithDefaults(s.cfg.Defaults)

	reply, err := s.callEngine(ctx, id, &req, params)
	if err != nil {
		s.metrics.ObserveResearch(metrics.ResearchMetric{Model: params.Model, Duration: time.Since(start), Err: err})
		return nil, err
	}

	createdAt := s.clock.Now().UTC()
	artifact := &model.ResearchArtifact{
		Metadata: model.ResearchMetadata{
			ID:                id,
			Model:             params.Model,
			Verbosity:         params.Verbosity,
			ReasoningEffort:   params.ReasoningEffort,
			Subject:           req.Subject,
			PreviousResponses: req.PreviousResponses,
			CreatedAt:         createdAt,
			TextArtifactPath:  loc.TextPath,
			RawEngineResponse: reply.Raw,
		},
		Text: RenderTextArtifact(createdAt, req.Subject, reply.Text),
	}

	loc, err = s.store.Write(ctx, artifact)
	if err != nil {
		err = fmt.Errorf("persist research %s: %w", id, err)
		s.metrics.ObserveResearch(metrics.ResearchMetric{Model: params.Model, Duration: time.Since(start), Err: err})
		return nil, err
	}

	s.metrics.ObserveResearch(metrics.ResearchMetric{Model: params.Model, Duration: time.Since(start)})
	s.logger.InfoContext(ctx, "research completed",
		"research_id", id,
		"model", params.Model,
		"duration", time.Since(start),
	)

	return &model.ResearchResult{
		ID:               id,
		Status:           model.ResearchStatusCompleted,
		Message:          researchCompletedMessage,
		ArtifactLocation: loc,
	}, nil
}

func (s *ResearchService) callEngine(
	ctx context.Context,
	id string,
	req *model.ResearchRequest,
	params model.ResearchParams,
) (*core.EngineReply, error) {
	callStart := time.Now()
	reply, err := s.engine.Research(ctx, core.EngineRequest{
		Subject:           req.Subject,
		PreviousResponses: req.PreviousResponses,
		Params:            params,
	})
	if err == nil && reply == nil {
		err = errors.New("engine returned no reply")
	}
	s.metrics.ObserveEngineCall(metrics.ModelLabel(params.Model, s.cfg.Defaults.Model), time.Since(callStart), err)
	if err == nil {
		return reply, nil
	}

	if apperrors.GetCode(err) != apperrors.ErrCodeConfiguration && !apperrors.IsEngineCallFailed(err) {
		err = apperrors.EngineCallFailed(err, "engine call failed")
	}

	s.logger.ErrorContext(ctx, "research engine call failed",
		"research_id", id,
		"model", params.Model,
		"error", err,
	)
	if apperrors.IsEngineCallFailed(err) {
		s.notifyFailure(ctx, id, req.Subject, params.Model, err)
	}
	return nil, err
}

func (s *ResearchService) notifyFailure(ctx context.Context, id, subject, modelName string, err error) {
	if s.notifier == nil {
		return
	}
	payload := notify.ResearchFailurePayload{
		ResearchID: id,
		Subject:    subject,
		Model:      modelName,
		Error:      err.Error(),
		ErrorClass: obserrors.Classify(err),
		Severity:   notify.SeverityCritical,
		OccurredAt: s.clock.Now().UTC(),
	}
	if cause := obserrors.Cause(err); cause != "" {
		payload.Metadata = map[string]string{"cause": cause}
	}
	s.notifier.NotifyResearchFailure(ctx, payload)
}

// Get returns a research job in the requested format.
func (s *ResearchService) Get(ctx context.Context, id string, format model.OutputFormat) (*model.ResearchOutput, error) {
	switch format {
	case model.OutputFormatText:
		text, err := s.Text(ctx, id)
		if err != nil {
			return nil, err
		}
		return &model.ResearchOutput{Format: format, Text: text}, nil
	case "", model.OutputFormatJSON:
		doc, err := s.Document(ctx, id)
		if err != nil {
			return nil, err
		}
		return &model.ResearchOutput{Format: model.OutputFormatJSON, Document: doc}, nil
	default:
		return nil, apperrors.ValidationField("format", fmt.Sprintf("unsupported format %q", format))
	}
}

// Document returns the metadata of a research job merged with its text artifact.
func (s *ResearchService) Document(ctx context.Context, id string) (*model.ResearchDocument, error) {
	meta, err := s.metadata(ctx, id)
	if err != nil {
		return nil, err
	}
	text, err := s.store.ReadText(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read research %s text: %w", id, err)
	}
	return &model.ResearchDocument{ResearchMetadata: *meta, OutputText: text}, nil
}

// Text returns the text artifact of a research job. A job without metadata is NotFound even if
// its text file exists.
func (s *ResearchService) Text(ctx context.Context, id string) (string, error) {
	ok, err := s.store.Exists(ctx, id)
	if err != nil {
		return "", fmt.Errorf("check research %s: %w", id, err)
	}
	if !ok {
		return "", apperrors.NotFoundf("research %s not found", id)
	}
	text, err := s.store.ReadText(ctx, id)
	if err != nil {
		return "", fmt.Errorf("read research %s text: %w", id, err)
	}
	return text, nil
}

// Latest returns the most recently completed research job with its text.
func (s *ResearchService) Latest(ctx context.Context) (*model.ResearchDocument, error) {
	id, err := s.store.LatestID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve latest research: %w", err)
	}
	return s.Document(ctx, id)
}

// List returns every research summary, most recent first.
func (s *ResearchService) List(ctx context.Context) (*model.ResearchList, error) {
	summaries, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list research: %w", err)
	}
	if summaries == nil {
		summaries = []model.ResearchSummary{}
	}
	return &model.ResearchList{Total: len(summaries), Researches: summaries}, nil
}

// Remove deletes both artifacts of a research job.
func (s *ResearchService) Remove(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete research %s: %w", id, err)
	}
	s.metrics.IncArtifactsDeleted()

	if s.cachingEnabled() {
		if _, err := s.cache.Delete(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to evict cached research metadata", "research_id", id, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "research deleted", "research_id", id)
	return nil
}

// Query evaluates a JMESPath expression against the structured form of a research job.
func (s *ResearchService) Query(ctx context.Context, id, expr string) (any, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, apperrors.ValidationField("query", "query expression is required")
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, apperrors.ValidationField("query", fmt.Sprintf("invalid query expression: %v", err))
	}

	doc, err := s.Document(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := toGeneric(doc)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "prepare research document for query")
	}

	out, err := jmespath.Search(expr, data)
	if err != nil {
		return nil, apperrors.ValidationField("query", fmt.Sprintf("evaluate query expression: %v", err))
	}
	return out, nil
}

// Health reports readiness without calling the engine.
func (s *ResearchService) Health() model.HealthStatus {
	status := model.HealthStatusDegraded
	if s.cfg.CredentialConfigured {
		status = model.HealthStatusHealthy
	}
	return model.HealthStatus{
		Status:           status,
		APIKeyConfigured: s.cfg.CredentialConfigured,
		Model:            s.cfg.Defaults.Model,
		Timestamp:        s.clock.Now().UTC(),
	}
}

func (s *ResearchService) metadata(ctx context.Context, id string) (*model.ResearchMetadata, error) {
	if s.cachingEnabled() {
		// Unsafe ids never reach the cache.
		if _, err := s.store.Locate(id); err != nil {
			return nil, err
		}
		if meta := s.cachedMetadata(ctx, id); meta != nil {
			return meta, nil
		}
	}

	meta, err := s.store.ReadMetadata(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read research %s: %w", id, err)
	}

	if s.cachingEnabled() {
		s.cacheMetadata(ctx, meta)
	}
	return meta, nil
}

func (s *ResearchService) cachingEnabled() bool {
	return s.cache != nil && s.cfg.CacheTTL > 0
}

func (s *ResearchService) cachedMetadata(ctx context.Context, id string) *model.ResearchMetadata {
	raw, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "research metadata cache read failed", "research_id", id, "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}

	var meta model.ResearchMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		s.logger.WarnContext(ctx, "discarding undecodable cached research metadata", "research_id", id, "error", err)
		return nil
	}
	return &meta
}

func (s *ResearchService) cacheMetadata(ctx context.Context, meta *model.ResearchMetadata) {
	raw, err := json.Marshal(meta)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode research metadata for cache", "research_id", meta.ID, "error", err)
		return
	}
	if err := s.cache.Set(ctx, meta.ID, raw, s.cfg.CacheTTL); err != nil {
		s.logger.WarnContext(ctx, "research metadata cache write failed", "research_id", meta.ID, "error", err)
	}
}

func toGeneric(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
