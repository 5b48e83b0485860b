package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/veille-api/config"
	"github.com/target/veille-api/internal/adapters/engine"
	"github.com/target/veille-api/internal/core"
	"github.com/target/veille-api/internal/data"
	"github.com/target/veille-api/internal/observability/metrics"
	"github.com/target/veille-api/internal/observability/notify/slack"
	"github.com/target/veille-api/internal/service"
	"github.com/target/veille-api/internal/service/failurenotifier"
)

// ServiceContainer holds the wired application services.
type ServiceContainer struct {
	Research      *service.ResearchService
	Store         *data.FileArtifactStore
	Observability ObservabilityContainer

	redis *redis.Client
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	// Metrics is nil when the metrics endpoint is disabled.
	Metrics         *metrics.Prom
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	// RedisClient backs the metadata cache. When nil and caching is enabled, NewServices connects.
	RedisClient *redis.Client
	Logger      *slog.Logger
}

// NewServices wires the artifact store, engine client, optional cache and observability
// into a research service.
func NewServices(ctx context.Context, deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := data.NewFileArtifactStore(data.FileArtifactStoreOptions{
		Dir:    cfg.Store.OutputDir,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}

	client, err := engine.NewClient(engine.Config{
		APIKey:  cfg.Engine.APIKey,
		BaseURL: cfg.Engine.BaseURL,
		Timeout: cfg.Engine.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build engine client: %w", err)
	}
	if !cfg.Engine.CredentialConfigured() {
		logger.Warn("engine credential not configured; research submissions will fail",
			"env", "OPENAI_API_KEY")
	}

	container := &ServiceContainer{
		Store:         store,
		Observability: buildObservability(logger, cfg.Observability),
	}

	cache, err := container.buildCache(ctx, deps, logger)
	if err != nil {
		return nil, err
	}

	var recorder metrics.Recorder = metrics.Noop{}
	if container.Observability.Metrics != nil {
		recorder = container.Observability.Metrics
	}

	researchCfg := service.ResearchConfig{
		Defaults:             cfg.Engine.Defaults(),
		CredentialConfigured: cfg.Engine.CredentialConfigured(),
	}
	if cache != nil {
		researchCfg.CacheTTL = cfg.Cache.MetadataTTL
	}

	research, err := service.NewResearchService(service.ResearchServiceOptions{
		Deps: service.ResearchDeps{
			Engine:   client,
			Store:    store,
			IDs:      service.UUIDIssuer{},
			Clock:    &data.RealTimeProvider{},
			Cache:    cache,
			Metrics:  recorder,
			Notifier: container.Observability.FailureNotifier,
		},
		Config: researchCfg,
		Logger: logger,
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("build research service: %w", err)
	}
	container.Research = research

	return container, nil
}

//nolint:ireturn // a nil interface keeps the research service's cache check simple.
func (c *ServiceContainer) buildCache(
	ctx context.Context,
	deps *ServiceDeps,
	logger *slog.Logger,
) (core.MetadataCache, error) {
	cfg := deps.Config
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	client := deps.RedisClient
	if client == nil {
		var err error
		client, err = ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.redis = client
	}

	logger.Info("metadata cache enabled", "ttl", cfg.Cache.MetadataTTL, "prefix", cfg.Cache.KeyPrefix)
	return data.NewRedisCacheRepo(client, cfg.Cache.KeyPrefix), nil
}

// Close releases connections opened by NewServices.
func (c *ServiceContainer) Close() error {
	if c == nil || c.redis == nil {
		return nil
	}
	client := c.redis
	c.redis = nil
	if err := client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	var prom *metrics.Prom
	if cfg.Metrics.Enabled {
		prom = metrics.NewProm(cfg.Metrics.Namespace)
	}

	return ObservabilityContainer{
		Metrics:         prom,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: buildFailureNotifier(logger, cfg.Notifications),
		NotifierConfig:  cfg.Notifications,
	}
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	notifierLogger := logger.With("component", "failure_notifier")

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{Logger: notifierLogger})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 1)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "slack",
				Sink: client,
			})
		}
	}

	if len(sinks) == 0 {
		logger.Warn("failure notifications enabled but no sinks configured")
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger:  notifierLogger,
		Sinks:   sinks,
		Timeout: cfg.Timeout,
	})
}
