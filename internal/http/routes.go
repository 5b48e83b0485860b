package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/veille-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Research *service.ResearchService
	// MetricsHandler serves the metrics exposition; nil disables the endpoint.
	MetricsHandler http.Handler
	MetricsPath    string
	// RequestMetrics records per-route request durations (optional).
	RequestMetrics requestObserver
	Version        string
	Logger         *slog.Logger // optional
}

// NewRouter creates and configures the HTTP router with logging, metrics and panic recovery.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	research := &ResearchHandlers{Svc: services.Research}
	registerResearchRoutes(mux, research)

	health := healthHandler(services.Research)
	mux.Handle("GET /health", health)
	mux.Handle("HEAD /health", health)

	if services.MetricsHandler != nil {
		path := services.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, services.MetricsHandler)
	}

	mux.Handle("GET /{$}", indexHandler(services.Version))

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var handler http.Handler = mux
	handler = Metrics(services.RequestMetrics)(handler)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

func registerResearchRoutes(mux *http.ServeMux, h *ResearchHandlers) {
	mux.HandleFunc("POST /research", h.Submit)
	mux.HandleFunc("GET /results/{id}", h.Result)
	mux.HandleFunc("DELETE /results/{id}", h.Delete)
	mux.HandleFunc("GET /latest", h.Latest)
	mux.HandleFunc("GET /list", h.List)
}
