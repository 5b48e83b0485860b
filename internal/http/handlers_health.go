package httpx

import (
	"net/http"

	"github.com/target/veille-api/internal/service"
)

// healthHandler reports readiness without calling the research engine. A missing engine credential
// reports "degraded" with status 200 so the process is still considered alive.
func healthHandler(svc *service.ResearchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := svc.Health()
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			return
		}
		WriteJSON(w, http.StatusOK, health)
	}
}

// indexDocument describes the service surface at the root path.
type indexDocument struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func indexHandler(version string) http.HandlerFunc {
	doc := indexDocument{
		Message: "Veille research API",
		Version: version,
		Endpoints: map[string]string{
			"POST /research":       "Run a new research job",
			"GET /health":          "Check service readiness",
			"GET /results/{id}":    "Fetch a research job (format=json|text, query=<jmespath>)",
			"DELETE /results/{id}": "Delete a research job",
			"GET /latest":          "Fetch the most recent research job",
			"GET /list":            "List all research jobs",
		},
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, doc)
	}
}
