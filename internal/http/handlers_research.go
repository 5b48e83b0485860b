// Package httpx exposes the research pipeline over HTTP.
package httpx

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/target/veille-api/internal/domain/model"
	"github.com/target/veille-api/internal/service"
)

// ResearchHandlers provides HTTP handlers for research jobs.
type ResearchHandlers struct {
	Svc *service.ResearchService
}

// deleteResponse acknowledges a removed research job.
type deleteResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// queryResponse carries the result of a JMESPath projection over a research document.
type queryResponse struct {
	ID     string `json:"id"`
	Query  string `json:"query"`
	Result any    `json:"result"`
}

// Submit runs a research job synchronously and returns its result descriptor.
func (h *ResearchHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := validateResearchBody(body); err != nil {
		writeServiceError(w, err)
		return
	}

	var req model.ResearchRequest
	if !decodeBytes(w, body, &req) {
		return
	}

	result, err := h.Svc.Submit(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// Result returns a research job as JSON (metadata plus text), as a text attachment, or as a
// JMESPath projection when the query parameter is set.
func (h *ResearchHandlers) Result(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q := r.URL.Query()

	if expr := q.Get("query"); strings.TrimSpace(expr) != "" {
		out, err := h.Svc.Query(r.Context(), id, expr)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, queryResponse{ID: id, Query: expr, Result: out})
		return
	}

	format, err := model.ParseOutputFormat(q.Get("format"))
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: errCodeInvalidRequest, Err: err})
		return
	}

	out, err := h.Svc.Get(r.Context(), id, format)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if out.Format == model.OutputFormatText {
		writeTextAttachment(w, id, out.Text)
		return
	}
	WriteJSON(w, http.StatusOK, out.Document)
}

// Latest returns the most recently completed research job.
func (h *ResearchHandlers) Latest(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Svc.Latest(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, doc)
}

// List returns every research summary, most recent first.
func (h *ResearchHandlers) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

// Delete removes both artifacts of a research job.
func (h *ResearchHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Svc.Remove(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, deleteResponse{
		ID:      id,
		Message: fmt.Sprintf("Research %s deleted successfully", id),
	})
}

func writeTextAttachment(w http.ResponseWriter, id, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="research_%s.txt"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text)) // client may already be gone
}
