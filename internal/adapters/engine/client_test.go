package engine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/veille-api/internal/core"
	"github.com/target/veille-api/internal/domain/model"
	apperrors "github.com/target/veille-api/internal/errors"
)

func testEngineRequest() core.EngineRequest {
	return core.EngineRequest{
		Subject:           "Solid-state batteries <2025> & beyond",
		PreviousResponses: []string{"earlier note"},
		Params: model.ResearchParams{
			Model:           "gpt-5",
			Verbosity:       model.VerbosityHigh,
			ReasoningEffort: model.ReasoningEffortLow,
		},
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, apiKey string) *Client {
	t.Helper()
	c, err := NewClient(Config{APIKey: apiKey, BaseURL: srv.URL + "/v1/", Client: srv.Client()})
	require.NoError(t, err)
	return c
}

func TestClient_Research_SendsResponsesCall(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"resp_1","output_text":"Findings."}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "sk-test")
	reply, err := c.Research(context.Background(), testEngineRequest())
	require.NoError(t, err)
	assert.Equal(t, "Findings.", reply.Text)
	assert.JSONEq(t, `{"id":"resp_1","output_text":"Findings."}`, string(reply.Raw))

	require.NotNil(t, captured)
	assert.Equal(t, "gpt-5", captured["model"])
	assert.Equal(t, true, captured["store"])
	assert.Equal(t, map[string]any{"format": map[string]any{"type": "text"}, "verbosity": "high"}, captured["text"])
	assert.Equal(t, map[string]any{"effort": "low"}, captured["reasoning"])
	assert.Equal(t, []any{"reasoning.encrypted_content", "web_search_call.action.sources"}, captured["include"])

	tools, ok := captured["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	assert.Equal(t, map[string]any{
		"type":                "web_search",
		"user_location":       map[string]any{"type": "approximate"},
		"search_context_size": "high",
	}, tools[0])

	input, ok := captured["input"].([]any)
	require.True(t, ok)
	require.Len(t, input, 2)
	assert.Equal(t, "developer", input[0].(map[string]any)["role"])
	user := input[1].(map[string]any)
	assert.Equal(t, "user", user["role"])
	content := user["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "input_text", content["type"])
	assert.Equal(t,
		"{\n  \"Subject\": \"Solid-state batteries <2025> & beyond\",\n  \"PreviousResponses\": [\n    \"earlier note\"\n  ]\n}",
		content["text"])
}

func TestClient_Research_FallsBackToFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"output":[
			{"type":"web_search_call"},
			{"type":"message","content":[{"type":"output_text","text":"A"}]},
			{"type":"message","content":[{"type":"refusal","text":"x"},{"type":"output_text","text":"B"}]}
		]}`))
	}))
	defer srv.Close()

	reply, err := newTestClient(t, srv, "sk-test").Research(context.Background(), testEngineRequest())
	require.NoError(t, err)
	assert.Equal(t, "A\n\nB", reply.Text)
}

func TestClient_Research_MissingCredential(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, "  ").Research(context.Background(), testEngineRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
	assert.False(t, called)
}

func TestClient_Research_StatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "auth rejected",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			wantMsg: "Incorrect API key provided",
		},
		{
			name:    "plain body",
			status:  http.StatusBadGateway,
			body:    "upstream unavailable",
			wantMsg: "upstream unavailable",
		},
		{
			name:    "empty body",
			status:  http.StatusInternalServerError,
			wantMsg: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv, "sk-test").Research(context.Background(), testEngineRequest())
			require.Error(t, err)
			assert.True(t, apperrors.IsEngineCallFailed(err))
			assert.True(t, IsStatus(err, tt.status))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestClient_Research_MalformedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, "sk-test").Research(context.Background(), testEngineRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsEngineCallFailed(err))
}

func TestClient_Research_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Config{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Timeout: 50 * time.Millisecond,
		Client:  srv.Client(),
	})
	require.NoError(t, err)

	_, err = c.Research(context.Background(), testEngineRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsEngineCallFailed(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClient_RejectsRelativeBaseURL(t *testing.T) {
	_, err := NewClient(Config{APIKey: "sk", BaseURL: "api.openai.com/v1"})
	require.Error(t, err)

	c, err := NewClient(Config{BaseURL: "https://api.openai.com/v1/"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1/responses", c.endpoint)
}
