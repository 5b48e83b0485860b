package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/veille-api/config"
	"github.com/target/veille-api/internal/domain/model"
)

type engineStub struct {
	srv *httptest.Server

	mu       sync.Mutex
	requests []map[string]any
}

func (s *engineStub) calls() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.requests...)
}

func newEngineStub(t *testing.T, reply string) *engineStub {
	t.Helper()
	stub := &engineStub{}
	stub.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		stub.mu.Lock()
		stub.requests = append(stub.requests, body)
		stub.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(stub.srv.Close)
	return stub
}

func newTestContext(t *testing.T, baseURL string) (*commandContext, *bytes.Buffer) {
	t.Helper()
	cfg := config.AppConfig{
		Engine: config.EngineConfig{APIKey: "sk-test", BaseURL: baseURL},
		Store:  config.StoreConfig{OutputDir: t.TempDir()},
	}
	cfg.Sanitize()

	out := &bytes.Buffer{}
	return &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: cfg,
		Out:    out,
	}, out
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSubjectFile(t *testing.T) {
	jsonPath := writeFile(t, "subject.json", `{"Subject":"Quantum networking","PreviousResponses":["earlier"]}`)
	doc, err := loadSubjectFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "Quantum networking", doc.Subject)
	assert.Equal(t, []string{"earlier"}, doc.PreviousResponses)

	yamlPath := writeFile(t, "subject.yaml", "Subject: Solid-state batteries\nPreviousResponses:\n  - one\n  - two\n")
	doc, err = loadSubjectFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "Solid-state batteries", doc.Subject)
	assert.Equal(t, []string{"one", "two"}, doc.PreviousResponses)

	_, err = loadSubjectFile(writeFile(t, "empty.json", `{"Subject":"  "}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no Subject")

	_, err = loadSubjectFile(writeFile(t, "broken.json", `{"Subject":`))
	require.Error(t, err)

	_, err = loadSubjectFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestBuildResearchRequest(t *testing.T) {
	req, err := buildResearchRequest(researchOptions{
		Subject:         "Edge AI",
		Model:           "gpt-5-mini",
		Verbosity:       "HIGH",
		ReasoningEffort: "low",
	})
	require.NoError(t, err)
	assert.Equal(t, "Edge AI", req.Subject)
	assert.Equal(t, "gpt-5-mini", req.Model)
	assert.Equal(t, model.VerbosityHigh, req.Verbosity)
	assert.Equal(t, model.ReasoningEffortLow, req.ReasoningEffort)

	_, err = buildResearchRequest(researchOptions{Subject: "x", Verbosity: "loud"})
	require.Error(t, err)
}

func TestParseResearchFlags(t *testing.T) {
	opts, err := parseResearchFlags([]string{"--file", "topics.yaml", "--model", "gpt-5"})
	require.NoError(t, err)
	assert.Equal(t, "topics.yaml", opts.File)
	assert.Equal(t, "gpt-5", opts.Model)

	opts, err = parseResearchFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultSubjectFile, opts.File)

	_, err = parseResearchFlags([]string{"stray"})
	require.Error(t, err)
}

func TestResearchThenRetrieve(t *testing.T) {
	stub := newEngineStub(t, `{"id":"resp_1","output_text":"Key findings."}`)
	ctx, out := newTestContext(t, stub.srv.URL)

	subjectPath := writeFile(t, "subject.json", `{"Subject":"Result X","PreviousResponses":[]}`)
	require.NoError(t, runResearch(ctx, []string{"--file", subjectPath, "--json"}))
	calls := stub.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "gpt-5", calls[0]["model"])

	var result model.ResearchResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, model.ResearchStatusCompleted, result.Status)
	assert.FileExists(t, result.TextPath)
	assert.FileExists(t, result.MetadataPath)

	out.Reset()
	require.NoError(t, runList(ctx, nil))
	assert.Contains(t, out.String(), result.ID)
	assert.Contains(t, out.String(), "Result X")
	assert.Contains(t, out.String(), "Total: 1")

	out.Reset()
	require.NoError(t, runShow(ctx, []string{"--format", "text", result.ID}))
	assert.Contains(t, out.String(), "Subject: Result X")
	assert.Contains(t, out.String(), "Key findings.")

	out.Reset()
	require.NoError(t, runShow(ctx, []string{"--id", result.ID, "--query", "subject"}))
	assert.Equal(t, "\"Result X\"\n", out.String())

	out.Reset()
	require.NoError(t, runLatest(ctx, nil))
	var doc model.ResearchDocument
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, result.ID, doc.ID)
	assert.Contains(t, doc.OutputText, "Key findings.")

	out.Reset()
	require.NoError(t, runDelete(ctx, []string{"--dry-run", result.ID}))
	assert.Contains(t, out.String(), "[DRY RUN]")
	assert.FileExists(t, result.MetadataPath)

	out.Reset()
	require.NoError(t, runDelete(ctx, []string{result.ID}))
	assert.Contains(t, out.String(), "deleted successfully")
	assert.NoFileExists(t, result.MetadataPath)

	out.Reset()
	require.NoError(t, runList(ctx, nil))
	assert.Contains(t, out.String(), "No research jobs found.")
}

func TestResearch_SubjectFlagSkipsFile(t *testing.T) {
	stub := newEngineStub(t, `{"output_text":"ok"}`)
	ctx, out := newTestContext(t, stub.srv.URL)

	require.NoError(t, runResearch(ctx, []string{"--subject", "Inline subject", "--file", "/does/not/exist.json"}))
	assert.Contains(t, out.String(), "[OK] Research ")
	assert.Contains(t, out.String(), "[OK] Metadata written to")
}

func TestResearch_MissingCredential(t *testing.T) {
	stub := newEngineStub(t, `{"output_text":"unused"}`)
	ctx, _ := newTestContext(t, stub.srv.URL)
	ctx.Config.Engine.APIKey = ""

	err := runResearch(ctx, []string{"--subject", "anything"})
	require.Error(t, err)
	assert.Empty(t, stub.calls())
}

func TestShowAndDelete_Errors(t *testing.T) {
	ctx, _ := newTestContext(t, "http://127.0.0.1:1")

	require.Error(t, runShow(ctx, nil))
	require.Error(t, runShow(ctx, []string{"missing-id"}))
	require.Error(t, runShow(ctx, []string{"--format", "text", "--query", "id", "abc"}))
	require.Error(t, runLatest(ctx, nil))
	require.Error(t, runDelete(ctx, nil))
	require.Error(t, runDelete(ctx, []string{"../etc"}))
}

func TestCheckConfig_Pass(t *testing.T) {
	ctx, out := newTestContext(t, "https://api.openai.com/v1")

	require.NoError(t, runCheckConfig(ctx, nil))
	s := out.String()
	assert.Contains(t, s, "✅ OPENAI_API_KEY configured")
	assert.Contains(t, s, "✅ output directory writable")
	assert.Contains(t, s, "READY TO DEPLOY")
}

func TestCheckConfig_FailsWithoutCredential(t *testing.T) {
	ctx, out := newTestContext(t, "https://api.openai.com/v1")
	ctx.Config.Engine.APIKey = ""

	err := runCheckConfig(ctx, nil)
	require.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, out.String(), "❌ OPENAI_API_KEY configured")
	assert.Contains(t, out.String(), "SOME CHECKS FAILED")
}

func TestCheckConfig_UnwritableOutputDir(t *testing.T) {
	ctx, out := newTestContext(t, "https://api.openai.com/v1")
	blocker := writeFile(t, "not-a-dir", "x")
	ctx.Config.Store.OutputDir = filepath.Join(blocker, "outputs")

	require.ErrorIs(t, runCheckConfig(ctx, nil), errChecksFailed)
	assert.Contains(t, out.String(), "❌ output directory writable")
}

func TestCheckConfig_Cache(t *testing.T) {
	srv := miniredis.RunT(t)

	ctx, out := newTestContext(t, "https://api.openai.com/v1")
	ctx.Config.Cache.Enabled = true
	ctx.Config.Redis.URI = srv.Addr()

	require.NoError(t, runCheckConfig(ctx, nil))
	assert.Contains(t, out.String(), "✅ redis reachable")
}

func TestCheckConfig_WarnsOnUnusualKeyAndMissingSink(t *testing.T) {
	ctx, out := newTestContext(t, "https://api.openai.com/v1")
	ctx.Config.Engine.APIKey = "not-prefixed"
	ctx.Config.Observability.Notifications.Enabled = true

	require.NoError(t, runCheckConfig(ctx, nil))
	assert.Contains(t, out.String(), "OPENAI_API_KEY format")
	assert.Contains(t, out.String(), "no notification sink enabled")
}

func TestPrintUsage_ListsCommandsSorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	s := buf.String()
	assert.True(t, strings.Index(s, "check-config") < strings.Index(s, "research"))
	for name := range commands() {
		assert.Contains(t, s, name)
	}
}
