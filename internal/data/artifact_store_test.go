package data

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/veille-api/internal/domain/model"
	apperrors "github.com/target/veille-api/internal/errors"
)

func newTestStore(t *testing.T) *FileArtifactStore {
	t.Helper()
	store, err := NewFileArtifactStore(FileArtifactStoreOptions{Dir: filepath.Join(t.TempDir(), "outputs")})
	require.NoError(t, err)
	return store
}

func testArtifact(id string, createdAt time.Time) *model.ResearchArtifact {
	return &model.ResearchArtifact{
		Metadata: model.ResearchMetadata{
			ID:                id,
			Model:             "gpt-5",
			Verbosity:         model.VerbosityMedium,
			ReasoningEffort:   model.ReasoningEffortMedium,
			Subject:           "Subject " + id,
			PreviousResponses: []string{"earlier"},
			CreatedAt:         createdAt,
			RawEngineResponse: json.RawMessage(`{"id":"resp_1"}`),
		},
		Text: "text for " + id,
	}
}

func TestNewFileArtifactStore_RequiresDir(t *testing.T) {
	_, err := NewFileArtifactStore(FileArtifactStoreOptions{Dir: "  "})
	require.Error(t, err)
}

func TestFileArtifactStore_WriteAndRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	loc, err := store.Write(ctx, testArtifact("job-1", createdAt))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "job-1_output.txt"), loc.TextPath)
	assert.Equal(t, filepath.Join(store.Dir(), "job-1_metadata.json"), loc.MetadataPath)

	exists, err := store.Exists(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, exists)

	meta, err := store.ReadMetadata(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "Subject job-1", meta.Subject)
	assert.Equal(t, "gpt-5", meta.Model)
	assert.True(t, createdAt.Equal(meta.CreatedAt))
	assert.JSONEq(t, `{"id":"resp_1"}`, string(meta.RawEngineResponse))

	text, err := store.ReadText(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "text for job-1", text)

	info, err := os.Stat(loc.MetadataPath)
	require.NoError(t, err)
	assert.True(t, createdAt.Equal(info.ModTime()), "metadata mtime pinned to completion time")
}

func TestFileArtifactStore_MetadataPreservesNonASCII(t *testing.T) {
	store := newTestStore(t)
	art := testArtifact("job-utf8", time.Now().UTC())
	art.Metadata.Subject = "Veille <IA> & calcul quantique – été"

	loc, err := store.Write(context.Background(), art)
	require.NoError(t, err)

	raw, err := os.ReadFile(loc.MetadataPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Veille <IA> & calcul quantique – été")
}

func TestFileArtifactStore_WriteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	art := testArtifact("job-idem", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	_, err := store.Write(ctx, art)
	require.NoError(t, err)
	first, err := store.ListAll(ctx)
	require.NoError(t, err)
	firstText, err := store.ReadText(ctx, "job-idem")
	require.NoError(t, err)

	_, err = store.Write(ctx, art)
	require.NoError(t, err)
	second, err := store.ListAll(ctx)
	require.NoError(t, err)
	secondText, err := store.ReadText(ctx, "job-idem")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstText, secondText)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestFileArtifactStore_FailedMetadataWriteRemovesText(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	loc, err := store.Locate("job-orphan")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(loc.MetadataPath, "blocker"), 0o755))

	_, err = store.Write(ctx, testArtifact("job-orphan", time.Now().UTC()))
	require.Error(t, err)

	_, statErr := os.Stat(loc.TextPath)
	assert.True(t, os.IsNotExist(statErr), "text artifact must not outlive a failed metadata write")

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(loc.MetadataPath), entries[0].Name())
}

func TestFileArtifactStore_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.ReadMetadata(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = store.ReadText(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = store.LatestID(ctx)
	assert.True(t, apperrors.IsNotFound(err))

	err = store.Delete(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFileArtifactStore_RejectsUnsafeIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "../etc/passwd", "a/b", "a.b", "x y"} {
		_, err := store.ReadMetadata(ctx, id)
		assert.True(t, apperrors.IsValidation(err), "id %q", id)
	}
}

func TestFileArtifactStore_ListAllOrdersByRecency(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	// Written out of completion order on purpose.
	_, err := store.Write(ctx, testArtifact("job-b", base.Add(2*time.Hour)))
	require.NoError(t, err)
	_, err = store.Write(ctx, testArtifact("job-a", base))
	require.NoError(t, err)
	_, err = store.Write(ctx, testArtifact("job-c", base.Add(time.Hour)))
	require.NoError(t, err)

	summaries, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "job-b", summaries[0].ID)
	assert.Equal(t, "job-c", summaries[1].ID)
	assert.Equal(t, "job-a", summaries[2].ID)
	assert.Equal(t, "Subject job-b", summaries[0].Subject)
	assert.Equal(t, "gpt-5", summaries[0].Model)

	latest, err := store.LatestID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "job-b", latest)
}

func TestFileArtifactStore_ListAllSkipsForeignAndCorruptFiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Write(ctx, testArtifact("job-ok", time.Now().UTC()))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "broken_metadata.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(store.Dir(), "dir_metadata.json"), 0o755))

	summaries, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "job-ok", summaries[0].ID)
}

func TestFileArtifactStore_DeleteToleratesPartialState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	loc, err := store.Write(ctx, testArtifact("job-partial", time.Now().UTC()))
	require.NoError(t, err)
	require.NoError(t, os.Remove(loc.TextPath))

	require.NoError(t, store.Delete(ctx, "job-partial"))

	_, err = os.Stat(loc.MetadataPath)
	assert.True(t, os.IsNotExist(err))

	err = store.Delete(ctx, "job-partial")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFileArtifactStore_DeleteRemovesBoth(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	loc, err := store.Write(ctx, testArtifact("job-del", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "job-del"))

	for _, path := range []string{loc.TextPath, loc.MetadataPath} {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), path)
	}
	summaries, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestFileArtifactStore_CanceledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Write(ctx, testArtifact("job-x", time.Now().UTC()))
	assert.True(t, apperrors.IsCanceled(err))

	exists, err := store.Exists(context.Background(), "job-x")
	require.NoError(t, err)
	assert.False(t, exists)
}
