package data

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/target/veille-api/internal/domain/model"
	apperrors "github.com/target/veille-api/internal/errors"
)

const (
	textArtifactSuffix     = "_output.txt"
	metadataArtifactSuffix = "_metadata.json"
	artifactFileMode       = 0o644
	artifactDirMode        = 0o755
)

// researchIDPattern keeps ids safe to embed in file names and URL path segments.
var researchIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// FileArtifactStoreOptions groups dependencies for FileArtifactStore.
type FileArtifactStoreOptions struct {
	Dir    string
	Logger *slog.Logger // optional
}

// FileArtifactStore keeps research artifacts as flat files in a single directory:
// {id}_output.txt holds the text and {id}_metadata.json the metadata.
// A metadata file is written last and is the signal that a job is complete.
type FileArtifactStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileArtifactStore creates the artifact directory if needed and returns a store rooted at it.
func NewFileArtifactStore(opts FileArtifactStoreOptions) (*FileArtifactStore, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("artifact directory is required")
	}
	if err := os.MkdirAll(dir, artifactDirMode); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FileArtifactStore{dir: dir, logger: logger.With("component", "artifact_store")}, nil
}

// Dir returns the directory the store writes to.
func (s *FileArtifactStore) Dir() string {
	return s.dir
}

// Locate returns the artifact paths for id. Ids that are not path safe are rejected.
func (s *FileArtifactStore) Locate(id string) (model.ArtifactLocation, error) {
	if !researchIDPattern.MatchString(id) {
		return model.ArtifactLocation{}, apperrors.ValidationField("id", "research id must be 1-64 letters, digits or dashes")
	}
	return model.ArtifactLocation{
		TextPath:     filepath.Join(s.dir, id+textArtifactSuffix),
		MetadataPath: filepath.Join(s.dir, id+metadataArtifactSuffix),
	}, nil
}

// Write stores the text artifact and then the metadata artifact, each via temp file and rename.
// A failed metadata write removes the text artifact again.
// The metadata modification time is pinned to CreatedAt so recency ordering follows completion time.
// Rewriting identical content leaves the store in the same observable state.
func (s *FileArtifactStore) Write(ctx context.Context, artifact *model.ResearchArtifact) (model.ArtifactLocation, error) {
	if artifact == nil {
		return model.ArtifactLocation{}, errors.New("artifact is required")
	}
	if err := ctx.Err(); err != nil {
		return model.ArtifactLocation{}, apperrors.MapFSError(err, "write artifact")
	}

	meta := &artifact.Metadata
	loc, err := s.Locate(meta.ID)
	if err != nil {
		return model.ArtifactLocation{}, err
	}

	body, err := encodeMetadata(meta)
	if err != nil {
		return model.ArtifactLocation{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode metadata")
	}

	if err := writeFileAtomic(loc.TextPath, []byte(artifact.Text)); err != nil {
		return model.ArtifactLocation{}, apperrors.MapFSError(err, "write text artifact")
	}
	if err := writeFileAtomic(loc.MetadataPath, body); err != nil {
		if rmErr := os.Remove(loc.TextPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.ErrorContext(ctx, "remove orphaned text artifact failed", "path", loc.TextPath, "error", rmErr)
		}
		return model.ArtifactLocation{}, apperrors.MapFSError(err, "write metadata artifact")
	}

	if !meta.CreatedAt.IsZero() {
		for _, path := range []string{loc.TextPath, loc.MetadataPath} {
			if err := os.Chtimes(path, meta.CreatedAt, meta.CreatedAt); err != nil {
				s.logger.WarnContext(ctx, "pin artifact mtime failed", "path", path, "error", err)
			}
		}
	}

	return loc, nil
}

// Exists reports whether the metadata artifact for id is present.
func (s *FileArtifactStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperrors.MapFSError(err, "stat artifact")
	}
	loc, err := s.Locate(id)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(loc.MetadataPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, apperrors.MapFSError(err, "stat metadata artifact")
	}
	return true, nil
}

// ReadMetadata loads the metadata artifact for id.
func (s *FileArtifactStore) ReadMetadata(ctx context.Context, id string) (*model.ResearchMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.MapFSError(err, "read metadata artifact")
	}
	loc, err := s.Locate(id)
	if err != nil {
		return nil, err
	}
	return s.readMetadataFile(id, loc.MetadataPath)
}

func (s *FileArtifactStore) readMetadataFile(id, path string) (*model.ResearchMetadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.MapFSError(err, fmt.Sprintf("research %s not found", id))
	}
	var meta model.ResearchMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "decode metadata for research %s", id)
	}
	if meta.ID == "" {
		meta.ID = id
	}
	return &meta, nil
}

// ReadText loads the text artifact for id.
func (s *FileArtifactStore) ReadText(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.MapFSError(err, "read text artifact")
	}
	loc, err := s.Locate(id)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(loc.TextPath)
	if err != nil {
		return "", apperrors.MapFSError(err, fmt.Sprintf("text artifact for research %s not found", id))
	}
	return string(raw), nil
}

type metadataEntry struct {
	id      string
	path    string
	modTime time.Time
}

// scan lists metadata artifacts ordered by modification time, newest first.
// Entries with equal times are ordered by id.
func (s *FileArtifactStore) scan() ([]metadataEntry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.MapFSError(err, "list artifact directory")
	}

	entries := make([]metadataEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, metadataArtifactSuffix) {
			continue
		}
		id := strings.TrimSuffix(name, metadataArtifactSuffix)
		if !researchIDPattern.MatchString(id) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entries = append(entries, metadataEntry{
			id:      id,
			path:    filepath.Join(s.dir, name),
			modTime: info.ModTime(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].modTime.Equal(entries[j].modTime) {
			return entries[i].modTime.After(entries[j].modTime)
		}
		return entries[i].id < entries[j].id
	})
	return entries, nil
}

// ListAll returns a summary for every metadata artifact, most recently written first.
// Unreadable metadata files are skipped and logged.
func (s *FileArtifactStore) ListAll(ctx context.Context) ([]model.ResearchSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.MapFSError(err, "list artifacts")
	}
	entries, err := s.scan()
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ResearchSummary, 0, len(entries))
	for _, entry := range entries {
		meta, err := s.readMetadataFile(entry.id, entry.path)
		if err != nil {
			if !apperrors.IsNotFound(err) {
				s.logger.WarnContext(ctx, "skipping unreadable metadata artifact", "research_id", entry.id, "error", err)
			}
			continue
		}
		summaries = append(summaries, meta.Summary())
	}
	return summaries, nil
}

// LatestID returns the id of the most recently written metadata artifact.
func (s *FileArtifactStore) LatestID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.MapFSError(err, "list artifacts")
	}
	entries, err := s.scan()
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", apperrors.NotFound("no research found")
	}
	return entries[0].id, nil
}

// Delete removes the metadata artifact and then the text artifact.
// It fails with NotFound only when neither file exists.
func (s *FileArtifactStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.MapFSError(err, "delete artifact")
	}
	loc, err := s.Locate(id)
	if err != nil {
		return err
	}

	removed := 0
	for _, path := range []string{loc.MetadataPath, loc.TextPath} {
		if err := os.Remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return apperrors.MapFSError(err, "delete artifact")
		}
		removed++
	}
	if removed == 0 {
		return apperrors.NotFoundf("research %s not found", id)
	}
	return nil
}

func encodeMetadata(meta *model.ResearchMetadata) ([]byte, error) {
	if meta.PreviousResponses == nil {
		meta.PreviousResponses = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data to a temp file in the target directory and renames it into place.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, artifactFileMode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
