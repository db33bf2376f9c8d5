package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/craftflow/craftflow/internal/domain/model/workflow"
	"github.com/craftflow/craftflow/internal/domain/repository"
	"github.com/craftflow/craftflow/internal/infra/persistence/file"
)

// FileCheckpointRepository stores one checkpoint.json per session under
// <sessionsDir>/<SESSION-ID>/checkpoint.json, overwritten atomically on
// every persist.
type FileCheckpointRepository struct {
	FS          afero.Fs
	SessionsDir string
}

// NewFileCheckpointRepository creates a file-based checkpoint repository.
func NewFileCheckpointRepository(fs afero.Fs, sessionsDir string) *FileCheckpointRepository {
	return &FileCheckpointRepository{FS: fs, SessionsDir: sessionsDir}
}

func (r *FileCheckpointRepository) path(sessionID string) string {
	return filepath.Join(r.SessionsDir, sessionID, "checkpoint.json")
}

// Save persists the checkpoint, replacing any previous snapshot.
func (r *FileCheckpointRepository) Save(ctx context.Context, cp *workflow.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	if err := file.WriteFileAtomic(r.FS, r.path(cp.SessionID), data); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint for a session.
func (r *FileCheckpointRepository) Load(ctx context.Context, sessionID string) (*workflow.Checkpoint, error) {
	data, err := afero.ReadFile(r.FS, r.path(sessionID))
	if os.IsNotExist(err) {
		return nil, repository.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp workflow.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("invalid checkpoint format: %w", err)
	}
	return &cp, nil
}

// Delete discards a session's checkpoint directory.
func (r *FileCheckpointRepository) Delete(ctx context.Context, sessionID string) error {
	return r.FS.RemoveAll(filepath.Join(r.SessionsDir, sessionID))
}

// List returns session ids that have a stored checkpoint, sorted so
// ULID ordering doubles as creation order.
func (r *FileCheckpointRepository) List(ctx context.Context) ([]string, error) {
	entries, err := afero.ReadDir(r.FS, r.SessionsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if ok, _ := afero.Exists(r.FS, r.path(e.Name())); ok {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
