package repository

import (
	"context"

	"github.com/craftflow/craftflow/internal/domain/model/workflow"
)

// CheckpointRepository persists one checkpoint per session id with
// overwrite semantics. Implementations: file (JSON per session) and
// sqlite.
type CheckpointRepository interface {
	// Save persists the checkpoint, replacing any previous snapshot for
	// the same session.
	Save(ctx context.Context, cp *workflow.Checkpoint) error

	// Load retrieves the checkpoint for a session. Returns
	// ErrCheckpointNotFound when the session has never been persisted.
	Load(ctx context.Context, sessionID string) (*workflow.Checkpoint, error)

	// Delete discards a session's checkpoint.
	Delete(ctx context.Context, sessionID string) error

	// List returns the session ids with a stored checkpoint.
	List(ctx context.Context) ([]string, error)
}

// JournalRecord is one audit entry for a stage execution.
type JournalRecord struct {
	Timestamp string   `json:"timestamp"`
	SessionID string   `json:"session_id"`
	Turn      int      `json:"turn"`
	Stage     string   `json:"stage"`
	Status    string   `json:"status"`
	Decision  string   `json:"decision,omitempty"`
	ElapsedMs int64    `json:"elapsed_ms"`
	Error     string   `json:"error,omitempty"`
	Artifacts []string `json:"artifacts"`
}

// JournalRepository appends and reads the NDJSON audit log.
type JournalRepository interface {
	Append(ctx context.Context, rec *JournalRecord) error
	Load(ctx context.Context) ([]*JournalRecord, error)
	FindBySession(ctx context.Context, sessionID string) ([]*JournalRecord, error)
}
