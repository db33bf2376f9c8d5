package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/craftflow/craftflow/internal/domain/model/workflow"
	"github.com/craftflow/craftflow/internal/domain/repository"
)

// CheckpointRepositoryImpl implements repository.CheckpointRepository
// with SQLite. One row per session; Save is an upsert so the previous
// snapshot is always replaced.
type CheckpointRepositoryImpl struct {
	db *sql.DB
}

// NewCheckpointRepository creates a new SQLite-based checkpoint repository
func NewCheckpointRepository(db *sql.DB) repository.CheckpointRepository {
	return &CheckpointRepositoryImpl{db: db}
}

// Save persists the checkpoint, replacing any previous snapshot.
func (r *CheckpointRepositoryImpl) Save(ctx context.Context, cp *workflow.Checkpoint) error {
	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO checkpoints (session_id, state_json, current_stage, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			state_json = excluded.state_json,
			current_stage = excluded.current_stage,
			saved_at = excluded.saved_at`,
		cp.SessionID,
		string(stateJSON),
		cp.State.Current.String(),
		cp.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint for a session.
func (r *CheckpointRepositoryImpl) Load(ctx context.Context, sessionID string) (*workflow.Checkpoint, error) {
	var stateJSON, savedAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT state_json, saved_at FROM checkpoints WHERE session_id = ?`,
		sessionID,
	).Scan(&stateJSON, &savedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	var st workflow.State
	if err := json.Unmarshal([]byte(stateJSON), &st); err != nil {
		return nil, fmt.Errorf("invalid checkpoint state: %w", err)
	}

	cp := &workflow.Checkpoint{
		SessionID: sessionID,
		State:     &st,
	}
	if t, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
		cp.SavedAt = t
	}
	return cp, nil
}

// Delete discards a session's checkpoint.
func (r *CheckpointRepositoryImpl) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// List returns the session ids with a stored checkpoint.
func (r *CheckpointRepositoryImpl) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id FROM checkpoints ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
