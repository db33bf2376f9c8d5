package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/craftflow/craftflow/internal/domain/repository"
)

// JournalRepositoryImpl implements repository.JournalRepository using
// NDJSON file-based storage: one JSON object per line, append-only.
type JournalRepositoryImpl struct {
	journalPath string
}

// NewJournalRepositoryImpl creates a new NDJSON-based journal repository
func NewJournalRepositoryImpl(journalPath string) *JournalRepositoryImpl {
	return &JournalRepositoryImpl{journalPath: journalPath}
}

// Append adds a new record to the journal.
func (r *JournalRepositoryImpl) Append(ctx context.Context, rec *repository.JournalRecord) error {
	// Normalize timestamps
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	// Normalize artifacts to ensure it's always an array
	if rec.Artifacts == nil {
		rec.Artifacts = []string{}
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.journalPath), 0o755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	f, err := os.OpenFile(r.journalPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// Load retrieves all journal records from NDJSON file
func (r *JournalRepositoryImpl) Load(ctx context.Context) ([]*repository.JournalRecord, error) {
	if _, err := os.Stat(r.journalPath); os.IsNotExist(err) {
		return []*repository.JournalRecord{}, nil
	}

	file, err := os.Open(r.journalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	defer file.Close()

	var records []*repository.JournalRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec repository.JournalRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			// Skip corrupted lines but keep reading; the journal is an
			// audit aid, not a source of truth.
			fmt.Fprintf(os.Stderr, "WARN: skipping corrupted journal line %d: %v\n", lineNum, err)
			continue
		}
		records = append(records, &rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal file: %w", err)
	}
	return records, nil
}

// FindBySession retrieves records for a specific session.
func (r *JournalRepositoryImpl) FindBySession(ctx context.Context, sessionID string) ([]*repository.JournalRecord, error) {
	all, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}

	var result []*repository.JournalRecord
	for _, rec := range all {
		if rec.SessionID == sessionID {
			result = append(result, rec)
		}
	}
	return result, nil
}
