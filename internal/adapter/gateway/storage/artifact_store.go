package storage

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/craftflow/craftflow/internal/artifact"
	"github.com/craftflow/craftflow/internal/infra/persistence/file"
)

// AferoArtifactStore writes generated artifacts under a project
// directory with upsert semantics. Intermediate directories implied by
// the artifact path are created; writes are atomic.
type AferoArtifactStore struct {
	FS afero.Fs
}

// NewAferoArtifactStore creates an artifact store over the given fs.
func NewAferoArtifactStore(fs afero.Fs) *AferoArtifactStore {
	return &AferoArtifactStore{FS: fs}
}

// Write creates or replaces one artifact file.
func (s *AferoArtifactStore) Write(projectDir, relPath, content string) error {
	cleaned := artifact.CleanPath(relPath)
	if !artifact.ValidatePath(cleaned, false) {
		return fmt.Errorf("invalid artifact path: %q", relPath)
	}
	target := filepath.Join(projectDir, filepath.FromSlash(cleaned))
	if err := file.WriteFileAtomic(s.FS, target, []byte(content)); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", cleaned, err)
	}
	return nil
}

// Exists reports whether an artifact file is present.
func (s *AferoArtifactStore) Exists(projectDir, relPath string) (bool, error) {
	cleaned := artifact.CleanPath(relPath)
	return afero.Exists(s.FS, filepath.Join(projectDir, filepath.FromSlash(cleaned)))
}
