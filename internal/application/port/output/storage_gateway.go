package output

// ArtifactStore is the interface to the external artifact store where
// generated files land. Upsert semantics: Write creates or replaces,
// and creates any intermediate directories implied by relPath.
type ArtifactStore interface {
	Write(projectDir, relPath, content string) error
	Exists(projectDir, relPath string) (bool, error)
}
