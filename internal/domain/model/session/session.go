package session

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Session represents one execution of the pipeline. Each session owns
// exactly one workflow state, persisted under its ID.
type Session struct {
	ID         string    `json:"id"`
	ProjectDir string    `json:"project_dir"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewID generates a new session ID using ULID
// Format: ULID (e.g., 01JB6X8Y2K9FQR4T3VWHGP5M2C)
func NewID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	return id.String()
}

// ValidateID checks that id looks like a ULID session identifier.
func ValidateID(id string) bool {
	if len(id) != 26 {
		return false
	}
	if strings.TrimSpace(id) != id {
		return false
	}
	_, err := ulid.ParseStrict(id)
	return err == nil
}

// New creates a session with a fresh ID for the given project directory.
func New(projectDir string) *Session {
	return &Session{
		ID:         NewID(),
		ProjectDir: projectDir,
		CreatedAt:  time.Now().UTC(),
	}
}
