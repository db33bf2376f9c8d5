package workflow

import (
	"time"

	"github.com/craftflow/craftflow/internal/artifact"
	"github.com/craftflow/craftflow/internal/domain/model/stage"
)

// Document slot names. Freeform text artifacts are keyed by the stage
// that produced them.
const (
	DocStory  = "story"
	DocDesign = "design"
)

// Artifact slot names for file-map artifacts.
const (
	SlotCode       = "generate_code"
	SlotTests      = "write_tests"
	SlotDeployment = "deployment"
)

// State is the single mutable record threaded through every stage of a
// session. It is pure data; the engine and the gate controller own all
// behavior.
type State struct {
	// Requirements is the input text, immutable after initialization.
	Requirements string `json:"requirements"`

	// Documents holds freeform text artifacts (story, design) keyed by
	// producer stage.
	Documents map[string]string `json:"documents"`

	// Artifacts holds file artifact maps keyed by producer stage.
	Artifacts map[string]artifact.Map `json:"artifacts"`

	// Feedback holds the most recent raw reviewer outcome per gate.
	Feedback map[string]string `json:"feedback"`

	// Rejections counts consecutive rejections per gate. Reset to zero
	// on approval or forced advance.
	Rejections map[string]int `json:"rejections"`

	// ForcedGates marks gates whose artifact advanced without approval,
	// so downstream consumers can treat it as unreviewed.
	ForcedGates map[string]bool `json:"forced_gates,omitempty"`

	// Current is the session's position in the graph.
	Current stage.Stage `json:"current"`

	// ProjectDir locates the external artifact store. Required before
	// any producing stage runs.
	ProjectDir string `json:"project_dir"`

	// Turn counts stage executions for this session.
	Turn int `json:"turn"`
}

// NewState initializes a fresh state positioned at the graph start.
func NewState(requirements, projectDir string, start stage.Stage) *State {
	return &State{
		Requirements: requirements,
		Documents:    map[string]string{},
		Artifacts:    map[string]artifact.Map{},
		Feedback:     map[string]string{},
		Rejections:   map[string]int{},
		ForcedGates:  map[string]bool{},
		Current:      start,
		ProjectDir:   projectDir,
	}
}

// Story returns the latest generated story text.
func (s *State) Story() string { return s.Documents[DocStory] }

// Design returns the latest design document text.
func (s *State) Design() string { return s.Documents[DocDesign] }

// Code returns the latest generated code artifact map.
func (s *State) Code() artifact.Map { return s.Artifacts[SlotCode] }

// SetDocument stores a freeform text artifact.
func (s *State) SetDocument(slot, text string) {
	if s.Documents == nil {
		s.Documents = map[string]string{}
	}
	s.Documents[slot] = text
}

// SetArtifacts stores a file artifact map for the given slot.
func (s *State) SetArtifacts(slot string, m artifact.Map) {
	if s.Artifacts == nil {
		s.Artifacts = map[string]artifact.Map{}
	}
	s.Artifacts[slot] = m
}

// Clone returns a deep copy. The engine mutates only clones so a failed
// stage never leaves a half-written state behind.
func (s *State) Clone() *State {
	c := *s
	c.Documents = cloneStringMap(s.Documents)
	c.Feedback = cloneStringMap(s.Feedback)
	c.Rejections = make(map[string]int, len(s.Rejections))
	for k, v := range s.Rejections {
		c.Rejections[k] = v
	}
	c.ForcedGates = make(map[string]bool, len(s.ForcedGates))
	for k, v := range s.ForcedGates {
		c.ForcedGates[k] = v
	}
	c.Artifacts = make(map[string]artifact.Map, len(s.Artifacts))
	for slot, m := range s.Artifacts {
		mc := make(artifact.Map, len(m))
		for p, content := range m {
			mc[p] = content
		}
		c.Artifacts[slot] = mc
	}
	return &c
}

func cloneStringMap(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Checkpoint is an immutable snapshot of one session's state plus its
// position, stored under the session id and overwritten on each persist.
type Checkpoint struct {
	SessionID string    `json:"session_id"`
	State     *State    `json:"state"`
	SavedAt   time.Time `json:"saved_at"`
}

// NewCheckpoint snapshots the given state for persistence.
func NewCheckpoint(sessionID string, st *State) *Checkpoint {
	return &Checkpoint{
		SessionID: sessionID,
		State:     st.Clone(),
		SavedAt:   time.Now().UTC(),
	}
}
