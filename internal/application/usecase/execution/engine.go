package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/craftflow/craftflow/internal/domain/model/session"
	"github.com/craftflow/craftflow/internal/domain/model/stage"
	"github.com/craftflow/craftflow/internal/domain/model/workflow"
	"github.com/craftflow/craftflow/internal/domain/repository"
)

// Logger is the minimal leveled logging surface the engine needs.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Status reports how a run ended.
type Status string

const (
	// StatusSuspended means the session stopped at the interrupt stage
	// and waits for human feedback via resume.
	StatusSuspended Status = "suspended"
	// StatusCompleted means the session reached the terminal stage.
	StatusCompleted Status = "completed"
	// StatusMaxTurns means the turn guard stopped this invocation before
	// the session reached a terminal stage. The checkpoint remains
	// resumable; a later continue gets a fresh budget.
	StatusMaxTurns Status = "max_turns"
)

// RunResult summarizes a run or resume call.
type RunResult struct {
	SessionID string
	Status    Status
	Stage     stage.Stage
	Turn      int
}

// DefaultMaxTurns bounds stage executions per Run, Resume or Continue
// call. Forced advance keeps individual gates live, but a continuous
// pipeline still needs an overall stop.
const DefaultMaxTurns = 200

// ErrNotSuspended is returned by Resume when the session is not parked
// at the interrupt stage.
var ErrNotSuspended = errors.New("session is not awaiting feedback")

// Engine drives a session through the pipeline graph: execute a stage
// on a cloned state, persist the checkpoint, route, repeat. A stage
// failure leaves the previous checkpoint untouched.
type Engine struct {
	graph       *Graph
	checkpoints repository.CheckpointRepository
	journal     repository.JournalRepository
	maxTurns    int
	log         Logger
}

// NewEngine creates an engine. maxTurns <= 0 selects DefaultMaxTurns;
// a nil journal disables the audit log.
func NewEngine(graph *Graph, checkpoints repository.CheckpointRepository, journal repository.JournalRepository, maxTurns int, log Logger) *Engine {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Engine{
		graph:       graph,
		checkpoints: checkpoints,
		journal:     journal,
		maxTurns:    maxTurns,
		log:         log,
	}
}

// Start begins a new session from the requirements text and runs until
// the session suspends, completes, or hits the turn guard.
func (e *Engine) Start(ctx context.Context, sess *session.Session, requirements string) (*RunResult, error) {
	st := workflow.NewState(requirements, sess.ProjectDir, e.graph.Start)
	if err := e.persist(ctx, sess.ID, st); err != nil {
		return nil, err
	}
	e.log.Info("session %s started at stage %s", sess.ID, st.Current)
	return e.run(ctx, sess.ID, st)
}

// Resume continues a suspended session. feedback is the human's
// revision request; an empty string approves the story. The interrupt
// stage's outgoing edge is routed with the merged feedback and the loop
// re-enters.
func (e *Engine) Resume(ctx context.Context, sessionID, feedback string) (*RunResult, error) {
	cp, err := e.checkpoints.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	st := cp.State

	node, err := e.graph.Node(st.Current)
	if err != nil {
		return nil, err
	}
	if !node.Interrupt {
		return nil, fmt.Errorf("%w: session %s is at stage %s", ErrNotSuspended, sessionID, st.Current)
	}

	st.Feedback[stage.GateProduct] = feedback
	next, decision, err := e.graph.Successor(node, st)
	if err != nil {
		return nil, err
	}
	e.appendJournal(ctx, sessionID, st, node.ID, "resumed", decision, 0, nil)
	st.Current = next
	if err := e.persist(ctx, sessionID, st); err != nil {
		return nil, err
	}
	e.log.Info("session %s resumed, next stage %s", sessionID, next)
	return e.run(ctx, sessionID, st)
}

// Continue re-enters a session that stopped without completing, for
// example at the turn guard or after a crash. The current stage
// re-executes from its last checkpoint. Sessions parked at the
// interrupt stage must use Resume instead.
func (e *Engine) Continue(ctx context.Context, sessionID string) (*RunResult, error) {
	cp, err := e.checkpoints.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	st := cp.State

	node, err := e.graph.Node(st.Current)
	if err != nil {
		return nil, err
	}
	if node.Interrupt {
		return nil, fmt.Errorf("session %s is awaiting feedback; use resume with --approve or --feedback", sessionID)
	}
	e.log.Info("session %s continuing at stage %s (turn %d)", sessionID, st.Current, st.Turn)
	return e.run(ctx, sessionID, st)
}

// run is the main loop. st is the last persisted state.
func (e *Engine) run(ctx context.Context, sessionID string, st *workflow.State) (*RunResult, error) {
	for turns := 0; ; turns++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node, err := e.graph.Node(st.Current)
		if err != nil {
			return nil, err
		}
		if node.Terminal {
			e.log.Info("session %s completed after %d turns", sessionID, st.Turn)
			return e.result(sessionID, StatusCompleted, st), nil
		}
		if turns >= e.maxTurns {
			e.log.Warn("session %s stopped at turn guard (%d); continue to pick it up", sessionID, e.maxTurns)
			return e.result(sessionID, StatusMaxTurns, st), nil
		}

		// Execute against a clone so a failed stage never half-mutates
		// the persisted state.
		work := st.Clone()
		work.Turn++

		start := time.Now()
		var runErr error
		if node.Run != nil {
			runErr = node.Run(ctx, work)
		}
		elapsed := time.Since(start)

		if runErr != nil {
			e.appendJournal(ctx, sessionID, work, node.ID, "failed", "", elapsed, runErr)
			e.log.Error("session %s stage %s failed: %v", sessionID, node.ID, runErr)
			return nil, fmt.Errorf("stage %s: %w", node.ID, runErr)
		}
		st = work

		if node.Interrupt {
			if err := e.persist(ctx, sessionID, st); err != nil {
				return nil, err
			}
			e.appendJournal(ctx, sessionID, st, node.ID, "suspended", "", elapsed, nil)
			e.log.Info("session %s suspended at stage %s; awaiting feedback", sessionID, node.ID)
			return e.result(sessionID, StatusSuspended, st), nil
		}

		next, decision, err := e.graph.Successor(node, st)
		if err != nil {
			return nil, err
		}
		e.appendJournal(ctx, sessionID, st, node.ID, "completed", decision, elapsed, nil)
		e.log.Debug("session %s turn %d: %s -> %s (%s)", sessionID, st.Turn, node.ID, next, decision)

		st.Current = next
		if err := e.persist(ctx, sessionID, st); err != nil {
			return nil, err
		}
	}
}

func (e *Engine) persist(ctx context.Context, sessionID string, st *workflow.State) error {
	if err := e.checkpoints.Save(ctx, workflow.NewCheckpoint(sessionID, st)); err != nil {
		return fmt.Errorf("persist checkpoint for session %s: %w", sessionID, err)
	}
	return nil
}

func (e *Engine) appendJournal(ctx context.Context, sessionID string, st *workflow.State, id stage.Stage, status, decision string, elapsed time.Duration, runErr error) {
	if e.journal == nil {
		return
	}
	rec := &repository.JournalRecord{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: sessionID,
		Turn:      st.Turn,
		Stage:     id.String(),
		Status:    status,
		Decision:  decision,
		ElapsedMs: elapsed.Milliseconds(),
		Artifacts: recordedArtifacts(id, st),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := e.journal.Append(ctx, rec); err != nil {
		// The journal is an audit trail, not the source of truth.
		e.log.Warn("journal append failed: %v", err)
	}
}

func (e *Engine) result(sessionID string, status Status, st *workflow.State) *RunResult {
	return &RunResult{
		SessionID: sessionID,
		Status:    status,
		Stage:     st.Current,
		Turn:      st.Turn,
	}
}
