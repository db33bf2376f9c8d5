package gate

import (
	"strings"

	"github.com/craftflow/craftflow/internal/domain/model/stage"
	"github.com/craftflow/craftflow/internal/domain/model/workflow"
)

// DefaultThreshold is the number of consecutive rejections a gate
// tolerates before it advances regardless of the reviewer's verdict.
const DefaultThreshold = 2

// DefaultApprovalToken is matched as an exact, case-sensitive substring
// of the reviewer outcome.
const DefaultApprovalToken = "APPROVED"

// Gate pairs a producer stage with a reviewer stage and declares where
// the workflow goes on approval and on rejection.
type Gate struct {
	Name      string
	Pass      stage.Stage // successor on approval or forced advance
	Retry     stage.Stage // successor on rejection, typically a regeneration stage
	Threshold int         // consecutive rejections tolerated; <=0 means DefaultThreshold
}

// Decision classifies the outcome of one gate evaluation.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
	DecisionForced   Decision = "FORCED"
)

// Result is the routing outcome of a single gate evaluation.
type Result struct {
	Next     stage.Stage
	Decision Decision
}

// Controller evaluates reviewer outcomes against gates.
type Controller struct {
	approvalToken string
}

// NewController creates a gate controller. An empty token falls back to
// DefaultApprovalToken.
func NewController(approvalToken string) *Controller {
	if approvalToken == "" {
		approvalToken = DefaultApprovalToken
	}
	return &Controller{approvalToken: approvalToken}
}

// ApprovalToken returns the token reviewers must emit to approve.
func (c *Controller) ApprovalToken() string {
	return c.approvalToken
}

// Evaluate applies one reviewer outcome to a gate and mutates st
// accordingly.
//
// The rejection counter increments by exactly one per evaluation. Once
// it exceeds the gate's threshold the gate force-advances: the counter
// resets, the pass successor is taken, and the state marks the gate as
// force-advanced so the artifact can be surfaced as unreviewed.
// Otherwise an outcome containing the approval token routes to the pass
// successor and resets the counter; anything else, including an empty
// outcome, routes to the retry successor. Absence of a signal is never
// consent.
//
// The feedback slot is always set to the raw outcome, even on forced
// advance, so downstream consumers can audit why advancement occurred.
func (c *Controller) Evaluate(g Gate, outcome string, st *workflow.State) Result {
	threshold := g.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	st.Feedback[g.Name] = outcome
	st.Rejections[g.Name]++

	if st.Rejections[g.Name] > threshold {
		st.Rejections[g.Name] = 0
		st.ForcedGates[g.Name] = true
		return Result{Next: g.Pass, Decision: DecisionForced}
	}

	if outcome != "" && strings.Contains(outcome, c.approvalToken) {
		st.Rejections[g.Name] = 0
		delete(st.ForcedGates, g.Name)
		return Result{Next: g.Pass, Decision: DecisionApproved}
	}

	return Result{Next: g.Retry, Decision: DecisionRejected}
}
