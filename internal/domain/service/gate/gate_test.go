package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftflow/craftflow/internal/domain/model/stage"
	"github.com/craftflow/craftflow/internal/domain/model/workflow"
)

func newGate() Gate {
	return Gate{
		Name:  stage.GateCode,
		Pass:  stage.SecurityReview,
		Retry: stage.CodeFix,
	}
}

func newState() *workflow.State {
	return workflow.NewState("reqs", "/tmp/project", stage.Story)
}

func TestEvaluate_Approval(t *testing.T) {
	c := NewController("")
	st := newState()

	res := c.Evaluate(newGate(), "Looks good. APPROVED", st)

	assert.Equal(t, DecisionApproved, res.Decision)
	assert.Equal(t, stage.SecurityReview, res.Next)
	assert.Equal(t, 0, st.Rejections[stage.GateCode])
}

func TestEvaluate_RejectionRoutesToRetry(t *testing.T) {
	c := NewController("")
	st := newState()

	res := c.Evaluate(newGate(), "fix the error handling", st)

	assert.Equal(t, DecisionRejected, res.Decision)
	assert.Equal(t, stage.CodeFix, res.Next)
	assert.Equal(t, 1, st.Rejections[stage.GateCode])
	assert.Equal(t, "fix the error handling", st.Feedback[stage.GateCode])
}

func TestEvaluate_EmptyOutcomeIsRejection(t *testing.T) {
	c := NewController("")
	st := newState()

	res := c.Evaluate(newGate(), "", st)

	assert.Equal(t, DecisionRejected, res.Decision)
	assert.Equal(t, stage.CodeFix, res.Next)
}

func TestEvaluate_ApprovalTokenIsCaseSensitive(t *testing.T) {
	c := NewController("")
	st := newState()

	res := c.Evaluate(newGate(), "approved", st)

	assert.Equal(t, DecisionRejected, res.Decision)
}

func TestEvaluate_ForceAdvanceAfterThreshold(t *testing.T) {
	c := NewController("")
	st := newState()
	g := newGate()

	// Two consecutive rejections stay within the threshold.
	res := c.Evaluate(g, "no", st)
	assert.Equal(t, DecisionRejected, res.Decision)
	res = c.Evaluate(g, "still no", st)
	assert.Equal(t, DecisionRejected, res.Decision)
	assert.Equal(t, 2, st.Rejections[g.Name])

	// The third evaluation exceeds it and force-advances.
	res = c.Evaluate(g, "absolutely not", st)
	assert.Equal(t, DecisionForced, res.Decision)
	assert.Equal(t, stage.SecurityReview, res.Next)
	assert.Equal(t, 0, st.Rejections[g.Name], "counter resets on forced advance")
	assert.True(t, st.ForcedGates[g.Name], "forced advance is marked on the state")
	assert.Equal(t, "absolutely not", st.Feedback[g.Name], "feedback is recorded even when forced")
}

func TestEvaluate_ApprovalResetsCounterAndForcedMark(t *testing.T) {
	c := NewController("")
	st := newState()
	g := newGate()

	c.Evaluate(g, "no", st)
	require.Equal(t, 1, st.Rejections[g.Name])
	st.ForcedGates[g.Name] = true

	res := c.Evaluate(g, "APPROVED", st)

	assert.Equal(t, DecisionApproved, res.Decision)
	assert.Equal(t, 0, st.Rejections[g.Name])
	assert.False(t, st.ForcedGates[g.Name])
}

func TestEvaluate_CustomThresholdAndToken(t *testing.T) {
	c := NewController("LGTM")
	st := newState()
	g := newGate()
	g.Threshold = 1

	res := c.Evaluate(g, "APPROVED", st)
	assert.Equal(t, DecisionRejected, res.Decision, "default token is not honored with a custom token")

	res = c.Evaluate(g, "nope", st)
	assert.Equal(t, DecisionForced, res.Decision, "threshold 1 forces on the second evaluation")

	res = c.Evaluate(g, "LGTM", st)
	assert.Equal(t, DecisionApproved, res.Decision)
}

func TestEvaluate_GatesAreIndependent(t *testing.T) {
	c := NewController("")
	st := newState()
	codeGate := newGate()
	designGate := Gate{Name: stage.GateDesign, Pass: stage.GenerateCode, Retry: stage.Design}

	c.Evaluate(codeGate, "no", st)
	c.Evaluate(codeGate, "no", st)
	c.Evaluate(designGate, "no", st)

	assert.Equal(t, 2, st.Rejections[codeGate.Name])
	assert.Equal(t, 1, st.Rejections[designGate.Name])
}

// Every evaluation terminates in a bounded number of steps: rejections
// alone cannot route to retry more than threshold times in a row.
func TestEvaluate_Liveness(t *testing.T) {
	c := NewController("")
	st := newState()
	g := newGate()

	forced := false
	for i := 0; i < DefaultThreshold+1; i++ {
		if c.Evaluate(g, "reject forever", st).Decision == DecisionForced {
			forced = true
			break
		}
	}
	assert.True(t, forced, "gate must force-advance within threshold+1 evaluations")
}
