package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftflow/craftflow/internal/artifact"
	"github.com/craftflow/craftflow/internal/domain/model/stage"
)

func TestClone_Independence(t *testing.T) {
	st := NewState("reqs", "/tmp/p", stage.Story)
	st.SetDocument(DocStory, "v1")
	st.SetArtifacts(SlotCode, artifact.Map{"a.py": "1"})
	st.Rejections[stage.GateCode] = 1
	st.ForcedGates[stage.GateQA] = true

	c := st.Clone()
	c.SetDocument(DocStory, "v2")
	c.Artifacts[SlotCode]["a.py"] = "2"
	c.Rejections[stage.GateCode] = 9
	c.Turn = 42

	assert.Equal(t, "v1", st.Story())
	assert.Equal(t, "1", st.Artifacts[SlotCode]["a.py"])
	assert.Equal(t, 1, st.Rejections[stage.GateCode])
	assert.Equal(t, 0, st.Turn)
	assert.True(t, c.ForcedGates[stage.GateQA])
}

func TestCheckpoint_SnapshotsState(t *testing.T) {
	st := NewState("reqs", "/tmp/p", stage.Story)
	cp := NewCheckpoint("01JB6X8Y2K9FQR4T3VWHGP5M2C", st)

	// Mutations after the snapshot must not leak into the checkpoint.
	st.SetDocument(DocStory, "later")

	assert.Equal(t, "", cp.State.Story())
	assert.Equal(t, "01JB6X8Y2K9FQR4T3VWHGP5M2C", cp.SessionID)
	assert.False(t, cp.SavedAt.IsZero())
}

func TestState_JSONRoundTrip(t *testing.T) {
	st := NewState("build a todo app", "/tmp/p", stage.Story)
	st.SetDocument(DocDesign, "design doc")
	st.SetArtifacts(SlotTests, artifact.Map{"test_a.py": "assert True"})
	st.Feedback[stage.GateProduct] = "shorter please"
	st.Current = stage.HumanFeedback
	st.Turn = 3

	data, err := json.Marshal(st)
	require.NoError(t, err)

	var back State
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, st.Requirements, back.Requirements)
	assert.Equal(t, st.Design(), back.Design())
	assert.Equal(t, st.Artifacts[SlotTests], back.Artifacts[SlotTests])
	assert.Equal(t, stage.HumanFeedback, back.Current)
	assert.Equal(t, 3, back.Turn)
}
