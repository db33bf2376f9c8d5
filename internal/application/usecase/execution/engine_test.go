package execution

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftflow/craftflow/internal/adapter/gateway/agent"
	"github.com/craftflow/craftflow/internal/adapter/gateway/storage"
	"github.com/craftflow/craftflow/internal/domain/model/session"
	"github.com/craftflow/craftflow/internal/domain/model/stage"
	"github.com/craftflow/craftflow/internal/domain/model/workflow"
	"github.com/craftflow/craftflow/internal/domain/repository"
	checkpointrepo "github.com/craftflow/craftflow/internal/infra/repository/checkpoint"
	journalrepo "github.com/craftflow/craftflow/internal/infra/repository/journal"
	"github.com/craftflow/craftflow/internal/pipeline"
)

type testEnv struct {
	agent       *agent.MockGateway
	fs          afero.Fs
	checkpoints *checkpointrepo.FileCheckpointRepository
	journal     repository.JournalRepository
	pipe        *pipeline.Config
}

func newTestEnv() *testEnv {
	fs := afero.NewMemMapFs()
	return &testEnv{
		agent:       agent.NewMockGateway(),
		fs:          fs,
		checkpoints: checkpointrepo.NewFileCheckpointRepository(fs, "/var/sessions"),
		pipe:        pipeline.DefaultConfig(),
	}
}

func newTestGraph(t *testing.T, env *testEnv) *Graph {
	t.Helper()
	g, err := BuildGraph(Options{
		Agent:    env.agent,
		Store:    storage.NewAferoArtifactStore(env.fs),
		Pipeline: env.pipe,
		Timeout:  time.Second,
	})
	require.NoError(t, err)
	return g
}

func newTestEngine(t *testing.T, env *testEnv, maxTurns int) *Engine {
	t.Helper()
	return NewEngine(newTestGraph(t, env), env.checkpoints, env.journal, maxTurns, nil)
}

func stagesCalled(env *testEnv, id stage.Stage) int {
	n := 0
	for _, call := range env.agent.Calls() {
		if call.Stage == id.String() {
			n++
		}
	}
	return n
}

func TestEngine_StartSuspendsForFeedback(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	eng := newTestEngine(t, env, 0)
	env.agent.Queue(stage.Story.String(), "the story draft")

	sess := session.New("/proj")
	res, err := eng.Start(ctx, sess, "Build a todo app")
	require.NoError(t, err)

	assert.Equal(t, StatusSuspended, res.Status)
	assert.Equal(t, stage.HumanFeedback, res.Stage)

	cp, err := env.checkpoints.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, stage.HumanFeedback, cp.State.Current)
	assert.Equal(t, "the story draft", cp.State.Story())
	assert.Equal(t, "Build a todo app", cp.State.Requirements)
}

func TestEngine_ResumeWithFeedbackRevisesStory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	eng := newTestEngine(t, env, 0)
	env.agent.Queue(stage.Story.String(), "draft one")
	env.agent.Queue(stage.Story.String(), "draft two")

	sess := session.New("/proj")
	_, err := eng.Start(ctx, sess, "Build a todo app")
	require.NoError(t, err)

	res, err := eng.Resume(ctx, sess.ID, "make it funnier")
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, res.Status, "a revised story suspends for review again")

	cp, err := env.checkpoints.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft two", cp.State.Story())
	_, pending := cp.State.Feedback[stage.GateProduct]
	assert.False(t, pending, "human feedback is consumed by the revision")

	// The revision prompt carried the human feedback.
	var prompts []string
	for _, call := range env.agent.Calls() {
		if call.Stage == stage.Story.String() {
			prompts = append(prompts, call.Prompt)
		}
	}
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[1], "make it funnier")
}

func TestEngine_ApproveRunsToCompletion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	eng := newTestEngine(t, env, 0)
	env.agent.Queue(stage.Story.String(), "the story")
	env.agent.Queue(stage.GenerateCode.String(), "```app.py\nprint('hi')\n```")
	env.agent.Queue(stage.WriteTests.String(), "```test_app.py\nassert True\n```")

	sess := session.New("/proj")
	_, err := eng.Start(ctx, sess, "Build a todo app")
	require.NoError(t, err)

	res, err := eng.Resume(ctx, sess.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, stage.Done, res.Stage)
	assert.Equal(t, 11, res.Turn)

	cp, err := env.checkpoints.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", cp.State.Code()["app.py"])
	assert.Equal(t, "assert True", cp.State.Artifacts[workflow.SlotTests]["test_app.py"])
	assert.Empty(t, cp.State.ForcedGates)

	for _, p := range []string{"/proj/app.py", "/proj/test_app.py"} {
		ok, err := afero.Exists(env.fs, p)
		require.NoError(t, err)
		assert.True(t, ok, "expected %s on disk", p)
	}
}

func TestEngine_CodeGateRetryThenApprove(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	eng := newTestEngine(t, env, 0)
	env.agent.Queue(stage.CodeReview.String(), "fix the bug in app.py")
	env.agent.Queue(stage.CodeFix.String(), "```app.py\nprint('fixed')\n```")

	sess := session.New("/proj")
	_, err := eng.Start(ctx, sess, "Build a todo app")
	require.NoError(t, err)

	res, err := eng.Resume(ctx, sess.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)

	assert.Equal(t, 1, stagesCalled(env, stage.CodeFix), "one rejection routes through the fix stage once")
	assert.Equal(t, 2, stagesCalled(env, stage.CodeReview))

	cp, err := env.checkpoints.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "print('fixed')", cp.State.Code()["app.py"], "fix output overlays the code artifact")
	assert.Equal(t, 0, cp.State.Rejections[stage.GateCode], "approval reset the counter")
}

func TestEngine_DesignGateForceAdvances(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	eng := newTestEngine(t, env, 0)
	for i := 0; i < 3; i++ {
		env.agent.Queue(stage.DesignReview.String(), "not acceptable")
	}

	sess := session.New("/proj")
	_, err := eng.Start(ctx, sess, "Build a todo app")
	require.NoError(t, err)

	res, err := eng.Resume(ctx, sess.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status, "force-advance keeps the pipeline live")

	assert.Equal(t, 3, stagesCalled(env, stage.Design), "two rejections re-run design, the third forces")

	cp, err := env.checkpoints.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, cp.State.ForcedGates[stage.GateDesign], "forced gate is marked unreviewed")
	assert.Equal(t, 0, cp.State.Rejections[stage.GateDesign])
}

func TestEngine_ContinuousStopsAtTurnGuard(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.pipe.Continuous = true
	eng := newTestEngine(t, env, 25)

	sess := session.New("/proj")
	_, err := eng.Start(ctx, sess, "Build a todo app")
	require.NoError(t, err)

	res, err := eng.Resume(ctx, sess.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusMaxTurns, res.Status)
	assert.NotEqual(t, stage.Done, res.Stage)
	assert.Greater(t, stagesCalled(env, stage.Deployment), 1, "continuous mode re-enters the loop after deployment")
}

func TestEngine_ResumeCompletedSessionFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	eng := newTestEngine(t, env, 0)

	sess := session.New("/proj")
	_, err := eng.Start(ctx, sess, "Build a todo app")
	require.NoError(t, err)
	_, err = eng.Resume(ctx, sess.ID, "")
	require.NoError(t, err)

	_, err = eng.Resume(ctx, sess.ID, "more feedback")
	assert.ErrorIs(t, err, ErrNotSuspended)
}

func TestEngine_ContinueOnSuspendedSessionFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	eng := newTestEngine(t, env, 0)

	sess := session.New("/proj")
	_, err := eng.Start(ctx, sess, "Build a todo app")
	require.NoError(t, err)

	_, err = eng.Continue(ctx, sess.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "awaiting feedback")
}

func TestEngine_ResumeUnknownSession(t *testing.T) {
	env := newTestEnv()
	eng := newTestEngine(t, env, 0)

	_, err := eng.Resume(context.Background(), "01JB6X8Y2K9FQR4T3VWHGP5M2C", "")
	assert.ErrorIs(t, err, repository.ErrCheckpointNotFound)
}

func TestEngine_StageFailureKeepsLastCheckpoint(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	eng := newTestEngine(t, env, 0)

	// No project directory: code generation must fail without
	// corrupting the checkpoint.
	sess := session.New("")
	_, err := eng.Start(ctx, sess, "Build a todo app")
	require.NoError(t, err)

	_, err = eng.Resume(ctx, sess.ID, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project directory")

	cp, err := env.checkpoints.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, stage.GenerateCode, cp.State.Current, "session can continue at the failed stage")
}

func TestEngine_JournalsStageExecutions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.journal = journalrepo.NewJournalRepositoryImpl(filepath.Join(t.TempDir(), "journal.ndjson"))
	eng := newTestEngine(t, env, 0)

	sess := session.New("/proj")
	_, err := eng.Start(ctx, sess, "Build a todo app")
	require.NoError(t, err)
	_, err = eng.Resume(ctx, sess.ID, "")
	require.NoError(t, err)

	recs, err := env.journal.FindBySession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	assert.Equal(t, stage.Story.String(), recs[0].Stage)

	var statuses, decisions []string
	for _, r := range recs {
		statuses = append(statuses, r.Status)
		decisions = append(decisions, r.Decision)
	}
	assert.Contains(t, statuses, "suspended")
	assert.Contains(t, statuses, "resumed")
	assert.Contains(t, statuses, "completed")
	assert.Contains(t, strings.Join(decisions, " "), "APPROVED")
}
