package checkpoint

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftflow/craftflow/internal/artifact"
	"github.com/craftflow/craftflow/internal/domain/model/stage"
	"github.com/craftflow/craftflow/internal/domain/model/workflow"
	"github.com/craftflow/craftflow/internal/domain/repository"
)

func newRepo() *FileCheckpointRepository {
	return NewFileCheckpointRepository(afero.NewMemMapFs(), "/var/sessions")
}

func sampleCheckpoint(id string) *workflow.Checkpoint {
	st := workflow.NewState("reqs", "/tmp/p", stage.Story)
	st.SetDocument(workflow.DocStory, "a story")
	st.SetArtifacts(workflow.SlotCode, artifact.Map{"main.py": "print(1)"})
	st.Rejections[stage.GateCode] = 1
	st.Current = stage.CodeReview
	st.Turn = 7
	return workflow.NewCheckpoint(id, st)
}

func TestFileCheckpointRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	id := "01JB6X8Y2K9FQR4T3VWHGP5M2C"

	require.NoError(t, repo.Save(ctx, sampleCheckpoint(id)))

	got, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.SessionID)
	assert.Equal(t, stage.CodeReview, got.State.Current)
	assert.Equal(t, 7, got.State.Turn)
	assert.Equal(t, "a story", got.State.Story())
	assert.Equal(t, "print(1)", got.State.Artifacts[workflow.SlotCode]["main.py"])
	assert.Equal(t, 1, got.State.Rejections[stage.GateCode])
}

func TestFileCheckpointRepository_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	id := "01JB6X8Y2K9FQR4T3VWHGP5M2C"

	require.NoError(t, repo.Save(ctx, sampleCheckpoint(id)))

	cp := sampleCheckpoint(id)
	cp.State.Current = stage.Deployment
	require.NoError(t, repo.Save(ctx, cp))

	got, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, stage.Deployment, got.State.Current)
}

func TestFileCheckpointRepository_LoadMissing(t *testing.T) {
	_, err := newRepo().Load(context.Background(), "01JB6X8Y2K9FQR4T3VWHGP5M2C")
	assert.ErrorIs(t, err, repository.ErrCheckpointNotFound)
}

func TestFileCheckpointRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	id := "01JB6X8Y2K9FQR4T3VWHGP5M2C"

	require.NoError(t, repo.Save(ctx, sampleCheckpoint(id)))
	require.NoError(t, repo.Delete(ctx, id))

	_, err := repo.Load(ctx, id)
	assert.ErrorIs(t, err, repository.ErrCheckpointNotFound)
}

func TestFileCheckpointRepository_ListSorted(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()

	for _, id := range []string{
		"01JB6X8Y2K9FQR4T3VWHGP5M2C",
		"01JB6X8Y2K9FQR4T3VWHGP5M2A",
		"01JB6X8Y2K9FQR4T3VWHGP5M2B",
	} {
		require.NoError(t, repo.Save(ctx, sampleCheckpoint(id)))
	}

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"01JB6X8Y2K9FQR4T3VWHGP5M2A",
		"01JB6X8Y2K9FQR4T3VWHGP5M2B",
		"01JB6X8Y2K9FQR4T3VWHGP5M2C",
	}, ids)
}

func TestFileCheckpointRepository_ListEmpty(t *testing.T) {
	ids, err := newRepo().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
