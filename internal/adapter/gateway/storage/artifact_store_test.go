package storage

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_CreatesNestedDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewAferoArtifactStore(fs)

	require.NoError(t, store.Write("/proj", "src/pkg/app.py", "print(1)"))

	data, err := afero.ReadFile(fs, "/proj/src/pkg/app.py")
	require.NoError(t, err)
	assert.Equal(t, "print(1)", string(data))
}

func TestWrite_UpsertReplacesContent(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewAferoArtifactStore(fs)

	require.NoError(t, store.Write("/proj", "a.py", "old"))
	require.NoError(t, store.Write("/proj", "a.py", "new"))

	data, err := afero.ReadFile(fs, "/proj/a.py")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestWrite_NormalizesTraversal(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewAferoArtifactStore(fs)

	require.NoError(t, store.Write("/proj", "src/../app.py", "safe"))

	ok, err := store.Exists("/proj", "src/app.py")
	require.NoError(t, err)
	assert.True(t, ok, "parent references are stripped, not resolved")
}

func TestWrite_RejectsInvalidPath(t *testing.T) {
	store := NewAferoArtifactStore(afero.NewMemMapFs())

	assert.Error(t, store.Write("/proj", "bad:path.py", "x"))
	assert.Error(t, store.Write("/proj", "src/", "x"))
}

func TestExists_MissingFile(t *testing.T) {
	store := NewAferoArtifactStore(afero.NewMemMapFs())
	ok, err := store.Exists("/proj", "nope.py")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWrite_ExtensionlessAllowed(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewAferoArtifactStore(fs)

	require.NoError(t, store.Write("/proj", "Dockerfile", "FROM scratch"))
	ok, err := store.Exists("/proj", "Dockerfile")
	require.NoError(t, err)
	assert.True(t, ok)
}
