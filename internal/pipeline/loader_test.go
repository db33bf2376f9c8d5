package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftflow/craftflow/internal/domain/model/stage"
)

func writePipeline(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "pipeline.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", cfg.ApprovalToken)
	assert.False(t, cfg.Continuous)
	assert.Equal(t, 2, cfg.Threshold(stage.GateCode, 2))
}

func TestLoad_FullConfig(t *testing.T) {
	path := writePipeline(t, `
name: custom
approval_token: LGTM
continuous: true
gates:
  code:
    threshold: 3
  qa:
    threshold: 1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Name)
	assert.Equal(t, "LGTM", cfg.ApprovalToken)
	assert.True(t, cfg.Continuous)
	assert.Equal(t, 3, cfg.Threshold(stage.GateCode, 2))
	assert.Equal(t, 1, cfg.Threshold(stage.GateQA, 2))
	assert.Equal(t, 2, cfg.Threshold(stage.GateDesign, 2), "unconfigured gate falls back to default")
}

func TestLoad_UnknownFieldFails(t *testing.T) {
	path := writePipeline(t, "name: x\nthresholds: {}\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_UnknownGateFails(t *testing.T) {
	path := writePipeline(t, `
name: x
gates:
  compliance:
    threshold: 2
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown gate")
}

func TestLoad_ZeroThresholdFails(t *testing.T) {
	path := writePipeline(t, `
name: x
gates:
  code:
    threshold: 0
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptyApprovalTokenFails(t *testing.T) {
	path := writePipeline(t, "name: x\napproval_token: \"\"\n")
	_, err := Load(path)
	assert.Error(t, err)
}
