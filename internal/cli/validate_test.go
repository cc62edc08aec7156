package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const validConfig = `
pipeline:
  name: slow-lane
source:
  type: stdin
sink:
  type: stdout
filters:
  - use: pace
    settings:
      time: 5
      every: 10
`

func TestValidate_ValidConfig(t *testing.T) {
	path := writeTempConfig(t, validConfig)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "config is valid")
}

func TestValidate_ValidConfigJSON(t *testing.T) {
	path := writeTempConfig(t, validConfig)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidate_SchemaViolation(t *testing.T) {
	path := writeTempConfig(t, `
pipeline:
  name: p
source:
  type: carrier-pigeon
  path: x
sink:
  type: stdout
filters: []
`)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "error:")
}

func TestValidate_BadFilterSettings(t *testing.T) {
	// Shape is fine but the pace filter requires `time` outside replay mode.
	path := writeTempConfig(t, `
pipeline:
  name: p
source:
  type: stdin
sink:
  type: stdout
filters:
  - use: pace
    settings:
      every: 3
`)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "MISSING_TIME")
}

func TestValidate_MissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "CONFIG_NOT_FOUND")
}
