package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStream has fixed IDs and past timestamps so record+replay output is
// byte-for-byte reproducible.
const testStream = `{"id":"e1","timestamp":"2023-11-14T22:13:20Z","fields":{"message":"first","seq":1}}
{"id":"e2","timestamp":"2023-11-14T22:13:21Z","fields":{"message":"second","seq":2}}
{"id":"e3","timestamp":"2023-11-14T22:13:22Z","fields":{"message":"third","seq":3}}
`

func recordTestStream(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	input := filepath.Join(dir, "events.ndjson")
	require.NoError(t, os.WriteFile(input, []byte(testStream), 0o644))

	db := filepath.Join(dir, "events.db")
	cmd := NewRecordCommand(&RootOptions{Format: "text"})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{input, "--db", db})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "recorded 3 events")
	return db
}

func TestRecord_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "events.ndjson")
	require.NoError(t, os.WriteFile(input, []byte(testStream), 0o644))
	db := filepath.Join(dir, "events.db")

	for i := 0; i < 2; i++ {
		cmd := NewRecordCommand(&RootOptions{Format: "text"})
		buf := &bytes.Buffer{}
		cmd.SetOut(buf)
		cmd.SetArgs([]string{input, "--db", db})
		require.NoError(t, cmd.Execute())
		assert.Contains(t, buf.String(), "3 total in store", "run %d", i)
	}
}

func TestReplay_GoldenOutput(t *testing.T) {
	db := recordTestStream(t)
	output := filepath.Join(t.TempDir(), "replayed.ndjson")

	// Speed 0 replays as fast as possible: timestamps are in the past so
	// no cooldown is owed and the timeline sleep is skipped entirely.
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetArgs([]string{"--db", db, "--speed", "0", "--output", output})
	require.NoError(t, cmd.Execute())

	replayed, err := os.ReadFile(output)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "replay_output", replayed)
}

func TestReplay_EmptyStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetArgs([]string{"--db", db})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRecord_MissingInput(t *testing.T) {
	cmd := NewRecordCommand(&RootOptions{Format: "text"})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.ndjson"), "--db", filepath.Join(t.TempDir(), "x.db")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
