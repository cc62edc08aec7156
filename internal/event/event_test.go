package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_ClockSeconds(t *testing.T) {
	ts := time.Unix(1700000000, 250000000).UTC()
	e := New("e1", ts, nil)

	assert.InDelta(t, 1700000000.25, e.ClockSeconds(), 1e-6)
}

func TestEvent_Format_SubstitutesFields(t *testing.T) {
	e := New("e1", time.Now(), map[string]any{
		"wait":   2.5,
		"host":   "db-1",
		"factor": 3,
	})

	assert.Equal(t, "2.5", e.Format("%{wait}"))
	assert.Equal(t, "sleeping 2.5s on db-1", e.Format("sleeping %{wait}s on %{host}"))
	assert.Equal(t, "3", e.Format("%{factor}"))
}

func TestEvent_Format_MissingFieldsAreEmpty(t *testing.T) {
	e := New("e1", time.Now(), map[string]any{"present": 1})

	assert.Equal(t, "", e.Format("%{absent}"))
	assert.Equal(t, "1-", e.Format("%{present}-%{absent}"))
}

func TestEvent_Format_NoPlaceholders(t *testing.T) {
	e := New("e1", time.Now(), nil)
	assert.Equal(t, "plain text", e.Format("plain text"))
}

func TestEvent_Tag(t *testing.T) {
	e := New("e1", time.Now(), nil)

	assert.False(t, e.HasTag("paced"))
	e.Tag("paced")
	assert.True(t, e.HasTag("paced"))

	// Tagging twice keeps a single entry.
	e.Tag("paced")
	assert.Equal(t, []string{"paced"}, e.Tags)
}

func TestUnmarshalLine(t *testing.T) {
	line := []byte(`{"id":"e1","timestamp":"2023-11-14T22:13:20Z","fields":{"message":"hi","n":2}}`)

	e, err := UnmarshalLine(line)
	require.NoError(t, err)

	assert.Equal(t, "e1", e.ID)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), e.Timestamp.UTC())
	assert.Equal(t, "hi", e.Fields["message"])
	assert.Equal(t, 2.0, e.Fields["n"], "JSON numbers decode as float64")
}

func TestUnmarshalLine_Invalid(t *testing.T) {
	_, err := UnmarshalLine([]byte(`{"id":`))
	require.Error(t, err)
}

func TestUnmarshalLine_MissingFieldsMap(t *testing.T) {
	e, err := UnmarshalLine([]byte(`{"id":"e1","timestamp":"2023-11-14T22:13:20Z"}`))
	require.NoError(t, err)
	require.NotNil(t, e.Fields, "fields map must always be usable")
}
