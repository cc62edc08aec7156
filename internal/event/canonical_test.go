package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	e := New("e1", time.Unix(1700000000, 0).UTC(), map[string]any{
		"zeta":  1,
		"alpha": 2,
		"mid":   map[string]any{"b": 1, "a": 2},
	})

	b, err := MarshalCanonical(e)
	require.NoError(t, err)

	assert.Equal(t,
		`{"id":"e1","timestamp":"2023-11-14T22:13:20Z","fields":{"alpha":2,"mid":{"a":2,"b":1},"zeta":1}}`,
		string(b))
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	e := New("e1", time.Unix(1700000000, 0).UTC(), map[string]any{
		"a": []any{1, "two", true, nil},
		"b": 2.5,
	})

	first, err := MarshalCanonical(e)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(e)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	e := New("e1", time.Unix(1700000000, 0).UTC(), map[string]any{
		"q": "a < b && c > d",
	})

	b, err := MarshalCanonical(e)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"a < b && c > d"`)
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "é" as combining sequence (e + U+0301) normalizes to precomposed U+00E9.
	decomposed := New("e1", time.Unix(1700000000, 0).UTC(), map[string]any{"name": "café"})
	precomposed := New("e1", time.Unix(1700000000, 0).UTC(), map[string]any{"name": "café"})

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(precomposed)
	require.NoError(t, err)

	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonical_IntegralFloats(t *testing.T) {
	e := New("e1", time.Unix(1700000000, 0).UTC(), map[string]any{"n": float64(5)})

	b, err := MarshalCanonical(e)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"n":5`, "integral floats serialize without exponent or fraction")
}

func TestMarshalCanonical_Tags(t *testing.T) {
	e := New("e1", time.Unix(1700000000, 0).UTC(), nil)
	e.Tag("paced")

	b, err := MarshalCanonical(e)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"tags":["paced"]`)
}

func TestMarshalCanonical_RoundTripsThroughUnmarshalLine(t *testing.T) {
	e := New("e1", time.Unix(1700000000, 0).UTC(), map[string]any{
		"message": "hello",
		"n":       3.0,
	})

	b, err := MarshalCanonical(e)
	require.NoError(t, err)

	decoded, err := UnmarshalLine(b)
	require.NoError(t, err)

	again, err := MarshalCanonical(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(again))
}
