package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_Unique(t *testing.T) {
	g := UUIDv7Generator{}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.Generate()
		assert.False(t, seen[id], "id %s generated twice", id)
		seen[id] = true
	}
}

func TestUUIDv7Generator_Parses(t *testing.T) {
	g := UUIDv7Generator{}

	id, err := uuid.Parse(g.Generate())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestFixedGenerator_ReturnsInOrder(t *testing.T) {
	g := NewFixedGenerator("a", "b", "c")

	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Equal(t, "c", g.Generate())
}

func TestFixedGenerator_PanicsWhenExhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	g.Generate()

	assert.Panics(t, func() { g.Generate() })
}
