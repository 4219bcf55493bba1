package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeerIDStringIsStableBase58(t *testing.T) {
	rng := NewRootRNG(1)
	id := NewPeerID(rng)

	s1 := id.String()
	s2 := id.String()
	assert.Equal(t, s1, s2)
	assert.NotEmpty(t, s1)
}

func TestPeerIDDeterministicFromSeed(t *testing.T) {
	a := NewPeerID(NewRootRNG(42))
	b := NewPeerID(NewRootRNG(42))
	assert.Equal(t, a, b)
}

func TestMemoryAddressRoundTrip(t *testing.T) {
	addr := MemoryAddress(7)
	assert.Equal(t, "/memory/7", addr)

	n, err := ParseMemoryAddress(addr)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestParseMemoryAddressRejectsGarbage(t *testing.T) {
	_, err := ParseMemoryAddress("/tcp/127.0.0.1:80")
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = ParseMemoryAddress("/memory/not-a-number")
	assert.ErrorIs(t, err, ErrConfiguration)
}
