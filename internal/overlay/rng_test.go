package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextSeedIsDeterministicGivenSameParentState(t *testing.T) {
	parentA := NewRootRNG(99)
	parentB := NewRootRNG(99)

	childA := NextSeed(parentA)
	childB := NextSeed(parentB)

	assert.Equal(t, childA.Uint64(), childB.Uint64())
}

func TestNextSeedProducesIndependentStreams(t *testing.T) {
	parent := NewRootRNG(99)
	first := NextSeed(parent)
	second := NextSeed(parent)

	// Two children split from the same parent in sequence must not be
	// trivially identical generators.
	assert.NotEqual(t, first.Uint64(), second.Uint64())
}

func TestNextSeedConsumesExactlyOneDraw(t *testing.T) {
	withSplit := NewRootRNG(7)
	_ = NextSeed(withSplit)
	afterSplit := withSplit.Uint64()

	plain := NewRootRNG(7)
	_ = plain.Uint64()
	afterPlainDraw := plain.Uint64()

	assert.Equal(t, afterPlainDraw, afterSplit)
}
