package overlay

import "math/rand"

// NewRootRNG creates the single root generator a simulation run is seeded
// from. Every other generator in the run is derived from it via NextSeed,
// never constructed from an independent seed of its own.
func NewRootRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NextSeed draws a 64-bit value from parent and uses it to seed a brand new,
// independent generator. This is how every subsystem (a node, the broker,
// the peer-list manager) gets its own deterministic stream without any of
// them sharing state with one another at runtime.
func NextSeed(parent *rand.Rand) *rand.Rand {
	seed := int64(parent.Uint64())
	return rand.New(rand.NewSource(seed))
}
