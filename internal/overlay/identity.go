package overlay

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// PeerID is an opaque 32-byte identifier. It carries no real key material;
// cryptographic peer authentication is out of scope for this simulator.
type PeerID [32]byte

// NewPeerID draws a fresh PeerID from rng. Two draws from independently
// seeded generators are, in practice, always distinct.
func NewPeerID(rng *rand.Rand) PeerID {
	var id PeerID
	for i := 0; i < len(id); i += 8 {
		v := rng.Uint64()
		for j := 0; j < 8 && i+j < len(id); j++ {
			id[i+j] = byte(v >> (8 * j))
		}
	}
	return id
}

// Bytes returns the raw 32 bytes of the identifier.
func (p PeerID) Bytes() []byte {
	return p[:]
}

// String renders the identifier as a Base58 string, the same rendering
// convention used for on-disk identifiers elsewhere in this codebase.
func (p PeerID) String() string {
	return base58.Encode(p[:])
}

// PeerReputation is an additive integer score. There is no floor or
// ceiling; PeerListManager.UpdatePeerReputation never clamps it.
type PeerReputation int32

// NodeAddress pairs a peer's identity with the physical address it can be
// dialed at on the simulated fabric, e.g. (id, "/memory/3").
type NodeAddress struct {
	ID      PeerID
	Address string
}

// MemoryAddress formats the conventional simulated address for node index n.
func MemoryAddress(n int) string {
	return "/memory/" + strconv.Itoa(n)
}

// ParseMemoryAddress extracts the node index from a "/memory/<n>" address.
// There is no multiaddr protocol registered for this scheme; it is a plain
// simulator-internal path, not a real network address.
func ParseMemoryAddress(addr string) (int, error) {
	const prefix = "/memory/"
	if !strings.HasPrefix(addr, prefix) {
		return 0, fmt.Errorf("%w: address %q is not a memory address", ErrConfiguration, addr)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(addr, prefix))
	if err != nil {
		return 0, fmt.Errorf("%w: address %q has a non-numeric index: %v", ErrConfiguration, addr, err)
	}
	return n, nil
}
