package overlay

import (
	"fmt"
	"math/rand"
)

// NodeConfig is the fully-resolved configuration a Node is built from.
type NodeConfig struct {
	Identity  PeerID
	Address   string
	Bootnodes []NodeAddress
	PLMConfig PLMConfig
}

// NodeConfigBuilder assembles a NodeConfig, requiring identity and address
// before Build succeeds — mirroring this codebase's constructor-returns-
// error convention rather than panicking on a missing required field.
type NodeConfigBuilder struct {
	identity  *PeerID
	address   string
	bootnodes []NodeAddress
	plmConfig PLMConfig
}

// NewNodeConfigBuilder starts a builder with the default PLM configuration.
func NewNodeConfigBuilder() *NodeConfigBuilder {
	return &NodeConfigBuilder{plmConfig: DefaultPLMConfig()}
}

// WithIdentity sets a fixed identity.
func (b *NodeConfigBuilder) WithIdentity(id PeerID) *NodeConfigBuilder {
	b.identity = &id
	return b
}

// WithUniqueIdentity draws a fresh identity from rng.
func (b *NodeConfigBuilder) WithUniqueIdentity(rng *rand.Rand) *NodeConfigBuilder {
	id := NewPeerID(rng)
	b.identity = &id
	return b
}

// WithAddress sets the node's own physical address.
func (b *NodeConfigBuilder) WithAddress(address string) *NodeConfigBuilder {
	b.address = address
	return b
}

// WithBootnode appends a bootnode to dial at construction time.
func (b *NodeConfigBuilder) WithBootnode(addr NodeAddress) *NodeConfigBuilder {
	b.bootnodes = append(b.bootnodes, addr)
	return b
}

// WithPLMConfig overrides the peer-list manager tuning.
func (b *NodeConfigBuilder) WithPLMConfig(cfg PLMConfig) *NodeConfigBuilder {
	b.plmConfig = cfg
	return b
}

// Build validates required fields, including that the address parses as a
// well-formed simulated address, and returns the resolved config.
func (b *NodeConfigBuilder) Build() (NodeConfig, error) {
	if b.identity == nil {
		return NodeConfig{}, fmt.Errorf("%w: identity is required", ErrConfiguration)
	}
	if b.address == "" {
		return NodeConfig{}, fmt.Errorf("%w: address is required", ErrConfiguration)
	}
	if _, err := ParseMemoryAddress(b.address); err != nil {
		return NodeConfig{}, fmt.Errorf("%w: invalid address %q: %v", ErrConfiguration, b.address, err)
	}
	return NodeConfig{
		Identity:  *b.identity,
		Address:   b.address,
		Bootnodes: b.bootnodes,
		PLMConfig: b.plmConfig,
	}, nil
}
