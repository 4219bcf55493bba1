package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeConfigBuilderRequiresIdentity(t *testing.T) {
	_, err := NewNodeConfigBuilder().WithAddress(MemoryAddress(0)).Build()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNodeConfigBuilderRequiresAddress(t *testing.T) {
	_, err := NewNodeConfigBuilder().WithIdentity(PeerID{1}).Build()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNodeConfigBuilderRejectsMalformedAddress(t *testing.T) {
	_, err := NewNodeConfigBuilder().WithIdentity(PeerID{1}).WithAddress("/tcp/127.0.0.1:80").Build()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNodeConfigBuilderAcceptsWellFormedAddress(t *testing.T) {
	config, err := NewNodeConfigBuilder().WithIdentity(PeerID{1}).WithAddress(MemoryAddress(3)).Build()
	require.NoError(t, err)
	assert.Equal(t, "/memory/3", config.Address)
}
