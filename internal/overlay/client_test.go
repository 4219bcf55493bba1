package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendWithoutConnectionFails(t *testing.T) {
	broker := NewBroker(NewRootRNG(1), DefaultBrokerConfig(), nil)
	alice := NewClient(PeerID{1}, broker)

	err := alice.Send(PeerID{2}, ProtocolMessage{Kind: MsgPeerList})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestClientConnectTwiceFails(t *testing.T) {
	cfg := BrokerConfig{ConnectionDelayMin: time.Millisecond, ConnectionDelayMax: 2 * time.Millisecond, ConnectionFailProb: 0}
	broker := NewBroker(NewRootRNG(1), cfg, nil)
	alice := NewClient(PeerID{1}, broker)
	bob := NewClient(PeerID{2}, broker)
	_ = bob

	require.NoError(t, broker.Step(time.Unix(0, 0)))
	require.NoError(t, alice.Connect(PeerID{2}))
	require.NoError(t, broker.Step(time.Unix(0, 0).Add(10*time.Millisecond)))
	// now connected
	ev, ok := alice.Poll()
	require.True(t, ok)
	require.Equal(t, EventOutboundEstablished, ev.Kind)

	err := alice.Connect(PeerID{2})
	assert.ErrorIs(t, err, ErrAlreadyConnected)
}

func TestClientPollPrioritizesEventsOverMessages(t *testing.T) {
	cfg := BrokerConfig{ConnectionDelayMin: time.Millisecond, ConnectionDelayMax: 2 * time.Millisecond, ConnectionFailProb: 0}
	broker := NewBroker(NewRootRNG(3), cfg, nil)
	alice := NewClient(PeerID{1}, broker)
	bob := NewClient(PeerID{2}, broker)

	require.NoError(t, broker.Step(time.Unix(0, 0)))
	require.NoError(t, bob.Connect(PeerID{1}))
	require.NoError(t, broker.Step(time.Unix(0, 0).Add(10*time.Millisecond)))

	require.NoError(t, bob.Send(PeerID{1}, ProtocolMessage{Kind: MsgPeerList, Peers: []PeerID{{9}}}))

	// alice now has an InboundEstablished event AND a delivered message
	// pending. The established event must come out first.
	ev, ok := alice.Poll()
	require.True(t, ok)
	require.Equal(t, EventInboundEstablished, ev.Kind)

	ev, ok = alice.Poll()
	require.True(t, ok)
	assert.Equal(t, EventMessageReceived, ev.Kind)
	assert.Equal(t, PeerID{2}, ev.Peer)
	assert.Equal(t, []PeerID{{9}}, ev.Message.Peers)
}

func TestClientPollReturnsFalseWhenIdle(t *testing.T) {
	broker := NewBroker(NewRootRNG(1), DefaultBrokerConfig(), nil)
	alice := NewClient(PeerID{1}, broker)

	_, ok := alice.Poll()
	assert.False(t, ok)
}
