package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(seed int64, cfg BrokerConfig) *Broker {
	return NewBroker(NewRootRNG(seed), cfg, nil)
}

func alwaysSucceed() BrokerConfig {
	return BrokerConfig{
		ConnectionDelayMin: 100 * time.Millisecond,
		ConnectionDelayMax: 200 * time.Millisecond,
		ConnectionFailProb: 0,
	}
}

func alwaysFail() BrokerConfig {
	return BrokerConfig{
		ConnectionDelayMin: 100 * time.Millisecond,
		ConnectionDelayMax: 200 * time.Millisecond,
		ConnectionFailProb: 1,
	}
}

func TestBrokerStepWithNoPendingDialsIsNoop(t *testing.T) {
	b := newTestBroker(1, DefaultBrokerConfig())
	assert.NoError(t, b.Step(time.Now()))
}

func TestBrokerSuccessfulDialIsSymmetric(t *testing.T) {
	b := newTestBroker(1, alwaysSucceed())

	start := time.Unix(0, 0)
	var aEvents, bEvents eventQueue
	var aInbox, bInbox messageQueue

	alice := PeerID{1}
	bob := PeerID{2}
	b.RegisterClient(alice, &aEvents, &aInbox)
	b.RegisterClient(bob, &bEvents, &bInbox)

	require.NoError(t, b.Step(start))
	b.Connect(alice, bob)

	// Dial hasn't ripened yet at t=0.
	require.NoError(t, b.Step(start))
	_, ok := aEvents.pop()
	assert.False(t, ok)

	// After the max possible delay, the dial must have resolved.
	require.NoError(t, b.Step(start.Add(300*time.Millisecond)))

	aEv, ok := aEvents.pop()
	require.True(t, ok)
	assert.Equal(t, EventOutboundEstablished, aEv.Kind)
	assert.Equal(t, bob, aEv.Peer)

	bEv, ok := bEvents.pop()
	require.True(t, ok)
	assert.Equal(t, EventInboundEstablished, bEv.Kind)
	assert.Equal(t, alice, bEv.Peer)
}

func TestBrokerFailedDialIsAsymmetric(t *testing.T) {
	b := newTestBroker(1, alwaysFail())

	start := time.Unix(0, 0)
	var aEvents, bEvents eventQueue
	var aInbox, bInbox messageQueue

	alice := PeerID{1}
	bob := PeerID{2}
	b.RegisterClient(alice, &aEvents, &aInbox)
	b.RegisterClient(bob, &bEvents, &bInbox)

	require.NoError(t, b.Step(start))
	b.Connect(alice, bob)
	require.NoError(t, b.Step(start.Add(300*time.Millisecond)))

	aEv, ok := aEvents.pop()
	require.True(t, ok)
	assert.Equal(t, EventOutboundFailure, aEv.Kind)
	assert.Equal(t, bob, aEv.Peer)

	_, ok = bEvents.pop()
	assert.False(t, ok, "bob must never observe a failed inbound dial")
}

func TestBrokerDialRipensWithinConfiguredBounds(t *testing.T) {
	cfg := BrokerConfig{
		ConnectionDelayMin: 100 * time.Millisecond,
		ConnectionDelayMax: 200 * time.Millisecond,
		ConnectionFailProb: 0,
	}
	b := newTestBroker(1, cfg)

	start := time.Unix(0, 0)
	var aEvents eventQueue
	var aInbox, bInbox messageQueue
	alice := PeerID{1}
	bob := PeerID{2}
	b.RegisterClient(alice, &aEvents, &aInbox)
	b.RegisterClient(bob, &eventQueue{}, &bInbox)

	require.NoError(t, b.Step(start))
	b.Connect(alice, bob)

	// Strictly before the minimum delay, nothing should have resolved.
	require.NoError(t, b.Step(start.Add(99*time.Millisecond)))
	_, ok := aEvents.pop()
	assert.False(t, ok)

	// By the maximum delay, it must have.
	require.NoError(t, b.Step(start.Add(200*time.Millisecond)))
	_, ok = aEvents.pop()
	assert.True(t, ok)
}

func TestBrokerAbandonsDialToUnregisteredPeer(t *testing.T) {
	b := newTestBroker(1, alwaysSucceed())

	start := time.Unix(0, 0)
	var aEvents eventQueue
	var aInbox messageQueue
	alice := PeerID{1}
	unknown := PeerID{9}
	b.RegisterClient(alice, &aEvents, &aInbox)

	require.NoError(t, b.Step(start))
	b.Connect(alice, unknown)
	require.NoError(t, b.Step(start.Add(300*time.Millisecond)))

	_, ok := aEvents.pop()
	assert.False(t, ok, "a dial to an unregistered peer must be silently abandoned, not delivered as success")
}

func TestBrokerStepFailsFastWhenDialingClientVanished(t *testing.T) {
	b := newTestBroker(1, alwaysSucceed())

	start := time.Unix(0, 0)
	var aEvents eventQueue
	var aInbox messageQueue
	alice := PeerID{1}
	bob := PeerID{2}
	b.RegisterClient(alice, &aEvents, &aInbox)
	b.RegisterClient(bob, &eventQueue{}, &messageQueue{})

	require.NoError(t, b.Step(start))
	b.Connect(alice, bob)

	// Simulate the dialing client being torn down out from under its own
	// pending dial: the broker must treat this as fatal, not log-and-skip.
	delete(b.clients, alice)

	err := b.Step(start.Add(300 * time.Millisecond))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}
