package overlay

import (
	"math/rand"
	"time"

	logging "github.com/ipfs/go-log/v2"
)

var plmLog = logging.Logger("overlay/plm")

// PeerConnState is a tracked peer's connection state within the peer-list
// manager.
type PeerConnState int

const (
	StateDisconnected PeerConnState = iota
	StateConnected
	StateDialing
)

// PeerInfo is everything the peer-list manager tracks about one peer.
type PeerInfo struct {
	Reputation PeerReputation
	State      PeerConnState
	LastDial   time.Time
	Attempts   int
}

// PLMConfig governs gossip and dial scheduling.
type PLMConfig struct {
	MaxPeers              int
	ExchangePeers         int
	ExchangePeersInterval time.Duration
	DialInterval          time.Duration
	ChurnThreshold        int
	ChurnInterval         time.Duration
	DialMaxInFlight       int
}

// DefaultPLMConfig returns this simulator's default tuning.
func DefaultPLMConfig() PLMConfig {
	return PLMConfig{
		MaxPeers:              10,
		ExchangePeers:         4,
		ExchangePeersInterval: 2 * time.Second,
		DialInterval:          1 * time.Second,
		ChurnThreshold:        2,
		ChurnInterval:         10 * time.Second,
		DialMaxInFlight:       2,
	}
}

// PeerListManager tracks known peers, their connection state and
// reputation, and decides when to gossip or dial.
//
// Go's map iteration order is randomized per process, which would silently
// break this simulator's determinism guarantee if it were ever relied on
// for peer selection. order is the insertion-ordered peer list every
// deterministic selection (dial candidate, Connections enumeration) is
// built from instead of ranging over peers directly.
type PeerListManager struct {
	config   PLMConfig
	peers    map[PeerID]*PeerInfo
	order    []PeerID
	excluded map[PeerID]struct{}
	rng      *rand.Rand

	nextGossipAt  time.Time
	nextDialAt    time.Time
	inFlightDials int
}

// NewPeerListManager constructs a manager with its own seed-split RNG
// stream. start is the simulated time used to seed the first gossip/dial
// timer deadlines.
func NewPeerListManager(rng *rand.Rand, config PLMConfig, start time.Time) *PeerListManager {
	return &PeerListManager{
		config:       config,
		peers:        make(map[PeerID]*PeerInfo),
		excluded:     make(map[PeerID]struct{}),
		rng:          rng,
		nextGossipAt: start.Add(config.ExchangePeersInterval),
		nextDialAt:   start.Add(config.DialInterval),
	}
}

// ExcludePeer marks a peer as never trackable — used at node construction
// to guard against a node ever dialing or gossiping about itself.
func (p *PeerListManager) ExcludePeer(peer PeerID) {
	p.excluded[peer] = struct{}{}
	p.RemovePeer(peer)
}

// RegisterPeer begins tracking peer in state Disconnected. It is a no-op if
// peer is excluded or already tracked.
func (p *PeerListManager) RegisterPeer(peer PeerID) {
	if _, excluded := p.excluded[peer]; excluded {
		return
	}
	if _, ok := p.peers[peer]; ok {
		return
	}
	p.peers[peer] = &PeerInfo{State: StateDisconnected}
	p.order = append(p.order, peer)
}

// RegisterPeerConnected ensures peer is tracked (unless excluded) and marks
// it Connected, decrementing the in-flight dial count if it was Dialing.
func (p *PeerListManager) RegisterPeerConnected(peer PeerID) {
	if _, excluded := p.excluded[peer]; excluded {
		return
	}
	info, ok := p.peers[peer]
	if !ok {
		p.RegisterPeer(peer)
		info = p.peers[peer]
	}
	if info.State == StateDialing {
		p.inFlightDials--
	}
	info.State = StateConnected
}

// RegisterPeerDisconnected marks a tracked peer Disconnected, if tracked.
func (p *PeerListManager) RegisterPeerDisconnected(peer PeerID) {
	info, ok := p.peers[peer]
	if !ok {
		return
	}
	if info.State == StateDialing {
		p.inFlightDials--
	}
	info.State = StateDisconnected
}

// RemovePeer stops tracking peer entirely.
func (p *PeerListManager) RemovePeer(peer PeerID) {
	info, ok := p.peers[peer]
	if !ok {
		return
	}
	if info.State == StateDialing {
		p.inFlightDials--
	}
	delete(p.peers, peer)
	for i, id := range p.order {
		if id == peer {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// UpdatePeerReputation adds delta to peer's reputation. It is a no-op if
// peer is untracked.
func (p *PeerListManager) UpdatePeerReputation(peer PeerID, delta PeerReputation) {
	info, ok := p.peers[peer]
	if !ok {
		return
	}
	info.Reputation += delta
}

func (p *PeerListManager) connectedOrder() []PeerID {
	var out []PeerID
	for _, id := range p.order {
		if p.peers[id].State == StateConnected {
			out = append(out, id)
		}
	}
	return out
}

// GetRandomPeers returns up to n distinct connected peers, uniformly
// sampled without replacement. If n is at least the number of connected
// peers, all of them are returned.
func (p *PeerListManager) GetRandomPeers(n int) []PeerID {
	connected := p.connectedOrder()
	if n <= 0 {
		return nil
	}
	if n >= len(connected) {
		return connected
	}
	cp := append([]PeerID(nil), connected...)
	p.rng.Shuffle(len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
	return cp[:n]
}

// GetRandomConnectedPeer returns one uniformly chosen connected peer, or
// false if there are none.
func (p *PeerListManager) GetRandomConnectedPeer() (PeerID, bool) {
	connected := p.connectedOrder()
	if len(connected) == 0 {
		return PeerID{}, false
	}
	return connected[p.rng.Intn(len(connected))], true
}

// Connections deterministically enumerates every currently connected peer,
// in the order each was first registered.
func (p *PeerListManager) Connections() []PeerID {
	return p.connectedOrder()
}

func (p *PeerListManager) firstDisconnected() (PeerID, bool) {
	for _, id := range p.order {
		if p.peers[id].State == StateDisconnected {
			return id, true
		}
	}
	return PeerID{}, false
}

// Poll checks the gossip and dial timers against now and returns at most
// one event, in priority order: a fired gossip timer (if a connected peer
// exists to gossip to) beats a fired dial timer (if under the in-flight
// cap and a disconnected peer is available to dial).
func (p *PeerListManager) Poll(now time.Time) (PLMEvent, bool) {
	if !now.Before(p.nextGossipAt) {
		p.nextGossipAt = now.Add(p.config.ExchangePeersInterval)
		if peer, ok := p.GetRandomConnectedPeer(); ok {
			return PLMEvent{Kind: PLMSyncPeerList, Peer: peer}, true
		}
	}

	if !now.Before(p.nextDialAt) {
		p.nextDialAt = now.Add(p.config.DialInterval)
		if p.inFlightDials < p.config.DialMaxInFlight {
			if peer, ok := p.firstDisconnected(); ok {
				info := p.peers[peer]
				info.State = StateDialing
				info.LastDial = now
				info.Attempts++
				p.inFlightDials++
				plmLog.Debugw("scheduling dial", "peer", peer, "attempt", info.Attempts)
				return PLMEvent{Kind: PLMDial, Peer: peer}, true
			}
		}
	}

	return PLMEvent{}, false
}
