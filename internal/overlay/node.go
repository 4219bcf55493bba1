package overlay

import (
	"errors"
	"fmt"
	"time"

	logging "github.com/ipfs/go-log/v2"
)

var nodeLog = logging.Logger("overlay/node")

// NodeState is the node's position in its lifecycle. Only Booting and
// Connecting are implemented; the rest are reserved extension points.
type NodeState int

const (
	StateBooting NodeState = iota
	StateConnecting
	StateJoining
	StateRunning
	StateLeaving
	StateStopped
)

// Node drives one participant's lifecycle: dialing its bootnodes, then
// reacting to peer-list-manager and network-client events one at a time.
type Node struct {
	config  NodeConfig
	client  *Client
	plm     *PeerListManager
	storage Storage
	state   NodeState
	metrics *Metrics
}

// NewNode builds a node and guards it against ever dialing or tracking
// itself by excluding its own identity from the peer-list manager up
// front. metrics may be nil, in which case gossip counters are simply not
// recorded.
func NewNode(config NodeConfig, client *Client, plm *PeerListManager, storage Storage, metrics *Metrics) *Node {
	plm.ExcludePeer(config.Identity)
	return &Node{
		config:  config,
		client:  client,
		plm:     plm,
		storage: storage,
		state:   StateBooting,
		metrics: metrics,
	}
}

// Identity returns the node's own PeerID.
func (n *Node) Identity() PeerID {
	return n.config.Identity
}

// State returns the node's current lifecycle state.
func (n *Node) State() NodeState {
	return n.state
}

// PLM exposes the node's peer-list manager for observation (e.g. tests and
// CLI snapshots reading Connections()).
func (n *Node) PLM() *PeerListManager {
	return n.plm
}

// Poll advances the node by at most one step, producing at most one
// NodeEvent. The tick executor calls this once per node per tick and
// discards the result; it is returned here purely so callers that do care
// (tests) can observe exactly what happened.
func (n *Node) Poll(now time.Time) (NodeEvent, error) {
	switch n.state {
	case StateBooting:
		return n.pollBooting()
	case StateConnecting:
		return n.pollConnecting(now)
	default:
		return NodeEvent{Kind: NodeNoop}, nil
	}
}

// pollBooting registers every configured bootnode with the peer-list
// manager before dialing it, so a failed boot dial still leaves the
// bootnode tracked and eligible for the ordinary dial-retry timer, then
// transitions to Connecting. A bootnode entry carrying the node's own
// identity is skipped. A connect failure here is always a
// programming error (a duplicate bootnode address, most likely) since no
// connections can exist yet at boot.
func (n *Node) pollBooting() (NodeEvent, error) {
	for _, bn := range n.config.Bootnodes {
		if bn.ID == n.config.Identity {
			continue
		}
		n.plm.RegisterPeer(bn.ID)
		n.client.AddPeer(bn.ID, bn.Address)
		if err := n.client.Connect(bn.ID); err != nil {
			return NodeEvent{}, fmt.Errorf("%w: dialing bootnode %s during boot: %v", ErrConfiguration, bn.ID, err)
		}
	}
	n.state = StateConnecting
	return NodeEvent{Kind: NodeNoop}, nil
}

// pollConnecting polls the peer-list manager once, then — only if it had
// nothing to do — the network client once, then — only if neither did —
// checks in with storage. At most one of the three ever fires per call.
func (n *Node) pollConnecting(now time.Time) (NodeEvent, error) {
	if ev, ok := n.plm.Poll(now); ok {
		return n.handlePLMEvent(ev), nil
	}
	if ev, ok := n.client.Poll(); ok {
		return n.handleNetworkEvent(ev), nil
	}
	n.pollStorage()
	return NodeEvent{Kind: NodeNoop}, nil
}

// pollStorage checkpoints the node's current connection list to its storage
// sink whenever the peer-list manager and network client have nothing else
// to do. A storage error is surfaced as a plain Noop, never fatal to the
// node's poll — it is only loggable.
func (n *Node) pollStorage() {
	if !n.storage.Poll() {
		return
	}
	connections := n.plm.Connections()
	snapshot := make([]byte, 0, 32*len(connections))
	for _, peer := range connections {
		snapshot = append(snapshot, peer.Bytes()...)
	}
	if err := n.storage.Write(snapshot); err != nil {
		nodeLog.Warnw("storage checkpoint failed", "node", n.config.Identity, "error", err)
	}
}

func (n *Node) handlePLMEvent(ev PLMEvent) NodeEvent {
	switch ev.Kind {
	case PLMSyncPeerList:
		n.gossipTo(ev.Peer)
		return NodeEvent{Kind: NodeSyncedPeerList, Peer: ev.Peer}
	case PLMDial:
		if err := n.client.Connect(ev.Peer); err != nil && !errors.Is(err, ErrAlreadyConnected) {
			nodeLog.Warnw("dial failed", "node", n.config.Identity, "peer", ev.Peer, "error", err)
		}
		return NodeEvent{Kind: NodeDialed, Peer: ev.Peer}
	case PLMDisconnect:
		n.client.Disconnect(ev.Peer)
		return NodeEvent{Kind: NodeDisconnectRequested, Peer: ev.Peer}
	case PLMPeerAdded:
		return NodeEvent{Kind: NodePeerAdded, Peer: ev.Peer}
	case PLMPeerRemoved:
		return NodeEvent{Kind: NodePeerRemoved, Peer: ev.Peer}
	case PLMPeerReputationUpdated:
		return NodeEvent{Kind: NodePeerReputationUpdated, Peer: ev.Peer}
	default:
		return NodeEvent{Kind: NodeNoop}
	}
}

func (n *Node) handleNetworkEvent(ev NetworkEvent) NodeEvent {
	switch ev.Kind {
	case EventOutboundEstablished:
		n.plm.RegisterPeerConnected(ev.Peer)
		return NodeEvent{Kind: NodeOutboundEstablished, Peer: ev.Peer}
	case EventInboundEstablished:
		n.plm.RegisterPeerConnected(ev.Peer)
		n.gossipTo(ev.Peer)
		return NodeEvent{Kind: NodeInboundEstablished, Peer: ev.Peer}
	case EventOutboundFailure:
		n.plm.RegisterPeerDisconnected(ev.Peer)
		nodeLog.Debugw("outbound dial failed", "node", n.config.Identity, "peer", ev.Peer)
		return NodeEvent{Kind: NodeOutboundFailure, Peer: ev.Peer}
	case EventPeerDisconnected:
		n.plm.RegisterPeerDisconnected(ev.Peer)
		return NodeEvent{Kind: NodePeerDisconnected, Peer: ev.Peer}
	case EventMessageReceived:
		n.handleMessage(ev.Peer, ev.Message)
		return NodeEvent{Kind: NodeMessageReceived, Peer: ev.Peer}
	default:
		return NodeEvent{Kind: NodeNoop}
	}
}

func (n *Node) handleMessage(from PeerID, msg ProtocolMessage) {
	switch msg.Kind {
	case MsgPeerList:
		for _, p := range msg.Peers {
			n.plm.RegisterPeer(p)
		}
	case MsgData:
		// Reserved: the core protocol never produces a data payload, so
		// there is nothing to do with one yet.
	}
}

func (n *Node) gossipTo(peer PeerID) {
	sample := n.plm.GetRandomPeers(n.config.PLMConfig.ExchangePeers)
	msg := ProtocolMessage{Kind: MsgPeerList, Peers: sample}
	if err := n.client.Send(peer, msg); err != nil {
		nodeLog.Warnw("gossip send failed, peer may have disconnected", "node", n.config.Identity, "peer", peer, "error", err)
		return
	}
	if n.metrics != nil {
		n.metrics.GossipSent.Inc()
	}
}
