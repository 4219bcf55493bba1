package overlay

// MessageKind tags the variant of a ProtocolMessage.
type MessageKind int

const (
	// MsgPeerList carries a gossiped sample of peers the sender knows about.
	MsgPeerList MessageKind = iota
	// MsgData is a reserved variant for opaque application payloads. The
	// core protocol never produces one; it exists so the wire format round
	// trips a payload a future application layer might add.
	MsgData
)

// ProtocolMessage is the tagged union of messages nodes exchange. There is
// no real wire: the simulated fabric passes this value directly between
// in-memory queues, never serializing it.
type ProtocolMessage struct {
	Kind  MessageKind
	Peers []PeerID // populated for MsgPeerList
	Bytes []byte   // populated for MsgData
}

// NetworkEventKind tags the variant of a NetworkEvent.
type NetworkEventKind int

const (
	EventOutboundEstablished NetworkEventKind = iota
	EventOutboundFailure
	EventInboundEstablished
	EventPeerDisconnected
	EventMessageReceived
)

// NetworkEvent is what Client.Poll returns: a broker-delivered outcome or a
// delivered message, attributed to the peer it concerns.
type NetworkEvent struct {
	Kind    NetworkEventKind
	Peer    PeerID
	Message ProtocolMessage

	// peerInbox is handed from the broker to the dialing/accepting client
	// only on a successful establishment, so the client can record where to
	// send future messages to this peer. It is never exposed outside this
	// package.
	peerInbox *messageQueue
}

// PLMEventKind tags the variant of a PLMEvent.
type PLMEventKind int

const (
	PLMSyncPeerList PLMEventKind = iota
	PLMDial
	PLMDisconnect
	PLMPeerAdded
	PLMPeerRemoved
	PLMPeerReputationUpdated
)

// PLMEvent is what PeerListManager.Poll returns.
type PLMEvent struct {
	Kind       PLMEventKind
	Peer       PeerID
	Reputation PeerReputation
}

// NodeEventKind tags the variant of a NodeEvent.
type NodeEventKind int

const (
	NodeNoop NodeEventKind = iota
	NodeSyncedPeerList
	NodeDialed
	NodeDisconnectRequested
	NodePeerAdded
	NodePeerRemoved
	NodePeerReputationUpdated
	NodeOutboundEstablished
	NodeInboundEstablished
	NodeOutboundFailure
	NodePeerDisconnected
	NodeMessageReceived
)

// NodeEvent is what Node.Poll returns. The tick executor discards it after
// each poll; it exists so tests (and anything else observing a single
// node) can assert on exactly what a poll did.
type NodeEvent struct {
	Kind NodeEventKind
	Peer PeerID
}
