package overlay

import (
	"fmt"

	logging "github.com/ipfs/go-log/v2"
)

var clientLog = logging.Logger("overlay/client")

// Client is a node's handle onto the simulated fabric. It never talks to
// another client directly; every interaction goes through the broker it was
// registered with.
type Client struct {
	id          PeerID
	broker      *Broker
	events      eventQueue
	inbox       messageQueue
	connections map[PeerID]*messageQueue
}

// NewClient creates and registers a client for id against broker.
func NewClient(id PeerID, broker *Broker) *Client {
	c := &Client{
		id:          id,
		broker:      broker,
		connections: make(map[PeerID]*messageQueue),
	}
	broker.RegisterClient(id, &c.events, &c.inbox)
	return c
}

// ID returns the identity this client was registered under.
func (c *Client) ID() PeerID {
	return c.id
}

// Connect requests a dial to peer. It returns ErrAlreadyConnected if a
// connection is already established; otherwise it schedules the dial on the
// broker and returns nil immediately — the outcome arrives later, through
// Poll.
func (c *Client) Connect(peer PeerID) error {
	if _, ok := c.connections[peer]; ok {
		return fmt.Errorf("%w: peer %s", ErrAlreadyConnected, peer)
	}
	c.broker.Connect(c.id, peer)
	return nil
}

// Send appends msg to peer's inbound queue if a connection exists. A
// connection exists from the broker step that established it, even before
// this client has polled the corresponding established event.
func (c *Client) Send(peer PeerID, msg ProtocolMessage) error {
	q, ok := c.connections[peer]
	if !ok {
		for _, ev := range c.events.items {
			if ev.Peer == peer && ev.peerInbox != nil {
				q, ok = ev.peerInbox, true
				break
			}
		}
	}
	if !ok {
		return fmt.Errorf("%w: peer %s", ErrNotConnected, peer)
	}
	q.push(inboundMessage{from: c.id, msg: msg})
	return nil
}

// AddPeer is informational only: on the in-memory fabric there is no
// routing table to update, so this simply logs that the caller learned of
// peer's address. It exists so code written against this interface still
// has a sensible call site when pointed at a real transport.
func (c *Client) AddPeer(peer PeerID, address string) {
	clientLog.Debugw("learned peer address", "peer", peer, "address", address)
}

// Disconnect tears down any connection to peer. On the in-memory fabric
// there is no pipe to actually close, so this is a logged no-op; the
// connections table entry for peer is left in place.
func (c *Client) Disconnect(peer PeerID) {
	clientLog.Debugw("disconnect requested", "peer", peer)
}

// Poll returns at most one event: first any broker-delivered event
// (dial outcome or established-connection notice), then any delivered
// message, otherwise false.
func (c *Client) Poll() (NetworkEvent, bool) {
	if ev, ok := c.events.pop(); ok {
		switch ev.Kind {
		case EventOutboundEstablished, EventInboundEstablished:
			if ev.peerInbox != nil {
				c.connections[ev.Peer] = ev.peerInbox
			}
		}
		ev.peerInbox = nil
		return ev, true
	}
	if im, ok := c.inbox.pop(); ok {
		return NetworkEvent{Kind: EventMessageReceived, Peer: im.from, Message: im.msg}, true
	}
	return NetworkEvent{}, false
}
