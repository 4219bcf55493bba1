package overlay

import "errors"

// Sentinel error kinds, checked with errors.Is and wrapped with fmt.Errorf("%w: ...").
var (
	// ErrNotConnected is returned by Client.Send when there is no established
	// connection to the target peer.
	ErrNotConnected = errors.New("overlay: not connected")

	// ErrAlreadyConnected is returned by Client.Connect when a connection to
	// the target peer already exists. Callers may treat it as a recovered,
	// idempotent success.
	ErrAlreadyConnected = errors.New("overlay: already connected")

	// ErrPeerNotFound marks a dial that resolved to success for a PeerID the
	// broker has no registration for. Broker.Step logs it and abandons the
	// dial; it is not returned to the dialing client or its node.
	ErrPeerNotFound = errors.New("overlay: peer not found")

	// ErrConfiguration is returned by builder Build() methods when a
	// required field was never set or was set to a malformed value.
	ErrConfiguration = errors.New("overlay: configuration error")

	// ErrInvariantViolation marks a condition the simulator's own design
	// guarantees should never occur. It is fatal: Broker.Step returns it
	// immediately and Simulation.RunTick propagates it to abort the run,
	// rather than logging and continuing.
	ErrInvariantViolation = errors.New("overlay: invariant violation")
)
