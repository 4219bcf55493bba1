package overlay

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	logging "github.com/ipfs/go-log/v2"
)

var brokerLog = logging.Logger("overlay/broker")

// BrokerConfig governs how the simulated fabric resolves a dial.
type BrokerConfig struct {
	// ConnectionDelayMin and ConnectionDelayMax bound the uniform-random
	// delay a pending dial ripens after.
	ConnectionDelayMin time.Duration
	ConnectionDelayMax time.Duration
	// ConnectionFailProb is the probability, in [0,1], that a dial resolves
	// to failure instead of success.
	ConnectionFailProb float64
}

// DefaultBrokerConfig matches the defaults this simulator's design is
// calibrated against.
func DefaultBrokerConfig() BrokerConfig {
	return BrokerConfig{
		ConnectionDelayMin: 100 * time.Millisecond,
		ConnectionDelayMax: 2000 * time.Millisecond,
		ConnectionFailProb: 0.1,
	}
}

type dialOutcome int

const (
	outcomeSuccess dialOutcome = iota
	outcomeFailure
)

type pendingDial struct {
	from, to PeerID
	ripenAt  time.Time
	outcome  dialOutcome
	seq      int
}

type clientEndpoint struct {
	events *eventQueue
	inbox  *messageQueue
}

// Broker is the simulated network's central clearing house. It knows about
// every registered client and resolves dials after a random delay, but it
// never touches a client's connections table directly — only the shared
// queues a successful dial hands over.
type Broker struct {
	rng     *rand.Rand
	config  BrokerConfig
	clients map[PeerID]clientEndpoint
	pending []pendingDial
	seq     int
	lastNow time.Time
	metrics *Metrics
}

// NewBroker constructs a broker with its own seed-split RNG stream. metrics
// may be nil, in which case dial counters are simply not recorded.
func NewBroker(rng *rand.Rand, config BrokerConfig, metrics *Metrics) *Broker {
	return &Broker{
		rng:     rng,
		config:  config,
		clients: make(map[PeerID]clientEndpoint),
		metrics: metrics,
	}
}

// RegisterClient makes id dialable and lets it receive delivered events and
// messages through the given queues.
func (b *Broker) RegisterClient(id PeerID, events *eventQueue, inbox *messageQueue) {
	b.clients[id] = clientEndpoint{events: events, inbox: inbox}
}

// Connect enqueues a pending dial from from to to. The success/failure
// outcome is drawn immediately, at schedule time, matching the original
// prototype's dialer model; only the exact ripen time is deferred.
func (b *Broker) Connect(from, to PeerID) {
	delayRange := b.config.ConnectionDelayMax - b.config.ConnectionDelayMin
	var delay time.Duration
	if delayRange > 0 {
		delay = b.config.ConnectionDelayMin + time.Duration(b.rng.Int63n(int64(delayRange)))
	} else {
		delay = b.config.ConnectionDelayMin
	}

	outcome := outcomeSuccess
	if b.rng.Float64() < b.config.ConnectionFailProb {
		outcome = outcomeFailure
	}

	if b.metrics != nil {
		label := "success"
		if outcome == outcomeFailure {
			label = "failure"
		}
		b.metrics.DialsAttempted.WithLabelValues(label).Inc()
	}

	b.seq++
	b.pending = append(b.pending, pendingDial{
		from:    from,
		to:      to,
		ripenAt: b.now().Add(delay),
		outcome: outcome,
		seq:     b.seq,
	})
}

// now is a placeholder until Step supplies the simulated clock's current
// time; pending dials computed between Step calls use the time of the last
// Step as their baseline, which Step always passes in.
func (b *Broker) now() time.Time {
	return b.lastNow
}

// Step advances the broker by resolving every pending dial whose ripen time
// is at or before now, in (ripenAt, seq) order so ties never depend on Go's
// unspecified map iteration. It returns a non-nil, ErrInvariantViolation-
// wrapped error the instant it finds one, aborting the rest of this step —
// per spec.md §7 an invariant violation is fatal to the run, never merely
// logged and continued past.
func (b *Broker) Step(now time.Time) error {
	b.lastNow = now

	var ripe []pendingDial
	var rest []pendingDial
	for _, pd := range b.pending {
		if !pd.ripenAt.After(now) {
			ripe = append(ripe, pd)
		} else {
			rest = append(rest, pd)
		}
	}
	sort.SliceStable(ripe, func(i, j int) bool {
		if !ripe[i].ripenAt.Equal(ripe[j].ripenAt) {
			return ripe[i].ripenAt.Before(ripe[j].ripenAt)
		}
		return ripe[i].seq < ripe[j].seq
	})
	b.pending = rest

	for _, pd := range ripe {
		if err := b.resolve(pd); err != nil {
			return err
		}
	}
	return nil
}

func (b *Broker) resolve(pd pendingDial) error {
	fromEp, fromOk := b.clients[pd.from]
	if !fromOk {
		return fmt.Errorf("%w: dialing client %s vanished before its dial to %s resolved",
			ErrInvariantViolation, pd.from, pd.to)
	}

	if pd.outcome == outcomeFailure {
		fromEp.events.push(NetworkEvent{Kind: EventOutboundFailure, Peer: pd.to})
		return nil
	}

	toEp, toOk := b.clients[pd.to]
	if !toOk {
		brokerLog.Warnw("peer not found for a dial that resolved to success, abandoning",
			"from", pd.from, "to", pd.to, "error", ErrPeerNotFound)
		return nil
	}

	fromEp.events.push(NetworkEvent{Kind: EventOutboundEstablished, Peer: pd.to, peerInbox: toEp.inbox})
	toEp.events.push(NetworkEvent{Kind: EventInboundEstablished, Peer: pd.from, peerInbox: fromEp.inbox})
	return nil
}
