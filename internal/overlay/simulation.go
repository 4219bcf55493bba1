package overlay

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/boltdb/bolt"
	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
)

var simLog = logging.Logger("overlay/executor")

type managedNode struct {
	node *Node
}

type delayedJoin struct {
	readyAt time.Time
	node    *managedNode
}

// NodeObservation is a point-in-time snapshot of one node, for tests and
// the CLI's periodic status output.
type NodeObservation struct {
	Identity    PeerID
	Address     string
	Connections []PeerID
}

// Simulation owns the broker, the simulated clock, and every node (active
// or waiting to join) for one run. It is the deliverable the original
// module-by-module design assumes a host program assembles.
type Simulation struct {
	runID   uuid.UUID
	clock   *clock.Mock
	tickStep time.Duration

	broker       *Broker
	nodes        []*managedNode
	delayedJoins []delayedJoin
	metrics      *Metrics

	// boltDB is non-nil only when the builder was configured with a bolt
	// storage path; every node's BoltStorage shares this one handle via its
	// own bucket, so Simulation owns closing it.
	boltDB *bolt.DB
}

// RunID identifies this simulation run in log output, for correlating
// interleaved output from more than one simulation. It never influences
// any protocol decision.
func (s *Simulation) RunID() uuid.UUID {
	return s.runID
}

// Metrics exposes this run's metrics registry.
func (s *Simulation) Metrics() *Metrics {
	return s.metrics
}

// RunTick advances the simulated clock by one tick step, steps the broker,
// promotes every delayed join that has ripened, and polls every active node
// once, in the order they joined. Errors from a node's poll are logged,
// never fatal to the run; an invariant violation surfaced by the broker is
// fatal and aborts the run immediately.
func (s *Simulation) RunTick() error {
	s.clock.Add(s.tickStep)
	now := s.clock.Now()

	if err := s.broker.Step(now); err != nil {
		return fmt.Errorf("run %s: %w", s.runID, err)
	}
	s.promoteDelayedJoins(now)

	for _, mn := range s.nodes {
		if _, err := mn.node.Poll(now); err != nil {
			simLog.Errorw("node poll failed", "run", s.runID, "node", mn.node.Identity(), "error", err)
		}
	}

	s.metrics.TicksRun.Inc()
	return nil
}

// promoteDelayedJoins moves every delayed join whose ready time has passed
// into the active node list, preserving the order the builder queued them
// in. A larger tick step, or nodes whose random join offsets
// happen to land on the same tick, can ripen more than one join at once —
// promoting only the first would silently under-join the simulation.
func (s *Simulation) promoteDelayedJoins(now time.Time) {
	remaining := s.delayedJoins[:0]
	for _, dj := range s.delayedJoins {
		if !dj.readyAt.After(now) {
			s.nodes = append(s.nodes, dj.node)
		} else {
			remaining = append(remaining, dj)
		}
	}
	s.delayedJoins = remaining
}

// Nodes snapshots every active node's identity and current connections, in
// join order.
func (s *Simulation) Nodes() []NodeObservation {
	out := make([]NodeObservation, 0, len(s.nodes))
	for _, mn := range s.nodes {
		out = append(out, NodeObservation{
			Identity:    mn.node.Identity(),
			Address:     mn.node.config.Address,
			Connections: mn.node.PLM().Connections(),
		})
	}
	return out
}

// Now returns the simulation's current simulated time.
func (s *Simulation) Now() time.Time {
	return s.clock.Now()
}

// Close releases the shared bolt database backing every node's storage, if
// the builder was configured with one. It is a no-op otherwise.
func (s *Simulation) Close() error {
	if s.boltDB == nil {
		return nil
	}
	return s.boltDB.Close()
}
