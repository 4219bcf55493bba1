package overlay

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/boltdb/bolt"
	"github.com/google/uuid"
)

// SimulationBuilder assembles a Simulation: one bootnode plus a configured
// number of additional nodes, each staggered to join after a random delay,
// exactly as the reference wiring stages them.
type SimulationBuilder struct {
	seed         int64
	nodeCount    int
	tickStep     time.Duration
	brokerConfig BrokerConfig
	plmConfig    PLMConfig
	storagePath  string
}

// NewSimulation starts a builder seeded from seed, with this simulator's
// default tick step, broker tuning and peer-list-manager tuning.
func NewSimulation(seed int64) *SimulationBuilder {
	return &SimulationBuilder{
		seed:         seed,
		nodeCount:    0,
		tickStep:     10 * time.Millisecond,
		brokerConfig: DefaultBrokerConfig(),
		plmConfig:    DefaultPLMConfig(),
	}
}

// NodeCount sets how many additional nodes join the bootnode.
func (b *SimulationBuilder) NodeCount(n int) *SimulationBuilder {
	b.nodeCount = n
	return b
}

// TickStep overrides how far simulated time advances per RunTick call.
func (b *SimulationBuilder) TickStep(d time.Duration) *SimulationBuilder {
	b.tickStep = d
	return b
}

// BrokerConfig overrides the simulated fabric's dial delay/failure tuning.
func (b *SimulationBuilder) BrokerConfig(cfg BrokerConfig) *SimulationBuilder {
	b.brokerConfig = cfg
	return b
}

// PLMConfig overrides every node's peer-list-manager tuning.
func (b *SimulationBuilder) PLMConfig(cfg PLMConfig) *SimulationBuilder {
	b.plmConfig = cfg
	return b
}

// BoltStoragePath makes every node's storage sink a bucket within one
// shared bolt database at path, instead of the default NoopStorage. The
// returned Simulation owns the opened database; call Simulation.Close to
// release it.
func (b *SimulationBuilder) BoltStoragePath(path string) *SimulationBuilder {
	b.storagePath = path
	return b
}

// Build constructs the simulation. The bootnode is ready to poll from tick
// one; every other node joins after an accumulating random 100-500ms
// offset, drawn from the simulation's own RNG stream.
func (b *SimulationBuilder) Build() (*Simulation, error) {
	rootRNG := NewRootRNG(b.seed)
	mockClock := clock.NewMock()
	metrics := NewMetrics()
	broker := NewBroker(NextSeed(rootRNG), b.brokerConfig, metrics)

	var boltDB *bolt.DB
	if b.storagePath != "" {
		db, err := bolt.Open(b.storagePath, 0600, nil)
		if err != nil {
			return nil, fmt.Errorf("overlay: opening bolt storage at %q: %w", b.storagePath, err)
		}
		boltDB = db
	}

	sim := &Simulation{
		runID:    uuid.New(),
		clock:    mockClock,
		tickStep: b.tickStep,
		broker:   broker,
		metrics:  metrics,
		boltDB:   boltDB,
	}

	bootConfig, bootMN, err := b.buildManagedNode(rootRNG, broker, metrics, boltDB, mockClock.Now(), MemoryAddress(0), nil)
	if err != nil {
		sim.Close()
		return nil, fmt.Errorf("building bootnode: %w", err)
	}
	sim.nodes = append(sim.nodes, bootMN)
	bootAddress := NodeAddress{ID: bootConfig.Identity, Address: bootConfig.Address}

	joinRNG := NextSeed(rootRNG)
	offset := time.Duration(0)
	for i := 1; i <= b.nodeCount; i++ {
		offset += time.Duration(100+joinRNG.Intn(400)) * time.Millisecond
		_, mn, err := b.buildManagedNode(rootRNG, broker, metrics, boltDB, mockClock.Now(), MemoryAddress(i), []NodeAddress{bootAddress})
		if err != nil {
			sim.Close()
			return nil, fmt.Errorf("building node %d: %w", i, err)
		}
		sim.delayedJoins = append(sim.delayedJoins, delayedJoin{
			readyAt: mockClock.Now().Add(offset),
			node:    mn,
		})
	}

	return sim, nil
}

func (b *SimulationBuilder) buildManagedNode(rootRNG *rand.Rand, broker *Broker, metrics *Metrics, boltDB *bolt.DB, start time.Time, address string, bootnodes []NodeAddress) (NodeConfig, *managedNode, error) {
	identityRNG := NextSeed(rootRNG)
	plmRNG := NextSeed(rootRNG)

	configBuilder := NewNodeConfigBuilder().
		WithUniqueIdentity(identityRNG).
		WithAddress(address).
		WithPLMConfig(b.plmConfig)
	for _, bn := range bootnodes {
		configBuilder = configBuilder.WithBootnode(bn)
	}

	config, err := configBuilder.Build()
	if err != nil {
		return NodeConfig{}, nil, err
	}

	client := NewClient(config.Identity, broker)
	plm := NewPeerListManager(plmRNG, config.PLMConfig, start)

	var storage Storage
	if boltDB != nil {
		storage, err = NewBoltStorageFromDB(boltDB, config.Identity)
		if err != nil {
			return NodeConfig{}, nil, fmt.Errorf("building bolt storage for %s: %w", config.Identity, err)
		}
	} else {
		storage = NewNoopStorage(config.Identity)
	}

	node := NewNode(config, client, plm, storage, metrics)

	return config, &managedNode{node: node}, nil
}
