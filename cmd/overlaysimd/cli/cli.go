// Package cli wires the overlaysimd command tree: a cobra root command
// with a single run subcommand.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/driftlattice/overlaysim/internal/overlay"
)

// NewCLI builds the overlaysimd root command.
func NewCLI() *cobra.Command {
	var (
		seed          int64
		nodeCount     int
		ticks         int
		snapshotEvery int
		storagePath   string
	)

	rootCmd := &cobra.Command{
		Use:   "overlaysimd",
		Short: "Run a deterministic in-memory peer-to-peer overlay simulation",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Build a simulation and run it for a fixed number of ticks",
		RunE: func(cmd *cobra.Command, args []string) error {
			builder := overlay.NewSimulation(seed).NodeCount(nodeCount)
			if storagePath != "" {
				builder = builder.BoltStoragePath(storagePath)
			}
			sim, err := builder.Build()
			if err != nil {
				return fmt.Errorf("building simulation: %w", err)
			}

			defer sim.Close()

			for i := 0; i < ticks; i++ {
				if err := sim.RunTick(); err != nil {
					return fmt.Errorf("tick %d: %w", i+1, err)
				}
				if snapshotEvery > 0 && (i+1)%snapshotEvery == 0 {
					if err := printSnapshot(cmd, sim, i+1); err != nil {
						return err
					}
				}
			}

			return printSnapshot(cmd, sim, ticks)
		},
	}

	runCmd.Flags().Int64Var(&seed, "seed", 0, "root RNG seed")
	runCmd.Flags().IntVar(&nodeCount, "nodes", 10, "number of non-bootnode nodes")
	runCmd.Flags().IntVar(&ticks, "ticks", 500, "number of ticks to run")
	runCmd.Flags().IntVar(&snapshotEvery, "snapshot-every", 0, "print a connection snapshot every N ticks (0 disables)")
	runCmd.Flags().StringVar(&storagePath, "storage-path", "", "bolt database path for node storage checkpoints (default: in-memory no-op)")

	rootCmd.AddCommand(runCmd)
	return rootCmd
}

type snapshotNode struct {
	Identity    string   `json:"identity"`
	Address     string   `json:"address"`
	Connections []string `json:"connections"`
}

type snapshot struct {
	Tick  int            `json:"tick"`
	Nodes []snapshotNode `json:"nodes"`
}

func printSnapshot(cmd *cobra.Command, sim *overlay.Simulation, tick int) error {
	obs := sim.Nodes()
	snap := snapshot{Tick: tick, Nodes: make([]snapshotNode, 0, len(obs))}
	for _, n := range obs {
		conns := make([]string, 0, len(n.Connections))
		for _, c := range n.Connections {
			conns = append(conns, c.String())
		}
		snap.Nodes = append(snap.Nodes, snapshotNode{
			Identity:    n.Identity.String(),
			Address:     n.Address,
			Connections: conns,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
