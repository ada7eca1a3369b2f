// Command simharness runs the in-memory multi-node convergence
// simulation across a range of seeds and prints aggregated statistics,
// the way a load-test harness reports mean/stddev across repeated runs.
package main

import (
	"flag"
	"fmt"
	"os"

	"antconsensus"
	"antconsensus/simharness"
)

func main() {
	nodeCount := flag.Int("nodes", 10, "number of simulated nodes")
	neighborCount := flag.Int("neighbors", 3, "ring successors each node is linked to, both ways")
	dropRate := flag.Float64("drop-rate", 0.05, "probability a broadcast is dropped in transit")
	maxTicks := flag.Int("max-ticks", 500, "ticks to run before declaring non-convergence")
	seedCount := flag.Int("seeds", 20, "number of seeds to average over")
	flag.Parse()

	seeds := make([]int64, *seedCount)
	for i := range seeds {
		seeds[i] = int64(i + 1)
	}

	sc := simharness.Scenario{
		NodeCount:     *nodeCount,
		NeighborCount: *neighborCount,
		DropRate:      *dropRate,
		MaxTicks:      *maxTicks,
		ProposeValue:  antconsensus.NewConsensusValueFromString("simharness-proposal"),
		ProposerNode:  0,
	}

	agg := simharness.AggregateSeeds(sc, seeds)
	fmt.Fprintf(os.Stdout, "nodes=%d neighbors=%d drop_rate=%.2f\n", sc.NodeCount, sc.NeighborCount, sc.DropRate)
	fmt.Fprintf(os.Stdout, "convergence_rate=%.1f%% mean_ticks=%.1f ± %.1f (n=%d)\n",
		agg.ConvergenceRate*100, agg.MeanConvergedTick, agg.StdConvergedTick, agg.Runs)
}
