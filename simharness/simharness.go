// Package simharness runs multiple in-memory nodes connected by a lossy
// in-process fabric instead of real UDP sockets, to measure how quickly
// the protocol converges under varying loss and topology.
package simharness

import (
	"context"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"antconsensus"
)

// Scenario describes one simulation run.
type Scenario struct {
	NodeCount     int
	NeighborCount int // ring successors each node is linked to, both ways (see wireRingTopology)
	DropRate      float64
	MaxTicks      int
	ProposeValue  antconsensus.ConsensusValue
	ProposerNode  int // index into the node list that calls Propose
	Seed          int64
}

// Result reports how one run of a scenario played out.
type Result struct {
	ConvergedTicks  int // ticks until every node latched a value, or -1 if it never did
	ConvergedNodes  int
	TotalNodes      int
	MessagesRouted  int
	MessagesDropped int
}

// fabric is a lossy, in-process stand-in for the UDP multicast transport:
// every Broadcast call from one node is (probabilistically) delivered to
// every other node's handler, with no ordering or delivery guarantees,
// mirroring the real transport's contract.
type fabric struct {
	rng       *rand.Rand
	dropRate  float64
	handlers  []func(antconsensus.Message)
	delivered int
	dropped   int
}

func newFabric(rng *rand.Rand, dropRate float64) *fabric {
	return &fabric{rng: rng, dropRate: dropRate}
}

func (f *fabric) attach(handler func(antconsensus.Message)) int {
	f.handlers = append(f.handlers, handler)
	return len(f.handlers) - 1
}

func (f *fabric) broadcast(from int, m antconsensus.Message) {
	for i, h := range f.handlers {
		if i == from {
			continue
		}
		if f.rng.Float64() < f.dropRate {
			f.dropped++
			continue
		}
		f.delivered++
		h(m)
	}
}

// fabricTransport adapts one node's view of the shared fabric to the
// antconsensus.Transport interface.
type fabricTransport struct {
	fabric *fabric
	index  int
	ctx    context.Context
}

func (t *fabricTransport) Broadcast(ctx context.Context, m antconsensus.Message) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	t.fabric.broadcast(t.index, m)
	return nil
}

func (t *fabricTransport) OnMessage(handler func(antconsensus.Message)) {
	t.fabric.handlers[t.index] = handler
}

func (t *fabricTransport) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// Run executes sc once and reports convergence.
func Run(sc Scenario) Result {
	rng := rand.New(rand.NewSource(sc.Seed))
	fab := newFabric(rng, sc.DropRate)
	logger := zerolog.Nop()

	nodes := make([]*antconsensus.NodeState, sc.NodeCount)
	engines := make([]*antconsensus.Engine, sc.NodeCount)
	for i := 0; i < sc.NodeCount; i++ {
		nodes[i] = antconsensus.NewNodeState(antconsensus.NodeID(i + 1))
		idx := fab.attach(nil)
		transport := &fabricTransport{fabric: fab, index: idx}
		engines[i] = antconsensus.NewEngine(nodes[i], transport, nil, logger)
		transport.OnMessage(func(m antconsensus.Message) {
			antconsensus.DispatchInbound(nodes[i], m, logger)
		})
	}
	wireRingTopology(nodes, sc.NeighborCount)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sc.ProposerNode >= 0 && sc.ProposerNode < sc.NodeCount {
		if err := engines[sc.ProposerNode].Propose(ctx, sc.ProposeValue); err != nil {
			return Result{ConvergedTicks: -1, TotalNodes: sc.NodeCount}
		}
	}

	converged := -1
	for tick := 0; tick < sc.MaxTicks; tick++ {
		for _, e := range engines {
			e.Step(ctx)
		}
		if allConverged(nodes) {
			converged = tick
			break
		}
	}

	convergedCount := 0
	for _, n := range nodes {
		if _, ok := n.CurrentValue(); ok {
			convergedCount++
		}
	}

	return Result{
		ConvergedTicks:  converged,
		ConvergedNodes:  convergedCount,
		TotalNodes:      sc.NodeCount,
		MessagesRouted:  fab.delivered,
		MessagesDropped: fab.dropped,
	}
}

func allConverged(nodes []*antconsensus.NodeState) bool {
	for _, n := range nodes {
		if _, ok := n.CurrentValue(); !ok {
			return false
		}
	}
	return true
}

// wireRingTopology links each node, in both directions, to the
// neighborCount nodes that follow it around a ring (capped at n-1), so a
// node ends up with up to 2*neighborCount neighbors and the graph stays
// connected without every node being a neighbor of every other.
func wireRingTopology(nodes []*antconsensus.NodeState, neighborCount int) {
	n := len(nodes)
	if neighborCount > n-1 {
		neighborCount = n - 1
	}
	for i, node := range nodes {
		for offset := 1; offset <= neighborCount; offset++ {
			j := (i + offset) % n
			node.AddNeighbor(nodes[j].ID())
			nodes[j].AddNeighbor(node.ID())
		}
	}
}

// Aggregation summarizes repeated runs of the same scenario across seeds.
type Aggregation struct {
	Runs              int
	MeanConvergedTick float64
	StdConvergedTick  float64
	ConvergenceRate   float64 // fraction of runs that fully converged within MaxTicks
}

// AggregateSeeds runs sc once per seed in seeds and aggregates the
// convergence tick across the runs that converged.
func AggregateSeeds(sc Scenario, seeds []int64) Aggregation {
	var ticks []float64
	converged := 0
	for _, seed := range seeds {
		sc.Seed = seed
		r := Run(sc)
		if r.ConvergedTicks >= 0 {
			converged++
			ticks = append(ticks, float64(r.ConvergedTicks))
		}
	}
	mean, std := meanStd(ticks)
	rate := 0.0
	if len(seeds) > 0 {
		rate = float64(converged) / float64(len(seeds))
	}
	return Aggregation{
		Runs:              len(seeds),
		MeanConvergedTick: mean,
		StdConvergedTick:  std,
		ConvergenceRate:   rate,
	}
}

func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range xs {
		sum += v
	}
	mean = sum / float64(len(xs))
	if len(xs) == 1 {
		return mean, 0
	}
	varSum := 0.0
	for _, v := range xs {
		d := v - mean
		varSum += d * d
	}
	std = math.Sqrt(varSum / float64(len(xs)))
	return mean, std
}
