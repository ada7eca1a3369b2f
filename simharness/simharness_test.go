package simharness

import (
	"context"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"antconsensus"
)

func TestRunConvergesOnLosslessFullyConnectedNetwork(t *testing.T) {
	sc := Scenario{
		NodeCount:     5,
		NeighborCount: 4,
		DropRate:      0.0,
		MaxTicks:      200,
		ProposeValue:  antconsensus.NewConsensusValueFromString("agreed"),
		ProposerNode:  0,
		Seed:          1,
	}

	r := Run(sc)
	require.GreaterOrEqual(t, r.ConvergedTicks, 0)
	assert.Equal(t, sc.NodeCount, r.ConvergedNodes)
}

func TestRunReportsNonConvergenceWhenNoProposal(t *testing.T) {
	sc := Scenario{
		NodeCount:     4,
		NeighborCount: 2,
		DropRate:      0.0,
		MaxTicks:      20,
		ProposerNode:  -1,
		Seed:          2,
	}

	r := Run(sc)
	assert.Equal(t, -1, r.ConvergedTicks)
	assert.Equal(t, 0, r.ConvergedNodes)
}

func TestAggregateSeedsReportsConvergenceRate(t *testing.T) {
	sc := Scenario{
		NodeCount:     6,
		NeighborCount: 3,
		DropRate:      0.1,
		MaxTicks:      300,
		ProposeValue:  antconsensus.NewConsensusValueFromString("agreed"),
		ProposerNode:  0,
	}
	seeds := []int64{1, 2, 3, 4, 5}

	agg := AggregateSeeds(sc, seeds)
	assert.Equal(t, len(seeds), agg.Runs)
	assert.GreaterOrEqual(t, agg.ConvergenceRate, 0.0)
	assert.LessOrEqual(t, agg.ConvergenceRate, 1.0)
}

// nullTransport drops every broadcast and delivers nothing, modeling a
// node on the wrong side of a network partition: its messages never
// reach the fabric, and the fabric's messages never reach it.
type nullTransport struct{}

func (nullTransport) Broadcast(ctx context.Context, m antconsensus.Message) error { return nil }
func (nullTransport) OnMessage(handler func(antconsensus.Message))                {}
func (nullTransport) Run(ctx context.Context) error                              { <-ctx.Done(); return nil }

func TestIsolatedNodeNeverFalselyLatchesConsensus(t *testing.T) {
	const majorityCount = 4
	rng := rand.New(rand.NewSource(3))
	fab := newFabric(rng, 0.0)
	logger := zerolog.Nop()

	majority := make([]*antconsensus.NodeState, majorityCount)
	engines := make([]*antconsensus.Engine, majorityCount)
	for i := 0; i < majorityCount; i++ {
		majority[i] = antconsensus.NewNodeState(antconsensus.NodeID(i + 1))
		idx := fab.attach(nil)
		transport := &fabricTransport{fabric: fab, index: idx}
		engines[i] = antconsensus.NewEngine(majority[i], transport, nil, logger)
		transport.OnMessage(func(m antconsensus.Message) {
			antconsensus.DispatchInbound(majority[i], m, logger)
		})
	}
	wireRingTopology(majority, majorityCount-1)

	// The isolated node sits behind a partition: it is never attached to
	// the shared fabric at all, so no broadcast from the majority can
	// ever reach it, and none of its own broadcasts (it sends none here)
	// could reach the majority either.
	isolated := antconsensus.NewNodeState(antconsensus.NodeID(99))
	isolatedEngine := antconsensus.NewEngine(isolated, nullTransport{}, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, engines[0].Propose(ctx, antconsensus.NewConsensusValueFromString("agreed")))

	for tick := 0; tick < 200; tick++ {
		for _, e := range engines {
			e.Step(ctx)
		}
		isolatedEngine.Step(ctx)
	}

	_, ok := isolated.CurrentValue()
	assert.False(t, ok, "isolated node must never latch a value it was never given")

	_, majorityOK := majority[0].CurrentValue()
	assert.True(t, majorityOK, "connected majority should still reach consensus")
}

func TestWireRingTopologyCapsNeighborCount(t *testing.T) {
	nodes := make([]*antconsensus.NodeState, 3)
	for i := range nodes {
		nodes[i] = antconsensus.NewNodeState(antconsensus.NodeID(i + 1))
	}
	wireRingTopology(nodes, 10)
	for _, n := range nodes {
		assert.LessOrEqual(t, len(n.GetNeighbors()), 2)
	}
}
