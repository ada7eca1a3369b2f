package antconsensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAntAgentStartsAtNodeWithFullEnergy(t *testing.T) {
	a := NewAntAgent(AntID(1), NodeID(5))
	assert.Equal(t, NodeID(5), a.CurrentNode)
	assert.Equal(t, NodeID(5), a.StartNode)
	assert.Equal(t, InitialAntEnergy, a.Energy)
	assert.True(t, a.IsAlive())
	_, seen := a.VisitedNodes[NodeID(5)]
	assert.True(t, seen)
}

func TestUpdateEnergyEventuallyDies(t *testing.T) {
	a := NewAntAgent(AntID(1), NodeID(1))
	ticks := int(InitialAntEnergy/EnergyDecayPerTick) + 1
	for i := 0; i < ticks; i++ {
		a.UpdateEnergy()
	}
	assert.False(t, a.IsAlive())
}

func TestSelectNextNodeEmptyNeighbors(t *testing.T) {
	a := NewAntAgent(AntID(1), NodeID(1))
	_, ok := a.SelectNextNode(nil, nil)
	assert.False(t, ok)
}

func TestSelectNextNodeAllVisitedFallsBackToFirstNeighbor(t *testing.T) {
	a := NewAntAgent(AntID(1), NodeID(1))
	a.VisitedNodes[NodeID(2)] = struct{}{}
	a.VisitedNodes[NodeID(3)] = struct{}{}

	next, ok := a.SelectNextNode([]NodeID{2, 3}, nil)
	assert.True(t, ok)
	assert.Equal(t, NodeID(2), next)
}

func TestSelectNextNodePrefersHigherIntensity(t *testing.T) {
	a := NewAntAgent(AntID(1), NodeID(1))
	neighbors := []NodeID{2, 3}
	intensities := []NeighborIntensity{
		{Node: 2, Intensity: 1000.0},
		{Node: 3, Intensity: 0.0001},
	}

	counts := map[NodeID]int{}
	for i := 0; i < 200; i++ {
		next, ok := a.SelectNextNode(neighbors, intensities)
		assert.True(t, ok)
		counts[next]++
	}
	assert.Greater(t, counts[NodeID(2)], counts[NodeID(3)])
}

func TestMoveToUpdatesCurrentNodeAndMemory(t *testing.T) {
	a := NewAntAgent(AntID(1), NodeID(1))
	a.MoveTo(NodeID(2))
	assert.Equal(t, NodeID(2), a.CurrentNode)
	_, seen := a.VisitedNodes[NodeID(2)]
	assert.True(t, seen)
}

func TestMoveToEvictsStartNodeWhenMemoryFull(t *testing.T) {
	a := NewAntAgent(AntID(1), NodeID(0))
	for i := 1; i <= AntMemoryBound; i++ {
		a.MoveTo(NodeID(i))
	}
	_, stillThere := a.VisitedNodes[NodeID(0)]
	assert.False(t, stillThere)
	assert.LessOrEqual(t, len(a.VisitedNodes), AntMemoryBound)
}

func TestDropAndPickUpPheromone(t *testing.T) {
	a := NewAntAgent(AntID(1), NodeID(1))
	assert.Nil(t, a.DropPheromone())

	p := Pheromone{Intensity: 0.5}
	a.PickUpPheromone(p)
	assert.NotNil(t, a.CarriedPheromone)

	dropped := a.DropPheromone()
	assert.NotNil(t, dropped)
	assert.Nil(t, a.CarriedPheromone)
}
