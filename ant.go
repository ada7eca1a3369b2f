package antconsensus

import "math/rand"

const (
	// InitialAntEnergy is the energy level a freshly created ant starts at.
	InitialAntEnergy = 100.0
	// EnergyDecayPerTick is how much energy an ant loses per UpdateEnergy call.
	EnergyDecayPerTick = 0.1
	// AntMemoryBound is the visited-set size above which MoveTo evicts the
	// ant's start node.
	AntMemoryBound = 256
	// DefaultNeighborIntensity is used for a neighbor with no observed
	// pheromone intensity during routing.
	DefaultNeighborIntensity = 0.1
)

// NeighborIntensity pairs a neighbor with an observed pheromone intensity,
// used as input to AntAgent.SelectNextNode.
type NeighborIntensity struct {
	Node      NodeID
	Intensity float64
}

// AntAgent is a mobile token carrying an optional pheromone across the
// neighbor graph, choosing its next hop probabilistically.
type AntAgent struct {
	ID               AntID
	CurrentNode      NodeID
	StartNode        NodeID
	CarriedPheromone *Pheromone
	VisitedNodes     map[NodeID]struct{}
	Energy           float64
}

// NewAntAgent creates an ant starting (and currently located) at startNode,
// carrying no pheromone.
func NewAntAgent(id AntID, startNode NodeID) *AntAgent {
	return &AntAgent{
		ID:           id,
		CurrentNode:  startNode,
		StartNode:    startNode,
		Energy:       InitialAntEnergy,
		VisitedNodes: map[NodeID]struct{}{startNode: {}},
	}
}

// NewAntAgentWithPheromone creates an ant as NewAntAgent does, additionally
// carrying pheromone from the moment of creation.
func NewAntAgentWithPheromone(id AntID, startNode NodeID, pheromone Pheromone) *AntAgent {
	a := NewAntAgent(id, startNode)
	a.CarriedPheromone = &pheromone
	return a
}

// UpdateEnergy decays the ant's energy by one tick's worth.
func (a *AntAgent) UpdateEnergy() {
	a.Energy -= EnergyDecayPerTick
}

// IsAlive reports whether the ant still has positive energy.
func (a *AntAgent) IsAlive() bool {
	return a.Energy > 0
}

// SelectNextNode chooses the ant's next hop among neighbors, weighted by
// pheromone intensity via roulette-wheel selection. neighbors need not be
// covered entirely by intensities; absent neighbors default to
// DefaultNeighborIntensity. Returns false if neighbors is empty.
func (a *AntAgent) SelectNextNode(neighbors []NodeID, intensities []NeighborIntensity) (NodeID, bool) {
	if len(neighbors) == 0 {
		return 0, false
	}

	available := make([]NodeID, 0, len(neighbors))
	for _, n := range neighbors {
		if _, seen := a.VisitedNodes[n]; !seen {
			available = append(available, n)
		}
	}
	if len(available) == 0 {
		// Memory saturation: every neighbor has been visited already.
		return neighbors[0], true
	}

	intensityOf := make(map[NodeID]float64, len(intensities))
	for _, ni := range intensities {
		intensityOf[ni.Node] = ni.Intensity
	}

	weights := make([]float64, len(available))
	total := 0.0
	for i, n := range available {
		w, ok := intensityOf[n]
		if !ok {
			w = DefaultNeighborIntensity
		}
		weights[i] = w
		total += w
	}

	if total == 0 {
		return available[rand.Intn(len(available))], true
	}

	r := rand.Float64() * total
	cumulative := 0.0
	for i, n := range available {
		cumulative += weights[i]
		if r <= cumulative {
			return n, true
		}
	}
	// Floating-point rounding fallback.
	return available[0], true
}

// MoveTo relocates the ant to node, recording it in memory. If the memory
// then holds more than AntMemoryBound nodes, the start node is removed from
// it. No other node is ever evicted, so once the start node is gone the
// memory keeps growing with each new node visited.
func (a *AntAgent) MoveTo(node NodeID) {
	a.VisitedNodes[node] = struct{}{}
	a.CurrentNode = node
	if len(a.VisitedNodes) > AntMemoryBound {
		delete(a.VisitedNodes, a.StartNode)
	}
}

// DropPheromone returns and clears the carried pheromone, if any.
func (a *AntAgent) DropPheromone() *Pheromone {
	p := a.CarriedPheromone
	a.CarriedPheromone = nil
	return p
}

// PickUpPheromone sets the carried pheromone, overwriting any prior one.
func (a *AntAgent) PickUpPheromone(p Pheromone) {
	a.CarriedPheromone = &p
}
