package antconsensus

import (
	"sync"

	"github.com/google/uuid"
)

const (
	// DefaultEvaporationRate is the per-step pheromone decay rate.
	DefaultEvaporationRate = 0.01
	// MaxNeighbors is the soft cap on the neighbor set's size.
	MaxNeighbors = 32
)

// NodeStats tracks per-node counters, exposed read-only via GetStats and
// the optional status surface.
type NodeStats struct {
	PheromonesReceived uint64
	PheromonesEmitted  uint64
	AntsCreated        uint64
	ConsensusReached   uint64
	MessagesSent       uint64
	MessagesReceived   uint64
}

// NodeState is the per-node store of pheromones, live ants, the neighbor
// set, and statistics. It is safe for concurrent use: a single
// reader-writer lock guards everything, with short reads for
// GetNeighbors/GetStats and writers for the step loop and inbound message
// handlers. Callers must never hold NodeState's lock across a network
// send — acquire, mutate, release, then broadcast.
type NodeState struct {
	mu sync.RWMutex

	id              NodeID
	instanceID      string
	currentValue    *ConsensusValue
	pheromones      map[ConsensusValue][]Pheromone
	ants            []*AntAgent
	neighbors       map[NodeID]struct{}
	evaporationRate float64
	stats           NodeStats
}

// NewNodeState creates an empty NodeState for id.
func NewNodeState(id NodeID) *NodeState {
	return &NodeState{
		id:              id,
		instanceID:      uuid.NewString(),
		pheromones:      make(map[ConsensusValue][]Pheromone),
		neighbors:       make(map[NodeID]struct{}),
		evaporationRate: DefaultEvaporationRate,
	}
}

// ID returns the node's own identifier.
func (n *NodeState) ID() NodeID { return n.id }

// InstanceID returns a random identifier minted when this NodeState was
// constructed. Unlike ID, it is not stable across restarts, so log lines
// and status responses can distinguish one process's run of a given
// NodeID from the next after a crash and restart.
func (n *NodeState) InstanceID() string { return n.instanceID }

// AddNeighbor inserts a neighbor unless it is the node itself. Exceeding
// MaxNeighbors is permitted but the excess is silently discarded, per
// spec.md §4.3.
func (n *NodeState) AddNeighbor(neighbor NodeID) {
	if neighbor == n.id {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.neighbors[neighbor]; ok {
		return
	}
	if len(n.neighbors) >= MaxNeighbors {
		return
	}
	n.neighbors[neighbor] = struct{}{}
}

// GetNeighbors returns a snapshot of the current neighbor set.
func (n *NodeState) GetNeighbors() []NodeID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]NodeID, 0, len(n.neighbors))
	for id := range n.neighbors {
		out = append(out, id)
	}
	return out
}

// GetStats returns a snapshot copy of the node's statistics.
func (n *NodeState) GetStats() NodeStats {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.stats
}

// CurrentValue returns the latched consensus value, if any.
func (n *NodeState) CurrentValue() (ConsensusValue, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.currentValue == nil {
		return ConsensusValue{}, false
	}
	return *n.currentValue, true
}

// EmitPheromone constructs a pheromone for value signed with key, stores a
// copy locally, and increments the emitted counter. The returned pheromone
// is what the caller should broadcast.
func (n *NodeState) EmitPheromone(value ConsensusValue, key SigningKey) (Pheromone, error) {
	p, err := EmitPheromone(value, n.id, key)
	if err != nil {
		return Pheromone{}, err
	}
	n.mu.Lock()
	n.pheromones[value] = append(n.pheromones[value], p.Clone())
	n.stats.PheromonesEmitted++
	n.mu.Unlock()
	return p, nil
}

// ReceivePheromone appends an already-constructed pheromone into its value
// bucket and increments the received counter. Signature verification is
// the caller's responsibility; malformed pheromones should be dropped
// before reaching this method.
func (n *NodeState) ReceivePheromone(p Pheromone) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pheromones[p.Value] = append(n.pheromones[p.Value], p.Clone())
	n.stats.PheromonesReceived++
}

// EvaporatePheromones decays every stored pheromone's intensity by the
// node's rate, drops any pheromone that falls below the removal floor, and
// drops any value bucket left empty as a result.
func (n *NodeState) EvaporatePheromones() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for value, list := range n.pheromones {
		kept := list[:0]
		for i := range list {
			list[i].Evaporate(n.evaporationRate)
			if !list[i].ShouldRemove() {
				kept = append(kept, list[i])
			}
		}
		if len(kept) == 0 {
			delete(n.pheromones, value)
		} else {
			n.pheromones[value] = kept
		}
	}
}

// CheckConsensus computes each value bucket's average intensity and latches
// the value with the highest average if it meets ConsensusThreshold. Ties
// are broken arbitrarily by map iteration order — callers must not depend
// on a specific tie-break.
func (n *NodeState) CheckConsensus() (ConsensusValue, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var best ConsensusValue
	bestAvg := -1.0
	found := false
	for value, list := range n.pheromones {
		if len(list) == 0 {
			continue
		}
		sum := 0.0
		for _, p := range list {
			sum += p.Strength()
		}
		avg := sum / float64(len(list))
		if avg > bestAvg {
			bestAvg = avg
			best = value
			found = true
		}
	}

	if found && bestAvg >= ConsensusThreshold {
		n.currentValue = &best
		n.stats.ConsensusReached++
		return best, true
	}
	return ConsensusValue{}, false
}

// LatchValue directly sets the current consensus value without going
// through CheckConsensus and without touching the ConsensusReached counter.
// Nothing in this module calls it.
func (n *NodeState) LatchValue(v ConsensusValue) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.currentValue = &v
}

// AddAnt registers a new ant agent at this node and increments the created
// counter.
func (n *NodeState) AddAnt(a *AntAgent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ants = append(n.ants, a)
	n.stats.AntsCreated++
}

// CleanupDeadAnts removes every ant whose energy has been exhausted.
func (n *NodeState) CleanupDeadAnts() {
	n.mu.Lock()
	defer n.mu.Unlock()
	alive := n.ants[:0]
	for _, a := range n.ants {
		if a.IsAlive() {
			alive = append(alive, a)
		}
	}
	n.ants = alive
}

// UpdateAnts decays every live ant's energy by one tick, then removes the
// ones that died as a result.
func (n *NodeState) UpdateAnts() {
	n.mu.Lock()
	for _, a := range n.ants {
		a.UpdateEnergy()
	}
	n.mu.Unlock()
	n.CleanupDeadAnts()
}

// antSnapshot is a value copy of the fields the step loop needs to decide
// ant movement without holding NodeState's lock while it computes or
// broadcasts.
type antSnapshot struct {
	ID               AntID
	CurrentNode      NodeID
	CarriedPheromone *Pheromone
}

// AntsAt returns a snapshot of every live ant in this NodeState currently
// located at node, without holding the lock past the copy.
func (n *NodeState) AntsAt(node NodeID) []antSnapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]antSnapshot, 0, len(n.ants))
	for _, a := range n.ants {
		if !a.IsAlive() || a.CurrentNode != node {
			continue
		}
		var cp *Pheromone
		if a.CarriedPheromone != nil {
			clone := a.CarriedPheromone.Clone()
			cp = &clone
		}
		out = append(out, antSnapshot{ID: a.ID, CurrentNode: a.CurrentNode, CarriedPheromone: cp})
	}
	return out
}

// MoveAnt selects the next hop for the ant identified by id among
// neighbors/intensities and moves it there, returning the destination.
// ok is false if the ant is unknown, dead, or has no available next hop.
func (n *NodeState) MoveAnt(id AntID, neighbors []NodeID, intensities []NeighborIntensity) (NodeID, *Pheromone, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, a := range n.ants {
		if a.ID != id || !a.IsAlive() {
			continue
		}
		next, ok := a.SelectNextNode(neighbors, intensities)
		if !ok {
			return 0, nil, false
		}
		a.MoveTo(next)
		var cp *Pheromone
		if a.CarriedPheromone != nil {
			clone := a.CarriedPheromone.Clone()
			cp = &clone
		}
		return next, cp, true
	}
	return 0, nil, false
}

// PheromoneBucketCount reports how many distinct values currently hold
// pheromones, used by the status surface.
func (n *NodeState) PheromoneBucketCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.pheromones)
}

// AliveAntCount reports the number of currently-alive ants at this node.
func (n *NodeState) AliveAntCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	count := 0
	for _, a := range n.ants {
		if a.IsAlive() {
			count++
		}
	}
	return count
}

func (n *NodeState) recordMessageSent()     { n.mu.Lock(); n.stats.MessagesSent++; n.mu.Unlock() }
func (n *NodeState) recordMessageReceived() { n.mu.Lock(); n.stats.MessagesReceived++; n.mu.Unlock() }
