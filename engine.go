package antconsensus

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// StepInterval is the tick period of the consensus engine's main loop.
const StepInterval = 100 * time.Millisecond

// MaxAntsPerProposal bounds how many explorer ants a single Propose call
// mints, per spec.md §4.2.
const MaxAntsPerProposal = 5

// Engine wires a NodeState to a Transport and drives the periodic step
// loop: evaporate pheromones, age ants, check for consensus and announce
// the latched value, then move ants one hop. Each periodic concern (the
// step loop, neighbor discovery, heartbeat) gets its own ticker goroutine,
// all stopped together by cancelling one context.
type Engine struct {
	node      *NodeState
	transport Transport
	key       SigningKey
	logger    zerolog.Logger

	nextAntID uint64
}

// NewEngine builds an Engine for node, broadcasting over transport and
// signing emitted pheromones with key (key may be empty, yielding
// placeholder signatures per spec.md §4.4).
func NewEngine(node *NodeState, transport Transport, key SigningKey, logger zerolog.Logger) *Engine {
	return &Engine{node: node, transport: transport, key: key, logger: logger}
}

// Propose injects a candidate value: the node emits an initial pheromone
// for it and releases up to min(len(neighbors), MaxAntsPerProposal)
// explorer ants to carry copies outward.
func (e *Engine) Propose(ctx context.Context, value ConsensusValue) error {
	p, err := e.node.EmitPheromone(value, e.key)
	if err != nil {
		return err
	}

	neighbors := e.node.GetNeighbors()
	antCount := len(neighbors)
	if antCount > MaxAntsPerProposal {
		antCount = MaxAntsPerProposal
	}
	for i := 0; i < antCount; i++ {
		e.nextAntID++
		ant := NewAntAgentWithPheromone(AntID(e.nextAntID), e.node.ID(), p.Clone())
		e.node.AddAnt(ant)
	}

	if err := e.transport.Broadcast(ctx, NewPheromoneBroadcast(p, e.node.ID())); err != nil {
		return err
	}
	e.node.recordMessageSent()
	return nil
}

// Run starts the step loop, the neighbor discovery emitter, and the
// heartbeat emitter, and blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	e.transport.OnMessage(func(m Message) {
		DispatchInbound(e.node, m, e.logger)
	})

	go RunNeighborDiscovery(ctx, e.node, e.transport, e.logger)
	go RunHeartbeat(ctx, e.node, e.transport, e.logger)

	e.stepLoop(ctx)
}

func (e *Engine) stepLoop(ctx context.Context) {
	ticker := time.NewTicker(StepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Step(ctx)
		}
	}
}

// Step performs one tick of the engine: decay, age ants, check for
// consensus (announcing the value on every tick it is met, not only the
// first), then advance ants by one hop. This ordering matches
// spec.md §4.4's numbered tick (evaporate, update ants, check consensus,
// move ants) — consensus must be checked against this tick's
// post-evaporation intensities before ants go on to carry them further.
// Broadcasts always happen after the relevant lock has been released,
// per NodeState's concurrency contract. Exported so simulation harnesses
// can drive the engine synchronously without the StepInterval ticker.
func (e *Engine) Step(ctx context.Context) {
	e.node.EvaporatePheromones()
	e.node.UpdateAnts()

	if value, ok := e.node.CheckConsensus(); ok {
		e.logger.Info().Uint32("node_id", uint32(e.node.ID())).Str("value", value.Hex()).Msg("consensus reached")
		if err := e.transport.Broadcast(ctx, NewConsensusAnnouncement(e.node.ID(), value)); err == nil {
			e.node.recordMessageSent()
		} else if ctx.Err() == nil {
			e.logger.Warn().Err(err).Msg("failed to broadcast consensus announcement")
		}
	}

	e.advanceAnts(ctx)
}

// advanceAnts moves every live ant currently at this node one hop toward
// a neighbor, broadcasting an AntMovement for each successful hop.
func (e *Engine) advanceAnts(ctx context.Context) {
	here := e.node.AntsAt(e.node.ID())
	if len(here) == 0 {
		return
	}

	neighbors := e.node.GetNeighbors()
	intensities := e.neighborIntensities(neighbors)

	for _, snap := range here {
		dest, carried, ok := e.node.MoveAnt(snap.ID, neighbors, intensities)
		if !ok {
			continue
		}
		msg := NewAntMovement(snap.ID, e.node.ID(), dest, carried)
		if err := e.transport.Broadcast(ctx, msg); err != nil {
			if ctx.Err() == nil {
				e.logger.Warn().Err(err).Msg("failed to broadcast ant movement")
			}
			continue
		}
		e.node.recordMessageSent()
	}
}

// neighborIntensities reports, for each neighbor, a placeholder routing
// intensity. The protocol does not yet track per-neighbor pheromone
// strength separately from per-value strength (spec.md §4.2, Open
// Question 1); every neighbor is treated as equally attractive until
// that is resolved.
func (e *Engine) neighborIntensities(neighbors []NodeID) []NeighborIntensity {
	out := make([]NeighborIntensity, len(neighbors))
	for i, n := range neighbors {
		out[i] = NeighborIntensity{Node: n, Intensity: 0.5}
	}
	return out
}
