package antconsensus

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DiscoveryInterval is how often a node announces its known neighbors.
const DiscoveryInterval = 10 * time.Second

// HeartbeatInterval is how often a node emits a liveness heartbeat.
const HeartbeatInterval = 5 * time.Second

// RunNeighborDiscovery periodically broadcasts a NeighborDiscovery message
// containing this node's ID and current neighbor set, until ctx is
// cancelled. Passive ingestion of neighbors observed on inbound pheromone
// broadcasts, neighbor discoveries and heartbeats happens in the message
// dispatcher, not here; ant movements and consensus announcements add no
// neighbor.
func RunNeighborDiscovery(ctx context.Context, node *NodeState, transport Transport, logger zerolog.Logger) {
	ticker := time.NewTicker(DiscoveryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := NewNeighborDiscovery(node.ID(), node.GetNeighbors())
			if err := transport.Broadcast(ctx, msg); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn().Err(err).Msg("failed to broadcast neighbor discovery")
			}
		}
	}
}

// RunHeartbeat periodically broadcasts a Heartbeat message until ctx is
// cancelled.
func RunHeartbeat(ctx context.Context, node *NodeState, transport Transport, logger zerolog.Logger) {
	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := NewHeartbeat(node.ID(), Timestamp(time.Now().Unix()))
			if err := transport.Broadcast(ctx, msg); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn().Err(err).Msg("failed to broadcast heartbeat")
			}
		}
	}
}

// DispatchInbound applies an inbound message to node's state, implementing
// the per-variant rules in spec.md §4.5. It never returns an error: a
// message that cannot sensibly be applied (e.g. a stale or foreign
// announcement) is simply a no-op.
func DispatchInbound(node *NodeState, msg Message, logger zerolog.Logger) {
	node.recordMessageReceived()

	switch msg.Type {
	case TypePheromoneBroadcast:
		p := msg.PheromoneBroadcast
		if p == nil || p.Sender == node.ID() {
			return
		}
		node.AddNeighbor(p.Sender)
		pheromone, err := p.Pheromone.toPheromone()
		if err != nil {
			logger.Debug().Err(err).Msg("dropping malformed pheromone broadcast")
			return
		}
		node.ReceivePheromone(pheromone)

	case TypeAntMovement:
		am := msg.AntMovement
		if am == nil || am.ToNode != node.ID() || am.CarriedPheromone == nil {
			return
		}
		pheromone, err := am.CarriedPheromone.toPheromone()
		if err != nil {
			logger.Debug().Err(err).Msg("dropping malformed ant movement")
			return
		}
		node.ReceivePheromone(pheromone)

	case TypeNeighborDiscovery:
		nd := msg.NeighborDiscovery
		if nd == nil || nd.NodeID == node.ID() {
			return
		}
		node.AddNeighbor(nd.NodeID)
		for _, neighbor := range nd.Neighbors {
			node.AddNeighbor(neighbor)
		}

	case TypeConsensusAnnouncement:
		ca := msg.ConsensusAnnouncement
		if ca == nil || ca.NodeID == node.ID() {
			return
		}
		// Observation only: latching happens solely via this node's own
		// threshold crossing (spec.md §4.5, Open Question 2).
		logger.Info().Uint32("announcer", uint32(ca.NodeID)).Str("value", ca.Value.Hex()).Msg("observed remote consensus announcement")

	case TypeHeartbeat:
		hb := msg.Heartbeat
		if hb == nil || hb.NodeID == node.ID() {
			return
		}
		node.AddNeighbor(hb.NodeID)
	}
}
