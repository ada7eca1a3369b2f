package antconsensus

import (
	"encoding/base64"
	"encoding/json"
)

// MaxDatagramSize is the largest payload a single UDP datagram can carry
// (one maximum-size datagram, per spec.md §6). Messages that serialize
// larger are rejected by the sender rather than fragmented.
const MaxDatagramSize = 65507

// MessageType tags which variant a Message carries. Adding a variant is a
// protocol-breaking change — all peers must agree on tags and field names.
type MessageType string

const (
	TypePheromoneBroadcast    MessageType = "pheromone_broadcast"
	TypeAntMovement           MessageType = "ant_movement"
	TypeNeighborDiscovery     MessageType = "neighbor_discovery"
	TypeConsensusAnnouncement MessageType = "consensus_announcement"
	TypeHeartbeat             MessageType = "heartbeat"
)

// wirePheromone is the JSON shape a Pheromone takes on the wire; its
// Signature travels as base64 text to keep the whole message a
// self-describing structured text encoding.
type wirePheromone struct {
	Value     ConsensusValue `json:"value"`
	Source    NodeID         `json:"source"`
	Timestamp Timestamp      `json:"timestamp"`
	Intensity float64        `json:"intensity"`
	Signature string         `json:"signature"`
}

func toWire(p Pheromone) wirePheromone {
	return wirePheromone{
		Value:     p.Value,
		Source:    p.Source,
		Timestamp: p.Timestamp,
		Intensity: p.Intensity,
		Signature: base64.StdEncoding.EncodeToString(p.Signature),
	}
}

func (w wirePheromone) toPheromone() (Pheromone, error) {
	sig, err := base64.StdEncoding.DecodeString(w.Signature)
	if err != nil {
		return Pheromone{}, newErr(KindInvalidMessage, "decode pheromone signature", err)
	}
	return Pheromone{
		Value:     w.Value,
		Source:    w.Source,
		Timestamp: w.Timestamp,
		Intensity: w.Intensity,
		Signature: sig,
	}, nil
}

// PheromoneBroadcastPayload carries one pheromone from its sender.
type PheromoneBroadcastPayload struct {
	Pheromone wirePheromone `json:"pheromone"`
	Sender    NodeID        `json:"sender"`
}

// AntMovementPayload reports one ant hopping from one node to another,
// optionally carrying a pheromone.
type AntMovementPayload struct {
	AntID            AntID          `json:"ant_id"`
	FromNode         NodeID         `json:"from_node"`
	ToNode           NodeID         `json:"to_node"`
	CarriedPheromone *wirePheromone `json:"carried_pheromone,omitempty"`
}

// NeighborDiscoveryPayload announces a node's known neighbor set.
type NeighborDiscoveryPayload struct {
	NodeID    NodeID   `json:"node_id"`
	Neighbors []NodeID `json:"neighbors"`
}

// ConsensusAnnouncementPayload announces a value a node has latched.
type ConsensusAnnouncementPayload struct {
	NodeID NodeID         `json:"node_id"`
	Value  ConsensusValue `json:"value"`
}

// HeartbeatPayload is a liveness/presence signal.
type HeartbeatPayload struct {
	NodeID    NodeID    `json:"node_id"`
	Timestamp Timestamp `json:"timestamp"`
}

// Message is a tagged union over the five wire variants in spec.md §4.5,
// serialized as a single self-describing JSON object: {"type": "...",
// "<variant>": {...}}. Exactly one variant field is populated per Type.
type Message struct {
	Type                  MessageType                    `json:"type"`
	PheromoneBroadcast    *PheromoneBroadcastPayload      `json:"pheromone_broadcast,omitempty"`
	AntMovement           *AntMovementPayload             `json:"ant_movement,omitempty"`
	NeighborDiscovery     *NeighborDiscoveryPayload       `json:"neighbor_discovery,omitempty"`
	ConsensusAnnouncement *ConsensusAnnouncementPayload `json:"consensus_announcement,omitempty"`
	Heartbeat             *HeartbeatPayload             `json:"heartbeat,omitempty"`
}

// NewPheromoneBroadcast builds a PheromoneBroadcast message.
func NewPheromoneBroadcast(p Pheromone, sender NodeID) Message {
	w := toWire(p)
	return Message{Type: TypePheromoneBroadcast, PheromoneBroadcast: &PheromoneBroadcastPayload{Pheromone: w, Sender: sender}}
}

// NewAntMovement builds an AntMovement message. carried may be nil.
func NewAntMovement(antID AntID, from, to NodeID, carried *Pheromone) Message {
	var w *wirePheromone
	if carried != nil {
		wv := toWire(*carried)
		w = &wv
	}
	return Message{Type: TypeAntMovement, AntMovement: &AntMovementPayload{AntID: antID, FromNode: from, ToNode: to, CarriedPheromone: w}}
}

// NewNeighborDiscovery builds a NeighborDiscovery message.
func NewNeighborDiscovery(nodeID NodeID, neighbors []NodeID) Message {
	return Message{Type: TypeNeighborDiscovery, NeighborDiscovery: &NeighborDiscoveryPayload{NodeID: nodeID, Neighbors: neighbors}}
}

// NewConsensusAnnouncement builds a ConsensusAnnouncement message.
func NewConsensusAnnouncement(nodeID NodeID, value ConsensusValue) Message {
	return Message{Type: TypeConsensusAnnouncement, ConsensusAnnouncement: &ConsensusAnnouncementPayload{NodeID: nodeID, Value: value}}
}

// NewHeartbeat builds a Heartbeat message.
func NewHeartbeat(nodeID NodeID, ts Timestamp) Message {
	return Message{Type: TypeHeartbeat, Heartbeat: &HeartbeatPayload{NodeID: nodeID, Timestamp: ts}}
}

// Sender returns the originating node ID for any variant.
func (m Message) Sender() (NodeID, bool) {
	switch m.Type {
	case TypePheromoneBroadcast:
		if m.PheromoneBroadcast != nil {
			return m.PheromoneBroadcast.Sender, true
		}
	case TypeAntMovement:
		if m.AntMovement != nil {
			return m.AntMovement.FromNode, true
		}
	case TypeNeighborDiscovery:
		if m.NeighborDiscovery != nil {
			return m.NeighborDiscovery.NodeID, true
		}
	case TypeConsensusAnnouncement:
		if m.ConsensusAnnouncement != nil {
			return m.ConsensusAnnouncement.NodeID, true
		}
	case TypeHeartbeat:
		if m.Heartbeat != nil {
			return m.Heartbeat.NodeID, true
		}
	}
	return 0, false
}

// ToBytes serializes the message. A message that would exceed
// MaxDatagramSize is rejected rather than sent truncated or fragmented.
func (m Message) ToBytes() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, newErr(KindInvalidMessage, "serialize message", err)
	}
	if len(b) > MaxDatagramSize {
		return nil, newErr(KindInvalidMessage, "message exceeds max datagram size", nil)
	}
	return b, nil
}

// MessageFromBytes deserializes a message, rejecting malformed or
// unrecognized-variant input as InvalidMessage rather than panicking.
func MessageFromBytes(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, newErr(KindInvalidMessage, "deserialize message", err)
	}
	switch m.Type {
	case TypePheromoneBroadcast, TypeAntMovement, TypeNeighborDiscovery, TypeConsensusAnnouncement, TypeHeartbeat:
		return m, nil
	default:
		return Message{}, newErr(KindInvalidMessage, "unknown message type: "+string(m.Type), nil)
	}
}
