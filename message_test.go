package antconsensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPheromoneBroadcastRoundTrip(t *testing.T) {
	value := NewConsensusValueFromString("payload")
	p, err := EmitPheromone(value, NodeID(3), nil)
	require.NoError(t, err)

	msg := NewPheromoneBroadcast(p, NodeID(3))
	b, err := msg.ToBytes()
	require.NoError(t, err)

	decoded, err := MessageFromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, TypePheromoneBroadcast, decoded.Type)
	require.NotNil(t, decoded.PheromoneBroadcast)
	assert.Equal(t, p.Value, decoded.PheromoneBroadcast.Pheromone.Value)
	assert.Equal(t, p.Intensity, decoded.PheromoneBroadcast.Pheromone.Intensity)

	roundTripped, err := decoded.PheromoneBroadcast.Pheromone.toPheromone()
	require.NoError(t, err)
	assert.Equal(t, p.Signature, roundTripped.Signature)
}

func TestAntMovementRoundTripWithoutPheromone(t *testing.T) {
	msg := NewAntMovement(AntID(7), NodeID(1), NodeID(2), nil)
	b, err := msg.ToBytes()
	require.NoError(t, err)

	decoded, err := MessageFromBytes(b)
	require.NoError(t, err)
	require.NotNil(t, decoded.AntMovement)
	assert.Nil(t, decoded.AntMovement.CarriedPheromone)
	assert.Equal(t, NodeID(2), decoded.AntMovement.ToNode)
}

func TestNeighborDiscoveryRoundTrip(t *testing.T) {
	msg := NewNeighborDiscovery(NodeID(1), []NodeID{2, 3, 4})
	b, err := msg.ToBytes()
	require.NoError(t, err)

	decoded, err := MessageFromBytes(b)
	require.NoError(t, err)
	require.NotNil(t, decoded.NeighborDiscovery)
	assert.ElementsMatch(t, []NodeID{2, 3, 4}, decoded.NeighborDiscovery.Neighbors)
}

func TestSenderOfHeartbeat(t *testing.T) {
	msg := NewHeartbeat(NodeID(42), Timestamp(100))
	sender, ok := msg.Sender()
	assert.True(t, ok)
	assert.Equal(t, NodeID(42), sender)
}

func TestMessageFromBytesRejectsUnknownType(t *testing.T) {
	_, err := MessageFromBytes([]byte(`{"type":"not_a_real_type"}`))
	require.Error(t, err)
	var typed *Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, KindInvalidMessage, typed.Kind)
}

func TestMessageFromBytesRejectsGarbage(t *testing.T) {
	_, err := MessageFromBytes([]byte(`not json at all`))
	assert.Error(t, err)
}

func TestToBytesRejectsOversizedMessage(t *testing.T) {
	huge := make([]NodeID, 40000)
	msg := NewNeighborDiscovery(NodeID(1), huge)
	_, err := msg.ToBytes()
	require.Error(t, err)
	var typed *Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, KindInvalidMessage, typed.Kind)
}
