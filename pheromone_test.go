package antconsensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsensusValueDeterministic(t *testing.T) {
	a := NewConsensusValueFromString("block-42")
	b := NewConsensusValueFromString("block-42")
	c := NewConsensusValueFromString("block-43")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestEmitPheromonePlaceholderSignature(t *testing.T) {
	value := NewConsensusValueFromString("proposal")
	p, err := EmitPheromone(value, NodeID(1), nil)
	require.NoError(t, err)

	assert.Equal(t, InitialIntensity, p.Intensity)
	assert.Len(t, p.Signature, placeholderSignatureSize)
	for _, b := range p.Signature {
		assert.Zero(t, b)
	}
	// A placeholder signature must never verify, even against a real key.
	pub, _, err := GenerateSigningKey()
	require.NoError(t, err)
	assert.False(t, p.Verify(pub))
}

func TestEmitPheromoneRealSignatureRoundTrips(t *testing.T) {
	pub, priv, err := GenerateSigningKey()
	require.NoError(t, err)

	value := NewConsensusValueFromString("proposal")
	p, err := EmitPheromone(value, NodeID(7), priv)
	require.NoError(t, err)

	assert.True(t, p.Verify(pub))

	tampered := p
	tampered.Source = NodeID(8)
	assert.False(t, tampered.Verify(pub))
}

func TestEvaporateSingleStep(t *testing.T) {
	p := Pheromone{Intensity: 1.0}
	p.Evaporate(0.1)
	assert.InDelta(t, 0.9, p.Intensity, 1e-12)
}

func TestEvaporateManyStepsDropsBelowHalf(t *testing.T) {
	p := Pheromone{Intensity: 1.0}
	p.Evaporate(0.1)
	for i := 0; i < 100; i++ {
		p.Evaporate(0.01)
	}
	assert.Less(t, p.Intensity, 0.5)
}

func TestEvaporateClampsRate(t *testing.T) {
	p := Pheromone{Intensity: 1.0}
	p.Evaporate(5.0)
	assert.Equal(t, 0.0, p.Intensity)

	p2 := Pheromone{Intensity: 1.0}
	p2.Evaporate(-5.0)
	assert.Equal(t, 1.0, p2.Intensity)
}

func TestShouldRemoveAndIsStrongEnough(t *testing.T) {
	strong := Pheromone{Intensity: 0.8}
	assert.True(t, strong.IsStrongEnough())
	assert.False(t, strong.ShouldRemove())

	weak := Pheromone{Intensity: 0.005}
	assert.False(t, weak.IsStrongEnough())
	assert.True(t, weak.ShouldRemove())
}

func TestCloneIsIndependentCopy(t *testing.T) {
	p := Pheromone{Signature: []byte{1, 2, 3}}
	clone := p.Clone()
	clone.Signature[0] = 99
	assert.Equal(t, byte(1), p.Signature[0])
}
