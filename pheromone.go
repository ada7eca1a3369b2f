package antconsensus

import (
	"encoding/binary"
	"time"
)

const (
	// ConsensusThreshold is the minimum average bucket intensity required
	// to latch a value (see NodeState.CheckConsensus).
	ConsensusThreshold = 0.8
	// RemovalFloor is the intensity below which a pheromone is dropped.
	RemovalFloor = 0.01
	// InitialIntensity is the intensity a freshly emitted pheromone starts at.
	InitialIntensity = 1.0
)

// Pheromone is a signed, timestamped, decaying marker advocating one
// consensus value, emitted by one node.
type Pheromone struct {
	Value     ConsensusValue
	Source    NodeID
	Timestamp Timestamp
	Intensity float64
	Signature []byte
}

// canonicalMessage is the bit-exact 44-byte message that gets signed:
// digest(32) || timestamp_be(8) || source_be(4). No framing, no padding,
// no version prefix — cross-implementation compatibility depends on this.
func canonicalMessage(value ConsensusValue, ts Timestamp, source NodeID) []byte {
	msg := make([]byte, 0, 44)
	msg = append(msg, value.Hash[:]...)
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(ts))
	msg = append(msg, tsBuf[:]...)
	var srcBuf [4]byte
	binary.BigEndian.PutUint32(srcBuf[:], uint32(source))
	msg = append(msg, srcBuf[:]...)
	return msg
}

// EmitPheromone captures the current wall-clock second, composes the
// canonical message, signs it with key, and returns a pheromone at initial
// intensity. A nil/empty key produces the placeholder signature described
// in spec.md §4.1 rather than an error.
func EmitPheromone(value ConsensusValue, source NodeID, key SigningKey) (Pheromone, error) {
	ts := Timestamp(time.Now().Unix())
	msg := canonicalMessage(value, ts, source)
	sig, err := sign(msg, key)
	if err != nil {
		return Pheromone{}, err
	}
	return Pheromone{
		Value:     value,
		Source:    source,
		Timestamp: ts,
		Intensity: InitialIntensity,
		Signature: sig,
	}, nil
}

// Verify recomputes the canonical message and checks the signature against
// pub. It never panics; any malformed signature or key is reported as
// verification failure.
func (p Pheromone) Verify(pub PublicKey) bool {
	msg := canonicalMessage(p.Value, p.Timestamp, p.Source)
	return verify(msg, p.Signature, pub)
}

// Evaporate mutates intensity to intensity*(1-rate). rate is clamped to
// [0,1] before use.
func (p *Pheromone) Evaporate(rate float64) {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	p.Intensity *= 1 - rate
}

// Strength returns the pheromone's current intensity.
func (p Pheromone) Strength() float64 {
	return p.Intensity
}

// IsStrongEnough reports whether the pheromone alone meets the consensus
// threshold.
func (p Pheromone) IsStrongEnough() bool {
	return p.Intensity >= ConsensusThreshold
}

// ShouldRemove reports whether the pheromone has decayed past the removal
// floor and must be dropped.
func (p Pheromone) ShouldRemove() bool {
	return p.Intensity < RemovalFloor
}

// Clone returns a value copy of p. Pheromones crossing node or ant
// boundaries are always copied, never shared.
func (p Pheromone) Clone() Pheromone {
	sig := make([]byte, len(p.Signature))
	copy(sig, p.Signature)
	p.Signature = sig
	return p
}
