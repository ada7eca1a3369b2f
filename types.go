package antconsensus

import (
	"crypto/sha256"
	"encoding/hex"
)

// NodeID identifies a participant in the network.
type NodeID uint32

// AntID uniquely identifies a mobile exploration agent.
type AntID uint64

// Timestamp is seconds since the Unix epoch.
type Timestamp uint64

// ConsensusValue is an opaque value identified by the SHA-256 digest of its
// payload. The payload itself is not retained; only the digest travels
// through the core, so equality and map-keying are both by digest.
type ConsensusValue struct {
	Hash [32]byte
}

// NewConsensusValueFromBytes digests an arbitrary payload into a
// ConsensusValue. Identical payloads always produce equal values; distinct
// payloads produce different digests with overwhelming probability.
func NewConsensusValueFromBytes(data []byte) ConsensusValue {
	return ConsensusValue{Hash: sha256.Sum256(data)}
}

// NewConsensusValueFromString is a convenience wrapper over
// NewConsensusValueFromBytes for UTF-8 string payloads.
func NewConsensusValueFromString(s string) ConsensusValue {
	return NewConsensusValueFromBytes([]byte(s))
}

// Hex renders the digest as a lowercase hex string, useful for logging.
func (v ConsensusValue) Hex() string {
	return hex.EncodeToString(v.Hash[:])
}

func (v ConsensusValue) String() string {
	return v.Hex()
}
