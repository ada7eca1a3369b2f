package antconsensus

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// MarshalJSON renders a ConsensusValue as a hex string, keeping the wire
// format self-describing text rather than a raw byte array.
func (v ConsensusValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Hex())
}

// UnmarshalJSON parses a ConsensusValue from the hex string produced by
// MarshalJSON.
func (v *ConsensusValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("consensus value: %w", err)
	}
	if len(b) != 32 {
		return fmt.Errorf("consensus value: expected 32 bytes, got %d", len(b))
	}
	copy(v.Hash[:], b)
	return nil
}
