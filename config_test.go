package antconsensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigMatchesSpecDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, uint32(1), cfg.NodeID)
	assert.Equal(t, "239.255.0.1:5000", cfg.MulticastAddr)
	assert.Equal(t, uint16(5000), cfg.Port)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.StatusAddr)
}

func TestValidateRejectsZeroPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsEmptyMulticastAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MulticastAddr = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}
