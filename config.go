package antconsensus

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Config holds everything needed to stand up a node, populated from CLI
// flags per spec.md §6.
type Config struct {
	NodeID         uint32
	MulticastAddr  string
	Port           uint16
	Verbose        bool
	StatusAddr     string
	SigningKeyPath string
}

// DefaultConfig returns the configuration spec.md §6 specifies when no
// flags are given.
func DefaultConfig() Config {
	return Config{
		NodeID:        1,
		MulticastAddr: "239.255.0.1:5000",
		Port:          5000,
		Verbose:       false,
		StatusAddr:    "",
	}
}

// Validate rejects configurations that cannot produce a running node.
func (c Config) Validate() error {
	if c.Port == 0 {
		return newErr(KindInternal, "port must be non-zero", nil)
	}
	if c.MulticastAddr == "" {
		return newErr(KindInternal, "multicast address must not be empty", nil)
	}
	return nil
}

// Flags returns the urfave/cli flag set for the node command, bound to
// dst. Call ConfigFromContext after parsing to recover the populated
// Config.
func Flags(dst *Config) []cli.Flag {
	def := DefaultConfig()
	return []cli.Flag{
		&cli.UintFlag{
			Name:  "node-id",
			Value: uint(def.NodeID),
			Usage: "this node's numeric identifier",
		},
		&cli.StringFlag{
			Name:        "multicast-addr",
			Value:       def.MulticastAddr,
			Usage:       "UDP multicast group address (host:port)",
			Destination: &dst.MulticastAddr,
		},
		&cli.UintFlag{
			Name:  "port",
			Value: uint(def.Port),
			Usage: "local UDP port to bind for receiving",
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Value:       def.Verbose,
			Usage:       "enable debug-level logging",
			Destination: &dst.Verbose,
		},
		&cli.StringFlag{
			Name:        "status-addr",
			Value:       def.StatusAddr,
			Usage:       "address to serve the status/metrics HTTP surface on (empty disables it)",
			Destination: &dst.StatusAddr,
		},
		&cli.StringFlag{
			Name:        "signing-key",
			Value:       def.SigningKeyPath,
			Usage:       "path to a hex-encoded 32-byte ed25519 seed (empty emits placeholder signatures)",
			Destination: &dst.SigningKeyPath,
		},
	}
}

// ConfigFromContext builds a Config from a parsed cli.Context, since
// cli.UintFlag cannot bind directly into a uint32/uint16 field.
func ConfigFromContext(c *cli.Context, dst *Config) error {
	dst.NodeID = uint32(c.Uint("node-id"))
	port := c.Uint("port")
	if port > 65535 {
		return fmt.Errorf("port %d out of range", port)
	}
	dst.Port = uint16(port)
	return dst.Validate()
}
