package antconsensus

import (
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds a console-writer zerolog.Logger tagged with this
// node's ID, at debug level when verbose is set and info level otherwise.
func NewLogger(nodeID NodeID, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(writer).Level(level).With().Timestamp().Uint32("node_id", uint32(nodeID)).Logger()
}

// WithInstance returns a derived logger with this run's instance ID
// attached, for correlating log lines across a single process's lifetime.
func WithInstance(logger zerolog.Logger, instanceID string) zerolog.Logger {
	return logger.With().Str("instance_id", instanceID).Logger()
}
