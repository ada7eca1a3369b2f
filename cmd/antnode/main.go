// Command antnode runs a single ant-colony consensus node: it joins a UDP
// multicast group, gossips pheromones and ant movements with any peers on
// the same group, and optionally serves a status/metrics HTTP surface.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/ed25519"

	"antconsensus"
	"antconsensus/statusapi"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var cfg antconsensus.Config

	app := &cli.App{
		Name:  "antnode",
		Usage: "run a single ant-colony consensus node",
		Flags: antconsensus.Flags(&cfg),
		Action: func(c *cli.Context) error {
			if err := antconsensus.ConfigFromContext(c, &cfg); err != nil {
				return err
			}
			return runNode(cfg)
		},
	}
	return app.Run(args)
}

func runNode(cfg antconsensus.Config) error {
	logger := antconsensus.NewLogger(antconsensus.NodeID(cfg.NodeID), cfg.Verbose)

	var key antconsensus.SigningKey
	if cfg.SigningKeyPath != "" {
		raw, err := os.ReadFile(cfg.SigningKeyPath)
		if err != nil {
			return fmt.Errorf("read signing key: %w", err)
		}
		seed, err := hex.DecodeString(string(raw))
		if err != nil {
			return fmt.Errorf("decode signing key: %w", err)
		}
		if len(seed) != ed25519.SeedSize {
			return fmt.Errorf("signing key must be a %d-byte seed, got %d bytes", ed25519.SeedSize, len(seed))
		}
		key = ed25519.NewKeyFromSeed(seed)
	}

	node := antconsensus.NewNodeState(antconsensus.NodeID(cfg.NodeID))
	logger = antconsensus.WithInstance(logger, node.InstanceID())
	transport, err := antconsensus.NewUDPMulticastTransport(cfg.MulticastAddr, cfg.Port, logger)
	if err != nil {
		return err
	}
	engine := antconsensus.NewEngine(node, transport, key, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.StatusAddr != "" {
		registry := prometheus.NewRegistry()
		statusapi.NewMetrics(node, registry)
		router := statusapi.NewRouter(node, registry)
		go func() {
			if err := router.Run(cfg.StatusAddr); err != nil {
				logger.Error().Err(err).Msg("status server exited")
			}
		}()
	}

	go engine.Run(ctx)

	logger.Info().
		Str("multicast_addr", cfg.MulticastAddr).
		Uint16("port", cfg.Port).
		Msg("node starting")

	err = transport.Run(ctx)
	if err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info().Msg("node shut down cleanly")
	return nil
}
