package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/subnet42/harvester/internal/chain"
	"github.com/subnet42/harvester/internal/config"
	"github.com/subnet42/harvester/internal/miner"
	"github.com/subnet42/harvester/internal/oracle"
	"github.com/subnet42/harvester/internal/registry"
	"github.com/subnet42/harvester/internal/utils/logger"
	"github.com/subnet42/harvester/pkg/signature"
)

func main() {
	logger.Init()
	log.Info().Msg("Starting miner...")

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env not loaded; continuing with existing environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}

	sidecar, err := chain.NewSidecar(&cfg.SidecarEnvConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init chain sidecar client")
	}

	collector, err := oracle.NewClient(&cfg.OracleEnvConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init oracle client")
	}

	reg := registry.New(sidecar, cfg.Netuid, cfg.Environment == "prod")

	m, err := miner.New(cfg, reg, collector, signature.NewVerifier())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init miner")
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutdown signal received, stopping miner")
		cancel()
	}()

	if err := m.Run(ctx); err != nil {
		log.Error().Err(err).Msg("miner exited with error")
	}
	log.Info().Msg("miner stopped")
}
