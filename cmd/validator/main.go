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
	"github.com/subnet42/harvester/internal/metrics"
	"github.com/subnet42/harvester/internal/registry"
	"github.com/subnet42/harvester/internal/synapse"
	"github.com/subnet42/harvester/internal/utils/logger"
	"github.com/subnet42/harvester/internal/validator"
)

func main() {
	logger.Init()
	log.Info().Msg("Starting validator...")

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

	reg := registry.New(sidecar, cfg.Netuid, cfg.Environment == "prod")
	dialer := synapse.NewClient(synapse.Config{ClientTimeout: cfg.TaskTimeout})
	m := metrics.New()

	v, err := validator.NewValidator(cfg, sidecar, reg, dialer, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init validator")
	}

	metricsCtx, metricsCancel := context.WithCancel(context.Background())
	defer metricsCancel()
	go func() {
		if err := m.Serve(metricsCtx, cfg.MetricsPort); err != nil {
			log.Error().Err(err).Msg("metrics endpoint stopped")
		}
	}()

	// setup signal handling for graceful shutdown before starting validator
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("shutdown signal received, stopping validator")
		v.Stop()
	}()

	v.Start()

	<-v.Done()
	log.Info().Msg("validator stopped")
}
