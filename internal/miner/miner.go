// Package miner runs the data-collection side of the subnet: an axon server
// accepting signed collection tasks from validators and delegating the actual
// scraping to the oracle service.
package miner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/subnet42/harvester/internal/config"
	"github.com/subnet42/harvester/internal/registry"
	"github.com/subnet42/harvester/internal/synapse"
)

// Collector abstracts the oracle client so handlers can be tested without a
// live oracle.
type Collector interface {
	Collect(ctx context.Context, query string, count int) ([]synapse.Item, error)
}

type Miner struct {
	cfg      *config.AppConfig
	registry *registry.Registry
	oracle   Collector
	server   *synapse.Server
}

func New(cfg *config.AppConfig, reg *registry.Registry, collector Collector, verifier synapse.SignatureVerifier) (*Miner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if reg == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	if collector == nil {
		return nil, fmt.Errorf("collector is nil")
	}

	m := &Miner{
		cfg:      cfg,
		registry: reg,
		oracle:   collector,
	}

	serverCfg := synapse.Config{
		Address:       cfg.AxonIP,
		Port:          cfg.AxonPort,
		BodySizeLimit: cfg.BodySizeLimit,
	}
	m.server = synapse.NewServer(serverCfg, &peerGate{
		inner:    verifier,
		registry: reg,
		minStake: cfg.MinStakeRequired,
	}, m.handleCollect)

	return m, nil
}

// Run serves the axon and keeps the peer registry fresh until ctx is
// cancelled.
func (m *Miner) Run(ctx context.Context) error {
	if err := m.registry.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial registry refresh failed, axon will reject validators until one succeeds")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.runRegistryLoop(ctx)
	}()

	err := m.server.Start(ctx)
	wg.Wait()
	return err
}

func (m *Miner) runRegistryLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.RegistryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.registry.Refresh(ctx); err != nil {
				log.Error().Err(err).Msg("registry refresh failed")
			}
		}
	}
}

func (m *Miner) handleCollect(ctx context.Context, req synapse.CollectRequest) (synapse.CollectResponse, error) {
	if req.Query == "" {
		return synapse.CollectResponse{}, fmt.Errorf("empty query")
	}
	if req.Count <= 0 {
		return synapse.CollectResponse{}, fmt.Errorf("non-positive item count %d", req.Count)
	}

	// Honor the validator's deadline so we never waste oracle work on a
	// request the caller has already given up on.
	if req.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutSec)*time.Second)
		defer cancel()
	}

	items, err := m.oracle.Collect(ctx, req.Query, req.Count)
	if err != nil {
		log.Error().Err(err).Str("task_id", req.TaskID).Str("query", req.Query).Msg("oracle collection failed")
		return synapse.CollectResponse{}, err
	}

	log.Info().
		Str("task_id", req.TaskID).
		Str("query", req.Query).
		Int("items", len(items)).
		Msg("collected items for task")

	return synapse.CollectResponse{Items: items}, nil
}

// peerGate layers registration and stake checks on top of cryptographic
// signature verification. A hotkey that signs correctly but is not a staked
// validator on this subnet is still rejected.
type peerGate struct {
	inner    synapse.SignatureVerifier
	registry *registry.Registry
	minStake float64
}

func (g *peerGate) Verify(message, sig, ss58Address string) (bool, error) {
	ok, err := g.inner.Verify(message, sig, ss58Address)
	if err != nil || !ok {
		return ok, err
	}

	peer, found := g.registry.Snapshot().Lookup(ss58Address)
	if !found {
		log.Warn().Str("hotkey", ss58Address).Msg("rejecting request from unregistered hotkey")
		return false, nil
	}
	if peer.Role != registry.RoleValidator {
		log.Warn().Str("hotkey", ss58Address).Msg("rejecting request from non-validator peer")
		return false, nil
	}
	if peer.Stake < g.minStake {
		log.Warn().Str("hotkey", ss58Address).Float64("stake", peer.Stake).Msg("rejecting request below stake threshold")
		return false, nil
	}
	return true, nil
}
