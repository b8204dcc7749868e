package validator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/subnet42/harvester/internal/chain"
	"github.com/subnet42/harvester/internal/config"
	"github.com/subnet42/harvester/internal/dedup"
	"github.com/subnet42/harvester/internal/metrics"
)

// Validator coordinates collection rounds and on-chain weights for a subnet.
type Validator struct {
	chain    chain.Client
	registry RegistrySource
	dialer   Dialer
	metrics  *metrics.Metrics

	cfg    *config.AppConfig
	hotkey string

	dedup *dedup.History

	mu    sync.Mutex // guards state
	state *State

	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	roundRunning atomic.Bool
	keywordIdx   atomic.Int64
}

func NewValidator(
	cfg *config.AppConfig,
	chainClient chain.Client,
	reg RegistrySource,
	dialer Dialer,
	m *metrics.Metrics,
) (*Validator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid validator config: %w", err)
	}

	keyring, err := chainClient.GetKeyringPair()
	if err != nil {
		return nil, fmt.Errorf("failed to get validator keyring: %w", err)
	}
	hotkey := keyring.Data.KeyringPair.Address
	if hotkey == "" {
		return nil, fmt.Errorf("sidecar returned empty validator hotkey")
	}

	state, err := loadState(cfg.StateFile)
	if err != nil {
		return nil, err
	}

	history := dedup.NewHistory(cfg.DedupWindow)
	history.Restore(state.Dedup, time.Now())

	ctx, cancel := context.WithCancel(context.Background())

	log.Info().Str("hotkey", hotkey).Int("netuid", cfg.Netuid).Msg("validator initialized")

	return &Validator{
		chain:    chainClient,
		registry: reg,
		dialer:   dialer,
		metrics:  m,
		cfg:      cfg,
		hotkey:   hotkey,
		dedup:    history,
		state:    state,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// runTicker runs fn periodically until the context is canceled. fn executes in
// its own goroutine so the ticker loop keeps its cadence, and each invocation
// joins the WaitGroup so Stop waits for an in-flight round instead of
// abandoning it mid-validation.
func (v *Validator) runTicker(ctx context.Context, d time.Duration, fn func()) {
	defer v.wg.Done()
	t := time.NewTicker(d)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			v.wg.Add(1)
			go func() {
				defer v.wg.Done()
				fn()
			}()
		}
	}
}

// Start kicks off the periodic registry sync and round loops.
func (v *Validator) Start() {
	v.wg.Add(1)
	go v.runTicker(v.ctx, v.cfg.RegistryInterval, func() {
		v.syncRegistry()
	})

	v.wg.Add(1)
	go v.runTicker(v.ctx, v.cfg.RoundPeriod, func() {
		v.runRound()
		v.setWeights()
	})
}

// Done is closed once Stop has been requested.
func (v *Validator) Done() <-chan struct{} {
	return v.ctx.Done()
}

// Stop cancels background routines and waits for them to finish.
func (v *Validator) Stop() {
	if v.cancel != nil {
		v.cancel()
	}
	v.wg.Wait()
}

func (v *Validator) syncRegistry() {
	if err := v.registry.Refresh(v.ctx); err != nil {
		log.Error().Err(err).Msg("registry refresh failed")
		return
	}
	if snap := v.registry.Snapshot(); snap != nil {
		v.metrics.SetRegisteredPeers(len(snap.Peers))
	}
}

func (v *Validator) nextKeyword() string {
	idx := v.keywordIdx.Add(1) - 1
	return v.cfg.Keywords[int(idx)%len(v.cfg.Keywords)]
}
