package validator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/subnet42/harvester/internal/registry"
	"github.com/subnet42/harvester/internal/synapse"
)

// dispatch fans the task out to every sampled miner, at most MaxConcurrency
// in flight at once, each call bounded by the task timeout. A slow or dead
// miner only costs its own slot; the round joins on all results.
func (v *Validator) dispatch(ctx context.Context, sample []registry.Peer, task synapse.CollectRequest, auth synapse.AuthHeaders) []minerResult {
	results := make([]minerResult, len(sample))
	sem := make(chan struct{}, v.cfg.MaxConcurrency)

	var wg sync.WaitGroup
	for i, peer := range sample {
		wg.Add(1)
		go func(i int, peer registry.Peer) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			v.metrics.TaskDispatched()
			results[i] = v.collectFrom(ctx, peer, task, auth)
		}(i, peer)
	}
	wg.Wait()

	return results
}

func (v *Validator) collectFrom(ctx context.Context, peer registry.Peer, task synapse.CollectRequest, auth synapse.AuthHeaders) minerResult {
	callCtx, cancel := context.WithTimeout(ctx, v.cfg.TaskTimeout)
	defer cancel()

	started := time.Now()
	resp, err := v.dialer.Collect(callCtx, peer.Endpoint, auth, task)
	latency := time.Since(started)

	result := minerResult{Peer: peer, Latency: latency}
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		result.State = StateTimeout
		result.Err = err
	case err != nil:
		result.State = StateError
		result.Err = err
		log.Debug().Err(err).Int64("uid", peer.UID).Str("endpoint", peer.Endpoint).Msg("miner call failed")
	case len(resp.Items) == 0:
		result.State = StateEmpty
	default:
		result.State = StateOK
		result.Items = resp.Items
	}
	return result
}
