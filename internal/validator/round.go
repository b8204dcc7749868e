package validator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/subnet42/harvester/internal/chain"
	"github.com/subnet42/harvester/internal/registry"
	"github.com/subnet42/harvester/internal/scoring"
	"github.com/subnet42/harvester/internal/synapse"
	"github.com/subnet42/harvester/pkg/signature"
)

// runRound executes one full validation round: sample miners, dispatch the
// collection task, validate and score responses, fold the scores into the
// smoothed vector, and persist state. Overlapping rounds are skipped rather
// than queued.
func (v *Validator) runRound() {
	if !v.roundRunning.CompareAndSwap(false, true) {
		log.Warn().Msg("previous round still running, skipping this tick")
		return
	}
	defer v.roundRunning.Store(false)

	started := time.Now()

	snap := v.registry.Snapshot()
	if snap == nil {
		log.Info().Msg("no registry snapshot yet, skipping round")
		return
	}
	miners := snap.Miners()
	if len(miners) == 0 {
		log.Info().Msg("no active miners, skipping round")
		return
	}

	v.mu.Lock()
	v.state.Round++
	round := v.state.Round
	v.state.syncHotkeys(snap.Hotkeys)
	v.mu.Unlock()

	sample := sampleMiners(miners, v.cfg.SampleSize)
	task := synapse.CollectRequest{
		TaskID:     uuid.NewString(),
		Round:      round,
		Query:      v.nextKeyword(),
		Count:      v.cfg.TargetCount,
		TimeoutSec: int(v.cfg.TaskTimeout.Seconds()),
		IssuedAt:   started.Unix(),
	}

	// The signed message covers the task payload, so every miner receives
	// the exact bytes the signature was produced over.
	payload, err := sonic.Marshal(task)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal round task, aborting round")
		return
	}
	auth, err := v.signRequest(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign round request, aborting round")
		return
	}

	log.Info().
		Int64("round", round).
		Str("task_id", task.TaskID).
		Str("query", task.Query).
		Int("sampled_miners", len(sample)).
		Msg("starting collection round")

	// The round deadline is independent of the shutdown signal: Stop waits
	// for the in-flight round to finish or hit this deadline rather than
	// cancelling dispatch and folding forced zeros into the EMA.
	ctx, cancel := context.WithTimeout(context.Background(), v.cfg.RoundPeriod)
	defer cancel()

	results := v.dispatch(ctx, sample, task, auth)

	now := time.Now()
	roundScores := make(map[int64]float64, len(results))
	for i := range results {
		res := &results[i]
		v.metrics.ResponseState(res.State)

		// Only a delivered response earns anything. Timeouts, transport
		// errors, and empty replies all score zero for the round.
		var final float64
		uniqueNew, total := 0, 0
		if res.State == StateOK {
			uniqueNew, total = v.validateItems(res.Items, task, now)
			score := scoring.Compute(
				res.Peer.UID,
				uniqueNew,
				total,
				v.cfg.TargetCount,
				res.Latency,
				v.cfg.TaskTimeout,
				scoring.ComponentWeights{
					Volume:     v.cfg.VolumeWeight,
					Uniqueness: v.cfg.UniquenessWeight,
					Latency:    v.cfg.LatencyWeight,
				},
			)
			final = score.Final
		}
		roundScores[res.Peer.UID] = final
		v.metrics.SetPeerScore(res.Peer.UID, final)

		log.Debug().
			Int64("uid", res.Peer.UID).
			Str("state", res.State).
			Int("unique_new", uniqueNew).
			Int("total", total).
			Dur("latency", res.Latency).
			Float64("score", final).
			Msg("miner scored")
	}

	evicted := v.dedup.Evict(now)
	v.metrics.SetDedupEntries(v.dedup.Len())

	v.mu.Lock()
	v.state.Scores = scoring.UpdateEMA(v.state.Scores, roundScores, v.cfg.EmaAlpha)
	v.state.Step++
	v.state.Dedup = v.dedup.Snapshot()
	if err := saveState(v.cfg.StateFile, v.state); err != nil {
		log.Error().Err(err).Msg("failed to persist validator state")
	}
	step := v.state.Step
	v.mu.Unlock()

	v.metrics.RoundDone(time.Since(started))

	log.Info().
		Int64("round", round).
		Int("step", step).
		Int("scored_miners", len(roundScores)).
		Int("evicted_fingerprints", evicted).
		Dur("elapsed", time.Since(started)).
		Msg("collection round completed")
}

// signRequest produces the auth headers miners verify. The message binds the
// validator hotkey, a timestamp, and the body hash, so captured signatures
// age out and cannot be replayed with a different payload.
func (v *Validator) signRequest(body []byte) (synapse.AuthHeaders, error) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	message := signature.RequestMessage(v.hotkey, timestamp, signature.BodyHash(body))

	resp, err := v.chain.SignMessage(chain.SignMessageParams{Message: message})
	if err != nil {
		return synapse.AuthHeaders{}, fmt.Errorf("sign message: %w", err)
	}
	if !resp.Success || resp.Data.Signature == "" {
		return synapse.AuthHeaders{}, fmt.Errorf("sidecar refused to sign: %v", resp.Error)
	}

	return synapse.AuthHeaders{
		Hotkey:    v.hotkey,
		Signature: resp.Data.Signature,
		Timestamp: timestamp,
	}, nil
}

// sampleMiners picks up to n miners uniformly without replacement.
func sampleMiners(miners []registry.Peer, n int) []registry.Peer {
	if len(miners) <= n {
		out := make([]registry.Peer, len(miners))
		copy(out, miners)
		return out
	}
	out := make([]registry.Peer, len(miners))
	copy(out, miners)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out[:n]
}
