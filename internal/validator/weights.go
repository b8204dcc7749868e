package validator

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/subnet42/harvester/internal/chain"
	"github.com/subnet42/harvester/internal/scoring"
	"github.com/subnet42/harvester/internal/utils/chainutils"
)

const (
	weightsVersionKey = 0

	maxSubmitAttempts = 3
	submitBaseBackoff = 2 * time.Second
)

// setWeights submits the normalized score vector on the configured cadence.
// Submission failure is never fatal; the vector is retried at the next
// eligible step.
func (v *Validator) setWeights() {
	weightSettingSteps := int(v.cfg.WeightSetInterval / v.cfg.RoundPeriod)
	if weightSettingSteps < 1 {
		weightSettingSteps = 1
	}

	v.mu.Lock()
	step := v.state.Step
	scores := make([]float64, len(v.state.Scores))
	copy(scores, v.state.Scores)
	v.mu.Unlock()

	if step == 0 || step%weightSettingSteps != 0 {
		nextStep := ((step / weightSettingSteps) + 1) * weightSettingSteps
		remaining := time.Duration(nextStep-step) * v.cfg.RoundPeriod
		log.Info().Msgf("Current score step is %d. Next weight setting in %.0f minutes", step, remaining.Minutes())
		return
	}

	uids := make([]int64, len(scores))
	for i := range uids {
		uids[i] = int64(i)
	}

	weights := scoring.L1Normalize(chainutils.ClampNegativeWeights(scores))

	if err := v.setWeightsOnChain(uids, weights); err != nil {
		v.metrics.WeightSubmit("failure")
		log.Error().Err(err).Msg("failed to set weights")
		return
	}
	v.metrics.WeightSubmit("success")
}

func (v *Validator) setWeightsOnChain(uids []int64, weights []float64) error {
	dests, emitWeights, err := chainutils.ConvertWeightsAndUidsForEmit(uids, weights)
	if err != nil {
		return fmt.Errorf("convert weights for emit: %w", err)
	}
	if len(dests) == 0 {
		return fmt.Errorf("no positive weights to emit")
	}

	params := chain.SetWeightsParams{
		Netuid:     v.cfg.Netuid,
		Dests:      dests,
		Weights:    emitWeights,
		VersionKey: weightsVersionKey,
	}

	var lastErr error
	for attempt := 0; attempt < maxSubmitAttempts; attempt++ {
		if attempt > 0 {
			backoff := submitBaseBackoff << (attempt - 1)
			select {
			case <-v.ctx.Done():
				return v.ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := v.chain.SetWeights(params)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("set weights attempt failed")
			continue
		}
		if !resp.Success {
			lastErr = fmt.Errorf("ledger rejected weights: %v", resp.Error)
			log.Warn().Int("attempt", attempt+1).Msgf("set weights rejected: %v", resp.Error)
			continue
		}

		log.Info().
			Str("extrinsic", resp.Data).
			Int("uids", len(dests)).
			Msg("weights submitted")
		return nil
	}

	return fmt.Errorf("set weights failed after %d attempts: %w", maxSubmitAttempts, lastErr)
}
