package validator

import (
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

// State is the validator's durable snapshot between restarts. Scores are
// indexed by uid; Hotkeys mirrors the metagraph at the time of the last save
// so key replacements can be detected on resync.
type State struct {
	Step    int                  `json:"step"`
	Round   int64                `json:"round"`
	Hotkeys []string             `json:"hotkeys"`
	Scores  []float64            `json:"scores"`
	Dedup   map[string]time.Time `json:"dedup"`
	SavedAt time.Time            `json:"saved_at"`
}

func loadState(path string) (*State, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", path).Msg("state file not found, starting fresh")
			return &State{Dedup: map[string]time.Time{}}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	state := &State{}
	if err := sonic.Unmarshal(raw, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state file: %w", err)
	}
	if state.Dedup == nil {
		state.Dedup = map[string]time.Time{}
	}

	log.Info().
		Str("path", path).
		Int("step", state.Step).
		Int64("round", state.Round).
		Int("scored_uids", len(state.Scores)).
		Int("dedup_entries", len(state.Dedup)).
		Msg("loaded validator state")

	return state, nil
}

func saveState(path string, state *State) error {
	state.SavedAt = time.Now()
	raw, err := sonic.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Write-then-rename so a crash mid-save never leaves a torn file behind.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// syncHotkeys reconciles persisted per-uid scores with the current metagraph.
// A uid whose hotkey changed belongs to a new peer, so its smoothed score
// resets to zero rather than inheriting the previous owner's reputation.
func (s *State) syncHotkeys(hotkeys []string) int {
	if len(hotkeys) > len(s.Scores) {
		grown := make([]float64, len(hotkeys))
		copy(grown, s.Scores)
		s.Scores = grown
	}

	reset := 0
	for uid, hotkey := range hotkeys {
		if uid < len(s.Hotkeys) && s.Hotkeys[uid] != "" && s.Hotkeys[uid] != hotkey {
			s.Scores[uid] = 0
			reset++
		}
	}

	s.Hotkeys = make([]string, len(hotkeys))
	copy(s.Hotkeys, hotkeys)

	if reset > 0 {
		log.Info().Int("reset_uids", reset).Msg("hotkey replacements detected, scores zeroed")
	}
	return reset
}
