package validator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadState_MissingFileStartsFresh(t *testing.T) {
	state, err := loadState(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, state.Step)
	assert.NotNil(t, state.Dedup)
}

func TestLoadState_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := loadState(path)
	assert.Error(t, err)
}

func TestSaveState_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	saved := &State{
		Step:    7,
		Round:   21,
		Hotkeys: []string{"hk-a", "hk-b"},
		Scores:  []float64{0.4, 0.1},
		Dedup:   map[string]time.Time{"fp": time.Now().Truncate(time.Second)},
	}
	require.NoError(t, saveState(path, saved))

	// The temp file must not survive a successful save.
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := loadState(path)
	require.NoError(t, err)
	assert.Equal(t, saved.Step, loaded.Step)
	assert.Equal(t, saved.Round, loaded.Round)
	assert.Equal(t, saved.Hotkeys, loaded.Hotkeys)
	assert.Equal(t, saved.Scores, loaded.Scores)
	assert.Len(t, loaded.Dedup, 1)
	assert.False(t, loaded.SavedAt.IsZero())
}

func TestSyncHotkeys_ResetsReplacedUID(t *testing.T) {
	state := &State{
		Hotkeys: []string{"hk-a", "hk-b", "hk-c"},
		Scores:  []float64{0.5, 0.3, 0.2},
	}

	reset := state.syncHotkeys([]string{"hk-a", "hk-new", "hk-c"})

	assert.Equal(t, 1, reset)
	assert.Equal(t, 0.5, state.Scores[0])
	assert.Zero(t, state.Scores[1])
	assert.Equal(t, 0.2, state.Scores[2])
	assert.Equal(t, []string{"hk-a", "hk-new", "hk-c"}, state.Hotkeys)
}

func TestSyncHotkeys_GrowsForNewRegistrations(t *testing.T) {
	state := &State{
		Hotkeys: []string{"hk-a"},
		Scores:  []float64{0.5},
	}

	reset := state.syncHotkeys([]string{"hk-a", "hk-b", "hk-c"})

	assert.Zero(t, reset)
	assert.Len(t, state.Scores, 3)
	assert.Equal(t, 0.5, state.Scores[0])
	assert.Zero(t, state.Scores[1])
}

func TestSyncHotkeys_FreshStateAdoptsAll(t *testing.T) {
	state := &State{}

	reset := state.syncHotkeys([]string{"hk-a", "hk-b"})

	assert.Zero(t, reset)
	assert.Len(t, state.Scores, 2)
	assert.Equal(t, []string{"hk-a", "hk-b"}, state.Hotkeys)
}
