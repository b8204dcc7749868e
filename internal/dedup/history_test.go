package dedup

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint("123", "hello")
	b := Fingerprint("123", "hello")
	c := Fingerprint("124", "hello")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestHistory_RoundTrip(t *testing.T) {
	h := NewHistory(30 * time.Minute)
	now := time.Now()

	fp := Fingerprint("id", "text")
	assert.False(t, h.Seen(fp))

	// recorded in round N, excluded in round N+1
	h.Record(fp, now)
	assert.True(t, h.Seen(fp))

	// re-included after it ages out of the window
	h.Evict(now.Add(31 * time.Minute))
	assert.False(t, h.Seen(fp))
}

func TestHistory_EvictOnlyExpired(t *testing.T) {
	h := NewHistory(10 * time.Minute)
	now := time.Now()

	h.Record("old", now.Add(-11*time.Minute))
	h.Record("fresh", now)

	evicted := h.Evict(now)
	assert.Equal(t, 1, evicted)
	assert.False(t, h.Seen("old"))
	assert.True(t, h.Seen("fresh"))
	assert.Equal(t, 1, h.Len())
}

func TestHistory_SnapshotRestore(t *testing.T) {
	h := NewHistory(time.Hour)
	now := time.Now()
	for i := 0; i < 5; i++ {
		h.Record(Fingerprint(fmt.Sprint(i), "t"), now)
	}
	h.Record("expired", now.Add(-2*time.Hour))

	snap := h.Snapshot()
	assert.Len(t, snap, 6)

	restored := NewHistory(time.Hour)
	restored.Restore(snap, now)
	// expired entry dropped on restore
	assert.Equal(t, 5, restored.Len())
	assert.False(t, restored.Seen("expired"))
}

func TestHistory_Bounded(t *testing.T) {
	h := NewHistory(time.Minute)
	base := time.Now()

	for round := 0; round < 10; round++ {
		at := base.Add(time.Duration(round) * time.Minute)
		for i := 0; i < 100; i++ {
			h.Record(Fingerprint(fmt.Sprintf("%d-%d", round, i), "x"), at)
		}
		h.Evict(at)
	}

	// at most two rounds' worth of items inside a one-minute window
	assert.LessOrEqual(t, h.Len(), 200)
}
