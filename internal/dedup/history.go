// Package dedup tracks item fingerprints across rounds so resubmitted items
// earn no new-item credit until they age out of the window.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Fingerprint derives a stable content fingerprint for a collected item.
func Fingerprint(id, text string) string {
	h := sha256.Sum256([]byte(id + "\x00" + text))
	return hex.EncodeToString(h[:])
}

// History is a time-windowed set of fingerprints. The round pipeline is the
// only writer; the mutex exists for read snapshots taken by metrics and
// persistence.
type History struct {
	mu     sync.RWMutex
	window time.Duration
	seen   map[string]time.Time
}

func NewHistory(window time.Duration) *History {
	return &History{
		window: window,
		seen:   make(map[string]time.Time),
	}
}

// Seen reports whether fp is currently inside the window.
func (h *History) Seen(fp string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.seen[fp]
	return ok
}

// Record stores fp with its observation time. Re-recording refreshes the entry.
func (h *History) Record(fp string, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[fp] = at
}

// Evict removes entries older than the window, keeping memory bounded by
// window size times average items per round.
func (h *History) Evict(now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := now.Add(-h.window)
	evicted := 0
	for fp, at := range h.seen {
		if at.Before(cutoff) {
			delete(h.seen, fp)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of fingerprints currently held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.seen)
}

// Snapshot copies the current entries for persistence.
func (h *History) Snapshot() map[string]time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]time.Time, len(h.seen))
	for fp, at := range h.seen {
		out[fp] = at
	}
	return out
}

// Restore replaces the history with persisted entries, dropping any that have
// already aged out.
func (h *History) Restore(entries map[string]time.Time, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := now.Add(-h.window)
	h.seen = make(map[string]time.Time, len(entries))
	for fp, at := range entries {
		if !at.Before(cutoff) {
			h.seen[fp] = at
		}
	}
}
