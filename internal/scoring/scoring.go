// Package scoring contains the pure score math for the validator's incentive
// loop: per-round component scores, cross-round smoothing, and normalization.
package scoring

import (
	"math"
	"time"
)

// Score is a peer's bounded per-round score with its components kept for audit.
type Score struct {
	UID        int64   `json:"uid"`
	Volume     float64 `json:"volume_score"`
	Uniqueness float64 `json:"uniqueness_score"`
	Latency    float64 `json:"latency_score"`
	Final      float64 `json:"final_score"`
}

// ComponentWeights are the fixed weights combining the three score components.
type ComponentWeights struct {
	Volume     float64
	Uniqueness float64
	Latency    float64
}

// Clamp01 bounds v to [0,1] and maps NaN/Inf to 0 so malformed input can never
// propagate into the weight vector.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// VolumeScore is the fraction of the target met by new unique items.
func VolumeScore(uniqueNewCount, targetCount int) float64 {
	if targetCount <= 0 {
		return 0
	}
	return Clamp01(float64(uniqueNewCount) / float64(targetCount))
}

// UniquenessScore penalizes responses padded with duplicates.
func UniquenessScore(uniqueNewCount, totalCount int) float64 {
	if totalCount < 1 {
		totalCount = 1
	}
	return Clamp01(float64(uniqueNewCount) / float64(totalCount))
}

// LatencyScore decays linearly from 1 at instant replies to 0 at the timeout.
func LatencyScore(latency, timeout time.Duration) float64 {
	if timeout <= 0 {
		return 0
	}
	return Clamp01(1 - float64(latency)/float64(timeout))
}

// Compute combines component scores into a final score for one peer's round.
func Compute(uid int64, uniqueNewCount, totalCount, targetCount int, latency, timeout time.Duration, w ComponentWeights) Score {
	s := Score{
		UID:        uid,
		Volume:     VolumeScore(uniqueNewCount, targetCount),
		Uniqueness: UniquenessScore(uniqueNewCount, totalCount),
		Latency:    LatencyScore(latency, timeout),
	}
	s.Final = Clamp01(w.Volume*s.Volume + w.Uniqueness*s.Uniqueness + w.Latency*s.Latency)
	return s
}
