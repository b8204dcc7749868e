package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
)

var defaultWeights = ComponentWeights{Volume: 0.5, Uniqueness: 0.3, Latency: 0.2}

func TestCompute_TypicalRound(t *testing.T) {
	// 8 unique + 2 duplicate items against a target of 10, near-instant reply
	s := Compute(7, 8, 10, 10, 10*time.Millisecond, 15*time.Second, defaultWeights)

	assert.InDelta(t, 0.8, s.Volume, 1e-9)
	assert.InDelta(t, 0.8, s.Uniqueness, 1e-9)
	assert.InDelta(t, 1.0, s.Latency, 1e-3)
	assert.InDelta(t, 0.84, s.Final, 1e-3)
}

func TestCompute_Timeout(t *testing.T) {
	timeout := 15 * time.Second
	s := Compute(3, 0, 0, 10, timeout, timeout, defaultWeights)

	assert.Equal(t, 0.0, s.Volume)
	assert.Equal(t, 0.0, s.Latency)
	assert.Equal(t, 0.0, s.Final)
	assert.False(t, math.IsNaN(s.Final))
}

func TestCompute_OverTarget(t *testing.T) {
	s := Compute(1, 25, 25, 10, time.Second, 15*time.Second, defaultWeights)
	assert.Equal(t, 1.0, s.Volume)
	assert.LessOrEqual(t, s.Final, 1.0)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
	assert.Equal(t, 0.0, Clamp01(math.Inf(1)))
	assert.Equal(t, 0.0, Clamp01(-2))
	assert.Equal(t, 1.0, Clamp01(1.5))
	assert.Equal(t, 0.5, Clamp01(0.5))
}

func TestLatencyScore_PastTimeout(t *testing.T) {
	assert.Equal(t, 0.0, LatencyScore(20*time.Second, 15*time.Second))
}

func TestL1Normalize_SumsToOne(t *testing.T) {
	out := L1Normalize([]float64{3, 1, 4, 1, 5})
	assert.InDelta(t, 1.0, floats.Sum(out), 1e-12)
}

func TestL1Normalize_ZeroVector(t *testing.T) {
	out := L1Normalize([]float64{0, 0, 0})
	assert.Equal(t, []float64{0, 0, 0}, out)
}

func TestUpdateEMA_AbsentPeerUnchanged(t *testing.T) {
	emas := []float64{0.5, 0.2, 0.9}
	out := UpdateEMA(emas, map[int64]float64{0: 1.0}, 0.1)

	assert.InDelta(t, 0.55, out[0], 1e-12)
	assert.Equal(t, 0.2, out[1])
	assert.Equal(t, 0.9, out[2])
}

func TestUpdateEMA_GrowsForNewUID(t *testing.T) {
	out := UpdateEMA([]float64{0.1}, map[int64]float64{4: 0.6}, 0.5)
	assert.Len(t, out, 5)
	assert.InDelta(t, 0.3, out[4], 1e-12)
}

func TestUpdateEMA_ClampsMalformedScore(t *testing.T) {
	out := UpdateEMA([]float64{0.4}, map[int64]float64{0: math.NaN()}, 0.5)
	assert.InDelta(t, 0.2, out[0], 1e-12)
	assert.False(t, math.IsNaN(out[0]))
}
