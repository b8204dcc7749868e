package scoring

// UpdateEMA folds one round's scores into the per-peer moving averages.
// Only uids present in roundScores are touched; a peer absent from the round
// keeps its prior average. The emas slice is grown if a uid exceeds its length
// (metagraph expansion).
func UpdateEMA(emas []float64, roundScores map[int64]float64, alpha float64) []float64 {
	maxUID := int64(len(emas)) - 1
	for uid := range roundScores {
		if uid > maxUID {
			maxUID = uid
		}
	}
	if int(maxUID)+1 > len(emas) {
		grown := make([]float64, maxUID+1)
		copy(grown, emas)
		emas = grown
	}

	for uid, score := range roundScores {
		emas[uid] = alpha*Clamp01(score) + (1-alpha)*emas[uid]
	}
	return emas
}
