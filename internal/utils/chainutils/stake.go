package chainutils

const (
	// Root stake counts toward effective stake at a discount.
	rootStakeFactor = 0.18

	devStakeFilter  = 1000
	prodStakeFilter = 10000
)

// IsMinerStake reports whether a peer's effective stake puts it below the
// validator threshold, which is how the subnet distinguishes miners from
// validators on the metagraph.
func IsMinerStake(alphaStake, rootStake float64, prod bool) bool {
	effectiveStake := alphaStake + rootStake*rootStakeFactor

	stakeFilter := float64(devStakeFilter)
	if prod {
		stakeFilter = prodStakeFilter
	}

	return effectiveStake < stakeFilter
}
