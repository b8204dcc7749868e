// Package oracle is the miner's client for the scraping oracle service that
// performs the actual data collection.
package oracle

import "github.com/subnet42/harvester/internal/synapse"

// CollectParams is the oracle's collection request body.
type CollectParams struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// CollectResult is the oracle's response envelope.
type CollectResult struct {
	Data []synapse.Item `json:"data"`
}
