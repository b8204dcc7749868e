package validator

import (
	"time"

	"github.com/subnet42/harvester/internal/dedup"
	"github.com/subnet42/harvester/internal/synapse"
)

// Clock skew tolerated on item timestamps before they count as fabricated.
const futureSkewTolerance = 5 * time.Minute

// validateItems filters one miner's response and returns how many items were
// accepted as new plus the total delivered. Accepted fingerprints are recorded
// immediately, so an item claimed by two miners in the same round only credits
// whichever response is processed first. Results are processed in a single
// goroutine; this is the only writer of the dedup history during a round.
func (v *Validator) validateItems(items []synapse.Item, task synapse.CollectRequest, now time.Time) (uniqueNew, total int) {
	total = len(items)

	// Items beyond the requested count carry no credit and are not even
	// inspected, so padding a response cannot raise any component score.
	considered := items
	if len(considered) > task.Count {
		v.metrics.ItemsRejected(RejectOverdelivery, len(considered)-task.Count)
		considered = considered[:task.Count]
	}

	for _, item := range considered {
		if item.ID == "" || item.Text == "" || item.CreatedAt == 0 {
			v.metrics.ItemsRejected(RejectSchema, 1)
			continue
		}

		createdAt := time.Unix(item.CreatedAt, 0)
		if createdAt.Before(now.Add(-v.cfg.FreshnessWindow)) {
			v.metrics.ItemsRejected(RejectStale, 1)
			continue
		}
		if createdAt.After(now.Add(futureSkewTolerance)) {
			v.metrics.ItemsRejected(RejectFuture, 1)
			continue
		}

		fp := dedup.Fingerprint(item.ID, item.Text)
		if v.dedup.Seen(fp) {
			v.metrics.ItemsRejected(RejectDuplicate, 1)
			continue
		}

		v.dedup.Record(fp, now)
		uniqueNew++
	}

	v.metrics.ItemsAccepted(uniqueNew)
	return uniqueNew, total
}
