// Package validator contains the incentive loop orchestration: round
// dispatch, response validation, score smoothing, and weight submission.
package validator

import (
	"context"
	"time"

	"github.com/subnet42/harvester/internal/registry"
	"github.com/subnet42/harvester/internal/synapse"
)

// RegistrySource is the peer registry surface the loop depends on.
type RegistrySource interface {
	Snapshot() *registry.Snapshot
	Refresh(ctx context.Context) error
}

// Dialer is the miner RPC surface the loop depends on.
type Dialer interface {
	Collect(ctx context.Context, url string, auth synapse.AuthHeaders, req synapse.CollectRequest) (synapse.CollectResponse, error)
}

// Response terminal states recorded per dispatched task.
const (
	StateOK      = "ok"
	StateEmpty   = "empty"
	StateTimeout = "timeout"
	StateError   = "error"
)

// Item rejection reasons recorded during validation.
const (
	RejectSchema       = "schema"
	RejectStale        = "stale"
	RejectFuture       = "future"
	RejectDuplicate    = "duplicate"
	RejectOverdelivery = "overdelivery"
)

// minerResult is a single miner's outcome for one round.
type minerResult struct {
	Peer    registry.Peer
	Items   []synapse.Item
	Latency time.Duration
	State   string
	Err     error
}
