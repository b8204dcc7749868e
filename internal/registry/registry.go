// Package registry maintains a periodically refreshed, read-only view of the
// subnet's registered peers.
package registry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/subnet42/harvester/internal/chain"
	"github.com/subnet42/harvester/internal/utils/chainutils"
)

// Role distinguishes miner and validator peers on the metagraph.
type Role string

const (
	RoleMiner     Role = "miner"
	RoleValidator Role = "validator"
)

// Peer is one registered participant. Immutable within a round; the whole set
// is replaced wholesale on refresh.
type Peer struct {
	UID      int64
	Hotkey   string
	Endpoint string
	Stake    float64
	Role     Role
}

// Snapshot is an immutable view of the peer set. A refresh builds a new
// Snapshot and swaps it in atomically; in-flight rounds keep the one they read.
type Snapshot struct {
	Block     int
	Peers     []Peer
	Hotkeys   []string
	FetchedAt time.Time
	Stale     bool
}

// Miners returns the peers registered in the miner role that advertise a
// serving axon. Peers without an endpoint cannot receive tasks and are not
// worth a dispatch slot.
func (s *Snapshot) Miners() []Peer {
	if s == nil {
		return nil
	}
	miners := make([]Peer, 0, len(s.Peers))
	for _, p := range s.Peers {
		if p.Role == RoleMiner && p.Endpoint != "" {
			miners = append(miners, p)
		}
	}
	return miners
}

// Lookup returns the registered peer for a hotkey.
func (s *Snapshot) Lookup(hotkey string) (Peer, bool) {
	if s == nil {
		return Peer{}, false
	}
	for _, p := range s.Peers {
		if p.Hotkey == hotkey {
			return p, true
		}
	}
	return Peer{}, false
}

const (
	maxRefreshAttempts = 3
	baseRefreshBackoff = 500 * time.Millisecond
)

// Registry polls the ledger substrate for the peer roster. Refresh fails soft:
// on repeated failure the last-known-good snapshot stays in place, flagged
// stale.
type Registry struct {
	chain  chain.Client
	netuid int
	prod   bool

	current atomic.Pointer[Snapshot]
}

func New(chainClient chain.Client, netuid int, prod bool) *Registry {
	return &Registry{
		chain:  chainClient,
		netuid: netuid,
		prod:   prod,
	}
}

// Snapshot returns the current immutable peer view, or nil before the first
// successful refresh.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Refresh pulls the metagraph with bounded retry and swaps in a new snapshot.
// On exhaustion it keeps the stale snapshot and returns the last error.
func (r *Registry) Refresh(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < maxRefreshAttempts; attempt++ {
		if attempt > 0 {
			backoff := baseRefreshBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := r.chain.GetMetagraph(r.netuid)
		if err != nil {
			lastErr = err
			continue
		}

		snap := r.buildSnapshot(resp.Data)
		r.current.Store(snap)
		log.Info().Int("block", snap.Block).Int("peers", len(snap.Peers)).Int("miners", len(snap.Miners())).Msg("registry refreshed")
		return nil
	}

	if prev := r.current.Load(); prev != nil && !prev.Stale {
		staleCopy := *prev
		staleCopy.Stale = true
		r.current.Store(&staleCopy)
	}
	log.Warn().Err(lastErr).Msg("registry refresh failed, keeping stale peer set")
	return fmt.Errorf("refresh metagraph: %w", lastErr)
}

func (r *Registry) buildSnapshot(mg chain.Metagraph) *Snapshot {
	peers := make([]Peer, 0, len(mg.Hotkeys))
	for uid, hotkey := range mg.Hotkeys {
		var stake, alphaStake, taoStake float64
		if uid < len(mg.TotalStake) {
			stake = mg.TotalStake[uid]
		}
		if uid < len(mg.AlphaStake) {
			alphaStake = mg.AlphaStake[uid]
		}
		if uid < len(mg.TaoStake) {
			taoStake = mg.TaoStake[uid]
		}

		role := RoleValidator
		if chainutils.IsMinerStake(alphaStake, taoStake, r.prod) {
			role = RoleMiner
		}

		endpoint := ""
		if uid < len(mg.Axons) && mg.Axons[uid].IP != "" && mg.Axons[uid].Port > 0 {
			endpoint = fmt.Sprintf("http://%s:%d", mg.Axons[uid].IP, mg.Axons[uid].Port)
		}

		peers = append(peers, Peer{
			UID:      int64(uid),
			Hotkey:   hotkey,
			Endpoint: endpoint,
			Stake:    stake,
			Role:     role,
		})
	}

	hotkeys := make([]string, len(mg.Hotkeys))
	copy(hotkeys, mg.Hotkeys)

	return &Snapshot{
		Block:     mg.Block,
		Peers:     peers,
		Hotkeys:   hotkeys,
		FetchedAt: time.Now(),
	}
}
