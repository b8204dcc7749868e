// Package synapse implements the RPC channel between validator and miner
// peers: wire types, a signing client, and the miner-side server.
package synapse

import "time"

// Item is a single collected data unit returned by a miner.
type Item struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
}

// CollectRequest is the task a validator dispatches to a miner.
type CollectRequest struct {
	TaskID     string `json:"task_id"`
	Round      int64  `json:"round"`
	Query      string `json:"query"`
	Count      int    `json:"count"`
	TimeoutSec int    `json:"timeout_sec"`
	IssuedAt   int64  `json:"issued_at"`
}

// CollectResponse is the miner's reply for a single task.
type CollectResponse struct {
	TaskID      string `json:"task_id"`
	Items       []Item `json:"items"`
	CollectedAt int64  `json:"collected_at"`
}

// AuthHeaders carry the caller's identity and request signature.
type AuthHeaders struct {
	Hotkey    string
	Signature string
	Timestamp string
}

// Config groups the transport settings shared by client and server.
type Config struct {
	Address       string
	Port          int
	BodySizeLimit int
	ClientTimeout time.Duration
}
