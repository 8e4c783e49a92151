// Package eventlog persists observed L1 deposit events for replay-safe
// ingestion: EventLog rows are the durable record of what the L1 event
// watcher has seen, keyed idempotently on (tx_hash, log_index);
// BlockTracker rows are the per-stream watermark the watcher resumes
// from after a restart.
package eventlog

import "time"

// EventLog is one observed L1 event needing replay-safe ingestion.
type EventLog struct {
	ID             int64
	TxHash         string
	LogIndex       int
	CommitmentHash string
	RootHash       string
	ElementCount   int64
	BlockNumber    int64
	Processed      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BlockTracker is the per-stream ingestion watermark.
type BlockTracker struct {
	StreamKey string
	LastBlock int64
	UpdatedAt time.Time
}

// DepositEventStreamKey is the stream key for the L1 deposit event
// watcher's watermark.
const DepositEventStreamKey = "l1_deposit_events"
