// Package withdrawal implements withdrawal intake: nonce allocation
// against an independent withdrawal_nonces table, L1 hash computation,
// and row persistence. Unlike pkg/deposit, withdrawals do not drive a
// tree-builder/proof-client/relay pipeline — no such pipeline is named
// anywhere in the design.
package withdrawal

import "time"

// Status mirrors the deposit lifecycle's pending/terminal split, scoped
// to what withdrawal intake itself can observe.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusFailed  Status = "FAILED"
)

// Withdrawal is a single withdrawal intent.
type Withdrawal struct {
	ID             int64
	Recipient      string
	Amount         uint64
	L1Token        string
	CommitmentHash string
	L1Hash         string // computed server-side; not forced equal to CommitmentHash; see DESIGN.md
	Nonce          uint64
	Status         Status
	RetryCount     int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewWithdrawal carries the caller-supplied fields needed to insert a
// withdrawal row.
type NewWithdrawal struct {
	Recipient      string
	Amount         uint64
	L1Token        string
	CommitmentHash string
}
