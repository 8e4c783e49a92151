// Package deposit implements the deposit state machine and its durable
// store: the central entity of the sequencer's deposit lifecycle, moving
// through PENDING_TREE_INCLUSION -> PENDING_PROOF_GENERATION ->
// READY_FOR_RELAY -> PROCESSING -> COMPLETED | FAILED.
package deposit

import "time"

// Status is one phase of a deposit's forward-only lifecycle.
type Status string

const (
	StatusPendingTreeInclusion   Status = "PENDING_TREE_INCLUSION"
	StatusPendingProofGeneration Status = "PENDING_PROOF_GENERATION"
	StatusReadyForRelay          Status = "READY_FOR_RELAY"
	StatusProcessing             Status = "PROCESSING"
	StatusCompleted              Status = "COMPLETED"
	StatusFailed                 Status = "FAILED"
)

// forwardEdges enumerates the only legal status transitions. A deposit
// never observes a backward transition (invariant D3).
var forwardEdges = map[Status]map[Status]bool{
	StatusPendingTreeInclusion:   {StatusPendingProofGeneration: true, StatusFailed: true},
	StatusPendingProofGeneration: {StatusReadyForRelay: true, StatusFailed: true},
	StatusReadyForRelay:          {StatusProcessing: true, StatusFailed: true},
	StatusProcessing:             {StatusCompleted: true, StatusFailed: true},
}

// CanTransition reports whether moving from one status to another is a
// legal forward transition.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	return forwardEdges[from][to]
}

// InclusionProof is the persisted sibling path and root recorded against
// a deposit at the moment it was appended to the accumulator. Mirrors the
// JSON layout in the persisted-state schema: sibling_hashes is the ordered
// list of co-sibling hashes, peak_bagging is always empty for a binary
// Merkle tree and is retained only for forward compatibility with a
// possible MMR variant. Positions extends the schema with one entry per
// sibling_hashes level ("left"/"right"/"self"): a pure even/odd parity
// fold of leaf_index cannot distinguish an odd trailing node's self-
// promotion (oddHash(x)) from a real sibling pairing (pairHash(x,x)),
// which are different hashes in the Keccak domain, so the position must
// be recorded rather than re-derived at verify time.
type InclusionProof struct {
	LeafIndex     int      `json:"leaf_index"`
	SiblingHashes []string `json:"sibling_hashes"`
	Positions     []string `json:"positions"`
	PeakBagging   []string `json:"peak_bagging"`
}

// Deposit is the central entity of the lifecycle engine; one per user
// deposit intent.
type Deposit struct {
	ID             int64
	Recipient      string // field-element-addressable account identifier (hex)
	Amount         uint64
	Nonce          uint64
	Timestamp      int64
	CommitmentHash string // 0x + 64 lowercase hex; the Merkle leaf identifier
	L2Hash         string // compatibility-check Poseidon hash, same fields
	Status         Status
	RetryCount     int
	LeafIndex      *int64
	InclusionProof *InclusionProof
	MerkleRoot     *string
	Included       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewDeposit carries the caller-supplied fields needed to insert a
// deposit row; id, nonce, timestamp, and lifecycle fields are assigned by
// the repository.
type NewDeposit struct {
	Recipient      string
	Amount         uint64
	CommitmentHash string
}
