package deposit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/zeroxbridge/sequencer/pkg/commitment"
	"github.com/zeroxbridge/sequencer/pkg/database"
	"github.com/zeroxbridge/sequencer/pkg/errs"
	"github.com/zeroxbridge/sequencer/pkg/nonce"
)

// Repository provides CRUD and lifecycle operations over the deposits
// table, column list and sql.Null* handling grounded on the teacher's
// proof repository idiom.
type Repository struct {
	client *database.Client
}

// NewRepository returns a deposit repository backed by client.
func NewRepository(client *database.Client) *Repository {
	return &Repository{client: client}
}

// Create validates input, allocates the recipient's next nonce and the
// compatibility-check L2 hash inside a single transaction, and inserts
// the deposit row in PENDING_TREE_INCLUSION. This is the canonical
// realization of the nonce allocator's implementation mandate: the
// allocation and the row that consumes it commit or roll back together.
func (r *Repository) Create(ctx context.Context, input NewDeposit, method commitment.HashMethod) (*Deposit, error) {
	if input.Amount == 0 {
		return nil, errs.InvalidInput("deposit amount must be greater than zero")
	}
	if _, err := commitment.MustBytes32Hex32(input.CommitmentHash); err != nil {
		return nil, errs.InvalidInput("commitment_hash malformed: %w", err)
	}
	if _, err := commitment.ParseBytes32Hex(input.Recipient); err != nil {
		return nil, errs.InvalidInput("recipient malformed: %w", err)
	}

	tx, err := r.client.BeginTx(ctx)
	if err != nil {
		return nil, errs.Store("begin deposit insert transaction: %w", err)
	}
	defer tx.Rollback()

	allocated, err := nonce.Allocate(ctx, tx.Tx(), nonce.Deposit, input.Recipient)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	l2Hash, err := commitment.L2CommitmentHashHex(input.Recipient, input.Amount, allocated, uint64(now.Unix()), method)
	if err != nil {
		return nil, errs.InvalidInput("computing l2 hash: %w", err)
	}

	d := &Deposit{
		Recipient:      input.Recipient,
		Amount:         input.Amount,
		Nonce:          allocated,
		Timestamp:      now.Unix(),
		CommitmentHash: input.CommitmentHash,
		L2Hash:         l2Hash,
		Status:         StatusPendingTreeInclusion,
		RetryCount:     0,
		Included:       false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	const query = `
		INSERT INTO deposits (
			recipient, amount, nonce, timestamp, commitment_hash, l2_hash,
			status, retry_count, included, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := tx.Tx().QueryRowContext(ctx, query,
		d.Recipient, d.Amount, d.Nonce, d.Timestamp, d.CommitmentHash, d.L2Hash,
		d.Status, d.RetryCount, d.Included, d.CreatedAt, d.UpdatedAt,
	).Scan(&d.ID); err != nil {
		return nil, errs.Store("insert deposit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Store("commit deposit insert: %w", err)
	}
	return d, nil
}

const selectColumns = `
	id, recipient, amount, nonce, timestamp, commitment_hash, l2_hash,
	status, retry_count, leaf_index, inclusion_proof, merkle_root,
	included, created_at, updated_at`

func scanDeposit(row interface {
	Scan(dest ...interface{}) error
}) (*Deposit, error) {
	var (
		d              Deposit
		leafIndex      sql.NullInt64
		inclusionProof sql.NullString
		merkleRoot     sql.NullString
	)
	if err := row.Scan(
		&d.ID, &d.Recipient, &d.Amount, &d.Nonce, &d.Timestamp, &d.CommitmentHash, &d.L2Hash,
		&d.Status, &d.RetryCount, &leafIndex, &inclusionProof, &merkleRoot,
		&d.Included, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if leafIndex.Valid {
		d.LeafIndex = &leafIndex.Int64
	}
	if merkleRoot.Valid {
		d.MerkleRoot = &merkleRoot.String
	}
	if inclusionProof.Valid {
		var proof InclusionProof
		if err := json.Unmarshal([]byte(inclusionProof.String), &proof); err != nil {
			return nil, errs.Store("decode inclusion_proof: %w", err)
		}
		d.InclusionProof = &proof
	}
	return &d, nil
}

// GetByID returns the deposit with the given id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Deposit, error) {
	row := r.client.DB().QueryRowContext(ctx, `SELECT `+selectColumns+` FROM deposits WHERE id = $1`, id)
	d, err := scanDeposit(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("deposit %d not found", id)
	}
	if err != nil {
		return nil, errs.Store("get deposit %d: %w", id, err)
	}
	return d, nil
}

// ListPending returns up to limit deposits in PENDING_TREE_INCLUSION,
// ordered by created_at ascending with id as tiebreak, matching the tree
// builder's ordering guarantee.
func (r *Repository) ListPending(ctx context.Context, limit int) ([]*Deposit, error) {
	return r.listByStatus(ctx, StatusPendingTreeInclusion, limit)
}

// ListPendingProofGeneration returns deposits in PENDING_PROOF_GENERATION.
func (r *Repository) ListPendingProofGeneration(ctx context.Context, limit int) ([]*Deposit, error) {
	return r.listByStatus(ctx, StatusPendingProofGeneration, limit)
}

// ListReadyForRelay returns deposits in READY_FOR_RELAY; a limit of zero
// or less returns all of them.
func (r *Repository) ListReadyForRelay(ctx context.Context, limit int) ([]*Deposit, error) {
	return r.listByStatus(ctx, StatusReadyForRelay, limit)
}

// listByStatus treats limit <= 0 as no limit (LIMIT NULL).
func (r *Repository) listByStatus(ctx context.Context, status Status, limit int) ([]*Deposit, error) {
	var limitArg interface{} = limit
	if limit <= 0 {
		limitArg = nil
	}
	rows, err := r.client.DB().QueryContext(ctx,
		`SELECT `+selectColumns+` FROM deposits WHERE status = $1 ORDER BY created_at ASC, id ASC LIMIT $2`,
		status, limitArg)
	if err != nil {
		return nil, errs.Store("list deposits by status %s: %w", status, err)
	}
	defer rows.Close()

	var out []*Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, errs.Store("scan deposit: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListByRecipient returns every deposit for recipient, newest first.
func (r *Repository) ListByRecipient(ctx context.Context, recipient string) ([]*Deposit, error) {
	rows, err := r.client.DB().QueryContext(ctx,
		`SELECT `+selectColumns+` FROM deposits WHERE recipient = $1 ORDER BY created_at DESC`, recipient)
	if err != nil {
		return nil, errs.Store("list deposits for %s: %w", recipient, err)
	}
	defer rows.Close()

	var out []*Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, errs.Store("scan deposit: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// LatestByRecipient returns the newest deposit for recipient.
func (r *Repository) LatestByRecipient(ctx context.Context, recipient string) (*Deposit, error) {
	row := r.client.DB().QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM deposits WHERE recipient = $1 ORDER BY created_at DESC LIMIT 1`, recipient)
	d, err := scanDeposit(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("no deposits for recipient %s", recipient)
	}
	if err != nil {
		return nil, errs.Store("latest deposit for %s: %w", recipient, err)
	}
	return d, nil
}

// MaxIncludedLeafIndex returns the highest assigned leaf_index among
// included deposits, or 0 if none are included.
func (r *Repository) MaxIncludedLeafIndex(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	err := r.client.DB().QueryRowContext(ctx,
		`SELECT MAX(leaf_index) FROM deposits WHERE included = true`).Scan(&max)
	if err != nil {
		return 0, errs.Store("max included leaf index: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64, nil
}

// ListIncludedOrdered returns every included deposit ordered by
// leaf_index ascending, for tree-builder startup rehydration.
func (r *Repository) ListIncludedOrdered(ctx context.Context) ([]*Deposit, error) {
	rows, err := r.client.DB().QueryContext(ctx,
		`SELECT `+selectColumns+` FROM deposits WHERE included = true ORDER BY leaf_index ASC`)
	if err != nil {
		return nil, errs.Store("list included deposits: %w", err)
	}
	defer rows.Close()

	var out []*Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, errs.Store("scan deposit: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RecordInclusion performs the tree builder's single durable write per
// step 2f: set inclusion_proof, merkle_root, leaf_index, included=true,
// status=PENDING_PROOF_GENERATION.
func (r *Repository) RecordInclusion(ctx context.Context, id int64, leafIndex int64, proof InclusionProof, merkleRoot string) error {
	proofJSON, err := json.Marshal(proof)
	if err != nil {
		return errs.Store("marshal inclusion proof: %w", err)
	}

	res, err := r.client.DB().ExecContext(ctx, `
		UPDATE deposits
		SET leaf_index = $1, inclusion_proof = $2, merkle_root = $3,
		    included = true, status = $4, updated_at = now()
		WHERE id = $5 AND status = $6`,
		leafIndex, proofJSON, merkleRoot, StatusPendingProofGeneration, id, StatusPendingTreeInclusion)
	if err != nil {
		return errs.Store("record inclusion for deposit %d: %w", id, err)
	}
	return requireRowsAffected(res, id)
}

// SetStatus transitions a deposit's status, enforcing the forward-only
// state machine (invariant D3).
func (r *Repository) SetStatus(ctx context.Context, id int64, from, to Status) error {
	if !CanTransition(from, to) {
		return errs.Accumulator("illegal transition %s -> %s for deposit %d", from, to, id)
	}
	res, err := r.client.DB().ExecContext(ctx,
		`UPDATE deposits SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return errs.Store("set status for deposit %d: %w", id, err)
	}
	return requireRowsAffected(res, id)
}

// IncrementRetry bumps retry_count and, if it now meets or exceeds
// maxRetries, transitions the deposit to FAILED from its current status;
// otherwise the deposit is left in place for the service loop to retry.
func (r *Repository) IncrementRetry(ctx context.Context, id int64, from Status, maxRetries int) error {
	res, err := r.client.DB().ExecContext(ctx, `
		UPDATE deposits
		SET retry_count = retry_count + 1,
		    status = CASE WHEN retry_count + 1 >= $1 THEN $2 ELSE status END,
		    updated_at = now()
		WHERE id = $3 AND status = $4`,
		maxRetries, StatusFailed, id, from)
	if err != nil {
		return errs.Store("increment retry for deposit %d: %w", id, err)
	}
	return requireRowsAffected(res, id)
}

// MarkCompleted transitions a deposit from PROCESSING to COMPLETED.
func (r *Repository) MarkCompleted(ctx context.Context, id int64) error {
	return r.SetStatus(ctx, id, StatusProcessing, StatusCompleted)
}

func requireRowsAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Store("rows affected for deposit %d: %w", id, err)
	}
	if n == 0 {
		return errs.NotFound("deposit %d not found or in unexpected status", id)
	}
	return nil
}
