package withdrawal

import (
	"context"
	"database/sql"
	"time"

	"github.com/zeroxbridge/sequencer/pkg/commitment"
	"github.com/zeroxbridge/sequencer/pkg/database"
	"github.com/zeroxbridge/sequencer/pkg/errs"
	"github.com/zeroxbridge/sequencer/pkg/nonce"
)

// Repository handles withdrawal intake against an independent
// withdrawal_nonces counter.
type Repository struct {
	client *database.Client
}

// NewRepository returns a withdrawal repository backed by client.
func NewRepository(client *database.Client) *Repository {
	return &Repository{client: client}
}

const selectColumns = `
	id, recipient, amount, l1_token, commitment_hash, l1_hash, nonce,
	status, retry_count, created_at, updated_at`

// Create validates input, allocates the next withdrawal nonce for
// recipient, computes the L1 hash for the allocated nonce, and inserts
// the row. commitment_hash and l1_hash are logically the same quantity
// (per the DESIGN.md open-question resolution) but are computed
// independently: commitment_hash is the caller-supplied value,
// l1_hash is freshly derived from the allocated nonce and the server's
// current timestamp. They coincide only when the caller's precomputed
// hash used that same nonce and timestamp, and diverge otherwise.
func (r *Repository) Create(ctx context.Context, input NewWithdrawal) (*Withdrawal, error) {
	if input.Amount == 0 {
		return nil, errs.InvalidInput("withdrawal amount must be greater than zero")
	}
	if _, err := commitment.MustBytes32Hex32(input.CommitmentHash); err != nil {
		return nil, errs.InvalidInput("commitment_hash malformed: %w", err)
	}
	if _, err := commitment.ParseBytes32Hex(input.Recipient); err != nil {
		return nil, errs.InvalidInput("recipient malformed: %w", err)
	}

	tx, err := r.client.BeginTx(ctx)
	if err != nil {
		return nil, errs.Store("begin withdrawal insert transaction: %w", err)
	}
	defer tx.Rollback()

	allocated, err := nonce.Allocate(ctx, tx.Tx(), nonce.Withdrawal, input.Recipient)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	l1Hash, err := commitment.L1LeafHashHex(input.Recipient, input.Amount, allocated, uint64(now.Unix()))
	if err != nil {
		return nil, errs.InvalidInput("computing l1 hash: %w", err)
	}

	w := &Withdrawal{
		Recipient:      input.Recipient,
		Amount:         input.Amount,
		L1Token:        input.L1Token,
		CommitmentHash: input.CommitmentHash,
		L1Hash:         l1Hash,
		Nonce:          allocated,
		Status:         StatusPending,
		RetryCount:     0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	const query = `
		INSERT INTO withdrawals (
			recipient, amount, l1_token, commitment_hash, l1_hash, nonce,
			status, retry_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := tx.Tx().QueryRowContext(ctx, query,
		w.Recipient, w.Amount, w.L1Token, w.CommitmentHash, w.L1Hash, w.Nonce,
		w.Status, w.RetryCount, w.CreatedAt, w.UpdatedAt,
	).Scan(&w.ID); err != nil {
		return nil, errs.Store("insert withdrawal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Store("commit withdrawal insert: %w", err)
	}
	return w, nil
}

func scanWithdrawal(row interface {
	Scan(dest ...interface{}) error
}) (*Withdrawal, error) {
	var w Withdrawal
	if err := row.Scan(
		&w.ID, &w.Recipient, &w.Amount, &w.L1Token, &w.CommitmentHash, &w.L1Hash, &w.Nonce,
		&w.Status, &w.RetryCount, &w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &w, nil
}

// ListPending returns up to limit withdrawals in PENDING status, newest
// last (created_at ascending).
func (r *Repository) ListPending(ctx context.Context, limit int) ([]*Withdrawal, error) {
	rows, err := r.client.DB().QueryContext(ctx,
		`SELECT `+selectColumns+` FROM withdrawals WHERE status = $1 ORDER BY created_at ASC LIMIT $2`,
		StatusPending, limit)
	if err != nil {
		return nil, errs.Store("list pending withdrawals: %w", err)
	}
	defer rows.Close()

	var out []*Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, errs.Store("scan withdrawal: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// GetByID returns the withdrawal with the given id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Withdrawal, error) {
	row := r.client.DB().QueryRowContext(ctx, `SELECT `+selectColumns+` FROM withdrawals WHERE id = $1`, id)
	w, err := scanWithdrawal(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("withdrawal %d not found", id)
	}
	if err != nil {
		return nil, errs.Store("get withdrawal %d: %w", id, err)
	}
	return w, nil
}
