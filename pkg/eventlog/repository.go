package eventlog

import (
	"context"
	"database/sql"

	"github.com/zeroxbridge/sequencer/pkg/database"
	"github.com/zeroxbridge/sequencer/pkg/errs"
)

// Repository handles EventLog and BlockTracker persistence.
type Repository struct {
	client *database.Client
}

// NewRepository returns an eventlog repository backed by client.
func NewRepository(client *database.Client) *Repository {
	return &Repository{client: client}
}

// Upsert idempotently inserts or no-ops an EventLog row keyed on
// (tx_hash, log_index), per the L1 event watcher's idempotent-UPSERT
// ingestion contract.
func (r *Repository) Upsert(ctx context.Context, e *EventLog) error {
	const query = `
		INSERT INTO deposit_hashes (
			tx_hash, log_index, commitment_hash, root_hash, element_count,
			block_number, processed, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (tx_hash, log_index) DO NOTHING
		RETURNING id`
	err := r.client.DB().QueryRowContext(ctx, query,
		e.TxHash, e.LogIndex, e.CommitmentHash, e.RootHash, e.ElementCount,
		e.BlockNumber, e.Processed,
	).Scan(&e.ID)
	if err == sql.ErrNoRows {
		// Already ingested; not an error, caller re-reads if it needs the id.
		return nil
	}
	if err != nil {
		return errs.Store("upsert event log %s/%d: %w", e.TxHash, e.LogIndex, err)
	}
	return nil
}

// ByCommitmentHash resolves the event log row recorded for a commitment
// hash, used by the proof client to retrieve root_hash/element_count at
// event time (§4.5 step 1).
func (r *Repository) ByCommitmentHash(ctx context.Context, commitmentHash string) (*EventLog, error) {
	row := r.client.DB().QueryRowContext(ctx, `
		SELECT id, tx_hash, log_index, commitment_hash, root_hash, element_count,
		       block_number, processed, created_at, updated_at
		FROM deposit_hashes WHERE commitment_hash = $1`, commitmentHash)

	var e EventLog
	err := row.Scan(&e.ID, &e.TxHash, &e.LogIndex, &e.CommitmentHash, &e.RootHash,
		&e.ElementCount, &e.BlockNumber, &e.Processed, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("no event log for commitment %s", commitmentHash)
	}
	if err != nil {
		return nil, errs.Store("get event log for %s: %w", commitmentHash, err)
	}
	return &e, nil
}

// GetTracker returns the current watermark for streamKey, or a
// zero-value tracker (LastBlock 0) if none has been recorded yet.
func (r *Repository) GetTracker(ctx context.Context, streamKey string) (*BlockTracker, error) {
	row := r.client.DB().QueryRowContext(ctx,
		`SELECT key, last_block, updated_at FROM block_trackers WHERE key = $1`, streamKey)

	var t BlockTracker
	err := row.Scan(&t.StreamKey, &t.LastBlock, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return &BlockTracker{StreamKey: streamKey, LastBlock: 0}, nil
	}
	if err != nil {
		return nil, errs.Store("get block tracker %s: %w", streamKey, err)
	}
	return &t, nil
}

// AdvanceTracker upserts the watermark for streamKey to lastBlock.
func (r *Repository) AdvanceTracker(ctx context.Context, streamKey string, lastBlock int64) error {
	_, err := r.client.DB().ExecContext(ctx, `
		INSERT INTO block_trackers (key, last_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET last_block = $2, updated_at = now()`,
		streamKey, lastBlock)
	if err != nil {
		return errs.Store("advance block tracker %s to %d: %w", streamKey, lastBlock, err)
	}
	return nil
}
