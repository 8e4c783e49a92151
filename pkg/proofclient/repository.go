package proofclient

import (
	"context"
	"database/sql"

	"github.com/zeroxbridge/sequencer/pkg/database"
	"github.com/zeroxbridge/sequencer/pkg/errs"
)

// ArtifactRepository persists Artifact rows, one per successfully proved
// deposit. Grounded on the teacher's proof artifact repository's
// explicit-column INSERT/RETURNING idiom, trimmed to this domain's
// single artifact shape (no anchor/batch/attestation lifecycle).
type ArtifactRepository struct {
	client *database.Client
}

// NewArtifactRepository returns an artifact repository backed by client.
func NewArtifactRepository(client *database.Client) *ArtifactRepository {
	return &ArtifactRepository{client: client}
}

// Create inserts an artifact row for depositID, or returns the existing
// row unchanged if one was already recorded (a retried proof run after a
// crash between artifact-copy and status-update must not produce a
// duplicate).
func (r *ArtifactRepository) Create(ctx context.Context, depositID int64, calldataDir, proofPath, factHash string) (*Artifact, error) {
	const query = `
		INSERT INTO proof_artifacts (deposit_id, calldata_dir, proof_path, fact_hash, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (deposit_id) DO UPDATE SET deposit_id = proof_artifacts.deposit_id
		RETURNING id, deposit_id, calldata_dir, proof_path, fact_hash, created_at`

	var a Artifact
	err := r.client.DB().QueryRowContext(ctx, query, depositID, calldataDir, proofPath, factHash).
		Scan(&a.ID, &a.DepositID, &a.CalldataDir, &a.ProofPath, &a.FactHash, &a.CreatedAt)
	if err != nil {
		return nil, errs.Store("create proof artifact for deposit %d: %w", depositID, err)
	}
	return &a, nil
}

// ByDepositID returns the artifact recorded for depositID, if any.
func (r *ArtifactRepository) ByDepositID(ctx context.Context, depositID int64) (*Artifact, error) {
	row := r.client.DB().QueryRowContext(ctx,
		`SELECT id, deposit_id, calldata_dir, proof_path, fact_hash, created_at
		 FROM proof_artifacts WHERE deposit_id = $1`, depositID)

	var a Artifact
	err := row.Scan(&a.ID, &a.DepositID, &a.CalldataDir, &a.ProofPath, &a.FactHash, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("no proof artifact for deposit %d", depositID)
	}
	if err != nil {
		return nil, errs.Store("get proof artifact for deposit %d: %w", depositID, err)
	}
	return &a, nil
}
