package proofclient

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zeroxbridge/sequencer/pkg/commitment"
	"github.com/zeroxbridge/sequencer/pkg/deposit"
	"github.com/zeroxbridge/sequencer/pkg/errs"
	"github.com/zeroxbridge/sequencer/pkg/eventlog"
	"github.com/zeroxbridge/sequencer/pkg/service"
)

// Client drives deposits through the per-deposit proof generation flow:
// resolve the recorded event log, assemble the prover input vector,
// invoke the external toolchain, persist artifacts, and advance status.
type Client struct {
	deposits    *deposit.Repository
	events      *eventlog.Repository
	artifacts   *ArtifactRepository
	toolchain   *Toolchain
	scratchDir  string
	targetDir   string
	batchSize   int
	concurrency int
	maxRetries  int
	logger      *log.Logger
}

// Config bundles the wiring Client needs from the process entrypoint.
type Config struct {
	Deposits        *deposit.Repository
	Events          *eventlog.Repository
	Artifacts       *ArtifactRepository
	CairoProjectDir string
	ScratchDir      string
	TargetDir       string
	BatchSize       int
	Concurrency     int
	MaxRetries      int
}

// New returns a proof client ready to run ticks.
func New(cfg Config) *Client {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Client{
		deposits:    cfg.Deposits,
		events:      cfg.Events,
		artifacts:   cfg.Artifacts,
		toolchain:   &Toolchain{ProjectDir: cfg.CairoProjectDir},
		scratchDir:  cfg.ScratchDir,
		targetDir:   cfg.TargetDir,
		batchSize:   batchSize,
		concurrency: concurrency,
		maxRetries:  cfg.MaxRetries,
		logger:      log.New(os.Stderr, "[proofclient] ", log.LstdFlags),
	}
}

// Tick fetches pending deposits awaiting proof generation and processes
// up to concurrency of them in parallel; each deposit is claimed under
// the repository's optimistic status guard, so concurrent processing
// can never duplicate work on the same row (§4.5 concurrency note).
func (c *Client) Tick(ctx context.Context) error {
	pending, err := c.deposits.ListPendingProofGeneration(ctx, c.batchSize)
	if err != nil {
		return errs.Store("list pending proof generation: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	for _, d := range pending {
		sem <- struct{}{}
		wg.Add(1)
		go func(d *deposit.Deposit) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := c.processOne(ctx, d); err != nil {
				c.logger.Printf("deposit %d: %v", d.ID, err)
			}
		}(d)
	}
	wg.Wait()
	return nil
}

func (c *Client) processOne(ctx context.Context, d *deposit.Deposit) error {
	if d.InclusionProof == nil || d.MerkleRoot == nil {
		return errs.Accumulator("deposit %d missing inclusion proof or root", d.ID)
	}

	event, err := c.events.ByCommitmentHash(ctx, d.CommitmentHash)
	if err != nil {
		return c.fail(ctx, d, fmt.Errorf("resolve event log: %w", err))
	}
	if event.RootHash != *d.MerkleRoot {
		c.logger.Printf("deposit %d: event root %s does not match recorded tree root %s",
			d.ID, event.RootHash, *d.MerkleRoot)
	}

	fields, err := proverInputVector(d)
	if err != nil {
		return c.fail(ctx, d, fmt.Errorf("assemble prover input: %w", err))
	}

	// Each attempt gets its own scratch subdirectory: a retried deposit
	// must never reuse a prior attempt's directory, since a slow cleanup
	// of a failed run could otherwise collide with a fresh one racing
	// under concurrency.
	depositScratch := filepath.Join(c.scratchDir, fmt.Sprintf("deposit_%d", d.ID), ".scratch-"+uuid.NewString())
	if err := writeInputFiles(depositScratch, fields); err != nil {
		return c.fail(ctx, d, err)
	}

	sierra, err := c.toolchain.Build(ctx)
	if err != nil {
		return c.fail(ctx, d, err)
	}

	outputDir := filepath.Join(depositScratch, "output")
	result, err := c.toolchain.Execute(ctx, sierra, depositScratch, outputDir)
	if err != nil {
		return c.fail(ctx, d, err)
	}

	destDir := filepath.Join(c.targetDir, fmt.Sprintf("deposit_%d", d.ID))
	if err := CopyArtifacts(result, destDir); err != nil {
		return c.fail(ctx, d, err)
	}

	if _, err := c.artifacts.Create(ctx, d.ID, filepath.Join(destDir, "calldata"),
		filepath.Join(destDir, "proof.json"), result.FactHash); err != nil {
		return c.fail(ctx, d, err)
	}

	if err := c.deposits.SetStatus(ctx, d.ID, deposit.StatusPendingProofGeneration, deposit.StatusReadyForRelay); err != nil {
		return c.fail(ctx, d, err)
	}
	return nil
}

// fail routes cause through errs.Retryable: a non-retryable cause (a
// relay revert, a validation error, nonce exhaustion) jumps straight to
// FAILED, since retrying would reproduce the same cause. Every other
// cause, including store errors, prover failures, malformed input and
// accumulator errors, increments the deposit's retry counter,
// transitioning it to FAILED once retry_count reaches max_retries. The prover is assumed
// deterministic given identical inputs, so a retried attempt is always
// safe.
func (c *Client) fail(ctx context.Context, d *deposit.Deposit, cause error) error {
	if !errs.Retryable(cause) {
		if err := c.deposits.SetStatus(ctx, d.ID, deposit.StatusPendingProofGeneration, deposit.StatusFailed); err != nil {
			return fmt.Errorf("%w (also failed to record FAILED: %v)", cause, err)
		}
		return cause
	}
	if err := c.deposits.IncrementRetry(ctx, d.ID, deposit.StatusPendingProofGeneration, c.maxRetries); err != nil {
		return fmt.Errorf("%w (also failed to record retry: %v)", cause, err)
	}
	return cause
}

// proverInputVector builds [commitment_hash_as_field, ...sibling_path_as_fields, root_as_field],
// reducing every 32-byte value into the STARK prime field per the
// big-endian reduction convention.
func proverInputVector(d *deposit.Deposit) ([]*big.Int, error) {
	commitmentBytes, err := commitment.MustBytes32Hex32(d.CommitmentHash)
	if err != nil {
		return nil, errs.InvalidInput("deposit commitment_hash malformed: %w", err)
	}

	fields := make([]*big.Int, 0, len(d.InclusionProof.SiblingHashes)+2)
	fields = append(fields, commitment.FeltFromBytes32(commitmentBytes))

	for _, hex := range d.InclusionProof.SiblingHashes {
		sib, err := commitment.MustBytes32Hex32(hex)
		if err != nil {
			return nil, errs.Accumulator("sibling hash malformed: %w", err)
		}
		fields = append(fields, commitment.FeltFromBytes32(sib))
	}

	rootBytes, err := commitment.MustBytes32Hex32(*d.MerkleRoot)
	if err != nil {
		return nil, errs.Accumulator("merkle root malformed: %w", err)
	}
	fields = append(fields, commitment.FeltFromBytes32(rootBytes))
	return fields, nil
}

// NewTask returns the service.Task driving this client's steady-state
// loop.
func (c *Client) NewTask(pollIntervalSeconds int, metrics *service.Metrics) *service.Task {
	t := service.NewTask("proofclient", time.Duration(pollIntervalSeconds)*time.Second, c.Tick)
	t.Metrics = metrics
	return t
}
