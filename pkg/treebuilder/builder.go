// Package treebuilder drives the L1 Merkle accumulator forward by
// ingesting PENDING_TREE_INCLUSION deposits one at a time, in creation
// order, recording the resulting inclusion proof and root against each.
package treebuilder

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/zeroxbridge/sequencer/pkg/commitment"
	"github.com/zeroxbridge/sequencer/pkg/deposit"
	"github.com/zeroxbridge/sequencer/pkg/errs"
	"github.com/zeroxbridge/sequencer/pkg/merkle"
	"github.com/zeroxbridge/sequencer/pkg/service"
)

// Builder owns the single L1 accumulator instance and the sole goroutine
// permitted to mutate it: no other component ever touches the tree, per
// the single-owner concurrency model.
type Builder struct {
	repo      *deposit.Repository
	tree      *merkle.L1Tree
	batchSize int
	logger    *log.Logger

	mu            sync.Mutex
	nextLeafIndex int64
}

// New returns a builder with a fresh, unrehydrated accumulator. Call
// Rehydrate before Tick is ever invoked.
func New(repo *deposit.Repository, batchSize int) *Builder {
	return &Builder{
		repo:          repo,
		tree:          merkle.NewL1Tree(),
		batchSize:     batchSize,
		logger:        log.New(os.Stderr, "[treebuilder] ", log.LstdFlags),
		nextLeafIndex: 1,
	}
}

// Rehydrate replays every included deposit, ordered by leaf_index
// ascending, into a fresh accumulator. Any malformed commitment_hash
// aborts startup outright; silently skipping a leaf would desynchronize
// the root from the persisted proofs.
func (b *Builder) Rehydrate(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	included, err := b.repo.ListIncludedOrdered(ctx)
	if err != nil {
		return errs.Store("rehydrate: list included deposits: %w", err)
	}

	var maxLeaf int64
	for _, d := range included {
		leaf, err := commitment.MustBytes32Hex32(d.CommitmentHash)
		if err != nil {
			return errs.Accumulator("rehydrate: deposit %d has malformed commitment_hash: %w", d.ID, err)
		}
		b.tree.Append(leaf)
		if d.LeafIndex != nil && *d.LeafIndex > maxLeaf {
			maxLeaf = *d.LeafIndex
		}
	}
	b.nextLeafIndex = maxLeaf + 1
	b.logger.Printf("rehydrated %d leaves, next leaf index %d", len(included), b.nextLeafIndex)
	return nil
}

// Tick fetches up to batchSize pending deposits in creation order and
// appends each to the accumulator in turn. A failure on one deposit is
// logged and does not abort the remaining batch.
func (b *Builder) Tick(ctx context.Context) error {
	pending, err := b.repo.ListPending(ctx, b.batchSize)
	if err != nil {
		return errs.Store("tick: list pending deposits: %w", err)
	}

	for _, d := range pending {
		if err := b.include(ctx, d); err != nil {
			b.logger.Printf("deposit %d: include failed: %v", d.ID, err)
		}
	}
	return nil
}

// include appends one deposit's leaf to the accumulator, computes its
// proof and root, and records them. The accumulator lock is held across
// the whole append-proof-root sequence so no other goroutine can observe
// (or cause) an inconsistent intermediate state, per the tree builder's
// exclusive-ownership model.
func (b *Builder) include(ctx context.Context, d *deposit.Deposit) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	leaf, err := commitment.MustBytes32Hex32(d.CommitmentHash)
	if err != nil {
		return errs.InvalidInput("malformed commitment_hash: %w", err)
	}

	b.tree.Append(leaf)
	index := b.tree.LeafCount() - 1

	proof, err := b.tree.ProofAt(index)
	if err != nil {
		return errs.Accumulator("proof for leaf index %d: %w", index, err)
	}

	leafIndex := b.nextLeafIndex
	b.nextLeafIndex++

	inclusion := toInclusionProof(int(leafIndex), proof)
	root := commitment.ToHex32(proof.Root)

	if err := b.repo.RecordInclusion(ctx, d.ID, leafIndex, inclusion, root); err != nil {
		return errs.Store("record inclusion: %w", err)
	}
	return nil
}

func toInclusionProof(leafIndex int, proof *merkle.Proof) deposit.InclusionProof {
	siblings := make([]string, len(proof.Path))
	positions := make([]string, len(proof.Path))
	for i, step := range proof.Path {
		siblings[i] = commitment.ToHex32(step.Hash)
		switch step.Position {
		case merkle.Left:
			positions[i] = "left"
		case merkle.Right:
			positions[i] = "right"
		case merkle.Self:
			positions[i] = "self"
		}
	}
	return deposit.InclusionProof{
		LeafIndex:     leafIndex,
		SiblingHashes: siblings,
		Positions:     positions,
		PeakBagging:   []string{},
	}
}

// NewTask returns the service.Task driving this builder's steady-state
// loop, grounded on pkg/service's shared ticking scaffolding. Rehydrate
// must be called before the returned task is started.
func (b *Builder) NewTask(pollIntervalSeconds int, metrics *service.Metrics) *service.Task {
	t := service.NewTask("treebuilder", time.Duration(pollIntervalSeconds)*time.Second, b.Tick)
	t.Metrics = metrics
	return t
}
