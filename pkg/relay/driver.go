package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"os"
	"time"

	"github.com/zeroxbridge/sequencer/pkg/deposit"
	"github.com/zeroxbridge/sequencer/pkg/errs"
	"github.com/zeroxbridge/sequencer/pkg/proofclient"
	"github.com/zeroxbridge/sequencer/pkg/service"
	"github.com/zeroxbridge/sequencer/pkg/starknet"
)

// Driver submits each READY_FOR_RELAY deposit's proof as a multicall and
// advances it to COMPLETED or FAILED based on the observed receipt.
// Grounded on starknet_relayer.rs's process_transaction retry loop:
// mark processing, attempt submission up to max_retries, poll the
// receipt with a bounded timeout per attempt.
type Driver struct {
	deposits        *deposit.Repository
	artifacts       *proofclient.ArtifactRepository
	client          *starknet.Client
	bridgeContract  *big.Int
	registryContract *big.Int
	maxRetries      int
	retryDelay      time.Duration
	txTimeout       time.Duration
	logger          *log.Logger
}

// Config bundles the wiring Driver needs from the process entrypoint.
type Config struct {
	Deposits          *deposit.Repository
	Artifacts         *proofclient.ArtifactRepository
	Client            *starknet.Client
	BridgeContract    *big.Int
	RegistryContract  *big.Int
	MaxRetries        int
	RetryDelayMs      int
	TxTimeoutMs       int
}

// New returns a relay driver ready to run ticks.
func New(cfg Config) *Driver {
	return &Driver{
		deposits:         cfg.Deposits,
		artifacts:        cfg.Artifacts,
		client:           cfg.Client,
		bridgeContract:   cfg.BridgeContract,
		registryContract: cfg.RegistryContract,
		maxRetries:       cfg.MaxRetries,
		retryDelay:       time.Duration(cfg.RetryDelayMs) * time.Millisecond,
		txTimeout:        time.Duration(cfg.TxTimeoutMs) * time.Millisecond,
		logger:           log.New(os.Stderr, "[relay] ", log.LstdFlags),
	}
}

// Tick submits every READY_FOR_RELAY deposit. Relay submissions are not
// ordered relative to each other (§5): two deposits may land on L2 in
// any order.
func (d *Driver) Tick(ctx context.Context) error {
	ready, err := d.deposits.ListReadyForRelay(ctx, 0)
	if err != nil {
		return errs.Store("list ready for relay: %w", err)
	}
	for _, dep := range ready {
		if err := d.submit(ctx, dep); err != nil {
			d.logger.Printf("deposit %d: %v", dep.ID, err)
		}
	}
	return nil
}

func (d *Driver) submit(ctx context.Context, dep *deposit.Deposit) error {
	if err := d.deposits.SetStatus(ctx, dep.ID, deposit.StatusReadyForRelay, deposit.StatusProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	artifact, err := d.artifacts.ByDepositID(ctx, dep.ID)
	if err != nil {
		return d.fail(ctx, dep, fmt.Errorf("resolve artifact: %w", err))
	}

	proof, err := loadProofDocument(artifact.ProofPath)
	if err != nil {
		return d.fail(ctx, dep, fmt.Errorf("load proof document: %w", err))
	}

	calls, err := d.buildCalls(proof)
	if err != nil {
		return d.fail(ctx, dep, errs.Validation("build calls: %w", err))
	}

	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		txHash, err := d.attemptSubmit(ctx, calls)
		if err != nil {
			d.logger.Printf("deposit %d: submit attempt %d/%d failed: %v", dep.ID, attempt, d.maxRetries, err)
			if !errs.Retryable(err) {
				return d.fail(ctx, dep, err)
			}
			time.Sleep(d.retryDelay)
			continue
		}

		outcome, err := d.awaitReceipt(ctx, txHash)
		if err != nil {
			d.logger.Printf("deposit %d: receipt attempt %d/%d failed: %v", dep.ID, attempt, d.maxRetries, err)
			if !errs.Retryable(err) {
				return d.fail(ctx, dep, err)
			}
			continue
		}

		switch outcome.Status {
		case starknet.ReceiptSucceeded:
			return d.complete(ctx, dep, txHash)
		case starknet.ReceiptReverted:
			return d.fail(ctx, dep, errs.RelayRevert("transaction reverted: %s", outcome.RevertReason))
		}
	}

	return d.fail(ctx, dep, errs.RelayTransport("exhausted %d relay attempts", d.maxRetries))
}

// attemptSubmit classifies every failure as a relay transport error: a
// failed nonce fetch or invoke is always a transport/node problem here,
// never a data-validity one (buildCalls already rejected those).
func (d *Driver) attemptSubmit(ctx context.Context, calls []starknet.Call) (*big.Int, error) {
	nonce, err := d.client.GetNonce(ctx, "pending")
	if err != nil {
		return nil, errs.RelayTransport("get pending nonce: %w", err)
	}
	txHash, err := d.client.Invoke(ctx, calls, nonce)
	if err != nil {
		return nil, errs.RelayTransport("invoke: %w", err)
	}
	return txHash, nil
}

// awaitReceipt polls until the receipt leaves PENDING or the per-attempt
// deadline passes. A still-pending receipt at the deadline is a relay
// timeout (retryable: the next attempt resubmits), distinct from an RPC
// failure (also retryable, but a transport problem, not a timeout).
func (d *Driver) awaitReceipt(ctx context.Context, txHash *big.Int) (*starknet.Receipt, error) {
	deadline := time.Now().Add(d.txTimeout)
	for {
		receipt, err := d.client.GetTransactionReceipt(ctx, txHash)
		if err != nil {
			return nil, errs.RelayTransport("get transaction receipt: %w", err)
		}
		if receipt.Status != starknet.ReceiptPending {
			return receipt, nil
		}
		if time.Now().After(deadline) {
			return nil, errs.RelayTimeout("receipt still pending after %s", d.txTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (d *Driver) buildCalls(proof *ProofDocument) ([]starknet.Call, error) {
	commitmentHash, err := parseFelt(proof.CommitmentHash)
	if err != nil {
		return nil, fmt.Errorf("commitment_hash: %w", err)
	}
	merkleRoot, err := parseFelt(proof.MerkleRoot)
	if err != nil {
		return nil, fmt.Errorf("merkle_root: %w", err)
	}
	ethAddress, err := parseFelt(proof.EthAddress)
	if err != nil {
		return nil, fmt.Errorf("eth_address: %w", err)
	}
	r, err := starknet.ParseU256Hex(proof.R)
	if err != nil {
		return nil, fmt.Errorf("r: %w", err)
	}
	s, err := starknet.ParseU256Hex(proof.S)
	if err != nil {
		return nil, fmt.Errorf("s: %w", err)
	}
	proofArray := make([]*big.Int, len(proof.ProofArray))
	for i, elem := range proof.ProofArray {
		f, err := parseFelt(elem)
		if err != nil {
			return nil, fmt.Errorf("proof_array[%d]: %w", i, err)
		}
		proofArray[i] = f
	}

	registerCall := starknet.RegisterDepositProofCall(d.registryContract, commitmentHash, merkleRoot)
	mintCall := starknet.MintAndClaimCall(d.bridgeContract, proofArray, commitmentHash, ethAddress, r, s, proof.YParity)
	return []starknet.Call{registerCall, mintCall}, nil
}

func (d *Driver) complete(ctx context.Context, dep *deposit.Deposit, txHash *big.Int) error {
	if err := d.deposits.MarkCompleted(ctx, dep.ID); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	d.logger.Printf("deposit %d completed, tx hash 0x%x", dep.ID, txHash)
	return nil
}

func (d *Driver) fail(ctx context.Context, dep *deposit.Deposit, cause error) error {
	if err := d.deposits.SetStatus(ctx, dep.ID, deposit.StatusProcessing, deposit.StatusFailed); err != nil {
		return fmt.Errorf("%w (also failed to record FAILED: %v)", cause, err)
	}
	return cause
}

func loadProofDocument(path string) (*ProofDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Accumulator("read proof document %s: %w", path, err)
	}
	var doc ProofDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errs.Accumulator("decode proof document %s: %w", path, err)
	}
	return &doc, nil
}

func parseFelt(hex string) (*big.Int, error) {
	f, ok := new(big.Int).SetString(trimHex(hex), 16)
	if !ok {
		return nil, errs.InvalidInput("malformed field element %q", hex)
	}
	return f, nil
}

func trimHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// NewTask returns the service.Task driving this driver's steady-state
// loop.
func (d *Driver) NewTask(pollIntervalSeconds int, metrics *service.Metrics) *service.Task {
	t := service.NewTask("relay", time.Duration(pollIntervalSeconds)*time.Second, d.Tick)
	t.Metrics = metrics
	return t
}
