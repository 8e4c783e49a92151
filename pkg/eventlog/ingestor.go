package eventlog

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/zeroxbridge/sequencer/pkg/errs"
)

// depositEventABI describes the single event this ingestor decodes: a
// deposit commitment recorded on the L1 bridge contract, carrying the
// accumulator state at event time so the proof client can later recover
// root_hash/element_count for a given commitment_hash.
const depositEventABI = `[{
	"anonymous": false,
	"inputs": [
		{"indexed": true,  "name": "commitmentHash", "type": "bytes32"},
		{"indexed": false, "name": "rootHash",       "type": "bytes32"},
		{"indexed": false, "name": "elementCount",   "type": "uint256"}
	],
	"name": "DepositRecorded",
	"type": "event"
}]`

// Ingestor polls an L1 contract's logs for DepositRecorded events and
// ingests them idempotently, advancing the block watermark as it goes.
// Grounded on the L1 event watcher's decoded-event collaborator boundary:
// it consumes go-ethereum's ethclient.Client directly rather than this
// domain's own pkg/ethereum wrapper, since the wrapper is transaction-
// oriented and log filtering only needs FilterLogs/BlockNumber.
type Ingestor struct {
	client   *ethclient.Client
	repo     *Repository
	contract common.Address
	eventID  common.Hash
	abi      abi.ABI
}

// NewIngestor returns an ingestor that watches contract for
// DepositRecorded events via client, persisting through repo.
func NewIngestor(client *ethclient.Client, repo *Repository, contract common.Address) (*Ingestor, error) {
	parsed, err := abi.JSON(strings.NewReader(depositEventABI))
	if err != nil {
		return nil, fmt.Errorf("parse deposit event abi: %w", err)
	}
	event, ok := parsed.Events["DepositRecorded"]
	if !ok {
		return nil, fmt.Errorf("deposit event abi missing DepositRecorded")
	}
	return &Ingestor{
		client:   client,
		repo:     repo,
		contract: contract,
		eventID:  event.ID,
		abi:      parsed,
	}, nil
}

// decoded is the unpacked representation of one DepositRecorded log.
type decoded struct {
	CommitmentHash common.Hash
	RootHash       [32]byte
	ElementCount   *big.Int
}

func (i *Ingestor) decode(log types.Log) (*decoded, error) {
	if len(log.Topics) < 2 {
		return nil, errs.Accumulator("deposit log missing indexed commitment hash topic")
	}

	var out struct {
		RootHash     [32]byte
		ElementCount *big.Int
	}
	if err := i.abi.UnpackIntoInterface(&out, "DepositRecorded", log.Data); err != nil {
		return nil, errs.Accumulator("unpack deposit log: %w", err)
	}

	return &decoded{
		CommitmentHash: log.Topics[1],
		RootHash:       out.RootHash,
		ElementCount:   out.ElementCount,
	}, nil
}

// Poll fetches and ingests every DepositRecorded log between the current
// watermark (exclusive) and the chain head (inclusive), then advances
// the watermark. fromBlockFloor bounds how far back the very first poll
// looks when no watermark has been recorded yet.
func (i *Ingestor) Poll(ctx context.Context, fromBlockFloor uint64) (int, error) {
	tracker, err := i.repo.GetTracker(ctx, DepositEventStreamKey)
	if err != nil {
		return 0, err
	}

	from := uint64(tracker.LastBlock) + 1
	if tracker.LastBlock == 0 && fromBlockFloor > from {
		from = fromBlockFloor
	}

	head, err := i.client.BlockNumber(ctx)
	if err != nil {
		return 0, errs.Store("fetch chain head: %w", err)
	}
	if from > head {
		return 0, nil
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(head),
		Addresses: []common.Address{i.contract},
		Topics:    [][]common.Hash{{i.eventID}},
	}
	logs, err := i.client.FilterLogs(ctx, query)
	if err != nil {
		return 0, errs.Store("filter deposit logs: %w", err)
	}

	ingested := 0
	for _, log := range logs {
		d, err := i.decode(log)
		if err != nil {
			return ingested, err
		}
		entry := &EventLog{
			TxHash:         log.TxHash.Hex(),
			LogIndex:       int(log.Index),
			CommitmentHash: d.CommitmentHash.Hex(),
			RootHash:       common.BytesToHash(d.RootHash[:]).Hex(),
			ElementCount:   d.ElementCount.Int64(),
			BlockNumber:    int64(log.BlockNumber),
			Processed:      true,
		}
		if err := i.repo.Upsert(ctx, entry); err != nil {
			return ingested, err
		}
		ingested++
	}

	if err := i.repo.AdvanceTracker(ctx, DepositEventStreamKey, int64(head)); err != nil {
		return ingested, err
	}
	return ingested, nil
}
