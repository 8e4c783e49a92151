// Package server exposes the deposit and withdrawal intake surface over
// HTTP: stdlib net/http.ServeMux, manual method dispatch per handler, and
// the writeJSON/writeError response helpers, matching the teacher's
// pkg/server handler idiom.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/zeroxbridge/sequencer/pkg/commitment"
	"github.com/zeroxbridge/sequencer/pkg/deposit"
	"github.com/zeroxbridge/sequencer/pkg/errs"
	"github.com/zeroxbridge/sequencer/pkg/withdrawal"
)

const (
	pendingDepositsLimit    = 10
	pendingWithdrawalsLimit = 3

	// recentRequestLogCap bounds how many canonical request hashes
	// requestLog remembers before evicting the oldest.
	recentRequestLogCap = 128
)

// Handlers serves the HTTP surface: deposit/withdrawal intake plus the
// two hash-utility endpoints clients use to precompute commitment hashes
// before submitting an on-chain transaction.
type Handlers struct {
	deposits    *deposit.Repository
	withdrawals *withdrawal.Repository
	logger      *log.Logger
	requests    *requestLog
}

// NewHandlers returns handlers backed by the given repositories.
func NewHandlers(deposits *deposit.Repository, withdrawals *withdrawal.Repository, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.New(os.Stderr, "[server] ", log.LstdFlags)
	}
	return &Handlers{deposits: deposits, withdrawals: withdrawals, logger: logger, requests: newRequestLog()}
}

// requestLog de-duplicates logged intake requests by the canonical hash
// of their decoded body, so a client's retried POST with an identical
// payload logs once instead of flooding the log with repeats.
type requestLog struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

func newRequestLog() *requestLog {
	return &requestLog{seen: make(map[string]struct{}, recentRequestLogCap)}
}

// logOnce logs msg tagged with the canonical hash of body, skipping
// bodies whose hash is already among the last recentRequestLogCap logged.
func (rl *requestLog) logOnce(logger *log.Logger, body interface{}, msg string) {
	key, err := commitment.HashCanonical(body)
	if err != nil {
		logger.Printf("%s (dedup key unavailable: %v)", msg, err)
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.seen[key]; ok {
		return
	}
	if len(rl.order) >= recentRequestLogCap {
		oldest := rl.order[0]
		rl.order = rl.order[1:]
		delete(rl.seen, oldest)
	}
	rl.seen[key] = struct{}{}
	rl.order = append(rl.order, key)
	logger.Printf("%s [%s]", msg, key)
}

// Routes registers every endpoint in the external interface on mux.
func (h *Handlers) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/deposit", h.HandleDeposit)
	mux.HandleFunc("/deposits", h.HandleDeposits)
	mux.HandleFunc("/deposits/latest", h.HandleDepositsLatest)
	mux.HandleFunc("/withdrawals", h.HandleWithdrawals)
	mux.HandleFunc("/poseidon/hash", h.HandlePoseidonHash)
	mux.HandleFunc("/compute-hash", h.HandleComputeHash)
}

// depositRequest is the POST /deposit request body.
type depositRequest struct {
	StarkPubKey    string `json:"stark_pub_key"`
	Amount         uint64 `json:"amount"`
	CommitmentHash string `json:"commitment_hash"`
}

type depositResponse struct {
	DepositID int64 `json:"deposit_id"`
}

// HandleDeposit dispatches POST (create) and GET (list pending) on the
// same /deposit path, matching the original's one-path-two-verbs layout.
func (h *Handlers) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createDeposit(w, r)
	case http.MethodGet:
		h.listPendingDeposits(w, r)
	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handlers) createDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	h.requests.logOnce(h.logger, req, "deposit request")

	dep, err := h.deposits.Create(r.Context(), deposit.NewDeposit{
		Recipient:      req.StarkPubKey,
		Amount:         req.Amount,
		CommitmentHash: req.CommitmentHash,
	}, commitment.BatchHash)
	if err != nil {
		h.writeErrorFromErr(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, depositResponse{DepositID: dep.ID})
}

func (h *Handlers) listPendingDeposits(w http.ResponseWriter, r *http.Request) {
	deposits, err := h.deposits.ListPending(r.Context(), pendingDepositsLimit)
	if err != nil {
		h.writeErrorFromErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, deposits)
}

// HandleDeposits serves GET /deposits?stark_pub_key=… or ?user_address=….
func (h *Handlers) HandleDeposits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	recipient, err := extractRecipient(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deposits, err := h.deposits.ListByRecipient(r.Context(), recipient)
	if err != nil {
		h.writeErrorFromErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, deposits)
}

// HandleDepositsLatest serves GET /deposits/latest?… : the newest deposit
// for a user, 404 if none.
func (h *Handlers) HandleDepositsLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	recipient, err := extractRecipient(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dep, err := h.deposits.LatestByRecipient(r.Context(), recipient)
	if err != nil {
		h.writeErrorFromErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dep)
}

func extractRecipient(r *http.Request) (string, error) {
	q := r.URL.Query()
	if v := q.Get("stark_pub_key"); v != "" {
		return v, nil
	}
	if v := q.Get("user_address"); v != "" {
		return v, nil
	}
	return "", errors.New("either stark_pub_key or user_address must be provided")
}

// withdrawalRequest is the POST /withdrawals request body.
type withdrawalRequest struct {
	StarkPubKey    string `json:"stark_pub_key"`
	Amount         uint64 `json:"amount"`
	CommitmentHash string `json:"commitment_hash"`
	L1Token        string `json:"l1_token"`
}

type withdrawalResponse struct {
	WithdrawalID int64 `json:"withdrawal_id"`
}

// HandleWithdrawals dispatches POST (create) and GET (list pending) on
// the same /withdrawals path.
func (h *Handlers) HandleWithdrawals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createWithdrawal(w, r)
	case http.MethodGet:
		h.listPendingWithdrawals(w, r)
	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handlers) createWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	h.requests.logOnce(h.logger, req, "withdrawal request")

	wd, err := h.withdrawals.Create(r.Context(), withdrawal.NewWithdrawal{
		Recipient:      req.StarkPubKey,
		Amount:         req.Amount,
		L1Token:        req.L1Token,
		CommitmentHash: req.CommitmentHash,
	})
	if err != nil {
		h.writeErrorFromErr(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, withdrawalResponse{WithdrawalID: wd.ID})
}

func (h *Handlers) listPendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	withdrawals, err := h.withdrawals.ListPending(r.Context(), pendingWithdrawalsLimit)
	if err != nil {
		h.writeErrorFromErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, withdrawals)
}

// poseidonHashRequest is the POST /poseidon/hash request body.
type poseidonHashRequest struct {
	Recipient  string `json:"recipient"`
	Amount     uint64 `json:"amount"`
	Nonce      uint64 `json:"nonce"`
	Timestamp  uint64 `json:"timestamp"`
	HashMethod string `json:"hash_method"`
}

type poseidonHashResponse struct {
	CommitmentHash string `json:"commitment_hash"`
}

// HandlePoseidonHash computes the L2 commitment hash a client would use
// before submitting a deposit, without touching any repository.
func (h *Handlers) HandlePoseidonHash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req poseidonHashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	hash, err := commitment.L2CommitmentHashHex(req.Recipient, req.Amount, req.Nonce, req.Timestamp, commitment.HashMethod(req.HashMethod))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, poseidonHashResponse{CommitmentHash: hash})
}

// computeHashRequest is the POST /compute-hash request body.
type computeHashRequest struct {
	StarkPubKey string `json:"stark_pubkey"`
	USDVal      uint64 `json:"usd_val"`
	Nonce       uint64 `json:"nonce"`
	Timestamp   uint64 `json:"timestamp"`
}

type computeHashResponse struct {
	CommitmentHash string             `json:"commitment_hash"`
	InputData      computeHashRequest `json:"input_data"`
}

// HandleComputeHash computes the L1 commitment hash a client would use
// before submitting a burn/withdrawal on L1, echoing its inputs back
// under input_data the way the original handler does.
func (h *Handlers) HandleComputeHash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req computeHashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	hash, err := commitment.L1LeafHashHex(req.StarkPubKey, req.USDVal, req.Nonce, req.Timestamp)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid stark_pubkey: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, computeHashResponse{
		CommitmentHash: hash,
		InputData:      req,
	})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("encode response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeErrorFromErr classifies err through the shared error-kind taxonomy
// to choose the HTTP status: invalid input -> 400, not found -> 404,
// everything else -> 500.
func (h *Handlers) writeErrorFromErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Printf("internal error: %v", err)
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
