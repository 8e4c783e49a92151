// Package nonce allocates the monotonically increasing per-recipient
// nonces used in both leaf hash domains (see pkg/commitment). Deposit and
// withdrawal nonces are tracked in separate tables and never share a
// counter.
package nonce

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/zeroxbridge/sequencer/pkg/errs"
)

// maxNonce is the largest value next_nonce can hold before it would wrap
// the signed BIGINT column backing deposit_nonces/withdrawal_nonces: the
// column is a Postgres int8, but Go reads it into a uint64, so the real
// ceiling is math.MaxInt64, not math.MaxUint64.
const maxNonce = uint64(math.MaxInt64)

// Kind selects which nonce table an allocation applies to.
type Kind string

const (
	// Deposit allocates from deposit_nonces.
	Deposit Kind = "deposit"
	// Withdrawal allocates from withdrawal_nonces.
	Withdrawal Kind = "withdrawal"
)

func tableFor(kind Kind) (string, error) {
	switch kind {
	case Deposit:
		return "deposit_nonces", nil
	case Withdrawal:
		return "withdrawal_nonces", nil
	default:
		return "", errs.InvalidInput("unknown nonce kind %q", kind)
	}
}

// Allocate returns the next nonce for recipient under the given kind,
// atomically incrementing the stored counter. It must run inside the
// caller's transaction so the allocation and the row it backs commit or
// roll back together.
func Allocate(ctx context.Context, tx *sql.Tx, kind Kind, recipient string) (uint64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (recipient, next_nonce)
		VALUES ($1, 1)
		ON CONFLICT (recipient) DO UPDATE
			SET next_nonce = %s.next_nonce + 1
		RETURNING next_nonce - 1`, table, table)

	var allocated uint64
	if err := tx.QueryRowContext(ctx, query, recipient).Scan(&allocated); err != nil {
		return 0, errs.Store("allocate %s nonce for %s: %w", kind, recipient, err)
	}
	// next_nonce is now allocated+1; refuse the allocation that would
	// bring it to the column's ceiling.
	if allocated+1 >= maxNonce {
		return 0, errs.NonceExhausted("%s nonce for %s reached the BIGINT ceiling", kind, recipient)
	}
	return allocated, nil
}

// Peek returns the next nonce that would be allocated for recipient
// without consuming it. Used by read-only endpoints; callers that intend
// to act on the result must not assume it stays valid outside a
// transaction.
func Peek(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}, kind Kind, recipient string) (uint64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`SELECT next_nonce FROM %s WHERE recipient = $1`, table)

	var next uint64
	err = q.QueryRowContext(ctx, query, recipient).Scan(&next)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errs.Store("peek %s nonce for %s: %w", kind, recipient, err)
	}
	return next, nil
}
