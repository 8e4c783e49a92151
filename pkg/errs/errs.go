// Package errs defines the error-kind taxonomy shared by every service in
// the deposit lifecycle engine. Service loops classify an error by kind to
// decide retry-vs-fail; handlers classify it to decide the HTTP status.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Wrap with fmt.Errorf("...: %w", ErrX) to attach context
// while keeping errors.Is working.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrNonceExhausted   = errors.New("nonce exhausted")
	ErrStore            = errors.New("store error")
	ErrAccumulator      = errors.New("accumulator error")
	ErrProver           = errors.New("prover error")
	ErrValidation       = errors.New("validation error")
	ErrRelayTransport   = errors.New("relay transport error")
	ErrRelayRevert      = errors.New("relay reverted")
	ErrRelayTimeout     = errors.New("relay timeout")
)

// InvalidInput wraps ErrInvalidInput with a message.
func InvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}

// NotFound wraps ErrNotFound with a message.
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Store wraps ErrStore with a message.
func Store(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrStore)...)
}

// Accumulator wraps ErrAccumulator with a message.
func Accumulator(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrAccumulator)...)
}

// NonceExhausted wraps ErrNonceExhausted with a message.
func NonceExhausted(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNonceExhausted)...)
}

// Prover wraps ErrProver with a message.
func Prover(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrProver)...)
}

// Validation wraps ErrValidation with a message.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// RelayTransport wraps ErrRelayTransport with a message.
func RelayTransport(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrRelayTransport)...)
}

// RelayRevert wraps ErrRelayRevert with a message.
func RelayRevert(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrRelayRevert)...)
}

// RelayTimeout wraps ErrRelayTimeout with a message.
func RelayTimeout(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrRelayTimeout)...)
}

// Retryable reports whether an error classified under one of the known
// kinds should be retried by a service loop rather than terminally failed.
// Mirrors the propagation policy: Transport and Timeout retry, Revert and
// Validation and NonceExhausted do not.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrRelayRevert), errors.Is(err, ErrValidation), errors.Is(err, ErrNonceExhausted):
		return false
	case errors.Is(err, ErrRelayTransport), errors.Is(err, ErrRelayTimeout), errors.Is(err, ErrStore), errors.Is(err, ErrProver):
		return true
	default:
		return true
	}
}
