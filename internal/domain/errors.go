package domain

import (
	"errors"
	"fmt"
)

// Platform error taxonomy. Adapters translate vendor responses into these
// so the pipeline and benchmarker can react without knowing the platform.
var (
	// ErrNotFound: the platform does not know the requested market id.
	ErrNotFound = errors.New("market not found")
	// ErrStaleData: the market exists but resolution data could not be
	// retrieved; excluded from benchmarks, surfaced as a warning.
	ErrStaleData = errors.New("market resolution data unavailable")
	// ErrInsufficientBalance: terminal for the market's remaining trades,
	// never retried, does not abort the run.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrTradeRejected: the platform refused the trade (bad size, closed
	// market, invalid signature). Terminal for the market, not retried.
	ErrTradeRejected = errors.New("trade rejected")
)

// TransientError marks a platform/network failure worth retrying:
// connection resets, 5xx responses, RPC timeouts. Everything else is
// treated as permanent.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is marked retryable anywhere in its chain.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
