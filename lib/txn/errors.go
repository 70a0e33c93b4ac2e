package txn

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupported is returned when the CPU has no RTM and the policy
	// offers no fallback. No attempt was made.
	ErrUnsupported = errors.New("txn: restricted transactional memory is not supported")

	// ErrNotInTransaction is the panic value of Abort called outside an
	// active transaction. It is a programming error, never a Cause.
	ErrNotInTransaction = errors.New("txn: abort called outside an active transaction")

	// ErrNestedTransaction is the panic value of Transaction called from
	// inside another transaction. Nesting is not supported.
	ErrNestedTransaction = errors.New("txn: nested transactions are not supported")
)

// AbortError is returned when a transaction gives up: either the cause was
// not retryable, or every attempt aborted and there was no fallback.
type AbortError struct {
	Cause    Cause
	Attempts int
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("txn: transaction aborted (%s) after %d attempt(s)", e.Cause, e.Attempts)
}

// CauseOf extracts the abort cause from err.
func CauseOf(err error) (Cause, bool) {
	var ae *AbortError
	if errors.As(err, &ae) {
		return ae.Cause, true
	}
	return Cause{}, false
}
