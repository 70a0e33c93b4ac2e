package txn

import "github.com/valarauca/rtm/lib/rtm"

// Tx is the handle an operation receives for the attempt it runs in.
// It is only valid until the operation returns.
type Tx struct {
	region  Region
	attempt int
	active  bool
}

// Attempt returns the 1-based index of the current attempt.
func (tx *Tx) Attempt() int {
	return tx.attempt
}

// Abort discards every write of the current attempt and ends the
// transaction with Cause{Kind: Explicit, Code: code}. It does not return.
// Explicit aborts are never retried.
//
// Calling Abort once the operation has returned, or from another goroutine,
// is a programming error and panics with ErrNotInTransaction.
func (tx *Tx) Abort(code uint8) {
	if !tx.active {
		panic(ErrNotInTransaction)
	}
	tx.region.Abort(code)
	// Still here: no region was active on this thread.
	panic(ErrNotInTransaction)
}

// Abort explicitly aborts the hardware transaction active on the calling
// thread with code. It does not return. Outside a transaction it panics with
// ErrNotInTransaction.
func Abort(code uint8) {
	if !rtm.Supported() || !rtm.TxTest() {
		panic(ErrNotInTransaction)
	}
	rtm.TxAbort(code)
	panic(ErrNotInTransaction)
}
