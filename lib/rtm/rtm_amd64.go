package rtm

import "github.com/intel-go/cpuid"

// indicate the CPU support RTM or not
var hasRTM = cpuid.HasExtendedFeature(cpuid.RTM)

// Supported reports whether the CPU implements RTM.
func Supported() bool {
	return hasRTM
}

// TxBegin is the start of transaction. It will return TxBeginStarted
// if transaction works, otherwise it returns different status code
func TxBegin() (status uint32)

// TxEnd marks the end of transaction
func TxEnd()

// TxAbort aborts the active transaction with code in the upper 8 bits of
// the status. It is a no-op when no transaction is active.
func TxAbort(code uint8)

// TxTest reports whether a transaction is active.
func TxTest() bool
