//Copyright (c) 2020 Uber Technologies, Inc.
//
//Licensed under the Uber Non-Commercial License (the "License");
//you may not use this file except in compliance with the License.
//You may obtain a copy of the License at the root directory of this project.
//
//See the License for the specific language governing permissions and
//limitations under the License.

// Package rtm binds the Intel RTM instructions (XBEGIN, XEND, XABORT, XTEST).
//
// The functions here are raw: they do no bookkeeping and no checking. Most
// callers want package txn instead.
package rtm

// GetImm returns customized status code from higher 8 bits.
func GetImm(status uint32) uint8 {
	return uint8(((status) >> 24) & 0xff)
}

// refer to Intel manual
const (
	TxBeginStarted  uint32 = ^uint32(0)
	TxAbortExplicit uint32 = (1 << 0)
	TxAbortRetry    uint32 = (1 << 1)
	TxAbortConflict uint32 = (1 << 2)
	TxAbortCapacity uint32 = (1 << 3)
	TxAbortDebug    uint32 = (1 << 4)
	TxAbortNested   uint32 = (1 << 5)
)

// Hardware drives transactional regions on the host CPU.
// The zero value is ready to use.
type Hardware struct{}

// Supported reports whether the CPU implements RTM.
func (Hardware) Supported() bool {
	return Supported()
}

// Run begins a region, executes body and commits. It returns TxBeginStarted
// when the region committed and the abort status otherwise. On abort every
// write body made has been discarded and body did not finish.
//go:nosplit
func (Hardware) Run(body func()) uint32 {
	status := TxBegin()
	if status != TxBeginStarted {
		return status
	}
	body()
	TxEnd()
	return TxBeginStarted
}

// Abort aborts the active region with code. Outside a region it does nothing.
func (Hardware) Abort(code uint8) {
	if Supported() {
		TxAbort(code)
	}
}

// Active reports whether a region is active on this thread.
// XTEST faults on CPUs without RTM, so the probe goes first.
func (Hardware) Active() bool {
	return Supported() && TxTest()
}
