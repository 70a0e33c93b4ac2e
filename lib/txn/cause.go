//Copyright (c) 2020 Uber Technologies, Inc.
//
//Licensed under the Uber Non-Commercial License (the "License");
//you may not use this file except in compliance with the License.
//You may obtain a copy of the License at the root directory of this project.
//
//See the License for the specific language governing permissions and
//limitations under the License.
package txn

import (
	"fmt"

	"github.com/valarauca/rtm/lib/rtm"
)

// Kind is the reason an attempt aborted.
type Kind uint8

const (
	// Unknown means the status bits matched no recognised cause.
	Unknown Kind = iota
	// Conflict means another thread touched a cache line in the read or write set.
	Conflict
	// CapacityExceeded means the working set no longer fit in the tracking cache.
	CapacityExceeded
	// Explicit means the transaction called Abort. Cause.Code carries the code.
	Explicit
	// Nested means the abort happened inside a nested region.
	Nested
	// Debug means a breakpoint or debug exception hit the region.
	Debug
)

var kindNames = [...]string{
	Unknown:          "unknown",
	Conflict:         "conflict",
	CapacityExceeded: "capacity",
	Explicit:         "explicit",
	Nested:           "nested",
	Debug:            "debug",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Cause describes why one attempt aborted. Code is only meaningful when
// Kind is Explicit.
type Cause struct {
	Kind Kind
	Code uint8
}

func (c Cause) String() string {
	if c.Kind == Explicit {
		return fmt.Sprintf("explicit(%d)", c.Code)
	}
	return c.Kind.String()
}

// Retryable reports whether the executor may start another attempt after
// this cause. Explicit and nested aborts are decisions made by the caller,
// and an unknown status may never clear.
func (c Cause) Retryable() bool {
	switch c.Kind {
	case Conflict, CapacityExceeded, Debug:
		return true
	default:
		return false
	}
}

// Classify maps a raw abort status to exactly one Cause. Hardware can set
// several bits at once; the most specific one wins. Every status, including
// ones the hardware never produces, yields a Cause.
func Classify(status uint32) Cause {
	switch {
	case status&rtm.TxAbortExplicit != 0:
		return Cause{Kind: Explicit, Code: rtm.GetImm(status)}
	case status&rtm.TxAbortNested != 0:
		return Cause{Kind: Nested}
	case status&rtm.TxAbortCapacity != 0:
		return Cause{Kind: CapacityExceeded}
	case status&(rtm.TxAbortRetry|rtm.TxAbortConflict) != 0:
		return Cause{Kind: Conflict}
	case status&rtm.TxAbortDebug != 0:
		return Cause{Kind: Debug}
	default:
		return Cause{Kind: Unknown}
	}
}
