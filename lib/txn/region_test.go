package txn

import (
	"github.com/valarauca/rtm/lib/rtm"
)

type abortSignal struct {
	status uint32
}

// scriptedRegion stands in for the hardware. Each Run consumes the next
// scripted status: rtm.TxBeginStarted lets the body run, anything else is
// returned as an abort before the body starts. An empty script always starts.
type scriptedRegion struct {
	unsupported bool
	script      []uint32
	repeat      uint32 // returned once script is empty, if non-zero
	begins      int
	active      bool
	rollback    func()
}

func (r *scriptedRegion) Supported() bool {
	return !r.unsupported
}

func (r *scriptedRegion) next() uint32 {
	if len(r.script) > 0 {
		s := r.script[0]
		r.script = r.script[1:]
		return s
	}
	if r.repeat != 0 {
		return r.repeat
	}
	return rtm.TxBeginStarted
}

func (r *scriptedRegion) Run(body func()) (status uint32) {
	r.begins++
	if s := r.next(); s != rtm.TxBeginStarted {
		return s
	}
	r.active = true
	defer func() {
		r.active = false
		if p := recover(); p != nil {
			sig, ok := p.(abortSignal)
			if !ok {
				panic(p)
			}
			if r.rollback != nil {
				r.rollback()
			}
			status = sig.status
		}
	}()
	body()
	return rtm.TxBeginStarted
}

func (r *scriptedRegion) Abort(code uint8) {
	if !r.active {
		return
	}
	panic(abortSignal{status: uint32(code)<<24 | rtm.TxAbortExplicit})
}

func (r *scriptedRegion) Active() bool {
	return r.active
}
