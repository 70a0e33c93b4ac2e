//Copyright (c) 2020 Uber Technologies, Inc.
//
//Licensed under the Uber Non-Commercial License (the "License");
//you may not use this file except in compliance with the License.
//You may obtain a copy of the License at the root directory of this project.
//
//See the License for the specific language governing permissions and
//limitations under the License.

// Package txn runs operations inside hardware transactional regions.
//
// An operation passed to Transaction either commits as a whole or leaves
// memory exactly as it found it. The hardware detects conflicts at cache-line
// granularity (see CacheLineSize); an attempt that loses a conflict, overflows
// the tracking cache or is interrupted is retried according to a Policy, and
// after the last attempt the policy's fallback runs under a lock.
//
// Operations must be free of side effects outside memory. I/O, logging,
// syscalls, channel operations and anything that may block or yield abort the
// region, and effects that escaped the region before the abort cannot be
// undone. Collect such work and perform it after Transaction returns.
package txn

import (
	"reflect"
	"unsafe"

	"github.com/uber-go/tally"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/valarauca/rtm/lib/rtm"
)

// Region is the hardware boundary: it runs a body inside one transactional
// region.
type Region interface {
	// Supported reports whether regions can be started at all.
	Supported() bool
	// Run begins a region, runs body and commits. It returns
	// rtm.TxBeginStarted on commit and the abort status otherwise, in which
	// case every write made by body has been discarded.
	Run(body func()) uint32
	// Abort aborts the active region with code and does not return.
	// It returns only when no region is active.
	Abort(code uint8)
	// Active reports whether a region is active on the calling thread.
	Active() bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithRegion replaces the hardware region.
func WithRegion(r Region) Option {
	return func(e *Executor) {
		e.region = r
	}
}

// WithLogger sets the logger. Nothing is logged from inside a region.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// WithScope sets the tally scope metrics are reported to.
func WithScope(s tally.Scope) Option {
	return func(e *Executor) {
		e.scope = s
	}
}

// WithPredictor enables adaptive elision with p.
func WithPredictor(p *Predictor) Option {
	return func(e *Executor) {
		e.predictor = p
	}
}

// WithConfig reads cfg.Adaptive only: adaptive elision gets a private
// Predictor unless WithPredictor supplied one. MaxAttempts and Spin are per
// call; pass cfg to NewPolicy for those.
func WithConfig(cfg Config) Option {
	return func(e *Executor) {
		e.adaptive = cfg.Adaptive
	}
}

// Executor runs transactions. Every transaction run through one Executor
// shares its fallback lock, so use one Executor per set of data that
// fallbacks must protect. An Executor must not be copied.
type Executor struct {
	region    Region
	supported bool
	adaptive  bool
	logger    *zap.Logger
	scope     tally.Scope
	metrics   *metrics
	predictor *Predictor
	lock      fallbackLock
}

// New returns an Executor over the CPU's RTM unless WithRegion says otherwise.
// The capability probe runs once, here.
func New(opts ...Option) *Executor {
	e := &Executor{
		region: rtm.Hardware{},
		logger: zap.NewNop(),
		scope:  tally.NoopScope,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.adaptive && e.predictor == nil {
		e.predictor = NewPredictor()
	}
	e.supported = e.region.Supported()
	e.metrics = newMetrics(e.scope)
	return e
}

// Supported reports whether hardware attempts are made at all. When false,
// Transaction either runs the fallback or fails with ErrUnsupported.
func (e *Executor) Supported() bool {
	return e.supported
}

var spinSink atomic.Int32

func spinWait(n int) {
	for i := 0; i < n; i++ {
		spinSink.Load()
	}
}

// Transaction runs op inside a hardware transaction and returns its result
// once the region committed.
//
// An attempt that aborts with a retryable cause (Conflict, CapacityExceeded,
// Debug) is started again from scratch, op included, until policy.MaxAttempts
// attempts were made; then policy.Fallback runs under the fallback lock, or
// an *AbortError carrying the last cause is returned. Explicit, Nested and
// Unknown aborts are returned at once without running the fallback. A nil
// policy means one attempt and no fallback.
//
// When the CPU has no RTM, the fallback runs directly, or ErrUnsupported is
// returned before any attempt.
//
// op must not block, yield, do I/O or start a transaction of its own; calling
// Transaction from inside op panics with ErrNestedTransaction.
func Transaction[R any](e *Executor, op func(*Tx) R, policy *Policy[R]) (R, error) {
	var zero R
	fallback := policy.fallback()

	if !e.supported {
		if fallback == nil {
			return zero, ErrUnsupported
		}
		return runFallback(e, fallback), nil
	}
	if e.region.Active() {
		panic(ErrNestedTransaction)
	}

	var site, owner uintptr
	adaptive := e.predictor != nil && fallback != nil
	if adaptive {
		site = reflect.ValueOf(op).Pointer()
		owner = uintptr(unsafe.Pointer(e))
		if !e.predictor.UseHTM(site, owner) {
			e.metrics.predicted.Inc(1)
			return runFallback(e, fallback), nil
		}
	}

	var (
		maxAttempts = policy.attempts()
		spin        = policy.spin()
		tx          = &Tx{region: e.region}
		result      R
		busy        bool
		last        Cause
	)
	body := func() {
		// Subscribe to the fallback lock before touching anything else.
		if e.lock.busy() {
			busy = true
			return
		}
		result = op(tx)
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			spinWait(spin)
		}
		tx.attempt = attempt
		busy = false
		status := e.run(tx, body)
		e.metrics.attempts.Inc(1)

		switch {
		case status == rtm.TxBeginStarted && !busy:
			e.metrics.commits.Inc(1)
			if adaptive {
				e.predictor.Committed(site, owner)
			}
			return result, nil
		case status == rtm.TxBeginStarted:
			// Nothing was written; the fallback holds the lock.
			last = Cause{Kind: Conflict}
		default:
			last = Classify(status)
		}
		e.metrics.abort(last)

		if !last.Retryable() {
			e.metrics.failures.Inc(1)
			e.logger.Debug("transaction aborted",
				zap.Stringer("cause", last),
				zap.Int("attempt", attempt))
			return zero, &AbortError{Cause: last, Attempts: attempt}
		}
	}

	if fallback == nil {
		e.metrics.failures.Inc(1)
		e.logger.Debug("transaction attempts exhausted",
			zap.Stringer("cause", last),
			zap.Int("attempts", maxAttempts))
		return zero, &AbortError{Cause: last, Attempts: maxAttempts}
	}
	if adaptive {
		e.predictor.Exhausted(site, owner)
	}
	e.logger.Debug("transaction falling back",
		zap.Stringer("cause", last),
		zap.Int("attempts", maxAttempts))
	return runFallback(e, fallback), nil
}

// run marks tx active for exactly one region, even when body panics.
func (e *Executor) run(tx *Tx, body func()) uint32 {
	tx.active = true
	defer func() { tx.active = false }()
	return e.region.Run(body)
}

func runFallback[R any](e *Executor, fallback func() R) R {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.metrics.fallbacks.Inc(1)
	return fallback()
}

// Exclusive runs fn under the fallback lock, the way fallbacks run. Callers
// use it to finish work after Transaction returned a non-retryable cause.
func (e *Executor) Exclusive(fn func()) {
	e.lock.Lock()
	defer e.lock.Unlock()
	fn()
}
