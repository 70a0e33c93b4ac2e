package main

import (
	"sort"
	"sync"

	"github.com/uber-go/tally"
	"go.uber.org/atomic"

	"github.com/valarauca/rtm/lib/txn"
)

// report summarises one scenario run from the executor's metrics.
type report struct {
	Total     uint64
	Expected  uint64
	Attempts  int64
	Commits   int64
	Fallbacks int64
	Surfaced  int64
	Aborts    map[string]int64
}

func (r report) causes() []string {
	causes := make([]string, 0, len(r.Aborts))
	for c := range r.Aborts {
		causes = append(causes, c)
	}
	sort.Strings(causes)
	return causes
}

func collect(scope tally.TestScope, r *report) {
	r.Aborts = map[string]int64{}
	for _, c := range scope.Snapshot().Counters() {
		switch c.Name() {
		case "attempts":
			r.Attempts += c.Value()
		case "commits":
			r.Commits += c.Value()
		case "fallbacks":
			r.Fallbacks += c.Value()
		case "aborts":
			if c.Value() > 0 {
				r.Aborts[c.Tags()["cause"]] += c.Value()
			}
		}
	}
}

// increments runs workers goroutines that each increment the counter at
// counters[worker%len(counters)] iterations times, transactionally.
func increments(e *txn.Executor, cfg Config, counters []*uint64) int64 {
	var surfaced atomic.Int64
	var wg sync.WaitGroup
	wg.Add(cfg.Workers)
	for w := 0; w < cfg.Workers; w++ {
		p := counters[w%len(counters)]
		bump := func() uint64 {
			*p++
			return *p
		}
		op := func(*txn.Tx) uint64 { return bump() }
		policy := txn.NewPolicy(cfg.Txn, bump)
		go func() {
			defer wg.Done()
			for i := 0; i < cfg.Iterations; i++ {
				if _, err := txn.Transaction(e, op, policy); err != nil {
					// Non-retryable aborts come back to the caller.
					surfaced.Inc()
					e.Exclusive(func() { bump() })
				}
			}
		}()
	}
	wg.Wait()
	return surfaced.Load()
}

// counterScenario has every worker increment one shared, line-aligned counter.
func counterScenario(cfg Config, opts ...txn.Option) report {
	scope := tally.NewTestScope("", nil)
	e := txn.New(append(opts, txn.WithScope(scope), txn.WithConfig(cfg.Txn))...)

	var counter txn.Padded[uint64]
	r := report{Expected: uint64(cfg.Workers * cfg.Iterations)}
	r.Surfaced = increments(e, cfg, []*uint64{&counter.Value})
	r.Total = counter.Value
	collect(scope, &r)
	return r
}

// sharingScenario gives every worker its own counter. With aligned set the
// counters sit on separate cache lines; otherwise they are packed together
// and falsely share lines.
func sharingScenario(cfg Config, aligned bool, opts ...txn.Option) report {
	scope := tally.NewTestScope("", nil)
	e := txn.New(append(opts, txn.WithScope(scope), txn.WithConfig(cfg.Txn))...)

	counters := make([]*uint64, cfg.Workers)
	if aligned {
		padded := make([]txn.Padded[uint64], cfg.Workers)
		for i := range padded {
			counters[i] = &padded[i].Value
		}
	} else {
		packed := make([]uint64, cfg.Workers)
		for i := range packed {
			counters[i] = &packed[i]
		}
	}

	r := report{Expected: uint64(cfg.Workers * cfg.Iterations)}
	r.Surfaced = increments(e, cfg, counters)
	for _, p := range counters {
		r.Total += *p
	}
	collect(scope, &r)
	return r
}
