package txn

import "github.com/uber-go/tally"

type metrics struct {
	attempts  tally.Counter
	commits   tally.Counter
	fallbacks tally.Counter
	predicted tally.Counter
	failures  tally.Counter
	aborts    [len(kindNames)]tally.Counter
}

func newMetrics(scope tally.Scope) *metrics {
	m := &metrics{
		attempts:  scope.Counter("attempts"),
		commits:   scope.Counter("commits"),
		fallbacks: scope.Counter("fallbacks"),
		predicted: scope.Counter("predicted_fallbacks"),
		failures:  scope.Counter("failures"),
	}
	for k := range m.aborts {
		m.aborts[k] = scope.Tagged(map[string]string{"cause": Kind(k).String()}).Counter("aborts")
	}
	return m
}

func (m *metrics) abort(c Cause) {
	if int(c.Kind) < len(m.aborts) {
		m.aborts[c.Kind].Inc(1)
	}
}
