package txn

// Policy bounds the attempts of one Transaction call and names what to do
// when they run out. A Policy is read once per call and never retained.
type Policy[R any] struct {
	// MaxAttempts is the number of hardware attempts, counting the first.
	// Values below 1 mean 1.
	MaxAttempts int

	// Fallback runs without hardware protection once MaxAttempts attempts
	// aborted with retryable causes, or straight away when the CPU has no
	// RTM. It runs under the executor's fallback lock, which is exclusive
	// with every other fallback and with in-flight attempts of the same
	// executor. Nil means the last cause is returned instead.
	Fallback func() R

	// Spin is how many busy iterations to wait between attempts.
	Spin int
}

func (p *Policy[R]) attempts() int {
	if p == nil || p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p *Policy[R]) spin() int {
	if p == nil || p.Spin < 0 {
		return 0
	}
	return p.Spin
}

func (p *Policy[R]) fallback() func() R {
	if p == nil {
		return nil
	}
	return p.Fallback
}

// NewPolicy builds a Policy from cfg.
func NewPolicy[R any](cfg Config, fallback func() R) *Policy[R] {
	return &Policy[R]{
		MaxAttempts: cfg.MaxAttempts,
		Spin:        cfg.Spin,
		Fallback:    fallback,
	}
}
