package txn

// Config holds the tunables shared by the policies an application builds.
type Config struct {
	MaxAttempts int  `toml:"max-attempts"`
	Spin        int  `toml:"spin"`
	Adaptive    bool `toml:"adaptive"`
}

const (
	defaultMaxAttempts = 5
	spinLimit          = 100
)

// DefaultConfig mirrors what works for short critical sections: a handful
// of attempts with a short spin in between.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: defaultMaxAttempts,
		Spin:        spinLimit,
	}
}
