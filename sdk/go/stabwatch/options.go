package stabwatch

import "io"

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	lambda      float64
	mu          float64
	nu          float64
	tauPanic    float64
	historySize int
	horizon     float64
	weightsSet  bool
	horizonSet  bool
	logWriter   io.Writer
	onHalt      func(Snapshot)
}

// WithWeights sets the derivative blend weights for the error, panic, and
// exception accumulators. Explicit zeros are honored, silencing that
// signal; omit the option to keep the defaults.
func WithWeights(lambda, mu, nu float64) Option {
	return func(c *clientConfig) {
		c.lambda = lambda
		c.mu = mu
		c.nu = nu
		c.weightsSet = true
	}
}

// WithTauPanic sets the panic decay time constant in seconds. Zero keeps
// the default.
func WithTauPanic(tau float64) Option {
	return func(c *clientConfig) { c.tauPanic = tau }
}

// WithHistorySize sets the snapshot buffer capacity. Zero keeps the
// default.
func WithHistorySize(n int) Option {
	return func(c *clientConfig) { c.historySize = n }
}

// WithHorizon sets the trace prediction horizon in seconds. An explicit
// zero is honored; omit the option to keep the default.
func WithHorizon(seconds float64) Option {
	return func(c *clientConfig) {
		c.horizon = seconds
		c.horizonSet = true
	}
}

// WithLogWriter redirects engine log lines. Defaults to stderr.
func WithLogWriter(w io.Writer) Option {
	return func(c *clientConfig) { c.logWriter = w }
}

// WithHaltHook registers a handler invoked once per kill-switch trigger
// with the snapshot that tripped it. The engine resets its own state; halting
// the monitored process is the host's decision.
func WithHaltHook(fn func(Snapshot)) Option {
	return func(c *clientConfig) { c.onHalt = fn }
}
