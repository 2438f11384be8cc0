package stabwatch

import (
	"fmt"

	"github.com/ppiankov/stabwatch/internal/engine"
	"github.com/ppiankov/stabwatch/internal/model"
)

// Client owns one in-process stability engine. Thread-safe for concurrent
// reporting.
type Client struct {
	eng *engine.Engine
}

// New creates a Client with the given options. Omitted options take the
// engine defaults.
func New(opts ...Option) (*Client, error) {
	var cfg clientConfig
	for _, o := range opts {
		o(&cfg)
	}

	engOpts := engine.Options{
		LambdaWeight: cfg.lambda,
		MuWeight:     cfg.mu,
		NuWeight:     cfg.nu,
		TauPanic:     cfg.tauPanic,
		HistorySize:  cfg.historySize,
		Horizon:      cfg.horizon,
		LogWriter:    cfg.logWriter,
	}
	if cfg.tauPanic < 0 {
		return nil, fmt.Errorf("stabwatch: tau_panic must not be negative, got %v", cfg.tauPanic)
	}
	if cfg.historySize < 0 {
		return nil, fmt.Errorf("stabwatch: history size must not be negative, got %d", cfg.historySize)
	}
	// When only part of the tuning was given explicitly, resolve the rest
	// to defaults so explicit zeros survive the engine's defaulting.
	if cfg.weightsSet || cfg.horizonSet {
		engOpts.ExplicitTuning = true
		if !cfg.weightsSet {
			engOpts.LambdaWeight = engine.DefaultLambdaWeight
			engOpts.MuWeight = engine.DefaultMuWeight
			engOpts.NuWeight = engine.DefaultNuWeight
		}
		if !cfg.horizonSet {
			engOpts.Horizon = engine.DefaultHorizon
		}
	}
	if cfg.onHalt != nil {
		halt := cfg.onHalt
		engOpts.OnHalt = func(m model.Metrics) { halt(toSnapshot(m)) }
	}

	return &Client{eng: engine.New(engOpts)}, nil
}

// SessionID returns the identifier assigned to this monitoring session.
func (c *Client) SessionID() string {
	return c.eng.SessionID()
}

// Report ingests one tick of events, advancing by wall-clock elapsed time.
func (c *Client) Report(b Batch) Snapshot {
	return toSnapshot(c.eng.Update(toInternalBatch(b)))
}

// ReportDelta ingests one tick with a caller-measured elapsed time in
// seconds. Use this when the caller owns the clock.
func (c *Client) ReportDelta(b Batch, dt float64) Snapshot {
	return toSnapshot(c.eng.UpdateDelta(toInternalBatch(b), dt))
}

// OnZone binds a handler to a zone by name (e.g. "danger_high"). The
// handler fires on every tick observed in that zone and survives resets.
func (c *Client) OnZone(zone string, fn func(Snapshot) error) error {
	z, err := model.ParseZone(zone)
	if err != nil {
		return fmt.Errorf("stabwatch: %w", err)
	}
	c.eng.RegisterZoneCallback(z, func(m model.Metrics) error {
		return fn(toSnapshot(m))
	})
	return nil
}

// Stakeholder computes governance statistics over the snapshot history.
func (c *Client) Stakeholder() StakeholderReport {
	r := c.eng.StakeholderMetrics()
	return StakeholderReport{
		DeveloperRisk:     r.DeveloperRisk,
		ConsumerSafety:    r.ConsumerSafety,
		StakeholderReward: r.StakeholderReward,
	}
}

// Trace returns the diagnostic record for the last tick. ok is false
// outside the stable zone, where tracing is suppressed.
func (c *Client) Trace() (Trace, bool) {
	t, ok := c.eng.Trace()
	if !ok {
		return Trace{}, false
	}
	return toTrace(t), true
}

// History returns the buffered snapshots, oldest first.
func (c *Client) History() []Snapshot {
	items := c.eng.History()
	out := make([]Snapshot, len(items))
	for i, m := range items {
		out[i] = toSnapshot(m)
	}
	return out
}

// Last returns the most recent snapshot, if any ticks have been observed.
func (c *Client) Last() (Snapshot, bool) {
	m, ok := c.eng.Last()
	if !ok {
		return Snapshot{}, false
	}
	return toSnapshot(m), true
}

// DwellTime returns cumulative seconds observed in the named zone since the
// last reset.
func (c *Client) DwellTime(zone string) (float64, error) {
	z, err := model.ParseZone(zone)
	if err != nil {
		return 0, fmt.Errorf("stabwatch: %w", err)
	}
	return c.eng.DwellTime(z), nil
}

// Reset re-initializes all engine state. Zone handlers survive.
func (c *Client) Reset() {
	c.eng.Reset()
}
