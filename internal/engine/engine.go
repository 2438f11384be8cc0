// Package engine implements the continuous-time stability monitoring core:
// signal integration with decay dynamics, zone classification with dwell
// accounting, bounded snapshot history, reactive zone callbacks, and the
// kill-switch safety monitor.
//
// An Engine is an explicitly owned instance; there is no package-level
// singleton. Update is the only mutating entry point and is serialized by
// an internal mutex: one tick mutates accumulators, dwell tracking, and
// history as a single atomic unit.
package engine

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/stabwatch/internal/model"
	"github.com/ppiankov/stabwatch/internal/signal"
	"github.com/ppiankov/stabwatch/internal/zone"
)

// Default integration parameters.
const (
	DefaultLambdaWeight = 0.3
	DefaultMuWeight     = 0.5
	DefaultNuWeight     = 0.2
	DefaultTauPanic     = 2.0
	DefaultHistorySize  = 1000
	DefaultHorizon      = 1.0
)

// Accumulator decay factors, applied once per tick.
const (
	errorDecay     = 0.95
	exceptionDecay = 0.9
)

// Stability is clamped to [-StabilityBound, StabilityBound].
const StabilityBound = 12.0

// Options configures an Engine. Zero values take defaults unless
// ExplicitTuning is set.
type Options struct {
	LambdaWeight float64 // error accumulator weight
	MuWeight     float64 // panic level weight
	NuWeight     float64 // exception accumulator weight
	TauPanic     float64 // panic decay constant
	HistorySize  int     // snapshot buffer capacity
	Horizon      float64 // prediction horizon in seconds

	// ExplicitTuning marks the weight and horizon fields as fully
	// resolved values: zeros are honored, not replaced by defaults.
	// Config loading sets this, since absent keys already received
	// defaults there; an explicit zero then means the same thing at
	// startup as it does through SetTuning on hot-reload. TauPanic is
	// exempt: zero is never a valid decay constant and always defaults.
	ExplicitTuning bool

	// LogWriter receives safety and lifecycle log lines. Defaults to
	// os.Stderr.
	LogWriter io.Writer

	// Now supplies the clock. Defaults to time.Now, which carries a
	// monotonic reading for dt computation.
	Now func() time.Time

	// OnSafety is invoked synchronously for each safety condition
	// observed on a tick, after the snapshot is published.
	OnSafety func(kind SafetyKind, m model.Metrics)

	// OnHalt is invoked exactly once per kill-switch trigger with the
	// snapshot that tripped it. Resetting internal state does not assert
	// the monitored process is safe; halting it is the host's decision.
	OnHalt func(m model.Metrics)
}

func (o Options) withDefaults() Options {
	if !o.ExplicitTuning {
		if o.LambdaWeight == 0 {
			o.LambdaWeight = DefaultLambdaWeight
		}
		if o.MuWeight == 0 {
			o.MuWeight = DefaultMuWeight
		}
		if o.NuWeight == 0 {
			o.NuWeight = DefaultNuWeight
		}
		if o.Horizon == 0 {
			o.Horizon = DefaultHorizon
		}
	}
	if o.TauPanic == 0 {
		o.TauPanic = DefaultTauPanic
	}
	if o.HistorySize == 0 {
		o.HistorySize = DefaultHistorySize
	}
	if o.LogWriter == nil {
		o.LogWriter = os.Stderr
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Engine owns the live stability state for one monitoring session.
type Engine struct {
	mu        sync.Mutex
	opts      Options
	sessionID string

	// Integrated state. All mutations happen under mu.
	stability  float64
	errAcc     float64
	excAcc     float64
	panicLevel float64

	dwell      map[model.Zone]float64
	totalTime  float64
	lastUpdate time.Time

	history      *ring
	callbacks    map[model.Zone][]Callback
	lastDispatch DispatchReport
}

// New creates an Engine with the given options.
func New(opts Options) *Engine {
	opts = opts.withDefaults()
	e := &Engine{
		opts:      opts,
		sessionID: uuid.NewString(),
		dwell:     freshDwell(),
		history:   newRing(opts.HistorySize),
		callbacks: make(map[model.Zone][]Callback),
	}
	e.lastUpdate = opts.Now()
	return e
}

// SessionID returns the identifier assigned to this monitoring session.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Update ingests one tick of raw events, advancing state by the wall-clock
// time elapsed since the previous update. It always returns a valid
// snapshot; anomalies surface through the snapshot's zone and derivative
// fields and through the log side channel, never as an error.
func (e *Engine) Update(batch model.Batch) model.Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.opts.Now()
	dt := now.Sub(e.lastUpdate).Seconds()
	return e.step(batch, dt, now)
}

// UpdateDelta ingests one tick with a caller-measured elapsed time. Tick
// sources that own their clock (simulators, replay drivers) use this to
// keep runs deterministic.
func (e *Engine) UpdateDelta(batch model.Batch, dt float64) model.Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step(batch, dt, e.opts.Now())
}

// step advances the engine by one tick. Caller holds mu.
// A zero or negative dt degenerates integration and dwell accounting to a
// no-op, but accumulators, zone, and history still advance.
func (e *Engine) step(batch model.Batch, dt float64, now time.Time) model.Metrics {
	e.lastUpdate = now
	if dt < 0 {
		dt = 0
	}

	errSig := signal.ErrorSignal(batch.Errors)
	excSig := signal.ExceptionSignal(batch.Exceptions)

	e.errAcc = errorDecay*e.errAcc + errSig
	e.excAcc = exceptionDecay*e.excAcc + excSig
	e.panicLevel = signal.PanicSignal(batch.PanicEvents, e.panicLevel, e.opts.TauPanic)

	derivative := e.opts.LambdaWeight*e.errAcc +
		e.opts.MuWeight*e.panicLevel +
		e.opts.NuWeight*e.excAcc

	e.stability = clamp(e.stability+derivative*dt, -StabilityBound, StabilityBound)

	z := zone.Classify(e.stability)
	e.dwell[z] += dt
	e.totalTime += dt

	m := model.Metrics{
		Stability:       e.stability,
		Derivative:      derivative,
		ErrorSignal:     e.errAcc,
		ExceptionSignal: e.excAcc,
		PanicSignal:     e.panicLevel,
		HarmPotential:   signal.HarmPotential(e.stability, batch.ActionVector),
		Compliance:      e.compliance(),
		Zone:            z,
		Timestamp:       now,
	}
	// Flag the snapshot before any consumer sees it, so the history copy,
	// zone callbacks, and the returned value all carry the same record.
	m.KillSwitch = killCondition(m.Zone, e.stability)

	e.history.Append(m)
	e.lastDispatch = e.dispatch(z, m)
	e.checkSafety(m)

	return m
}

// compliance returns the percentage of total time spent in compliant
// zones; 100 before any time has been observed. Caller holds mu.
func (e *Engine) compliance() float64 {
	if e.totalTime <= 0 {
		return 100.0
	}
	safe := 0.0
	for _, z := range zone.CompliantZones {
		safe += e.dwell[z]
	}
	return 100.0 * safe / e.totalTime
}

// DwellTime returns cumulative seconds spent in the given zone since the
// last reset.
func (e *Engine) DwellTime(z model.Zone) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dwell[z]
}

// TotalTime returns cumulative observed seconds since the last reset.
func (e *Engine) TotalTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalTime
}

// Reset re-initializes all engine state: stability, accumulators, panic
// level, dwell tracking, and history. Registered callbacks survive.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
	e.logf("state reset to stable")
}

// reset zeroes the live state. Caller holds mu.
func (e *Engine) reset() {
	e.stability = 0
	e.errAcc = 0
	e.excAcc = 0
	e.panicLevel = 0
	e.dwell = freshDwell()
	e.totalTime = 0
	e.history.Clear()
	e.lastUpdate = e.opts.Now()
}

// SetTuning swaps the integration weights, panic decay constant, and
// prediction horizon. Used by config hot-reload; accumulated state is kept.
func (e *Engine) SetTuning(lambda, mu, nu, tauPanic, horizon float64) error {
	for _, v := range []float64{lambda, mu, nu, tauPanic, horizon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("engine: non-finite tuning value %v", v)
		}
	}
	if tauPanic <= 0 {
		return fmt.Errorf("engine: tau_panic must be positive, got %v", tauPanic)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.LambdaWeight = lambda
	e.opts.MuWeight = mu
	e.opts.NuWeight = nu
	e.opts.TauPanic = tauPanic
	e.opts.Horizon = horizon
	e.logf("tuning updated: lambda=%.3f mu=%.3f nu=%.3f tau_panic=%.3f horizon=%.3f",
		lambda, mu, nu, tauPanic, horizon)
	return nil
}

// History returns a copy of the buffered snapshots, oldest first. This is
// the surface downstream aggregators (compliance, billing) read to compute
// transaction-scoped values like peak stability; the engine itself never
// computes those.
func (e *Engine) History() []model.Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Items()
}

// Last returns the most recent snapshot, if any ticks have been observed.
func (e *Engine) Last() (model.Metrics, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Last()
}

func (e *Engine) logf(format string, args ...any) {
	fmt.Fprintf(e.opts.LogWriter, "engine: "+format+"\n", args...)
}

func freshDwell() map[model.Zone]float64 {
	d := make(map[model.Zone]float64, 11)
	for _, z := range model.Zones() {
		d[z] = 0
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
