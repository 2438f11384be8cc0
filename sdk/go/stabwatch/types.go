package stabwatch

import (
	"time"

	"github.com/ppiankov/stabwatch/internal/model"
)

// Batch is one tick of raw events. All fields are optional; an all-empty
// batch is a valid "nothing happened" tick.
type Batch struct {
	Errors       []float64
	Exceptions   []Exception
	Panics       []Panic
	ActionVector []float64
}

// Exception describes one exception class observed during a tick. Zero
// fields take defaults (severity 1.0, decay 0.5, count 1).
type Exception struct {
	Severity float64
	Decay    float64
	Count    int
}

// Panic describes one panic observed during a tick. Zero severity defaults
// to 1.0.
type Panic struct {
	Severity float64
}

// Snapshot is the per-tick monitoring result.
type Snapshot struct {
	Stability       float64
	Derivative      float64
	ErrorSignal     float64
	ExceptionSignal float64
	PanicSignal     float64
	HarmPotential   float64
	Compliance      float64
	Zone            string
	Timestamp       time.Time
	KillSwitch      bool
}

// StakeholderReport aggregates governance statistics over the snapshot
// history.
type StakeholderReport struct {
	DeveloperRisk     float64
	ConsumerSafety    float64
	StakeholderReward float64
}

// Trace is the diagnostic record available while the system is stable.
type Trace struct {
	Timestamp       time.Time
	Stability       float64
	Derivative      float64
	ErrorSignal     float64
	ExceptionSignal float64
	PanicSignal     float64
	Prediction      float64
}

func toInternalBatch(b Batch) model.Batch {
	out := model.Batch{
		Errors:       b.Errors,
		ActionVector: b.ActionVector,
	}
	if len(b.Exceptions) > 0 {
		out.Exceptions = make([]model.ExceptionEvent, len(b.Exceptions))
		for i, e := range b.Exceptions {
			out.Exceptions[i] = model.ExceptionEvent{Severity: e.Severity, Decay: e.Decay, Count: e.Count}
		}
	}
	if len(b.Panics) > 0 {
		out.PanicEvents = make([]model.PanicEvent, len(b.Panics))
		for i, p := range b.Panics {
			out.PanicEvents[i] = model.PanicEvent{Severity: p.Severity}
		}
	}
	return out
}

func toSnapshot(m model.Metrics) Snapshot {
	return Snapshot{
		Stability:       m.Stability,
		Derivative:      m.Derivative,
		ErrorSignal:     m.ErrorSignal,
		ExceptionSignal: m.ExceptionSignal,
		PanicSignal:     m.PanicSignal,
		HarmPotential:   m.HarmPotential,
		Compliance:      m.Compliance,
		Zone:            m.Zone.String(),
		Timestamp:       m.Timestamp,
		KillSwitch:      m.KillSwitch,
	}
}

func toTrace(t model.TraceReport) Trace {
	return Trace{
		Timestamp:       t.Timestamp,
		Stability:       t.Stability,
		Derivative:      t.Derivative,
		ErrorSignal:     t.Health.Error,
		ExceptionSignal: t.Health.Exception,
		PanicSignal:     t.Health.Panic,
		Prediction:      t.Prediction,
	}
}
