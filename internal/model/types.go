package model

import "time"

// Default values applied to exception and panic events with unset fields.
// A zero value means the reporter omitted the field, matching the wire
// format where absent keys decode to zero.
const (
	DefaultExceptionSeverity = 1.0
	DefaultExceptionDecay    = 0.5
	DefaultExceptionCount    = 1
	DefaultPanicSeverity     = 1.0
)

// ExceptionEvent describes one exception class observed during a tick.
type ExceptionEvent struct {
	Severity float64 `json:"severity,omitempty"`
	Decay    float64 `json:"decay,omitempty"`
	Count    int     `json:"count,omitempty"`
}

// Normalized returns a copy with unset fields replaced by defaults.
func (e ExceptionEvent) Normalized() ExceptionEvent {
	if e.Severity == 0 {
		e.Severity = DefaultExceptionSeverity
	}
	if e.Decay == 0 {
		e.Decay = DefaultExceptionDecay
	}
	if e.Count == 0 {
		e.Count = DefaultExceptionCount
	}
	return e
}

// PanicEvent describes one panic observed during a tick.
type PanicEvent struct {
	Severity float64 `json:"severity,omitempty"`
}

// Normalized returns a copy with an unset severity replaced by the default.
func (p PanicEvent) Normalized() PanicEvent {
	if p.Severity == 0 {
		p.Severity = DefaultPanicSeverity
	}
	return p
}

// Batch is the raw event input for one monitoring tick. All fields are
// optional; an all-empty batch is a valid "nothing happened" tick.
// Error values must be non-negative; the engine does not validate this.
type Batch struct {
	Errors       []float64        `json:"errors,omitempty"`
	Exceptions   []ExceptionEvent `json:"exceptions,omitempty"`
	PanicEvents  []PanicEvent     `json:"panic_events,omitempty"`
	ActionVector []float64        `json:"action_vector,omitempty"`
}

// Metrics is the immutable per-tick snapshot published by the engine.
// Once created it is never mutated; consumers receive copies by value.
type Metrics struct {
	Stability       float64   `json:"current_stability"`
	Derivative      float64   `json:"derivative"`
	ErrorSignal     float64   `json:"error_signal"`
	ExceptionSignal float64   `json:"exception_signal"`
	PanicSignal     float64   `json:"panic_signal"`
	HarmPotential   float64   `json:"harm_potential"`
	Compliance      float64   `json:"compliance_percentage"`
	Zone            Zone      `json:"zone"`
	Timestamp       time.Time `json:"timestamp"`

	// KillSwitch is set when this tick triggered the kill-switch. The
	// engine state has already been reset; whether the monitored process
	// is safe to continue is the host's call, not the engine's.
	KillSwitch bool `json:"kill_switch,omitempty"`
}

// StakeholderReport aggregates compliance statistics over the history
// buffer for governance and billing consumers.
type StakeholderReport struct {
	DeveloperRisk     float64 `json:"developer_risk"`
	ConsumerSafety    float64 `json:"consumer_safety"`
	StakeholderReward float64 `json:"stakeholder_reward"`
}

// ComponentHealth breaks the stability signal into its accumulator parts.
type ComponentHealth struct {
	Error     float64 `json:"error"`
	Exception float64 `json:"exception"`
	Panic     float64 `json:"panic"`
}

// TraceReport is the diagnostic record exposed only while the system
// dwells in the stable zone.
type TraceReport struct {
	Timestamp  time.Time       `json:"timestamp"`
	Stability  float64         `json:"stability"`
	Derivative float64         `json:"derivative"`
	Health     ComponentHealth `json:"component_health"`
	Prediction float64         `json:"prediction"`
}
