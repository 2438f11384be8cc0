package engine

import (
	"math"

	"github.com/ppiankov/stabwatch/internal/model"
)

// SafetyKind identifies a safety condition observed on a tick.
type SafetyKind string

const (
	// SafetyRapidDestabilization fires when |dS/dt| exceeds 3.
	SafetyRapidDestabilization SafetyKind = "rapid_destabilization"
	// SafetyEmergency fires when |dS/dt| exceeds 5. Log and hook only;
	// no automatic action is taken.
	SafetyEmergency SafetyKind = "emergency"
	// SafetyKillSwitch fires when the zone is Panic or stability escapes
	// (12, -1); the engine state is fully reset.
	SafetyKillSwitch SafetyKind = "kill_switch"
)

// Safety thresholds.
const (
	rapidDerivative     = 3.0
	emergencyDerivative = 5.0
	killUpperStability  = 12.0
	killLowerStability  = -1.0
)

// killCondition reports whether a tick trips the kill-switch: the panic
// zone, or stability escaping (killLowerStability, killUpperStability).
func killCondition(z model.Zone, stability float64) bool {
	return z == model.ZonePanic || stability > killUpperStability || stability < killLowerStability
}

// checkSafety reacts to the safety conditions of a snapshot, in escalating
// order. The snapshot arrives already flagged by killCondition; the
// kill-switch resets all engine state, and the snapshot keeps its pre-reset
// values so the host can decide whether to halt the monitored process.
// Caller holds mu.
func (e *Engine) checkSafety(m model.Metrics) {
	if math.Abs(m.Derivative) > rapidDerivative {
		e.logf("rapid destabilization detected: dS/dt = %.2f", m.Derivative)
		e.safetyHook(SafetyRapidDestabilization, m)
	}

	if math.Abs(m.Derivative) > emergencyDerivative {
		e.logf("EMERGENCY: intervention required (dS/dt = %.2f)", m.Derivative)
		e.safetyHook(SafetyEmergency, m)
	}

	if m.KillSwitch {
		e.logf("KILL SWITCH ACTIVATED: zone=%s stability=%.2f, resetting engine state", m.Zone, m.Stability)
		e.safetyHook(SafetyKillSwitch, m)
		if e.opts.OnHalt != nil {
			e.opts.OnHalt(m)
		}
		e.reset()
	}
}

func (e *Engine) safetyHook(kind SafetyKind, m model.Metrics) {
	if e.opts.OnSafety != nil {
		e.opts.OnSafety(kind, m)
	}
}
