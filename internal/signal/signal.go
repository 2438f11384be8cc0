// Package signal contains the pure mappings from raw event batches to the
// scalar signals consumed by the stability integrator. Every function here
// is deterministic and side-effect free.
package signal

import (
	"math"

	"github.com/ppiankov/stabwatch/internal/model"
)

// Harm potential coefficients: k1 weighs stability magnitude, k2 weighs
// action vector magnitude.
const (
	harmK1 = 0.5
	harmK2 = 0.3
)

// recencyDecay is the per-index weight decay for error batches.
const recencyDecay = 0.1

// ErrorSignal maps a batch of error values to a single signal:
//
//	E(t) = Σᵢ exp(-0.1·i) · ln(1 + εᵢ)
//
// The batch is ordered most-recent first, so earlier entries carry more
// weight. Values must be non-negative; ln1p of a value below -1 is NaN and
// the caller owns that guarantee.
func ErrorSignal(errors []float64) float64 {
	if len(errors) == 0 {
		return 0.0
	}
	sum := 0.0
	for i, e := range errors {
		w := math.Exp(-recencyDecay * float64(i))
		sum += w * math.Log1p(e)
	}
	return sum
}

// ExceptionSignal maps exception records to a saturating signal:
//
//	X(t) = Σⱼ severityⱼ · (1 - exp(-decayⱼ·countⱼ))
//
// Unset fields take their model defaults.
func ExceptionSignal(exceptions []model.ExceptionEvent) float64 {
	if len(exceptions) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, exc := range exceptions {
		e := exc.Normalized()
		sum += e.Severity * (1 - math.Exp(-e.Decay*float64(e.Count)))
	}
	return sum
}

// PanicSignal computes the new panic level. With no events the previous
// level decays by exp(-1/τ). With events the level is REPLACED by
// 3·exp(maxSeverity/τ), a discontinuous jump driven by the worst event.
// The asymmetry is deliberate: panic spikes sharply and decays slowly.
func PanicSignal(events []model.PanicEvent, prevLevel, tauPanic float64) float64 {
	if len(events) == 0 {
		return prevLevel * math.Exp(-1/tauPanic)
	}
	maxSeverity := 0.0
	for _, p := range events {
		if s := p.Normalized().Severity; s > maxSeverity {
			maxSeverity = s
		}
	}
	return 3.0 * math.Exp(maxSeverity/tauPanic)
}

// HarmPotential estimates potential harm from the stability magnitude and
// an optional action vector:
//
//	H(s,a) = σ(k1·|s| + k2·‖a‖)
//
// A nil or empty action vector contributes nothing. The sigmoid bounds the
// result to (0,1).
func HarmPotential(stability float64, actionVector []float64) float64 {
	x := harmK1 * math.Abs(stability)
	if len(actionVector) > 0 {
		x += harmK2 * norm(actionVector)
	}
	return 1 / (1 + math.Exp(-x))
}

// norm returns the Euclidean norm of v.
func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
