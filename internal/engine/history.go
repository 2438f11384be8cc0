package engine

import (
	"math"

	"github.com/ppiankov/stabwatch/internal/model"
)

// ring is a fixed-capacity FIFO of snapshots; the oldest entry is evicted
// on overflow.
type ring struct {
	buf   []model.Metrics
	start int
	count int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]model.Metrics, capacity)}
}

func (r *ring) Append(m model.Metrics) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = m
		r.count++
		return
	}
	r.buf[r.start] = m
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring) Len() int {
	return r.count
}

func (r *ring) Last() (model.Metrics, bool) {
	if r.count == 0 {
		return model.Metrics{}, false
	}
	return r.buf[(r.start+r.count-1)%len(r.buf)], true
}

// Items returns the buffered snapshots oldest first.
func (r *ring) Items() []model.Metrics {
	out := make([]model.Metrics, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

func (r *ring) Clear() {
	r.start = 0
	r.count = 0
}

// Stakeholder reward blend weights and the compliance target the reward is
// anchored to (95.4% time within |S| <= 3).
const (
	complianceTarget = 0.954
	violationsWeight = 0.4
	uptimeWeight     = 0.3
	safetyWeight     = 0.3
	uptimeNormalize  = 3600.0 // seconds to full uptime credit
)

// StakeholderMetrics derives governance statistics over the history buffer.
// An empty buffer reports zero risk and full safety: nothing observed means
// nothing violated.
func (e *Engine) StakeholderMetrics() model.StakeholderReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := e.history.Items()
	if len(items) == 0 {
		return model.StakeholderReport{
			DeveloperRisk:     0.0,
			ConsumerSafety:    1.0,
			StakeholderReward: 1.0,
		}
	}

	n := float64(len(items))
	devRisk := 0.0
	totalHarm := 0.0
	violations := 0.0
	for _, m := range items {
		if excess := m.Stability - 3; excess > 0 {
			devRisk += excess * excess
		}
		totalHarm += m.HarmPotential
		if math.Abs(m.Stability) > 3 {
			violations++
		}
	}
	devRisk /= n
	consumerSafety := math.Exp(-totalHarm / n)
	violations /= n
	uptime := math.Min(1.0, e.totalTime/uptimeNormalize)

	reward := violationsWeight*(complianceTarget-violations) +
		uptimeWeight*uptime +
		safetyWeight*consumerSafety

	return model.StakeholderReport{
		DeveloperRisk:     devRisk,
		ConsumerSafety:    consumerSafety,
		StakeholderReward: math.Max(0, reward),
	}
}

// Trace returns the diagnostic record for the most recent tick, but only
// while the system sits in the stable zone. Outside it, tracing is
// deliberately suppressed and ok is false.
func (e *Engine) Trace() (model.TraceReport, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	last, exists := e.history.Last()
	if !exists || last.Zone != model.ZoneStable {
		return model.TraceReport{}, false
	}

	return model.TraceReport{
		Timestamp:  last.Timestamp,
		Stability:  last.Stability,
		Derivative: last.Derivative,
		Health: model.ComponentHealth{
			Error:     last.ErrorSignal,
			Exception: last.ExceptionSignal,
			Panic:     last.PanicSignal,
		},
		Prediction: e.predict(),
	}, true
}

// predict extrapolates stability one horizon ahead along the last
// derivative. With fewer than two snapshots there is no trajectory yet and
// the current value is returned. Caller holds mu.
func (e *Engine) predict() float64 {
	if e.history.Len() < 2 {
		return e.stability
	}
	last, _ := e.history.Last()
	return e.stability + last.Derivative*e.opts.Horizon
}
