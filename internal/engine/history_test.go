package engine

import (
	"io"
	"math"
	"testing"
	"time"

	"github.com/ppiankov/stabwatch/internal/model"
)

// --- Ring buffer ---

func TestRingFillAndWrap(t *testing.T) {
	r := newRing(3)
	for i := 0; i < 5; i++ {
		r.Append(model.Metrics{Stability: float64(i)})
	}
	items := r.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []float64{2, 3, 4} {
		if items[i].Stability != want {
			t.Errorf("item %d: want %v, got %v", i, want, items[i].Stability)
		}
	}
	last, ok := r.Last()
	if !ok || last.Stability != 4 {
		t.Errorf("expected last=4, got %v ok=%v", last.Stability, ok)
	}
}

func TestRingEmpty(t *testing.T) {
	r := newRing(3)
	if r.Len() != 0 {
		t.Errorf("expected empty ring, len=%d", r.Len())
	}
	if _, ok := r.Last(); ok {
		t.Error("Last on empty ring must report !ok")
	}
}

func TestRingClear(t *testing.T) {
	r := newRing(3)
	r.Append(model.Metrics{})
	r.Clear()
	if r.Len() != 0 {
		t.Errorf("expected cleared ring, len=%d", r.Len())
	}
}

// --- Stakeholder metrics ---

func TestStakeholderMetricsEmptyHistory(t *testing.T) {
	e := New(quietOptions())
	got := e.StakeholderMetrics()
	want := model.StakeholderReport{DeveloperRisk: 0.0, ConsumerSafety: 1.0, StakeholderReward: 1.0}
	if got != want {
		t.Errorf("empty history: want %+v, got %+v", want, got)
	}
}

func TestStakeholderMetricsDeveloperRisk(t *testing.T) {
	e := New(quietOptions())
	e.mu.Lock()
	e.history.Append(model.Metrics{Stability: 5.0}) // excess 2 → 4
	e.history.Append(model.Metrics{Stability: 1.0}) // no excess
	e.mu.Unlock()

	got := e.StakeholderMetrics()
	if !approx(got.DeveloperRisk, 2.0) {
		t.Errorf("developer risk: want 2.0, got %v", got.DeveloperRisk)
	}
}

func TestStakeholderMetricsConsumerSafety(t *testing.T) {
	e := New(quietOptions())
	e.mu.Lock()
	e.history.Append(model.Metrics{HarmPotential: 0.5})
	e.history.Append(model.Metrics{HarmPotential: 0.5})
	e.mu.Unlock()

	got := e.StakeholderMetrics()
	if !approx(got.ConsumerSafety, math.Exp(-0.5)) {
		t.Errorf("consumer safety: want %v, got %v", math.Exp(-0.5), got.ConsumerSafety)
	}
}

func TestStakeholderRewardFloorZero(t *testing.T) {
	e := New(quietOptions())
	e.mu.Lock()
	// Every snapshot a violation with pathological harm: the blend goes
	// negative and must clamp at zero.
	for i := 0; i < 10; i++ {
		e.history.Append(model.Metrics{Stability: 12.0, HarmPotential: 50.0})
	}
	e.mu.Unlock()

	got := e.StakeholderMetrics()
	if got.StakeholderReward != 0 {
		t.Errorf("reward must clamp at 0, got %v", got.StakeholderReward)
	}
}

func TestStakeholderUptimeCapped(t *testing.T) {
	e := New(quietOptions())
	e.mu.Lock()
	e.history.Append(model.Metrics{Stability: 0})
	e.totalTime = 7200 // two hours; uptime credit caps at one
	e.mu.Unlock()

	got := e.StakeholderMetrics()
	// violations=0, uptime=1, safety=1 → 0.4·0.954 + 0.3 + 0.3
	want := 0.4*0.954 + 0.3 + 0.3
	if !approx(got.StakeholderReward, want) {
		t.Errorf("reward: want %v, got %v", want, got.StakeholderReward)
	}
}

// --- Trace ---

func TestTraceAvailableOnlyWhenStable(t *testing.T) {
	e := New(quietOptions())
	e.UpdateDelta(model.Batch{}, 0)
	if _, ok := e.Trace(); !ok {
		t.Error("trace must be available in the stable zone")
	}

	e.UpdateDelta(model.Batch{Errors: []float64{5.0, 5.0, 5.0}}, 1.0)
	if _, ok := e.Trace(); ok {
		t.Error("trace must be suppressed outside the stable zone")
	}
}

func TestTraceEmptyHistory(t *testing.T) {
	e := New(quietOptions())
	if _, ok := e.Trace(); ok {
		t.Error("trace with no observations must report !ok")
	}
}

func TestTraceFields(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e := New(Options{LogWriter: io.Discard, Now: func() time.Time { return now }})
	e.UpdateDelta(model.Batch{}, 0)
	e.UpdateDelta(model.Batch{}, 0)

	tr, ok := e.Trace()
	if !ok {
		t.Fatal("expected trace while stable")
	}
	if !tr.Timestamp.Equal(now) {
		t.Errorf("timestamp: want %v, got %v", now, tr.Timestamp)
	}
	if tr.Stability != 0 || tr.Derivative != 0 {
		t.Errorf("expected quiescent trace, got %+v", tr)
	}
	if tr.Prediction != 0 {
		t.Errorf("prediction from zero trajectory must be 0, got %v", tr.Prediction)
	}
}

func TestTracePredictionUsesLastDerivative(t *testing.T) {
	e := New(quietOptions())
	e.UpdateDelta(model.Batch{}, 0)
	// Second tick with a live derivative but dt=0 keeps stability at 0
	// (still stable), so the trace stays exposed.
	m := e.UpdateDelta(model.Batch{Errors: []float64{1.0}}, 0)

	tr, ok := e.Trace()
	if !ok {
		t.Fatal("expected trace while stable")
	}
	want := 0 + m.Derivative*DefaultHorizon
	if !approx(tr.Prediction, want) {
		t.Errorf("prediction: want %v, got %v", want, tr.Prediction)
	}
}
