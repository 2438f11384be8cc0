package engine

import (
	"fmt"

	"github.com/ppiankov/stabwatch/internal/model"
)

// Callback is a reactive handler bound to a zone. It receives the snapshot
// by value; snapshots are immutable after publication. A returned error is
// captured in the tick's DispatchReport, never propagated.
type Callback func(m model.Metrics) error

// CallbackFailure records one handler that returned an error or panicked.
type CallbackFailure struct {
	Index int
	Err   error
}

// DispatchReport is the per-tick diagnostic of callback execution. One
// failing handler never blocks the others or the tick.
type DispatchReport struct {
	Zone     model.Zone
	Invoked  int
	Failures []CallbackFailure
}

// RegisterZoneCallback binds a handler to a zone. Handlers fire on every
// tick the system is observed in that zone; dwelling re-fires them, which
// is intended for continuous alerting.
func (e *Engine) RegisterZoneCallback(z model.Zone, cb Callback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callbacks[z] = append(e.callbacks[z], cb)
}

// LastDispatch returns the callback diagnostic for the most recent tick.
func (e *Engine) LastDispatch() DispatchReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastDispatch
}

// dispatch invokes every handler registered for the zone, isolating
// failures per handler. Caller holds mu; handlers run synchronously within
// the tick, so they must be fast or hand off to their own goroutine.
func (e *Engine) dispatch(z model.Zone, m model.Metrics) DispatchReport {
	report := DispatchReport{Zone: z}
	for i, cb := range e.callbacks[z] {
		report.Invoked++
		if err := invoke(cb, m); err != nil {
			report.Failures = append(report.Failures, CallbackFailure{Index: i, Err: err})
			e.logf("zone callback %d for %s failed: %v", i, z, err)
		}
	}
	return report
}

// invoke runs one callback, converting a panic into an error.
func invoke(cb Callback, m model.Metrics) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panicked: %v", r)
		}
	}()
	return cb(m)
}
