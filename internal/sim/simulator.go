// Package sim drives a stability engine with a deterministic synthetic
// workload: periodic error bursts, exception clusters, and panic spikes.
// Used by the demo command and for tuning experiments.
package sim

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/ppiankov/stabwatch/internal/engine"
	"github.com/ppiankov/stabwatch/internal/model"
)

// Event injection periods, in ticks.
const (
	errorPeriod     = 20
	exceptionPeriod = 30
	panicPeriod     = 50
)

// Options configures a simulation run.
type Options struct {
	Ticks int
	Dt    float64 // seconds per tick
	Seed  int64
	Out   io.Writer // per-tick rendering; nil disables output
}

// Result summarizes one simulation run.
type Result struct {
	Ticks        int
	Final        model.Metrics
	KillSwitches int
	ZoneTicks    map[model.Zone]int
}

// Simulator generates the synthetic event schedule. Identical seeds yield
// identical schedules.
type Simulator struct {
	rng *rand.Rand
}

// New creates a Simulator with a seeded generator.
func New(seed int64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// BatchFor returns the event batch injected at the given tick. Ticks are
// 1-based; a tick that is not on any injection period returns an empty
// batch. Must be called with consecutive ticks to keep runs reproducible.
func (s *Simulator) BatchFor(tick int) model.Batch {
	var batch model.Batch

	if tick%errorPeriod == 0 {
		errors := make([]float64, 3)
		for i := range errors {
			errors[i] = s.rng.Float64() * 2
		}
		batch.Errors = errors
	}

	if tick%exceptionPeriod == 0 {
		batch.Exceptions = []model.ExceptionEvent{
			{Severity: s.rng.Float64() * 3, Count: 1},
		}
	}

	if tick%panicPeriod == 0 {
		batch.PanicEvents = []model.PanicEvent{
			{Severity: s.rng.Float64() * 5},
		}
	}

	return batch
}

// Run feeds the schedule into the engine with a fixed per-tick dt and
// returns the run summary. The engine's own safety monitor handles
// kill-switch resets mid-run.
func Run(eng *engine.Engine, opts Options) Result {
	if opts.Ticks <= 0 {
		opts.Ticks = 200
	}
	if opts.Dt <= 0 {
		opts.Dt = 0.1
	}

	s := New(opts.Seed)
	result := Result{
		Ticks:     opts.Ticks,
		ZoneTicks: make(map[model.Zone]int),
	}

	for tick := 1; tick <= opts.Ticks; tick++ {
		m := eng.UpdateDelta(s.BatchFor(tick), opts.Dt)
		result.Final = m
		result.ZoneTicks[m.Zone]++
		if m.KillSwitch {
			result.KillSwitches++
		}

		if opts.Out != nil {
			fmt.Fprintln(opts.Out, FormatTick(tick, m))
		}
	}

	return result
}

// FormatTick renders one snapshot as a fixed-width status line.
func FormatTick(tick int, m model.Metrics) string {
	line := fmt.Sprintf("tick %4d  S=%7.3f  dS/dt=%7.3f  zone=%-15s  compliance=%5.1f%%",
		tick, m.Stability, m.Derivative, m.Zone, m.Compliance)
	if m.KillSwitch {
		line += "  [KILL SWITCH]"
	}
	return line
}
