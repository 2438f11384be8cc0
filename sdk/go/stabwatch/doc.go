// Package stabwatch provides in-process stability monitoring for Go agent
// frameworks. It integrates reported errors, exceptions, and panics into a
// continuous stability value, classifies it into graded risk zones, and
// trips a kill-switch when the system escapes safe bounds.
//
// Usage:
//
//	sw, err := stabwatch.New(stabwatch.WithTauPanic(3.0))
//	sw.OnZone("danger_high", func(s stabwatch.Snapshot) error {
//	    return pauseWorkers()
//	})
//	snap := sw.Report(stabwatch.Batch{Errors: []float64{1.2}})
//	if snap.KillSwitch {
//	    shutdown()
//	}
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import github.com/ppiankov/stabwatch/sdk/go/stabwatch.
package stabwatch
