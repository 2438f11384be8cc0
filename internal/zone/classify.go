// Package zone classifies a stability value into its risk band and defines
// which bands count as compliant.
package zone

import "github.com/ppiankov/stabwatch/internal/model"

// Classify maps a stability value to its zone. Total over the real line:
// bands are open on the lower edge and closed on the upper edge, with exact
// zero as the stable case and anything negative as UnstableInverse.
func Classify(s float64) model.Zone {
	switch {
	case s == 0:
		return model.ZoneStable
	case s < 0:
		return model.ZoneUnstableInverse
	case s <= 1:
		return model.ZoneWarningLow
	case s <= 2:
		return model.ZoneWarningMed
	case s <= 3:
		return model.ZoneWarningHigh
	case s <= 4.5:
		return model.ZoneDangerLow
	case s <= 6:
		return model.ZoneDangerMed
	case s <= 7.5:
		return model.ZoneDangerHigh
	case s <= 9:
		return model.ZoneCriticalLow
	case s <= 10.5:
		return model.ZoneCriticalHigh
	default:
		return model.ZonePanic
	}
}

// CompliantZones are the bands counted toward the compliance percentage:
// stability in [0, 3].
var CompliantZones = []model.Zone{
	model.ZoneStable,
	model.ZoneWarningLow,
	model.ZoneWarningMed,
	model.ZoneWarningHigh,
}

// Compliant reports whether the zone counts as compliant. Negative
// stability never does; it classifies as UnstableInverse.
func Compliant(z model.Zone) bool {
	switch z {
	case model.ZoneStable, model.ZoneWarningLow, model.ZoneWarningMed, model.ZoneWarningHigh:
		return true
	default:
		return false
	}
}
