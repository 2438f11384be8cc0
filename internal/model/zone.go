package model

import (
	"encoding/json"
	"fmt"
)

// Zone is a discrete stability risk band. The ordinal value orders zones by
// severity; UnstableInverse sits below Stable because negative stability is
// a distinct failure mode, not a milder one.
type Zone int

const (
	ZoneUnstableInverse Zone = -1
	ZoneStable          Zone = 0
	ZoneWarningLow      Zone = 1
	ZoneWarningMed      Zone = 2
	ZoneWarningHigh     Zone = 3
	ZoneDangerLow       Zone = 4
	ZoneDangerMed       Zone = 5
	ZoneDangerHigh      Zone = 6
	ZoneCriticalLow     Zone = 7
	ZoneCriticalHigh    Zone = 8
	ZonePanic           Zone = 9
)

// zoneInfo carries the human label and display hint for one zone.
type zoneInfo struct {
	name  string
	label string
	hint  string
}

var zoneTable = map[Zone]zoneInfo{
	ZoneStable:          {"stable", "Stable", "green"},
	ZoneWarningLow:      {"warning_low", "Low Warning", "yellow"},
	ZoneWarningMed:      {"warning_med", "Medium Warning", "orange"},
	ZoneWarningHigh:     {"warning_high", "High Warning", "darkorange"},
	ZoneDangerLow:       {"danger_low", "Low Danger", "red"},
	ZoneDangerMed:       {"danger_med", "Medium Danger", "darkred"},
	ZoneDangerHigh:      {"danger_high", "High Danger", "crimson"},
	ZoneCriticalLow:     {"critical_low", "Low Critical", "purple"},
	ZoneCriticalHigh:    {"critical_high", "High Critical", "darkpurple"},
	ZonePanic:           {"panic", "Panic - Kill Switch", "black"},
	ZoneUnstableInverse: {"unstable_inverse", "Unstable Inverse", "blue"},
}

// Zones returns all zones in severity order, UnstableInverse first.
func Zones() []Zone {
	return []Zone{
		ZoneUnstableInverse,
		ZoneStable,
		ZoneWarningLow,
		ZoneWarningMed,
		ZoneWarningHigh,
		ZoneDangerLow,
		ZoneDangerMed,
		ZoneDangerHigh,
		ZoneCriticalLow,
		ZoneCriticalHigh,
		ZonePanic,
	}
}

// String returns the machine name, e.g. "warning_low".
func (z Zone) String() string {
	if info, ok := zoneTable[z]; ok {
		return info.name
	}
	return fmt.Sprintf("zone(%d)", int(z))
}

// Label returns the human-readable label, e.g. "Low Warning".
func (z Zone) Label() string {
	return zoneTable[z].label
}

// Hint returns the display hint (a color name) for dashboards.
func (z Zone) Hint() string {
	return zoneTable[z].hint
}

// ParseZone converts a machine name back to a Zone.
func ParseZone(name string) (Zone, error) {
	for z, info := range zoneTable {
		if info.name == name {
			return z, nil
		}
	}
	return ZoneStable, fmt.Errorf("unknown zone %q", name)
}

// MarshalJSON encodes the zone as its machine name.
func (z Zone) MarshalJSON() ([]byte, error) {
	return json.Marshal(z.String())
}

// UnmarshalJSON decodes a zone from its machine name.
func (z *Zone) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseZone(name)
	if err != nil {
		return err
	}
	*z = parsed
	return nil
}
