package alert

// Config defines a webhook alert destination.
type Config struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"` // zone names and/or safety kinds
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// Event is the payload sent to webhook endpoints. Kind is a safety
// condition ("rapid_destabilization", "emergency", "kill_switch") or the
// reserved "zone_entry" for zone callback alerts.
type Event struct {
	Timestamp  string  `json:"timestamp"`
	SessionID  string  `json:"session_id"`
	Kind       string  `json:"kind"`
	Zone       string  `json:"zone"`
	Stability  float64 `json:"stability"`
	Derivative float64 `json:"derivative"`
	Compliance float64 `json:"compliance"`
	Reason     string  `json:"reason"`
}
