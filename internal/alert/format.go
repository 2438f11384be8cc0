package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event Event) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	case "pagerduty":
		return formatPagerDuty(event)
	default:
		return formatGeneric(event)
	}
}

func formatGeneric(event Event) ([]byte, error) {
	return json.Marshal(event)
}

func formatSlack(event Event) ([]byte, error) {
	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("stabwatch: %s", event.Kind),
				},
			},
			map[string]any{
				"type": "section",
				"fields": []any{
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Zone:* %s", event.Zone)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Stability:* %.2f", event.Stability)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*dS/dt:* %.2f", event.Derivative)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Reason:* %s", event.Reason)},
				},
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event Event) ([]byte, error) {
	severity := "info"
	switch event.Kind {
	case "kill_switch":
		severity = "critical"
	case "emergency":
		severity = "error"
	case "rapid_destabilization":
		severity = "warning"
	}

	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("stabwatch %s: zone %s", event.Kind, event.Zone),
			"severity": severity,
			"source":   "stabwatch",
			"custom_details": map[string]any{
				"zone":       event.Zone,
				"stability":  event.Stability,
				"derivative": event.Derivative,
				"compliance": event.Compliance,
				"reason":     event.Reason,
				"session_id": event.SessionID,
			},
		},
	}
	return json.Marshal(payload)
}
