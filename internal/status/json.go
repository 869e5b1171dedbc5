package status

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/click-debounce/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event           string           `json:"event,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	Active          bool             `json:"active"`
	Running         bool             `json:"running"`
	Source          string           `json:"source"`
	Clock           string           `json:"clock"`
	UptimeSeconds   int64            `json:"uptime_seconds"`
	StartTime       string           `json:"start_time"`
	Timestamp       string           `json:"timestamp"`
	MQTT            MQTTStatus       `json:"mqtt"`
	Buttons         []ButtonJSON     `json:"buttons"`
	Totals          CountsJSON       `json:"totals"`
	LastSuppression *SuppressionJSON `json:"last_suppression,omitempty"`
	Config          ConfigJSON       `json:"config"`
}

// MQTTStatus reports MQTT connection state and the offline backlog.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Buffered  int    `json:"buffered"`
	Dropped   int    `json:"dropped"`
}

// ButtonJSON is the per-button view of threshold and counters.
type ButtonJSON struct {
	Button      string `json:"button"`
	Enabled     bool   `json:"enabled"`
	ThresholdMs int    `json:"threshold_ms"`
	Passed      int    `json:"passed"`
	Suppressed  int    `json:"suppressed"`
}

// CountsJSON is the JSON representation of aggregate counters.
type CountsJSON struct {
	Passed     int `json:"passed"`
	Suppressed int `json:"suppressed"`
}

// SuppressionJSON describes the most recent suppressed event.
type SuppressionJSON struct {
	Timestamp  string  `json:"timestamp"`
	Button     string  `json:"button"`
	Edge       string  `json:"edge"`
	IntervalMs *uint32 `json:"interval_ms,omitempty"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	total := snap.Counts.Total()
	inner := StatusInner{
		Active:        snap.Active(),
		Running:       snap.Running,
		Source:        snap.Config.Source,
		Clock:         snap.Config.Clock,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
			Buffered:  snap.MQTTQueued,
			Dropped:   snap.MQTTDropped,
		},
		Totals: CountsJSON{Passed: total.Passed, Suppressed: total.Suppressed},
		Config: ConfigJSON{
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	for _, ch := range logic.Channels() {
		th := snap.Config.Thresholds[ch]
		inner.Buttons = append(inner.Buttons, ButtonJSON{
			Button:      strings.ToLower(ch.String()),
			Enabled:     th >= 0,
			ThresholdMs: th,
			Passed:      snap.Counts[ch].Passed,
			Suppressed:  snap.Counts[ch].Suppressed,
		})
	}

	if last := snap.LastSuppression; last != nil {
		s := &SuppressionJSON{
			Timestamp: last.Timestamp.UTC().Format(time.RFC3339Nano),
			Button:    strings.ToLower(last.Channel.String()),
			Edge:      string(last.Edge),
		}
		if last.Measured {
			iv := last.IntervalMs
			s.IntervalMs = &iv
		}
		inner.LastSuppression = s
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
