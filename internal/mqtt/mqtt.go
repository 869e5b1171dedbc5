// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/click-debounce/internal/logic"
)

// Topic is the MQTT topic for suppressed-click events.
const Topic = "input/click-debounce/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "input/click-debounce/system"

// ClientID identifies this daemon to the broker.
const ClientID = "click-debounce"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a suppression event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active and how much
// is waiting for it.
type ConnectionStatus interface {
	IsConnected() bool
	Backlog() (queued, dropped int)
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// EventSuppressed is the event name carried by every suppression payload.
const EventSuppressed = "SUPPRESSED"

// Payload represents the MQTT message payload structure.
type Payload struct {
	Debounce DebouncePayload `json:"debounce"`
}

// DebouncePayload contains the suppression details.
type DebouncePayload struct {
	Timestamp   string  `json:"timestamp"`
	Event       string  `json:"event"`
	Button      string  `json:"button"`
	Edge        string  `json:"edge"`
	IntervalMs  *uint32 `json:"interval_ms,omitempty"`
	ThresholdMs int     `json:"threshold_ms"`
}

// FormatPayload creates the JSON payload for a suppression event.
// Paired releases carry no interval.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Debounce: DebouncePayload{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339Nano),
			Event:       EventSuppressed,
			Button:      strings.ToLower(event.Channel.String()),
			Edge:        string(event.Edge),
			ThresholdMs: event.Threshold,
		},
	}
	if event.Measured {
		iv := event.IntervalMs
		payload.Debounce.IntervalMs = &iv
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// NopPublisher discards everything. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(logic.Event) error       { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }
func (NopPublisher) Close() error                    { return nil }
func (NopPublisher) IsConnected() bool               { return false }
func (NopPublisher) Backlog() (int, int)             { return 0, 0 }
