// Package status provides a thread-safe status tracker for the click-debounce daemon.
// It is read by the HTTP handlers and by the MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/click-debounce/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Thresholds  logic.Thresholds
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Source      string // Human-readable input source, e.g. "evdev /dev/input/event3"
	Clock       string // Name of the millisecond clock in use
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Counts          logic.Counts
	LastSuppression *logic.Event
	StartTime       time.Time
	Now             time.Time
	Running         bool
	MQTTConnected   bool
	MQTTQueued      int // messages waiting for the broker
	MQTTDropped     int // messages discarded while the backlog was full
	Config          Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Active reports whether at least one button has filtering enabled.
func (s Snapshot) Active() bool {
	for _, th := range s.Config.Thresholds {
		if th >= 0 {
			return true
		}
	}
	return false
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the per-button counters.
// Called from the input handler after every decision.
func (t *Tracker) Update(counts logic.Counts) {
	t.mu.Lock()
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordSuppression remembers the most recent suppressed event.
func (t *Tracker) RecordSuppression(ev logic.Event) {
	t.mu.Lock()
	t.snap.LastSuppression = &ev
	t.mu.Unlock()
}

// SetRunning marks whether the input source is delivering events.
func (t *Tracker) SetRunning(running bool) {
	t.mu.Lock()
	t.snap.Running = running
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetMQTTBacklog records the publisher's offline backlog.
func (t *Tracker) SetMQTTBacklog(queued, dropped int) {
	t.mu.Lock()
	t.snap.MQTTQueued = queued
	t.snap.MQTTDropped = dropped
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.LastSuppression != nil {
		last := *s.LastSuppression
		s.LastSuppression = &last
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
