// Package logic contains the pure debounce engine for mouse button chatter.
// This package has NO external dependencies (no input devices, MQTT, OS, or clocks).
// Time is always injected as a millisecond timestamp on each event.
package logic

import (
	"fmt"
	"strings"
	"time"
)

// Channel identifies one physical mouse button.
type Channel int

const (
	Left Channel = iota
	Right
	Middle
	X1
	X2

	// NumChannels is the number of tracked buttons.
	NumChannels = 5
)

var channelNames = [NumChannels]string{"Left", "Right", "Middle", "X1", "X2"}

func (c Channel) String() string {
	if c < 0 || c >= NumChannels {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelNames[c]
}

// Valid reports whether c is one of the tracked buttons.
func (c Channel) Valid() bool {
	return c >= 0 && c < NumChannels
}

// ParseChannel maps a case-insensitive button name ("left", "x1", ...) to a Channel.
func ParseChannel(s string) (Channel, error) {
	for i, name := range channelNames {
		if strings.EqualFold(s, name) {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", s)
}

// Channels lists every channel in index order.
func Channels() []Channel {
	return []Channel{Left, Right, Middle, X1, X2}
}

// Edge is the direction of a button transition.
type Edge string

const (
	EdgeDown Edge = "DOWN"
	EdgeUp   Edge = "UP"
)

// Decision is the verdict for a single event.
type Decision string

const (
	Pass     Decision = "PASS"
	Suppress Decision = "SUPPRESS"
)

// ButtonEvent is a raw button transition delivered by an input source.
type ButtonEvent struct {
	Channel Channel
	Edge    Edge
	// Time is in milliseconds in the host clock domain. It wraps every ~49.7 days.
	Time uint32
}

// Result is the outcome of Filter.Handle.
type Result struct {
	Decision Decision
	// Interval is the time since the reference release, valid when Measured is set.
	Interval uint32
	Measured bool
}

// Unset is the LastUp value meaning no release has been recorded.
const Unset uint32 = 0

// State tracks debounce state for a single channel.
type State struct {
	// Minimum ms between a release and the next accepted press.
	// Negative disables filtering for the channel.
	Threshold int
	// Time of the most recent accepted release, or Unset.
	LastUp uint32
	// Set while a suppressed press awaits its matching release.
	PendingDown bool
}

// Enabled reports whether filtering is active for this channel.
func (s State) Enabled() bool {
	return s.Threshold >= 0
}

// Thresholds holds one threshold per channel, indexed by Channel.
type Thresholds [NumChannels]int

// DefaultThresholds filters the left button at 50ms and leaves the rest disabled.
func DefaultThresholds() Thresholds {
	return Thresholds{Left: 50, Right: -1, Middle: -1, X1: -1, X2: -1}
}

// ChannelCounts tracks decisions for one channel since startup.
type ChannelCounts struct {
	Passed     int
	Suppressed int
}

// Counts holds per-channel decision counters, indexed by Channel.
type Counts [NumChannels]ChannelCounts

// Total sums the counters across all channels.
func (c Counts) Total() ChannelCounts {
	var t ChannelCounts
	for _, cc := range c {
		t.Passed += cc.Passed
		t.Suppressed += cc.Suppressed
	}
	return t
}

// Event describes a suppressed button event, for logs and telemetry.
type Event struct {
	Timestamp time.Time
	Channel   Channel
	Edge      Edge
	// Interval since the reference release; only measured for presses.
	IntervalMs uint32
	Measured   bool
	Threshold  int
}
