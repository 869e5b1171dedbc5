// Package input intercepts raw mouse button events with hardware abstraction.
// The Windows implementation installs a low-level mouse hook. The Linux
// implementations grab an evdev pointer (or watch GPIO switches) and re-emit
// accepted events through a uinput virtual pointer.
// The fake implementation allows testing without hardware.
package input

import (
	"errors"

	"github.com/sweeney/click-debounce/internal/clock"
	"github.com/sweeney/click-debounce/internal/logic"
)

// ErrRegistration marks failures to install the interception mechanism.
var ErrRegistration = errors.New("input: registration failed")

// Handler decides the fate of one button event. It is always called on the
// goroutine running Source.Run, one event at a time.
type Handler func(logic.ButtonEvent) logic.Decision

// Source delivers button events to a Handler and drops the ones it suppresses.
type Source interface {
	// Run installs the interception and blocks, calling h for every button
	// event, until Close is called or the source fails.
	Run(h Handler) error

	// Ready is closed once Run has installed the interception. It stays
	// open if installation fails.
	Ready() <-chan struct{}

	// Close releases the interception. Safe to call more than once.
	Close() error
}

// Config selects and parameterizes the platform source.
type Config struct {
	// Device is an evdev node to grab (Linux). Empty means auto-detect.
	Device string

	// GPIOChip and GPIOLines switch the Linux source to GPIO switches.
	GPIOChip  string
	GPIOLines LineMap

	// Clock stamps events that do not carry a usable timestamp.
	Clock clock.Clock
}

// DeviceInfo describes an input device found on the host.
type DeviceInfo struct {
	Path    string
	Name    string
	Pointer bool
}

// DefaultGPIOChip is the first GPIO chip on a Raspberry Pi.
const DefaultGPIOChip = "gpiochip0"

// virtualName is the name the uinput pointer registers under.
const virtualName = "click-debounce virtual pointer"
