// Package clock supplies millisecond timestamps for input events.
// The counter is a uint32 and wraps every ~49.7 days; consumers compare
// timestamps by unsigned subtraction.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time in milliseconds.
type Clock interface {
	NowMs() uint32
	// Name describes the underlying time source, for the startup log.
	Name() string
}

// Func adapts a plain function to Clock.
type Func func() uint32

func (f Func) NowMs() uint32 { return f() }
func (f Func) Name() string  { return "func" }

// Monotonic is a portable fallback built on Go's monotonic time reading.
type Monotonic struct {
	start time.Time
}

// NewMonotonic creates a clock counting from now.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

func (m *Monotonic) NowMs() uint32 {
	return uint32(time.Since(m.start).Milliseconds())
}

func (m *Monotonic) Name() string { return "go-monotonic" }

// Fake is a manually advanced clock for tests.
type Fake struct {
	mu sync.Mutex
	ms uint32
}

// NewFake creates a fake clock reading ms.
func NewFake(ms uint32) *Fake {
	return &Fake{ms: ms}
}

func (f *Fake) NowMs() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ms
}

func (f *Fake) Name() string { return "fake" }

// Advance moves the clock forward; it wraps like the real counter.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.ms += uint32(d.Milliseconds())
	f.mu.Unlock()
}

// Set jumps the clock to ms.
func (f *Fake) Set(ms uint32) {
	f.mu.Lock()
	f.ms = ms
	f.mu.Unlock()
}
