//go:build linux

package clock

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// posixClock reads a clock_gettime clock id.
type posixClock struct {
	id   int32
	name string
}

func (c posixClock) read() (uint32, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(c.id, &ts); err != nil {
		return 0, err
	}
	ms := int64(ts.Sec)*1000 + int64(ts.Nsec)/1_000_000
	return uint32(ms), nil
}

func (c posixClock) NowMs() uint32 {
	ms, _ := c.read()
	return ms
}

func (c posixClock) Name() string { return c.name }

// New returns the best clock available. CLOCK_MONOTONIC_RAW is preferred;
// when it cannot be queried the returned error explains why and the clock
// falls back to CLOCK_MONOTONIC.
func New() (Clock, error) {
	raw := posixClock{id: unix.CLOCK_MONOTONIC_RAW, name: "CLOCK_MONOTONIC_RAW"}
	_, err := raw.read()
	if err == nil {
		return raw, nil
	}

	fallback := posixClock{id: unix.CLOCK_MONOTONIC, name: "CLOCK_MONOTONIC"}
	if _, ferr := fallback.read(); ferr != nil {
		return NewMonotonic(), fmt.Errorf("query %s: %w (fallback %s also failed: %v)", raw.name, err, fallback.name, ferr)
	}
	return fallback, fmt.Errorf("query %s: %w", raw.name, err)
}
