//go:build windows

package clock

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32                   = windows.NewLazySystemDLL("kernel32.dll")
	procQueryPerformanceCounter   = modkernel32.NewProc("QueryPerformanceCounter")
	procQueryPerformanceFrequency = modkernel32.NewProc("QueryPerformanceFrequency")
	procGetTickCount              = modkernel32.NewProc("GetTickCount")
)

// qpcClock derives milliseconds from the performance counter.
type qpcClock struct {
	freq int64
}

func (c qpcClock) NowMs() uint32 {
	var count int64
	procQueryPerformanceCounter.Call(uintptr(unsafe.Pointer(&count)))
	// Split to avoid overflowing count*1000 on long uptimes.
	sec := count / c.freq
	rem := count % c.freq
	return uint32(sec*1000 + rem*1000/c.freq)
}

func (c qpcClock) Name() string { return "QueryPerformanceCounter" }

// tickClock is the system tick count, the same domain as hook timestamps.
type tickClock struct{}

func (tickClock) NowMs() uint32 {
	r, _, _ := procGetTickCount.Call()
	return uint32(r)
}

func (tickClock) Name() string { return "GetTickCount" }

// New returns the performance-counter clock when available. Otherwise it
// returns GetTickCount along with the reason the preferred clock was refused.
func New() (Clock, error) {
	if err := procQueryPerformanceFrequency.Find(); err != nil {
		return tickClock{}, fmt.Errorf("query performance frequency: %w", err)
	}
	var freq int64
	r, _, callErr := procQueryPerformanceFrequency.Call(uintptr(unsafe.Pointer(&freq)))
	if r == 0 {
		return tickClock{}, fmt.Errorf("query performance frequency: %w", callErr)
	}
	if freq <= 0 {
		return tickClock{}, errors.New("query performance frequency: counter not supported")
	}
	return qpcClock{freq: freq}, nil
}
