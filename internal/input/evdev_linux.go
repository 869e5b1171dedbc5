//go:build linux

package input

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"syscall"

	evdev "github.com/gvalkov/golang-evdev"
	"golang.org/x/sys/unix"

	"github.com/sweeney/click-debounce/internal/clock"
	"github.com/sweeney/click-debounce/internal/logic"
)

// Evdev grabs a Linux pointer device and forwards accepted events through a
// uinput virtual pointer, so suppressed events never reach applications.
type Evdev struct {
	dev   *evdev.InputDevice
	devFD int
	wake  int // eventfd used to deliver Close into the poll loop
	clock clock.Clock
	ready chan struct{}
	// kernelTime is set when the device stamps events on CLOCK_MONOTONIC.
	kernelTime bool

	mu      sync.Mutex
	started bool
	closed  bool

	releaseOnce sync.Once
	releaseErr  error
	out         eventSink
	grabbed     bool
}

// eventSink receives the events that pass the filter.
type eventSink interface {
	Emit(typ, code uint16, value int32) error
	Close() error
}

var evioCSClockID = ioc(iocWrite, 'E', 0xa0, 4)

// NewEvdev opens the pointer at path. The device is not grabbed until Run.
func NewEvdev(path string, clk clock.Clock) (*Evdev, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrRegistration, path, err)
	}
	if !isPointer(dev) {
		dev.File.Close()
		return nil, fmt.Errorf("%w: %s (%s) is not a pointer device", ErrRegistration, path, dev.Name)
	}

	wake, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		dev.File.Close()
		return nil, fmt.Errorf("%w: eventfd: %v", ErrRegistration, err)
	}

	e := &Evdev{
		dev:   dev,
		devFD: int(dev.File.Fd()),
		wake:  wake,
		clock: clk,
		ready: make(chan struct{}),
	}
	// Event timestamps default to CLOCK_REALTIME, which can step. Ask for
	// CLOCK_MONOTONIC so intervals inside one read batch stay exact.
	if err := unix.IoctlSetPointerInt(e.devFD, evioCSClockID, unix.CLOCK_MONOTONIC); err != nil {
		log.Printf("input: %s: monotonic event clock unavailable, stamping with %s: %v", path, clk.Name(), err)
	} else {
		e.kernelTime = true
	}
	return e, nil
}

// Name returns the kernel name of the grabbed device.
func (e *Evdev) Name() string {
	return e.dev.Name
}

// Run grabs the device, mirrors it as a virtual pointer and filters events
// until Close. Release happens on this goroutine before Run returns.
func (e *Evdev) Run(h Handler) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	e.mu.Unlock()
	defer e.release()

	keys, rels := capabilities(e.dev)
	out, err := NewVirtualPointer(virtualName, keys, rels)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistration, err)
	}
	e.out = out

	if err := e.dev.Grab(); err != nil {
		return fmt.Errorf("%w: grab %s: %v", ErrRegistration, e.dev.Fn, err)
	}
	e.grabbed = true
	log.Printf("input: grabbed %s (%s)", e.dev.Fn, e.dev.Name)
	close(e.ready)

	fds := []unix.PollFd{
		{Fd: int32(e.devFD), Events: unix.POLLIN},
		{Fd: int32(e.wake), Events: unix.POLLIN},
	}
	for {
		fds[0].Revents, fds[1].Revents = 0, 0
		if _, err := unix.Poll(fds, -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll %s: %w", e.dev.Fn, err)
		}

		if fds[1].Revents != 0 {
			return nil
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return fmt.Errorf("device %s disconnected", e.dev.Fn)
		}
		if fds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		events, err := e.dev.Read()
		if err != nil {
			return fmt.Errorf("read %s: %w", e.dev.Fn, err)
		}
		e.dispatchAll(events, h)
	}
}

// dispatchAll filters one read batch. Each event keeps its own kernel time;
// without it the whole batch shares the clock reading taken here.
func (e *Evdev) dispatchAll(events []evdev.InputEvent, h Handler) {
	var now uint32
	if !e.kernelTime {
		now = e.clock.NowMs()
	}
	for _, ev := range events {
		ts := now
		if e.kernelTime {
			ts = timevalMs(ev.Time)
		}
		if err := e.dispatch(ev, ts, h); err != nil {
			log.Printf("input: forward error: %v", err)
		}
	}
}

func (e *Evdev) dispatch(ev evdev.InputEvent, ts uint32, h Handler) error {
	if ch, edge, ok := buttonEvent(ev.Type, ev.Code, ev.Value); ok {
		if h(logic.ButtonEvent{Channel: ch, Edge: edge, Time: ts}) == logic.Suppress {
			return nil
		}
	}
	return e.out.Emit(ev.Type, ev.Code, ev.Value)
}

// timevalMs truncates tv to milliseconds, wrapping like the other clocks.
func timevalMs(tv syscall.Timeval) uint32 {
	return uint32(int64(tv.Sec)*1000 + int64(tv.Usec)/1000)
}

// Ready is closed once the device is grabbed and mirrored.
func (e *Evdev) Ready() <-chan struct{} {
	return e.ready
}

// Close releases the device. When Run is active the request is delivered to
// its poll loop and the release happens there.
func (e *Evdev) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	started := e.started
	e.mu.Unlock()

	if !started {
		e.release()
		return e.releaseErr
	}

	var one [8]byte
	one[0] = 1
	if _, err := unix.Write(e.wake, one[:]); err != nil {
		return fmt.Errorf("wake input loop: %w", err)
	}
	return nil
}

func (e *Evdev) release() {
	e.releaseOnce.Do(func() {
		var errs []error
		if e.grabbed {
			if err := e.dev.Release(); err != nil {
				errs = append(errs, fmt.Errorf("release grab: %w", err))
			}
		}
		if e.out != nil {
			if err := e.out.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := e.dev.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close device: %w", err))
		}
		// The wake fd stays open; a late Close may still write to it.
		if len(errs) > 0 {
			e.releaseErr = fmt.Errorf("release errors: %v", errs)
			log.Printf("input: %v", e.releaseErr)
			return
		}
		log.Printf("input: released %s", e.dev.Fn)
	})
}

// capabilities lists the key and relative codes the device reports.
func capabilities(dev *evdev.InputDevice) (keys, rels []int) {
	for capType, codes := range dev.Capabilities {
		switch capType.Type {
		case evdev.EV_KEY:
			for _, c := range codes {
				keys = append(keys, c.Code)
			}
		case evdev.EV_REL:
			for _, c := range codes {
				rels = append(rels, c.Code)
			}
		}
	}
	sort.Ints(keys)
	sort.Ints(rels)
	return keys, rels
}

func isPointer(dev *evdev.InputDevice) bool {
	keys, rels := capabilities(dev)
	return containsCode(keys, evdev.BTN_LEFT) && containsCode(rels, evdev.REL_X)
}

func containsCode(codes []int, code int) bool {
	i := sort.SearchInts(codes, code)
	return i < len(codes) && codes[i] == code
}

// ListDevices reports every evdev node and whether it looks like a pointer.
func ListDevices() ([]DeviceInfo, error) {
	devs, err := evdev.ListInputDevices("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}

	infos := make([]DeviceInfo, 0, len(devs))
	for _, d := range devs {
		infos = append(infos, DeviceInfo{Path: d.Fn, Name: d.Name, Pointer: isPointer(d)})
		d.File.Close()
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

// FindPointer returns path when set, otherwise the first pointer device found.
func FindPointer(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	infos, err := ListDevices()
	if err != nil {
		return "", err
	}
	for _, info := range infos {
		if info.Pointer && info.Name != virtualName {
			return info.Path, nil
		}
	}
	return "", fmt.Errorf("%w: no pointer device found under /dev/input (try -device, or run with access to input devices)", ErrRegistration)
}
