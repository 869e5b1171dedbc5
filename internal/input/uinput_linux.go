//go:build linux

package input

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocNone  = 0
	iocWrite = 1
)

func ioc(dir, typ, nr, size uint) uint {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

var (
	uiSetEvbit   = ioc(iocWrite, 'U', 100, 4)
	uiSetKeybit  = ioc(iocWrite, 'U', 101, 4)
	uiSetRelbit  = ioc(iocWrite, 'U', 102, 4)
	uiDevCreate  = ioc(iocNone, 'U', 1, 0)
	uiDevDestroy = ioc(iocNone, 'U', 2, 0)
)

const (
	evSyn     = 0x00
	evKey     = 0x01
	evRel     = 0x02
	synReport = 0

	busVirtual        = 0x06
	uinputMaxNameSize = 80
	absCnt            = 0x3f + 1
)

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputUserDev struct {
	Name         [uinputMaxNameSize]byte
	ID           inputID
	FFEffectsMax uint32
	Absmax       [absCnt]int32
	Absmin       [absCnt]int32
	Absfuzz      [absCnt]int32
	Absflat      [absCnt]int32
}

// rawEvent mirrors struct input_event.
type rawEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

func (ev *rawEvent) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(ev)), unsafe.Sizeof(*ev))
}

// VirtualPointer is a uinput device that re-emits accepted events.
type VirtualPointer struct {
	fd   int
	once sync.Once
}

// NewVirtualPointer creates a uinput pointer advertising the given key and
// relative-axis codes.
func NewVirtualPointer(name string, keys, rels []int) (*VirtualPointer, error) {
	fd, err := unix.Open("/dev/uinput", unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/uinput: %w", err)
	}

	if err := configureUinput(fd, name, keys, rels); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &VirtualPointer{fd: fd}, nil
}

func configureUinput(fd int, name string, keys, rels []int) error {
	for _, ev := range []int{evSyn, evKey, evRel} {
		if err := unix.IoctlSetInt(fd, uiSetEvbit, ev); err != nil {
			return fmt.Errorf("UI_SET_EVBIT(%d): %w", ev, err)
		}
	}
	for _, code := range keys {
		if err := unix.IoctlSetInt(fd, uiSetKeybit, code); err != nil {
			return fmt.Errorf("UI_SET_KEYBIT(%#x): %w", code, err)
		}
	}
	for _, code := range rels {
		if err := unix.IoctlSetInt(fd, uiSetRelbit, code); err != nil {
			return fmt.Errorf("UI_SET_RELBIT(%#x): %w", code, err)
		}
	}

	var setup uinputUserDev
	copy(setup.Name[:uinputMaxNameSize-1], name)
	setup.ID = inputID{Bustype: busVirtual, Vendor: 0x1, Product: 0x1, Version: 1}

	buf := unsafe.Slice((*byte)(unsafe.Pointer(&setup)), unsafe.Sizeof(setup))
	if _, err := unix.Write(fd, buf); err != nil {
		return fmt.Errorf("write uinput setup: %w", err)
	}

	if err := unix.IoctlSetInt(fd, uiDevCreate, 0); err != nil {
		return fmt.Errorf("UI_DEV_CREATE: %w", err)
	}
	return nil
}

// Emit writes a single event. The kernel stamps it on arrival.
func (p *VirtualPointer) Emit(typ, code uint16, value int32) error {
	ev := rawEvent{Type: typ, Code: code, Value: value}
	if _, err := unix.Write(p.fd, ev.bytes()); err != nil {
		return fmt.Errorf("write event %d/%#x: %w", typ, code, err)
	}
	return nil
}

// Sync terminates the current event frame.
func (p *VirtualPointer) Sync() error {
	return p.Emit(evSyn, synReport, 0)
}

// Close destroys the virtual device.
func (p *VirtualPointer) Close() error {
	var err error
	p.once.Do(func() {
		if derr := unix.IoctlSetInt(p.fd, uiDevDestroy, 0); derr != nil {
			err = fmt.Errorf("UI_DEV_DESTROY: %w", derr)
		}
		if cerr := unix.Close(p.fd); cerr != nil && err == nil {
			err = fmt.Errorf("close uinput: %w", cerr)
		}
	})
	return err
}
