//go:build windows

package input

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/sweeney/click-debounce/internal/logic"
)

var (
	moduser32               = windows.NewLazySystemDLL("user32.dll")
	modkernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procSetWindowsHookExW   = moduser32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = moduser32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = moduser32.NewProc("CallNextHookEx")
	procGetMessageW         = moduser32.NewProc("GetMessageW")
	procPeekMessageW        = moduser32.NewProc("PeekMessageW")
	procTranslateMessage    = moduser32.NewProc("TranslateMessage")
	procDispatchMessageW    = moduser32.NewProc("DispatchMessageW")
	procPostThreadMessageW  = moduser32.NewProc("PostThreadMessageW")
	procGetModuleHandleW    = modkernel32.NewProc("GetModuleHandleW")
	procGetTickCount        = modkernel32.NewProc("GetTickCount")
)

const (
	whMouseLL = 14
	hcAction  = 0

	wmQuit        = 0x0012
	wmUser        = 0x0400
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmXButtonDown = 0x020B
	wmXButtonUp   = 0x020C

	xButton1 = 0x0001
	xButton2 = 0x0002

	pmNoRemove = 0x0000
)

type point struct {
	X, Y int32
}

type msllHookStruct struct {
	Pt          point
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type winMsg struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

// Hook intercepts mouse input with a WH_MOUSE_LL hook. The hook procedure
// runs on the thread that installed it, which must pump messages; Run locks
// itself to that thread and Close posts WM_QUIT to it.
type Hook struct {
	// tick stamps events the system delivers without a time. It must stay in
	// the GetTickCount domain that MSLLHOOKSTRUCT.time uses.
	tick     func() uint32
	callback uintptr
	ready    chan struct{}

	mu       sync.Mutex
	started  bool
	closed   bool
	threadID uint32

	handler   Handler
	hhook     uintptr
	unhookOne sync.Once
}

// NewHook prepares a low-level mouse hook. Nothing is installed until Run.
func NewHook() *Hook {
	k := &Hook{tick: tickCount, ready: make(chan struct{})}
	k.callback = windows.NewCallback(k.proc)
	return k
}

func tickCount() uint32 {
	r, _, _ := procGetTickCount.Call()
	return uint32(r)
}

// Run installs the hook and pumps messages until Close.
func (k *Hook) Run(h Handler) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// Make sure this thread has a message queue before Close can post to it.
	var msg winMsg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, wmUser, wmUser, pmNoRemove)

	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.started = true
	k.threadID = windows.GetCurrentThreadId()
	k.handler = h
	k.mu.Unlock()

	hmod, _, _ := procGetModuleHandleW.Call(0)
	hhook, _, err := procSetWindowsHookExW.Call(whMouseLL, k.callback, hmod, 0)
	if hhook == 0 {
		k.abandon()
		return fmt.Errorf("%w: SetWindowsHookEx: %v", ErrRegistration, err)
	}
	k.hhook = hhook
	defer k.unhook()
	log.Printf("input: low-level mouse hook installed")
	close(k.ready)

	for {
		r, _, err := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(r) {
		case -1:
			return fmt.Errorf("GetMessage: %v", err)
		case 0:
			return nil
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}
}

func (k *Hook) proc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) == hcAction {
		info := (*msllHookStruct)(unsafe.Pointer(lParam))
		if ev, ok := k.translate(wParam, info); ok && k.handler(ev) == logic.Suppress {
			return 1
		}
	}
	r, _, _ := procCallNextHookEx.Call(k.hhook, nCode, wParam, lParam)
	return r
}

func (k *Hook) translate(wParam uintptr, info *msllHookStruct) (logic.ButtonEvent, bool) {
	var ev logic.ButtonEvent
	switch wParam {
	case wmLButtonDown:
		ev = logic.ButtonEvent{Channel: logic.Left, Edge: logic.EdgeDown}
	case wmLButtonUp:
		ev = logic.ButtonEvent{Channel: logic.Left, Edge: logic.EdgeUp}
	case wmRButtonDown:
		ev = logic.ButtonEvent{Channel: logic.Right, Edge: logic.EdgeDown}
	case wmRButtonUp:
		ev = logic.ButtonEvent{Channel: logic.Right, Edge: logic.EdgeUp}
	case wmMButtonDown:
		ev = logic.ButtonEvent{Channel: logic.Middle, Edge: logic.EdgeDown}
	case wmMButtonUp:
		ev = logic.ButtonEvent{Channel: logic.Middle, Edge: logic.EdgeUp}
	case wmXButtonDown, wmXButtonUp:
		// X1/X2 share the message; HIWORD(mouseData) says which.
		switch info.MouseData >> 16 {
		case xButton1:
			ev.Channel = logic.X1
		case xButton2:
			ev.Channel = logic.X2
		default:
			return ev, false
		}
		ev.Edge = logic.EdgeUp
		if wParam == wmXButtonDown {
			ev.Edge = logic.EdgeDown
		}
	default:
		return ev, false
	}

	ev.Time = info.Time
	if ev.Time == 0 {
		ev.Time = k.tick()
	}
	return ev, true
}

// abandon records that installation failed. The thread is about to be
// unlocked, so a later Close must not post to it.
func (k *Hook) abandon() {
	k.mu.Lock()
	k.started = false
	k.closed = true
	k.threadID = 0
	k.mu.Unlock()
}

// Ready is closed once the hook is installed.
func (k *Hook) Ready() <-chan struct{} {
	return k.ready
}

// Close asks the hook thread to quit; it unhooks on its way out. If Run never
// started there is nothing installed to release.
func (k *Hook) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true
	if !k.started {
		return nil
	}

	r, _, err := procPostThreadMessageW.Call(uintptr(k.threadID), wmQuit, 0, 0)
	if r == 0 {
		return fmt.Errorf("post WM_QUIT: %v", err)
	}
	return nil
}

func (k *Hook) unhook() {
	k.unhookOne.Do(func() {
		r, _, err := procUnhookWindowsHookEx.Call(k.hhook)
		if r == 0 {
			log.Printf("input: UnhookWindowsHookEx: %v", err)
			return
		}
		log.Printf("input: mouse hook uninstalled")
	})
}

// ListDevices reports the single system-wide pointer the hook observes.
func ListDevices() ([]DeviceInfo, error) {
	return []DeviceInfo{{Path: "WH_MOUSE_LL", Name: "all pointer devices", Pointer: true}}, nil
}

// Open returns the low-level hook source.
func Open(cfg Config) (Source, string, error) {
	if len(cfg.GPIOLines) > 0 {
		return nil, "", fmt.Errorf("%w: gpio input requires Linux", ErrRegistration)
	}
	// Hook events carry their own tick-count timestamps; cfg.Clock is not used.
	return NewHook(), "low-level mouse hook", nil
}
