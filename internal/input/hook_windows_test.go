//go:build windows

package input

import (
	"testing"

	"github.com/sweeney/click-debounce/internal/logic"
)

func TestHookTranslate(t *testing.T) {
	k := &Hook{tick: func() uint32 { return 777 }}

	tests := []struct {
		name     string
		wParam   uintptr
		data     uint32
		time     uint32
		wantCh   logic.Channel
		wantEdge logic.Edge
		wantTime uint32
		wantOK   bool
	}{
		{"left down", wmLButtonDown, 0, 10, logic.Left, logic.EdgeDown, 10, true},
		{"right up", wmRButtonUp, 0, 11, logic.Right, logic.EdgeUp, 11, true},
		{"middle down", wmMButtonDown, 0, 12, logic.Middle, logic.EdgeDown, 12, true},
		{"x1 down", wmXButtonDown, xButton1 << 16, 13, logic.X1, logic.EdgeDown, 13, true},
		{"x2 up", wmXButtonUp, xButton2 << 16, 14, logic.X2, logic.EdgeUp, 14, true},
		{"zero time uses tick count", wmLButtonUp, 0, 0, logic.Left, logic.EdgeUp, 777, true},
		{"unknown x button", wmXButtonDown, 3 << 16, 15, 0, "", 0, false},
		{"mouse move", 0x0200, 0, 16, 0, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := k.translate(tt.wParam, &msllHookStruct{MouseData: tt.data, Time: tt.time})
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if ev.Channel != tt.wantCh || ev.Edge != tt.wantEdge || ev.Time != tt.wantTime {
				t.Errorf("got %+v, want {%s %s %d}", ev, tt.wantCh, tt.wantEdge, tt.wantTime)
			}
		})
	}
}

func TestHookCloseBeforeRun(t *testing.T) {
	k := NewHook()
	if err := k.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := k.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := k.Run(func(logic.ButtonEvent) logic.Decision { return logic.Pass }); err != nil {
		t.Errorf("Run after Close: %v", err)
	}
}

func TestHookTickFallbackSharesHookDomain(t *testing.T) {
	k := NewHook()
	before := tickCount()
	ev, ok := k.translate(wmLButtonDown, &msllHookStruct{})
	after := tickCount()
	if !ok {
		t.Fatal("expected a button event")
	}
	if ev.Time-before > after-before {
		t.Errorf("fallback time %d outside GetTickCount window [%d, %d]", ev.Time, before, after)
	}
}

func TestHookCloseAfterFailedInstall(t *testing.T) {
	k := NewHook()
	// State as left by Run just before SetWindowsHookEx fails.
	k.mu.Lock()
	k.started = true
	k.threadID = 0xFFFFFFF0 // no such thread; posting to it would fail
	k.mu.Unlock()

	k.abandon()

	if err := k.Close(); err != nil {
		t.Errorf("Close after failed install should not post WM_QUIT, got %v", err)
	}
	select {
	case <-k.Ready():
		t.Error("Ready must stay open when the hook was not installed")
	default:
	}
}
