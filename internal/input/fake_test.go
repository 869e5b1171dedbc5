package input

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/click-debounce/internal/logic"
)

func TestFakeRunDeliversInOrder(t *testing.T) {
	events := []logic.ButtonEvent{
		{Channel: logic.Left, Edge: logic.EdgeDown, Time: 1},
		{Channel: logic.Left, Edge: logic.EdgeUp, Time: 2},
		{Channel: logic.Right, Edge: logic.EdgeDown, Time: 3},
	}
	f := NewFake(events)

	var seen []logic.ButtonEvent
	err := f.Run(func(ev logic.ButtonEvent) logic.Decision {
		seen = append(seen, ev)
		if ev.Channel == logic.Right {
			return logic.Suppress
		}
		return logic.Pass
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(seen) != 3 {
		t.Fatalf("expected 3 events, got %d", len(seen))
	}
	for i := range events {
		if seen[i] != events[i] {
			t.Errorf("event %d: got %+v, want %+v", i, seen[i], events[i])
		}
	}

	want := []logic.Decision{logic.Pass, logic.Pass, logic.Suppress}
	for i, d := range want {
		if f.Decisions[i] != d {
			t.Errorf("decision %d: got %s, want %s", i, f.Decisions[i], d)
		}
	}
	if len(f.Passed) != 2 {
		t.Errorf("expected 2 passed events, got %d", len(f.Passed))
	}
}

func TestFakeRunError(t *testing.T) {
	f := NewFake([]logic.ButtonEvent{{Channel: logic.Left, Edge: logic.EdgeDown, Time: 1}})
	f.RunError = errors.New("simulated registration failure")

	called := false
	err := f.Run(func(logic.ButtonEvent) logic.Decision {
		called = true
		return logic.Pass
	})
	if err == nil || err.Error() != "simulated registration failure" {
		t.Errorf("unexpected error: %v", err)
	}
	if called {
		t.Error("handler should not be called when Run fails")
	}
}

func TestFakeHoldUntilClose(t *testing.T) {
	f := NewFake(nil)
	f.Hold = true

	go f.Run(func(logic.ButtonEvent) logic.Decision { return logic.Pass })

	select {
	case <-f.Done():
		t.Fatal("Run returned before Close")
	case <-time.After(20 * time.Millisecond):
	}

	if err := f.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestFakeCloseIdempotent(t *testing.T) {
	f := NewFake(nil)

	if err := f.Close(); err != nil {
		t.Errorf("first Close: unexpected error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close: unexpected error: %v", err)
	}
	if f.ReleaseCount() != 1 {
		t.Errorf("expected exactly 1 release, got %d", f.ReleaseCount())
	}
}

func TestFakeReadyOnlyAfterInstall(t *testing.T) {
	f := NewFake(nil)
	select {
	case <-f.Ready():
		t.Fatal("Ready closed before Run")
	default:
	}

	if err := f.Run(func(logic.ButtonEvent) logic.Decision { return logic.Pass }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-f.Ready():
	default:
		t.Error("Ready should be closed after a successful Run")
	}

	failed := NewFake(nil)
	failed.RunError = errors.New("grab failed")
	failed.Run(func(logic.ButtonEvent) logic.Decision { return logic.Pass })
	select {
	case <-failed.Ready():
		t.Error("Ready must stay open when installation fails")
	default:
	}
}
