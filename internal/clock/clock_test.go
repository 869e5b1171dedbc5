package clock

import (
	"testing"
	"time"
)

func TestFakeAdvance(t *testing.T) {
	c := NewFake(100)
	c.Advance(30 * time.Millisecond)
	if got := c.NowMs(); got != 130 {
		t.Errorf("expected 130, got %d", got)
	}
}

func TestFakeWraps(t *testing.T) {
	c := NewFake(4294967290)
	c.Advance(16 * time.Millisecond)
	if got := c.NowMs(); got != 10 {
		t.Errorf("expected wrapped value 10, got %d", got)
	}
}

func TestFakeSet(t *testing.T) {
	c := NewFake(0)
	c.Set(42)
	if got := c.NowMs(); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}

func TestFunc(t *testing.T) {
	var c Clock = Func(func() uint32 { return 7 })
	if c.NowMs() != 7 {
		t.Errorf("expected 7, got %d", c.NowMs())
	}
}

func TestMonotonicNonDecreasing(t *testing.T) {
	m := NewMonotonic()
	a := m.NowMs()
	time.Sleep(2 * time.Millisecond)
	b := m.NowMs()
	if b-a > 1<<31 {
		t.Errorf("clock went backwards: %d then %d", a, b)
	}
}

func TestNewReturnsUsableClock(t *testing.T) {
	c, err := New()
	if c == nil {
		t.Fatalf("New returned nil clock (err=%v)", err)
	}
	if c.Name() == "" {
		t.Error("expected clock name")
	}
	a := c.NowMs()
	time.Sleep(5 * time.Millisecond)
	b := c.NowMs()
	if d := b - a; d > 1000 {
		t.Errorf("unexpected delta %d between readings", d)
	}
}
