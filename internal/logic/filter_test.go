package logic

import "testing"

func enabledOnly(ch Channel, threshold int) Thresholds {
	t := Thresholds{-1, -1, -1, -1, -1}
	t[ch] = threshold
	return t
}

func TestNewFilter(t *testing.T) {
	f := NewFilter(DefaultThresholds())
	if f == nil {
		t.Fatal("NewFilter returned nil")
	}

	for _, ch := range Channels() {
		s := f.State(ch)
		if s.LastUp != Unset {
			t.Errorf("%s: expected LastUp unset, got %d", ch, s.LastUp)
		}
		if s.PendingDown {
			t.Errorf("%s: expected PendingDown=false", ch)
		}
	}

	if f.Threshold(Left) != 50 {
		t.Errorf("expected Left threshold 50, got %d", f.Threshold(Left))
	}
	if f.Threshold(Right) != -1 {
		t.Errorf("expected Right threshold -1, got %d", f.Threshold(Right))
	}
}

func TestDisabledChannelPassesEverything(t *testing.T) {
	f := NewFilter(Thresholds{-1, -1, -1, -1, -1})

	for _, ch := range Channels() {
		for i, ts := range []uint32{100, 101, 102, 103, 104, 105} {
			var d Decision
			if i%2 == 0 {
				d = f.Up(ch, ts)
			} else {
				d = f.Down(ch, ts)
			}
			if d != Pass {
				t.Errorf("%s event %d: expected PASS, got %s", ch, i, d)
			}
		}
		if s := f.State(ch); s.LastUp != Unset || s.PendingDown {
			t.Errorf("%s: disabled channel state mutated: %+v", ch, s)
		}
	}
}

func TestFirstDownAlwaysPasses(t *testing.T) {
	for _, threshold := range []int{0, 1, 50, 10000} {
		f := NewFilter(enabledOnly(Left, threshold))
		if d := f.Down(Left, 3); d != Pass {
			t.Errorf("threshold %d: expected first Down to PASS, got %s", threshold, d)
		}
		if s := f.State(Left); s.PendingDown || s.LastUp != Unset {
			t.Errorf("threshold %d: first Down changed state: %+v", threshold, s)
		}
	}
}

func TestChatterSuppressesPressAndRelease(t *testing.T) {
	f := NewFilter(enabledOnly(Left, 50))

	if d := f.Up(Left, 1000); d != Pass {
		t.Fatalf("Up(1000): expected PASS, got %s", d)
	}
	if d := f.Down(Left, 1030); d != Suppress {
		t.Errorf("Down(1030): expected SUPPRESS, got %s", d)
	}
	if s := f.State(Left); !s.PendingDown || s.LastUp != 1000 {
		t.Errorf("after suppressed Down: unexpected state %+v", s)
	}
	if d := f.Up(Left, 1040); d != Suppress {
		t.Errorf("Up(1040): expected SUPPRESS, got %s", d)
	}

	s := f.State(Left)
	if s.PendingDown {
		t.Error("PendingDown should be cleared by the matching release")
	}
	if s.LastUp != 1000 {
		t.Errorf("LastUp should remain 1000, got %d", s.LastUp)
	}
}

func TestSlowPressAccepted(t *testing.T) {
	f := NewFilter(enabledOnly(Left, 50))

	f.Up(Left, 1000)
	if d := f.Down(Left, 1050); d != Pass {
		t.Errorf("Down(1050): expected PASS at exactly the threshold, got %s", d)
	}
	if s := f.State(Left); s.LastUp != Unset {
		t.Errorf("accepted Down should clear LastUp, got %d", s.LastUp)
	}
	if d := f.Up(Left, 1120); d != Pass {
		t.Errorf("Up(1120): expected PASS, got %s", d)
	}
	if s := f.State(Left); s.LastUp != 1120 {
		t.Errorf("expected LastUp=1120, got %d", s.LastUp)
	}
}

func TestBurstMeasuredFromSameRelease(t *testing.T) {
	f := NewFilter(enabledOnly(Left, 50))

	// LastUp of 0 reads as unset, so anchor the burst at a non-zero release.
	base := uint32(10)
	f.Up(Left, base)
	for _, off := range []uint32{5, 8, 20} {
		r := f.Handle(ButtonEvent{Channel: Left, Edge: EdgeDown, Time: base + off})
		if r.Decision != Suppress {
			t.Errorf("Down(+%d): expected SUPPRESS, got %s", off, r.Decision)
		}
		if !r.Measured || r.Interval != off {
			t.Errorf("Down(+%d): expected interval %d, got %d (measured=%v)", off, off, r.Interval, r.Measured)
		}
	}
	if s := f.State(Left); s.LastUp != base {
		t.Errorf("suppressed presses must not advance LastUp; got %d", s.LastUp)
	}
}

func TestBurstFromZeroReleaseTreatedAsUnset(t *testing.T) {
	f := NewFilter(enabledOnly(Left, 50))

	f.Up(Left, 0)
	if d := f.Down(Left, 5); d != Pass {
		t.Errorf("a release recorded at 0 cannot be compared against; expected PASS, got %s", d)
	}
}

func TestWraparound(t *testing.T) {
	f := NewFilter(enabledOnly(Left, 50))

	f.Up(Left, 4294967290)
	r := f.Handle(ButtonEvent{Channel: Left, Edge: EdgeDown, Time: 5})
	if r.Interval != 11 {
		t.Errorf("expected wrapped interval 11, got %d", r.Interval)
	}
	if r.Decision != Suppress {
		t.Errorf("expected SUPPRESS across wrap, got %s", r.Decision)
	}
}

func TestZeroThresholdNeverSuppresses(t *testing.T) {
	f := NewFilter(enabledOnly(Middle, 0))

	f.Up(Middle, 100)
	if d := f.Down(Middle, 100); d != Pass {
		t.Errorf("expected PASS with zero threshold, got %s", d)
	}
	if s := f.State(Middle); s.LastUp != Unset {
		t.Errorf("accepted press should clear LastUp, got %d", s.LastUp)
	}
}

func TestPendingClearedAfterAnyRelease(t *testing.T) {
	f := NewFilter(enabledOnly(Right, 50))

	f.Up(Right, 100)
	f.Down(Right, 110) // suppressed
	f.Up(Right, 120)   // consumes pending
	if f.State(Right).PendingDown {
		t.Fatal("PendingDown should be false after release")
	}

	// The next release is a real one and records a fresh reference.
	f.Down(Right, 300) // accepted, clears LastUp
	if d := f.Up(Right, 320); d != Pass {
		t.Errorf("expected PASS, got %s", d)
	}
	if f.State(Right).PendingDown {
		t.Error("PendingDown should stay false")
	}
	if f.State(Right).LastUp != 320 {
		t.Errorf("expected LastUp=320, got %d", f.State(Right).LastUp)
	}
}

func TestChannelsIndependent(t *testing.T) {
	f := NewFilter(Thresholds{50, 50, 50, 50, 50})

	for _, ch := range Channels() {
		f.Up(ch, 1000+uint32(ch))
	}
	before := make(map[Channel]State)
	for _, ch := range Channels() {
		before[ch] = f.State(ch)
	}

	if d := f.Down(Left, 1010); d != Suppress {
		t.Fatalf("expected Left SUPPRESS, got %s", d)
	}

	for _, ch := range []Channel{Right, Middle, X1, X2} {
		if f.State(ch) != before[ch] {
			t.Errorf("%s state changed by Left suppression: %+v -> %+v", ch, before[ch], f.State(ch))
		}
	}
}

func TestHandleCounts(t *testing.T) {
	f := NewFilter(enabledOnly(X2, 50))

	events := []ButtonEvent{
		{Channel: X2, Edge: EdgeDown, Time: 100},
		{Channel: X2, Edge: EdgeUp, Time: 150},
		{Channel: X2, Edge: EdgeDown, Time: 160}, // chatter
		{Channel: X2, Edge: EdgeUp, Time: 170},   // paired release
		{Channel: Left, Edge: EdgeDown, Time: 200},
	}
	for _, ev := range events {
		f.Handle(ev)
	}

	c := f.Counts()
	if c[X2].Passed != 2 || c[X2].Suppressed != 2 {
		t.Errorf("X2 counts: got %+v, want {2 2}", c[X2])
	}
	if c[Left].Passed != 1 || c[Left].Suppressed != 0 {
		t.Errorf("Left counts: got %+v, want {1 0}", c[Left])
	}
	total := c.Total()
	if total.Passed != 3 || total.Suppressed != 2 {
		t.Errorf("total: got %+v, want {3 2}", total)
	}
}

func TestHandleUnknownInput(t *testing.T) {
	f := NewFilter(Thresholds{50, 50, 50, 50, 50})

	if r := f.Handle(ButtonEvent{Channel: Channel(9), Edge: EdgeDown, Time: 1}); r.Decision != Pass {
		t.Errorf("unknown channel: expected PASS, got %s", r.Decision)
	}
	if r := f.Handle(ButtonEvent{Channel: Left, Edge: Edge("HOLD"), Time: 1}); r.Decision != Pass {
		t.Errorf("unknown edge: expected PASS, got %s", r.Decision)
	}
	if got := f.Counts().Total(); got.Passed != 0 || got.Suppressed != 0 {
		t.Errorf("unknown input should not be counted, got %+v", got)
	}
}

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in   string
		want Channel
		ok   bool
	}{
		{"left", Left, true},
		{"RIGHT", Right, true},
		{"Middle", Middle, true},
		{"x1", X1, true},
		{"X2", X2, true},
		{"wheel", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChannel(tt.in)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestChannelString(t *testing.T) {
	if X1.String() != "X1" {
		t.Errorf("got %q", X1.String())
	}
	if Channel(7).String() != "Channel(7)" {
		t.Errorf("got %q", Channel(7).String())
	}
}

func TestDownUpUnknownChannelPass(t *testing.T) {
	f := NewFilter(Thresholds{50, 50, 50, 50, 50})

	for _, ch := range []Channel{Channel(-1), Channel(NumChannels), Channel(7)} {
		if d := f.Down(ch, 100); d != Pass {
			t.Errorf("Down(%d): expected PASS, got %s", int(ch), d)
		}
		if d := f.Up(ch, 110); d != Pass {
			t.Errorf("Up(%d): expected PASS, got %s", int(ch), d)
		}
		if th := f.Threshold(ch); th != -1 {
			t.Errorf("Threshold(%d): expected -1, got %d", int(ch), th)
		}
		if s := f.State(ch); s.Enabled() {
			t.Errorf("State(%d): unknown channel reported enabled", int(ch))
		}
	}
	if got := f.Counts().Total(); got.Passed != 0 || got.Suppressed != 0 {
		t.Errorf("direct Down/Up calls should not be counted, got %+v", got)
	}
}
