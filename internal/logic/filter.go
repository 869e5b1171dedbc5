package logic

// Filter decides, per button event, whether to pass or suppress it.
// It is not safe for concurrent use; the input source calls it from the
// single goroutine that owns the interception.
type Filter struct {
	states [NumChannels]State
	counts Counts
}

// NewFilter creates a filter with the given per-channel thresholds.
// Every channel starts with no recorded release and no pending press.
func NewFilter(thresholds Thresholds) *Filter {
	f := &Filter{}
	for i, t := range thresholds {
		f.states[i] = State{Threshold: t}
	}
	return f
}

// Handle classifies a single event. Events for unknown channels pass untouched.
func (f *Filter) Handle(ev ButtonEvent) Result {
	if !ev.Channel.Valid() {
		return Result{Decision: Pass}
	}

	var r Result
	switch ev.Edge {
	case EdgeDown:
		r = f.down(ev.Channel, ev.Time)
	case EdgeUp:
		r = Result{Decision: f.Up(ev.Channel, ev.Time)}
	default:
		return Result{Decision: Pass}
	}

	if r.Decision == Suppress {
		f.counts[ev.Channel].Suppressed++
	} else {
		f.counts[ev.Channel].Passed++
	}
	return r
}

// Down processes a button press at ts. Unknown channels pass.
func (f *Filter) Down(ch Channel, ts uint32) Decision {
	return f.down(ch, ts).Decision
}

func (f *Filter) down(ch Channel, ts uint32) Result {
	if !ch.Valid() {
		return Result{Decision: Pass}
	}
	s := &f.states[ch]
	if !s.Enabled() || s.LastUp == Unset {
		return Result{Decision: Pass}
	}

	// Unsigned subtraction survives one wrap of the millisecond counter.
	delta := ts - s.LastUp
	if int64(delta) < int64(s.Threshold) {
		// LastUp stays put: a burst is measured from the same release.
		s.PendingDown = true
		return Result{Decision: Suppress, Interval: delta, Measured: true}
	}

	s.LastUp = Unset
	return Result{Decision: Pass, Interval: delta, Measured: true}
}

// Up processes a button release at ts. Unknown channels pass.
func (f *Filter) Up(ch Channel, ts uint32) Decision {
	if !ch.Valid() {
		return Pass
	}
	s := &f.states[ch]
	if !s.Enabled() {
		return Pass
	}
	if s.PendingDown {
		s.PendingDown = false
		return Suppress
	}
	s.LastUp = ts
	return Pass
}

// State returns a copy of the channel's debounce state.
func (f *Filter) State(ch Channel) State {
	if !ch.Valid() {
		return State{Threshold: -1}
	}
	return f.states[ch]
}

// Threshold returns the configured threshold for ch.
func (f *Filter) Threshold(ch Channel) int {
	if !ch.Valid() {
		return -1
	}
	return f.states[ch].Threshold
}

// Thresholds returns all configured thresholds.
func (f *Filter) Thresholds() Thresholds {
	var t Thresholds
	for i, s := range f.states {
		t[i] = s.Threshold
	}
	return t
}

// Counts returns a copy of the decision counters.
func (f *Filter) Counts() Counts {
	return f.counts
}
