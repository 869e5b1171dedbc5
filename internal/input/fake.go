package input

import (
	"sync"

	"github.com/sweeney/click-debounce/internal/logic"
)

// Fake is a test double that replays scripted button events.
type Fake struct {
	// Events contains the scripted events delivered by Run, in order.
	Events []logic.ButtonEvent

	// Decisions records the handler's verdict for each delivered event.
	Decisions []logic.Decision

	// Passed contains the events that would have reached applications.
	Passed []logic.ButtonEvent

	// Hold keeps Run blocked after the script until Close is called,
	// like a real source waiting for input.
	Hold bool

	// RunError, if set, is returned by Run before any event is delivered.
	RunError error

	// CloseError, if set, is returned by the first Close.
	CloseError error

	// Releases counts how many times the interception was released.
	Releases int

	mu       sync.Mutex
	once     sync.Once
	ready    chan struct{}
	closed   chan struct{}
	finished chan struct{}
}

// NewFake creates a Fake that replays events.
func NewFake(events []logic.ButtonEvent) *Fake {
	return &Fake{
		Events:   events,
		ready:    make(chan struct{}),
		closed:   make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Run delivers every scripted event to h.
func (f *Fake) Run(h Handler) error {
	defer close(f.finished)
	if f.RunError != nil {
		return f.RunError
	}
	close(f.ready)

	for _, ev := range f.Events {
		select {
		case <-f.closed:
			return nil
		default:
		}
		d := h(ev)
		f.mu.Lock()
		f.Decisions = append(f.Decisions, d)
		if d == logic.Pass {
			f.Passed = append(f.Passed, ev)
		}
		f.mu.Unlock()
	}

	if f.Hold {
		<-f.closed
	}
	return nil
}

// Ready is closed when Run starts delivering, unless RunError is set.
func (f *Fake) Ready() <-chan struct{} {
	return f.ready
}

// Done is closed once Run has returned.
func (f *Fake) Done() <-chan struct{} {
	return f.finished
}

// Close releases the fake interception once.
func (f *Fake) Close() error {
	var err error
	f.once.Do(func() {
		f.mu.Lock()
		f.Releases++
		f.mu.Unlock()
		close(f.closed)
		err = f.CloseError
	})
	return err
}

// ReleaseCount returns Releases under the lock.
func (f *Fake) ReleaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Releases
}
