//go:build linux

package input

import (
	"fmt"
	"log"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/click-debounce/internal/logic"
)

// GPIO turns switches wired to GPIO lines into mouse buttons. Line edges are
// filtered like any other button event and accepted ones are emitted on a
// uinput virtual pointer.
type GPIO struct {
	chipName  string
	lines     LineMap
	activeLow bool

	byOffset map[int]logic.Channel
	edges    chan gpiocdev.LineEvent
	ready    chan struct{}
	quit     chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool

	releaseOnce sync.Once
	releaseErr  error
	chip        *gpiocdev.Chip
	reqs        []*gpiocdev.Line
	out         *VirtualPointer
}

// NewGPIO prepares a GPIO source. Lines are requested when Run starts.
// Switches are expected to pull the line low when pressed, with the
// internal pull-up holding it high otherwise.
func NewGPIO(chip string, lines LineMap) (*GPIO, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no gpio lines configured", ErrRegistration)
	}
	if chip == "" {
		chip = DefaultGPIOChip
	}

	byOffset := make(map[int]logic.Channel, len(lines))
	for ch, off := range lines {
		byOffset[off] = ch
	}

	return &GPIO{
		chipName:  chip,
		lines:     lines,
		activeLow: true,
		byOffset:  byOffset,
		edges:     make(chan gpiocdev.LineEvent, 64),
		ready:     make(chan struct{}),
		quit:      make(chan struct{}),
	}, nil
}

// Run requests the lines and filters their edges until Close.
func (g *GPIO) Run(h Handler) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.started = true
	g.mu.Unlock()
	defer g.release()

	out, err := NewVirtualPointer(virtualName, allButtonCodes(), pointerRels)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistration, err)
	}
	g.out = out

	chip, err := gpiocdev.NewChip(g.chipName)
	if err != nil {
		return fmt.Errorf("%w: open gpio chip %s: %v", ErrRegistration, g.chipName, err)
	}
	g.chip = chip

	for ch, off := range g.lines {
		l, err := chip.RequestLine(off,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(g.onEdge))
		if err != nil {
			return fmt.Errorf("%w: request %s line %d: %v", ErrRegistration, ch, off, err)
		}
		g.reqs = append(g.reqs, l)
		log.Printf("input: %s button on %s line %d", ch, g.chipName, off)
	}
	close(g.ready)

	for {
		select {
		case <-g.quit:
			return nil
		case evt := <-g.edges:
			bev, ok := g.translate(evt)
			if !ok {
				continue
			}
			if h(bev) == logic.Suppress {
				continue
			}
			if err := g.emit(bev); err != nil {
				log.Printf("input: emit error: %v", err)
			}
		}
	}
}

// onEdge runs on the gpiocdev watcher goroutine; it only hands the edge over.
func (g *GPIO) onEdge(evt gpiocdev.LineEvent) {
	select {
	case g.edges <- evt:
	default:
		log.Printf("input: gpio edge queue full, dropping line %d edge", evt.Offset)
	}
}

// translate maps a line edge to a button event. Timestamps come from the
// kernel's monotonic edge time, truncated to the wrapping millisecond domain.
func (g *GPIO) translate(evt gpiocdev.LineEvent) (logic.ButtonEvent, bool) {
	ch, ok := g.byOffset[evt.Offset]
	if !ok {
		return logic.ButtonEvent{}, false
	}
	pressed := evt.Type == gpiocdev.LineEventRisingEdge
	if g.activeLow {
		pressed = !pressed
	}
	edge := logic.EdgeUp
	if pressed {
		edge = logic.EdgeDown
	}
	return logic.ButtonEvent{
		Channel: ch,
		Edge:    edge,
		Time:    uint32(evt.Timestamp.Milliseconds()),
	}, true
}

func (g *GPIO) emit(ev logic.ButtonEvent) error {
	value := int32(0)
	if ev.Edge == logic.EdgeDown {
		value = 1
	}
	if err := g.out.Emit(evKey, buttonCodes[ev.Channel], value); err != nil {
		return err
	}
	return g.out.Sync()
}

// Ready is closed once every line is requested.
func (g *GPIO) Ready() <-chan struct{} {
	return g.ready
}

// Close stops Run, or releases directly if Run never started.
func (g *GPIO) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	started := g.started
	g.mu.Unlock()

	close(g.quit)
	if !started {
		g.release()
		return g.releaseErr
	}
	return nil
}

// release reconfigures lines to plain inputs with pull-down (the Pi boot
// default) before closing them.
func (g *GPIO) release() {
	g.releaseOnce.Do(func() {
		var errs []error
		for _, l := range g.reqs {
			if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
				errs = append(errs, fmt.Errorf("reconfigure line %d: %w", l.Offset(), err))
			}
			if err := l.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close line %d: %w", l.Offset(), err))
			}
		}
		if g.chip != nil {
			if err := g.chip.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close chip: %w", err))
			}
		}
		if g.out != nil {
			if err := g.out.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			g.releaseErr = fmt.Errorf("close errors: %v", errs)
			log.Printf("input: %v", g.releaseErr)
		}
	})
}
