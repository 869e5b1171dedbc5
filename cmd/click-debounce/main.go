// Command click-debounce suppresses mouse button chatter: a press that follows
// the previous release of the same button too closely is dropped together with
// its matching release.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sweeney/click-debounce/internal/clock"
	"github.com/sweeney/click-debounce/internal/input"
	"github.com/sweeney/click-debounce/internal/logic"
	"github.com/sweeney/click-debounce/internal/mqtt"
	"github.com/sweeney/click-debounce/internal/status"
	"github.com/sweeney/click-debounce/internal/web"
)

const programName = "click-debounce"

// telemetryBuffer bounds suppression events waiting for the main loop.
// The input handler drops events rather than block when it is full.
const telemetryBuffer = 256

type config struct {
	thresholds logic.Thresholds
	device     string
	gpioChip   string
	gpioLines  input.LineMap
	broker     string
	heartbeat  time.Duration
	httpAddr   string
}

func main() {
	defaults := logic.DefaultThresholds()
	left := flag.Int("left", defaults[logic.Left], "Left button threshold in ms (negative disables)")
	right := flag.Int("right", defaults[logic.Right], "Right button threshold in ms (negative disables)")
	middle := flag.Int("middle", defaults[logic.Middle], "Middle button threshold in ms (negative disables)")
	x1 := flag.Int("x1", defaults[logic.X1], "X1 (back) button threshold in ms (negative disables)")
	x2 := flag.Int("x2", defaults[logic.X2], "X2 (forward) button threshold in ms (negative disables)")
	device := flag.String("device", "", "evdev device to grab (Linux; empty auto-detects the first pointer)")
	gpioFlag := flag.String("gpio", "", `GPIO switches as buttons, e.g. "left:17,x1:22" (Linux; replaces -device)`)
	gpioChip := flag.String("gpio-chip", input.DefaultGPIOChip, "GPIO chip for -gpio")
	broker := flag.String("broker", "", "MQTT broker address for telemetry (empty to disable)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", "", "HTTP status address (empty to disable)")
	listDevices := flag.Bool("list-devices", false, "List input devices and exit")

	flag.Parse()

	if *listDevices {
		if err := printDevices(os.Stdout); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}

	lines, err := input.ParseLineMap(*gpioFlag)
	if err != nil {
		log.Fatalf("fatal: -gpio: %v", err)
	}

	cfg := config{
		thresholds: logic.Thresholds{*left, *right, *middle, *x1, *x2},
		device:     *device,
		gpioChip:   *gpioChip,
		gpioLines:  lines,
		broker:     *broker,
		heartbeat:  *heartbeat,
		httpAddr:   *httpAddr,
	}
	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config) error {
	clk, err := clock.New()
	if err != nil {
		log.Printf("clock: %v; using %s", err, clk.Name())
	}

	src, desc, err := input.Open(input.Config{
		Device:    cfg.device,
		GPIOChip:  cfg.gpioChip,
		GPIOLines: cfg.gpioLines,
		Clock:     clk,
	})
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}

	printBanner(os.Stdout, cfg.thresholds)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Thresholds:  cfg.thresholds,
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		Broker:      cfg.broker,
		HTTPAddr:    cfg.httpAddr,
		Source:      desc,
		Clock:       clk.Name(),
	})

	// Telemetry is optional and never fatal.
	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus = mqtt.NopPublisher{}
	if cfg.broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.broker)
		if err != nil {
			log.Printf("mqtt disabled: %v", err)
		} else {
			publisher, mqttStatus = p, p
		}
	}
	defer publisher.Close()

	var g errgroup.Group

	var srv *web.Server
	var broadcast func([]byte)
	if cfg.httpAddr != "" {
		srv = web.New(cfg.httpAddr, tracker)
		broadcast = srv.Broadcast
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server error: %v", err)
			}
			return nil
		})
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	events := make(chan logic.Event, telemetryBuffer)
	d := newDebouncer(logic.NewFilter(cfg.thresholds), tracker, events, time.Now)

	done := make(chan error, 1)
	tracker.SetRunning(true)
	g.Go(func() error {
		err := src.Run(d.handle)
		done <- err
		return err
	})
	log.Printf("started: source=%s clock=%s broker=%q heartbeat=%v", desc, clk.Name(), cfg.broker, cfg.heartbeat)

	var hb <-chan time.Time
	if cfg.heartbeat > 0 {
		ticker := time.NewTicker(cfg.heartbeat)
		defer ticker.Stop()
		hb = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	loopErr := runLoop(src, done, events, publisher, mqttStatus, tracker, broadcast, time.Now, hb, sigCh)

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
		cancel()
	}
	// The source error, if any, is already in loopErr.
	g.Wait()

	if loopErr == nil {
		log.Printf("terminated")
	}
	return loopErr
}

// debouncer wraps the filter with the status, telemetry and log side effects.
// handle runs on the input source's goroutine and must never block.
type debouncer struct {
	filter  *logic.Filter
	tracker *status.Tracker
	events  chan<- logic.Event
	now     func() time.Time
}

func newDebouncer(f *logic.Filter, tracker *status.Tracker, events chan<- logic.Event, now func() time.Time) *debouncer {
	return &debouncer{filter: f, tracker: tracker, events: events, now: now}
}

func (d *debouncer) handle(ev logic.ButtonEvent) logic.Decision {
	r := d.filter.Handle(ev)
	if d.tracker != nil {
		d.tracker.Update(d.filter.Counts())
	}
	if r.Decision != logic.Suppress {
		return r.Decision
	}

	if r.Measured {
		log.Printf("%s button rapid click suppressed. Interval: %dms.", ev.Channel, r.Interval)
	}

	sup := logic.Event{
		Timestamp:  d.now(),
		Channel:    ev.Channel,
		Edge:       ev.Edge,
		IntervalMs: r.Interval,
		Measured:   r.Measured,
		Threshold:  d.filter.Threshold(ev.Channel),
	}
	if d.tracker != nil {
		d.tracker.RecordSuppression(sup)
	}
	select {
	case d.events <- sup:
	default:
		// Telemetry backlog; filtering carries on.
	}
	return r.Decision
}

// runLoop owns telemetry and shutdown. It returns once the source has stopped:
// nil after a requested shutdown, or the source's error if it failed.
func runLoop(src input.Source, done <-chan error, events <-chan logic.Event, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, broadcast func([]byte), now func() time.Time, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	publishStatus := func(event, reason string, retained bool) {
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
			tracker.SetMQTTBacklog(mqttStatus.Backlog())
		}
		snap := tracker.Snapshot()
		ev := mqtt.SystemEvent{
			Timestamp:  now(),
			Event:      event,
			Reason:     reason,
			Retained:   retained,
			RawPayload: status.FormatStatusEvent(snap, event, reason),
		}
		if err := publisher.PublishSystem(ev); err != nil {
			log.Printf("failed to publish %s event: %v", strings.ToLower(event), err)
		}
	}

	forward := func(ev logic.Event) {
		if err := publisher.Publish(ev); err != nil {
			log.Printf("publish error: %v", err)
			// Don't crash on publish failure
		}
		if broadcast != nil {
			if payload, err := mqtt.FormatPayload(ev); err == nil {
				broadcast(payload)
			}
		}
	}

	drain := func() {
		for {
			select {
			case ev := <-events:
				forward(ev)
			default:
				return
			}
		}
	}

	// STARTUP waits for the source to report its interception installed. A
	// source that fails to install never publishes it.
	ready := src.Ready()
	markReady := func() {
		if ready == nil {
			return
		}
		select {
		case <-ready:
		default:
			return
		}
		ready = nil
		log.Printf("input source installed")
		publishStatus("STARTUP", "", true)
	}

	for {
		select {
		case <-ready:
			markReady()

		case s := <-sig:
			markReady()
			log.Printf("received %v, shutting down", s)
			if err := src.Close(); err != nil {
				log.Printf("warning: release input source: %v", err)
			}
			runErr := <-done
			tracker.SetRunning(false)
			log.Printf("input source released")
			drain()
			publishStatus("SHUTDOWN", signalName(s), true)
			if runErr != nil {
				return fmt.Errorf("input source: %w", runErr)
			}
			return nil

		case err := <-done:
			markReady()
			tracker.SetRunning(false)
			// Release anything Run left behind; Close is idempotent.
			if cerr := src.Close(); cerr != nil {
				log.Printf("warning: release input source: %v", cerr)
			}
			drain()
			if err != nil {
				publishStatus("SHUTDOWN", "SOURCE_FAILED", true)
				return fmt.Errorf("input source: %w", err)
			}
			log.Printf("input source stopped")
			publishStatus("SHUTDOWN", "SOURCE_STOPPED", true)
			return nil

		case ev := <-events:
			markReady()
			forward(ev)

		case <-heartbeat:
			markReady()
			total := tracker.Snapshot().Counts.Total()
			log.Printf("heartbeat: passed=%d suppressed=%d", total.Passed, total.Suppressed)
			publishStatus("HEARTBEAT", "", false)
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case os.Interrupt:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func printBanner(w io.Writer, thresholds logic.Thresholds) {
	rule := strings.Repeat("-", 40)
	fmt.Fprintln(w, programName)
	fmt.Fprintln(w, rule)
	active := false
	for _, ch := range logic.Channels() {
		if th := thresholds[ch]; th >= 0 {
			fmt.Fprintf(w, "Fix is ACTIVE for %s Mouse Button (Threshold: %dms).\n", ch, th)
			active = true
		}
	}
	if !active {
		fmt.Fprintln(w, "No buttons are filtered; all events pass through.")
	}
	fmt.Fprintln(w, "Press Ctrl+C in this window or close it to stop the program.")
	fmt.Fprintln(w, rule)
}

func printDevices(w io.Writer) error {
	devices, err := input.ListDevices()
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		fmt.Fprintln(w, "no input devices found (check permissions on /dev/input)")
		return nil
	}
	for _, d := range devices {
		kind := ""
		if d.Pointer {
			kind = "  [pointer]"
		}
		fmt.Fprintf(w, "%s\t%s%s\n", d.Path, d.Name, kind)
	}
	return nil
}
