// Package scan drives the capture → decode cycle: each tick it takes the
// current camera frame, runs the barcode decoder on it and forwards the first
// payload to a sink.
//
// A Loop is not safe for concurrent use. It is meant to be ticked from a
// single scheduler goroutine (a game loop's Update, or Drive).
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/junsooki/qrscan/internal/barcode"
	"github.com/junsooki/qrscan/internal/capture"
)

// DefaultMaxAttempts caps a tight-loop burst when Options.MaxAttempts is 0.
const DefaultMaxAttempts = 16

// Sink receives decoded payloads.
type Sink interface {
	OnDecoded(ctx context.Context, text string) error
}

// Options configure a Loop.
type Options struct {
	// Width and Height are requested from the camera on open.
	Width  int
	Height int

	Mode Mode
	// MaxAttempts bounds decode attempts per tick in ModeTightLoop.
	MaxAttempts int
	// Budget optionally bounds a tight-loop burst in wall-clock time.
	Budget time.Duration

	// Continuous keeps scanning after a payload is forwarded instead of
	// stopping in StateFound.
	Continuous bool

	Logger *slog.Logger
	Clock  func() time.Time
}

// Stats counts what the loop has done since it was created.
type Stats struct {
	Ticks    uint64
	Attempts uint64
	Faults   uint64
	NotReady uint64
	Payloads uint64
}

// Loop is the frame scan loop.
type Loop struct {
	source capture.Source
	dec    barcode.Decoder
	sink   Sink
	opts   Options
	log    *slog.Logger
	clock  func() time.Time

	state   State
	cam     capture.Camera
	device  capture.Device
	last    string
	hasLast bool
	stats   Stats
}

// New validates opts and returns a loop in StateIdle.
func New(source capture.Source, dec barcode.Decoder, sink Sink, opts Options) (*Loop, error) {
	if source == nil {
		return nil, errors.New("scan: camera source is required")
	}
	if dec == nil {
		return nil, errors.New("scan: decoder is required")
	}
	if sink == nil {
		return nil, errors.New("scan: result sink is required")
	}
	if opts.Width < 0 || opts.Height < 0 {
		return nil, fmt.Errorf("scan: invalid capture size %dx%d", opts.Width, opts.Height)
	}
	if opts.MaxAttempts < 0 {
		return nil, fmt.Errorf("scan: max attempts must not be negative, got %d", opts.MaxAttempts)
	}
	if opts.Budget < 0 {
		return nil, fmt.Errorf("scan: budget must not be negative, got %s", opts.Budget)
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Loop{
		source: source,
		dec:    dec,
		sink:   sink,
		opts:   opts,
		log:    log,
		clock:  clock,
		state:  StateIdle,
	}, nil
}

// Initialize selects the last rear-facing device and opens it. On failure the
// loop becomes StateUnavailable and the error wraps ErrNoCameraAvailable.
// Calling Initialize again retries, releasing any camera already held.
func (l *Loop) Initialize() error {
	if l.cam != nil {
		l.release()
	}

	devices, err := l.source.Devices()
	if err != nil {
		return l.unavailable(fmt.Errorf("%w: %w", ErrNoCameraAvailable, err))
	}
	l.log.Info("scan: camera devices", "count", len(devices))

	dev, err := SelectDevice(devices)
	if err != nil {
		return l.unavailable(err)
	}

	cam, err := l.source.Open(dev.Name, l.opts.Width, l.opts.Height)
	if err != nil {
		return l.unavailable(fmt.Errorf("%w: %w", ErrNoCameraAvailable, err))
	}
	l.cam, l.device = cam, dev
	l.last, l.hasLast = "", false

	if cam.Available() {
		l.setState(StateScanning)
	} else {
		l.setState(StateIdle)
	}
	l.log.Info("scan: camera selected", "device", dev.Name, "mode", l.opts.Mode.String(), "continuous", l.opts.Continuous)
	return nil
}

// Tick runs one scheduling turn and returns the resulting state. It is a
// no-op in StateUnavailable and StateFound. While the camera reports itself
// unavailable the loop waits in StateIdle without decoding.
func (l *Loop) Tick(ctx context.Context) State {
	l.stats.Ticks++

	switch l.state {
	case StateUnavailable, StateFound:
		return l.state
	}
	if l.cam == nil {
		return l.state
	}
	// A camera that stops delivering may still hold its last frame.
	if !l.cam.Available() {
		l.setState(StateIdle)
		return l.state
	}
	l.setState(StateScanning)

	if l.opts.Mode == ModeTightLoop {
		l.burst(ctx)
	} else {
		l.scanCurrent(ctx)
	}
	return l.state
}

// burst retries within one tick. Cancellation ends it quietly and leaves the
// loop scanning.
func (l *Loop) burst(ctx context.Context) {
	var deadline time.Time
	if l.opts.Budget > 0 {
		deadline = l.clock().Add(l.opts.Budget)
	}

	for i := 0; i < l.opts.MaxAttempts; i++ {
		if ctx.Err() != nil {
			l.log.Debug("scan: burst cancelled", "attempts", i)
			return
		}
		if !deadline.IsZero() && !l.clock().Before(deadline) {
			l.log.Debug("scan: burst budget spent", "attempts", i)
			return
		}
		decoded, ok := l.scanCurrent(ctx)
		if !ok || decoded {
			return
		}
	}
}

// scanCurrent decodes the camera's current frame. ok is false when no frame
// could be read.
func (l *Loop) scanCurrent(ctx context.Context) (decoded, ok bool) {
	frame, err := l.cam.Frame()
	if err != nil {
		l.stats.NotReady++
		return false, false
	}

	l.stats.Attempts++
	res, fault := attempt(l.dec, frame)
	if fault != nil {
		l.stats.Faults++
		l.log.Debug("scan: decode fault", "error", fault)
		return false, true
	}
	if !res.Found() {
		return false, true
	}

	l.deliver(ctx, res)
	return true, true
}

func (l *Loop) deliver(ctx context.Context, res barcode.Result) {
	if l.opts.Continuous && l.hasLast && res.Text == l.last {
		return
	}
	l.last, l.hasLast = res.Text, true
	l.stats.Payloads++
	if !l.opts.Continuous {
		l.setState(StateFound)
	}

	l.log.Info("scan: payload decoded", "device", l.device.Name, "format", res.Format, "length", len(res.Text))
	if err := l.sink.OnDecoded(ctx, res.Text); err != nil {
		l.log.Warn("scan: result sink failed", "error", err)
	}
}

// State returns the current state.
func (l *Loop) State() State { return l.state }

// Stats returns the loop counters.
func (l *Loop) Stats() Stats { return l.stats }

// Device returns the selected device; zero before a successful Initialize.
func (l *Loop) Device() capture.Device { return l.device }

// Camera returns the opened camera, or nil. Callers may read frames from it
// for preview but must not close it.
func (l *Loop) Camera() capture.Camera { return l.cam }

// Reset leaves StateFound so scanning resumes on the next tick.
func (l *Loop) Reset() {
	if l.state != StateFound {
		return
	}
	l.last, l.hasLast = "", false
	l.setState(StateScanning)
}

// Close releases the camera. The loop does nothing on later ticks.
func (l *Loop) Close() error {
	if l.cam == nil {
		return nil
	}
	return l.release()
}

func (l *Loop) release() error {
	err := l.cam.Close()
	l.cam = nil
	if err != nil {
		l.log.Warn("scan: release camera", "device", l.device.Name, "error", err)
	}
	return err
}

func (l *Loop) unavailable(err error) error {
	l.setState(StateUnavailable)
	l.log.Error("scan: camera unavailable", "error", err)
	return err
}

func (l *Loop) setState(s State) {
	if s == l.state {
		return
	}
	l.log.Debug("scan: state", "from", l.state.String(), "to", s.String())
	l.state = s
}
