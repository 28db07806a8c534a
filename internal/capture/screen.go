package capture

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kbinani/screenshot"
)

// ScreenSource treats every active display as a rear-facing camera, so codes
// shown on screen can be scanned.
type ScreenSource struct {
	fps int
}

// NewScreenSource creates a screen capturer at the given FPS.
func NewScreenSource(fps int) (*ScreenSource, error) {
	if fps <= 0 || fps > 60 {
		return nil, fmt.Errorf("fps must be 1-60, got %d", fps)
	}
	return &ScreenSource{fps: fps}, nil
}

func (s *ScreenSource) Devices() ([]Device, error) {
	n := screenshot.NumActiveDisplays()
	devices := make([]Device, 0, n)
	for i := 0; i < n; i++ {
		devices = append(devices, Device{Name: displayName(i)})
	}
	return devices, nil
}

// Open captures the named display. The requested size is ignored; displays
// are captured at native resolution.
func (s *ScreenSource) Open(name string, _, _ int) (Camera, error) {
	idx, err := displayIndex(name)
	if err != nil {
		return nil, err
	}
	if idx >= screenshot.NumActiveDisplays() {
		return nil, fmt.Errorf("%w: display index %d out of range", ErrDeviceUnavailable, idx)
	}

	cam := &screenCamera{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	bounds := screenshot.GetDisplayBounds(idx)
	go func() {
		defer close(cam.done)
		Pump(&cam.Latest, s.fps, cam.stop, func() *Frame {
			img, err := screenshot.CaptureRect(bounds)
			if err != nil {
				return nil
			}
			return &Frame{Image: img, Timestamp: time.Now()}
		})
	}()
	return cam, nil
}

func displayName(i int) string {
	return "display-" + strconv.Itoa(i)
}

func displayIndex(name string) (int, error) {
	idx, err := strconv.Atoi(strings.TrimPrefix(name, "display-"))
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("%w: unknown display %q", ErrDeviceUnavailable, name)
	}
	return idx, nil
}

type screenCamera struct {
	Latest
	stop    chan struct{}
	done    chan struct{}
	stopped bool
}

func (c *screenCamera) Available() bool { return c.Ready() }

func (c *screenCamera) Close() error {
	if c.stopped {
		return nil
	}
	c.stopped = true
	close(c.stop)
	<-c.done
	c.Drop()
	return nil
}
