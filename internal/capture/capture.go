package capture

import (
	"errors"
	"image"
	"time"
)

var (
	// ErrDeviceUnavailable is returned by Source.Open when the named device
	// cannot be opened.
	ErrDeviceUnavailable = errors.New("capture: device unavailable")
	// ErrNotReady is returned by Camera.Frame before the first frame arrives.
	ErrNotReady = errors.New("capture: frame not ready")
)

// Frame is an immutable snapshot of one capture. Image.Pix holds
// width*height packed RGBA samples.
type Frame struct {
	Image     *image.RGBA
	Rotation  int // clockwise degrees reported by the device
	Timestamp time.Time
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.Image.Bounds().Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.Image.Bounds().Dy() }

// Device describes one camera a Source can open.
type Device struct {
	Name        string
	FrontFacing bool
}

// Source enumerates and opens cameras.
type Source interface {
	// Devices lists cameras in enumeration order.
	Devices() ([]Device, error)
	// Open acquires the named device at the requested size.
	Open(name string, width, height int) (Camera, error)
}

// Camera is an opened device handle. It is owned by the Source that created
// it; callers only read frames and release it with Close.
type Camera interface {
	Frame() (*Frame, error)
	Available() bool
	Close() error
}
