// Package opencv opens local cameras, RTSP streams and video files through
// OpenCV. It is kept apart from capture so the cgo dependency stays out of
// packages that only need the camera contracts.
package opencv

import (
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"time"

	"gocv.io/x/gocv"

	"github.com/junsooki/qrscan/internal/capture"
)

// DeviceSpec names a camera explicitly. URL may be an index ("0"), an RTSP
// URL or a video file; anything OpenCV's VideoCapture accepts.
type DeviceSpec struct {
	Name        string
	URL         string
	FrontFacing bool
}

// Options configure a Source.
type Options struct {
	// Devices, when set, replaces index probing.
	Devices []DeviceSpec
	// MaxProbe is the number of indices probed when Devices is empty.
	MaxProbe int
	// FrontFacing marks probed device names as front facing.
	FrontFacing []string
	FPS         int
	Rotation    int
	Logger      *slog.Logger
}

// Source opens local cameras through OpenCV.
type Source struct {
	opts  Options
	front map[string]bool
	log   *slog.Logger
}

// New creates a capture.Source backed by gocv.
func New(opts Options) (*Source, error) {
	if opts.FPS <= 0 || opts.FPS > 60 {
		return nil, fmt.Errorf("fps must be 1-60, got %d", opts.FPS)
	}
	if opts.MaxProbe <= 0 {
		opts.MaxProbe = 5
	}
	front := make(map[string]bool, len(opts.FrontFacing))
	for _, name := range opts.FrontFacing {
		front[name] = true
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Source{opts: opts, front: front, log: log}, nil
}

// Devices returns the configured devices, or every index in [0, MaxProbe)
// that OpenCV can open.
func (s *Source) Devices() ([]capture.Device, error) {
	if len(s.opts.Devices) > 0 {
		devices := make([]capture.Device, 0, len(s.opts.Devices))
		for _, d := range s.opts.Devices {
			devices = append(devices, capture.Device{Name: d.Name, FrontFacing: d.FrontFacing})
		}
		return devices, nil
	}

	var devices []capture.Device
	for i := 0; i < s.opts.MaxProbe; i++ {
		vc, err := gocv.OpenVideoCapture(i)
		if err != nil {
			continue
		}
		vc.Close()
		name := probeName(i)
		devices = append(devices, capture.Device{Name: name, FrontFacing: s.front[name]})
	}
	return devices, nil
}

// Open starts capturing from the named device.
func (s *Source) Open(name string, width, height int) (capture.Camera, error) {
	target, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	vc, err := gocv.OpenVideoCapture(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", capture.ErrDeviceUnavailable, name, err)
	}
	if width > 0 && height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}

	cam := &gocvCamera{
		vc:       vc,
		mat:      gocv.NewMat(),
		rgba:     gocv.NewMat(),
		rotation: s.opts.Rotation,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go func() {
		defer close(cam.done)
		capture.Pump(&cam.Latest, s.opts.FPS, cam.stop, cam.grab)
	}()

	s.log.Info("opencv: camera opened", "device", name, "width", width, "height", height, "fps", s.opts.FPS)
	return cam, nil
}

func (s *Source) resolve(name string) (interface{}, error) {
	for _, d := range s.opts.Devices {
		if d.Name != name {
			continue
		}
		if idx, err := strconv.Atoi(d.URL); err == nil {
			return idx, nil
		}
		return d.URL, nil
	}
	for i := 0; i < s.opts.MaxProbe; i++ {
		if probeName(i) == name {
			return i, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown device %q", capture.ErrDeviceUnavailable, name)
}

func probeName(i int) string {
	return "camera-" + strconv.Itoa(i)
}

type gocvCamera struct {
	capture.Latest
	vc       *gocv.VideoCapture
	mat      gocv.Mat
	rgba     gocv.Mat
	rotation int
	stop     chan struct{}
	done     chan struct{}
	stopped  bool
}

func (c *gocvCamera) Available() bool { return c.Ready() }

func (c *gocvCamera) Close() error {
	if c.stopped {
		return nil
	}
	c.stopped = true
	close(c.stop)
	<-c.done
	c.Drop()
	c.mat.Close()
	c.rgba.Close()
	return c.vc.Close()
}

// grab runs on the pump goroutine only.
func (c *gocvCamera) grab() *capture.Frame {
	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		return nil
	}
	gocv.CvtColor(c.mat, &c.rgba, gocv.ColorBGRToRGBA)

	w, h := c.rgba.Cols(), c.rgba.Rows()
	pix := c.rgba.ToBytes()
	if len(pix) != w*h*4 {
		return nil
	}
	return &capture.Frame{
		Image: &image.RGBA{
			Pix:    pix,
			Stride: w * 4,
			Rect:   image.Rect(0, 0, w, h),
		},
		Rotation:  c.rotation,
		Timestamp: time.Now(),
	}
}
