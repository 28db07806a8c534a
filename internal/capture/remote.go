package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/junsooki/qrscan/internal/codec"
	"github.com/junsooki/qrscan/internal/peer"
	"github.com/junsooki/qrscan/internal/signaling"
)

// RemoteOptions configure a RemoteSource.
type RemoteOptions struct {
	SignalingURL string
	ClientID     string
	// ListTimeout bounds how long Devices waits for the host list.
	ListTimeout time.Duration
	Logger      *slog.Logger
}

// RemoteSource treats camera hosts registered with a signaling server as
// devices. Frames arrive as JPEG over a WebRTC DataChannel.
type RemoteSource struct {
	opts  RemoteOptions
	log   *slog.Logger
	sig   *signaling.Client
	dec   codec.Decoder
	hosts chan []signaling.HostInfo

	mu     sync.Mutex
	known  map[string]signaling.HostInfo
	active *remoteCamera
}

// NewRemoteSource connects to the signaling server as a scanner.
func NewRemoteSource(opts RemoteOptions) (*RemoteSource, error) {
	if opts.SignalingURL == "" {
		return nil, errors.New("signaling URL is required")
	}
	if opts.ListTimeout <= 0 {
		opts.ListTimeout = 3 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &RemoteSource{
		opts:  opts,
		log:   log,
		dec:   codec.NewJPEGDecoder(),
		hosts: make(chan []signaling.HostInfo, 1),
		known: make(map[string]signaling.HostInfo),
	}
	s.sig = signaling.NewClient(signaling.Options{
		URL:        opts.SignalingURL,
		ClientID:   opts.ClientID,
		ClientType: signaling.ClientTypeScanner,
		Logger:     log,
	}, signaling.Handler{
		OnHostsUpdated:     s.onHosts,
		OnAnswer:           s.onAnswer,
		OnICECandidate:     s.onICECandidate,
		OnHostDisconnected: s.onHostDisconnected,
		OnError: func(msg string) {
			log.Warn("capture: signaling error", "message", msg)
		},
	})
	if err := s.sig.Connect(); err != nil {
		return nil, err
	}
	return s, nil
}

// Devices asks the signaling server for online camera hosts.
func (s *RemoteSource) Devices() ([]Device, error) {
	select {
	case <-s.hosts:
	default:
	}
	if err := s.sig.RequestHostList(); err != nil {
		return nil, fmt.Errorf("list hosts: %w", err)
	}

	var hosts []signaling.HostInfo
	select {
	case hosts = <-s.hosts:
	case <-time.After(s.opts.ListTimeout):
		return nil, fmt.Errorf("list hosts: no reply within %s", s.opts.ListTimeout)
	}

	devices := make([]Device, 0, len(hosts))
	for _, h := range hosts {
		if !h.Online {
			continue
		}
		devices = append(devices, Device{Name: h.ID, FrontFacing: h.FrontFacing()})
	}
	return devices, nil
}

// Open connects to the named camera host. Only one remote camera is active
// at a time; opening another closes the previous one.
func (s *RemoteSource) Open(name string, _, _ int) (Camera, error) {
	p, err := peer.NewScanner(s.sig, name, s.log)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, name, err)
	}

	cam := &remoteCamera{src: s, peer: p}
	s.mu.Lock()
	if info, ok := s.known[name]; ok && info.Camera != nil {
		cam.rotation = info.Camera.Rotation
	}
	prev := s.active
	s.active = cam
	s.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	p.Transport().OnFrame(func(data []byte) {
		img, err := s.dec.Decode(data)
		if err != nil {
			return
		}
		cam.Store(&Frame{Image: img, Rotation: cam.rotation, Timestamp: time.Now()})
	})

	if err := p.Connect(); err != nil {
		cam.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, name, err)
	}
	s.log.Info("capture: remote camera requested", "host", name)
	return cam, nil
}

// Close disconnects from the signaling server.
func (s *RemoteSource) Close() {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if active != nil {
		active.Close()
	}
	s.sig.Close()
}

func (s *RemoteSource) onHosts(hosts []signaling.HostInfo) {
	s.mu.Lock()
	for _, h := range hosts {
		s.known[h.ID] = h
	}
	s.mu.Unlock()

	select {
	case s.hosts <- hosts:
	default:
	}
}

func (s *RemoteSource) current(from string) *remoteCamera {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.peer.HostID() != from {
		return nil
	}
	return s.active
}

func (s *RemoteSource) onAnswer(from string, payload json.RawMessage) {
	if cam := s.current(from); cam != nil {
		if err := cam.peer.HandleAnswer(payload); err != nil {
			s.log.Warn("capture: handle answer", "host", from, "error", err)
		}
	}
}

func (s *RemoteSource) onICECandidate(from string, payload json.RawMessage) {
	if cam := s.current(from); cam != nil {
		if err := cam.peer.HandleICECandidate(payload); err != nil {
			s.log.Warn("capture: handle ICE candidate", "host", from, "error", err)
		}
	}
}

func (s *RemoteSource) onHostDisconnected(hostID string) {
	if cam := s.current(hostID); cam != nil {
		s.log.Warn("capture: remote camera disconnected", "host", hostID)
		cam.lost.Store(true)
	}
}

type remoteCamera struct {
	Latest
	src      *RemoteSource
	peer     *peer.Scanner
	rotation int
	lost     atomic.Bool
	once     sync.Once
}

func (c *remoteCamera) Available() bool {
	return !c.lost.Load() && c.peer.Transport().Open() && c.Ready()
}

func (c *remoteCamera) Close() error {
	c.once.Do(func() {
		c.src.mu.Lock()
		if c.src.active == c {
			c.src.active = nil
		}
		c.src.mu.Unlock()
		c.Drop()
		c.peer.Close()
	})
	return nil
}
