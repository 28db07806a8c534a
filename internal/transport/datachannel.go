package transport

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
)

// FramesLabel is the DataChannel label frames travel on.
const FramesLabel = "frames"

var errNoChannel = errors.New("frames data channel not set")

// DataChannelTransport carries encoded frames over a WebRTC DataChannel.
type DataChannelTransport struct {
	mu       sync.Mutex
	framesDC *webrtc.DataChannel
	onFrame  func(data []byte)
	open     atomic.Bool
}

// NewDataChannelTransport wraps the frames DataChannel. dc may be nil on the
// receiving side until the remote channel is announced.
func NewDataChannelTransport(dc *webrtc.DataChannel) *DataChannelTransport {
	t := &DataChannelTransport{}
	if dc != nil {
		t.SetFramesChannel(dc)
	}
	return t
}

func (t *DataChannelTransport) SendFrame(data []byte) error {
	t.mu.Lock()
	dc := t.framesDC
	t.mu.Unlock()
	if dc == nil {
		return errNoChannel
	}
	return dc.Send(data)
}

func (t *DataChannelTransport) OnFrame(cb func(data []byte)) {
	t.mu.Lock()
	t.onFrame = cb
	t.mu.Unlock()
}

// Open reports whether the frames channel is open.
func (t *DataChannelTransport) Open() bool {
	return t.open.Load()
}

// SetFramesChannel sets or replaces the frames DataChannel (used when
// receiving negotiated channels).
func (t *DataChannelTransport) SetFramesChannel(dc *webrtc.DataChannel) {
	t.mu.Lock()
	t.framesDC = dc
	t.mu.Unlock()

	t.open.Store(dc.ReadyState() == webrtc.DataChannelStateOpen)
	dc.OnOpen(func() { t.open.Store(true) })
	dc.OnClose(func() { t.open.Store(false) })
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.mu.Lock()
		cb := t.onFrame
		t.mu.Unlock()
		if cb != nil {
			cb(msg.Data)
		}
	})
}
