package peer

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/qrscan/internal/transport"
)

// Host is the camera side of a connection: it answers a scanner's offer and
// streams frames on the channel the scanner opened.
type Host struct {
	pc        *webrtc.PeerConnection
	sig       Signaler
	transport *transport.DataChannelTransport
	log       *slog.Logger

	mu     sync.Mutex
	peerID string // the scanner we're connected to
}

// NewHost creates a Host peer manager.
func NewHost(sig Signaler, log *slog.Logger) (*Host, error) {
	if log == nil {
		log = slog.Default()
	}
	pc, err := NewPeerConnection(log)
	if err != nil {
		return nil, err
	}

	h := &Host{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannelTransport(nil),
		log:       log,
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != transport.FramesLabel {
			log.Debug("peer: ignoring data channel", "label", dc.Label())
			return
		}
		log.Info("peer: frames channel received")
		h.transport.SetFramesChannel(dc)
	})

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		sendCandidate(sig, h.peer(), c, log)
	})

	return h, nil
}

// Transport returns the transport frames are sent on.
func (h *Host) Transport() *transport.DataChannelTransport {
	return h.transport
}

func (h *Host) peer() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.peerID
}

// HandleOffer processes an incoming offer from a scanner.
func (h *Host) HandleOffer(from string, payload json.RawMessage) error {
	h.mu.Lock()
	h.peerID = from
	h.mu.Unlock()

	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return err
	}
	if err := h.pc.SetRemoteDescription(offer); err != nil {
		return err
	}

	answer, err := h.pc.CreateAnswer(nil)
	if err != nil {
		return err
	}
	if err := h.pc.SetLocalDescription(answer); err != nil {
		return err
	}

	answerJSON, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return h.sig.SendAnswer(from, answerJSON)
}

// HandleICECandidate adds a remote ICE candidate.
func (h *Host) HandleICECandidate(payload json.RawMessage) error {
	return addCandidate(h.pc, payload)
}

// Close shuts down the peer connection.
func (h *Host) Close() {
	if h.pc != nil {
		h.pc.Close()
	}
}
