package peer

import (
	"encoding/json"
	"log/slog"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/qrscan/internal/transport"
)

// Scanner is the consuming side of a connection. It opens the frames channel
// and sends the offer, so the SDP carries the data section.
type Scanner struct {
	pc        *webrtc.PeerConnection
	sig       Signaler
	transport *transport.DataChannelTransport
	hostID    string
}

// NewScanner creates a Scanner peer manager targeting hostID.
func NewScanner(sig Signaler, hostID string, log *slog.Logger) (*Scanner, error) {
	if log == nil {
		log = slog.Default()
	}
	pc, err := NewPeerConnection(log)
	if err != nil {
		return nil, err
	}

	// Stale frames are useless to a scanner: unordered, no retransmits.
	ordered := false
	maxRetransmits := uint16(0)
	dc, err := pc.CreateDataChannel(transport.FramesLabel, &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &maxRetransmits,
	})
	if err != nil {
		pc.Close()
		return nil, err
	}

	s := &Scanner{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannelTransport(dc),
		hostID:    hostID,
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		sendCandidate(sig, hostID, c, log)
	})

	return s, nil
}

// Transport returns the transport frames arrive on.
func (s *Scanner) Transport() *transport.DataChannelTransport {
	return s.transport
}

// HostID returns the camera host this peer targets.
func (s *Scanner) HostID() string { return s.hostID }

// Connect creates and sends the offer.
func (s *Scanner) Connect() error {
	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return err
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return err
	}

	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return err
	}
	return s.sig.SendOffer(s.hostID, offerJSON)
}

// HandleAnswer processes an incoming SDP answer.
func (s *Scanner) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return err
	}
	return s.pc.SetRemoteDescription(answer)
}

// HandleICECandidate adds a remote ICE candidate.
func (s *Scanner) HandleICECandidate(payload json.RawMessage) error {
	return addCandidate(s.pc, payload)
}

// Close shuts down the peer connection.
func (s *Scanner) Close() {
	if s.pc != nil {
		s.pc.Close()
	}
}
