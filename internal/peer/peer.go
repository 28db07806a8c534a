package peer

import (
	"encoding/json"
	"log/slog"

	"github.com/pion/webrtc/v4"
)

// ICEServers is the default ICE server configuration.
var ICEServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"}},
}

// NewPeerConnection creates a configured PeerConnection.
func NewPeerConnection(log *slog.Logger) (*webrtc.PeerConnection, error) {
	if log == nil {
		log = slog.Default()
	}
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: ICEServers})
	if err != nil {
		return nil, err
	}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Info("peer: connection state", "state", state.String())
	})
	return pc, nil
}

// Signaler is the part of the signaling client a peer needs.
type Signaler interface {
	SendOffer(target string, payload json.RawMessage) error
	SendAnswer(target string, payload json.RawMessage) error
	SendICECandidate(target string, payload json.RawMessage) error
}

func sendCandidate(sig Signaler, target string, c *webrtc.ICECandidate, log *slog.Logger) {
	if c == nil || target == "" {
		return
	}
	data, err := json.Marshal(c.ToJSON())
	if err != nil {
		log.Warn("peer: marshal ICE candidate", "error", err)
		return
	}
	_ = sig.SendICECandidate(target, data)
}

func addCandidate(pc *webrtc.PeerConnection, payload json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return err
	}
	return pc.AddICECandidate(candidate)
}
