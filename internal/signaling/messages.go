package signaling

import "encoding/json"

// Message types for the signaling protocol.
const (
	TypeRegister         = "register"
	TypeRegistered       = "registered"
	TypeListHosts        = "list-hosts"
	TypeHosts            = "hosts"
	TypeHostsUpdated     = "hosts-updated"
	TypeOffer            = "offer"
	TypeAnswer           = "answer"
	TypeICECandidate     = "ice-candidate"
	TypePing             = "ping"
	TypePong             = "pong"
	TypeError            = "error"
	TypeHostDisconnected = "host-disconnected"
)

// Client types. A camera host publishes frames, a scanner consumes them.
const (
	ClientTypeCamera  = "camera"
	ClientTypeScanner = "scanner"
)

// Message is the envelope for all signaling messages.
type Message struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"`
	ClientType string          `json:"clientType,omitempty"`
	Camera     *CameraInfo     `json:"camera,omitempty"`
	From       string          `json:"from,omitempty"`
	Target     string          `json:"target,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	List       []HostInfo      `json:"list,omitempty"`
	HostID     string          `json:"hostId,omitempty"`
	Msg        string          `json:"message,omitempty"`
	Timestamp  int64           `json:"timestamp,omitempty"`
}

// CameraInfo is what a camera host advertises about its device.
type CameraInfo struct {
	Name        string `json:"name"`
	FrontFacing bool   `json:"frontFacing"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Rotation    int    `json:"rotation,omitempty"`
}

// HostInfo describes a camera host in the host list.
type HostInfo struct {
	ID     string      `json:"id"`
	Online bool        `json:"online"`
	Camera *CameraInfo `json:"camera,omitempty"`
}

// FrontFacing reports whether the host's camera faces the user. Hosts that
// did not advertise a camera count as rear facing.
func (h HostInfo) FrontFacing() bool {
	return h.Camera != nil && h.Camera.FrontFacing
}
