// Package permissions asks the operating system for capture access before a
// camera is opened.
package permissions

import (
	"context"
	"os"
	"strings"
)

// Capability is a protected capture resource.
type Capability int

const (
	Camera Capability = iota
	ScreenRecording
)

func (c Capability) String() string {
	switch c {
	case Camera:
		return "camera"
	case ScreenRecording:
		return "screen-recording"
	default:
		return "unknown"
	}
}

// Status is the outcome of a permission request.
type Status int

const (
	Undetermined Status = iota
	Granted
	Denied
	Restricted
)

func (s Status) String() string {
	switch s {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	case Restricted:
		return "restricted"
	default:
		return "undetermined"
	}
}

// Request asks for c without blocking. The returned channel yields exactly
// one Status and is then closed. If ctx ends first the status is
// Undetermined.
func Request(ctx context.Context, c Capability) <-chan Status {
	out := make(chan Status, 1)
	go func() {
		defer close(out)

		if st, ok := override(c); ok {
			out <- st
			return
		}

		result := make(chan Status, 1)
		go func() { result <- request(c) }()
		select {
		case st := <-result:
			out <- st
		case <-ctx.Done():
			out <- Undetermined
		}
	}()
	return out
}

// envKey names the variable that forces a result for c, e.g.
// QRSCAN_CAMERA_PERMISSION=denied.
func envKey(c Capability) string {
	name := strings.ToUpper(strings.ReplaceAll(c.String(), "-", "_"))
	return "QRSCAN_" + name + "_PERMISSION"
}

func override(c Capability) (Status, bool) {
	return parseStatus(os.Getenv(envKey(c)))
}

func parseStatus(v string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "granted", "allow", "yes":
		return Granted, true
	case "denied", "deny", "no":
		return Denied, true
	case "restricted":
		return Restricted, true
	default:
		return Undetermined, false
	}
}
