package scan

import (
	"errors"

	"github.com/junsooki/qrscan/internal/capture"
)

// ErrNoCameraAvailable means no rear-facing camera could be selected or
// opened. It is the only error that leaves the scan loop.
var ErrNoCameraAvailable = errors.New("scan: no camera available")

// SelectDevice returns the last device that is not front facing. Later
// devices win when several rear cameras are listed.
func SelectDevice(devices []capture.Device) (capture.Device, error) {
	var (
		picked capture.Device
		found  bool
	)
	for _, d := range devices {
		if !d.FrontFacing {
			picked, found = d, true
		}
	}
	if !found {
		return capture.Device{}, ErrNoCameraAvailable
	}
	return picked, nil
}
