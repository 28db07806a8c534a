//go:build !darwin

package permissions

// Platforms other than macOS have no capture consent prompt; access is
// decided by device file permissions when the camera is opened.
func request(c Capability) Status {
	switch c {
	case Camera, ScreenRecording:
		return Granted
	default:
		return Undetermined
	}
}
