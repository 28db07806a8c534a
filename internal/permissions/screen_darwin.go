package permissions

/*
#cgo LDFLAGS: -framework CoreGraphics
#include <CoreGraphics/CoreGraphics.h>

int screenCaptureGranted() {
    return CGPreflightScreenCaptureAccess();
}

// Shows the system prompt at most once per process; a grant only takes
// effect after the app restarts.
int askScreenCapture() {
    return CGRequestScreenCaptureAccess();
}
*/
import "C"

// HasScreenRecording reports whether the display source may capture.
func HasScreenRecording() bool {
	return C.screenCaptureGranted() != 0
}

func requestScreenRecording() Status {
	if HasScreenRecording() || C.askScreenCapture() != 0 {
		return Granted
	}
	return Denied
}
