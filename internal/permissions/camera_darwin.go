package permissions

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AVFoundation -framework Foundation
#import <AVFoundation/AVFoundation.h>

// Values follow AVAuthorizationStatus: 0 not determined, 1 restricted,
// 2 denied, 3 authorized.
int cameraAuthorizationStatus() {
    return (int)[AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeVideo];
}

// Blocks until the user answers the system dialog.
int requestCameraAccess() {
    __block BOOL granted = NO;
    dispatch_semaphore_t sem = dispatch_semaphore_create(0);
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeVideo completionHandler:^(BOOL ok) {
        granted = ok;
        dispatch_semaphore_signal(sem);
    }];
    dispatch_semaphore_wait(sem, DISPATCH_TIME_FOREVER);
    return granted ? 1 : 0;
}
*/
import "C"

func requestCamera() Status {
	switch C.cameraAuthorizationStatus() {
	case 3:
		return Granted
	case 2:
		return Denied
	case 1:
		return Restricted
	}
	if C.requestCameraAccess() != 0 {
		return Granted
	}
	return Denied
}

func request(c Capability) Status {
	switch c {
	case Camera:
		return requestCamera()
	case ScreenRecording:
		return requestScreenRecording()
	default:
		return Undetermined
	}
}
