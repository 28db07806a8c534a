package scan

import (
	"fmt"

	"github.com/junsooki/qrscan/internal/barcode"
	"github.com/junsooki/qrscan/internal/capture"
)

// attempt runs one decode on frame. Decoder errors and panics come back as
// fault with an empty result; the frame is never modified.
func attempt(dec barcode.Decoder, frame *capture.Frame) (res barcode.Result, fault error) {
	defer func() {
		if r := recover(); r != nil {
			res, fault = barcode.Result{}, fmt.Errorf("decoder panic: %v", r)
		}
	}()

	res, err := dec.Decode(frame.Image.Pix, frame.Width(), frame.Height())
	if err != nil {
		return barcode.Result{}, err
	}
	return res, nil
}
