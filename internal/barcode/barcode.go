// Package barcode locates and decodes QR codes in packed RGBA pixel buffers.
package barcode

import (
	"fmt"
	"image"
)

// FormatQRCode is the Format reported for QR codes.
const FormatQRCode = "QR_CODE"

// Result is the outcome of one decode attempt. The zero value means no code
// was located. Format is set whenever a code was decoded, so a code that
// encodes the empty string is still found.
type Result struct {
	Text   string
	Format string
}

// Found reports whether a code was decoded.
func (r Result) Found() bool { return r.Format != "" }

// Decoder decodes a barcode from width*height packed RGBA samples. A frame
// without a code yields the zero Result and a nil error; errors are reserved
// for faults inside the decoder.
type Decoder interface {
	Decode(pix []byte, width, height int) (Result, error)
}

// Backend names a Decoder implementation.
type Backend string

const (
	BackendZXing Backend = "zxing"
	BackendGoQR  Backend = "goqr"
)

// Options select and tune a Decoder.
type Options struct {
	Backend   Backend
	TryHarder bool
}

// New returns the decoder for opts.Backend. An empty backend selects ZXing.
func New(opts Options) (Decoder, error) {
	switch opts.Backend {
	case "", BackendZXing:
		return NewZXing(opts.TryHarder), nil
	case BackendGoQR:
		return NewGoQR(), nil
	default:
		return nil, fmt.Errorf("unknown decoder backend %q", opts.Backend)
	}
}

// wrap views pix as an image without copying.
func wrap(pix []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("pixel buffer holds %d bytes, want %d for %dx%d", len(pix), width*height*4, width, height)
	}
	return &image.RGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}
