package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
)

// DefaultMaxPixels bounds decoded frames to 4K UHD.
const DefaultMaxPixels = 3840 * 2160

// ErrFrameTooLarge is returned for frames whose header exceeds the pixel limit.
var ErrFrameTooLarge = errors.New("codec: frame too large")

// JPEGEncoder encodes frames as JPEG.
type JPEGEncoder struct {
	quality int
	gray    bool
}

// NewJPEGEncoder creates a JPEG encoder with the given quality (1-100).
func NewJPEGEncoder(quality int) *JPEGEncoder {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	return &JPEGEncoder{quality: quality}
}

// Grayscale makes the encoder drop chroma. QR decoding only reads luminance,
// and single-channel JPEG is roughly a third smaller on the wire.
func (e *JPEGEncoder) Grayscale(on bool) *JPEGEncoder {
	e.gray = on
	return e
}

func (e *JPEGEncoder) Encode(img *image.RGBA) ([]byte, error) {
	var src image.Image = img
	if e.gray {
		g := image.NewGray(img.Bounds())
		draw.Draw(g, g.Bounds(), img, img.Bounds().Min, draw.Src)
		src = g
	}

	var buf bytes.Buffer
	buf.Grow(len(img.Pix) / 8)
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("codec: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// JPEGDecoder decodes JPEG bytes into a packed *image.RGBA anchored at the
// origin, the layout barcode decoders expect.
type JPEGDecoder struct {
	maxPixels int
}

func NewJPEGDecoder() *JPEGDecoder {
	return &JPEGDecoder{maxPixels: DefaultMaxPixels}
}

// MaxPixels changes the size limit checked before a frame is decoded.
func (d *JPEGDecoder) MaxPixels(n int) *JPEGDecoder {
	d.maxPixels = n
	return d
}

func (d *JPEGDecoder) Decode(data []byte) (*image.RGBA, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: read jpeg header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || (d.maxPixels > 0 && cfg.Width*cfg.Height > d.maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d", ErrFrameTooLarge, cfg.Width, cfg.Height)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: decode jpeg: %w", err)
	}
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba, nil
	}
	// JPEG decodes to YCbCr or Gray.
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}
