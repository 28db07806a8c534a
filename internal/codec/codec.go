// Package codec converts frames to and from the wire format used between a
// camera host and a remote scanner.
package codec

import "image"

// Encoder encodes a frame into bytes.
type Encoder interface {
	Encode(img *image.RGBA) ([]byte, error)
}

// Decoder decodes bytes into a frame.
type Decoder interface {
	Decode(data []byte) (*image.RGBA, error)
}
