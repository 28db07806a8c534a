package barcode

import (
	"errors"

	"github.com/liyue201/goqr"
)

// GoQR decodes QR codes with liyue201/goqr.
type GoQR struct{}

func NewGoQR() *GoQR {
	return &GoQR{}
}

func (GoQR) Decode(pix []byte, width, height int) (Result, error) {
	img, err := wrap(pix, width, height)
	if err != nil {
		return Result{}, err
	}
	codes, err := goqr.Recognize(img)
	if errors.Is(err, goqr.ErrNoQRCode) || (err == nil && len(codes) == 0) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Text: string(codes[0].Payload), Format: FormatQRCode}, nil
}
