package barcode

import (
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ZXing decodes QR codes with gozxing.
type ZXing struct {
	reader gozxing.Reader
	hints  map[gozxing.DecodeHintType]interface{}
}

// NewZXing creates a gozxing-backed decoder. tryHarder trades speed for
// accuracy on blurry or skewed frames.
func NewZXing(tryHarder bool) *ZXing {
	var hints map[gozxing.DecodeHintType]interface{}
	if tryHarder {
		hints = map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		}
	}
	return &ZXing{reader: qrcode.NewQRCodeReader(), hints: hints}
}

func (z *ZXing) Decode(pix []byte, width, height int) (Result, error) {
	img, err := wrap(pix, width, height)
	if err != nil {
		return Result{}, err
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return Result{}, err
	}

	res, err := z.reader.Decode(bmp, z.hints)
	if err != nil {
		if _, ok := err.(gozxing.NotFoundException); ok {
			return Result{}, nil
		}
		return Result{}, err
	}
	return Result{Text: res.GetText(), Format: res.GetBarcodeFormat().String()}, nil
}
