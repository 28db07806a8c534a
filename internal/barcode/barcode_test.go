package barcode

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

func renderQR(t *testing.T, text string, size int) *image.RGBA {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	if err != nil {
		t.Fatalf("encode qr: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), matrix, image.Point{}, draw.Src)
	return img
}

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}

func TestZXingDecodesPayload(t *testing.T) {
	img := renderQR(t, "https://example.com", 240)
	for _, tryHarder := range []bool{false, true} {
		res, err := NewZXing(tryHarder).Decode(img.Pix, 240, 240)
		if err != nil {
			t.Fatalf("decode (tryHarder=%v): %v", tryHarder, err)
		}
		if !res.Found() || res.Text != "https://example.com" {
			t.Fatalf("unexpected result %+v", res)
		}
		if res.Format != "QR_CODE" {
			t.Fatalf("unexpected format %q", res.Format)
		}
	}
}

func TestZXingEmptyFrameIsNotAnError(t *testing.T) {
	img := blank(160, 120)
	res, err := NewZXing(false).Decode(img.Pix, 160, 120)
	if err != nil {
		t.Fatalf("expected no error for frame without code, got %v", err)
	}
	if res.Found() {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestGoQRDecodesPayload(t *testing.T) {
	img := renderQR(t, "https://example.com", 240)
	res, err := NewGoQR().Decode(img.Pix, 240, 240)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Found() || res.Text != "https://example.com" || res.Format != FormatQRCode {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestGoQREmptyFrameIsNotAnError(t *testing.T) {
	img := blank(160, 120)
	res, err := NewGoQR().Decode(img.Pix, 160, 120)
	if err != nil {
		t.Fatalf("expected no error for frame without code, got %v", err)
	}
	if res.Found() {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestResultFound(t *testing.T) {
	cases := map[string]struct {
		res  Result
		want bool
	}{
		"zero":         {Result{}, false},
		"payload":      {Result{Text: "hi", Format: FormatQRCode}, true},
		"empty string": {Result{Format: FormatQRCode}, true},
	}
	for name, tc := range cases {
		if got := tc.res.Found(); got != tc.want {
			t.Fatalf("%s: Found() = %v, want %v", name, got, tc.want)
		}
	}
}

func TestZXingDoesNotMutateFrame(t *testing.T) {
	img := renderQR(t, "hello", 200)
	before := append([]byte(nil), img.Pix...)
	if _, err := NewZXing(true).Decode(img.Pix, 200, 200); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range before {
		if before[i] != img.Pix[i] {
			t.Fatalf("pixel buffer mutated at byte %d", i)
		}
	}
}

func TestDecodersRejectMismatchedBuffers(t *testing.T) {
	decoders := map[string]Decoder{
		"zxing": NewZXing(false),
		"goqr":  NewGoQR(),
	}
	cases := map[string]struct {
		pix  []byte
		w, h int
	}{
		"short":    {make([]byte, 10), 4, 4},
		"zero":     {nil, 0, 0},
		"negative": {make([]byte, 16), -2, -2},
	}
	for dn, dec := range decoders {
		for cn, tc := range cases {
			t.Run(dn+"/"+cn, func(t *testing.T) {
				if _, err := dec.Decode(tc.pix, tc.w, tc.h); err == nil {
					t.Fatalf("expected error")
				}
			})
		}
	}
}

func TestNewSelectsBackend(t *testing.T) {
	cases := map[string]struct {
		backend Backend
		wantErr bool
	}{
		"default": {"", false},
		"zxing":   {BackendZXing, false},
		"goqr":    {BackendGoQR, false},
		"unknown": {"tesseract", true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dec, err := New(Options{Backend: tc.backend})
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil || dec == nil {
				t.Fatalf("New(%q) = %v, %v", tc.backend, dec, err)
			}
		})
	}
}
