package display

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/junsooki/qrscan/internal/scan"
)

// Options configure a Scanner window.
type Options struct {
	Title       string
	TPS         int // scan ticks per second
	ExitOnFound bool
}

// Scanner shows the camera preview and ticks the scan loop from Update.
type Scanner struct {
	ctx  context.Context
	loop Loop
	opts Options

	preview *ebiten.Image

	mu     sync.Mutex
	result string
}

// NewScanner creates an Ebitengine-based scanner window.
func NewScanner(ctx context.Context, loop Loop, opts Options) *Scanner {
	if opts.Title == "" {
		opts.Title = "qrscan"
	}
	if opts.TPS <= 0 {
		opts.TPS = ebiten.DefaultTPS
	}
	return &Scanner{ctx: ctx, loop: loop, opts: opts}
}

// SetResult records the last payload for the overlay. It can be used as a
// result sink.
func (s *Scanner) SetResult(_ context.Context, text string) error {
	s.mu.Lock()
	s.result = text
	s.mu.Unlock()
	return nil
}

// Run starts the Ebitengine game loop. Must be called from the main goroutine.
func (s *Scanner) Run() error {
	ebiten.SetWindowSize(960, 720)
	ebiten.SetWindowTitle(s.opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(s.opts.TPS)
	return ebiten.RunGame(s)
}

// --- ebiten.Game interface ---

func (s *Scanner) Update() error {
	if s.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		s.loop.Reset()
		s.SetResult(s.ctx, "")
	}

	if s.loop.Tick(s.ctx) == scan.StateFound && s.opts.ExitOnFound {
		return ebiten.Termination
	}
	return nil
}

func (s *Scanner) Draw(screen *ebiten.Image) {
	if cam := s.loop.Camera(); cam != nil {
		if frame, err := cam.Frame(); err == nil {
			s.drawFrame(screen, frame.Image.Pix, frame.Width(), frame.Height())
		}
	}

	s.mu.Lock()
	result := s.result
	s.mu.Unlock()
	ebitenutil.DebugPrint(screen, statusText(s.loop.State(), s.loop.Stats(), result))
}

func (s *Scanner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (s *Scanner) drawFrame(screen *ebiten.Image, pix []byte, w, h int) {
	if s.preview == nil ||
		s.preview.Bounds().Dx() != w ||
		s.preview.Bounds().Dy() != h {
		s.preview = ebiten.NewImage(w, h)
	}
	s.preview.WritePixels(pix)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale, offsetX, offsetY := aspectFitTransform(float64(sw), float64(sh), float64(w), float64(h))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(s.preview, op)
}

func statusText(state scan.State, stats scan.Stats, result string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "state: %s  attempts: %d  found: %d\n", state, stats.Attempts, stats.Payloads)
	switch state {
	case scan.StateUnavailable:
		b.WriteString("no camera available\n")
	case scan.StateIdle:
		b.WriteString("waiting for camera...\n")
	case scan.StateFound:
		b.WriteString("press R to scan again, Esc to quit\n")
	}
	if result != "" {
		b.WriteString("> " + result)
	}
	return b.String()
}

// aspectFitTransform returns scale and offsets to fit frame into view with letterboxing.
func aspectFitTransform(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	scale = math.Min(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}
