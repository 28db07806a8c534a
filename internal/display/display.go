package display

import (
	"context"

	"github.com/junsooki/qrscan/internal/capture"
	"github.com/junsooki/qrscan/internal/scan"
)

// Display renders the scanner window.
type Display interface {
	Run() error
}

// Loop is the part of scan.Loop the preview drives once per frame.
type Loop interface {
	Tick(ctx context.Context) scan.State
	State() scan.State
	Stats() scan.Stats
	Reset()
	Camera() capture.Camera
}
