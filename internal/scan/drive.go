package scan

import (
	"context"
	"fmt"
	"time"
)

// Drive ticks l at fps until it reaches StateFound, becomes unavailable or
// ctx is done. It stands in for a render loop when running without a window.
// In continuous mode only ctx ends it.
func Drive(ctx context.Context, l *Loop, fps int) error {
	if fps <= 0 {
		return fmt.Errorf("scan: fps must be positive, got %d", fps)
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		switch l.Tick(ctx) {
		case StateFound:
			return nil
		case StateUnavailable:
			return ErrNoCameraAvailable
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
