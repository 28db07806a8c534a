package capture

import (
	"sync"
	"time"
)

// Latest holds the most recent frame published by a capture goroutine.
// Older frames are overwritten, never queued. Camera implementations embed it
// to get Frame.
type Latest struct {
	mu     sync.Mutex
	frame  *Frame
	count  uint64
	closed bool
}

// Store replaces the held frame. It does nothing after Drop.
func (s *Latest) Store(f *Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.frame = f
	s.count++
}

// Frame returns the held frame, or ErrNotReady before the first Store.
func (s *Latest) Frame() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil, ErrNotReady
	}
	return s.frame, nil
}

// Ready reports whether a frame is held.
func (s *Latest) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.frame != nil
}

// Drop releases the held frame and ignores later stores.
func (s *Latest) Drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.frame = nil
}

// Pump calls grab at fps until stop is closed and stores every non-nil frame.
func Pump(s *Latest, fps int, stop <-chan struct{}, grab func() *Frame) {
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if f := grab(); f != nil {
				s.Store(f)
			}
		}
	}
}
