package capture

import (
	"errors"
	"image"
	"testing"
	"time"
)

func testFrame(w, h int) *Frame {
	return &Frame{Image: image.NewRGBA(image.Rect(0, 0, w, h)), Timestamp: time.Now()}
}

func TestLatestReportsNotReadyUntilStored(t *testing.T) {
	var s Latest
	if _, err := s.Frame(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if s.Ready() {
		t.Fatalf("empty holder must not be ready")
	}

	f := testFrame(4, 2)
	s.Store(f)
	got, err := s.Frame()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != f {
		t.Fatalf("expected stored frame back")
	}
	if got.Width() != 4 || got.Height() != 2 {
		t.Fatalf("unexpected geometry %dx%d", got.Width(), got.Height())
	}
}

func TestLatestKeepsOnlyNewest(t *testing.T) {
	var s Latest
	first, second := testFrame(1, 1), testFrame(2, 2)
	s.Store(first)
	s.Store(second)

	got, _ := s.Frame()
	if got != second {
		t.Fatalf("expected latest frame")
	}
	if s.count != 2 {
		t.Fatalf("expected 2 stores counted, got %d", s.count)
	}
}

func TestLatestIgnoresStoresAfterDrop(t *testing.T) {
	var s Latest
	s.Store(testFrame(1, 1))
	s.Drop()
	s.Store(testFrame(1, 1))

	if s.Ready() {
		t.Fatalf("dropped holder must not be ready")
	}
	if _, err := s.Frame(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady after drop, got %v", err)
	}
}

func TestPumpStoresUntilStopped(t *testing.T) {
	var s Latest
	stop := make(chan struct{})
	done := make(chan struct{})
	grabs := 0
	go func() {
		defer close(done)
		Pump(&s, 60, stop, func() *Frame {
			grabs++
			if grabs%2 == 0 {
				return nil
			}
			return testFrame(1, 1)
		})
	}()

	deadline := time.After(2 * time.Second)
	for !s.Ready() {
		select {
		case <-deadline:
			t.Fatalf("pump never stored a frame")
		case <-time.After(5 * time.Millisecond):
		}
	}
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("pump did not stop")
	}
}

func TestDisplayIndex(t *testing.T) {
	cases := map[string]struct {
		name    string
		want    int
		wantErr bool
	}{
		"primary":  {"display-0", 0, false},
		"second":   {"display-1", 1, false},
		"bare":     {"2", 2, false},
		"garbage":  {"camera-0", 0, true},
		"negative": {"display--1", 0, true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := displayIndex(tc.name)
			if tc.wantErr {
				if !errors.Is(err, ErrDeviceUnavailable) {
					t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("displayIndex(%q) = %d, %v", tc.name, got, err)
			}
		})
	}
}

func TestScreenSourceValidatesFPS(t *testing.T) {
	if _, err := NewScreenSource(0); err == nil {
		t.Fatalf("expected error for zero fps")
	}
	if _, err := NewScreenSource(61); err == nil {
		t.Fatalf("expected error for fps above 60")
	}
}
