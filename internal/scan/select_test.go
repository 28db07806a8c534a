package scan

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/junsooki/qrscan/internal/capture"
)

func TestSelectDevice(t *testing.T) {
	cases := map[string]struct {
		devices []capture.Device
		want    string
		wantErr bool
	}{
		"front then two rear": {
			devices: []capture.Device{{Name: "A", FrontFacing: true}, {Name: "B"}, {Name: "C"}},
			want:    "C",
		},
		"rear then front": {
			devices: []capture.Device{{Name: "X"}, {Name: "Y", FrontFacing: true}},
			want:    "X",
		},
		"single rear": {
			devices: []capture.Device{{Name: "only"}},
			want:    "only",
		},
		"empty":     {wantErr: true},
		"all front": {devices: []capture.Device{{Name: "A", FrontFacing: true}}, wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := SelectDevice(tc.devices)
			if tc.wantErr {
				if !errors.Is(err, ErrNoCameraAvailable) {
					t.Fatalf("expected ErrNoCameraAvailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("select: %v", err)
			}
			if got.Name != tc.want {
				t.Fatalf("selected %q, want %q", got.Name, tc.want)
			}
		})
	}
}

func TestSelectDevicePicksLastRearForRandomLists(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := rng.Intn(8)
		devices := make([]capture.Device, n)
		lastRear := -1
		for j := range devices {
			devices[j] = capture.Device{Name: string(rune('a' + j)), FrontFacing: rng.Intn(2) == 0}
			if !devices[j].FrontFacing {
				lastRear = j
			}
		}

		got, err := SelectDevice(devices)
		if lastRear < 0 {
			if !errors.Is(err, ErrNoCameraAvailable) {
				t.Fatalf("%v: expected ErrNoCameraAvailable, got %v", devices, err)
			}
			continue
		}
		if err != nil || got != devices[lastRear] {
			t.Fatalf("%v: selected %v (%v), want %v", devices, got, err, devices[lastRear])
		}
	}
}
