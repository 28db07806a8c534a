package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseScannerFlagsDefaults(t *testing.T) {
	cfg, err := ParseScannerFlags(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Camera.Source != SourceLocal || cfg.Camera.FPS != 30 || cfg.Scan.Mode != "per-tick" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !strings.HasPrefix(cfg.Signaling.ID, "scanner-") {
		t.Fatalf("expected generated scanner id, got %q", cfg.Signaling.ID)
	}
}

func TestParseScannerFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qrscan.yaml")
	doc := `
camera:
  source: screen
  fps: 10
scan:
  mode: tight-loop
  max_attempts: 8
  budget: 50ms
decoder:
  backend: goqr
sinks:
  mqtt:
    broker: localhost:1883
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := ParseScannerFlags([]string{"-config", path, "-fps", "20", "-continuous"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Camera.Source != SourceScreen {
		t.Fatalf("source from file lost: %q", cfg.Camera.Source)
	}
	if cfg.Camera.FPS != 20 {
		t.Fatalf("flag should override file fps, got %d", cfg.Camera.FPS)
	}
	if cfg.Scan.Mode != "tight-loop" || cfg.Scan.MaxAttempts != 8 || cfg.Scan.Budget != 50*time.Millisecond {
		t.Fatalf("unexpected scan config %+v", cfg.Scan)
	}
	if !cfg.Scan.Continuous {
		t.Fatalf("expected continuous from flag")
	}
	if cfg.Decoder.Backend != "goqr" {
		t.Fatalf("unexpected backend %q", cfg.Decoder.Backend)
	}
	if cfg.Sinks.MQTT.Broker != "localhost:1883" || cfg.Sinks.MQTT.Topic != "qrscan/decoded" {
		t.Fatalf("expected default topic kept beside file broker, got %+v", cfg.Sinks.MQTT)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"source":   func(c *Config) { c.Camera.Source = "webcam" },
		"fps":      func(c *Config) { c.Camera.FPS = 0 },
		"size":     func(c *Config) { c.Camera.Width = -1 },
		"rotation": func(c *Config) { c.Camera.Rotation = 45 },
		"device":   func(c *Config) { c.Camera.Devices = []DeviceConfig{{Name: "door"}} },
		"mode":     func(c *Config) { c.Scan.Mode = "burst" },
		"attempts": func(c *Config) { c.Scan.MaxAttempts = -2 },
		"budget":   func(c *Config) { c.Scan.Budget = -time.Second },
		"backend":  func(c *Config) { c.Decoder.Backend = "zbar" },
		"topic":    func(c *Config) { c.Sinks.MQTT.Broker = "b:1883"; c.Sinks.MQTT.Topic = "" },
		"remote":   func(c *Config) { c.Camera.Source = SourceRemote; c.Signaling.URL = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestParseHostFlags(t *testing.T) {
	cfg, err := ParseHostFlags([]string{"-device", "camera-1", "-front", "-fps", "10"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.CameraName != "camera-1" || !cfg.FrontFacing || cfg.FPS != 10 || !cfg.Grayscale {
		t.Fatalf("unexpected host config %+v", cfg)
	}
	if !strings.HasPrefix(cfg.HostID, "camera-") {
		t.Fatalf("expected generated host id, got %q", cfg.HostID)
	}

	if _, err := ParseHostFlags([]string{"-fps", "0"}); err == nil {
		t.Fatalf("expected error for fps 0")
	}
}
