package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Camera source kinds.
const (
	SourceLocal  = "local"
	SourceScreen = "screen"
	SourceRemote = "remote"
)

// Config holds scanner runtime configuration.
type Config struct {
	Camera    CameraConfig    `yaml:"camera"`
	Scan      ScanConfig      `yaml:"scan"`
	Decoder   DecoderConfig   `yaml:"decoder"`
	Sinks     SinksConfig     `yaml:"sinks"`
	Signaling SignalingConfig `yaml:"signaling"`
	Log       LogConfig       `yaml:"log"`
	Display   DisplayConfig   `yaml:"display"`
}

// CameraConfig selects where frames come from.
type CameraConfig struct {
	Source      string         `yaml:"source"` // local, screen, remote
	Width       int            `yaml:"width"`  // requested capture size (scan zone)
	Height      int            `yaml:"height"`
	FPS         int            `yaml:"fps"`
	Rotation    int            `yaml:"rotation"`
	MaxProbe    int            `yaml:"max_probe"`
	FrontFacing []string       `yaml:"front_facing"`
	Devices     []DeviceConfig `yaml:"devices"`
}

// DeviceConfig names a local device explicitly.
type DeviceConfig struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	FrontFacing bool   `yaml:"front_facing"`
}

// ScanConfig tunes the scan loop.
type ScanConfig struct {
	Mode        string        `yaml:"mode"` // per-tick, tight-loop
	MaxAttempts int           `yaml:"max_attempts"`
	Budget      time.Duration `yaml:"budget"`
	Continuous  bool          `yaml:"continuous"`
}

// DecoderConfig selects the barcode backend.
type DecoderConfig struct {
	Backend   string `yaml:"backend"` // zxing, goqr
	TryHarder bool   `yaml:"try_harder"`
}

// SinksConfig enables result destinations.
type SinksConfig struct {
	OpenURL     bool       `yaml:"open_url"`
	HistoryPath string     `yaml:"history_path"`
	MQTT        MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig contains MQTT broker settings. An empty broker disables it.
type MQTTConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
	QoS    byte   `yaml:"qos"`
	Format string `yaml:"format"` // json, msgpack
}

// SignalingConfig is used by the remote source and by camhost.
type SignalingConfig struct {
	URL string `yaml:"url"`
	ID  string `yaml:"id"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DisplayConfig controls the preview window.
type DisplayConfig struct {
	Headless    bool `yaml:"headless"`
	ExitOnFound bool `yaml:"exit_on_found"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Source:   SourceLocal,
			Width:    640,
			Height:   480,
			FPS:      30,
			MaxProbe: 5,
		},
		Scan:    ScanConfig{Mode: "per-tick"},
		Decoder: DecoderConfig{Backend: "zxing", TryHarder: true},
		Sinks: SinksConfig{
			OpenURL: true,
			MQTT:    MQTTConfig{Topic: "qrscan/decoded", Format: "json"},
		},
		Signaling: SignalingConfig{URL: "ws://localhost:8080"},
		Log:       LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads a YAML file over the defaults. A missing path yields defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Camera.Source {
	case SourceLocal, SourceScreen, SourceRemote:
	default:
		return fmt.Errorf("camera.source must be local, screen or remote, got %q", c.Camera.Source)
	}
	if c.Camera.FPS < 1 || c.Camera.FPS > 60 {
		return fmt.Errorf("camera.fps must be 1-60, got %d", c.Camera.FPS)
	}
	if c.Camera.Width < 0 || c.Camera.Height < 0 {
		return fmt.Errorf("camera size must not be negative, got %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.Rotation%90 != 0 {
		return fmt.Errorf("camera.rotation must be a multiple of 90, got %d", c.Camera.Rotation)
	}
	for i, d := range c.Camera.Devices {
		if d.Name == "" || d.URL == "" {
			return fmt.Errorf("camera.devices[%d] needs name and url", i)
		}
	}
	switch c.Scan.Mode {
	case "per-tick", "tight-loop":
	default:
		return fmt.Errorf("scan.mode must be per-tick or tight-loop, got %q", c.Scan.Mode)
	}
	if c.Scan.MaxAttempts < 0 {
		return fmt.Errorf("scan.max_attempts must not be negative, got %d", c.Scan.MaxAttempts)
	}
	if c.Scan.Budget < 0 {
		return fmt.Errorf("scan.budget must not be negative, got %s", c.Scan.Budget)
	}
	switch c.Decoder.Backend {
	case "zxing", "goqr":
	default:
		return fmt.Errorf("decoder.backend must be zxing or goqr, got %q", c.Decoder.Backend)
	}
	if c.Sinks.MQTT.Broker != "" && c.Sinks.MQTT.Topic == "" {
		return errors.New("sinks.mqtt.topic is required when a broker is set")
	}
	if c.Camera.Source == SourceRemote && c.Signaling.URL == "" {
		return errors.New("signaling.url is required for the remote source")
	}
	return nil
}

// ParseScannerFlags parses flags for the scanner binary. Flags given on the
// command line override values from -config.
func ParseScannerFlags(args []string) (*Config, error) {
	fs := flag.NewFlagSet("qrscan", flag.ContinueOnError)
	path := fs.String("config", "", "Path to YAML config file")

	def := Default()
	source := fs.String("source", def.Camera.Source, "Camera source: local, screen or remote")
	width := fs.Int("width", def.Camera.Width, "Requested capture width")
	height := fs.Int("height", def.Camera.Height, "Requested capture height")
	fps := fs.Int("fps", def.Camera.FPS, "Capture and scan frames per second")
	mode := fs.String("mode", def.Scan.Mode, "Retry mode: per-tick or tight-loop")
	maxAttempts := fs.Int("max-attempts", 0, "Tight-loop attempts per tick (0 = default)")
	continuous := fs.Bool("continuous", false, "Keep scanning after a code is found")
	backend := fs.String("decoder", def.Decoder.Backend, "Decoder backend: zxing or goqr")
	openURL := fs.Bool("open-url", def.Sinks.OpenURL, "Open decoded URLs in the browser")
	history := fs.String("history", "", "Append decoded payloads to this JSON file")
	broker := fs.String("mqtt", "", "MQTT broker host:port to publish results to")
	signalingURL := fs.String("signaling", def.Signaling.URL, "Signaling server WebSocket URL (remote source)")
	id := fs.String("id", "", "Scanner ID (auto-generated if empty)")
	headless := fs.Bool("headless", false, "Run without a preview window")
	logLevel := fs.String("log-level", def.Log.Level, "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", def.Log.Format, "Log format (json, console)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := Load(*path)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Camera.Source = *source
		case "width":
			cfg.Camera.Width = *width
		case "height":
			cfg.Camera.Height = *height
		case "fps":
			cfg.Camera.FPS = *fps
		case "mode":
			cfg.Scan.Mode = *mode
		case "max-attempts":
			cfg.Scan.MaxAttempts = *maxAttempts
		case "continuous":
			cfg.Scan.Continuous = *continuous
		case "decoder":
			cfg.Decoder.Backend = *backend
		case "open-url":
			cfg.Sinks.OpenURL = *openURL
		case "history":
			cfg.Sinks.HistoryPath = *history
		case "mqtt":
			cfg.Sinks.MQTT.Broker = *broker
		case "signaling":
			cfg.Signaling.URL = *signalingURL
		case "id":
			cfg.Signaling.ID = *id
		case "headless":
			cfg.Display.Headless = *headless
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})

	if cfg.Signaling.ID == "" {
		cfg.Signaling.ID = NewID("scanner")
	}
	if strings.HasPrefix(cfg.Sinks.HistoryPath, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Sinks.HistoryPath = filepath.Join(home, cfg.Sinks.HistoryPath[2:])
		}
	}
	return cfg, cfg.Validate()
}

// HostConfig holds configuration for the camera host binary.
type HostConfig struct {
	SignalingURL string
	HostID       string
	Device       string
	CameraName   string
	FrontFacing  bool
	Width        int
	Height       int
	FPS          int
	Quality      int
	Grayscale    bool
	Rotation     int
	LogLevel     string
	LogFormat    string
}

// ParseHostFlags parses flags for the camera host binary.
func ParseHostFlags(args []string) (*HostConfig, error) {
	cfg := &HostConfig{}
	fs := flag.NewFlagSet("camhost", flag.ContinueOnError)
	fs.StringVar(&cfg.SignalingURL, "signaling", "ws://localhost:8080", "Signaling server WebSocket URL")
	fs.StringVar(&cfg.HostID, "id", "", "Host ID (auto-generated if empty)")
	fs.StringVar(&cfg.Device, "device", "camera-0", "Local device to publish (camera-N)")
	fs.StringVar(&cfg.CameraName, "name", "", "Camera name advertised to scanners (defaults to -device)")
	fs.BoolVar(&cfg.FrontFacing, "front", false, "Advertise the camera as front facing")
	fs.IntVar(&cfg.Width, "width", 640, "Capture width")
	fs.IntVar(&cfg.Height, "height", 480, "Capture height")
	fs.IntVar(&cfg.FPS, "fps", 15, "Frames per second to publish")
	fs.IntVar(&cfg.Quality, "quality", 80, "JPEG quality (1-100)")
	fs.BoolVar(&cfg.Grayscale, "gray", true, "Send luminance-only frames")
	fs.IntVar(&cfg.Rotation, "rotation", 0, "Clockwise rotation of the mounted camera in degrees")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "console", "Log format (json, console)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.HostID == "" {
		cfg.HostID = NewID("camera")
	}
	if cfg.CameraName == "" {
		cfg.CameraName = cfg.Device
	}
	if cfg.FPS < 1 || cfg.FPS > 60 {
		return nil, fmt.Errorf("fps must be 1-60, got %d", cfg.FPS)
	}
	return cfg, nil
}

// NewID returns "<role>-" followed by a short random suffix.
func NewID(role string) string {
	return fmt.Sprintf("%s-%s", role, uuid.NewString()[:8])
}
