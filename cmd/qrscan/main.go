package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/junsooki/qrscan/internal/barcode"
	"github.com/junsooki/qrscan/internal/capture"
	"github.com/junsooki/qrscan/internal/capture/opencv"
	"github.com/junsooki/qrscan/internal/config"
	"github.com/junsooki/qrscan/internal/display"
	"github.com/junsooki/qrscan/internal/logging"
	"github.com/junsooki/qrscan/internal/permissions"
	"github.com/junsooki/qrscan/internal/scan"
	"github.com/junsooki/qrscan/internal/sink"
)

func main() {
	cfg, err := config.ParseScannerFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "qrscan: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "qrscan: %v\n", err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("qrscan: exiting", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("qrscan: starting",
		"id", cfg.Signaling.ID,
		"source", cfg.Camera.Source,
		"mode", cfg.Scan.Mode,
		"decoder", cfg.Decoder.Backend,
	)

	if err := awaitPermission(ctx, cfg.Camera.Source, log); err != nil {
		return err
	}

	source, closeSource, err := openSource(cfg, log)
	if err != nil {
		return err
	}
	defer closeSource()

	dec, err := barcode.New(barcode.Options{
		Backend:   barcode.Backend(cfg.Decoder.Backend),
		TryHarder: cfg.Decoder.TryHarder,
	})
	if err != nil {
		return err
	}

	sinks, closeSinks, err := buildSinks(cfg, log)
	if err != nil {
		return err
	}
	defer closeSinks()

	mode, ok := scan.ParseMode(cfg.Scan.Mode)
	if !ok {
		return fmt.Errorf("unknown scan mode %q", cfg.Scan.Mode)
	}

	var win *display.Scanner
	if !cfg.Display.Headless {
		sinks = append(sinks, sink.Func(func(ctx context.Context, text string) error {
			return win.SetResult(ctx, text)
		}))
	}

	loop, err := scan.New(source, dec, sinks, scan.Options{
		Width:       cfg.Camera.Width,
		Height:      cfg.Camera.Height,
		Mode:        mode,
		MaxAttempts: cfg.Scan.MaxAttempts,
		Budget:      cfg.Scan.Budget,
		Continuous:  cfg.Scan.Continuous,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	defer loop.Close()

	// Initialize failures leave the loop unavailable; the window still opens
	// and reports it.
	initErr := loop.Initialize()

	if cfg.Display.Headless {
		if initErr != nil {
			return initErr
		}
		return scan.Drive(ctx, loop, cfg.Camera.FPS)
	}

	win = display.NewScanner(ctx, loop, display.Options{
		Title:       "qrscan",
		TPS:         cfg.Camera.FPS,
		ExitOnFound: cfg.Display.ExitOnFound,
	})
	return win.Run()
}

func awaitPermission(ctx context.Context, source string, log *slog.Logger) error {
	var capability permissions.Capability
	switch source {
	case config.SourceLocal:
		capability = permissions.Camera
	case config.SourceScreen:
		capability = permissions.ScreenRecording
	default:
		return nil
	}

	status := <-permissions.Request(ctx, capability)
	log.Info("qrscan: permission", "capability", capability.String(), "status", status.String())
	if status != permissions.Granted {
		return fmt.Errorf("%s permission %s", capability, status)
	}
	return nil
}

func openSource(cfg *config.Config, log *slog.Logger) (capture.Source, func(), error) {
	switch cfg.Camera.Source {
	case config.SourceScreen:
		src, err := capture.NewScreenSource(cfg.Camera.FPS)
		return src, func() {}, err
	case config.SourceRemote:
		src, err := capture.NewRemoteSource(capture.RemoteOptions{
			SignalingURL: cfg.Signaling.URL,
			ClientID:     cfg.Signaling.ID,
			Logger:       log,
		})
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	default:
		specs := make([]opencv.DeviceSpec, 0, len(cfg.Camera.Devices))
		for _, d := range cfg.Camera.Devices {
			specs = append(specs, opencv.DeviceSpec{Name: d.Name, URL: d.URL, FrontFacing: d.FrontFacing})
		}
		src, err := opencv.New(opencv.Options{
			Devices:     specs,
			MaxProbe:    cfg.Camera.MaxProbe,
			FrontFacing: cfg.Camera.FrontFacing,
			FPS:         cfg.Camera.FPS,
			Rotation:    cfg.Camera.Rotation,
			Logger:      log,
		})
		return src, func() {}, err
	}
}

func buildSinks(cfg *config.Config, log *slog.Logger) (sink.Multi, func(), error) {
	sinks := sink.Multi{sink.Log{Logger: log}}
	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.Sinks.OpenURL {
		opener := sink.NewURLOpener()
		sinks = append(sinks, sink.Func(func(ctx context.Context, text string) error {
			err := opener.OnDecoded(ctx, text)
			if errors.Is(err, sink.ErrNotURL) {
				return nil
			}
			return err
		}))
	}

	if cfg.Sinks.HistoryPath != "" {
		h, err := sink.OpenHistory(cfg.Sinks.HistoryPath, cfg.Signaling.ID)
		if err != nil {
			return nil, func() {}, err
		}
		sinks = append(sinks, h)
	}

	if cfg.Sinks.MQTT.Broker != "" {
		m, err := sink.NewMQTT(sink.MQTTOptions{
			Broker:   cfg.Sinks.MQTT.Broker,
			ClientID: cfg.Signaling.ID,
			Topic:    cfg.Sinks.MQTT.Topic,
			QoS:      cfg.Sinks.MQTT.QoS,
			Format:   cfg.Sinks.MQTT.Format,
			Source:   cfg.Signaling.ID,
			Logger:   log,
		})
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		sinks = append(sinks, m)
		closers = append(closers, m.Close)
	}

	return sinks, closeAll, nil
}
