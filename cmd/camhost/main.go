package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/junsooki/qrscan/internal/capture"
	"github.com/junsooki/qrscan/internal/capture/opencv"
	"github.com/junsooki/qrscan/internal/codec"
	"github.com/junsooki/qrscan/internal/config"
	"github.com/junsooki/qrscan/internal/logging"
	"github.com/junsooki/qrscan/internal/peer"
	"github.com/junsooki/qrscan/internal/permissions"
	"github.com/junsooki/qrscan/internal/signaling"
	"github.com/junsooki/qrscan/internal/transport"
)

func main() {
	cfg, err := config.ParseHostFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "camhost: %v\n", err)
		os.Exit(2)
	}
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "camhost: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg, log); err != nil {
		log.Error("camhost: exiting", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.HostConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("camhost: starting",
		"id", cfg.HostID,
		"signaling", cfg.SignalingURL,
		"device", cfg.Device,
		"fps", cfg.FPS,
		"quality", cfg.Quality,
		"gray", cfg.Grayscale,
	)

	if st := <-permissions.Request(ctx, permissions.Camera); st != permissions.Granted {
		return fmt.Errorf("camera permission %s", st)
	}

	src, err := opencv.New(opencv.Options{FPS: cfg.FPS, Rotation: cfg.Rotation, Logger: log})
	if err != nil {
		return err
	}
	cam, err := src.Open(cfg.Device, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer cam.Close()

	enc := codec.NewJPEGEncoder(cfg.Quality).Grayscale(cfg.Grayscale)

	// Peer manager (replaced on every offer).
	var (
		mu       sync.Mutex
		hostPeer *peer.Host
		sig      *signaling.Client
	)
	current := func() *peer.Host {
		mu.Lock()
		defer mu.Unlock()
		return hostPeer
	}

	sig = signaling.NewClient(signaling.Options{
		URL:        cfg.SignalingURL,
		ClientID:   cfg.HostID,
		ClientType: signaling.ClientTypeCamera,
		Camera: &signaling.CameraInfo{
			Name:        cfg.CameraName,
			FrontFacing: cfg.FrontFacing,
			Width:       cfg.Width,
			Height:      cfg.Height,
			Rotation:    cfg.Rotation,
		},
		Logger: log,
	}, signaling.Handler{
		OnRegistered: func() {
			log.Info("camhost: registered with signaling server")
		},
		OnOffer: func(from string, payload json.RawMessage) {
			log.Info("camhost: offer received", "scanner", from)
			p, err := peer.NewHost(sig, log)
			if err != nil {
				log.Warn("camhost: create host peer", "error", err)
				return
			}
			mu.Lock()
			prev := hostPeer
			hostPeer = p
			mu.Unlock()
			if prev != nil {
				prev.Close()
			}

			if err := p.HandleOffer(from, payload); err != nil {
				log.Warn("camhost: handle offer", "scanner", from, "error", err)
			}
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			if p := current(); p != nil {
				if err := p.HandleICECandidate(payload); err != nil {
					log.Warn("camhost: handle ICE candidate", "scanner", from, "error", err)
				}
			}
		},
		OnError: func(msg string) {
			log.Warn("camhost: signaling error", "message", msg)
		},
	})

	if err := sig.Connect(); err != nil {
		return fmt.Errorf("signaling connect: %w", err)
	}
	defer sig.Close()

	log.Info("camhost: ready, share this ID with scanners", "id", cfg.HostID)

	streamFrames(ctx, cam, enc, cfg.FPS, func() transport.FrameSender {
		if p := current(); p != nil {
			return p.Transport()
		}
		return nil
	}, log)

	log.Info("camhost: shutting down")
	if p := current(); p != nil {
		p.Close()
	}
	return nil
}

// streamFrames sends the camera's latest frame to the connected scanner at
// fps until ctx is done. Ticks without a connected scanner are skipped.
func streamFrames(ctx context.Context, cam capture.Camera, enc codec.Encoder, fps int, dest func() transport.FrameSender, log *slog.Logger) {
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var last *capture.Frame
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		t := dest()
		if t == nil {
			continue
		}
		frame, err := cam.Frame()
		if err != nil || frame == last {
			continue
		}
		last = frame

		data, err := enc.Encode(frame.Image)
		if err != nil {
			log.Warn("camhost: encode frame", "error", err)
			continue
		}
		if err := t.SendFrame(data); err != nil {
			log.Debug("camhost: send frame", "error", err)
		}
	}
}
