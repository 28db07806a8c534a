// Package sink delivers decoded payloads to their destinations.
package sink

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Sink receives decoded text.
type Sink interface {
	OnDecoded(ctx context.Context, text string) error
}

// Func adapts a function to Sink.
type Func func(ctx context.Context, text string) error

func (f Func) OnDecoded(ctx context.Context, text string) error { return f(ctx, text) }

// Multi delivers to every sink in order and joins their errors.
type Multi []Sink

func (m Multi) OnDecoded(ctx context.Context, text string) error {
	var errs []error
	for _, s := range m {
		if err := s.OnDecoded(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log records every payload with the given logger.
type Log struct {
	Logger *slog.Logger
}

func (l Log) OnDecoded(_ context.Context, text string) error {
	log := l.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("sink: decoded", "text", text)
	return nil
}

// Record is one decoded payload as stored or published.
type Record struct {
	ID        string    `json:"id" msgpack:"id"`
	Text      string    `json:"text" msgpack:"text"`
	Source    string    `json:"source,omitempty" msgpack:"source,omitempty"`
	DecodedAt time.Time `json:"decoded_at" msgpack:"decoded_at"`
}
