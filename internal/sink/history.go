package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// History keeps every distinct decoded payload in a JSON file.
type History struct {
	path   string
	source string
	clock  func() time.Time

	mu      sync.Mutex
	records []Record
}

// OpenHistory loads the history file at path, creating its directory if
// needed. source tags new records (usually the device name).
func OpenHistory(path, source string) (*History, error) {
	if path == "" {
		return nil, errors.New("history path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}
	h := &History{path: path, source: source, clock: time.Now}
	if err := h.load(); err != nil {
		return nil, err
	}
	return h, nil
}

// OnDecoded appends text unless it is already recorded.
func (h *History) OnDecoded(_ context.Context, text string) error {
	_, err := h.Add(text)
	return err
}

// Add records text and reports whether it was new.
func (h *History) Add(text string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, r := range h.records {
		if r.Text == text {
			return false, nil
		}
	}
	h.records = append(h.records, Record{
		ID:        uuid.NewString(),
		Text:      text,
		Source:    h.source,
		DecodedAt: h.clock().UTC(),
	})
	if err := h.save(); err != nil {
		h.records = h.records[:len(h.records)-1]
		return false, err
	}
	return true, nil
}

// All returns a copy of the stored records, oldest first.
func (h *History) All() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Record(nil), h.records...)
}

// Clear removes every record and the backing file.
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (h *History) load() error {
	data, err := os.ReadFile(h.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &h.records); err != nil {
		return fmt.Errorf("parse history %s: %w", h.path, err)
	}
	return nil
}

func (h *History) save() error {
	data, err := json.MarshalIndent(h.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return os.Rename(tmp, h.path)
}
