package sink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/browser"
)

// ErrNotURL is returned when a payload is not an openable URL.
var ErrNotURL = errors.New("sink: payload is not a URL")

// URLOpener opens decoded URLs in the user's browser.
type URLOpener struct {
	// Schemes allowed to open; http and https when empty.
	Schemes []string

	open func(string) error
}

// NewURLOpener creates an opener backed by the system browser.
func NewURLOpener(schemes ...string) *URLOpener {
	return &URLOpener{Schemes: schemes, open: browser.OpenURL}
}

func (o *URLOpener) OnDecoded(_ context.Context, text string) error {
	u, err := o.parse(text)
	if err != nil {
		return err
	}
	if err := o.open(u.String()); err != nil {
		return fmt.Errorf("open url: %w", err)
	}
	return nil
}

func (o *URLOpener) parse(text string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(text))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrNotURL, text)
	}
	schemes := o.Schemes
	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: scheme %q not allowed", ErrNotURL, u.Scheme)
}
