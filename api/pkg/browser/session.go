package browser

import (
	"context"
	"errors"

	"github.com/helixml/cookiegen/api/pkg/types"
)

var ErrReadOnly = errors.New("session is read-only")

// Session is the narrow set of primitives the auth flow needs from a running
// browser. It is driven by a single goroutine.
type Session interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	PageContent(ctx context.Context) (string, error)
	// Find returns every element matching the CSS selector, or none. A
	// selector that matches nothing is not an error.
	Find(ctx context.Context, selector string) ([]Element, error)
	// PressEnter sends the confirm key to the focused element
	PressEnter(ctx context.Context) error
	Cookies(ctx context.Context) ([]types.CookieRecord, error)
	Close() error
}

type Element interface {
	// SetValue clears the field and types text into it
	SetValue(ctx context.Context, text string) error
	Click(ctx context.Context) error
	Text(ctx context.Context) (string, error)
}
