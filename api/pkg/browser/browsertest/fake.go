// Package browsertest provides a scripted in-memory browser.Session for
// exercising the auth flow without Chrome.
package browsertest

import (
	"context"
	"sync"

	"github.com/helixml/cookiegen/api/pkg/browser"
	"github.com/helixml/cookiegen/api/pkg/types"
)

type Page struct {
	URL  string
	HTML string
}

// Session serves whatever page is current through a goquery snapshot and
// records every mutation. Transitions are scripted with the On* hooks, which
// run synchronously from the action that triggers them.
type Session struct {
	mu      sync.Mutex
	current Page
	snap    *browser.Snapshot

	// Routes maps a navigated URL to the page served afterwards. Unknown URLs
	// load an empty document at that URL.
	Routes map[string]Page

	OnNavigate func(s *Session, url string)
	OnClick    func(s *Session, selector string)
	OnEnter    func(s *Session)

	// ReadErr, when set, fails every read primitive
	ReadErr  error
	ClickErr error

	Jar []types.CookieRecord

	Values      map[string][]string
	Clicks      []string
	Enters      int
	Navigations []string
	Closed      int
}

func NewSession(start Page) *Session {
	s := &Session{
		Routes: map[string]Page{},
		Values: map[string][]string{},
	}
	s.SetPage(start)
	return s
}

// SetPage replaces the current document.
func (s *Session) SetPage(p Page) {
	snap, err := browser.NewSnapshot(p.URL, p.HTML)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = p
	s.snap = snap
}

func (s *Session) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Written returns every value written through fields found by selector.
func (s *Session) Written(selector string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Values[selector]...)
}

// AllWritten returns every value written to any field.
func (s *Session) AllWritten() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []string
	for _, v := range s.Values {
		all = append(all, v...)
	}
	return all
}

func (s *Session) snapshot() *browser.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Session) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	s.Navigations = append(s.Navigations, url)
	hook := s.OnNavigate
	page, ok := s.Routes[url]
	s.mu.Unlock()

	if hook != nil {
		hook(s, url)
		return nil
	}
	if !ok {
		page = Page{URL: url}
	}
	s.SetPage(page)
	return nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	if s.ReadErr != nil {
		return "", s.ReadErr
	}
	return s.snapshot().CurrentURL(ctx)
}

func (s *Session) PageContent(ctx context.Context) (string, error) {
	if s.ReadErr != nil {
		return "", s.ReadErr
	}
	return s.snapshot().PageContent(ctx)
}

func (s *Session) Find(ctx context.Context, selector string) ([]browser.Element, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	found, err := s.snapshot().Find(ctx, selector)
	if err != nil {
		return nil, err
	}
	els := make([]browser.Element, 0, len(found))
	for _, el := range found {
		els = append(els, &element{session: s, selector: selector, inner: el})
	}
	return els, nil
}

func (s *Session) PressEnter(context.Context) error {
	s.mu.Lock()
	s.Enters++
	hook := s.OnEnter
	s.mu.Unlock()
	if hook != nil {
		hook(s)
	}
	return nil
}

func (s *Session) Cookies(context.Context) ([]types.CookieRecord, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.CookieRecord(nil), s.Jar...), nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed++
	return nil
}

type element struct {
	session  *Session
	selector string
	inner    browser.Element
}

func (e *element) SetValue(_ context.Context, text string) error {
	e.session.mu.Lock()
	defer e.session.mu.Unlock()
	e.session.Values[e.selector] = append(e.session.Values[e.selector], text)
	return nil
}

func (e *element) Click(context.Context) error {
	s := e.session
	if s.ClickErr != nil {
		return s.ClickErr
	}
	s.mu.Lock()
	s.Clicks = append(s.Clicks, e.selector)
	hook := s.OnClick
	s.mu.Unlock()
	if hook != nil {
		hook(s, e.selector)
	}
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	return e.inner.Text(ctx)
}
