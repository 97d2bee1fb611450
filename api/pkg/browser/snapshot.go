package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/helixml/cookiegen/api/pkg/types"
)

// Snapshot is a read-only Session over a saved page. It lets the classifier
// run against captured HTML without a browser.
type Snapshot struct {
	url  string
	html string
	doc  *goquery.Document
}

func NewSnapshot(url, html string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Snapshot{url: url, html: html, doc: doc}, nil
}

func (s *Snapshot) Navigate(context.Context, string) error {
	return ErrReadOnly
}

func (s *Snapshot) CurrentURL(context.Context) (string, error) {
	return s.url, nil
}

func (s *Snapshot) PageContent(context.Context) (string, error) {
	return s.html, nil
}

func (s *Snapshot) Find(_ context.Context, selector string) ([]Element, error) {
	var els []Element
	s.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		els = append(els, &SnapshotElement{Selection: sel})
	})
	return els, nil
}

func (s *Snapshot) PressEnter(context.Context) error {
	return ErrReadOnly
}

func (s *Snapshot) Cookies(context.Context) ([]types.CookieRecord, error) {
	return nil, nil
}

func (s *Snapshot) Close() error {
	return nil
}

type SnapshotElement struct {
	Selection *goquery.Selection
}

func (e *SnapshotElement) SetValue(context.Context, string) error {
	return ErrReadOnly
}

func (e *SnapshotElement) Click(context.Context) error {
	return ErrReadOnly
}

func (e *SnapshotElement) Text(context.Context) (string, error) {
	return strings.TrimSpace(e.Selection.Text()), nil
}
