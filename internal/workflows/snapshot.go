package workflows

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"forum-reactor/internal/core"
)

// Snapshot is an offline page parsed from saved markup, e.g. a debug dump
type Snapshot struct {
	doc *goquery.Document
	raw string
}

var _ core.DocumentReader = (*Snapshot)(nil)

// NewSnapshot parses markup from r
func NewSnapshot(r io.Reader) (*Snapshot, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read markup: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}
	return &Snapshot{doc: doc, raw: string(raw)}, nil
}

// LoadSnapshot parses the markup file at path
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return NewSnapshot(f)
}

// ElementExists compiles the selector first so a malformed one is an error, not a panic
func (s *Snapshot) ElementExists(_ context.Context, selector string) (bool, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return false, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return s.doc.FindMatcher(matcher).Length() > 0, nil
}

func (s *Snapshot) ButtonTexts(_ context.Context) ([]string, error) {
	var texts []string
	s.doc.Find("button").Each(func(_ int, b *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(b.Text()))
	})
	return texts, nil
}

// BodyText approximates the rendered text: scripts and styles are dropped
func (s *Snapshot) BodyText(_ context.Context) (string, error) {
	body := s.doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	return strings.TrimSpace(body.Text()), nil
}

func (s *Snapshot) HTML(_ context.Context) (string, error) {
	return s.raw, nil
}
