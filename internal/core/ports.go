package core

import (
	"context"
	"time"
)

// DocumentReader is the read-only view of a rendered page. It is implemented by the live
// browser page and by offline HTML snapshots.
type DocumentReader interface {
	// ElementExists checks for a matching element without waiting
	ElementExists(ctx context.Context, selector string) (bool, error)

	// ButtonTexts returns the visible text of every button element
	ButtonTexts(ctx context.Context) ([]string, error)

	// BodyText returns the rendered text of the document body
	BodyText(ctx context.Context) (string, error)

	// HTML returns the current markup
	HTML(ctx context.Context) (string, error)
}

// Page is the single tab an attempt drives
type Page interface {
	DocumentReader

	// Navigate loads url and waits for the network to settle, bounded by timeout.
	// Failures wrap ErrNavigation.
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// CurrentURL returns the URL the tab is on
	CurrentURL(ctx context.Context) (string, error)

	// Type enters text into the element matching selector
	Type(ctx context.Context, selector, text string) error

	// Click clicks the element matching selector and waits up to timeout for the document
	// navigation it triggers. When nothing navigates the error wraps ErrNoNavigation.
	Click(ctx context.Context, selector string, timeout time.Duration) (*NavigationResponse, error)
}

// Session is an isolated browser context holding one page. It is owned by exactly one
// attempt and closed at the end of it.
type Session interface {
	Page() Page

	// SetCookies injects cookies before the first navigation
	SetCookies(ctx context.Context, cookies []Cookie) error

	// Cookies returns the cookies the context currently holds
	Cookies(ctx context.Context) ([]Cookie, error)

	// Close disposes the context and its page
	Close() error
}

// SessionOpener creates fresh isolated sessions
type SessionOpener interface {
	Open(ctx context.Context) (Session, error)
}

// CookieStore persists the cookie set between runs
type CookieStore interface {
	// Load returns the stored cookies; ok is false when nothing is stored yet
	Load() (cookies []Cookie, ok bool, err error)

	// Save replaces the stored set
	Save(cookies []Cookie) error
}

// PageStateProbe decides whether the reaction is already applied
type PageStateProbe interface {
	Probe(ctx context.Context, doc DocumentReader) (PageState, error)
}

// RepositoryPort defines the attempt ledger
type RepositoryPort interface {
	RecordAttempt(ctx context.Context, attempt *Attempt) error
	RecentAttempts(ctx context.Context, limit int) ([]*Attempt, error)
	CountByOutcome(ctx context.Context, since time.Time) (map[string]int64, error)
	Migrate(ctx context.Context) error
	Close() error
}
