package workflows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"forum-reactor/internal/core"
)

const (
	testBaseURL  = "https://www.smogon.com/forums"
	testLoginURL = testBaseURL + "/login/?_xfRedirect=x"
)

func testConfig(t *testing.T) *core.Config {
	cfg := &core.Config{}
	cfg.Credentials.Username = "user"
	cfg.Credentials.Password = "secret"
	cfg.Forum = core.ForumConfig{
		BaseURL:     testBaseURL,
		ReactionID:  1,
		LoginMarker: "login",
		TestPostID:  "10687082",
	}
	cfg.Browser = core.BrowserConfig{
		NavigationTimeout: 30 * time.Second,
		ClickTimeout:      10 * time.Second,
		SettleDelay:       3 * time.Second,
	}
	cfg.Engine = core.EngineConfig{CooldownMS: 5000}
	cfg.Selectors = core.SelectorsConfig{
		LoginInput:    `input[name="login"]`,
		LoginPassword: `input[name="password"]`,
		LoginSubmit:   `button[type="submit"]`,
	}
	cfg.Debug.DumpDir = t.TempDir()
	return cfg
}

// fakePage is a scripted forum tab. Every interaction is appended to calls.
type fakePage struct {
	mu sync.Mutex

	requireLogin bool // Redirect to the login page until the form is submitted
	rejectLogin  bool
	loginSubmit  string
	loggedIn     bool

	url       string
	elements  map[string]bool
	buttons   []string
	body      string
	html      string
	navErr    error
	clickResp *core.NavigationResponse
	clickErr  error

	calls []string
	typed map[string]string
}

func newFakePage() *fakePage {
	return &fakePage{
		elements:    map[string]bool{},
		html:        "<html><body>post</body></html>",
		clickResp:   &core.NavigationResponse{Status: 200, URL: testBaseURL + "/threads/x.1/"},
		loginSubmit: `button[type="submit"]`,
		typed:       map[string]string{},
	}
}

func (p *fakePage) record(call string) {
	p.calls = append(p.calls, call)
}

func (p *fakePage) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("navigate:" + url)
	if p.navErr != nil {
		return p.navErr
	}
	if p.requireLogin && !p.loggedIn {
		p.url = testLoginURL
		return nil
	}
	p.url = url
	return nil
}

func (p *fakePage) CurrentURL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) ElementExists(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("exists:" + selector)
	return p.elements[selector], nil
}

func (p *fakePage) ButtonTexts(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("buttons")
	return p.buttons, nil
}

func (p *fakePage) BodyText(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("body")
	return p.body, nil
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html, nil
}

func (p *fakePage) Type(ctx context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("type:" + selector)
	p.typed[selector] = text
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string, timeout time.Duration) (*core.NavigationResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("click:" + selector)

	if p.requireLogin && !p.loggedIn && selector == p.loginSubmit {
		p.loggedIn = !p.rejectLogin
		return &core.NavigationResponse{Status: 200, URL: testBaseURL + "/"}, nil
	}
	if p.clickErr != nil {
		return nil, p.clickErr
	}
	return p.clickResp, nil
}

type fakeSession struct {
	page     *fakePage
	injected []core.Cookie
	cookies  []core.Cookie
	closed   bool
}

func (s *fakeSession) Page() core.Page { return s.page }

func (s *fakeSession) SetCookies(ctx context.Context, cookies []core.Cookie) error {
	s.injected = append(s.injected, cookies...)
	s.page.mu.Lock()
	s.page.record("set-cookies")
	if len(cookies) > 0 && s.page.requireLogin {
		s.page.loggedIn = true
	}
	s.page.mu.Unlock()
	return nil
}

func (s *fakeSession) Cookies(ctx context.Context) ([]core.Cookie, error) {
	return s.cookies, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	s.page.mu.Lock()
	s.page.record("close")
	s.page.mu.Unlock()
	return nil
}

// fakeOpener hands out sessions built by newPage
type fakeOpener struct {
	newPage  func() *fakePage
	cookies  []core.Cookie
	err      error
	sessions []*fakeSession
}

func (o *fakeOpener) Open(ctx context.Context) (core.Session, error) {
	if o.err != nil {
		return nil, o.err
	}
	s := &fakeSession{page: o.newPage(), cookies: o.cookies}
	o.sessions = append(o.sessions, s)
	return s, nil
}

func (o *fakeOpener) last() *fakeSession {
	return o.sessions[len(o.sessions)-1]
}

type fakeCookieStore struct {
	cookies []core.Cookie
	ok      bool
	saves   int
}

func (s *fakeCookieStore) Load() ([]core.Cookie, bool, error) {
	return s.cookies, s.ok, nil
}

func (s *fakeCookieStore) Save(cookies []core.Cookie) error {
	s.cookies = append([]core.Cookie(nil), cookies...)
	s.ok = true
	s.saves++
	return nil
}

// sleepRecorder replaces real sleeping in tests
type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) count(d time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sleeps {
		if s == d {
			n++
		}
	}
	return n
}

func newTestEngine(t *testing.T, cfg *core.Config, opener core.SessionOpener, store core.CookieStore) (*Engine, *sleepRecorder) {
	e := NewEngine(cfg, opener, store, zaptest.NewLogger(t))
	rec := &sleepRecorder{}
	e.sleep = rec.sleep
	e.classifier.sleep = rec.sleep

	id := 0
	e.newID = func() string {
		id++
		return fmt.Sprintf("attempt-%d", id)
	}
	return e, rec
}

func testTarget(cfg *core.Config) core.Target {
	return core.NewTarget(cfg.Forum, "987654", "msg-1")
}

var errBoom = errors.New("boom")
