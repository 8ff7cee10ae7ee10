package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"forum-reactor/internal/core"
	"forum-reactor/internal/stealth"
)

const reactPage = `<!DOCTYPE html>
<html><body>
<iframe src="/frame"></iframe>
<form method="post" action="%s">
  <button class="button--primary" type="submit">React</button>
</form>
<button id="inert" type="button">Nothing</button>
</body></html>`

func newForumServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/gateway", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, reactPage, "/react-gateway")
	})
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, reactPage, "/react-ok")
	})
	mux.HandleFunc("/frame", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/react-gateway", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html><body>Bad gateway</body></html>")
	})
	mux.HandleFunc("/react-ok", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>Reacted</body></html>")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func openTestSession(t *testing.T) *Session {
	if testing.Short() {
		t.Skip("browser tests are skipped in short mode")
	}
	if _, has := launcher.LookPath(); !has {
		t.Skip("no browser binary found")
	}

	l := NewLauncher(&core.BrowserConfig{Headless: true}, stealth.NewStealth(&core.StealthConfig{
		TypingSpeedMin: 600,
		TypingSpeedMax: 600,
		MouseSpeedMin:  5,
		MouseSpeedMax:  5,
	}), zaptest.NewLogger(t))
	t.Cleanup(func() { _ = l.Close() })

	s, err := l.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s.(*Session)
}

func TestSessionClickReportsGatewayStatus(t *testing.T) {
	srv := newForumServer(t)
	s := openTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, srv.URL+"/gateway", 10*time.Second))

	resp, err := s.Click(ctx, "button.button--primary", 10*time.Second)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.Status)
	assert.Equal(t, srv.URL+"/react-gateway", resp.URL)
	assert.False(t, resp.OK())
}

func TestSessionClickReportsDocumentStatus(t *testing.T) {
	srv := newForumServer(t)
	s := openTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, srv.URL+"/ok", 10*time.Second))

	resp, err := s.Click(ctx, "button.button--primary", 10*time.Second)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, srv.URL+"/react-ok", resp.URL)

	body, err := s.BodyText(ctx)
	require.NoError(t, err)
	assert.Contains(t, body, "Reacted")
}

func TestSessionClickWithoutNavigation(t *testing.T) {
	srv := newForumServer(t)
	s := openTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, srv.URL+"/ok", 10*time.Second))

	_, err := s.Click(ctx, "#inert", time.Second)

	assert.ErrorIs(t, err, core.ErrNoNavigation)
}

func TestSessionNavigateFailure(t *testing.T) {
	s := openTestSession(t)

	err := s.Navigate(context.Background(), "http://127.0.0.1:1/", 5*time.Second)

	assert.ErrorIs(t, err, core.ErrNavigation)
}
