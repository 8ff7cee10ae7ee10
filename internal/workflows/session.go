package workflows

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"forum-reactor/internal/core"
)

// bootstrap injects the saved cookies, opens the target and reports whether the forum
// redirected to its login page
func (e *Engine) bootstrap(ctx context.Context, session core.Session, target core.Target, logger *zap.Logger) (bool, error) {
	cookies, ok, err := e.cookies.Load()
	switch {
	case err != nil:
		logger.Warn("Failed to load cookies, continuing without them", zap.Error(err))
	case !ok:
		logger.Info("No saved cookies, starting with an empty session")
	default:
		if err := session.SetCookies(ctx, cookies); err != nil {
			logger.Warn("Failed to inject cookies", zap.Error(err))
		} else {
			logger.Debug("Cookies injected", zap.Int("count", len(cookies)))
		}
	}

	page := session.Page()
	if err := page.Navigate(ctx, target.ActionURL, e.config.Browser.NavigationTimeout); err != nil {
		return false, errors.Wrap(err, "failed to open post")
	}

	return e.onLoginPage(ctx, page)
}

func (e *Engine) onLoginPage(ctx context.Context, page core.Page) (bool, error) {
	url, err := page.CurrentURL(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to read current URL")
	}
	return strings.Contains(url, e.config.Forum.LoginMarker), nil
}
