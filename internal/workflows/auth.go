package workflows

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"forum-reactor/internal/core"
)

// login submits the credential form on the current page, persists the new session cookies
// and reopens the target
func (e *Engine) login(ctx context.Context, session core.Session, out *core.Outcome, logger *zap.Logger) error {
	page := session.Page()
	sel := e.config.Selectors

	// Check every control before typing anything
	for _, selector := range []string{sel.LoginInput, sel.LoginPassword, sel.LoginSubmit} {
		exists, err := page.ElementExists(ctx, selector)
		if err != nil {
			return errors.Wrapf(err, "failed to check login control %s", selector)
		}
		if !exists {
			logger.Error("Login form control not found", zap.String("selector", selector))
			out.DumpPath = e.capture(ctx, page, "login")
			return errors.Wrapf(core.ErrLoginFormMissing, "missing %s", selector)
		}
	}

	if err := page.Type(ctx, sel.LoginInput, e.config.Credentials.Username); err != nil {
		return errors.Wrap(err, "failed to type username")
	}
	if err := page.Type(ctx, sel.LoginPassword, e.config.Credentials.Password); err != nil {
		return errors.Wrap(err, "failed to type password")
	}

	resp, err := page.Click(ctx, sel.LoginSubmit, e.config.Browser.NavigationTimeout)
	if err != nil {
		return errors.Wrap(err, "login submit did not complete")
	}
	logger.Info("Login form submitted", zap.Int("status", resp.Status))

	cookies, err := session.Cookies(ctx)
	if err != nil {
		// The attempt can still go on with the live session
		logger.Warn("Failed to read session cookies", zap.Error(err))
	} else if err := e.cookies.Save(cookies); err != nil {
		logger.Warn("Failed to save cookies", zap.Error(err))
	} else {
		logger.Info("Session cookies saved", zap.Int("count", len(cookies)))
	}

	if err := page.Navigate(ctx, out.Target.ActionURL, e.config.Browser.NavigationTimeout); err != nil {
		return errors.Wrap(err, "failed to reopen post after login")
	}

	onLogin, err := e.onLoginPage(ctx, page)
	if err != nil {
		return err
	}
	if onLogin {
		return errors.Wrap(core.ErrLoginRejected, "check forum credentials")
	}

	logger.Info("Login successful")
	return nil
}
