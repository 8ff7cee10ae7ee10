package workflows

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"forum-reactor/internal/core"
)

// execute clicks the located control and inspects the navigation it triggers. A click
// that does not navigate is not a failure.
func (e *Engine) execute(ctx context.Context, page core.Page, candidate ActionCandidate, out *core.Outcome, logger *zap.Logger) error {
	resp, err := page.Click(ctx, candidate.Selector, e.config.Browser.ClickTimeout)
	if err != nil {
		if errors.Is(err, core.ErrNoNavigation) && ctx.Err() == nil {
			logger.Warn("No navigation after click", zap.String("selector", candidate.Selector))
			return nil
		}
		return errors.Wrapf(err, "failed to click %s control", candidate.Description)
	}

	out.NavStatus = resp.Status
	switch {
	case resp.Status == http.StatusBadGateway:
		cooldown := e.config.Engine.Cooldown()
		logger.Warn("Forum returned 502, cooling down",
			zap.String("url", resp.URL),
			zap.Duration("cooldown", cooldown),
		)
		out.GatewayCooldown = true
		if err := e.sleep(ctx, cooldown); err != nil {
			return err
		}
	case !resp.OK():
		logger.Warn("Unexpected response after click",
			zap.Int("status", resp.Status),
			zap.String("url", resp.URL),
		)
	default:
		logger.Info("Reaction submitted",
			zap.Int("status", resp.Status),
			zap.String("url", resp.URL),
		)
	}
	return nil
}
