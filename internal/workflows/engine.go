package workflows

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"forum-reactor/internal/core"
	"forum-reactor/pkg/utils"
)

// captureTimeout bounds the markup dump taken after a failure, which may run after the
// attempt context has been cancelled
const captureTimeout = 10 * time.Second

// Engine runs reaction attempts, one isolated browser session per target
type Engine struct {
	config     *core.Config
	opener     core.SessionOpener
	cookies    core.CookieStore
	classifier *Classifier
	locator    *Locator
	capturer   *Capturer
	logger     *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
	newID func() string
}

// NewEngine creates a new attempt engine
func NewEngine(
	config *core.Config,
	opener core.SessionOpener,
	cookies core.CookieStore,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		config:     config,
		opener:     opener,
		cookies:    cookies,
		classifier: NewClassifier(DefaultProbe(), config.Browser.SettleDelay, logger),
		locator:    NewLocator(DefaultActionCandidates, logger),
		capturer:   NewCapturer(config.Debug.DumpDir, logger),
		logger:     logger,
		sleep:      utils.Sleep,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Attempt processes one target. It never returns an error: every failure is recorded in
// the outcome, and the session is closed and the cooldown applied on every path.
func (e *Engine) Attempt(ctx context.Context, target core.Target) core.Outcome {
	out := core.Outcome{
		AttemptID: e.newID(),
		Target:    target,
		StartedAt: e.now(),
		Trail:     []core.Stage{core.StageInit},
	}
	logger := e.logger.With(
		zap.String("post_id", target.PostID),
		zap.String("attempt_id", out.AttemptID),
	)
	logger.Info("Processing post", zap.String("url", target.ActionURL))

	session, err := e.opener.Open(ctx)
	if err != nil {
		e.fail(ctx, &out, nil, errors.Wrap(err, "failed to open browser session"), logger)
	} else if err := e.process(ctx, session, &out, logger); err != nil {
		e.fail(ctx, &out, session.Page(), err, logger)
	}

	e.cleanup(ctx, session, &out, logger)
	return out
}

func (e *Engine) process(ctx context.Context, session core.Session, out *core.Outcome, logger *zap.Logger) error {
	if err := e.prepare(ctx, session, out, logger); err != nil {
		return err
	}
	page := session.Page()

	state, err := e.classifier.Classify(ctx, page)
	if err != nil {
		return err
	}
	out.State = state
	advance(out, core.StageClassified)
	logger.Info("Page classified", zap.String("state", string(state)))

	if state == core.StateHasReaction && e.config.Engine.SkipAlreadyReacted {
		logger.Info("Reaction already present, skipping")
		out.Kind = core.OutcomeSkipped
		advance(out, core.StageShortCircuitDone)
		return nil
	}

	candidate, err := e.locator.Locate(ctx, page)
	if err != nil {
		if errors.Is(err, core.ErrActionControlNotFound) {
			out.DumpPath = e.capture(ctx, page, "locate")
		}
		return err
	}
	out.Selector = candidate.Selector
	advance(out, core.StageActionLocated)

	if err := e.execute(ctx, page, candidate, out, logger); err != nil {
		return err
	}
	advance(out, core.StageExecuted)

	if state == core.StateHasReaction {
		out.Kind = core.OutcomeRemoved
	} else {
		out.Kind = core.OutcomeApplied
	}
	logger.Info("Post processed", zap.String("outcome", string(out.Kind)))
	return nil
}

// prepare walks a fresh session to an authenticated view of the target
func (e *Engine) prepare(ctx context.Context, session core.Session, out *core.Outcome, logger *zap.Logger) error {
	onLogin, err := e.bootstrap(ctx, session, out.Target, logger)
	if err != nil {
		return err
	}
	advance(out, core.StageSessionReady)

	if onLogin {
		logger.Info("Session not authenticated, logging in")
		if err := e.login(ctx, session, out, logger); err != nil {
			return err
		}
	}
	advance(out, core.StageAuthenticated)
	return nil
}

func (e *Engine) fail(ctx context.Context, out *core.Outcome, page core.Page, err error, logger *zap.Logger) {
	out.Kind = core.OutcomeFailed
	out.Err = err
	out.ErrKind = core.KindOf(err)

	if page != nil && out.DumpPath == "" && out.ErrKind != core.KindCancelled {
		out.DumpPath = e.capture(ctx, page, "error")
	}

	logger.Error("Attempt failed",
		zap.String("kind", string(out.ErrKind)),
		zap.String("dump", out.DumpPath),
		zap.Error(err),
	)
}

func (e *Engine) cleanup(ctx context.Context, session core.Session, out *core.Outcome, logger *zap.Logger) {
	advance(out, core.StageCleanup)

	if session != nil {
		if err := session.Close(); err != nil {
			logger.Warn("Failed to close browser session", zap.Error(err))
		}
	}

	cooldown := e.config.Engine.Cooldown()
	logger.Debug("Cooling down", zap.Duration("cooldown", cooldown))
	if err := e.sleep(ctx, cooldown); err != nil {
		logger.Debug("Cooldown interrupted", zap.Error(err))
	}

	out.FinishedAt = e.now()
	advance(out, core.StageTerminal)
}

// capture dumps the page markup even when ctx is already cancelled
func (e *Engine) capture(ctx context.Context, doc core.DocumentReader, step string) string {
	captureCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
	defer cancel()
	return e.capturer.Capture(captureCtx, doc, step)
}

func advance(out *core.Outcome, stage core.Stage) {
	out.Trail = append(out.Trail, stage)
}
