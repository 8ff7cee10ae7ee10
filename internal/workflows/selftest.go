package workflows

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"forum-reactor/internal/core"
)

// StepResult is the result of one self test step
type StepResult struct {
	Step     int
	Name     string
	Passed   bool
	Detail   string
	DumpPath string
	Err      error
}

// SelfTest checks the whole attempt pipeline against a known post before any scanning
type SelfTest struct {
	engine *Engine
	target core.Target
	logger *zap.Logger
}

// NewSelfTest creates a self test against the configured test post
func NewSelfTest(engine *Engine, logger *zap.Logger) *SelfTest {
	return &SelfTest{
		engine: engine,
		target: core.NewTarget(engine.config.Forum, engine.config.Forum.TestPostID, "selftest"),
		logger: logger,
	}
}

type selfTestStep struct {
	name string
	run  func(ctx context.Context, session core.Session, out *core.Outcome, logger *zap.Logger) (string, error)
}

// Run executes the steps in order and stops at the first failure. The returned error
// wraps the failing step's error.
func (s *SelfTest) Run(ctx context.Context) ([]StepResult, error) {
	steps := []selfTestStep{
		{name: "page access", run: s.accessStep},
		{name: "action control detection", run: s.detectStep},
		{name: "reaction click", run: s.clickStep},
	}

	s.logger.Info("Running self tests", zap.String("post_id", s.target.PostID))

	var results []StepResult
	for i, step := range steps {
		n := i + 1
		logger := s.logger.With(zap.Int("step", n), zap.String("name", step.name))

		out := core.Outcome{Target: s.target}
		detail, err := s.runStep(ctx, n, step, &out, logger)

		result := StepResult{Step: n, Name: step.name, Passed: err == nil, Detail: detail, DumpPath: out.DumpPath, Err: err}
		results = append(results, result)

		if err != nil {
			logger.Error("Self test step failed", zap.String("dump", out.DumpPath), zap.Error(err))
			return results, errors.Wrapf(err, "self test step %d (%s) failed", n, step.name)
		}
		logger.Info("Self test step passed", zap.String("detail", detail))
	}

	s.logger.Info("All self tests passed")
	return results, nil
}

// runStep gives the step its own session, captures markup on failure and always closes
// the session and cools down
func (s *SelfTest) runStep(ctx context.Context, n int, step selfTestStep, out *core.Outcome, logger *zap.Logger) (string, error) {
	e := s.engine
	defer func() {
		if err := e.sleep(ctx, e.config.Engine.Cooldown()); err != nil {
			logger.Debug("Cooldown interrupted", zap.Error(err))
		}
	}()

	session, err := e.opener.Open(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to open browser session")
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("Failed to close browser session", zap.Error(err))
		}
	}()

	detail, err := step.run(ctx, session, out, logger)
	if err != nil && out.DumpPath == "" && core.KindOf(err) != core.KindCancelled {
		out.DumpPath = e.capture(ctx, session.Page(), fmt.Sprintf("selftest-step%d", n))
	}
	return detail, err
}

func (s *SelfTest) accessStep(ctx context.Context, session core.Session, out *core.Outcome, logger *zap.Logger) (string, error) {
	if err := s.engine.prepare(ctx, session, out, logger); err != nil {
		return "", err
	}

	state, err := s.engine.classifier.Classify(ctx, session.Page())
	if err != nil {
		return "", err
	}
	out.State = state
	return "state " + string(state), nil
}

func (s *SelfTest) detectStep(ctx context.Context, session core.Session, out *core.Outcome, logger *zap.Logger) (string, error) {
	if err := s.engine.prepare(ctx, session, out, logger); err != nil {
		return "", err
	}

	detections, err := s.engine.locator.Detect(ctx, session.Page())
	if err != nil {
		return "", err
	}

	found := false
	parts := make([]string, 0, len(detections))
	for _, d := range detections {
		parts = append(parts, fmt.Sprintf("%s=%t", d.Candidate.Description, d.Present))
		found = found || d.Present
	}
	detail := strings.Join(parts, " ")
	if !found {
		return detail, errors.Wrap(core.ErrActionControlNotFound, detail)
	}
	return detail, nil
}

func (s *SelfTest) clickStep(ctx context.Context, session core.Session, out *core.Outcome, logger *zap.Logger) (string, error) {
	e := s.engine
	if err := e.prepare(ctx, session, out, logger); err != nil {
		return "", err
	}

	state, err := e.classifier.Classify(ctx, session.Page())
	if err != nil {
		return "", err
	}
	out.State = state
	if state == core.StateHasReaction && e.config.Engine.SkipAlreadyReacted {
		return "skipped, reaction already present", nil
	}

	candidate, err := e.locator.Locate(ctx, session.Page())
	if err != nil {
		return "", err
	}
	if err := e.execute(ctx, session.Page(), candidate, out, logger); err != nil {
		return "", err
	}

	if out.NavStatus == 0 {
		return fmt.Sprintf("clicked %s, no navigation", candidate.Description), nil
	}
	return fmt.Sprintf("clicked %s, status %d", candidate.Description, out.NavStatus), nil
}
