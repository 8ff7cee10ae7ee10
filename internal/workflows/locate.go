package workflows

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"forum-reactor/internal/core"
)

// ActionCandidate is one way of finding the reaction control
type ActionCandidate struct {
	Description string
	Selector    string
}

// DefaultActionCandidates in priority order
var DefaultActionCandidates = []ActionCandidate{
	{Description: "icon-confirm", Selector: "button.button--icon--confirm"},
	{Description: "primary", Selector: "button.button--primary"},
	{Description: "submit", Selector: `button[type="submit"]`},
}

// Detection is the presence of one candidate on a page
type Detection struct {
	Candidate ActionCandidate
	Present   bool
}

// Locator finds the reaction control on a loaded page
type Locator struct {
	candidates []ActionCandidate
	logger     *zap.Logger
}

// NewLocator creates a new locator. Candidates are tried in the given order.
func NewLocator(candidates []ActionCandidate, logger *zap.Logger) *Locator {
	return &Locator{
		candidates: candidates,
		logger:     logger,
	}
}

// Locate returns the first candidate present on the page
func (l *Locator) Locate(ctx context.Context, doc core.DocumentReader) (ActionCandidate, error) {
	for _, candidate := range l.candidates {
		present, err := l.present(ctx, doc, candidate)
		if err != nil {
			return ActionCandidate{}, err
		}
		if present {
			l.logger.Info("Action control found",
				zap.String("candidate", candidate.Description),
				zap.String("selector", candidate.Selector),
			)
			return candidate, nil
		}
	}
	return ActionCandidate{}, errors.Wrapf(core.ErrActionControlNotFound, "tried %d selectors", len(l.candidates))
}

// Detect checks every candidate, for diagnostics
func (l *Locator) Detect(ctx context.Context, doc core.DocumentReader) ([]Detection, error) {
	detections := make([]Detection, 0, len(l.candidates))
	for _, candidate := range l.candidates {
		present, err := l.present(ctx, doc, candidate)
		if err != nil {
			return nil, err
		}
		detections = append(detections, Detection{Candidate: candidate, Present: present})
	}
	return detections, nil
}

// present treats query errors as absence unless the context is done
func (l *Locator) present(ctx context.Context, doc core.DocumentReader, candidate ActionCandidate) (bool, error) {
	present, err := doc.ElementExists(ctx, candidate.Selector)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		l.logger.Warn("Selector query failed",
			zap.String("selector", candidate.Selector),
			zap.Error(err),
		)
		return false, nil
	}
	l.logger.Debug("Tried action selector",
		zap.String("candidate", candidate.Description),
		zap.String("selector", candidate.Selector),
		zap.Bool("present", present),
	)
	return present, nil
}
