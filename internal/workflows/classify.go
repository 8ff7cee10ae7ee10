package workflows

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"forum-reactor/internal/core"
	"forum-reactor/pkg/utils"
)

// removeMarker appears on the reaction control once the reaction is applied
const removeMarker = "remove"

func hasRemoveMarker(text string) bool {
	return strings.Contains(strings.ToLower(text), removeMarker)
}

// ButtonTextProbe looks for the marker in the text of every button
type ButtonTextProbe struct{}

func (ButtonTextProbe) Probe(ctx context.Context, doc core.DocumentReader) (core.PageState, error) {
	texts, err := doc.ButtonTexts(ctx)
	if err != nil {
		return core.StateNeedsReaction, err
	}
	for _, text := range texts {
		if hasRemoveMarker(text) {
			return core.StateHasReaction, nil
		}
	}
	return core.StateNeedsReaction, nil
}

// BodyTextProbe looks for the marker anywhere in the rendered body text
type BodyTextProbe struct{}

func (BodyTextProbe) Probe(ctx context.Context, doc core.DocumentReader) (core.PageState, error) {
	body, err := doc.BodyText(ctx)
	if err != nil {
		return core.StateNeedsReaction, err
	}
	if hasRemoveMarker(body) {
		return core.StateHasReaction, nil
	}
	return core.StateNeedsReaction, nil
}

// AnyProbe reports has-reaction when any of its probes does. A failing probe counts as no
// match; the failures are returned alongside the state.
type AnyProbe []core.PageStateProbe

func (a AnyProbe) Probe(ctx context.Context, doc core.DocumentReader) (core.PageState, error) {
	var errs []error
	for _, probe := range a {
		state, err := probe.Probe(ctx, doc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if state == core.StateHasReaction {
			return core.StateHasReaction, nil
		}
	}
	return core.StateNeedsReaction, errors.Join(errs...)
}

// DefaultProbe combines the button and body probes
func DefaultProbe() core.PageStateProbe {
	return AnyProbe{ButtonTextProbe{}, BodyTextProbe{}}
}

// Classifier waits for the page to settle and decides whether the reaction is applied
type Classifier struct {
	probe  core.PageStateProbe
	settle time.Duration
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewClassifier creates a new page state classifier
func NewClassifier(probe core.PageStateProbe, settle time.Duration, logger *zap.Logger) *Classifier {
	return &Classifier{
		probe:  probe,
		settle: settle,
		logger: logger,
		sleep:  utils.Sleep,
	}
}

// Classify never fails on probe errors; the only error it returns is a cancelled context
func (c *Classifier) Classify(ctx context.Context, doc core.DocumentReader) (core.PageState, error) {
	if err := c.sleep(ctx, c.settle); err != nil {
		return core.StateNeedsReaction, err
	}

	state, err := c.probe.Probe(ctx, doc)
	if err != nil {
		if ctx.Err() != nil {
			return core.StateNeedsReaction, ctx.Err()
		}
		c.logger.Warn("Page state probe failed, treating as no match", zap.Error(err))
	}
	return state, nil
}
