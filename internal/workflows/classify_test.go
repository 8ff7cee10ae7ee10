package workflows

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"forum-reactor/internal/core"
)

// stubDoc is a DocumentReader with fixed content and optional failures
type stubDoc struct {
	buttons    []string
	body       string
	buttonsErr error
	bodyErr    error
}

func (d stubDoc) ElementExists(context.Context, string) (bool, error) { return false, nil }
func (d stubDoc) ButtonTexts(context.Context) ([]string, error)       { return d.buttons, d.buttonsErr }
func (d stubDoc) BodyText(context.Context) (string, error)            { return d.body, d.bodyErr }
func (d stubDoc) HTML(context.Context) (string, error)                { return "", nil }

func TestProbes(t *testing.T) {
	tests := []struct {
		name     string
		probe    core.PageStateProbe
		doc      stubDoc
		expected core.PageState
		wantErr  bool
	}{
		{"button match", ButtonTextProbe{}, stubDoc{buttons: []string{"Like", "Remove"}}, core.StateHasReaction, false},
		{"button case insensitive", ButtonTextProbe{}, stubDoc{buttons: []string{"REMOVE LIKE"}}, core.StateHasReaction, false},
		{"button no match", ButtonTextProbe{}, stubDoc{buttons: []string{"Like", "Reply"}, body: "remove"}, core.StateNeedsReaction, false},
		{"body match", BodyTextProbe{}, stubDoc{body: "You can remove this reaction"}, core.StateHasReaction, false},
		{"body no match", BodyTextProbe{}, stubDoc{body: "Like this post"}, core.StateNeedsReaction, false},
		{"any button or body", DefaultProbe(), stubDoc{body: "Remove"}, core.StateHasReaction, false},
		{"any neither", DefaultProbe(), stubDoc{buttons: []string{"Like"}, body: "hello"}, core.StateNeedsReaction, false},
		{"any failing probe counts as no match", DefaultProbe(), stubDoc{buttonsErr: errBoom, body: "remove"}, core.StateHasReaction, false},
		{"any all failing", DefaultProbe(), stubDoc{buttonsErr: errBoom, bodyErr: errBoom}, core.StateNeedsReaction, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := tt.probe.Probe(context.Background(), tt.doc)
			if tt.wantErr {
				assert.ErrorIs(t, err, errBoom)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, state)
		})
	}
}

func TestClassifierSettlesAndSwallowsProbeErrors(t *testing.T) {
	c := NewClassifier(DefaultProbe(), 3*time.Second, zaptest.NewLogger(t))
	rec := &sleepRecorder{}
	c.sleep = rec.sleep

	state, err := c.Classify(context.Background(), stubDoc{buttonsErr: errBoom, bodyErr: errBoom})

	require.NoError(t, err)
	assert.Equal(t, core.StateNeedsReaction, state)
	assert.Equal(t, []time.Duration{3 * time.Second}, rec.sleeps)
}

func TestClassifierCancelled(t *testing.T) {
	c := NewClassifier(DefaultProbe(), time.Hour, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Classify(ctx, stubDoc{body: "remove"})

	assert.ErrorIs(t, err, context.Canceled)
}
