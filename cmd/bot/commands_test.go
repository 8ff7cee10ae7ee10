package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"forum-reactor/internal/core"
	"forum-reactor/internal/workflows"
)

func TestPostIDPattern(t *testing.T) {
	assert.True(t, postIDPattern.MatchString("10687082"))
	assert.False(t, postIDPattern.MatchString("post-1"))
	assert.False(t, postIDPattern.MatchString(""))
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, &core.Outcome{
		Target:          core.Target{PostID: "42"},
		Kind:            core.OutcomeApplied,
		State:           core.StateNeedsReaction,
		Selector:        "button.button--primary",
		NavStatus:       502,
		GatewayCooldown: true,
	})

	out := buf.String()
	assert.Contains(t, out, "post 42: applied")
	assert.Contains(t, out, "selector: button.button--primary")
	assert.Contains(t, out, "status:   502")
	assert.Contains(t, out, "gateway cooldown applied")
	assert.NotContains(t, out, "error:")
}

func TestPrintStepResults(t *testing.T) {
	var buf bytes.Buffer
	printStepResults(&buf, []workflows.StepResult{
		{Step: 1, Name: "page access", Passed: true, Detail: "state needs-reaction"},
		{Step: 2, Name: "action control detection", Err: errors.New("no control"), DumpPath: "debug-selftest-step2-x.html"},
	})

	out := buf.String()
	assert.Contains(t, out, "step 1 page access")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "error: no control")
	assert.Contains(t, out, "dump:  debug-selftest-step2-x.html")
}
