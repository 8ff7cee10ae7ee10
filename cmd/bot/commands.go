package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"forum-reactor/config"
	"forum-reactor/internal/core"
	"forum-reactor/internal/discovery"
	"forum-reactor/internal/workflows"
)

var postIDPattern = regexp.MustCompile(`^\d+$`)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the optional self tests, then react to linked posts in the channel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.RequireDiscord(cfg); err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return runScan(cmd.Context(), a)
	},
}

var selfTestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Check login, control detection and clicking against the test post",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := workflows.NewSelfTest(a.engine, logger).Run(cmd.Context())
		printStepResults(cmd.OutOrStdout(), results)
		return err
	},
}

var reactCmd = &cobra.Command{
	Use:   "react <post-id>",
	Short: "Run a single attempt against one post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !postIDPattern.MatchString(args[0]) {
			return fmt.Errorf("invalid post id %q", args[0])
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		out := a.runner.Process(cmd.Context(), core.NewTarget(cfg.Forum, args[0], "manual"))
		printOutcome(cmd.OutOrStdout(), &out)
		if !out.Succeeded() {
			return fmt.Errorf("attempt failed: %w", out.Err)
		}
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <dump.html>",
	Short: "Classify a saved page dump and show which control would be clicked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := workflows.LoadSnapshot(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		state, err := workflows.NewClassifier(workflows.DefaultProbe(), 0, logger).Classify(ctx, snap)
		if err != nil {
			return err
		}

		locator := workflows.NewLocator(workflows.DefaultActionCandidates, logger)
		detections, err := locator.Detect(ctx, snap)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "state: %s\n", state)
		for _, d := range detections {
			fmt.Fprintf(w, "  %-13s %-40s present=%t\n", d.Candidate.Description, d.Candidate.Selector, d.Present)
		}

		candidate, err := locator.Locate(ctx, snap)
		switch {
		case errors.Is(err, core.ErrActionControlNotFound):
			fmt.Fprintln(w, "would click: nothing (no action control)")
		case err != nil:
			return err
		default:
			fmt.Fprintf(w, "would click: %s (%s)\n", candidate.Description, candidate.Selector)
		}
		return nil
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent attempts from the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		attempts, err := a.repo.RecentAttempts(ctx, historyLimit)
		if err != nil {
			return err
		}
		counts, err := a.repo.CountByOutcome(ctx, time.Now().Add(-24*time.Hour))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tPOST\tOUTCOME\tSTATE\tSTATUS\tERROR")
		for _, at := range attempts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				at.StartedAt.Local().Format(time.DateTime), at.PostID, at.Outcome, at.State, at.NavStatus, at.ErrorKind)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nlast 24h: applied=%d removed=%d skipped=%d failed=%d\n",
			counts[string(core.OutcomeApplied)],
			counts[string(core.OutcomeRemoved)],
			counts[string(core.OutcomeSkipped)],
			counts[string(core.OutcomeFailed)],
		)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of attempts to show")
}

// runScan runs the self tests when enabled, then feeds discovered posts to the runner
// until the context is cancelled
func runScan(ctx context.Context, a *app) error {
	if cfg.Engine.RunSelfTests {
		if _, err := workflows.NewSelfTest(a.engine, logger).Run(ctx); err != nil {
			return fmt.Errorf("self tests failed, not scanning: %w", err)
		}
	} else {
		logger.Info("Skipping self tests")
	}

	source, err := discovery.NewDiscordSource(cfg.Discord, logger)
	if err != nil {
		return err
	}
	if err := source.Open(); err != nil {
		return err
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Warn("Failed to close discord session", zap.Error(err))
		}
	}()

	links, err := discovery.NewLinkExtractor(cfg.Forum.BaseURL)
	if err != nil {
		return err
	}
	scanner := discovery.NewScanner(source, links, cfg.Forum, cfg.Discord.MessageLimit, logger)

	targets := make(chan core.Target)
	scanErr := make(chan error, 1)
	go func() {
		scanErr <- scanner.Run(ctx, targets)
	}()

	a.runner.Run(ctx, targets)

	if err := <-scanErr; err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func printStepResults(w io.Writer, results []workflows.StepResult) {
	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "step %d %-26s %s  %s\n", r.Step, r.Name, status, r.Detail)
		if r.Err != nil {
			fmt.Fprintf(w, "       error: %v\n", r.Err)
		}
		if r.DumpPath != "" {
			fmt.Fprintf(w, "       dump:  %s\n", r.DumpPath)
		}
	}
}

func printOutcome(w io.Writer, out *core.Outcome) {
	fmt.Fprintf(w, "post %s: %s\n", out.Target.PostID, out.Kind)
	if out.State != "" {
		fmt.Fprintf(w, "  state:    %s\n", out.State)
	}
	if out.Selector != "" {
		fmt.Fprintf(w, "  selector: %s\n", out.Selector)
	}
	if out.NavStatus != 0 {
		fmt.Fprintf(w, "  status:   %d\n", out.NavStatus)
	}
	if out.GatewayCooldown {
		fmt.Fprintln(w, "  gateway cooldown applied")
	}
	if out.Err != nil {
		fmt.Fprintf(w, "  error:    %s (%v)\n", out.ErrKind, out.Err)
	}
	if out.DumpPath != "" {
		fmt.Fprintf(w, "  dump:     %s\n", out.DumpPath)
	}
}
