package utils

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Sleep waits for d or until ctx is done, whichever comes first
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var timestampReplacer = strings.NewReplacer(":", "-", ".", "-")

// FileTimestamp renders t as a UTC ISO-8601 timestamp that is safe in file names,
// e.g. 2024-05-01T10-20-30-123Z
func FileTimestamp(t time.Time) string {
	return timestampReplacer.Replace(t.UTC().Format("2006-01-02T15:04:05.000")) + "Z"
}

// DebugFileName builds the dump file name for a failed step
func DebugFileName(step string, t time.Time) string {
	return fmt.Sprintf("debug-%s-%s.html", step, FileTimestamp(t))
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%ds", seconds)
}
