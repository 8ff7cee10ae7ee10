package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTimestamp(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 20, 30, 123_000_000, time.FixedZone("CST", 8*3600))

	assert.Equal(t, "2024-05-01T02-20-30-123Z", FileTimestamp(ts))
	assert.Equal(t, "debug-login-2024-05-01T02-20-30-123Z.html", DebugFileName("login", ts))
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Hour)

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleepZero(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), 0))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}
