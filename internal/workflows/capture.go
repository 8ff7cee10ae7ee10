package workflows

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"forum-reactor/internal/core"
	"forum-reactor/pkg/utils"
)

// Capturer writes page markup to debug files
type Capturer struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewCapturer creates a capturer writing into dir
func NewCapturer(dir string, logger *zap.Logger) *Capturer {
	if dir == "" {
		dir = "."
	}
	return &Capturer{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// Capture saves the markup as debug-{step}-{timestamp}.html and returns the path. Errors
// are logged and yield an empty path.
func (c *Capturer) Capture(ctx context.Context, doc core.DocumentReader, step string) string {
	html, err := doc.HTML(ctx)
	if err != nil {
		c.logger.Warn("Failed to read page markup", zap.String("step", step), zap.Error(err))
		return ""
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.logger.Warn("Failed to create dump directory", zap.String("path", c.dir), zap.Error(err))
		return ""
	}

	path := filepath.Join(c.dir, utils.DebugFileName(step, c.now()))
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		c.logger.Warn("Failed to write page markup", zap.String("path", path), zap.Error(err))
		return ""
	}

	c.logger.Info("Saved page markup", zap.String("step", step), zap.String("path", path))
	return path
}
