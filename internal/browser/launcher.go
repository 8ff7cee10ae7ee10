package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	rodstealth "github.com/go-rod/stealth"
	"go.uber.org/zap"

	"forum-reactor/internal/core"
	"forum-reactor/internal/stealth"
)

const (
	viewportWidth  = 1366
	viewportHeight = 900
)

// Launcher owns the browser process and hands out isolated sessions. The process is
// started lazily on the first Open and shared; every session gets its own incognito
// context, so no cookies or storage leak between attempts.
type Launcher struct {
	config  *core.BrowserConfig
	stealth *stealth.Stealth
	logger  *zap.Logger

	mu      sync.Mutex
	proc    *launcher.Launcher
	browser *rod.Browser
}

var _ core.SessionOpener = (*Launcher)(nil)

// NewLauncher creates a new launcher
func NewLauncher(cfg *core.BrowserConfig, stealthEngine *stealth.Stealth, logger *zap.Logger) *Launcher {
	return &Launcher{
		config:  cfg,
		stealth: stealthEngine,
		logger:  logger,
	}
}

// Open creates a fresh incognito context with one stealth page
func (l *Launcher) Open(ctx context.Context) (core.Session, error) {
	b, err := l.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	incognito, err := b.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create incognito context: %w", err)
	}

	page, err := rodstealth.Page(incognito)
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("failed to create stealth page: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		l.logger.Debug("Failed to set viewport", zap.Error(err))
	}

	l.logger.Debug("Browser session opened")
	return &Session{
		context: incognito,
		page:    page,
		stealth: l.stealth,
		logger:  l.logger,
		mouse:   stealth.Point{X: viewportWidth / 2, Y: viewportHeight / 2},
	}, nil
}

func (l *Launcher) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.browser != nil {
		return l.browser, nil
	}

	proc := launcher.New().
		Headless(l.config.Headless).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-setuid-sandbox")

	binPath := l.config.BinPath
	if binPath == "" {
		if path, has := launcher.LookPath(); has {
			binPath = path
		}
	}
	if binPath != "" {
		proc = proc.Bin(binPath)
	}

	controlURL, err := proc.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		proc.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	l.proc = proc
	l.browser = b
	l.logger.Info("Browser launched",
		zap.Bool("headless", l.config.Headless),
		zap.String("bin", binPath),
	)
	return b, nil
}

// Close shuts the browser process down
func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.browser == nil {
		return nil
	}

	err := l.browser.Close()
	l.proc.Cleanup()
	l.browser = nil
	l.proc = nil
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}

	l.logger.Info("Browser closed")
	return nil
}
