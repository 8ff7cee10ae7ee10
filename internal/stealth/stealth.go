package stealth

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"forum-reactor/internal/core"
	"forum-reactor/pkg/utils"
)

// Stealth coordinates the mouse, keyboard and jitter components for the browser layer
type Stealth struct {
	mu       sync.Mutex
	mouse    *Mouse
	keyboard *Keyboard
	jitter   *Jitter
	config   *core.StealthConfig
}

// NewStealth creates a new Stealth instance with the given configuration
func NewStealth(config *core.StealthConfig) *Stealth {
	return NewStealthWithSource(config, rand.NewSource(time.Now().UnixNano()))
}

// NewStealthWithSource is NewStealth with a fixed random source, used by tests
func NewStealthWithSource(config *core.StealthConfig, src rand.Source) *Stealth {
	rng := rand.New(src)
	return &Stealth{
		mouse:    NewMouse(config.MouseSpeedMin, config.MouseSpeedMax, config.OvershootChance, rng),
		keyboard: NewKeyboard(rng),
		jitter:   NewJitter(rng),
		config:   config,
	}
}

// TypingPlan returns the keyboard actions that type text at the configured speed
func (s *Stealth) TypingPlan(ctx context.Context, text string) ([]KeyAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyboard.Plan(ctx, text, s.config.TypingSpeedMin, s.config.TypingSpeedMax, s.config.TypoProbability)
}

// MousePath returns the cursor path between two viewport points
func (s *Stealth) MousePath(from, to Point) []Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mouse.Path(from, to)
}

// StepDelay returns the pause between two mouse move events (5-15ms)
func (s *Stealth) StepDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.jitter.Intn(5, 15)) * time.Millisecond
}

// Pause sleeps for a random duration between minSeconds and maxSeconds
func (s *Stealth) Pause(ctx context.Context, minSeconds, maxSeconds float64) {
	s.mu.Lock()
	d := s.jitter.Duration(minSeconds, maxSeconds)
	s.mu.Unlock()

	_ = utils.Sleep(ctx, d)
}
