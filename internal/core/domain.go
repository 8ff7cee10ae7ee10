package core

import (
	"fmt"
	"strings"
	"time"
)

// Target is one forum post selected for a reaction attempt
type Target struct {
	PostID    string `json:"post_id"`
	ActionURL string `json:"action_url"`
	Source    string `json:"source"` // Message ID, "manual" or "selftest"
}

// NewTarget builds the canonical react URL for a post
func NewTarget(forum ForumConfig, postID, source string) Target {
	base := strings.TrimRight(forum.BaseURL, "/")
	return Target{
		PostID:    postID,
		ActionURL: fmt.Sprintf("%s/posts/%s/react?reaction_id=%d", base, postID, forum.ReactionID),
		Source:    source,
	}
}

// Cookie is one persisted browser cookie. Field names follow the CDP/puppeteer JSON layout
// so cookie files exported from a browser can be dropped in unchanged.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"` // Unix seconds, <= 0 for session cookies
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// PageState says whether the reaction is already applied on the loaded page
type PageState string

const (
	StateNeedsReaction PageState = "needs-reaction"
	StateHasReaction   PageState = "has-reaction"
)

// NavigationResponse is the document response observed after a navigation
type NavigationResponse struct {
	Status     int    `json:"status"`
	StatusText string `json:"status_text"`
	URL        string `json:"url"`
}

// OK reports a 2xx status
func (r *NavigationResponse) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Stage is a state of the attempt state machine
type Stage string

const (
	StageInit             Stage = "init"
	StageSessionReady     Stage = "session-ready"
	StageAuthenticated    Stage = "authenticated"
	StageClassified       Stage = "classified"
	StageShortCircuitDone Stage = "short-circuit-done"
	StageActionLocated    Stage = "action-located"
	StageExecuted         Stage = "executed"
	StageCleanup          Stage = "cleanup"
	StageTerminal         Stage = "terminal"
)

// OutcomeKind is the final result class of one attempt
type OutcomeKind string

const (
	OutcomeApplied OutcomeKind = "applied"
	OutcomeRemoved OutcomeKind = "removed"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeFailed  OutcomeKind = "failed"
)

// Outcome is the result value of one attempt. Attempts never return errors; failures are
// carried here instead.
type Outcome struct {
	AttemptID       string
	Target          Target
	Kind            OutcomeKind
	State           PageState
	Selector        string
	NavStatus       int // 0 when the click did not navigate
	GatewayCooldown bool
	ErrKind         ErrorKind
	Err             error
	DumpPath        string
	Trail           []Stage
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Succeeded reports whether the attempt completed without a step failure
func (o *Outcome) Succeeded() bool {
	return o.Kind != OutcomeFailed
}

// Attempt is a ledger row for one processed target
type Attempt struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	PostID     string    `gorm:"index;not null" json:"post_id"`
	ActionURL  string    `gorm:"not null" json:"action_url"`
	Source     string    `json:"source"`
	State      string    `json:"state"`
	Outcome    string    `gorm:"index;not null" json:"outcome"`
	Selector   string    `json:"selector"`
	NavStatus  int       `json:"nav_status"`
	ErrorKind  string    `json:"error_kind"`
	Error      string    `gorm:"type:text" json:"error"`
	DumpPath   string    `json:"dump_path"`
	StartedAt  time.Time `gorm:"index;not null" json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// AttemptFromOutcome converts an outcome into its ledger row
func AttemptFromOutcome(o *Outcome) *Attempt {
	a := &Attempt{
		ID:         o.AttemptID,
		PostID:     o.Target.PostID,
		ActionURL:  o.Target.ActionURL,
		Source:     o.Target.Source,
		State:      string(o.State),
		Outcome:    string(o.Kind),
		Selector:   o.Selector,
		NavStatus:  o.NavStatus,
		ErrorKind:  string(o.ErrKind),
		DumpPath:   o.DumpPath,
		StartedAt:  o.StartedAt,
		FinishedAt: o.FinishedAt,
	}
	if o.Err != nil {
		a.Error = o.Err.Error()
	}
	return a
}

// DiscordConfig configures the chat platform used for post discovery
type DiscordConfig struct {
	Token        string `mapstructure:"token"`
	Bot          bool   `mapstructure:"bot"` // Prefix the token with "Bot "
	ChannelID    string `mapstructure:"channel_id"`
	MessageLimit int    `mapstructure:"message_limit"`
}

// ForumConfig describes the target forum
type ForumConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	ReactionID  int    `mapstructure:"reaction_id"`
	LoginMarker string `mapstructure:"login_marker"`
	TestPostID  string `mapstructure:"test_post_id"`
}

// BrowserConfig holds browser launch options and wait bounds
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"`
	BinPath           string        `mapstructure:"bin_path"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	ClickTimeout      time.Duration `mapstructure:"click_timeout"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
}

// EngineConfig holds attempt loop behaviour
type EngineConfig struct {
	CooldownMS         int  `mapstructure:"cooldown_ms"`
	SkipAlreadyReacted bool `mapstructure:"skip_already_reacted"`
	RunSelfTests       bool `mapstructure:"run_self_tests"`
}

// Cooldown returns the inter-attempt delay
func (e EngineConfig) Cooldown() time.Duration {
	return time.Duration(e.CooldownMS) * time.Millisecond
}

// StealthConfig holds humanization parameters
type StealthConfig struct {
	TypingSpeedMin  int     `mapstructure:"typing_speed_min"` // WPM minimum
	TypingSpeedMax  int     `mapstructure:"typing_speed_max"` // WPM maximum
	TypoProbability float64 `mapstructure:"typo_probability"`
	MouseSpeedMin   float64 `mapstructure:"mouse_speed_min"`
	MouseSpeedMax   float64 `mapstructure:"mouse_speed_max"`
	OvershootChance float64 `mapstructure:"overshoot_chance"`
}

// SelectorsConfig holds the login form selectors
type SelectorsConfig struct {
	LoginInput    string `mapstructure:"login_input"`
	LoginPassword string `mapstructure:"login_password"`
	LoginSubmit   string `mapstructure:"login_submit"`
}

// LogConfig configures the zap logger and its optional rotated file sink
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Config represents the application configuration
type Config struct {
	Credentials struct {
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"credentials"`

	Discord   DiscordConfig   `mapstructure:"discord"`
	Forum     ForumConfig     `mapstructure:"forum"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Stealth   StealthConfig   `mapstructure:"stealth"`
	Selectors SelectorsConfig `mapstructure:"selectors"`
	Log       LogConfig       `mapstructure:"log"`

	Session struct {
		CookiesPath string `mapstructure:"cookies_path"`
	} `mapstructure:"session"`

	Debug struct {
		DumpDir string `mapstructure:"dump_dir"`
	} `mapstructure:"debug"`

	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
}
