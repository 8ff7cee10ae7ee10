package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"forum-reactor/internal/core"
)

// EnvPrefix is the prefix of every environment override, e.g. REACTOR_BOT_ENGINE_COOLDOWN_MS
const EnvPrefix = "REACTOR_BOT"

const defaultMessageLimit = 100

// legacyEnv maps config keys to the short variable names older .env files use
var legacyEnv = map[string]string{
	"discord.token":               "TOKEN",
	"discord.channel_id":          "CHANNEL_ID",
	"discord.message_limit":       "MESSAGE_LIMIT",
	"credentials.username":        "SMOGON_USERNAME",
	"credentials.password":        "SMOGON_PASSWORD",
	"browser.headless":            "HEADLESS",
	"engine.cooldown_ms":          "COOLDOWN_MS",
	"engine.skip_already_reacted": "SKIP_ALREADY_LIKED",
	"engine.run_self_tests":       "RUN_TESTS",
}

// Load resolves configuration from defaults, an optional config file, a .env file and
// the environment, in increasing order of precedence
func Load(configPath, envFile string) (*core.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configPath != "" && errors.Is(err, fs.ErrNotExist)) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &core.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// The old TOKEN variable held a user token, so it is sent without the "Bot " prefix
	// unless discord.bot is set explicitly
	if !v.IsSet("discord.bot") {
		cfg.Discord.Bot = !legacyTokenOnly(v)
	}
	if cfg.Discord.MessageLimit == 0 {
		cfg.Discord.MessageLimit = defaultMessageLimit
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// legacyTokenOnly reports whether the token was resolved from TOKEN alone
func legacyTokenOnly(v *viper.Viper) bool {
	return os.Getenv(legacyEnv["discord.token"]) != "" &&
		os.Getenv(EnvPrefix+"_DISCORD_TOKEN") == "" &&
		!v.InConfig("discord.token")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Chat platform
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.channel_id", "1236577762114801758")
	v.SetDefault("discord.message_limit", defaultMessageLimit)

	// Forum credentials (should be set via env or .env)
	v.SetDefault("credentials.username", "")
	v.SetDefault("credentials.password", "")

	// Forum
	v.SetDefault("forum.base_url", "https://www.smogon.com/forums")
	v.SetDefault("forum.reaction_id", 1)
	v.SetDefault("forum.login_marker", "login")
	v.SetDefault("forum.test_post_id", "10687082")

	// Browser
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.bin_path", "")
	v.SetDefault("browser.navigation_timeout", 30*time.Second)
	v.SetDefault("browser.click_timeout", 10*time.Second)
	v.SetDefault("browser.settle_delay", 3*time.Second)

	// Engine
	v.SetDefault("engine.cooldown_ms", 5000)
	v.SetDefault("engine.skip_already_reacted", false)
	v.SetDefault("engine.run_self_tests", false)

	// Stealth
	v.SetDefault("stealth.typing_speed_min", 60)
	v.SetDefault("stealth.typing_speed_max", 120)
	v.SetDefault("stealth.typo_probability", 0.0)
	v.SetDefault("stealth.mouse_speed_min", 0.5)
	v.SetDefault("stealth.mouse_speed_max", 1.5)
	v.SetDefault("stealth.overshoot_chance", 0.2)

	// Login form selectors (XenForo)
	v.SetDefault("selectors.login_input", `input[name="login"]`)
	v.SetDefault("selectors.login_password", `input[name="password"]`)
	v.SetDefault("selectors.login_submit", `button[type="submit"]`)

	// Persisted state
	v.SetDefault("session.cookies_path", "smogon-cookies.json")
	v.SetDefault("debug.dump_dir", ".")
	v.SetDefault("database.path", "data/reactor.db")

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// validateConfig validates the fields every command depends on
func validateConfig(cfg *core.Config) error {
	if cfg.Forum.BaseURL == "" {
		return fmt.Errorf("forum.base_url is required")
	}
	if cfg.Forum.LoginMarker == "" {
		return fmt.Errorf("forum.login_marker is required")
	}
	if cfg.Engine.CooldownMS < 0 {
		return fmt.Errorf("engine.cooldown_ms must not be negative")
	}
	if cfg.Browser.NavigationTimeout <= 0 || cfg.Browser.ClickTimeout <= 0 {
		return fmt.Errorf("browser timeouts must be positive")
	}
	if cfg.Session.CookiesPath == "" {
		return fmt.Errorf("session.cookies_path is required")
	}
	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// RequireDiscord checks the settings post discovery needs
func RequireDiscord(cfg *core.Config) error {
	if cfg.Discord.Token == "" {
		return fmt.Errorf("discord.token is required (set via config, %s_DISCORD_TOKEN or TOKEN)", EnvPrefix)
	}
	if cfg.Discord.ChannelID == "" {
		return fmt.Errorf("discord.channel_id is required")
	}
	if cfg.Discord.MessageLimit < 0 {
		return fmt.Errorf("discord.message_limit must not be negative")
	}
	return nil
}
