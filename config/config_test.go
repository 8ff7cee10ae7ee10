package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "https://www.smogon.com/forums", cfg.Forum.BaseURL)
	assert.Equal(t, 1, cfg.Forum.ReactionID)
	assert.Equal(t, "login", cfg.Forum.LoginMarker)
	assert.Equal(t, "1236577762114801758", cfg.Discord.ChannelID)
	assert.Equal(t, 100, cfg.Discord.MessageLimit)
	assert.True(t, cfg.Discord.Bot)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 10*time.Second, cfg.Browser.ClickTimeout)
	assert.Equal(t, 3*time.Second, cfg.Browser.SettleDelay)
	assert.Equal(t, 5*time.Second, cfg.Engine.Cooldown())
	assert.False(t, cfg.Engine.SkipAlreadyReacted)
	assert.Equal(t, `button[type="submit"]`, cfg.Selectors.LoginSubmit)
	assert.Equal(t, "smogon-cookies.json", cfg.Session.CookiesPath)
	assert.Equal(t, "data/reactor.db", cfg.Database.Path)

	assert.Error(t, RequireDiscord(cfg), "token is not set")
}

func TestLoadLegacyEnvNames(t *testing.T) {
	t.Setenv("TOKEN", "abc")
	t.Setenv("SMOGON_USERNAME", "ash")
	t.Setenv("COOLDOWN_MS", "1500")
	t.Setenv("HEADLESS", "false")
	t.Setenv("SKIP_ALREADY_LIKED", "true")
	t.Setenv("MESSAGE_LIMIT", "250")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.Discord.Token)
	assert.False(t, cfg.Discord.Bot)
	assert.Equal(t, "ash", cfg.Credentials.Username)
	assert.Equal(t, 1500*time.Millisecond, cfg.Engine.Cooldown())
	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Engine.SkipAlreadyReacted)
	assert.Equal(t, 250, cfg.Discord.MessageLimit)
	assert.NoError(t, RequireDiscord(cfg))
}

func TestLoadPrefixedEnvWins(t *testing.T) {
	t.Setenv("COOLDOWN_MS", "1500")
	t.Setenv("REACTOR_BOT_ENGINE_COOLDOWN_MS", "2500")
	t.Setenv("REACTOR_BOT_FORUM_BASE_URL", "https://forum.example.com/community")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, 2500, cfg.Engine.CooldownMS)
	assert.Equal(t, "https://forum.example.com/community", cfg.Forum.BaseURL)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
forum:
  test_post_id: "42"
browser:
  navigation_timeout: 45s
engine:
  cooldown_ms: 8000
  run_self_tests: true
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "42", cfg.Forum.TestPostID)
	assert.Equal(t, 45*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 8000, cfg.Engine.CooldownMS)
	assert.True(t, cfg.Engine.RunSelfTests)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10*time.Second, cfg.Browser.ClickTimeout)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("SMOGON_PASSWORD=hunter2\nCHANNEL_ID=555\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SMOGON_PASSWORD")
		os.Unsetenv("CHANNEL_ID")
	})

	cfg, err := Load("", envPath)
	require.NoError(t, err)

	assert.Equal(t, "hunter2", cfg.Credentials.Password)
	assert.Equal(t, "555", cfg.Discord.ChannelID)
}

func TestLoadMissingFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := Load("", filepath.Join(dir, ".env"))
	assert.NoError(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"), "")
	assert.NoError(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("COOLDOWN_MS", "-1")

	_, err := Load("", "")
	assert.Error(t, err)
}

func TestLoadPrefixedTokenIsBotToken(t *testing.T) {
	t.Setenv("TOKEN", "user-token")
	t.Setenv("REACTOR_BOT_DISCORD_TOKEN", "bot-token")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "bot-token", cfg.Discord.Token)
	assert.True(t, cfg.Discord.Bot)
}

func TestLoadExplicitBotFlagWins(t *testing.T) {
	t.Setenv("TOKEN", "bot-token")
	t.Setenv("REACTOR_BOT_DISCORD_BOT", "true")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.True(t, cfg.Discord.Bot)
}

func TestLoadConfigFileTokenIsBotToken(t *testing.T) {
	t.Setenv("TOKEN", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("discord:\n  token: bot-token\n"), 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "bot-token", cfg.Discord.Token)
	assert.True(t, cfg.Discord.Bot)
}

func TestLoadZeroMessageLimitUsesDefault(t *testing.T) {
	t.Setenv("MESSAGE_LIMIT", "0")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Discord.MessageLimit)
}
