package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadParseError(t *testing.T) {
	path := writeConfig(t, "this is not toml = = =")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `tailscale_host = "box.tail.ts.net"`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.ClaudeCommand)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8899, cfg.Server.Port)
	assert.Equal(t, 15, cfg.Pushover.ContextLines)
	assert.Equal(t, 10, cfg.Pushover.MessageLines)
	assert.Equal(t, 50, cfg.Telegram.ContextLines)
	assert.Equal(t, 30, cfg.Telegram.MessageLines)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
claude_command = "claude --continue"

[server]
port = 9000

[pushover]
enabled = true
app_token = "tok"
user_key = "key"
message_lines = 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "claude --continue", cfg.ClaudeCommand)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Pushover.MessageLines)
	// Unset fields keep their defaults.
	assert.Equal(t, 15, cfg.Pushover.ContextLines)

	ok, reason := cfg.Pushover.Configured()
	assert.True(t, ok, reason)
}

func TestPushoverConfigured(t *testing.T) {
	tests := []struct {
		name   string
		cfg    PushoverConfig
		ok     bool
		reason string
	}{
		{"disabled", PushoverConfig{}, false, "disabled"},
		{"placeholder token", PushoverConfig{Enabled: true, AppToken: "YOUR_PUSHOVER_APP_TOKEN_HERE", UserKey: "k"}, false, "token"},
		{"placeholder user", PushoverConfig{Enabled: true, AppToken: "t", UserKey: "YOUR_PUSHOVER_USER_KEY_HERE"}, false, "user key"},
		{"empty token", PushoverConfig{Enabled: true, UserKey: "k"}, false, "token"},
		{"configured", PushoverConfig{Enabled: true, AppToken: "t", UserKey: "k"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := tt.cfg.Configured()
			assert.Equal(t, tt.ok, ok)
			if tt.reason != "" {
				assert.Contains(t, reason, tt.reason)
			}
		})
	}
}

func TestTelegramConfigured(t *testing.T) {
	ok, _ := TelegramConfig{Enabled: true, BotToken: "t", ChatID: "1"}.Configured()
	assert.True(t, ok)

	ok, reason := TelegramConfig{Enabled: true, BotToken: "YOUR_TELEGRAM_BOT_TOKEN_HERE", ChatID: "1"}.Configured()
	assert.False(t, ok)
	assert.Contains(t, reason, "token")

	ok, reason = TelegramConfig{Enabled: true, BotToken: "t"}.Configured()
	assert.False(t, ok)
	assert.Contains(t, reason, "chat ID")
}

func TestBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "http://localhost:8899", cfg.BaseURL())

	cfg.TailscaleHost = "box.tailnet.ts.net"
	assert.Equal(t, "http://box.tailnet.ts.net:8899", cfg.BaseURL())

	cfg.Server.Port = 9001
	assert.Equal(t, "http://box.tailnet.ts.net:9001", cfg.BaseURL())
}

func TestShortHost(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "", cfg.ShortHost())

	cfg.TailscaleHost = "box.tailnet.ts.net"
	assert.Equal(t, "box", cfg.ShortHost())

	cfg.TailscaleHost = "plainhost"
	assert.Equal(t, "plainhost", cfg.ShortHost())
}

func TestListenAddr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "0.0.0.0:8899", cfg.ListenAddr())
}
