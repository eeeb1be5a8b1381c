package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the TOML config file for user settings.
const ConfigFileName = "config.toml"

// Placeholder values shipped in the example config. Credentials that still
// hold one of these are treated as unconfigured, not as an error.
const (
	placeholderPushoverToken = "YOUR_PUSHOVER_APP_TOKEN_HERE"
	placeholderPushoverUser  = "YOUR_PUSHOVER_USER_KEY_HERE"
	placeholderTelegramToken = "YOUR_TELEGRAM_BOT_TOKEN_HERE"
	placeholderTelegramChat  = "YOUR_TELEGRAM_CHAT_ID_HERE"
)

// Config is the user-facing configuration in TOML format.
type Config struct {
	// TailscaleHost is the hostname used in deep links back to the web UI.
	// Empty means links point at localhost.
	TailscaleHost string `toml:"tailscale_host"`

	// ClaudeCommand is the command launched by /new in a fresh tmux window.
	ClaudeCommand string `toml:"claude_command"`

	// Server defines the web control server bind address.
	Server ServerConfig `toml:"server"`

	// Pushover defines the Pushover notification channel.
	Pushover PushoverConfig `toml:"pushover"`

	// Telegram defines the Telegram bot channel (notifications + listener).
	Telegram TelegramConfig `toml:"telegram"`

	// Logs defines debug log settings.
	Logs LogConfig `toml:"logs"`
}

// ServerConfig defines where the web control server listens.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PushoverConfig defines the Pushover channel.
type PushoverConfig struct {
	Enabled  bool   `toml:"enabled"`
	AppToken string `toml:"app_token"`
	UserKey  string `toml:"user_key"`

	// ContextLines is how many lines to capture from the pane.
	ContextLines int `toml:"context_lines"`

	// MessageLines is how many non-empty lines to keep in the body.
	MessageLines int `toml:"message_lines"`
}

// TelegramConfig defines the Telegram channel.
type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`

	ContextLines int `toml:"context_lines"`
	MessageLines int `toml:"message_lines"`
}

// LogConfig defines debug logging settings.
type LogConfig struct {
	// Level sets the minimum log level: "debug", "info", "warn", "error"
	Level string `toml:"level"`

	// Format sets the log format: "json" (default) or "text"
	Format string `toml:"format"`
}

// DefaultConfig returns the built-in defaults applied before decoding.
func DefaultConfig() *Config {
	return &Config{
		ClaudeCommand: "claude",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8899,
		},
		Pushover: PushoverConfig{
			ContextLines: 15,
			MessageLines: 10,
		},
		Telegram: TelegramConfig{
			ContextLines: 50,
			MessageLines: 30,
		},
	}
}

// Load reads the config file at path. A missing or unparseable file is an
// error: one-shot dispatchers treat this as their only fatal condition.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %s (copy config.toml.example and edit it)", path)
	}

	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config parse error: %w", err)
	}
	return cfg, nil
}

// DefaultPath returns ~/.claude-remote-ui/config.toml, falling back to the
// working directory when the home directory cannot be resolved.
func DefaultPath() string {
	return filepath.Join(Dir(), ConfigFileName)
}

// Dir returns the data directory holding config, state files, and logs.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claude-remote-ui"
	}
	return filepath.Join(home, ".claude-remote-ui")
}

// Configured reports whether Pushover credentials are usable: enabled with
// real (non-placeholder) token and user key.
func (p PushoverConfig) Configured() (bool, string) {
	if !p.Enabled {
		return false, "pushover notifications disabled in config"
	}
	if p.AppToken == "" || p.AppToken == placeholderPushoverToken {
		return false, "pushover app token not configured"
	}
	if p.UserKey == "" || p.UserKey == placeholderPushoverUser {
		return false, "pushover user key not configured"
	}
	return true, ""
}

// Configured reports whether Telegram credentials are usable.
func (t TelegramConfig) Configured() (bool, string) {
	if !t.Enabled {
		return false, "telegram notifications disabled in config"
	}
	if t.BotToken == "" || t.BotToken == placeholderTelegramToken {
		return false, "telegram bot token not configured"
	}
	if t.ChatID == "" || t.ChatID == placeholderTelegramChat {
		return false, "telegram chat ID not configured"
	}
	return true, ""
}

// BaseURL builds the externally reachable root URL of the web control
// server: the tailscale host when configured, localhost otherwise.
func (c *Config) BaseURL() string {
	host := strings.TrimSpace(c.TailscaleHost)
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Server.Port)
}

// ShortHost returns the first label of the tailscale host, used in Telegram
// notification titles. Empty when no tailscale host is configured.
func (c *Config) ShortHost() string {
	host := strings.TrimSpace(c.TailscaleHost)
	if host == "" {
		return ""
	}
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}

// ListenAddr returns the host:port bind address for the web server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
