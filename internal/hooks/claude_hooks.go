// Package hooks wires the notification dispatchers into Claude Code by
// editing its settings.json: Notification and Stop events invoke
// "claude-remote-ui notify <channel>" for each enabled channel.
package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// hookCommandPrefix identifies our entries inside settings.json so install
// and remove never touch hooks owned by the user or other tools.
const hookCommandPrefix = "claude-remote-ui notify"

// hookEvents are the Claude Code events that should trigger a notification:
// Notification fires when Claude needs attention, Stop when it finishes.
var hookEvents = []string{"Notification", "Stop"}

// hookEntry is a single hook command in Claude Code settings.
type hookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Async   bool   `json:"async,omitempty"`
}

// hookMatcher is a matcher block in Claude Code settings.
type hookMatcher struct {
	Matcher string      `json:"matcher,omitempty"`
	Hooks   []hookEntry `json:"hooks"`
}

func channelHook(channel string) hookEntry {
	return hookEntry{
		Type:    "command",
		Command: hookCommandPrefix + " " + channel,
		Async:   true,
	}
}

// ConfigDir returns the Claude Code config directory, honoring
// CLAUDE_CONFIG_DIR.
func ConfigDir() string {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claude"
	}
	return filepath.Join(home, ".claude")
}

// Install injects hook entries for the given channels into settings.json,
// preserving all existing settings and user hooks. Returns true if anything
// was newly installed.
func Install(configDir string, channels []string) (bool, error) {
	if len(channels) == 0 {
		return false, fmt.Errorf("no notification channels enabled in config")
	}

	settingsPath := filepath.Join(configDir, "settings.json")

	var rawSettings map[string]json.RawMessage
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return false, fmt.Errorf("read settings.json: %w", err)
		}
		rawSettings = make(map[string]json.RawMessage)
	} else {
		if err := json.Unmarshal(data, &rawSettings); err != nil {
			return false, fmt.Errorf("parse settings.json: %w", err)
		}
	}

	var existingHooks map[string]json.RawMessage
	if raw, ok := rawSettings["hooks"]; ok {
		if err := json.Unmarshal(raw, &existingHooks); err != nil {
			existingHooks = make(map[string]json.RawMessage)
		}
	}
	if existingHooks == nil {
		existingHooks = make(map[string]json.RawMessage)
	}

	installed := false
	for _, event := range hookEvents {
		merged, changed := mergeEvent(existingHooks[event], channels)
		if changed {
			existingHooks[event] = merged
			installed = true
		}
	}
	if !installed {
		return false, nil
	}

	hooksRaw, err := json.Marshal(existingHooks)
	if err != nil {
		return false, fmt.Errorf("marshal hooks: %w", err)
	}
	rawSettings["hooks"] = hooksRaw

	finalData, err := json.MarshalIndent(rawSettings, "", "  ")
	if err != nil {
		return false, fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}

	tmpPath := settingsPath + ".tmp"
	if err := os.WriteFile(tmpPath, finalData, 0o644); err != nil {
		return false, fmt.Errorf("write settings.json.tmp: %w", err)
	}
	if err := os.Rename(tmpPath, settingsPath); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("rename settings.json: %w", err)
	}

	return true, nil
}

// Remove strips all of our hook entries from settings.json. Returns true if
// anything was removed.
func Remove(configDir string) (bool, error) {
	settingsPath := filepath.Join(configDir, "settings.json")

	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read settings.json: %w", err)
	}

	var rawSettings map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawSettings); err != nil {
		return false, fmt.Errorf("parse settings.json: %w", err)
	}

	hooksRaw, ok := rawSettings["hooks"]
	if !ok {
		return false, nil
	}

	var existingHooks map[string]json.RawMessage
	if err := json.Unmarshal(hooksRaw, &existingHooks); err != nil {
		return false, nil
	}

	removed := false
	for _, event := range hookEvents {
		raw, ok := existingHooks[event]
		if !ok {
			continue
		}
		cleaned, didRemove := removeFromEvent(raw)
		if didRemove {
			removed = true
			if cleaned == nil {
				delete(existingHooks, event)
			} else {
				existingHooks[event] = cleaned
			}
		}
	}
	if !removed {
		return false, nil
	}

	if len(existingHooks) == 0 {
		delete(rawSettings, "hooks")
	} else {
		hooksData, _ := json.Marshal(existingHooks)
		rawSettings["hooks"] = hooksData
	}

	finalData, err := json.MarshalIndent(rawSettings, "", "  ")
	if err != nil {
		return false, fmt.Errorf("marshal settings: %w", err)
	}

	tmpPath := settingsPath + ".tmp"
	if err := os.WriteFile(tmpPath, finalData, 0o644); err != nil {
		return false, fmt.Errorf("write settings.json.tmp: %w", err)
	}
	if err := os.Rename(tmpPath, settingsPath); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("rename settings.json: %w", err)
	}

	return true, nil
}

// Installed reports whether every hook event carries at least one of our
// entries.
func Installed(configDir string) bool {
	data, err := os.ReadFile(filepath.Join(configDir, "settings.json"))
	if err != nil {
		return false
	}

	var rawSettings map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawSettings); err != nil {
		return false
	}
	hooksRaw, ok := rawSettings["hooks"]
	if !ok {
		return false
	}
	var existingHooks map[string]json.RawMessage
	if err := json.Unmarshal(hooksRaw, &existingHooks); err != nil {
		return false
	}

	for _, event := range hookEvents {
		raw, ok := existingHooks[event]
		if !ok || !eventHasOurHook(raw) {
			return false
		}
	}
	return true
}

func eventHasOurHook(raw json.RawMessage) bool {
	var matchers []hookMatcher
	if err := json.Unmarshal(raw, &matchers); err != nil {
		return false
	}
	for _, m := range matchers {
		for _, h := range m.Hooks {
			if strings.Contains(h.Command, hookCommandPrefix) {
				return true
			}
		}
	}
	return false
}

// mergeEvent adds hook entries for any channels not already present on the
// event, preserving existing matchers and hooks.
func mergeEvent(existing json.RawMessage, channels []string) (json.RawMessage, bool) {
	var matchers []hookMatcher
	if existing != nil {
		if err := json.Unmarshal(existing, &matchers); err != nil {
			matchers = nil
		}
	}

	present := make(map[string]bool)
	for _, m := range matchers {
		for _, h := range m.Hooks {
			if strings.HasPrefix(h.Command, hookCommandPrefix) {
				present[strings.TrimSpace(strings.TrimPrefix(h.Command, hookCommandPrefix))] = true
			}
		}
	}

	var missing []hookEntry
	for _, ch := range channels {
		if !present[ch] {
			missing = append(missing, channelHook(ch))
		}
	}
	if len(missing) == 0 {
		result, _ := json.Marshal(matchers)
		return result, false
	}

	// Append to the first no-matcher block if one exists; otherwise add one.
	for i, m := range matchers {
		if m.Matcher == "" {
			matchers[i].Hooks = append(matchers[i].Hooks, missing...)
			result, _ := json.Marshal(matchers)
			return result, true
		}
	}
	matchers = append(matchers, hookMatcher{Hooks: missing})
	result, _ := json.Marshal(matchers)
	return result, true
}

// removeFromEvent drops our hook entries from an event's matcher array.
// Returns nil JSON when nothing remains.
func removeFromEvent(raw json.RawMessage) (json.RawMessage, bool) {
	var matchers []hookMatcher
	if err := json.Unmarshal(raw, &matchers); err != nil {
		return raw, false
	}

	removed := false
	var cleaned []hookMatcher
	for _, m := range matchers {
		var kept []hookEntry
		for _, h := range m.Hooks {
			if strings.Contains(h.Command, hookCommandPrefix) {
				removed = true
				continue
			}
			kept = append(kept, h)
		}
		if len(kept) > 0 {
			m.Hooks = kept
			cleaned = append(cleaned, m)
		}
	}

	if !removed {
		return raw, false
	}
	if len(cleaned) == 0 {
		return nil, true
	}
	result, _ := json.Marshal(cleaned)
	return result, true
}
