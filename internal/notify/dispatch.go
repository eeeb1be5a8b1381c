package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/epinadev/claude-remote-ui/internal/config"
	"github.com/epinadev/claude-remote-ui/internal/logging"
	"github.com/epinadev/claude-remote-ui/internal/state"
	"github.com/epinadev/claude-remote-ui/internal/tmux"
)

var notifyLog = logging.ForComponent(logging.CompNotify)

// ErrNotInTmux is returned when the dispatcher was invoked outside any tmux
// pane. This is a normal condition for hook scripts, not an error: the
// caller exits cleanly without sending anything.
var ErrNotInTmux = errors.New("not running inside tmux")

// Multiplexer is the tmux surface a dispatcher needs.
type Multiplexer interface {
	ContextOf(pane string) (session, window string, err error)
	Capture(target string, lines int) (string, error)
}

// Channel bundles a notifier with its per-channel capture and title rules.
type Channel struct {
	Notifier Notifier

	// ContextLines is how many lines to capture from the pane.
	ContextLines int

	// MessageLines is how many trailing non-empty lines to keep as the body.
	MessageLines int

	// Title composes the channel-specific notification title.
	Title func(session, window string) string
}

// NewPushoverChannel builds the Pushover dispatch channel. The title leads
// with session and window, then the working directory the hook fired in.
func NewPushoverChannel(cfg *config.Config) Channel {
	return Channel{
		Notifier:     NewPushover(cfg.Pushover),
		ContextLines: cfg.Pushover.ContextLines,
		MessageLines: cfg.Pushover.MessageLines,
		Title: func(session, window string) string {
			cwd, _ := os.Getwd()
			return fmt.Sprintf("%s: %s - %s", session, window, filepath.Base(cwd))
		},
	}
}

// NewTelegramChannel builds the Telegram dispatch channel. The title leads
// with the short tailscale hostname when configured, else the session name.
func NewTelegramChannel(cfg *config.Config) Channel {
	return Channel{
		Notifier:     NewTelegram(cfg.Telegram),
		ContextLines: cfg.Telegram.ContextLines,
		MessageLines: cfg.Telegram.MessageLines,
		Title: func(session, window string) string {
			host := cfg.ShortHost()
			if host == "" {
				host = session
			}
			return fmt.Sprintf("%s: %s", host, window)
		},
	}
}

// Dispatch runs the one-shot notification pipeline: resolve the invoking
// pane's context, refresh the shared active target and instance history,
// capture and clean the pane's recent output, and post it to the channel.
// Every step is independently fault-tolerant; only ErrNotInTmux and send
// errors surface, and neither is fatal to the invoking hook.
func Dispatch(cfg *config.Config, store *state.Store, mux Multiplexer, ch Channel, pane string) error {
	if pane == "" {
		return ErrNotInTmux
	}

	session, window, err := mux.ContextOf(pane)
	if err != nil {
		// Pane vanished between the hook firing and now. Nothing to report.
		notifyLog.Info("pane_context_unavailable", slog.String("pane", pane), slog.String("error", err.Error()))
		return ErrNotInTmux
	}

	// This invocation defines the new active target for the web UI and the
	// chat listener. Failures are reported, never fatal.
	if err := store.SetActiveTarget(pane, session, window); err != nil {
		fmt.Printf("Warning: could not save active target: %v\n", err)
	} else {
		fmt.Printf("Active target saved: %s\n", pane)
	}
	if err := store.Record(pane, session, window); err != nil {
		fmt.Printf("Warning: could not save instance history: %v\n", err)
	}

	body := buildBody(mux, pane, ch.ContextLines, ch.MessageLines)
	msg := Message{
		Title:   ch.Title(session, window),
		Body:    body,
		LinkURL: deepLink(cfg, pane),
	}

	if err := ch.Notifier.Send(msg); err != nil {
		fmt.Printf("%s notification failed: %v\n", ch.Notifier.Name(), err)
		notifyLog.Warn("notification_failed",
			slog.String("channel", ch.Notifier.Name()),
			slog.String("error", err.Error()))
		return err
	}

	fmt.Printf("%s notification sent: %s\n", ch.Notifier.Name(), msg.Title)
	notifyLog.Info("notification_sent",
		slog.String("channel", ch.Notifier.Name()),
		slog.String("pane", pane))
	return nil
}

// buildBody captures the pane's trailing output, strips decorative lines,
// and keeps the last messageLines non-empty lines. Capture failure or empty
// output yields the fixed placeholder.
func buildBody(mux Multiplexer, pane string, contextLines, messageLines int) string {
	raw, err := mux.Capture(pane, contextLines)
	if err != nil {
		notifyLog.Info("capture_failed", slog.String("pane", pane), slog.String("error", err.Error()))
		return PlaceholderBody
	}

	cleaned := tmux.StripDecorativeLines(raw)
	body := tmux.TailLines(cleaned, messageLines)
	if body == "" {
		return PlaceholderBody
	}
	return body
}

// deepLink builds the web UI URL scoped to one pane. The pane id contains
// a % character, so it is query-escaped.
func deepLink(cfg *config.Config, pane string) string {
	return fmt.Sprintf("%s/?pane=%s", cfg.BaseURL(), url.QueryEscape(pane))
}
