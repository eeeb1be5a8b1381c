// Package bot runs the Telegram long-poll listener: inbound messages from
// the configured chat become input for the active tmux pane, and slash
// commands query or mutate the shared state the dispatchers maintain.
package bot

import (
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/epinadev/claude-remote-ui/internal/config"
	"github.com/epinadev/claude-remote-ui/internal/logging"
	"github.com/epinadev/claude-remote-ui/internal/state"
)

var botLog = logging.ForComponent(logging.CompBot)

// longPollTimeout is the Telegram getUpdates long-poll window in seconds.
const longPollTimeout = 30

// defaultWindowName names the tmux window /new creates when the user gives
// no name of their own.
const defaultWindowName = "remote"

// defaultSessionName is used when no tmux server is running and a fresh
// session has to be created for /new.
const defaultSessionName = "claude"

// helpText is the /help reply.
const helpText = `<b>Commands:</b>
/status - Show active Claude session
/list - List all Claude sessions
/switch N - Switch to session N (also accepts a pane id)
/new [name] - Spawn new Claude instance
/help - Show this help

<b>Usage:</b>
Just type any message to send it to the active Claude session.`

// Multiplexer is the tmux surface the listener needs.
type Multiplexer interface {
	Send(target, text string) error
	Exists(target string) bool
	ListSessions() []string
	NewSession(session, window string) error
	NewWindow(session, window string) error
	WindowPane(session, window string) (string, error)
}

// Listener is the long-poll loop. One outstanding getUpdates call at a
// time; messages are processed sequentially in arrival order.
type Listener struct {
	cfg    *config.Config
	store  *state.Store
	mux    Multiplexer
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewListener validates the Telegram config and dials the bot API.
func NewListener(cfg *config.Config, store *state.Store, mux Multiplexer) (*Listener, error) {
	if ok, reason := cfg.Telegram.Configured(); !ok {
		return nil, fmt.Errorf("%s", reason)
	}
	chatID, err := strconv.ParseInt(cfg.Telegram.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram chat ID %q is not numeric: %w", cfg.Telegram.ChatID, err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init failed: %w", err)
	}

	return &Listener{
		cfg:    cfg,
		store:  store,
		mux:    mux,
		bot:    bot,
		chatID: chatID,
	}, nil
}

// Run blocks on the long-poll loop until Stop is called. The bot API client
// advances the update offset past every delivered update, so a message that
// fails mid-processing is never replayed.
func (l *Listener) Run() error {
	botLog.Info("listener_started", slog.Int64("chat_id", l.chatID))
	fmt.Printf("Starting Telegram listener for chat_id: %d\n", l.chatID)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = longPollTimeout
	u.AllowedUpdates = []string{"message"}

	for update := range l.bot.GetUpdatesChan(u) {
		msg := update.Message
		if msg == nil {
			continue
		}
		// Only the configured chat may drive the terminal.
		if msg.Chat == nil || msg.Chat.ID != l.chatID {
			continue
		}
		if msg.Text == "" {
			continue
		}

		for _, reply := range l.process(msg.Text) {
			l.reply(reply, msg.MessageID)
		}
	}
	return nil
}

// Stop ends the long-poll loop.
func (l *Listener) Stop() {
	l.bot.StopReceivingUpdates()
}

// process handles one inbound message and returns the replies to send, in
// order. Split out from Run so command handling is testable without a bot.
func (l *Listener) process(text string) []string {
	if strings.HasPrefix(text, "/") {
		return l.processCommand(text)
	}
	return []string{l.forwardToActivePane(text)}
}

func (l *Listener) processCommand(text string) []string {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/status":
		return []string{l.statusReply()}
	case "/list", "/panes":
		return []string{l.listReply()}
	case "/switch":
		return []string{l.switchReply(fields[1:])}
	case "/new":
		name := defaultWindowName
		if len(fields) > 1 {
			name = fields[1]
		}
		return []string{"Spawning new Claude instance...", l.spawnReply(name)}
	case "/help", "/start":
		return []string{helpText}
	default:
		return []string{"Unknown command. Use /help to see available commands."}
	}
}

func (l *Listener) statusReply() string {
	pane, _, _ := l.store.ActiveTarget()
	if pane == "" || !l.mux.Exists(pane) {
		return "No active Claude session"
	}

	display := pane
	if inst := l.store.Lookup(pane); inst != nil {
		display = fmt.Sprintf("%s (%s)", inst.DisplayName, pane)
	}
	return fmt.Sprintf("Active: <code>%s</code>", html.EscapeString(display))
}

func (l *Listener) listReply() string {
	instances := l.store.ListActive()
	if len(instances) == 0 {
		return "No Claude sessions found"
	}

	currentPane, _, _ := l.store.ActiveTarget()
	lines := []string{"<b>Claude Sessions:</b>\n"}
	for i, inst := range instances {
		marker := ""
		if inst.Pane == currentPane {
			marker = " ✓"
		}
		lines = append(lines, fmt.Sprintf("%d. <code>%s</code>%s", i+1, html.EscapeString(inst.DisplayName), marker))
	}
	lines = append(lines, "\nUse /switch N to change")
	return strings.Join(lines, "\n")
}

// switchReply handles /switch. The argument is either a 1-based index into
// the current active list or a pane id; accepting the pane id directly
// sidesteps the reordering race between /list and a later /switch.
func (l *Listener) switchReply(args []string) string {
	if len(args) != 1 {
		return "Usage: /switch N (e.g., /switch 1)"
	}

	instances := l.store.ListActive()

	var target *state.Instance
	if n, err := strconv.Atoi(args[0]); err == nil {
		if n < 1 || n > len(instances) {
			return "Invalid number. Use /list to see available sessions."
		}
		target = &instances[n-1]
	} else {
		for i := range instances {
			if instances[i].Pane == args[0] {
				target = &instances[i]
				break
			}
		}
		if target == nil {
			return "Usage: /switch N (e.g., /switch 1)"
		}
	}

	if !l.mux.Exists(target.Pane) {
		return "Session no longer exists"
	}
	if err := l.store.SetActiveTarget(target.Pane, target.Session, target.Window); err != nil {
		return "Failed to switch session"
	}
	return fmt.Sprintf("Switched to <code>%s</code>", html.EscapeString(target.DisplayName))
}

// spawnReply creates a new tmux window running the assistant command,
// registers it, and makes it the active target. An existing tmux server's
// first session is reused; otherwise a fresh session is created.
func (l *Listener) spawnReply(windowName string) string {
	session := ""
	if sessions := l.mux.ListSessions(); len(sessions) > 0 {
		session = sessions[0]
		if err := l.mux.NewWindow(session, windowName); err != nil {
			botLog.Warn("spawn_window_failed", slog.String("error", err.Error()))
			return "Failed to spawn Claude instance. Check logs."
		}
	} else {
		session = defaultSessionName
		if err := l.mux.NewSession(session, windowName); err != nil {
			botLog.Warn("spawn_session_failed", slog.String("error", err.Error()))
			return "Failed to spawn Claude instance. Check logs."
		}
	}

	pane, err := l.mux.WindowPane(session, windowName)
	if err != nil {
		botLog.Warn("spawn_pane_lookup_failed", slog.String("error", err.Error()))
		return "Failed to spawn Claude instance. Check logs."
	}

	if err := l.mux.Send(pane, l.cfg.ClaudeCommand); err != nil {
		botLog.Warn("spawn_launch_failed", slog.String("error", err.Error()))
		return "Failed to spawn Claude instance. Check logs."
	}

	if err := l.store.Record(pane, session, windowName); err != nil {
		botLog.Warn("spawn_record_failed", slog.String("error", err.Error()))
	}
	if err := l.store.SetActiveTarget(pane, session, windowName); err != nil {
		botLog.Warn("spawn_set_active_failed", slog.String("error", err.Error()))
	}

	return fmt.Sprintf("Started <code>%s:%s</code>\nNow active. Send your prompt!",
		html.EscapeString(session), html.EscapeString(windowName))
}

func (l *Listener) forwardToActivePane(text string) string {
	pane, _, _ := l.store.ActiveTarget()
	if pane == "" {
		return "No active Claude session. Wait for a notification first."
	}
	if !l.mux.Exists(pane) {
		return fmt.Sprintf("Session <code>%s</code> no longer exists.", html.EscapeString(pane))
	}

	if err := l.mux.Send(pane, text); err != nil {
		botLog.Warn("forward_failed", slog.String("pane", pane), slog.String("error", err.Error()))
		return "Failed to send to Claude"
	}
	return "Sent to Claude"
}

func (l *Listener) reply(text string, replyTo int) {
	msg := tgbotapi.NewMessage(l.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = replyTo
	if _, err := l.bot.Send(msg); err != nil {
		botLog.Warn("reply_failed", slog.String("error", err.Error()))
	}
}
