package notify

import (
	"fmt"
	"html"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/epinadev/claude-remote-ui/internal/config"
)

// TelegramLimit is the transport limit applied to message bodies. Telegram
// allows 4096 characters per message; headroom is left for the title and
// the HTML wrapping.
const TelegramLimit = 3500

// Telegram posts notifications through the Telegram Bot API.
type Telegram struct {
	cfg config.TelegramConfig

	// newBot is overridable in tests; the default dials api.telegram.org.
	newBot func(token string) (telegramSender, error)
}

// telegramSender is the subset of tgbotapi.BotAPI used for outbound sends.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewTelegram creates a Telegram notifier from channel config.
func NewTelegram(cfg config.TelegramConfig) *Telegram {
	return &Telegram{
		cfg: cfg,
		newBot: func(token string) (telegramSender, error) {
			return tgbotapi.NewBotAPI(token)
		},
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Send posts the message as <b>title</b> + <pre>body</pre> with an inline
// keyboard button deep-linking into the web UI. Missing or placeholder
// credentials make this a reported no-op, not a crash.
func (t *Telegram) Send(msg Message) error {
	if ok, reason := t.cfg.Configured(); !ok {
		return fmt.Errorf("%s", reason)
	}

	chatID, err := strconv.ParseInt(t.cfg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram chat ID %q is not numeric: %w", t.cfg.ChatID, err)
	}

	bot, err := t.newBot(t.cfg.BotToken)
	if err != nil {
		return fmt.Errorf("telegram bot init failed: %w", err)
	}

	body := TailTruncate(msg.Body, TelegramLimit)
	text := fmt.Sprintf("<b>%s</b>\n\n<pre>%s</pre>", escapeHTML(msg.Title), escapeHTML(body))

	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeHTML
	out.DisableWebPagePreview = true
	if msg.LinkURL != "" {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("Open Remote UI", msg.LinkURL),
			),
		)
	}

	if _, err := bot.Send(out); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}

// escapeHTML escapes the characters Telegram's HTML parse mode reserves.
func escapeHTML(s string) string {
	return html.EscapeString(s)
}
