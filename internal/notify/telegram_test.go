package notify

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epinadev/claude-remote-ui/internal/config"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func telegramTestConfig() config.TelegramConfig {
	return config.TelegramConfig{
		Enabled:      true,
		BotToken:     "123:abc",
		ChatID:       "42",
		ContextLines: 50,
		MessageLines: 30,
	}
}

func newTestTelegram(cfg config.TelegramConfig, sender *fakeSender) *Telegram {
	tg := NewTelegram(cfg)
	tg.newBot = func(token string) (telegramSender, error) { return sender, nil }
	return tg
}

func TestTelegramSendFormatsHTML(t *testing.T) {
	sender := &fakeSender{}
	tg := newTestTelegram(telegramTestConfig(), sender)

	err := tg.Send(Message{
		Title:   "host: editor",
		Body:    "if x < 10 && y > 2 {",
		LinkURL: "http://host:8899/?pane=%253",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)

	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.True(t, msg.DisableWebPagePreview)
	assert.Contains(t, msg.Text, "<b>host: editor</b>")
	assert.Contains(t, msg.Text, "<pre>if x &lt; 10 &amp;&amp; y &gt; 2 {</pre>")

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 1)
	assert.Equal(t, "Open Remote UI", markup.InlineKeyboard[0][0].Text)
	require.NotNil(t, markup.InlineKeyboard[0][0].URL)
	assert.Equal(t, "http://host:8899/?pane=%253", *markup.InlineKeyboard[0][0].URL)
}

func TestTelegramSendNoLinkNoKeyboard(t *testing.T) {
	sender := &fakeSender{}
	tg := newTestTelegram(telegramTestConfig(), sender)

	require.NoError(t, tg.Send(Message{Title: "t", Body: "b"}))

	msg := sender.sent[0].(tgbotapi.MessageConfig)
	assert.Nil(t, msg.ReplyMarkup)
}

func TestTelegramSendTruncatesBody(t *testing.T) {
	sender := &fakeSender{}
	tg := newTestTelegram(telegramTestConfig(), sender)

	require.NoError(t, tg.Send(Message{Body: strings.Repeat("z", TelegramLimit*2)}))

	msg := sender.sent[0].(tgbotapi.MessageConfig)
	assert.Contains(t, msg.Text, TruncationMarker)
	// The wrapped text stays well under Telegram's 4096-character cap.
	assert.Less(t, len(msg.Text), 4096)
}

func TestTelegramSendBadChatID(t *testing.T) {
	cfg := telegramTestConfig()
	cfg.ChatID = "not-a-number"
	tg := newTestTelegram(cfg, &fakeSender{})

	err := tg.Send(Message{Body: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not numeric")
}

func TestTelegramSendUnconfigured(t *testing.T) {
	cfg := telegramTestConfig()
	cfg.Enabled = false
	tg := newTestTelegram(cfg, &fakeSender{})

	err := tg.Send(Message{Body: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}
