package notify

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/epinadev/claude-remote-ui/internal/config"
)

// pushoverAPI is the Pushover message endpoint.
const pushoverAPI = "https://api.pushover.net/1/messages.json"

// PushoverLimit is the transport limit applied to message bodies. Pushover
// allows 1024 characters; headroom is left for the marker and title.
const PushoverLimit = 900

// Pushover posts notifications through the Pushover REST API.
type Pushover struct {
	cfg    config.PushoverConfig
	client *http.Client

	// apiURL is overridable in tests.
	apiURL string
}

// NewPushover creates a Pushover notifier from channel config.
func NewPushover(cfg config.PushoverConfig) *Pushover {
	return &Pushover{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		apiURL: pushoverAPI,
	}
}

func (p *Pushover) Name() string { return "pushover" }

// Send posts the message. Missing or placeholder credentials make this a
// reported no-op, not a crash.
func (p *Pushover) Send(msg Message) error {
	if ok, reason := p.cfg.Configured(); !ok {
		return fmt.Errorf("%s", reason)
	}

	form := url.Values{
		"token":     {p.cfg.AppToken},
		"user":      {p.cfg.UserKey},
		"message":   {TailTruncate(msg.Body, PushoverLimit)},
		"title":     {msg.Title},
		"url":       {msg.LinkURL},
		"url_title": {"Open Remote UI"},
		"priority":  {"0"},
		"monospace": {"1"},
	}

	resp, err := p.client.PostForm(p.apiURL, form)
	if err != nil {
		return fmt.Errorf("pushover request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("pushover returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
