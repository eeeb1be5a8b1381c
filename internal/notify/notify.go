// Package notify sends pane output to remote notification channels. Each
// dispatcher run is a one-shot process: it reads its own tmux context,
// refreshes the shared state files, and posts a single message.
package notify

import (
	"strings"
)

// TruncationMarker prefixes a message body that was cut to fit a channel's
// transport limit.
const TruncationMarker = "[...truncated]\n"

// PlaceholderBody substitutes a message body when capture failed or the
// pane produced no usable output.
const PlaceholderBody = "Claude Code activity detected"

// Message is one outbound notification.
type Message struct {
	Title   string
	Body    string
	LinkURL string
}

// Notifier posts a message to one external channel. Send failures are
// reported, never escalated past the dispatcher.
type Notifier interface {
	Name() string
	Send(msg Message) error
}

// TailTruncate cuts s to its trailing limit bytes and prefixes the
// truncation marker when a cut happened. The most recent content is what
// matters in terminal output, so the head is sacrificed.
func TailTruncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}

	tail := s[len(s)-limit:]
	// Avoid starting mid-line when a newline is close by.
	if i := strings.IndexByte(tail, '\n'); i >= 0 && i < len(tail)-1 {
		tail = tail[i+1:]
	}
	return TruncationMarker + tail
}
