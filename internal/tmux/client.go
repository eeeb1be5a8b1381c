package tmux

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/epinadev/claude-remote-ui/internal/logging"
)

var tmuxLog = logging.ForComponent(logging.CompTmux)

// commandTimeout bounds every tmux subprocess call. Nothing in this layer
// blocks indefinitely.
const commandTimeout = 5 * time.Second

// sendEnterDelay separates the literal-text send from the Enter keystroke.
// tmux 3.2+ wraps send-keys -l in bracketed paste sequences; without the
// delay, Enter arrives in the same PTY buffer as the paste-end marker and
// gets swallowed by async TUI frameworks.
const sendEnterDelay = 100 * time.Millisecond

// Runner executes a tmux command and returns trimmed stdout.
type Runner func(ctx context.Context, args ...string) (string, error)

// Client wraps the tmux binary. The zero value is not usable; use NewClient.
// A target passed to Capture/Send/Exists may be a pane id, a window, or a
// session name — tmux resolves all three.
type Client struct {
	run Runner
}

// NewClient creates a client backed by the local tmux binary.
func NewClient() *Client {
	return &Client{run: runLocal}
}

// NewClientWithRunner creates a client with a custom runner (tests).
func NewClientWithRunner(run Runner) *Client {
	return &Client{run: run}
}

func runLocal(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("tmux %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (c *Client) runWithTimeout(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	out, err := c.run(ctx, args...)
	if err != nil {
		tmuxLog.Debug("tmux_command_failed",
			slog.String("cmd", strings.Join(args, " ")),
			slog.String("error", err.Error()))
	}
	return out, err
}

// IsAvailable checks that the tmux binary is installed and working.
func (c *Client) IsAvailable() error {
	if _, err := c.runWithTimeout("-V"); err != nil {
		return fmt.Errorf("tmux not found or not working: %w", err)
	}
	return nil
}

// CurrentPane returns the pane id of the invoking process, or "" when the
// process is not running inside tmux.
func CurrentPane() string {
	return os.Getenv("TMUX_PANE")
}

// ContextOf resolves the session and window names for a pane.
func (c *Client) ContextOf(pane string) (session, window string, err error) {
	out, err := c.runWithTimeout("display-message", "-p", "-t", pane, "#S\t#W")
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(out, "\t", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("unexpected display-message output: %q", out)
	}
	return parts[0], parts[1], nil
}

// Capture returns the last lines of output from a target. The target may be
// a pane, window, or session.
func (c *Client) Capture(target string, lines int) (string, error) {
	out, err := c.runWithTimeout("capture-pane", "-p", "-t", target, "-S", fmt.Sprintf("-%d", lines))
	if err != nil {
		return "", fmt.Errorf("failed to capture pane: %w", err)
	}
	return out, nil
}

// Send delivers text to a target as literal input followed by Enter. The -l
// flag makes tmux treat the string as literal text, not key names, so
// content like "Enter" or "C-c" reaches the pane verbatim. Text and Enter
// are two separate tmux calls.
func (c *Client) Send(target, text string) error {
	if _, err := c.runWithTimeout("send-keys", "-l", "-t", target, "--", text); err != nil {
		return err
	}
	time.Sleep(sendEnterDelay)
	if _, err := c.runWithTimeout("send-keys", "-t", target, "Enter"); err != nil {
		return err
	}
	return nil
}

// Exists reports whether a target (pane, window, or session) still exists.
// Any tmux failure, including a missing binary, reads as "does not exist".
func (c *Client) Exists(target string) bool {
	_, err := c.runWithTimeout("list-panes", "-t", target)
	return err == nil
}

// ListSessions returns the names of all running tmux sessions. A missing
// server is not an error; it returns an empty list.
func (c *Client) ListSessions() []string {
	out, err := c.runWithTimeout("list-sessions", "-F", "#{session_name}")
	if err != nil || out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// NewSession creates a detached session with a named first window.
func (c *Client) NewSession(session, window string) error {
	_, err := c.runWithTimeout("new-session", "-d", "-s", session, "-n", window)
	return err
}

// NewWindow creates a named window in an existing session.
func (c *Client) NewWindow(session, window string) error {
	_, err := c.runWithTimeout("new-window", "-t", session, "-n", window)
	return err
}

// WindowPane returns the pane id of a session:window target.
func (c *Client) WindowPane(session, window string) (string, error) {
	out, err := c.runWithTimeout("list-panes", "-t", session+":"+window, "-F", "#{pane_id}")
	if err != nil {
		return "", err
	}
	// A freshly created window has exactly one pane; take the first either way.
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	if out == "" {
		return "", fmt.Errorf("no pane found for %s:%s", session, window)
	}
	return out, nil
}
