package notify

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epinadev/claude-remote-ui/internal/config"
	"github.com/epinadev/claude-remote-ui/internal/state"
)

type fakeMux struct {
	session    string
	window     string
	ctxErr     error
	captured   string
	captureErr error
}

func (f *fakeMux) ContextOf(pane string) (string, string, error) {
	return f.session, f.window, f.ctxErr
}

func (f *fakeMux) Capture(target string, lines int) (string, error) {
	return f.captured, f.captureErr
}

type fakeNotifier struct {
	sent    []Message
	sendErr error
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) Send(msg Message) error {
	f.sent = append(f.sent, msg)
	return f.sendErr
}

func testChannel(n Notifier) Channel {
	return Channel{
		Notifier:     n,
		ContextLines: 15,
		MessageLines: 10,
		Title: func(session, window string) string {
			return session + ": " + window
		},
	}
}

func TestDispatchOutsideTmux(t *testing.T) {
	cfg := config.DefaultConfig()
	store := state.NewStore(t.TempDir(), nil)
	n := &fakeNotifier{}

	err := Dispatch(cfg, store, &fakeMux{}, testChannel(n), "")
	assert.ErrorIs(t, err, ErrNotInTmux)
	assert.Empty(t, n.sent)
}

func TestDispatchPaneVanished(t *testing.T) {
	cfg := config.DefaultConfig()
	store := state.NewStore(t.TempDir(), nil)
	n := &fakeNotifier{}
	mux := &fakeMux{ctxErr: errors.New("can't find pane %9")}

	err := Dispatch(cfg, store, mux, testChannel(n), "%9")
	assert.ErrorIs(t, err, ErrNotInTmux)
	assert.Empty(t, n.sent)

	pane, _, _ := store.ActiveTarget()
	assert.Equal(t, "", pane, "vanished pane must not become the active target")
}

func TestDispatchUpdatesStateAndSends(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TailscaleHost = "devbox.example.ts.net"
	store := state.NewStore(t.TempDir(), nil)
	n := &fakeNotifier{}
	mux := &fakeMux{
		session:  "work",
		window:   "editor",
		captured: "building...\n────────────\ntests passed\n",
	}

	err := Dispatch(cfg, store, mux, testChannel(n), "%3")
	require.NoError(t, err)

	pane, session, window := store.ActiveTarget()
	assert.Equal(t, "%3", pane)
	assert.Equal(t, "work", session)
	assert.Equal(t, "editor", window)

	instances := store.ListActive()
	require.Len(t, instances, 1)
	assert.Equal(t, "work:editor", instances[0].DisplayName)

	require.Len(t, n.sent, 1)
	msg := n.sent[0]
	assert.Equal(t, "work: editor", msg.Title)
	assert.Equal(t, "building...\ntests passed", msg.Body, "decorative separator should be stripped")
	assert.Equal(t, "http://devbox.example.ts.net:8899/?pane=%253", msg.LinkURL)
}

func TestDispatchPlaceholderOnEmptyCapture(t *testing.T) {
	cfg := config.DefaultConfig()
	store := state.NewStore(t.TempDir(), nil)
	n := &fakeNotifier{}
	mux := &fakeMux{session: "s", window: "w", captured: "\n═════\n\n"}

	require.NoError(t, Dispatch(cfg, store, mux, testChannel(n), "%1"))
	require.Len(t, n.sent, 1)
	assert.Equal(t, PlaceholderBody, n.sent[0].Body)
}

func TestDispatchPlaceholderOnCaptureFailure(t *testing.T) {
	cfg := config.DefaultConfig()
	store := state.NewStore(t.TempDir(), nil)
	n := &fakeNotifier{}
	mux := &fakeMux{session: "s", window: "w", captureErr: errors.New("boom")}

	require.NoError(t, Dispatch(cfg, store, mux, testChannel(n), "%1"))
	require.Len(t, n.sent, 1)
	assert.Equal(t, PlaceholderBody, n.sent[0].Body)
}

func TestDispatchKeepsLastMessageLines(t *testing.T) {
	cfg := config.DefaultConfig()
	store := state.NewStore(t.TempDir(), nil)
	n := &fakeNotifier{}

	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("line\n")
	}
	b.WriteString("last\n")
	mux := &fakeMux{session: "s", window: "w", captured: b.String()}

	ch := testChannel(n)
	ch.MessageLines = 3
	require.NoError(t, Dispatch(cfg, store, mux, ch, "%1"))

	require.Len(t, n.sent, 1)
	assert.Equal(t, "line\nline\nlast", n.sent[0].Body)
}

func TestDispatchSendFailureSurfaces(t *testing.T) {
	cfg := config.DefaultConfig()
	store := state.NewStore(t.TempDir(), nil)
	n := &fakeNotifier{sendErr: errors.New("api down")}
	mux := &fakeMux{session: "s", window: "w", captured: "out"}

	err := Dispatch(cfg, store, mux, testChannel(n), "%1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotInTmux)

	// State is still updated even when the send fails.
	pane, _, _ := store.ActiveTarget()
	assert.Equal(t, "%1", pane)
}
