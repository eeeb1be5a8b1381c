// Package web exposes the remote control surface over HTTP: read the active
// pane's output, send it input, and switch between known instances. The
// server is stateless; every request re-reads the shared state files, so it
// coordinates with dispatchers and the chat listener purely through them.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/epinadev/claude-remote-ui/internal/logging"
	"github.com/epinadev/claude-remote-ui/internal/state"
)

var webLog = logging.ForComponent(logging.CompWeb)

//go:embed templates/*
var templateFiles embed.FS

// outputLines is how much pane scrollback the UI shows per refresh.
const outputLines = 50

// Multiplexer is the tmux surface the web handlers need.
type Multiplexer interface {
	Capture(target string, lines int) (string, error)
	Send(target, text string) error
	Exists(target string) bool
}

// Config defines runtime options for the web server.
type Config struct {
	ListenAddr string
}

// Server is the web control server. All handler state is carried here
// explicitly; there are no package-level mutables.
type Server struct {
	cfg        Config
	store      *state.Store
	mux        Multiplexer
	httpServer *http.Server
	tmpl       *template.Template
}

// NewServer creates the web server over a state store and tmux client.
func NewServer(cfg Config, store *state.Store, mux Multiplexer) *Server {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "0.0.0.0:8899"
	}

	s := &Server{
		cfg:   cfg,
		store: store,
		mux:   mux,
		tmpl:  template.Must(template.ParseFS(templateFiles, "templates/*.html")),
	}

	handler := http.NewServeMux()
	handler.HandleFunc("/", s.handleIndex)
	handler.HandleFunc("/api/output", s.handleOutput)
	handler.HandleFunc("/api/send", s.handleSend)
	handler.HandleFunc("/api/instances", s.handleInstances)
	handler.HandleFunc("/api/switch", s.handleSwitch)
	handler.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           withRecover(handler),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the configured HTTP handler (used by tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server and blocks until shutdown or error.
// Returns nil on graceful shutdown.
func (s *Server) Start() error {
	webLog.Info("server_starting", slog.String("addr", s.cfg.ListenAddr))
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// resolveTarget returns the target for one request. A pane override takes
// precedence over the persisted active target for this request only and
// never mutates state: a registry hit supplies the names, a bare-but-live
// pane degrades to unknown names, and a dead override resolves to nothing.
func (s *Server) resolveTarget(paneOverride string) (pane, session, window string) {
	if paneOverride != "" {
		if inst := s.store.Lookup(paneOverride); inst != nil {
			return inst.Pane, inst.Session, inst.Window
		}
		if s.mux.Exists(paneOverride) {
			return paneOverride, state.UnknownName, state.UnknownName
		}
		return "", "", ""
	}
	return s.store.ActiveTarget()
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				webLog.Error("panic",
					slog.String("recover", fmt.Sprintf("%v", rec)),
					slog.String("path", r.URL.Path))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
