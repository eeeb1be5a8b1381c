package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/epinadev/claude-remote-ui/internal/state"
)

type sendRequest struct {
	Text string `json:"text"`
	Pane string `json:"pane"`
}

type switchRequest struct {
	Pane string `json:"pane"`
}

type indexData struct {
	SessionName   string
	SessionActive bool
	Output        string
	Instances     []state.Instance
	CurrentPane   string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pane, session, window := s.resolveTarget(r.URL.Query().Get("pane"))
	instances := s.store.ListActive()

	data := indexData{Instances: instances, CurrentPane: pane}

	if pane == "" {
		data.SessionName = "No active Claude instance"
		data.Output = "Waiting for Claude Code hook to trigger...\n\n" +
			"Once Claude needs your attention, this will show the output."
	} else {
		data.SessionName = session + ":" + window
		data.SessionActive = s.mux.Exists(pane)
		if data.SessionActive {
			if output, err := s.mux.Capture(pane, outputLines); err == nil {
				data.Output = output
			}
		} else {
			data.Output = fmt.Sprintf("Target %s is no longer active.\n\nWaiting for next Claude notification...", pane)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		webLog.Error("template_render_failed", "error", err.Error())
	}
}

func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pane, _, _ := s.resolveTarget(r.URL.Query().Get("pane"))
	if pane == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"output": "Waiting for Claude Code hook to trigger...",
			"active": false,
		})
		return
	}
	if !s.mux.Exists(pane) {
		writeJSON(w, http.StatusOK, map[string]any{
			"output": fmt.Sprintf("Target %s is no longer active.", pane),
			"active": false,
		})
		return
	}

	output, err := s.mux.Capture(pane, outputLines)
	if err != nil {
		output = ""
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"output": output,
		"active": true,
		"pane":   pane,
	})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "No text provided")
		return
	}

	pane, _, _ := s.resolveTarget(req.Pane)
	if pane == "" {
		writeError(w, http.StatusNotFound, "No active Claude target")
		return
	}
	if !s.mux.Exists(pane) {
		writeError(w, http.StatusNotFound, "Target no longer active")
		return
	}

	if err := s.mux.Send(pane, text); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to send input")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Sent: " + text,
	})
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	instances := s.store.ListActive()
	current, _, _ := s.resolveTarget(r.URL.Query().Get("pane"))

	writeJSON(w, http.StatusOK, map[string]any{
		"instances": instances,
		"current":   current,
	})
}

func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req switchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Pane == "" {
		writeError(w, http.StatusBadRequest, "No pane provided")
		return
	}

	inst := s.store.Lookup(req.Pane)
	if inst == nil {
		writeError(w, http.StatusNotFound, "Instance not found")
		return
	}
	if !s.mux.Exists(inst.Pane) {
		writeError(w, http.StatusNotFound, "Instance no longer active")
		return
	}

	if err := s.store.SetActiveTarget(inst.Pane, inst.Session, inst.Window); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to switch instance")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"pane":    inst.Pane,
		"session": inst.Session,
		"window":  inst.Window,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pane, session, window := s.store.ActiveTarget()
	active := false
	if pane != "" {
		active = s.mux.Exists(pane)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"target":    orNone(pane),
		"session":   orNone(session),
		"window":    orNone(window),
		"active":    active,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
