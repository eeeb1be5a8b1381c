// Package state persists the two shared artifacts that coordinate the
// otherwise independent processes of this tool: the single active target
// and the bounded instance history. Both live as plain files; any process
// may overwrite them and the last writer wins.
package state

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/epinadev/claude-remote-ui/internal/logging"
)

var stateLog = logging.ForComponent(logging.CompState)

const (
	activeTargetFile = "active_target"
	instancesFile    = "instances.json"

	// MaxInstances caps the registry at the most recent entries.
	MaxInstances = 10

	// UnknownName fills session/window fields that a partial active-target
	// record is missing.
	UnknownName = "unknown"
)

// Instance is one previously-seen assistant session, keyed by pane id.
type Instance struct {
	Pane        string    `json:"pane"`
	Session     string    `json:"session"`
	Window      string    `json:"window"`
	LastActive  time.Time `json:"last_active"`
	DisplayName string    `json:"display_name"`
}

// Store reads and writes the persisted state files under dir. The exists
// function decides pane liveness at read time; it is injectable for tests
// and normally backed by the tmux client.
type Store struct {
	dir    string
	exists func(target string) bool
}

// NewStore creates a store rooted at dir. The exists check filters registry
// reads; passing nil keeps every entry (used by tests that only exercise
// persistence).
func NewStore(dir string, exists func(target string) bool) *Store {
	if exists == nil {
		exists = func(string) bool { return true }
	}
	return &Store{dir: dir, exists: exists}
}

// ActiveTarget returns the persisted active target. A partial record fills
// missing fields with UnknownName; a missing or unreadable file returns
// empty strings.
func (s *Store) ActiveTarget() (pane, session, window string) {
	data, err := os.ReadFile(filepath.Join(s.dir, activeTargetFile))
	if err != nil {
		return "", "", ""
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	switch {
	case len(lines) >= 3:
		return lines[0], lines[1], lines[2]
	case len(lines) >= 1 && lines[0] != "":
		return lines[0], UnknownName, UnknownName
	}
	return "", "", ""
}

// SetActiveTarget overwrites the persisted active target.
func (s *Store) SetActiveTarget(pane, session, window string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	content := pane + "\n" + session + "\n" + window + "\n"
	if err := os.WriteFile(filepath.Join(s.dir, activeTargetFile), []byte(content), 0o644); err != nil {
		stateLog.Warn("active_target_write_failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Record inserts or refreshes an instance at the front of the registry,
// deduplicated by pane, and truncates the list to MaxInstances. A corrupt
// or missing registry file reads as empty.
func (s *Store) Record(pane, session, window string) error {
	instances := s.loadInstances()

	// Drop any existing entry for the same pane; it moves to the front.
	kept := instances[:0]
	for _, inst := range instances {
		if inst.Pane != pane {
			kept = append(kept, inst)
		}
	}

	entry := Instance{
		Pane:        pane,
		Session:     session,
		Window:      window,
		LastActive:  time.Now(),
		DisplayName: session + ":" + window,
	}
	instances = append([]Instance{entry}, kept...)

	if len(instances) > MaxInstances {
		instances = instances[:MaxInstances]
	}

	return s.saveInstances(instances)
}

// ListActive returns registry entries whose pane still exists, newest first.
// Stale entries are hidden, not deleted.
func (s *Store) ListActive() []Instance {
	instances := s.loadInstances()
	active := make([]Instance, 0, len(instances))
	for _, inst := range instances {
		if inst.Pane != "" && s.exists(inst.Pane) {
			active = append(active, inst)
		}
	}
	return active
}

// Lookup returns the active registry entry for a pane, or nil.
func (s *Store) Lookup(pane string) *Instance {
	for _, inst := range s.ListActive() {
		if inst.Pane == pane {
			return &inst
		}
	}
	return nil
}

func (s *Store) loadInstances() []Instance {
	data, err := os.ReadFile(filepath.Join(s.dir, instancesFile))
	if err != nil {
		return nil
	}

	var instances []Instance
	if err := json.Unmarshal(data, &instances); err != nil {
		// Corrupt history is treated as empty, never as an error.
		stateLog.Warn("instance_history_corrupt", slog.String("error", err.Error()))
		return nil
	}
	return instances
}

func (s *Store) saveInstances(instances []Instance) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(instances, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, instancesFile), data, 0o644); err != nil {
		stateLog.Warn("instance_history_write_failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}
