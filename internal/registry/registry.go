package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codemap/util"
)

// Entry is one project's registry record.
type Entry struct {
	RootPath   string    `json:"rootPath"`
	DBPath     string    `json:"dbPath"`
	LastBuilt  time.Time `json:"lastBuilt,omitempty"`
	FileCount  int       `json:"fileCount,omitempty"`
	NodeCount  int       `json:"nodeCount,omitempty"`
}

// Registry is the JSON-persisted rootPath -> Entry map, one process's
// worth of state at a time; callers needing cross-process safety
// should hold registry.json's advisory presence as best-effort only,
// matching the teacher's package-metadata store (pkgmgr/manager.go).
type Registry struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
}

// Open loads the registry file. If it does not exist yet, Open returns
// an empty registry and writes nothing.
func Open() (*Registry, error) {
	path, err := RegistryFile()
	if err != nil {
		return nil, err
	}
	r := &Registry{path: path, entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	if len(data) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(data, &r.entries); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return r, nil
}

// DBPathFor derives the deterministic database path for a project
// root: sha256(rootPath) as a hex file name (with a .sqlite suffix)
// under GraphsDir, so
// two different roots never collide and the same root always maps
// back to the same file.
func DBPathFor(rootPath string) (string, error) {
	graphs, err := GraphsDir()
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(graphs, util.HashHex(abs)+".sqlite"), nil
}

// Lookup returns the entry for rootPath, if any.
func (r *Registry) Lookup(rootPath string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	abs, _ := filepath.Abs(rootPath)
	e, ok := r.entries[abs]
	return e, ok
}

// Register records or updates rootPath's entry and persists the
// registry to disk.
func (r *Registry) Register(e Entry) error {
	abs, err := filepath.Abs(e.RootPath)
	if err != nil {
		return err
	}
	e.RootPath = abs

	r.mu.Lock()
	r.entries[abs] = e
	r.mu.Unlock()

	return r.save()
}

// Forget removes rootPath's entry, if present, and persists.
func (r *Registry) Forget(rootPath string) error {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.entries, abs)
	r.mu.Unlock()
	return r.save()
}

// All returns every registered entry.
func (r *Registry) All() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

func (r *Registry) save() error {
	r.mu.Lock()
	data, err := json.MarshalIndent(r.entries, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write registry %s: %w", r.path, err)
	}
	return nil
}
