package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// StorageKey is the fixed key the settings record is stored under.
const StorageKey = "sundial.settings"

// Store loads and saves the single settings record. The boolean from Load is
// false when no record exists yet.
type Store interface {
	Load() (Settings, bool, error)
	Save(Settings) error
}

// FileStore persists the record as a flat JSON object under StorageKey in a
// single file. Unknown fields inside the stored record are carried through
// every save untouched, so older and newer binaries can share a file.
type FileStore struct {
	logger *slog.Logger
	path   string

	mu     sync.Mutex
	extras map[string]json.RawMessage
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{
		logger: logger,
		path:   path,
		extras: map[string]json.RawMessage{},
	}
}

// DefaultPath returns the conventional settings file location under the
// user's config directory, or a working-directory fallback.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return StorageKey + ".json"
	}
	return filepath.Join(dir, "sundial", "settings.json")
}

// Load reads the stored record. A missing file means "no stored settings";
// a malformed file is treated the same way, since defaults must always win
// over garbage.
func (f *FileStore) Load() (Settings, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, fmt.Errorf("reading settings file: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		f.logger.Warn("settings file is malformed, using defaults", "path", f.path, "error", err)
		return Settings{}, false, nil
	}
	raw, ok := doc[StorageKey]
	if !ok {
		return Settings{}, false, nil
	}

	var record map[string]json.RawMessage
	if err := json.Unmarshal(raw, &record); err != nil {
		f.logger.Warn("settings record is malformed, using defaults", "path", f.path, "error", err)
		return Settings{}, false, nil
	}

	// Defaults first, then the stored fields over them: a record written by
	// an older binary keeps the defaults for every field it never knew.
	s := Default()
	if err := json.Unmarshal(raw, &s); err != nil {
		f.logger.Warn("settings record has bad field types, using defaults", "path", f.path, "error", err)
		return Settings{}, false, nil
	}

	// Remember fields we do not understand so Save writes them back.
	f.extras = record
	for _, known := range knownFields() {
		delete(f.extras, known)
	}

	return s.Normalize(), true, nil
}

// Save writes the record, re-attaching any unknown fields seen at Load time.
func (f *FileStore) Save(s Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	var record map[string]json.RawMessage
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("re-reading encoded settings: %w", err)
	}
	for k, v := range f.extras {
		if _, taken := record[k]; !taken {
			record[k] = v
		}
	}

	doc := map[string]map[string]json.RawMessage{StorageKey: record}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings document: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := os.WriteFile(f.path, out, 0o600); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}

func knownFields() []string {
	return []string{
		"timezone_mode", "theme", "use_24_hour", "smooth_seconds",
		"chime_enabled", "ambient_enabled", "focus_mode",
	}
}

// MemoryStore is an in-memory Store for tests and ephemeral runs.
type MemoryStore struct {
	mu     sync.Mutex
	record Settings
	has    bool
	Saves  int
}

func (m *MemoryStore) Load() (Settings, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record, m.has, nil
}

func (m *MemoryStore) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = s
	m.has = true
	m.Saves++
	return nil
}
