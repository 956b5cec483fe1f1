package settings

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := NewFileStore(path, testLogger())

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v, want no record", ok, err)
	}

	want := Default()
	want.Use24Hour = true
	want.Theme = ThemeMono
	if err := store.Save(want); err != nil {
		t.Fatal(err)
	}

	got, ok, err := NewFileStore(path, testLogger()).Load()
	if err != nil || !ok {
		t.Fatalf("reload: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStorePartialRecordKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	seed := `{"sundial.settings":{"theme":"mono"}}`
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatal(err)
	}

	got, ok, err := NewFileStore(path, testLogger()).Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}

	want := Default()
	want.Theme = ThemeMono
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("missing fields must keep their defaults (-want +got):\n%s", diff)
	}
}

func TestFileStoreCarriesUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	seed := `{"sundial.settings":{"use_24_hour":true,"future_knob":"keep me"}}`
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path, testLogger())
	got, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !got.Use24Hour {
		t.Error("known field not loaded")
	}

	if err := store.Save(got); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if string(doc[StorageKey]["future_knob"]) != `"keep me"` {
		t.Errorf("unknown field dropped on save: %s", data)
	}
}

func TestFileStoreTreatsGarbageAsMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, ok, err := NewFileStore(path, testLogger()).Load()
	if err != nil {
		t.Fatalf("malformed file must not be an error: %v", err)
	}
	if ok {
		t.Error("malformed file must read as no stored settings")
	}
}
