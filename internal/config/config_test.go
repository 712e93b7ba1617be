package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Seed != 0 || cfg.TickIntervalMS != 0 || cfg.DBPath != "" {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dcsim", "config.json")

	want := &Config{Seed: 42, TickIntervalMS: 250, DBPath: "/tmp/dc.db"}
	if err := want.SaveTo(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deep")
	path := filepath.Join(dir, "config.json")

	cfg := &Config{Seed: 7}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Verify the file exists.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file at %s: %v", path, err)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json}"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestSave_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	first := &Config{Seed: 1}
	if err := first.SaveTo(path); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	second := &Config{Seed: 2}
	if err := second.SaveTo(path); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got.Seed != 2 {
		t.Errorf("expected Seed 2, got %d", got.Seed)
	}
}

func TestInterval_Default(t *testing.T) {
	cfg := &Config{}
	if got := cfg.Interval(); got != time.Second {
		t.Errorf("Interval() = %v, want 1s", got)
	}
}

func TestInterval_Configured(t *testing.T) {
	cfg := &Config{TickIntervalMS: 250}
	if got := cfg.Interval(); got != 250*time.Millisecond {
		t.Errorf("Interval() = %v, want 250ms", got)
	}
}
