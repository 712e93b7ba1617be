package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"nathanbeddoewebdev/dcsim/internal/config"
)

// setupTestConfig points the config package at a temp file and returns cleanup.
func setupTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	config.SetPath(path)
	t.Cleanup(config.ResetPath)
	return path
}

// execConfig creates the config command, wires up output buffers, runs with the
// given args, and returns what was written to stdout and stderr.
func execConfig(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	cmd.Execute()
	return outBuf.String(), errBuf.String()
}

func TestSet_Seed(t *testing.T) {
	setupTestConfig(t)

	stdout, stderr := execConfig(t, "set", "seed", "42")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, `"42"`) {
		t.Errorf("expected confirmation with value, got: %s", stdout)
	}

	// Verify it was persisted.
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Seed != 42 {
		t.Errorf("expected Seed 42, got %d", cfg.Seed)
	}
}

func TestSet_TickInterval_RejectsNonNumeric(t *testing.T) {
	setupTestConfig(t)

	_, stderr := execConfig(t, "set", "tick-interval-ms", "fast")

	if !strings.Contains(stderr, "must be an integer") {
		t.Errorf("expected integer parse error, got: %s", stderr)
	}
}

func TestSet_UnknownKey(t *testing.T) {
	setupTestConfig(t)

	_, stderr := execConfig(t, "set", "bogus-key", "value")

	if !strings.Contains(stderr, "unknown configuration key") {
		t.Errorf("expected 'unknown configuration key' error, got: %s", stderr)
	}
}

func TestSet_KeyCaseInsensitive(t *testing.T) {
	setupTestConfig(t)

	stdout, stderr := execConfig(t, "set", "SEED", "7")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, "seed set to") {
		t.Errorf("expected normalized key in confirmation, got: %s", stdout)
	}
}
