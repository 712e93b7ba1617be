package config

import (
	"strings"
	"testing"
)

func TestLookup_Exists(t *testing.T) {
	spec := Lookup("tick-interval-ms")
	if spec == nil {
		t.Fatal("expected to find key 'tick-interval-ms', got nil")
	}
	if spec.Name != "tick-interval-ms" {
		t.Errorf("expected Name %q, got %q", "tick-interval-ms", spec.Name)
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	spec := Lookup("SEED")
	if spec == nil {
		t.Fatal("expected case-insensitive lookup to succeed")
	}
	if spec.Name != "seed" {
		t.Errorf("expected Name %q, got %q", "seed", spec.Name)
	}
}

func TestLookup_NotFound(t *testing.T) {
	spec := Lookup("nonexistent-key")
	if spec != nil {
		t.Errorf("expected nil for unknown key, got %+v", spec)
	}
}

func TestKeys_AllHaveGetAndSet(t *testing.T) {
	for _, k := range Keys {
		if k.Get == nil {
			t.Errorf("key %q has nil Get function", k.Name)
		}
		if k.Set == nil {
			t.Errorf("key %q has nil Set function", k.Name)
		}
		if k.Description == "" {
			t.Errorf("key %q has empty Description", k.Name)
		}
	}
}

func TestKeys_GetSetRoundtrip(t *testing.T) {
	values := map[string]string{
		"seed":             "1234",
		"tick-interval-ms": "500",
		"db-path":          "/tmp/dc.db",
	}
	for _, k := range Keys {
		v, ok := values[k.Name]
		if !ok {
			t.Fatalf("no test value registered for key %q", k.Name)
		}
		cfg := &Config{}
		if err := k.Set(cfg, v); err != nil {
			t.Fatalf("key %q: Set(%q) failed: %v", k.Name, v, err)
		}
		if got := k.Get(cfg); got != v {
			t.Errorf("key %q: Set then Get = %q, want %q", k.Name, got, v)
		}
	}
}

func TestKeys_SetRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"seed":             "not-a-number",
		"tick-interval-ms": "-5",
	}
	for name, v := range cases {
		spec := Lookup(name)
		if spec == nil {
			t.Fatalf("key %q not found", name)
		}
		if err := spec.Set(&Config{}, v); err == nil {
			t.Errorf("key %q: expected error for value %q", name, v)
		}
	}
}

func TestKeyNames(t *testing.T) {
	names := KeyNames()
	if len(names) != len(Keys) {
		t.Fatalf("expected %d names, got %d", len(Keys), len(names))
	}
	for i, name := range names {
		if name != Keys[i].Name {
			t.Errorf("index %d: expected %q, got %q", i, Keys[i].Name, name)
		}
	}
}

func TestKeysHelp_ContainsAllKeys(t *testing.T) {
	help := KeysHelp()
	if !strings.Contains(help, "Available keys:") {
		t.Error("expected 'Available keys:' header in help output")
	}
	for _, k := range Keys {
		if !strings.Contains(help, k.Name) {
			t.Errorf("expected key %q in help output", k.Name)
		}
		if !strings.Contains(help, k.Description) {
			t.Errorf("expected description %q in help output", k.Description)
		}
	}
}
