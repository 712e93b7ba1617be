package config

import (
	"fmt"
	"strconv"
	"strings"
)

// KeySpec describes a single configuration key.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "tick-interval-ms").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Get returns the current value for this key from a loaded Config.
	Get func(cfg *Config) string

	// Set applies a value for this key to the given Config (in memory only;
	// the caller is responsible for calling Save). Returns an error when the
	// value does not parse for the key's type.
	Set func(cfg *Config, value string) error
}

// Keys is the authoritative list of all supported configuration keys.
// To add a new option: add a field to Config and append a KeySpec here.
var Keys = []KeySpec{
	{
		Name:        "seed",
		Description: "Random seed for telemetry generation (0 derives from startup time)",
		Get:         func(cfg *Config) string { return strconv.FormatInt(cfg.Seed, 10) },
		Set: func(cfg *Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("config: seed must be an integer: %w", err)
			}
			cfg.Seed = n
			return nil
		},
	},
	{
		Name:        "tick-interval-ms",
		Description: "Simulation tick cadence in milliseconds (default 1000)",
		Get:         func(cfg *Config) string { return strconv.Itoa(cfg.TickIntervalMS) },
		Set: func(cfg *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: tick-interval-ms must be an integer: %w", err)
			}
			if n < 0 {
				return fmt.Errorf("config: tick-interval-ms must not be negative")
			}
			cfg.TickIntervalMS = n
			return nil
		},
	},
	{
		Name:        "db-path",
		Description: "Event-log database file (empty uses the platform default)",
		Get:         func(cfg *Config) string { return cfg.DBPath },
		Set: func(cfg *Config, v string) error {
			cfg.DBPath = v
			return nil
		},
	},
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace.
func Lookup(name string) *KeySpec {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	if len(Keys) == 0 {
		return ""
	}

	// Find the longest key name for alignment.
	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s\n", maxLen, k.Name, k.Description)
	}
	return b.String()
}
