// Package kv is the key-value persistence port for the simulation core.
// The event log is serialized into a single slot; which backend holds it
// (SQLite on disk, memory in tests) is invisible to the core.
package kv

// Store is the persistence contract: get a value by key, or set it.
// Get reports absence separately from failure.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Memory is an in-process Store for tests and the --ephemeral run mode.
type Memory struct {
	m map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

// Get returns the stored value for key.
func (s *Memory) Get(key string) (string, bool, error) {
	v, ok := s.m[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *Memory) Set(key, value string) error {
	s.m[key] = value
	return nil
}
