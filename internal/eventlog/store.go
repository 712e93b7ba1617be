package eventlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"nathanbeddoewebdev/dcsim/internal/kv"
)

// MaxEvents bounds the log; the oldest entries drop first.
const MaxEvents = 2000

// StorageKey is the kv slot holding the serialized log.
const StorageKey = "eventlog"

// Scope selects a slice of the log for listing and export.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeOpen     Scope = "open"
	ScopeResolved Scope = "resolved"
)

// Store owns the event log and the open-incident index.
//
// The log is append-only with one sanctioned mutation: Acknowledge stamps
// AckedAt on an open entry in place. Every applied batch, ack, and clear
// re-persists the tail of the log; persistence failures are logged and
// swallowed so the in-memory log keeps operating.
type Store struct {
	kv  kv.Store
	log *slog.Logger

	entries []*Entry
	open    map[string]*Entry
	seq     int
}

// NewStore returns an empty store persisting through backing.
func NewStore(backing kv.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:   backing,
		log:  logger,
		open: make(map[string]*Entry),
	}
}

// Load reads the persisted log and rebuilds the open-incident index by
// replay. Malformed or unreadable data loads as an empty log.
func (s *Store) Load() {
	s.entries = nil
	s.open = make(map[string]*Entry)
	s.seq = 0

	raw, ok, err := s.kv.Get(StorageKey)
	if err != nil {
		s.log.Warn("event log load failed, starting empty", "error", err)
		return
	}
	if !ok {
		return
	}

	var entries []*Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.log.Warn("event log unreadable, starting empty", "error", err)
		return
	}

	s.entries = entries
	s.open = Replay(entries)
	s.seq = len(entries)
}

// Replay folds a log into its open-incident index: an entry is open if no
// later resolved entry shares its incident key.
func Replay(entries []*Entry) map[string]*Entry {
	open := make(map[string]*Entry)
	for _, e := range entries {
		switch e.State {
		case StateOpen:
			open[e.IncidentKey] = e
		case StateResolved:
			delete(open, e.IncidentKey)
		}
	}
	return open
}

// Apply appends a batch of detector events, keeping the index consistent
// and enforcing the at-most-one-open-per-key invariant: an open for an
// already-open key and a resolve for a closed key are both dropped.
// Persists only when at least one entry was applied.
func (s *Store) Apply(events []Entry) []Entry {
	var applied []Entry
	for i := range events {
		e := events[i]
		switch e.State {
		case StateOpen:
			if _, isOpen := s.open[e.IncidentKey]; isOpen {
				continue
			}
			s.append(&e)
			s.open[e.IncidentKey] = &e
		case StateResolved:
			if _, isOpen := s.open[e.IncidentKey]; !isOpen {
				continue
			}
			s.append(&e)
			delete(s.open, e.IncidentKey)
		default:
			continue
		}
		applied = append(applied, e)
	}

	if len(applied) > 0 {
		s.persist()
	}
	return applied
}

func (s *Store) append(e *Entry) {
	s.seq++
	if e.ID == "" {
		e.ID = fmt.Sprintf("evt-%06d", s.seq)
	}
	s.entries = append(s.entries, e)
	if len(s.entries) > MaxEvents {
		dropped := s.entries[:len(s.entries)-MaxEvents]
		s.entries = s.entries[len(s.entries)-MaxEvents:]
		// Retention may outlive an open entry; the index mirrors the log,
		// so the dropped key goes too. Reconciliation re-opens the
		// condition if it still holds.
		for _, d := range dropped {
			if cur, ok := s.open[d.IncidentKey]; ok && cur == d {
				delete(s.open, d.IncidentKey)
			}
		}
	}
}

// Acknowledge stamps AckedAt on the open entry for key, the only in-place
// mutation the log permits. It returns the updated entry.
func (s *Store) Acknowledge(key string) (*Entry, error) {
	e, ok := s.open[key]
	if !ok {
		return nil, fmt.Errorf("eventlog: no open incident for key %q", key)
	}
	now := time.Now().UTC()
	e.AckedAt = &now
	s.persist()
	return e, nil
}

// Clear empties the log and the index.
func (s *Store) Clear() {
	s.entries = nil
	s.open = make(map[string]*Entry)
	s.seq = 0
	s.persist()
}

// persist serializes the log tail into the kv slot. Failure costs only
// cross-session durability, never the in-memory state.
func (s *Store) persist() {
	data, err := json.Marshal(s.entries)
	if err != nil {
		s.log.Warn("event log serialize failed", "error", err)
		return
	}
	if err := s.kv.Set(StorageKey, string(data)); err != nil {
		s.log.Warn("event log persist failed", "error", err)
	}
}

// Entries returns copies of the log entries in the given scope, in log
// (ascending timestamp) order.
func (s *Store) Entries(scope Scope) []Entry {
	var out []Entry
	for _, e := range s.entries {
		switch scope {
		case ScopeOpen:
			if e.State != StateOpen {
				continue
			}
			// Only currently-open incidents, not every entry that was
			// once open.
			if cur, ok := s.open[e.IncidentKey]; !ok || cur != e {
				continue
			}
		case ScopeResolved:
			if e.State != StateResolved {
				continue
			}
		}
		out = append(out, *e)
	}
	return out
}

// Open returns copies of the currently-open incidents sorted by key for a
// stable presentation order.
func (s *Store) Open() []Entry {
	keys := make([]string, 0, len(s.open))
	for k := range s.open {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, *s.open[k])
	}
	return out
}

// IsOpen reports whether an incident is currently open for key.
func (s *Store) IsOpen(key string) bool {
	_, ok := s.open[key]
	return ok
}

// Len returns the number of log entries.
func (s *Store) Len() int { return len(s.entries) }

// OpenCount returns the number of currently-open incidents.
func (s *Store) OpenCount() int { return len(s.open) }
