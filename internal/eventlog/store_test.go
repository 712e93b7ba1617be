package eventlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"nathanbeddoewebdev/dcsim/internal/kv"
)

func openEvent(key string, ts time.Time) Entry {
	return Entry{
		Timestamp:   ts,
		Severity:    SeverityWarn,
		Domain:      "thermal",
		Code:        CodeThermalWarn,
		IncidentKey: key,
		Message:     "temperature high",
		RackID:      "rack-01",
		DeviceID:    "srv-01",
		State:       StateOpen,
	}
}

func resolveEvent(key string, ts time.Time) Entry {
	return Entry{
		Timestamp:   ts,
		Severity:    SeverityInfo,
		Domain:      "thermal",
		Code:        CodeThermalWarn,
		IncidentKey: key,
		Message:     "temperature recovered",
		RackID:      "rack-01",
		DeviceID:    "srv-01",
		State:       StateResolved,
		ResolvedAt:  &ts,
	}
}

func TestKey(t *testing.T) {
	if got := Key("thermal", CodeThermalWarn, "rack-01", "srv-01", ""); got != "thermal:THERMAL_WARN:rack-01:srv-01:-" {
		t.Errorf("Key = %q", got)
	}
	if got := Key("network", CodePortDown, "rack-01", "srv-01", "eth0"); got != "network:PORT_DOWN:rack-01:srv-01:eth0" {
		t.Errorf("Key = %q", got)
	}
}

func TestApply_OpenDedup(t *testing.T) {
	s := NewStore(kv.NewMemory(), nil)
	now := time.Now().UTC()
	key := Key("thermal", CodeThermalWarn, "rack-01", "srv-01", "")

	applied := s.Apply([]Entry{openEvent(key, now)})
	if len(applied) != 1 {
		t.Fatalf("first open applied %d events, want 1", len(applied))
	}

	applied = s.Apply([]Entry{openEvent(key, now.Add(time.Second))})
	if len(applied) != 0 {
		t.Fatalf("duplicate open applied %d events, want 0", len(applied))
	}
	if s.Len() != 1 || s.OpenCount() != 1 {
		t.Errorf("log=%d open=%d, want 1/1", s.Len(), s.OpenCount())
	}
}

func TestApply_ResolveClosesAndDedups(t *testing.T) {
	s := NewStore(kv.NewMemory(), nil)
	now := time.Now().UTC()
	key := Key("thermal", CodeThermalWarn, "rack-01", "srv-01", "")

	s.Apply([]Entry{openEvent(key, now)})
	applied := s.Apply([]Entry{resolveEvent(key, now.Add(time.Second))})
	if len(applied) != 1 {
		t.Fatalf("resolve applied %d events, want 1", len(applied))
	}
	if s.IsOpen(key) {
		t.Error("key still open after resolve")
	}

	// Resolving an already-closed key is a no-op; this is what makes the
	// edge-detection and reconciliation paths safe to run in one tick.
	applied = s.Apply([]Entry{resolveEvent(key, now.Add(2 * time.Second))})
	if len(applied) != 0 {
		t.Fatalf("double resolve applied %d events, want 0", len(applied))
	}
	if s.Len() != 2 {
		t.Errorf("log length = %d, want 2", s.Len())
	}
}

func TestDedupInvariant_NoTwoOpensWithoutResolve(t *testing.T) {
	s := NewStore(kv.NewMemory(), nil)
	now := time.Now().UTC()
	key := Key("power", CodePowerCrit, "rack-02", "srv-01", "")

	// Interleave opens and resolves, with duplicates thrown in.
	for i := 0; i < 10; i++ {
		s.Apply([]Entry{openEvent(key, now.Add(time.Duration(4*i) * time.Second))})
		s.Apply([]Entry{openEvent(key, now.Add(time.Duration(4*i+1) * time.Second))})
		s.Apply([]Entry{resolveEvent(key, now.Add(time.Duration(4*i+2) * time.Second))})
		s.Apply([]Entry{resolveEvent(key, now.Add(time.Duration(4*i+3) * time.Second))})
	}

	// Scan the log: every open for a key must be separated from the next
	// open by a resolve.
	openSeen := false
	for _, e := range s.Entries(ScopeAll) {
		switch e.State {
		case StateOpen:
			if openSeen {
				t.Fatal("two open entries without an intervening resolve")
			}
			openSeen = true
		case StateResolved:
			openSeen = false
		}
	}
}

func TestReplayConsistency_EveryPrefix(t *testing.T) {
	s := NewStore(kv.NewMemory(), nil)
	now := time.Now().UTC()

	keys := []string{
		Key("thermal", CodeThermalWarn, "rack-01", "srv-01", ""),
		Key("airflow", CodeAirflowCrit, "rack-01", "srv-02", ""),
		Key("network", CodePortDown, "rack-02", "sw-01", "swp1"),
	}
	for i := 0; i < 30; i++ {
		k := keys[i%len(keys)]
		if i%2 == 0 {
			s.Apply([]Entry{openEvent(k, now.Add(time.Duration(i) * time.Second))})
		} else {
			s.Apply([]Entry{resolveEvent(k, now.Add(time.Duration(i) * time.Second))})
		}
	}

	full := s.Entries(ScopeAll)
	for n := 0; n <= len(full); n++ {
		prefix := make([]*Entry, n)
		for i := 0; i < n; i++ {
			e := full[i]
			prefix[i] = &e
		}
		replayed := Replay(prefix)
		// Each prefix must be internally consistent: no key maps to a
		// resolved entry.
		for k, e := range replayed {
			if e.State != StateOpen {
				t.Fatalf("prefix %d: key %s maps to state %s", n, k, e.State)
			}
		}
	}

	// The full replay must match the live index exactly.
	ptrs := make([]*Entry, len(full))
	for i := range full {
		e := full[i]
		ptrs[i] = &e
	}
	replayed := Replay(ptrs)
	if len(replayed) != s.OpenCount() {
		t.Fatalf("replayed %d open, live index has %d", len(replayed), s.OpenCount())
	}
	for _, e := range s.Open() {
		r, ok := replayed[e.IncidentKey]
		if !ok {
			t.Fatalf("live open key %s missing from replay", e.IncidentKey)
		}
		if r.ID != e.ID {
			t.Errorf("key %s: replay ID %s != live ID %s", e.IncidentKey, r.ID, e.ID)
		}
	}
}

func TestRetention_DropsOldestAndPrunesIndex(t *testing.T) {
	s := NewStore(kv.NewMemory(), nil)
	now := time.Now().UTC()

	// First entry stays open, then fill the log past capacity with
	// open/resolve pairs on other keys.
	stale := Key("storage", CodeDriveSmartFail, "rack-01", "srv-01", "bay0")
	s.Apply([]Entry{openEvent(stale, now)})

	for i := 0; s.Len() < MaxEvents; i++ {
		k := Key("thermal", CodeThermalWarn, "rack-01", fmt.Sprintf("srv-%04d", i), "")
		s.Apply([]Entry{openEvent(k, now.Add(time.Duration(2*i+1) * time.Second))})
		s.Apply([]Entry{resolveEvent(k, now.Add(time.Duration(2*i+2) * time.Second))})
	}

	// One more push evicts the stale open entry.
	k := Key("thermal", CodeThermalWarn, "rack-05", "srv-01", "")
	s.Apply([]Entry{openEvent(k, now.Add(time.Hour))})

	if s.Len() != MaxEvents {
		t.Fatalf("log length = %d, want %d", s.Len(), MaxEvents)
	}
	if s.IsOpen(stale) {
		t.Error("evicted entry still present in open index")
	}

	// Index still replayable from the surviving log.
	entries := s.Entries(ScopeAll)
	ptrs := make([]*Entry, len(entries))
	for i := range entries {
		e := entries[i]
		ptrs[i] = &e
	}
	if got := len(Replay(ptrs)); got != s.OpenCount() {
		t.Errorf("replay of surviving log = %d open, index = %d", got, s.OpenCount())
	}
}

func TestAcknowledge(t *testing.T) {
	s := NewStore(kv.NewMemory(), nil)
	key := Key("thermal", CodeThermalCrit, "rack-01", "srv-01", "")
	s.Apply([]Entry{openEvent(key, time.Now().UTC())})

	e, err := s.Acknowledge(key)
	if err != nil {
		t.Fatalf("Acknowledge failed: %v", err)
	}
	if e.AckedAt == nil {
		t.Fatal("AckedAt not stamped")
	}

	if _, err := s.Acknowledge("thermal:THERMAL_WARN:rack-09:srv-09:-"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestLoad_RebuildsIndexByReplay(t *testing.T) {
	backing := kv.NewMemory()
	now := time.Now().UTC()

	s := NewStore(backing, nil)
	k1 := Key("thermal", CodeThermalWarn, "rack-01", "srv-01", "")
	k2 := Key("airflow", CodeAirflowWarn, "rack-01", "srv-02", "")
	s.Apply([]Entry{openEvent(k1, now), openEvent(k2, now)})
	s.Apply([]Entry{resolveEvent(k1, now.Add(time.Second))})

	// Fresh store over the same backing: index must come from replay.
	s2 := NewStore(backing, nil)
	s2.Load()

	if s2.Len() != 3 {
		t.Fatalf("loaded %d entries, want 3", s2.Len())
	}
	if s2.IsOpen(k1) {
		t.Error("resolved incident open after reload")
	}
	if !s2.IsOpen(k2) {
		t.Error("open incident lost after reload")
	}
}

func TestLoad_MalformedDataStartsEmpty(t *testing.T) {
	backing := kv.NewMemory()
	backing.Set(StorageKey, "{not json")

	s := NewStore(backing, nil)
	s.Load()

	if s.Len() != 0 || s.OpenCount() != 0 {
		t.Errorf("malformed load produced log=%d open=%d, want empty", s.Len(), s.OpenCount())
	}
}

type failingKV struct{ kv.Store }

func (f failingKV) Set(key, value string) error { return errors.New("disk full") }

func TestApply_PersistFailureIsSwallowed(t *testing.T) {
	s := NewStore(failingKV{kv.NewMemory()}, nil)
	key := Key("thermal", CodeThermalWarn, "rack-01", "srv-01", "")

	applied := s.Apply([]Entry{openEvent(key, time.Now().UTC())})
	if len(applied) != 1 {
		t.Fatal("apply should succeed in memory despite persist failure")
	}
	if !s.IsOpen(key) {
		t.Error("in-memory index lost on persist failure")
	}
}

func TestEntries_Scopes(t *testing.T) {
	s := NewStore(kv.NewMemory(), nil)
	now := time.Now().UTC()

	k1 := Key("thermal", CodeThermalWarn, "rack-01", "srv-01", "")
	k2 := Key("power", CodePowerWarn, "rack-01", "srv-02", "")
	s.Apply([]Entry{openEvent(k1, now)})
	s.Apply([]Entry{resolveEvent(k1, now.Add(time.Second))})
	s.Apply([]Entry{openEvent(k2, now.Add(2 * time.Second))})

	if got := len(s.Entries(ScopeAll)); got != 3 {
		t.Errorf("all = %d, want 3", got)
	}
	if got := len(s.Entries(ScopeResolved)); got != 1 {
		t.Errorf("resolved = %d, want 1", got)
	}

	open := s.Entries(ScopeOpen)
	if len(open) != 1 || open[0].IncidentKey != k2 {
		t.Errorf("open scope = %+v, want just %s", open, k2)
	}
}

func TestPersist_RoundTripsThroughJSON(t *testing.T) {
	backing := kv.NewMemory()
	s := NewStore(backing, nil)
	now := time.Now().UTC().Truncate(time.Millisecond)
	key := Key("network", CodePortDown, "rack-01", "srv-01", "eth0")

	e := openEvent(key, now)
	e.SubID = "eth0"
	s.Apply([]Entry{e})

	raw, ok, err := backing.Get(StorageKey)
	if err != nil || !ok {
		t.Fatalf("persisted slot missing: %v", err)
	}

	var loaded []Entry
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		t.Fatalf("persisted payload not JSON: %v", err)
	}
	if diff := cmp.Diff(s.Entries(ScopeAll), loaded); diff != "" {
		t.Errorf("persisted entries mismatch (-want +got):\n%s", diff)
	}
}
