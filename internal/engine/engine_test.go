package engine

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"nathanbeddoewebdev/dcsim/internal/eventlog"
	"nathanbeddoewebdev/dcsim/internal/kv"
	"nathanbeddoewebdev/dcsim/internal/logging"
	"nathanbeddoewebdev/dcsim/internal/topology"
)

func steppingClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	return New(topology.Default(), Options{
		Seed:   seed,
		Logger: logging.Discard(),
		Now:    steppingClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	})
}

func TestSameSeedSameRun(t *testing.T) {
	a := newTestEngine(t, 42)
	b := newTestEngine(t, 42)

	for i := 0; i < 50; i++ {
		a.Tick()
		b.Tick()
	}

	if diff := cmp.Diff(a.Events(eventlog.ScopeAll), b.Events(eventlog.ScopeAll)); diff != "" {
		t.Errorf("event logs diverged (-a +b):\n%s", diff)
	}
	for _, rack := range a.Topology().Racks {
		if diff := cmp.Diff(a.Snapshot(rack.ID), b.Snapshot(rack.ID)); diff != "" {
			t.Errorf("snapshots for %s diverged (-a +b):\n%s", rack.ID, diff)
		}
	}
}

func TestDifferentSeedDivergesEventually(t *testing.T) {
	a := newTestEngine(t, 1)
	b := newTestEngine(t, 2)

	a.Tick()
	b.Tick()

	rackID := a.Topology().Racks[0].ID
	if diff := cmp.Diff(a.Snapshot(rackID), b.Snapshot(rackID)); diff == "" {
		t.Error("expected different seeds to produce different telemetry")
	}
}

func TestStartupReconciliationHealsStaleIncidents(t *testing.T) {
	mem := kv.NewMemory()

	// A previous session left a thermal incident open for a device the
	// fresh baseline will read as healthy.
	prior := eventlog.NewStore(mem, logging.Discard())
	stale := eventlog.Entry{
		Timestamp:   time.Date(2025, 5, 31, 9, 0, 0, 0, time.UTC),
		Severity:    eventlog.SeverityWarn,
		Domain:      "thermal",
		Code:        eventlog.CodeThermalWarn,
		IncidentKey: eventlog.Key("thermal", eventlog.CodeThermalWarn, "rack-01", "srv-01", "-"),
		Message:     "CPU1 Temp at 88.0C",
		RackID:      "rack-01",
		DeviceID:    "srv-01",
		SubID:       "-",
		State:       eventlog.StateOpen,
	}
	if applied := prior.Apply([]eventlog.Entry{stale}); len(applied) != 1 {
		t.Fatalf("seeding stale incident: applied %d entries", len(applied))
	}

	e := New(topology.Default(), Options{
		Seed:    7,
		Backing: mem,
		Logger:  logging.Discard(),
		Now:     steppingClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	})

	if open := e.OpenIncidents(); len(open) != 0 {
		t.Fatalf("expected startup pass to resolve stale incident, still open: %v", open)
	}
	all := e.Events(eventlog.ScopeAll)
	if len(all) != 2 {
		t.Fatalf("expected open + resolve entries, got %d", len(all))
	}
	if all[1].State != eventlog.StateResolved {
		t.Errorf("second entry state = %s, want resolved", all[1].State)
	}
	if all[1].IncidentKey != stale.IncidentKey {
		t.Errorf("resolve key = %s, want %s", all[1].IncidentKey, stale.IncidentKey)
	}
}

func TestTickAdvancesCounterAndHistory(t *testing.T) {
	e := newTestEngine(t, 3)

	e.Tick()
	e.Tick()
	e.Tick()

	if got := e.Ticks(); got != 3 {
		t.Errorf("Ticks() = %d, want 3", got)
	}

	rack := e.Topology().Racks[0]
	dev := rack.Devices[0]
	key := topology.Key(rack.ID, dev.ID, "")
	vals := e.HistoryValues(key, "power")
	if len(vals) != 3 {
		t.Errorf("power history length = %d, want 3", len(vals))
	}
}

func TestClockStartStopIdempotent(t *testing.T) {
	e := newTestEngine(t, 5)
	c := NewClock(e, 2*time.Millisecond)

	c.Start()
	c.Start() // no-op
	time.Sleep(50 * time.Millisecond)
	c.Stop()
	c.Stop() // no-op

	after := e.Ticks()
	if after == 0 {
		t.Fatal("clock never ticked the engine")
	}
	time.Sleep(20 * time.Millisecond)
	if got := e.Ticks(); got != after {
		t.Errorf("engine ticked after Stop: %d -> %d", after, got)
	}
}

func TestAcknowledgeUnknownKey(t *testing.T) {
	e := newTestEngine(t, 9)
	if _, err := e.Acknowledge("thermal:THERMAL_WARN:rack-99:srv-01:-"); err == nil {
		t.Error("expected error acknowledging unknown incident key")
	}
}

func TestRackStatusesFollowTopologyOrder(t *testing.T) {
	e := newTestEngine(t, 11)
	e.Tick()

	statuses := e.RackStatuses()
	racks := e.Topology().Racks
	if len(statuses) != len(racks) {
		t.Fatalf("got %d statuses for %d racks", len(statuses), len(racks))
	}
	for i, st := range statuses {
		if st.ID != racks[i].ID {
			t.Errorf("status[%d].ID = %s, want %s", i, st.ID, racks[i].ID)
		}
		if st.Devices != len(racks[i].Devices) {
			t.Errorf("status[%d].Devices = %d, want %d", i, st.Devices, len(racks[i].Devices))
		}
		if st.PowerW <= 0 {
			t.Errorf("status[%d].PowerW = %f, want positive", i, st.PowerW)
		}
	}
}
