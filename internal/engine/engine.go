// Package engine owns the simulation state and drives it one atomic tick
// at a time: generate → history → detect → apply/persist.
//
// All mutable state (latest snapshots, history, event log, open-incident
// index) lives behind one controller guarded by a single mutex, so readers
// like the dashboard only ever observe fully-consistent post-tick values.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nathanbeddoewebdev/dcsim/internal/detect"
	"nathanbeddoewebdev/dcsim/internal/eventlog"
	"nathanbeddoewebdev/dcsim/internal/history"
	"nathanbeddoewebdev/dcsim/internal/kv"
	"nathanbeddoewebdev/dcsim/internal/severity"
	"nathanbeddoewebdev/dcsim/internal/telemetry"
	"nathanbeddoewebdev/dcsim/internal/topology"
)

// Options configures a new Engine.
type Options struct {
	// Seed for the telemetry generator's pseudo-random stream.
	Seed int64

	// Backing is the persistence port for the event log. Defaults to an
	// in-memory store (no cross-session durability).
	Backing kv.Store

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now overrides the tick clock source. Intended for testing.
	Now func() time.Time
}

// Engine is the simulation controller.
type Engine struct {
	mu sync.Mutex

	log  *slog.Logger
	topo topology.DataCenter
	gen  *telemetry.Generator
	hist *history.Buffer
	det  *detect.Detector
	ev   *eventlog.Store
	now  func() time.Time

	snapshots map[string]*telemetry.RackTelemetry
	ticks     uint64
}

// New builds an engine over the given topology, loads the persisted event
// log, seeds baseline telemetry, and runs the startup reconciliation pass
// that heals incidents left open by a previous session.
func New(topo topology.DataCenter, opts Options) *Engine {
	if opts.Backing == nil {
		opts.Backing = kv.NewMemory()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	ev := eventlog.NewStore(opts.Backing, opts.Logger)
	ev.Load()

	e := &Engine{
		log:       opts.Logger,
		topo:      topo,
		gen:       telemetry.NewGenerator(opts.Seed),
		hist:      history.NewBuffer(),
		det:       detect.New(ev),
		ev:        ev,
		now:       opts.Now,
		snapshots: make(map[string]*telemetry.RackTelemetry, len(topo.Racks)),
	}

	now := e.now()
	for _, rack := range topo.Racks {
		e.snapshots[rack.ID] = e.gen.Seed(rack, now)
	}

	e.reconcileAll()
	return e
}

// reconcileAll feeds each rack's current snapshot to the detector as both
// prev and next: no edges fire, only the reconciliation pass squaring the
// loaded log with the baseline telemetry.
func (e *Engine) reconcileAll() {
	adjusted := 0
	for _, rack := range e.topo.Racks {
		snap := e.snapshots[rack.ID]
		events := e.det.Diff(rack, snap, snap)
		events = append(events, e.det.Reconcile(rack, snap)...)
		adjusted += len(e.ev.Apply(events))
	}
	if adjusted > 0 {
		e.log.Info("startup reconciliation adjusted the event log", "count", adjusted)
	}
}

// Tick advances the whole datacenter by one step. Each rack is stepped,
// recorded into history, diffed, and the resulting events applied and
// persisted before the next snapshot becomes current.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	applied := 0
	for _, rack := range e.topo.Racks {
		prev := e.snapshots[rack.ID]
		next := e.gen.Step(rack, prev, now)

		e.hist.Ingest(rack, prev, next)

		events := e.det.Diff(rack, prev, next)
		events = append(events, e.det.Reconcile(rack, next)...)
		applied += len(e.ev.Apply(events))

		e.snapshots[rack.ID] = next
	}
	e.ticks++

	e.log.Debug("tick complete",
		"tick", e.ticks,
		"events", applied,
		"open", e.ev.OpenCount(),
	)
}

// Ticks returns the number of completed ticks.
func (e *Engine) Ticks() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}

// Topology returns the immutable datacenter graph.
func (e *Engine) Topology() topology.DataCenter { return e.topo }

// Snapshot returns the latest snapshot for a rack. Snapshots are never
// mutated after production; callers must treat the result as read-only.
func (e *Engine) Snapshot(rackID string) *telemetry.RackTelemetry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshots[rackID]
}

// Classify computes one domain's severity for a device from the latest
// snapshot. The same function feeds both the detector and any rendering,
// so the two cannot diverge.
func (e *Engine) Classify(dom severity.Domain, rackID, deviceID string) severity.Severity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.classifyLocked(dom, rackID, deviceID)
}

func (e *Engine) classifyLocked(dom severity.Domain, rackID, deviceID string) severity.Severity {
	rack, ok := e.topo.Rack(rackID)
	if !ok {
		return severity.NA
	}
	dev, ok := rack.Device(deviceID)
	if !ok {
		return severity.NA
	}
	return severity.Classify(dom, dev, e.snapshots[rackID].Device(deviceID))
}

// History returns the recorded points for (entityKey, metricKey).
func (e *Engine) History(entityKey, metricKey string) []history.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.Series(entityKey, metricKey)
}

// HistoryValues returns just the values for (entityKey, metricKey).
func (e *Engine) HistoryValues(entityKey, metricKey string) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.Values(entityKey, metricKey)
}

// HistoryMetrics lists the metric keys recorded for an entity.
func (e *Engine) HistoryMetrics(entityKey string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.Metrics(entityKey)
}

// Events returns a copy of the log entries in scope.
func (e *Engine) Events(scope eventlog.Scope) []eventlog.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ev.Entries(scope)
}

// OpenIncidents returns the currently-open incidents.
func (e *Engine) OpenIncidents() []eventlog.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ev.Open()
}

// Acknowledge stamps the open incident for key.
func (e *Engine) Acknowledge(key string) (*eventlog.Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := e.ev.Acknowledge(key)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return entry, nil
}

// ClearLog empties the event log and the open-incident index.
func (e *Engine) ClearLog() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ev.Clear()
}
