// Package detect turns consecutive telemetry snapshots into incident
// open/resolve events.
//
// Every tracked condition — the five per-domain severity conditions and the
// per-port / per-drive binary conditions — runs through the same sticky
// machine: a condition evaluates to active, ok, or n/a against a snapshot;
// an ok→active edge opens an incident, an active→ok edge resolves it, and a
// reconciliation pass squares the open-incident index with the current
// snapshot regardless of edges. Reconciliation is what heals a log that
// drifted from the telemetry, whether by a missed tick, a process restart,
// or retention evicting an open entry.
package detect

import (
	"fmt"
	"time"

	"nathanbeddoewebdev/dcsim/internal/eventlog"
	"nathanbeddoewebdev/dcsim/internal/telemetry"
	"nathanbeddoewebdev/dcsim/internal/topology"
)

// OpenIndex is the read view of the event store the detector dedups against.
type OpenIndex interface {
	IsOpen(key string) bool
}

// Detector diffs snapshots per rack and emits event log entries.
// It never errors: missing telemetry evaluates as n/a and produces nothing.
type Detector struct {
	index OpenIndex
}

// New returns a detector deduplicating against index.
func New(index OpenIndex) *Detector {
	return &Detector{index: index}
}

// condState is a condition's evaluation against one snapshot.
type condState int

const (
	condNA condState = iota // no applicable telemetry
	condOK
	condActive
)

// condition is one sticky incident condition on one device. The same shape
// serves the domain severity conditions and the binary port/drive ones; they
// differ only in their eval function and the codes they can open under.
type condition struct {
	domain string
	subID  string
	codes  []string

	// eval classifies the condition against a snapshot. When active, it
	// also reports the code variant to open under, the entry severity,
	// and a reading for the message.
	eval func(dt *telemetry.DeviceTelemetry) (st condState, code string, sev eventlog.EventSeverity, detail string)
}

// Diff compares consecutive snapshots for a rack and returns the tick's
// events in topology traversal order. A device missing from prev evaluates
// as n/a, so an abnormal reading still opens (n/a→active is an open edge).
func (d *Detector) Diff(rack topology.Rack, prev, next *telemetry.RackTelemetry) []eventlog.Entry {
	var out []eventlog.Entry
	ts := timestampOf(next)

	for _, dev := range rack.Devices {
		nextDT := next.Device(dev.ID)
		prevDT := prev.Device(dev.ID)

		for _, c := range conditions(dev) {
			pState, _, _, _ := c.eval(prevDT)
			nState, code, sev, detail := c.eval(nextDT)

			switch {
			case pState != condActive && nState == condActive:
				key := eventlog.Key(c.domain, code, rack.ID, dev.ID, c.subID)
				if d.index.IsOpen(key) {
					continue
				}
				out = append(out, openEntry(c, code, sev, detail, rack.ID, dev.ID, ts))
			case pState == condActive && nState == condOK:
				out = append(out, d.resolveEntries(c, rack.ID, dev.ID, ts)...)
			}
		}
	}
	return out
}

// Reconcile squares the open-incident index with the current snapshot,
// independent of edges: an open incident whose condition evaluates ok is
// resolved, and an active condition with no open entry under any of its
// codes is opened. The open side covers incidents evicted by log retention
// and logs cleared while the condition still holds. Running it twice on
// unchanged telemetry yields nothing the second time because the first
// pass, once applied, leaves the index matching the snapshot.
func (d *Detector) Reconcile(rack topology.Rack, current *telemetry.RackTelemetry) []eventlog.Entry {
	var out []eventlog.Entry
	ts := timestampOf(current)

	for _, dev := range rack.Devices {
		dt := current.Device(dev.ID)
		for _, c := range conditions(dev) {
			st, code, sev, detail := c.eval(dt)
			switch st {
			case condOK:
				out = append(out, d.resolveEntries(c, rack.ID, dev.ID, ts)...)
			case condActive:
				if d.anyOpen(c, rack.ID, dev.ID) {
					continue
				}
				out = append(out, openEntry(c, code, sev, detail, rack.ID, dev.ID, ts))
			}
		}
	}
	return out
}

// anyOpen reports whether any code variant of the condition is open. An
// active condition re-opens only when none are, so a warn incident that
// escalates to crit keeps its single open entry.
func (d *Detector) anyOpen(c condition, rackID, deviceID string) bool {
	for _, code := range c.codes {
		if d.index.IsOpen(eventlog.Key(c.domain, code, rackID, deviceID, c.subID)) {
			return true
		}
	}
	return false
}

// resolveEntries emits a resolve for whichever code variants of the
// condition are currently open.
func (d *Detector) resolveEntries(c condition, rackID, deviceID string, ts time.Time) []eventlog.Entry {
	var out []eventlog.Entry
	for _, code := range c.codes {
		key := eventlog.Key(c.domain, code, rackID, deviceID, c.subID)
		if !d.index.IsOpen(key) {
			continue
		}
		out = append(out, eventlog.Entry{
			Timestamp:   ts,
			Severity:    eventlog.SeverityInfo,
			Domain:      c.domain,
			Code:        code,
			IncidentKey: key,
			Message:     fmt.Sprintf("%s recovered on %s", c.domain, topology.Key(rackID, deviceID, c.subID)),
			RackID:      rackID,
			DeviceID:    deviceID,
			SubID:       c.subID,
			State:       eventlog.StateResolved,
			ResolvedAt:  &ts,
		})
	}
	return out
}

func openEntry(c condition, code string, sev eventlog.EventSeverity, detail, rackID, deviceID string, ts time.Time) eventlog.Entry {
	msg := fmt.Sprintf("%s on %s", c.domain, topology.Key(rackID, deviceID, c.subID))
	if detail != "" {
		msg += ": " + detail
	}
	return eventlog.Entry{
		Timestamp:   ts,
		Severity:    sev,
		Domain:      c.domain,
		Code:        code,
		IncidentKey: eventlog.Key(c.domain, code, rackID, deviceID, c.subID),
		Message:     msg,
		RackID:      rackID,
		DeviceID:    deviceID,
		SubID:       c.subID,
		State:       eventlog.StateOpen,
	}
}

func timestampOf(rt *telemetry.RackTelemetry) time.Time {
	if rt == nil {
		return time.Time{}
	}
	return rt.Timestamp
}
