package engine

import (
	"nathanbeddoewebdev/dcsim/internal/severity"
)

// RackStatus is a per-rack rollup derived from the latest snapshot.
type RackStatus struct {
	ID       string
	Name     string
	Severity severity.Severity
	Devices  int
	PowerW   float64
	AvgTempC float64
	Open     int
}

// DeviceStatus carries one device's per-domain severities plus its rollup.
type DeviceStatus struct {
	RackID   string
	DeviceID string
	Name     string
	Severity severity.Severity
	Domains  map[severity.Domain]severity.Severity
	PowerW   float64
	MaxTempC float64
	HasTemp  bool
}

// RackStatuses computes the rollup for every rack in topology order.
func (e *Engine) RackStatuses() []RackStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	openByRack := make(map[string]int)
	for _, entry := range e.ev.Open() {
		openByRack[entry.RackID]++
	}

	out := make([]RackStatus, 0, len(e.topo.Racks))
	for _, rack := range e.topo.Racks {
		snap := e.snapshots[rack.ID]
		st := RackStatus{
			ID:      rack.ID,
			Name:    rack.Name,
			Devices: len(rack.Devices),
			Open:    openByRack[rack.ID],
		}
		worst := severity.NA
		temps := 0
		for _, dev := range rack.Devices {
			dt := snap.Device(dev.ID)
			worst = severity.Worst(worst, severity.DeviceWorst(dev, dt))
			if dt != nil {
				st.PowerW += dt.PowerWatts
				if t, ok := dt.MaxTemp(); ok {
					st.AvgTempC += t
					temps++
				}
			}
		}
		if temps > 0 {
			st.AvgTempC /= float64(temps)
		}
		st.Severity = worst
		out = append(out, st)
	}
	return out
}

// DeviceStatuses computes per-domain severities for every device in a rack.
func (e *Engine) DeviceStatuses(rackID string) []DeviceStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	rack, ok := e.topo.Rack(rackID)
	if !ok {
		return nil
	}
	snap := e.snapshots[rackID]

	out := make([]DeviceStatus, 0, len(rack.Devices))
	for _, dev := range rack.Devices {
		dt := snap.Device(dev.ID)
		st := DeviceStatus{
			RackID:   rackID,
			DeviceID: dev.ID,
			Name:     dev.Name,
			Severity: severity.DeviceWorst(dev, dt),
			Domains:  make(map[severity.Domain]severity.Severity, len(severity.Domains)),
		}
		for _, dom := range severity.Domains {
			st.Domains[dom] = severity.Classify(dom, dev, dt)
		}
		if dt != nil {
			st.PowerW = dt.PowerWatts
			st.MaxTempC, st.HasTemp = dt.MaxTemp()
		}
		out = append(out, st)
	}
	return out
}

// Severity returns the worst severity across the whole datacenter.
func (e *Engine) Severity() severity.Severity {
	e.mu.Lock()
	defer e.mu.Unlock()

	worst := severity.NA
	for _, rack := range e.topo.Racks {
		snap := e.snapshots[rack.ID]
		for _, dev := range rack.Devices {
			worst = severity.Worst(worst, severity.DeviceWorst(dev, snap.Device(dev.ID)))
		}
	}
	return worst
}
