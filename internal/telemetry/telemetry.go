// Package telemetry holds the per-tick sensor snapshots and the seeded
// generator that advances them.
//
// A snapshot is immutable once produced: every tick derives a fresh
// RackTelemetry from the previous one, and the previous value is only read
// (by the history buffer and the incident detector) before being discarded.
package telemetry

import "time"

// RackTelemetry is one rack's readings at a single tick.
type RackTelemetry struct {
	RackID    string
	Timestamp time.Time
	Devices   map[string]*DeviceTelemetry
}

// Device returns the telemetry for a device, or nil when absent.
func (rt *RackTelemetry) Device(id string) *DeviceTelemetry {
	if rt == nil {
		return nil
	}
	return rt.Devices[id]
}

// DeviceTelemetry is the full reading set for one device. Named sensor maps
// use nil values for sensors the device does not expose; consumers skip nil
// rather than treating it as zero.
type DeviceTelemetry struct {
	PowerWatts float64
	Temps      map[string]*float64
	Fans       map[string]*float64
	Voltages   map[string]*float64
	Ports      map[string]*PortTelemetry
	Drives     map[string]*DriveTelemetry
}

// MaxTemp returns the highest non-nil temperature and whether one exists.
func (dt *DeviceTelemetry) MaxTemp() (float64, bool) {
	if dt == nil {
		return 0, false
	}
	var max float64
	found := false
	for _, v := range dt.Temps {
		if v == nil {
			continue
		}
		if !found || *v > max {
			max = *v
			found = true
		}
	}
	return max, found
}

// MinFan returns the lowest non-nil fan RPM and whether one exists.
func (dt *DeviceTelemetry) MinFan() (float64, bool) {
	if dt == nil {
		return 0, false
	}
	var min float64
	found := false
	for _, v := range dt.Fans {
		if v == nil {
			continue
		}
		if !found || *v < min {
			min = *v
			found = true
		}
	}
	return min, found
}

// PortTelemetry is the link state and counter set for one NIC port.
// Counters are cumulative and monotonically increasing (a reset to zero is
// possible only when a feed restarts; rate derivation clamps at zero).
type PortTelemetry struct {
	LinkUp    bool
	RxPackets uint64
	TxPackets uint64
	RxBytes   uint64
	TxBytes   uint64
	RxErrors  uint64
	TxErrors  uint64
	RxMissed  uint64
}

// Errors sums the port's error counters.
func (pt *PortTelemetry) Errors() uint64 {
	if pt == nil {
		return 0
	}
	return pt.RxErrors + pt.TxErrors + pt.RxMissed
}

// DriveTelemetry is the health reading set for one drive bay.
type DriveTelemetry struct {
	TempC          float64
	UtilizationPct float64
	SmartOK        bool
}

func ptr(v float64) *float64 { return &v }
