// Package topology defines the static datacenter graph: racks, the devices
// mounted in them, and per-device drive bays and NIC ports.
//
// The graph is built once at startup and never mutated afterwards. Device,
// drive, and port IDs are only unique within their rack, so any reference
// that crosses a rack boundary must carry the rack ID as well (see Key).
package topology

import "fmt"

// DeviceType identifies the class of equipment in a rack slot.
type DeviceType string

const (
	TypeServer DeviceType = "server"
	TypeSwitch DeviceType = "switch"
	TypePDU    DeviceType = "pdu"
)

// Default power budgets in watts, applied when a device does not
// declare its own.
const (
	DefaultServerBudgetW = 650
	DefaultSwitchBudgetW = 250
)

// NicPort is a single network port on a device.
type NicPort struct {
	ID        string `json:"id"`
	SpeedGbps int    `json:"speed_gbps"`
}

// DriveBay is a single drive slot on a device.
type DriveBay struct {
	ID         string `json:"id"`
	CapacityGB int    `json:"capacity_gb"`
}

// Device describes one piece of rack equipment and the sensors it exposes.
// The sensor name lists drive which readings the telemetry generator
// produces; a device with no fan sensors simply has no airflow telemetry.
type Device struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Type         DeviceType `json:"type"`
	PowerBudgetW float64    `json:"power_budget_w,omitempty"`
	TempSensors  []string   `json:"temp_sensors,omitempty"`
	FanSensors   []string   `json:"fan_sensors,omitempty"`
	VoltageRails []string   `json:"voltage_rails,omitempty"`
	Ports        []NicPort  `json:"ports,omitempty"`
	Drives       []DriveBay `json:"drives,omitempty"`
}

// Budget returns the device's power budget, falling back to the
// type default when none is configured. Unpowered types report 0.
func (d Device) Budget() float64 {
	if d.PowerBudgetW > 0 {
		return d.PowerBudgetW
	}
	switch d.Type {
	case TypeServer:
		return DefaultServerBudgetW
	case TypeSwitch:
		return DefaultSwitchBudgetW
	default:
		return 0
	}
}

// Powered reports whether the device draws metered power.
func (d Device) Powered() bool {
	return d.Type == TypeServer || d.Type == TypeSwitch
}

// Rack holds an ordered list of devices.
type Rack struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Devices []Device `json:"devices"`
}

// Device looks up a device by ID within the rack.
func (r Rack) Device(id string) (Device, bool) {
	for _, d := range r.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return Device{}, false
}

// DataCenter is the root of the topology graph.
type DataCenter struct {
	Name  string `json:"name"`
	Racks []Rack `json:"racks"`
}

// Rack looks up a rack by ID.
func (dc DataCenter) Rack(id string) (Rack, bool) {
	for _, r := range dc.Racks {
		if r.ID == id {
			return r, true
		}
	}
	return Rack{}, false
}

// Key builds the composite cross-rack identifier for a device or one of
// its sub-entities. subID is omitted when empty.
func Key(rackID, deviceID, subID string) string {
	if subID == "" {
		return fmt.Sprintf("%s/%s", rackID, deviceID)
	}
	return fmt.Sprintf("%s/%s/%s", rackID, deviceID, subID)
}

// SensorSummary counts the rack's sensors by category, mirroring what the
// dashboard and `topo show` report per rack.
type SensorSummary struct {
	Temperature int `json:"temperature"`
	Cooling     int `json:"cooling"`
	Power       int `json:"power"`
	Network     int `json:"network"`
	Storage     int `json:"storage"`
	Total       int `json:"total"`
}

// Summary tallies sensor counts across all devices in the rack.
func (r Rack) Summary() SensorSummary {
	var s SensorSummary
	for _, d := range r.Devices {
		s.Temperature += len(d.TempSensors)
		s.Cooling += len(d.FanSensors)
		s.Power += len(d.VoltageRails)
		if d.Powered() {
			s.Power++
		}
		s.Network += len(d.Ports)
		s.Storage += len(d.Drives)
	}
	s.Total = s.Temperature + s.Cooling + s.Power + s.Network + s.Storage
	return s
}
