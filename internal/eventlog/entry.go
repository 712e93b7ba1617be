// Package eventlog keeps the append-only incident log and the derived
// open-incident index. The index is always reconstructible by replaying
// the log; after a restart it is rebuilt that way rather than trusted
// from storage.
package eventlog

import (
	"strings"
	"time"
)

// EventSeverity is the severity recorded on a log entry. It is distinct from
// the derived telemetry severity: resolutions log as info.
type EventSeverity string

const (
	SeverityInfo EventSeverity = "info"
	SeverityWarn EventSeverity = "warn"
	SeverityCrit EventSeverity = "crit"
)

// State is the lifecycle state of a log entry.
type State string

const (
	StateOpen     State = "open"
	StateResolved State = "resolved"
)

// Incident codes. Domain incidents carry a WARN or CRIT variant; the
// binary sub-entity conditions have a single code each.
const (
	CodeThermalWarn    = "THERMAL_WARN"
	CodeThermalCrit    = "THERMAL_CRIT"
	CodeAirflowWarn    = "AIRFLOW_WARN"
	CodeAirflowCrit    = "AIRFLOW_CRIT"
	CodePowerWarn      = "POWER_WARN"
	CodePowerCrit      = "POWER_CRIT"
	CodeNetworkWarn    = "NETWORK_WARN"
	CodeNetworkCrit    = "NETWORK_CRIT"
	CodeStorageWarn    = "STORAGE_WARN"
	CodeStorageCrit    = "STORAGE_CRIT"
	CodePortDown       = "PORT_DOWN"
	CodeDriveSmartFail = "DRIVE_SMART_FAIL"
)

// Entry is one event log record: an incident opening or resolving.
type Entry struct {
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	Severity    EventSeverity `json:"severity"`
	Domain      string        `json:"domain"`
	Code        string        `json:"code"`
	IncidentKey string        `json:"incident_key"`
	Message     string        `json:"message"`
	RackID      string        `json:"rack_id"`
	DeviceID    string        `json:"device_id"`
	SubID       string        `json:"sub_id,omitempty"`
	State       State         `json:"state"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
	AckedAt     *time.Time    `json:"acked_at,omitempty"`
}

// Key builds the deduplication key for an incident:
// domain:code:rackID:deviceID:subID, with "-" when there is no sub-entity.
func Key(domain, code, rackID, deviceID, subID string) string {
	if subID == "" {
		subID = "-"
	}
	return strings.Join([]string{domain, code, rackID, deviceID, subID}, ":")
}
