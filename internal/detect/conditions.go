package detect

import (
	"fmt"

	"nathanbeddoewebdev/dcsim/internal/eventlog"
	"nathanbeddoewebdev/dcsim/internal/severity"
	"nathanbeddoewebdev/dcsim/internal/telemetry"
	"nathanbeddoewebdev/dcsim/internal/topology"
)

// domainCodes maps each domain to its warn/crit code pair.
var domainCodes = map[severity.Domain][2]string{
	severity.Thermal: {eventlog.CodeThermalWarn, eventlog.CodeThermalCrit},
	severity.Airflow: {eventlog.CodeAirflowWarn, eventlog.CodeAirflowCrit},
	severity.Power:   {eventlog.CodePowerWarn, eventlog.CodePowerCrit},
	severity.Network: {eventlog.CodeNetworkWarn, eventlog.CodeNetworkCrit},
	severity.Storage: {eventlog.CodeStorageWarn, eventlog.CodeStorageCrit},
}

// conditions builds the condition list for one device in a fixed order:
// the five domains, then each port, then each drive.
func conditions(dev topology.Device) []condition {
	out := make([]condition, 0, len(severity.Domains)+len(dev.Ports)+len(dev.Drives))

	for _, dom := range severity.Domains {
		out = append(out, domainCondition(dev, dom))
	}
	for _, p := range dev.Ports {
		out = append(out, portCondition(p.ID))
	}
	for _, b := range dev.Drives {
		out = append(out, driveCondition(b.ID))
	}
	return out
}

func domainCondition(dev topology.Device, dom severity.Domain) condition {
	codes := domainCodes[dom]
	return condition{
		domain: string(dom),
		codes:  codes[:],
		eval: func(dt *telemetry.DeviceTelemetry) (condState, string, eventlog.EventSeverity, string) {
			switch severity.Classify(dom, dev, dt) {
			case severity.Crit:
				return condActive, codes[1], eventlog.SeverityCrit, domainDetail(dom, dt)
			case severity.Warn:
				return condActive, codes[0], eventlog.SeverityWarn, domainDetail(dom, dt)
			case severity.OK:
				return condOK, "", "", ""
			default:
				return condNA, "", "", ""
			}
		},
	}
}

// domainDetail renders the reading that tripped the threshold, for messages.
func domainDetail(dom severity.Domain, dt *telemetry.DeviceTelemetry) string {
	switch dom {
	case severity.Thermal:
		if max, ok := dt.MaxTemp(); ok {
			return fmt.Sprintf("max temperature %.1f°C", max)
		}
	case severity.Airflow:
		if min, ok := dt.MinFan(); ok {
			return fmt.Sprintf("min fan %.0f RPM", min)
		}
	case severity.Power:
		return fmt.Sprintf("drawing %.0f W", dt.PowerWatts)
	case severity.Network:
		var errs uint64
		down := 0
		for _, pt := range dt.Ports {
			if pt == nil {
				continue
			}
			if !pt.LinkUp {
				down++
			}
			errs += pt.Errors()
		}
		if down > 0 {
			return fmt.Sprintf("%d port(s) down", down)
		}
		return fmt.Sprintf("%d interface errors", errs)
	case severity.Storage:
		for id, d := range dt.Drives {
			if d != nil && !d.SmartOK {
				return "SMART failure on " + id
			}
		}
		return "drive temperature or utilization high"
	}
	return ""
}

// portCondition tracks link state for a single port. Unlike the domain
// conditions it keys on an explicit boolean, so an up reading resolves an
// open PORT_DOWN even when the prior state is unknown.
func portCondition(portID string) condition {
	return condition{
		domain: string(severity.Network),
		subID:  portID,
		codes:  []string{eventlog.CodePortDown},
		eval: func(dt *telemetry.DeviceTelemetry) (condState, string, eventlog.EventSeverity, string) {
			if dt == nil {
				return condNA, "", "", ""
			}
			pt := dt.Ports[portID]
			if pt == nil {
				return condNA, "", "", ""
			}
			if !pt.LinkUp {
				return condActive, eventlog.CodePortDown, eventlog.SeverityCrit, "link down"
			}
			return condOK, "", "", ""
		},
	}
}

// driveCondition tracks SMART health for a single drive bay. The simulated
// generator never reports recovery, but a real feed can, and false→true
// (or unknown→true) resolves the incident.
func driveCondition(bayID string) condition {
	return condition{
		domain: string(severity.Storage),
		subID:  bayID,
		codes:  []string{eventlog.CodeDriveSmartFail},
		eval: func(dt *telemetry.DeviceTelemetry) (condState, string, eventlog.EventSeverity, string) {
			if dt == nil {
				return condNA, "", "", ""
			}
			d := dt.Drives[bayID]
			if d == nil {
				return condNA, "", "", ""
			}
			if !d.SmartOK {
				return condActive, eventlog.CodeDriveSmartFail, eventlog.SeverityCrit, "SMART health failing"
			}
			return condOK, "", "", ""
		},
	}
}
