// Package severity derives a device's health classification from its
// current telemetry. The classification is never stored; both the detector
// and any rendering surface recompute it from the same function so the two
// can never disagree.
package severity

import (
	"nathanbeddoewebdev/dcsim/internal/telemetry"
	"nathanbeddoewebdev/dcsim/internal/topology"
)

// Severity is the derived per-domain health class.
type Severity string

const (
	OK   Severity = "ok"
	Warn Severity = "warn"
	Crit Severity = "crit"
	NA   Severity = "na"
)

// Domain is a category of monitored condition.
type Domain string

const (
	Thermal Domain = "thermal"
	Airflow Domain = "airflow"
	Power   Domain = "power"
	Network Domain = "network"
	Storage Domain = "storage"
)

// Domains lists every domain in evaluation order.
var Domains = []Domain{Thermal, Airflow, Power, Network, Storage}

// Threshold constants. Evaluated first-match-wins, crit before warn.
const (
	ThermalCritC = 95
	ThermalWarnC = 85

	AirflowCritRPM = 700
	AirflowWarnRPM = 1200

	PowerCritRatio = 0.95
	PowerWarnRatio = 0.80

	NetworkCritErrors = 10

	DriveTempWarnC   = 70
	DriveUtilWarnPct = 90
)

// Classify returns the severity of one domain for a device given its
// current snapshot. Devices with no applicable sensors for the domain
// classify as NA, as does missing telemetry.
func Classify(domain Domain, dev topology.Device, dt *telemetry.DeviceTelemetry) Severity {
	if dt == nil {
		return NA
	}
	switch domain {
	case Thermal:
		return classifyThermal(dt)
	case Airflow:
		return classifyAirflow(dt)
	case Power:
		return classifyPower(dev, dt)
	case Network:
		return classifyNetwork(dt)
	case Storage:
		return classifyStorage(dt)
	default:
		return NA
	}
}

func classifyThermal(dt *telemetry.DeviceTelemetry) Severity {
	max, ok := dt.MaxTemp()
	if !ok {
		return NA
	}
	switch {
	case max >= ThermalCritC:
		return Crit
	case max >= ThermalWarnC:
		return Warn
	default:
		return OK
	}
}

func classifyAirflow(dt *telemetry.DeviceTelemetry) Severity {
	min, ok := dt.MinFan()
	if !ok {
		return NA
	}
	switch {
	case min < AirflowCritRPM:
		return Crit
	case min < AirflowWarnRPM:
		return Warn
	default:
		return OK
	}
}

func classifyPower(dev topology.Device, dt *telemetry.DeviceTelemetry) Severity {
	budget := dev.Budget()
	if budget <= 0 || !dev.Powered() {
		return NA
	}
	ratio := dt.PowerWatts / budget
	switch {
	case ratio >= PowerCritRatio:
		return Crit
	case ratio >= PowerWarnRatio:
		return Warn
	default:
		return OK
	}
}

func classifyNetwork(dt *telemetry.DeviceTelemetry) Severity {
	if len(dt.Ports) == 0 {
		return NA
	}
	var errs uint64
	for _, pt := range dt.Ports {
		if pt == nil {
			continue
		}
		if !pt.LinkUp {
			return Crit
		}
		errs += pt.Errors()
	}
	switch {
	case errs >= NetworkCritErrors:
		return Crit
	case errs > 0:
		return Warn
	default:
		return OK
	}
}

func classifyStorage(dt *telemetry.DeviceTelemetry) Severity {
	if len(dt.Drives) == 0 {
		return NA
	}
	worst := OK
	for _, d := range dt.Drives {
		if d == nil {
			continue
		}
		if !d.SmartOK {
			return Crit
		}
		if d.TempC >= DriveTempWarnC || d.UtilizationPct >= DriveUtilWarnPct {
			worst = Warn
		}
	}
	return worst
}

// Abnormal reports whether s is warn or crit.
func Abnormal(s Severity) bool { return s == Warn || s == Crit }

// Worst returns the most severe of the given classes, ordering
// crit > warn > ok > na.
func Worst(sevs ...Severity) Severity {
	worst := NA
	for _, s := range sevs {
		if rank(s) > rank(worst) {
			worst = s
		}
	}
	return worst
}

func rank(s Severity) int {
	switch s {
	case Crit:
		return 3
	case Warn:
		return 2
	case OK:
		return 1
	default:
		return 0
	}
}

// DeviceWorst classifies every domain for a device and returns the worst,
// the rollup shown on rack and datacenter summaries.
func DeviceWorst(dev topology.Device, dt *telemetry.DeviceTelemetry) Severity {
	worst := NA
	for _, d := range Domains {
		worst = Worst(worst, Classify(d, dev, dt))
	}
	return worst
}
