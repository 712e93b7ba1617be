package telemetry

import (
	"math/rand"
	"strings"
	"time"

	"nathanbeddoewebdev/dcsim/internal/topology"
)

// Generator advances rack telemetry one tick at a time from a seeded
// pseudo-random stream. The same seed and call sequence always produce the
// same snapshots, which is what makes simulation runs reproducible.
//
// Sensors are always visited in topology order (never map order) so the
// number and order of draws from the stream is stable.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator drawing from a stream seeded with seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Tuning constants for the random walks. These are plausibility knobs, not
// a thermal model.
const (
	powerStepW    = 10
	serverFloorW  = 140
	switchFloorW  = 40
	tempAlpha     = 0.15
	tempNoiseC    = 0.3
	inletStepC    = 0.25
	inletMinC     = 16
	inletMaxC     = 30
	fanAlpha      = 0.2
	serverFanBase = 1800
	serverFanGain = 60
	serverFanMin  = 800
	serverFanMax  = 9000
	switchFanBase = 5000
	switchFanGain = 50
	switchFanMin  = 2500
	switchFanMax  = 12000
	voltJitter    = 0.005

	rxErrProb    = 0.01
	txErrProb    = 0.008
	rxMissProb   = 0.006
	linkDownProb = 0.002
	linkUpProb   = 0.05

	driveUtilStep  = 0.05
	driveTempGap   = 12
	smartFailProb  = 0.0008
	driveTempAlpha = 0.15
)

// Seed produces the baseline snapshot for a rack, used before the first
// tick and as the reconciliation input on startup.
func (g *Generator) Seed(rack topology.Rack, now time.Time) *RackTelemetry {
	rt := &RackTelemetry{
		RackID:    rack.ID,
		Timestamp: now,
		Devices:   make(map[string]*DeviceTelemetry, len(rack.Devices)),
	}
	for _, dev := range rack.Devices {
		rt.Devices[dev.ID] = g.seedDevice(dev)
	}
	return rt
}

func (g *Generator) seedDevice(dev topology.Device) *DeviceTelemetry {
	dt := &DeviceTelemetry{
		Temps:    make(map[string]*float64),
		Fans:     make(map[string]*float64),
		Voltages: make(map[string]*float64),
		Ports:    make(map[string]*PortTelemetry),
		Drives:   make(map[string]*DriveTelemetry),
	}

	if dev.Powered() {
		// Start at a moderate draw somewhere in the lower half of budget.
		floor := serverFloorW
		if dev.Type == topology.TypeSwitch {
			floor = switchFloorW
		}
		budget := dev.Budget()
		dt.PowerWatts = clamp(float64(floor)+g.rng.Float64()*(budget*0.5-float64(floor)), float64(floor), budget)
	}

	inlet := inletMinC + g.rng.Float64()*(inletMaxC-inletMinC)
	load := 0.0
	if b := dev.Budget(); b > 0 {
		load = dt.PowerWatts / b
	}
	for _, name := range dev.TempSensors {
		if name == "Inlet Temp" {
			dt.Temps[name] = ptr(inlet)
			continue
		}
		dt.Temps[name] = ptr(sensorTarget(name, inlet, load) + (g.rng.Float64()-0.5)*2)
	}

	for _, name := range dev.FanSensors {
		hot, _ := dt.MaxTemp()
		dt.Fans[name] = ptr(fanTarget(dev.Type, hot))
	}

	for _, rail := range dev.VoltageRails {
		dt.Voltages[rail] = ptr(nominalVolts(rail))
	}

	for _, p := range dev.Ports {
		dt.Ports[p.ID] = &PortTelemetry{LinkUp: true}
	}

	for _, b := range dev.Drives {
		dt.Drives[b.ID] = &DriveTelemetry{
			TempC:          inlet + 10 + g.rng.Float64()*5,
			UtilizationPct: 20 + g.rng.Float64()*30,
			SmartOK:        true,
		}
	}

	return dt
}

// Step derives the next snapshot for a rack from the previous one. Devices
// missing from prev are re-seeded rather than erroring.
func (g *Generator) Step(rack topology.Rack, prev *RackTelemetry, now time.Time) *RackTelemetry {
	next := &RackTelemetry{
		RackID:    rack.ID,
		Timestamp: now,
		Devices:   make(map[string]*DeviceTelemetry, len(rack.Devices)),
	}
	for _, dev := range rack.Devices {
		p := prev.Device(dev.ID)
		if p == nil {
			next.Devices[dev.ID] = g.seedDevice(dev)
			continue
		}
		next.Devices[dev.ID] = g.stepDevice(dev, p)
	}
	return next
}

func (g *Generator) stepDevice(dev topology.Device, prev *DeviceTelemetry) *DeviceTelemetry {
	dt := &DeviceTelemetry{
		Temps:    make(map[string]*float64, len(prev.Temps)),
		Fans:     make(map[string]*float64, len(prev.Fans)),
		Voltages: make(map[string]*float64, len(prev.Voltages)),
		Ports:    make(map[string]*PortTelemetry, len(prev.Ports)),
		Drives:   make(map[string]*DriveTelemetry, len(prev.Drives)),
	}

	// Power: bounded random walk.
	if dev.Powered() {
		floor := float64(serverFloorW)
		if dev.Type == topology.TypeSwitch {
			floor = float64(switchFloorW)
		}
		delta := (g.rng.Float64()*2 - 1) * powerStepW
		dt.PowerWatts = clamp(prev.PowerWatts+delta, floor, dev.Budget())
	}

	// Temperatures: the inlet sensor random-walks within room bounds;
	// everything else relaxes toward a power-driven target.
	load := 0.0
	if b := dev.Budget(); b > 0 {
		load = dt.PowerWatts / b
	}
	inlet := inletMinC + float64(inletMaxC-inletMinC)/2
	if v := prev.Temps["Inlet Temp"]; v != nil {
		inlet = *v
	}
	for _, name := range dev.TempSensors {
		old := prev.Temps[name]
		if old == nil {
			dt.Temps[name] = nil
			continue
		}
		if name == "Inlet Temp" {
			step := (g.rng.Float64()*2 - 1) * inletStepC
			dt.Temps[name] = ptr(clamp(*old+step, inletMinC, inletMaxC))
			continue
		}
		target := sensorTarget(name, inlet, load)
		noise := (g.rng.Float64()*2 - 1) * tempNoiseC
		dt.Temps[name] = ptr(*old + tempAlpha*(target-*old) + noise)
	}

	// Fans: chase the hottest sensor.
	hot, _ := dt.MaxTemp()
	for _, name := range dev.FanSensors {
		old := prev.Fans[name]
		if old == nil {
			dt.Fans[name] = nil
			continue
		}
		target := fanTarget(dev.Type, hot)
		next := *old + fanAlpha*(target-*old)
		min, max := fanBounds(dev.Type)
		dt.Fans[name] = ptr(clamp(next, min, max))
	}

	// Voltages: jitter around nominal, no drift.
	for _, rail := range dev.VoltageRails {
		if prev.Voltages[rail] == nil {
			dt.Voltages[rail] = nil
			continue
		}
		nominal := nominalVolts(rail)
		dt.Voltages[rail] = ptr(nominal * (1 + (g.rng.Float64()*2-1)*voltJitter))
	}

	for _, p := range dev.Ports {
		dt.Ports[p.ID] = g.stepPort(p, prev.Ports[p.ID])
	}

	for _, b := range dev.Drives {
		dt.Drives[b.ID] = g.stepDrive(prev.Drives[b.ID], dt)
	}

	return dt
}

func (g *Generator) stepPort(port topology.NicPort, prev *PortTelemetry) *PortTelemetry {
	if prev == nil {
		return &PortTelemetry{LinkUp: true}
	}
	next := *prev

	// Link flaps are rare; recovery is much more likely than failure so
	// a downed port does not stay down for the whole run.
	if next.LinkUp {
		if g.rng.Float64() < linkDownProb {
			next.LinkUp = false
		}
	} else if g.rng.Float64() < linkUpProb {
		next.LinkUp = true
	}

	if next.LinkUp {
		pkts := uint64(g.rng.Intn(port.SpeedGbps*1000) + 500)
		next.RxPackets += pkts
		next.TxPackets += pkts / 2
		next.RxBytes += pkts * uint64(600+g.rng.Intn(800))
		next.TxBytes += (pkts / 2) * uint64(600+g.rng.Intn(800))
	}

	if g.rng.Float64() < rxErrProb {
		next.RxErrors += uint64(1 + g.rng.Intn(4))
	}
	if g.rng.Float64() < txErrProb {
		next.TxErrors += uint64(1 + g.rng.Intn(4))
	}
	if g.rng.Float64() < rxMissProb {
		next.RxMissed += uint64(1 + g.rng.Intn(4))
	}

	return &next
}

func (g *Generator) stepDrive(prev *DriveTelemetry, device *DeviceTelemetry) *DriveTelemetry {
	if prev == nil {
		return &DriveTelemetry{SmartOK: true}
	}
	next := *prev

	next.UtilizationPct = clamp(next.UtilizationPct+g.rng.Float64()*driveUtilStep, 0, 100)

	target := next.TempC
	if hot, ok := device.MaxTemp(); ok {
		target = hot - driveTempGap
	}
	next.TempC += driveTempAlpha * (target - next.TempC)

	// SMART failure is one-way: the generator never heals a failed drive.
	if next.SmartOK && g.rng.Float64() < smartFailProb {
		next.SmartOK = false
	}

	return &next
}

// sensorTarget is the relaxation target for a named temperature sensor:
// inlet plus a sensor-specific offset scaled by the device's power draw.
func sensorTarget(name string, inlet, load float64) float64 {
	return inlet + sensorBias(name)*(0.5+load)
}

func sensorBias(name string) float64 {
	switch {
	case strings.Contains(name, "CPU"):
		return 28
	case strings.Contains(name, "ASIC"):
		return 22
	case strings.Contains(name, "DIMM"):
		return 16
	case strings.Contains(name, "System"):
		return 9
	default:
		return 10
	}
}

func fanTarget(t topology.DeviceType, hot float64) float64 {
	if t == topology.TypeSwitch {
		return switchFanBase + switchFanGain*hot
	}
	return serverFanBase + serverFanGain*hot
}

func fanBounds(t topology.DeviceType) (float64, float64) {
	if t == topology.TypeSwitch {
		return switchFanMin, switchFanMax
	}
	return serverFanMin, serverFanMax
}

func nominalVolts(rail string) float64 {
	switch rail {
	case "12V":
		return 12
	case "5VCC":
		return 5
	case "3.3VCC":
		return 3.3
	case "L1", "L2", "L3":
		return 230
	default:
		return 1.2
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
