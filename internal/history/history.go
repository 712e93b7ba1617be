// Package history keeps short bounded time series of recent telemetry,
// one ring per (entity, metric) pair, for charts and the dashboard.
package history

import (
	"time"

	"nathanbeddoewebdev/dcsim/internal/telemetry"
	"nathanbeddoewebdev/dcsim/internal/topology"
)

// MaxPoints caps each series; the oldest point drops on overflow.
const MaxPoints = 60

// Point is one recorded sample.
type Point struct {
	Timestamp time.Time
	Value     float64
}

// Buffer holds the per-entity, per-metric series for the whole datacenter.
// Entity keys are topology.Key values, metric keys are names like
// "power", "temp:CPU1 Temp", or "port:eth0:rxpps".
type Buffer struct {
	series map[string]map[string][]Point
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{series: make(map[string]map[string][]Point)}
}

// Record appends a sample to the (entityKey, metricKey) series, evicting
// the oldest point once the series holds MaxPoints.
func (b *Buffer) Record(entityKey, metricKey string, ts time.Time, value float64) {
	metrics, ok := b.series[entityKey]
	if !ok {
		metrics = make(map[string][]Point)
		b.series[entityKey] = metrics
	}
	pts := append(metrics[metricKey], Point{Timestamp: ts, Value: value})
	if len(pts) > MaxPoints {
		pts = pts[len(pts)-MaxPoints:]
	}
	metrics[metricKey] = pts
}

// Series returns a copy of the recorded points for (entityKey, metricKey),
// oldest first. Nil when nothing has been recorded.
func (b *Buffer) Series(entityKey, metricKey string) []Point {
	pts := b.series[entityKey][metricKey]
	if pts == nil {
		return nil
	}
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}

// Values returns just the sample values for (entityKey, metricKey),
// oldest first, the shape chart renderers want.
func (b *Buffer) Values(entityKey, metricKey string) []float64 {
	pts := b.series[entityKey][metricKey]
	if len(pts) == 0 {
		return nil
	}
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Value
	}
	return out
}

// Metrics lists the metric keys recorded for an entity.
func (b *Buffer) Metrics(entityKey string) []string {
	metrics := b.series[entityKey]
	out := make([]string, 0, len(metrics))
	for k := range metrics {
		out = append(out, k)
	}
	return out
}

// Rate converts consecutive counter readings to a per-tick rate, clamped
// at zero so a counter reset never records a negative value.
func Rate(prev, next uint64) float64 {
	if next < prev {
		return 0
	}
	return float64(next - prev)
}

// Ingest records the metrics derived from a pair of consecutive rack
// snapshots: gauges from next, counter rates from the prev→next delta.
func (b *Buffer) Ingest(rack topology.Rack, prev, next *telemetry.RackTelemetry) {
	if next == nil {
		return
	}
	ts := next.Timestamp
	for _, dev := range rack.Devices {
		dt := next.Device(dev.ID)
		if dt == nil {
			continue
		}
		entity := topology.Key(rack.ID, dev.ID, "")

		if dev.Powered() {
			b.Record(entity, "power", ts, dt.PowerWatts)
		}
		for _, name := range dev.TempSensors {
			if v := dt.Temps[name]; v != nil {
				b.Record(entity, "temp:"+name, ts, *v)
			}
		}
		for _, name := range dev.FanSensors {
			if v := dt.Fans[name]; v != nil {
				b.Record(entity, "fan:"+name, ts, *v)
			}
		}

		var pdt *telemetry.DeviceTelemetry
		if prev != nil {
			pdt = prev.Device(dev.ID)
		}
		for _, p := range dev.Ports {
			pt := dt.Ports[p.ID]
			if pt == nil {
				continue
			}
			var before telemetry.PortTelemetry
			if pdt != nil && pdt.Ports[p.ID] != nil {
				before = *pdt.Ports[p.ID]
			}
			b.Record(entity, "port:"+p.ID+":rxpps", ts, Rate(before.RxPackets, pt.RxPackets))
			b.Record(entity, "port:"+p.ID+":txpps", ts, Rate(before.TxPackets, pt.TxPackets))
		}

		for _, bay := range dev.Drives {
			d := dt.Drives[bay.ID]
			if d == nil {
				continue
			}
			driveEntity := topology.Key(rack.ID, dev.ID, bay.ID)
			b.Record(driveEntity, "drive:temp", ts, d.TempC)
			b.Record(driveEntity, "drive:util", ts, d.UtilizationPct)
		}
	}
}
