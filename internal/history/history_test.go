package history

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"nathanbeddoewebdev/dcsim/internal/telemetry"
	"nathanbeddoewebdev/dcsim/internal/topology"
)

func TestRecord_RingBuffer(t *testing.T) {
	b := NewBuffer()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < MaxPoints+10; i++ {
		b.Record("rack-01/srv-01", "power", start.Add(time.Duration(i)*time.Second), float64(i))
	}

	pts := b.Series("rack-01/srv-01", "power")
	if len(pts) != MaxPoints {
		t.Fatalf("expected %d points, got %d", MaxPoints, len(pts))
	}
	if pts[0].Value != 10 {
		t.Errorf("oldest point = %v, want 10 (first 10 evicted)", pts[0].Value)
	}
	if pts[len(pts)-1].Value != float64(MaxPoints+9) {
		t.Errorf("newest point = %v, want %d", pts[len(pts)-1].Value, MaxPoints+9)
	}
}

func TestSeries_ReturnsCopy(t *testing.T) {
	b := NewBuffer()
	b.Record("e", "m", time.Now(), 1)

	pts := b.Series("e", "m")
	pts[0].Value = 99

	if got := b.Series("e", "m")[0].Value; got != 1 {
		t.Errorf("internal series mutated through returned slice: %v", got)
	}
}

func TestRate_NeverNegative(t *testing.T) {
	tests := []struct {
		prev, next uint64
		want       float64
	}{
		{0, 100, 100},
		{100, 100, 0},
		{100, 250, 150},
		{5000, 0, 0}, // counter reset
	}
	for _, tt := range tests {
		if got := Rate(tt.prev, tt.next); got != tt.want {
			t.Errorf("Rate(%d, %d) = %v, want %v", tt.prev, tt.next, got, tt.want)
		}
	}
}

func TestIngest(t *testing.T) {
	rack := topology.Rack{
		ID: "rack-01",
		Devices: []topology.Device{{
			ID:          "srv-01",
			Type:        topology.TypeServer,
			TempSensors: []string{"CPU1 Temp"},
			FanSensors:  []string{"FAN1"},
			Ports:       []topology.NicPort{{ID: "eth0", SpeedGbps: 10}},
			Drives:      []topology.DriveBay{{ID: "bay0", CapacityGB: 960}},
		}},
	}

	temp := 52.5
	fan := 2400.0
	ts := time.Date(2026, 3, 1, 0, 0, 1, 0, time.UTC)

	prev := &telemetry.RackTelemetry{
		RackID: "rack-01",
		Devices: map[string]*telemetry.DeviceTelemetry{
			"srv-01": {
				Ports: map[string]*telemetry.PortTelemetry{"eth0": {LinkUp: true, RxPackets: 1000, TxPackets: 400}},
			},
		},
	}
	next := &telemetry.RackTelemetry{
		RackID:    "rack-01",
		Timestamp: ts,
		Devices: map[string]*telemetry.DeviceTelemetry{
			"srv-01": {
				PowerWatts: 310,
				Temps:      map[string]*float64{"CPU1 Temp": &temp},
				Fans:       map[string]*float64{"FAN1": &fan},
				Ports:      map[string]*telemetry.PortTelemetry{"eth0": {LinkUp: true, RxPackets: 1600, TxPackets: 300}},
				Drives:     map[string]*telemetry.DriveTelemetry{"bay0": {TempC: 41, UtilizationPct: 33, SmartOK: true}},
			},
		},
	}

	b := NewBuffer()
	b.Ingest(rack, prev, next)

	want := map[string]float64{
		"power":          310,
		"temp:CPU1 Temp": 52.5,
		"fan:FAN1":       2400,
		"port:eth0:rxpps": 600,
		"port:eth0:txpps": 0, // tx counter went backwards, clamps to zero
	}
	for metric, v := range want {
		got := b.Values("rack-01/srv-01", metric)
		if diff := cmp.Diff([]float64{v}, got); diff != "" {
			t.Errorf("%s series mismatch (-want +got):\n%s", metric, diff)
		}
	}

	if got := b.Values("rack-01/srv-01/bay0", "drive:util"); len(got) != 1 || got[0] != 33 {
		t.Errorf("drive:util = %v, want [33]", got)
	}
}

func TestIngest_NilPrevRecordsZeroRates(t *testing.T) {
	rack := topology.Rack{
		ID: "rack-01",
		Devices: []topology.Device{{
			ID:    "srv-01",
			Type:  topology.TypeServer,
			Ports: []topology.NicPort{{ID: "eth0", SpeedGbps: 10}},
		}},
	}
	next := &telemetry.RackTelemetry{
		RackID:    "rack-01",
		Timestamp: time.Now(),
		Devices: map[string]*telemetry.DeviceTelemetry{
			"srv-01": {Ports: map[string]*telemetry.PortTelemetry{"eth0": {LinkUp: true, RxPackets: 900}}},
		},
	}

	b := NewBuffer()
	b.Ingest(rack, nil, next)

	// First sample against an absent previous snapshot is the raw delta
	// from zero.
	if got := b.Values("rack-01/srv-01", "port:eth0:rxpps"); len(got) != 1 || got[0] != 900 {
		t.Errorf("rxpps = %v, want [900]", got)
	}
}
