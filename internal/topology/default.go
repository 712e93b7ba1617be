package topology

import "fmt"

// Default builds the built-in five-rack datacenter used when no topology is
// supplied. Each rack holds two servers, a top-of-rack switch, and a PDU.
func Default() DataCenter {
	dc := DataCenter{Name: "dc-01"}
	for i := 1; i <= 5; i++ {
		dc.Racks = append(dc.Racks, defaultRack(i))
	}
	return dc
}

func defaultRack(n int) Rack {
	id := fmt.Sprintf("rack-%02d", n)
	r := Rack{
		ID:   id,
		Name: fmt.Sprintf("Rack %d", n),
	}

	for s := 1; s <= 2; s++ {
		r.Devices = append(r.Devices, Device{
			ID:          fmt.Sprintf("srv-%02d", s),
			Name:        fmt.Sprintf("Rack%d_Server%d", n, s),
			Type:        TypeServer,
			TempSensors: []string{"CPU1 Temp", "CPU2 Temp", "System Temp", "P1-DIMMA1 Temp", "Inlet Temp"},
			FanSensors:  []string{"FAN1", "FAN2", "FAN3", "FAN4"},
			VoltageRails: []string{
				"12V", "5VCC", "3.3VCC",
			},
			Ports: []NicPort{
				{ID: "eth0", SpeedGbps: 10},
				{ID: "eth1", SpeedGbps: 10},
			},
			Drives: []DriveBay{
				{ID: "bay0", CapacityGB: 1920},
				{ID: "bay1", CapacityGB: 1920},
			},
		})
	}

	r.Devices = append(r.Devices, Device{
		ID:          "sw-01",
		Name:        fmt.Sprintf("Rack%d_ToR", n),
		Type:        TypeSwitch,
		TempSensors: []string{"Inlet Temp", "ASIC Temp"},
		FanSensors:  []string{"FAN1", "FAN2"},
		Ports: []NicPort{
			{ID: "swp1", SpeedGbps: 25},
			{ID: "swp2", SpeedGbps: 25},
			{ID: "swp3", SpeedGbps: 25},
			{ID: "swp4", SpeedGbps: 25},
		},
	})

	r.Devices = append(r.Devices, Device{
		ID:           "pdu-01",
		Name:         fmt.Sprintf("Rack%d_PDU", n),
		Type:         TypePDU,
		VoltageRails: []string{"L1", "L2", "L3"},
	})

	return r
}
