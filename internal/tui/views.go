package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"nathanbeddoewebdev/dcsim/internal/eventlog"
	"nathanbeddoewebdev/dcsim/internal/severity"
	"nathanbeddoewebdev/dcsim/internal/tui/components"
	"nathanbeddoewebdev/dcsim/internal/tui/styles"
)

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var breadcrumb, content string
	var bindings []components.KeyBinding

	switch m.view {
	case viewRacks:
		breadcrumb = "racks"
		content = m.renderRacks()
		bindings = []components.KeyBinding{
			{Key: "↑/↓", Desc: "select"},
			{Key: "enter", Desc: "open rack"},
			{Key: "e", Desc: "events"},
			{Key: "p", Desc: "pause"},
			{Key: "q", Desc: "quit"},
		}
	case viewRack:
		breadcrumb = m.rackID
		content = m.renderRack()
		bindings = []components.KeyBinding{
			{Key: "↑/↓", Desc: "select device"},
			{Key: "esc", Desc: "back"},
			{Key: "e", Desc: "events"},
			{Key: "p", Desc: "pause"},
			{Key: "q", Desc: "quit"},
		}
	case viewEvents:
		breadcrumb = "incidents"
		content = m.renderEvents()
		bindings = []components.KeyBinding{
			{Key: "↑/↓", Desc: "select"},
			{Key: "a", Desc: "acknowledge"},
			{Key: "esc", Desc: "back"},
			{Key: "q", Desc: "quit"},
		}
	}

	right := fmt.Sprintf("tick %d · open %d", m.eng.Ticks(), len(m.eng.OpenIncidents()))
	if m.paused {
		right += " · paused"
	} else {
		right = m.spin.View() + right
	}

	header := components.Header(m.width, breadcrumb, right)
	status := components.StatusBar(m.width, m.status, m.statusIsError)
	footer := components.Footer(m.width, bindings)

	sections := []string{header, content}
	if status != "" {
		sections = append(sections, status)
	}
	sections = append(sections, footer)

	return padToHeight(lipgloss.JoinVertical(lipgloss.Left, sections...), m.width, m.height)
}

// --- Rack overview ---

func (m Model) renderRacks() string {
	var b strings.Builder

	b.WriteString(styles.TableHeader.Render(
		fmt.Sprintf("   %-9s %-10s %8s %9s %9s %6s",
			"RACK", "NAME", "DEVICES", "POWER", "AVG TEMP", "OPEN")))
	b.WriteString("\n")

	for i, st := range m.eng.RackStatuses() {
		row := fmt.Sprintf("%s  %-9s %-10s %8d %8.0fW %8.1fC %6d",
			styles.SeverityDot(st.Severity),
			st.ID, st.Name, st.Devices, st.PowerW, st.AvgTempC, st.Open)
		if i == m.rackCursor {
			b.WriteString(styles.TableSelectedRow.Render(row))
		} else {
			b.WriteString(styles.TableCell.Render(row))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(
		"  datacenter " + string(m.eng.Severity())))
	return b.String()
}

// --- Rack detail ---

func (m Model) renderRack() string {
	devices := m.eng.DeviceStatuses(m.rackID)
	if len(devices) == 0 {
		return styles.MutedText.Render("  unknown rack")
	}

	var b strings.Builder
	b.WriteString(styles.TableHeader.Render(
		fmt.Sprintf("   %-9s %-16s %-11s %9s %9s",
			"DEVICE", "NAME", "T A P N S", "POWER", "TEMP")))
	b.WriteString("\n")

	for i, d := range devices {
		domains := strings.Join([]string{
			styles.SeverityDot(d.Domains[severity.Thermal]),
			styles.SeverityDot(d.Domains[severity.Airflow]),
			styles.SeverityDot(d.Domains[severity.Power]),
			styles.SeverityDot(d.Domains[severity.Network]),
			styles.SeverityDot(d.Domains[severity.Storage]),
		}, " ")

		temp := "      -"
		if d.HasTemp {
			temp = fmt.Sprintf("%6.1fC", d.MaxTempC)
		}
		power := "       -"
		if d.PowerW > 0 {
			power = fmt.Sprintf("%7.0fW", d.PowerW)
		}

		row := fmt.Sprintf("%s  %-9s %-16s %s %s %9s",
			styles.SeverityDot(d.Severity), d.DeviceID, d.Name, domains, power, temp)
		if i == m.devCursor {
			b.WriteString(styles.TableSelectedRow.Render(row))
		} else {
			b.WriteString(styles.TableCell.Render(row))
		}
		b.WriteString("\n")
	}

	if m.devCursor < len(devices) {
		b.WriteString("\n")
		b.WriteString(m.renderDeviceCharts(devices[m.devCursor].DeviceID))
	}
	return b.String()
}

// renderDeviceCharts shows the selected device's recent power draw, its
// hottest temperature sensor, and traffic on its first port.
func (m Model) renderDeviceCharts(deviceID string) string {
	entity := m.rackID + "/" + deviceID
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}

	var charts []string
	if power := m.eng.HistoryValues(entity, "power"); len(power) > 0 {
		charts = append(charts, components.MetricsChart("  Power draw", power, chartWidth, "W"))
	}
	for _, metric := range m.eng.HistoryMetrics(entity) {
		if strings.HasPrefix(metric, "temp:") {
			label := "  " + strings.TrimPrefix(metric, "temp:")
			charts = append(charts, components.Sparkline(label, m.eng.HistoryValues(entity, metric), chartWidth))
			break
		}
	}
	if portID := m.firstPortID(deviceID); portID != "" {
		rx := m.eng.HistoryValues(entity, "port:"+portID+":rxpps")
		tx := m.eng.HistoryValues(entity, "port:"+portID+":txpps")
		if len(rx) > 0 || len(tx) > 0 {
			charts = append(charts, components.MetricsDualChart(
				"  "+portID+" traffic", rx, tx, "rx", "tx", chartWidth, "pps"))
		}
	}
	if len(charts) == 0 {
		return styles.MutedText.Render("  no recorded history yet")
	}
	return lipgloss.JoinVertical(lipgloss.Left, charts...)
}

// firstPortID returns the device's first port in topology order, or "" for
// portless devices like the PDU.
func (m Model) firstPortID(deviceID string) string {
	rack, ok := m.eng.Topology().Rack(m.rackID)
	if !ok {
		return ""
	}
	for _, dev := range rack.Devices {
		if dev.ID == deviceID && len(dev.Ports) > 0 {
			return dev.Ports[0].ID
		}
	}
	return ""
}

// --- Incident list ---

func (m Model) renderEvents() string {
	open := m.eng.OpenIncidents()
	if len(open) == 0 {
		return styles.MutedText.Render("\n  No open incidents.")
	}

	var b strings.Builder
	b.WriteString(styles.TableHeader.Render(
		fmt.Sprintf("   %-18s %-42s %8s %4s", "CODE", "INCIDENT", "AGE", "ACK")))
	b.WriteString("\n")

	now := time.Now().UTC()
	for i, e := range open {
		ack := ""
		if e.AckedAt != nil {
			ack = "✓"
		}
		row := fmt.Sprintf("%s  %-18s %-42s %8s %4s",
			eventSeverityDot(e.Severity), e.Code, e.IncidentKey, age(now, e.Timestamp), ack)
		if i == m.evCursor {
			b.WriteString(styles.TableSelectedRow.Render(row))
		} else {
			b.WriteString(styles.TableCell.Render(row))
		}
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("     " + e.Message))
		b.WriteString("\n")
	}
	return b.String()
}

func eventSeverityDot(s eventlog.EventSeverity) string {
	switch s {
	case eventlog.SeverityCrit:
		return styles.SeverityStyle(severity.Crit).Render("●")
	case eventlog.SeverityWarn:
		return styles.SeverityStyle(severity.Warn).Render("●")
	default:
		return styles.SeverityStyle(severity.OK).Render("●")
	}
}

func age(now, then time.Time) string {
	d := now.Sub(then)
	if d < 0 {
		d = 0
	}
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}

// padToHeight ensures the view string has exactly `height` lines so the alt
// screen renderer always repaints the full terminal.
func padToHeight(view string, width, height int) string {
	if height <= 0 {
		return view
	}
	lines := strings.Split(view, "\n")
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
