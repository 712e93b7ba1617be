// Package tui implements the live datacenter dashboard. A single Bubbletea
// model switches between the rack overview, one rack's device detail, and
// the incident list, all reading from the engine on a fixed refresh tick.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"nathanbeddoewebdev/dcsim/internal/engine"
	"nathanbeddoewebdev/dcsim/internal/tui/styles"
)

// view identifies the active dashboard screen.
type view int

const (
	viewRacks view = iota
	viewRack
	viewEvents
)

// refreshMsg fires on the dashboard's render cadence. The simulation itself
// is advanced by the engine clock, not by these messages.
type refreshMsg time.Time

// defaultRefresh is how often the dashboard re-reads engine state.
const defaultRefresh = 500 * time.Millisecond

// Model is the top-level dashboard model.
type Model struct {
	eng     *engine.Engine
	clock   *engine.Clock
	refresh time.Duration

	view       view
	rackCursor int
	devCursor  int
	evCursor   int
	rackID     string

	paused        bool
	status        string
	statusIsError bool

	// spin animates in the header while the simulation is running.
	spin spinner.Model

	width  int
	height int
}

// New builds the dashboard over a running engine. clock may be nil when the
// simulation is advanced externally; pause is then unavailable.
func New(eng *engine.Engine, clock *engine.Clock) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Blue)

	return Model{
		eng:     eng,
		clock:   clock,
		refresh: defaultRefresh,
		spin:    sp,
	}
}

// Run starts the dashboard and blocks until the user quits.
func Run(eng *engine.Engine, clock *engine.Clock) error {
	p := tea.NewProgram(New(eng, clock), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: running dashboard: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.spin.Tick)
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		m.clampCursors()
		return m, m.tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "esc":
		switch m.view {
		case viewRack, viewEvents:
			m.view = viewRacks
			m.status = ""
		}
		return m, nil

	case "up", "k":
		m.moveCursor(-1)
		return m, nil

	case "down", "j":
		m.moveCursor(1)
		return m, nil

	case "enter":
		if m.view == viewRacks {
			racks := m.eng.Topology().Racks
			if m.rackCursor < len(racks) {
				m.view = viewRack
				m.rackID = racks[m.rackCursor].ID
				m.devCursor = 0
				m.status = ""
			}
		}
		return m, nil

	case "e":
		if m.view != viewEvents {
			m.view = viewEvents
			m.evCursor = 0
			m.status = ""
		}
		return m, nil

	case "a":
		if m.view == viewEvents {
			m.acknowledgeSelected()
		}
		return m, nil

	case "p":
		m.togglePause()
		return m, nil
	}

	return m, nil
}

func (m *Model) moveCursor(delta int) {
	switch m.view {
	case viewRacks:
		m.rackCursor += delta
	case viewRack:
		m.devCursor += delta
	case viewEvents:
		m.evCursor += delta
	}
	m.clampCursors()
}

// clampCursors keeps every cursor inside its list. Lists shrink between
// refreshes (incidents resolve), so this runs on every refresh too.
func (m *Model) clampCursors() {
	m.rackCursor = clampIndex(m.rackCursor, len(m.eng.Topology().Racks))
	if m.rackID != "" {
		if rack, ok := m.eng.Topology().Rack(m.rackID); ok {
			m.devCursor = clampIndex(m.devCursor, len(rack.Devices))
		}
	}
	m.evCursor = clampIndex(m.evCursor, len(m.eng.OpenIncidents()))
}

func clampIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m *Model) acknowledgeSelected() {
	open := m.eng.OpenIncidents()
	if m.evCursor >= len(open) {
		return
	}
	entry, err := m.eng.Acknowledge(open[m.evCursor].IncidentKey)
	if err != nil {
		m.status = fmt.Sprintf("Acknowledge failed: %v", err)
		m.statusIsError = true
		return
	}
	m.status = fmt.Sprintf("Acknowledged %s", entry.IncidentKey)
	m.statusIsError = false
}

func (m *Model) togglePause() {
	if m.clock == nil {
		m.status = "Simulation is stepped externally; pause is unavailable"
		m.statusIsError = true
		return
	}
	if m.paused {
		m.clock.Start()
		m.status = "Simulation resumed"
	} else {
		m.clock.Stop()
		m.status = "Simulation paused"
	}
	m.statusIsError = false
	m.paused = !m.paused
}
