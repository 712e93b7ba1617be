package components

import (
	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"

	"nathanbeddoewebdev/dcsim/internal/tui/styles"
)

// sparkHeight is the fixed height for compact in-table sparklines.
const sparkHeight = 3

// Sparkline renders a compact filled graph of a metric series. Unlike
// MetricsChart it has no axis or summary line, so it fits inside device
// detail cards.
func Sparkline(label string, data []float64, width int) string {
	if len(data) == 0 {
		return styles.MutedText.Render(label + ": no data")
	}
	if width < 10 {
		width = 10
	}

	sl := sparkline.New(width, sparkHeight,
		sparkline.WithStyle(lipgloss.NewStyle().Foreground(styles.Blue)))
	for _, v := range data {
		sl.Push(v)
	}
	sl.Draw()

	header := styles.Label.Render(label)
	return lipgloss.JoinVertical(lipgloss.Left, header, sl.View())
}
