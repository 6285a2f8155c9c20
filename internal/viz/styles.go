package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
)

type styles struct {
	panel    lipgloss.Style
	title    lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	active   lipgloss.Style
	graph    lipgloss.Style
	help     lipgloss.Style
	subtle   lipgloss.Style
	improved lipgloss.Style
	worse    lipgloss.Style
	aborted  lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		label:    lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:    lipgloss.NewStyle().Foreground(t.Text),
		active:   lipgloss.NewStyle().Bold(true).Foreground(t.Secondary),
		graph:    lipgloss.NewStyle().Foreground(t.Primary),
		help:     lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		subtle:   lipgloss.NewStyle().Foreground(t.Muted),
		improved: lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		worse:    lipgloss.NewStyle().Foreground(t.Warning),
		aborted:  lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}

func (s styles) outcome(o session.Outcome) lipgloss.Style {
	switch o {
	case session.Improved:
		return s.improved
	case session.Aborted:
		return s.aborted
	default:
		return s.worse
	}
}

// ProgressBar renders the fraction of the window already driven.
func ProgressBar(percent float64, width int, t Theme) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(t.Accent).Render(bar)
}

// Sparkline renders the last width values as block characters scaled to
// their own range.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		b.WriteRune(chars[idx])
	}
	return b.String()
}

func Separator(width int, s lipgloss.Style) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return s.Render(left + " ◆ " + right)
}
