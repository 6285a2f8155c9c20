package viz

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/config"
	"github.com/Rob-Crane/CarND-PID-Control-Project/internal/session"
)

const (
	historyCapacity = 600
	windowCapacity  = 200
	recentWindows   = 5
	defaultWidth    = 100
)

// Model is the dashboard state. It only changes in response to feed
// messages and key presses.
type Model struct {
	title  string
	feed   *Feed
	tuning config.Tuning
	theme  Theme
	st     styles
	width  int

	cte     []float64
	steer   []float64
	errs    []float64
	bests   []float64
	windows []session.Window
	last    TickMsg
	hasTick bool

	done     bool
	err      error
	showHelp bool
}

func NewModel(title string, feed *Feed, tuning config.Tuning, theme Theme) Model {
	return Model{
		title:  title,
		feed:   feed,
		tuning: tuning,
		theme:  theme,
		st:     newStyles(theme),
		width:  defaultWidth,
		cte:    make([]float64, 0, historyCapacity),
		steer:  make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return m.feed.Wait()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "t":
			m.theme = nextTheme(m.theme)
			m.st = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case TickMsg:
		m.cte = appendCapped(m.cte, msg.Sample.CTE, historyCapacity)
		m.steer = appendCapped(m.steer, msg.Tick.Steer, historyCapacity)
		m.last = msg
		m.hasTick = true
		return m, m.feed.Wait()

	case WindowMsg:
		w := session.Window(msg)
		m.windows = append(m.windows, w)
		if len(m.windows) > windowCapacity {
			m.windows = m.windows[1:]
		}
		// plot the window's own error until something has improved
		best := w.Best
		if best == math.MaxFloat64 {
			best = w.Error
		}
		m.errs = appendCapped(m.errs, w.Error, windowCapacity)
		m.bests = appendCapped(m.bests, best, windowCapacity)
		return m, m.feed.Wait()

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, nil
	}
	return m, nil
}

func appendCapped(s []float64, v float64, capacity int) []float64 {
	s = append(s, v)
	if len(s) > capacity {
		s = s[len(s)-capacity:]
	}
	return s
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.st.aborted.Render("ERROR")
	case m.done:
		return m.st.subtle.Render("STOPPED")
	case m.hasTick && m.last.Snapshot.Done:
		return m.st.worse.Render("BUDGET SPENT")
	case !m.hasTick:
		return m.st.subtle.Render("WAITING")
	default:
		return m.st.improved.Render("TUNING")
	}
}

func (m Model) row(label, value string) string {
	return m.st.label.Render(label) + m.st.value.Render(value) + "\n"
}

func (m Model) statsView() string {
	var s strings.Builder
	snap := m.last.Snapshot

	s.WriteString(m.row("CTE", fmt.Sprintf("%+.4f", m.last.Sample.CTE)))
	s.WriteString(m.row("Steer", fmt.Sprintf("%+.4f", m.last.Tick.Steer)))
	s.WriteString(m.row("Speed", fmt.Sprintf("%.2f", m.last.Sample.Speed)))
	s.WriteString(m.row("Ticks", fmt.Sprintf("%d", snap.Ticks)))
	s.WriteString(m.row("Windows", fmt.Sprintf("%d", snap.Windows)))

	best := "n/a"
	if snap.HasBest() {
		best = fmt.Sprintf("%.6g", snap.Best)
	}
	s.WriteString(m.row("Best", best))
	s.WriteString(m.st.label.Render("Trying") + m.st.active.Render(snap.Trial) + "\n")
	s.WriteString(m.row("Params", snap.Params.String()))
	s.WriteString(m.row("dP", snap.DP.String()))
	s.WriteString(m.row("Gains", snap.Gains.String()))

	progress := 0.0
	if m.tuning.UpdateDistance > 0 {
		progress = snap.Distance / m.tuning.UpdateDistance
	}
	s.WriteString(m.st.label.Render("Window") + ProgressBar(progress, 24, m.theme) + "\n")
	s.WriteString(m.st.label.Render("Steering") + m.st.graph.Render(Sparkline(m.steer, 24)))
	return m.st.panel.Render(s.String())
}

func (m Model) chartsView(width int) string {
	var s strings.Builder
	if len(m.cte) > 1 {
		chart := asciigraph.Plot(m.cte,
			asciigraph.Height(6),
			asciigraph.Width(width),
			asciigraph.Caption("cross-track error"))
		s.WriteString(m.st.graph.Render(chart) + "\n\n")
	}
	if len(m.errs) > 1 {
		chart := asciigraph.PlotMany([][]float64{m.errs, m.bests},
			asciigraph.Height(6),
			asciigraph.Width(width),
			asciigraph.Caption("window error / best"))
		s.WriteString(m.st.graph.Render(chart) + "\n")
	}
	return s.String()
}

func (m Model) windowsView() string {
	if len(m.windows) == 0 {
		return m.st.subtle.Render("no windows closed yet")
	}
	var s strings.Builder
	start := max(0, len(m.windows)-recentWindows)
	for _, w := range m.windows[start:] {
		s.WriteString(fmt.Sprintf("#%-4d %s %-12.6g %s\n",
			w.Seq,
			m.st.outcome(w.Outcome).Width(13).Render(w.Outcome.String()),
			w.Error,
			w.Trial))
	}
	return strings.TrimRight(s.String(), "\n")
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(m.st.title.Render(m.title) + "  " + m.status() + "\n")
	s.WriteString(Separator(min(m.width, defaultWidth), m.st.subtle) + "\n\n")

	stats := m.statsView()
	chartWidth := max(20, m.width-lipgloss.Width(stats)-14)
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, stats, "  ", m.chartsView(chartWidth)))
	s.WriteString("\n\n" + m.windowsView() + "\n")

	if m.err != nil {
		s.WriteString("\n" + m.st.aborted.Render("error: "+m.err.Error()) + "\n")
	}
	if m.showHelp {
		s.WriteString("\n" + m.st.help.Render("t: cycle theme ("+strings.Join(ThemeNames(), ", ")+")  ?: toggle help  q: quit") + "\n")
	} else {
		s.WriteString("\n" + m.st.help.Render("? help  q quit") + "\n")
	}
	return s.String()
}
