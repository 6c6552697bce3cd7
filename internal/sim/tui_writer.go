package sim

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"readonly-sim/internal/state"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// reportMsg carries a state report into the model.
type reportMsg struct{ rec state.Record }

// DestinationFunc delivers a destination typed into the TUI. It reports
// false when the agent is unknown.
type DestinationFunc func(agent, dest string) bool

var (
	tuiTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	tuiHelpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tuiStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// TUIWriter renders state reports in a bubbletea TUI and accepts
// destination input for the selected agent.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program listing agents in the given order.
// Quitting the TUI interrupts the process so the simulation stops with it.
func NewTUIWriter(agents []string, setDest DestinationFunc) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(agents, setDest), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Publish implements agent.Publisher.
func (w *TUIWriter) Publish(rec state.Record) error {
	w.program.Send(reportMsg{rec: rec})
	return nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	agents  []string
	latest  map[string]state.Record
	table   table.Model
	input   textinput.Model
	editing bool
	setDest DestinationFunc
	status  string
	wrap    bool
	width   int
}

func newTUIModel(agents []string, setDest DestinationFunc) tuiModel {
	cols := []table.Column{
		{Title: "Agent", Width: 16},
		{Title: "Level", Width: 10},
		{Title: "Destination", Width: 16},
		{Title: "Seq", Width: 8},
		{Title: "Sim time", Width: 10},
	}
	in := textinput.New()
	in.Placeholder = "destination"
	in.CharLimit = 256
	m := tuiModel{
		agents:  append([]string(nil), agents...),
		latest:  make(map[string]state.Record),
		input:   in,
		setDest: setDest,
		wrap:    true,
	}
	m.table = table.New(table.WithColumns(cols), table.WithFocused(true), table.WithHeight(len(agents)+1))
	m.refreshRows()
	return m
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetWidth(msg.Width)
	case reportMsg:
		if !m.known(msg.rec.Name) {
			m.agents = append(m.agents, msg.rec.Name)
			m.table.SetHeight(len(m.agents) + 1)
		}
		m.latest[msg.rec.Name] = msg.rec
		m.refreshRows()
	case tea.KeyMsg:
		if m.editing {
			switch msg.Type {
			case tea.KeyEnter:
				m.submitDestination()
				return m, nil
			case tea.KeyEsc:
				m.closeInput()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "d", "enter":
			if name := m.selected(); name != "" {
				m.editing = true
				m.input.SetValue(m.latest[name].Destination)
				m.input.CursorEnd()
				return m, m.input.Focus()
			}
			return m, nil
		case "w":
			m.wrap = !m.wrap
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *tuiModel) submitDestination() {
	name := m.selected()
	dest := m.input.Value()
	switch {
	case m.setDest == nil:
		m.status = "destination input is not connected"
	case m.setDest(name, dest):
		m.status = fmt.Sprintf("%s -> %q", name, dest)
	default:
		m.status = fmt.Sprintf("unknown agent %q", name)
	}
	m.closeInput()
}

func (m *tuiModel) closeInput() {
	m.editing = false
	m.input.Blur()
	m.input.Reset()
}

func (m tuiModel) known(name string) bool {
	for _, a := range m.agents {
		if a == name {
			return true
		}
	}
	return false
}

func (m tuiModel) selected() string {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.agents) {
		return ""
	}
	return m.agents[c]
}

func (m *tuiModel) refreshRows() {
	rows := make([]table.Row, 0, len(m.agents))
	for _, name := range m.agents {
		rec, ok := m.latest[name]
		if !ok {
			rows = append(rows, table.Row{name, "-", "-", "-", "-"})
			continue
		}
		level := rec.Level
		if level == "" {
			level = "?"
		}
		rows = append(rows, table.Row{
			name,
			level,
			rec.Destination,
			strconv.FormatUint(rec.Seq, 10),
			strconv.FormatFloat(rec.SimTime, 'f', 2, 64),
		})
	}
	m.table.SetRows(rows)
}

// detail describes the selected agent's last report, wrapped to the
// terminal width when wrapping is on.
func (m tuiModel) detail() string {
	name := m.selected()
	rec, ok := m.latest[name]
	if !ok {
		return ""
	}
	p := rec.Pose.Position
	s := fmt.Sprintf("%s seq=%d sim_time=%.2f pos=(%.2f, %.2f, %.2f) yaw=%.2f level=%q destination=%q",
		rec.Name, rec.Seq, rec.SimTime, p.X, p.Y, p.Z, rec.Pose.Yaw(), rec.Level, rec.Destination)
	if m.wrap && m.width > 0 {
		return wordwrap.String(s, m.width)
	}
	return s
}

func (m tuiModel) View() string {
	var b strings.Builder
	b.WriteString(tuiTitleStyle.Render("Agents"))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	if d := m.detail(); d != "" {
		b.WriteString(d)
		b.WriteString("\n")
	}
	if m.editing {
		b.WriteString(fmt.Sprintf("Destination for %s: %s\n", m.selected(), m.input.View()))
	}
	if m.status != "" {
		b.WriteString(tuiStatusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(tuiHelpStyle.Render("up/down select • d set destination • w wrap • q quit"))
	return b.String()
}
