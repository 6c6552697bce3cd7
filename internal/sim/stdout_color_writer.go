// ColorStdoutWriter prints human-friendly, colorized state reports to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"readonly-sim/internal/agent"
	"readonly-sim/internal/state"
)

var agentPalette = []lipgloss.Color{"1", "2", "3", "4", "5", "6"}

// ColorStdoutWriter prints one styled line per report.
type ColorStdoutWriter struct {
	out      io.Writer
	renderer *lipgloss.Renderer

	mu          sync.Mutex
	agentStyles map[string]lipgloss.Style
	colorIdx    int

	dim     lipgloss.Style
	level   lipgloss.Style
	unknown lipgloss.Style
	dest    lipgloss.Style
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter() *ColorStdoutWriter {
	return newColorWriter(os.Stdout)
}

func newColorWriter(out io.Writer) *ColorStdoutWriter {
	r := lipgloss.NewRenderer(out)
	return &ColorStdoutWriter{
		out:         out,
		renderer:    r,
		agentStyles: make(map[string]lipgloss.Style),
		dim:         r.NewStyle().Foreground(lipgloss.Color("8")),
		level:       r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		unknown:     r.NewStyle().Foreground(lipgloss.Color("1")),
		dest:        r.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

func (w *ColorStdoutWriter) agentStyle(name string) lipgloss.Style {
	if st, ok := w.agentStyles[name]; ok {
		return st
	}
	st := w.renderer.NewStyle().Foreground(agentPalette[w.colorIdx%len(agentPalette)]).Bold(true)
	w.agentStyles[name] = st
	w.colorIdx++
	return st
}

// Publish prints a single report.
func (w *ColorStdoutWriter) Publish(rec state.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	level := w.level.Render(rec.Level)
	if rec.Level == agent.UnknownLevel {
		level = w.unknown.Render("?")
	}
	p := rec.Pose.Position
	_, err := fmt.Fprintf(w.out, "%s %s %s level=%s dest=%s pos=(%.2f, %.2f, %.2f) yaw=%.2f\n",
		w.dim.Render(fmt.Sprintf("[t=%8.2f]", rec.SimTime)),
		w.agentStyle(rec.Name).Render(rec.Name),
		w.dim.Render(fmt.Sprintf("#%d", rec.Seq)),
		level,
		w.dest.Render(rec.Destination),
		p.X, p.Y, p.Z, rec.Pose.Yaw(),
	)
	return err
}
