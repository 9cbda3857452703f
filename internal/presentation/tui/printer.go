package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/deploykit/internal/runtime"
	"github.com/muesli/termenv"
)

const barWidth = 24

// Printer renders operator messages and a progress bar on a terminal.
// It implements runtime.Reporter and is safe for concurrent use.
type Printer struct {
	mu  sync.Mutex
	w   io.Writer
	out *termenv.Output
	// bar is true while the last line written is an unterminated progress bar.
	bar bool
}

// NewPrinter writes to w. Colours degrade to plain text when w is not a tty.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, out: termenv.NewOutput(w)}
}

// NewPlainPrinter never emits escape sequences.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{w: w, out: termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))}
}

func (p *Printer) Report(m runtime.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.breakBar()

	title := m.Title
	if title != "" {
		title = p.out.String(title).Bold().Foreground(p.out.Color(levelColor(m.Level))).String()
	}
	line := runtime.Message{Title: title, Text: m.Text}.String()
	fmt.Fprintf(p.w, "%s %s\n", p.symbol(m.Level), line)
}

// Progress redraws the bar in place. Fractions outside [0, 1] are clamped.
func (p *Printer) Progress(fraction float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\r%s", p.renderBar(fraction))
	p.bar = true
}

// Done terminates an open progress bar line.
func (p *Printer) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.breakBar()
}

func (p *Printer) breakBar() {
	if p.bar {
		fmt.Fprintln(p.w)
		p.bar = false
	}
}

func (p *Printer) renderBar(fraction float64) string {
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	filled := int(fraction * barWidth)
	done := p.out.String(strings.Repeat("█", filled)).Foreground(p.out.Color("#34d399"))
	rest := strings.Repeat("░", barWidth-filled)
	return fmt.Sprintf("[%s%s] %3d%%", done, rest, int(fraction*100))
}

func (p *Printer) symbol(l runtime.Level) string {
	var s string
	switch l {
	case runtime.LevelSuccess:
		s = "✔"
	case runtime.LevelWarning:
		s = "!"
	case runtime.LevelError:
		s = "✘"
	default:
		s = "•"
	}
	return p.out.String(s).Foreground(p.out.Color(levelColor(l))).String()
}

func levelColor(l runtime.Level) string {
	switch l {
	case runtime.LevelSuccess:
		return "#34d399"
	case runtime.LevelWarning:
		return "#fbbf24"
	case runtime.LevelError:
		return "#f87171"
	}
	return "#60a5fa"
}
