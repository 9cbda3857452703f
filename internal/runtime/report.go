package runtime

import (
	"fmt"
	"time"
)

// Level tags an operator message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is a line of operator-facing output. Title is the highlighted lead.
type Message struct {
	Level Level
	Title string
	Text  string
}

func (m Message) String() string {
	switch {
	case m.Title == "":
		return m.Text
	case m.Text == "":
		return m.Title
	}
	return m.Title + " " + m.Text
}

// Reporter receives operator messages as the run progresses.
type Reporter interface {
	Report(Message)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Message)

// Report calls f.
func (f ReporterFunc) Report(m Message) { f(m) }

type discard struct{}

func (discard) Report(Message) {}

// FormatElapsed renders a duration the way completion messages show it:
// "4.2s", "1m 05s", "1h 02m 09s".
func FormatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}
