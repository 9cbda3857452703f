package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text, color string
}{
	{"      _            _             _    _ _   ", "#34d399"},
	{"   __| | ___ _ __ | | ___  _   _| | _(_) |_ ", "#2dd4bf"},
	{"  / _` |/ _ \\ '_ \\| |/ _ \\| | | | |/ / | __|", "#22d3ee"},
	{" | (_| |  __/ |_) | | (_) | |_| |   <| | |_ ", "#38bdf8"},
	{"  \\__,_|\\___| .__/|_|\\___/ \\__, |_|\\_\\_|\\__|", "#60a5fa"},
	{"            |_|            |___/            ", "#818cf8"},
}

// PrintBanner writes the deploykit banner to w, coloured when w is a terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
