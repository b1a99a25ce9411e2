package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the stepsheet banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"      _                 _               _   ", "#34d399"},
		{"  ___| |_ ___ _ __  ___| |__   ___  ___| |_ ", "#2dd4bf"},
		{" / __| __/ _ \\ '_ \\/ __| '_ \\ / _ \\/ _ \\ __|", "#22d3ee"},
		{" \\__ \\ ||  __/ |_) \\__ \\ | | |  __/  __/ |_ ", "#38bdf8"},
		{" |___/\\__\\___| .__/|___/_| |_|\\___|\\___|\\__|", "#60a5fa"},
		{"             |_|                            ", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Warn styles s as a warning.
func Warn(s string) string {
	p := termenv.ColorProfile()
	return termenv.String(s).Foreground(p.Color("#f59e0b")).String()
}

// Success styles s as a success message.
func Success(s string) string {
	p := termenv.ColorProfile()
	return termenv.String(s).Foreground(p.Color("#10b981")).Bold().String()
}
