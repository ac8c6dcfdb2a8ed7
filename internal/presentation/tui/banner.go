package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the unicorn ASCII art banner on stdout.
func PrintBanner(version string) {
	FprintBanner(os.Stdout, version)
}

// FprintBanner writes the banner to w, coloured for w's terminal profile.
func FprintBanner(w io.Writer, version string) {
	p := termenv.NewOutput(w).ColorProfile()
	// Using a subtle gradient-like color scheme (Indigo/Violet)
	lines := []struct{ text, color string }{
		{"              _                      ", "#818cf8"},
		{"  _  _ _ _   (_) __ ___ _ _ _ _      ", "#a78bfa"},
		{" | || | ' \\  | |/ _/ _ \\ '_| ' \\   ", "#c084fc"},
		{"  \\_,_|_||_| |_|\\__\\___/_| |_||_|  ", "#e879f9"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, p.String("  v"+version).Foreground(p.Color("#fb7185")).Faint())
	fmt.Fprintln(w)
}
