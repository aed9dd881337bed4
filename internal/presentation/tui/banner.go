package tui

import (
	"strings"

	"github.com/muesli/termenv"
)

// Banner returns the Parley ASCII art banner, coloured for the terminal's profile.
func Banner() string {
	p := termenv.ColorProfile()
	// Same gradient as the web docs (Indigo to Rose)
	lines := []termenv.Style{
		termenv.String("  ____            _            ").Foreground(p.Color("#818cf8")),
		termenv.String(" |  _ \\ __ _ _ __| | ___ _   _ ").Foreground(p.Color("#a78bfa")),
		termenv.String(" | |_) / _` | '__| |/ _ \\ | | |").Foreground(p.Color("#c084fc")),
		termenv.String(" |  __/ (_| | |  | |  __/ |_| |").Foreground(p.Color("#e879f9")),
		termenv.String(" |_|   \\__,_|_|  |_|\\___|\\__, |").Foreground(p.Color("#f472b6")),
		termenv.String("                         |___/ ").Foreground(p.Color("#fb7185")),
	}

	var b strings.Builder
	b.WriteString("\n")
	for _, l := range lines {
		b.WriteString(l.String())
		b.WriteString("\n")
	}
	b.WriteString(termenv.String(" Type 'exit' to leave.").Faint().String())
	b.WriteString("\n\n")
	return b.String()
}
