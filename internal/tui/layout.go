package tui

import (
	"log"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// logErrf writes through the standard logger, which the CLI points at a
// debug file or discards while the TUI owns the terminal.
func logErrf(format string, args ...any) {
	log.Printf(format, args...)
}
