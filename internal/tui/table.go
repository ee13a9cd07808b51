package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/catstats/internal/shots"
)

const cellGap = "  "

func (m *Model) labelWidth() int {
	width := runewidth.StringWidth("Shot Type")
	for _, c := range m.categories {
		if w := runewidth.StringWidth(string(c)); w > width {
			width = w
		}
	}
	return width
}

func (m *Model) renderTable() string {
	labelWidth := m.labelWidth()
	cellWidth := inputWidth + 4
	header := headerStyle.Render(strings.Join([]string{
		runewidth.FillRight("Shot Type", labelWidth),
		runewidth.FillRight("% of Shots", cellWidth),
		runewidth.FillRight("Percentile", cellWidth),
	}, cellGap))

	lines := make([]string, 0, len(m.categories)+3)
	lines = append(lines, header)
	cell := lipgloss.NewStyle().Width(cellWidth)
	for i, c := range m.categories {
		style := labelStyle
		if i == m.focusRow {
			style = focusStyle
		}
		label := style.Render(runewidth.FillRight(string(c), labelWidth))
		freq := cell.Render(m.inputs[i][colFrequency].View())
		pct := cell.Render(m.inputs[i][colPercentile].View())
		lines = append(lines, strings.Join([]string{label, freq, pct}, cellGap))
	}
	lines = append(lines, "", m.renderTotal())
	if warning := m.renderWarning(); warning != "" {
		lines = append(lines, warning)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderTotal() string {
	total := shots.TotalFrequency(m.owner.Snapshot())
	text := "NaN"
	if !math.IsNaN(total) {
		text = shots.FormatValue(total) + "%"
	}
	return headerStyle.Render(fmt.Sprintf("Total: %s", text))
}

func (m *Model) renderWarning() string {
	if shots.IsBalanced(m.owner.Snapshot()) {
		return ""
	}
	return warningStyle.Render(shots.BalanceWarning)
}
