// Package report renders shot data as plain text for the CLI.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/verte-zerg/catstats/internal/chart"
	"github.com/verte-zerg/catstats/internal/shots"
)

// Options controls text report output.
type Options struct {
	ChartRows  int
	ForceColor bool
}

// TableLines returns the input table with one row per category.
func TableLines(s shots.Store) []string {
	headers := []string{"Shot Type", "% of Shots", "Percentile"}
	entries := s.Entries()
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			string(e.Category),
			shots.FormatValue(e.Entry.Frequency),
			shots.FormatValue(e.Entry.Percentile),
		})
	}
	return formatTable(headers, rows, map[int]bool{1: true, 2: true})
}

// TotalLine summarizes the frequency sum.
func TotalLine(s shots.Store) string {
	total := shots.TotalFrequency(s)
	if math.IsNaN(total) {
		return "Total: NaN"
	}
	return fmt.Sprintf("Total: %s%%", shots.FormatValue(total))
}

// Write prints the table, the total, the balance warning and the donut.
func Write(w io.Writer, s shots.Store, opts Options) error {
	for _, line := range TableLines(s) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, TotalLine(s)); err != nil {
		return err
	}
	if !shots.IsBalanced(s) {
		if _, err := fmt.Fprintln(w, shots.BalanceWarning); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return chart.RenderDonut(w, shots.ToChartPoints(s), opts.ChartRows, opts.ForceColor)
}
