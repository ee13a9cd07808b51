package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/verte-zerg/catstats/internal/model"
	"github.com/verte-zerg/catstats/internal/shots"
)

// MinDonutRows is the smallest donut height in terminal lines.
const MinDonutRows = 4

const (
	defaultDonutRows = 12
	innerRatio       = 0.4
	colorReset       = "\x1b[0m"
	emptyChart       = "No slices to draw."
)

var classANSI = map[model.ColorClass]string{
	model.ClassHigh: "\x1b[32m",
	model.ClassLow:  "\x1b[31m",
	model.ClassMid:  "\x1b[33m",
}

// RenderDonut draws points as a braille donut followed by a legend.
// rows is the chart height in terminal lines; the width is twice that.
func RenderDonut(w io.Writer, points []model.ChartPoint, rows int, forceColor bool) error {
	lines := DonutLines(points, rows, shouldUseColor(w, forceColor))
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// DonutLines returns the donut and legend as terminal lines.
func DonutLines(points []model.ChartPoint, rows int, useColor bool) []string {
	drawable := drawablePoints(points)
	if len(drawable) == 0 {
		return []string{emptyChart}
	}
	if rows <= 0 {
		rows = defaultDonutRows
	}
	if rows < MinDonutRows {
		rows = MinDonutRows
	}
	cols := rows * 2

	bounds := sliceBounds(drawable)
	// per cell, per slice dot masks
	masks := make([][][]uint8, rows)
	for y := range masks {
		masks[y] = make([][]uint8, cols)
		for x := range masks[y] {
			masks[y][x] = make([]uint8, len(drawable))
		}
	}

	dotsW, dotsH := cols*2, rows*4
	cx, cy := float64(dotsW-1)/2, float64(dotsH-1)/2
	outer := math.Min(cx, cy)
	inner := outer * innerRatio
	for py := 0; py < dotsH; py++ {
		for px := 0; px < dotsW; px++ {
			dx, dy := float64(px)-cx, float64(py)-cy
			dist := math.Hypot(dx, dy)
			if dist > outer || dist < inner {
				continue
			}
			idx := sliceAt(bounds, clockwiseFraction(dx, dy))
			masks[py/4][px/2][idx] |= brailleDotMask(px%2, py%4)
		}
	}

	lines := make([]string, 0, rows+len(drawable)+1)
	for y := 0; y < rows; y++ {
		var row strings.Builder
		for x := 0; x < cols; x++ {
			mask, idx := composeCell(masks[y][x])
			ch := brailleFromMask(mask)
			if useColor && idx >= 0 {
				row.WriteString(classANSI[drawable[idx].ColorClass])
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		lines = append(lines, strings.TrimRight(row.String(), string(brailleFromMask(0))))
	}
	lines = append(lines, "")
	return append(lines, LegendLines(drawable, useColor)...)
}

// LegendLines lists visible slices with their share and class.
func LegendLines(points []model.ChartPoint, useColor bool) []string {
	drawable := drawablePoints(points)
	labelWidth := 0
	for _, p := range drawable {
		if w := runewidth.StringWidth(string(p.Category)); w > labelWidth {
			labelWidth = w
		}
	}
	marker := string(brailleFromMask(0xFF))
	lines := make([]string, 0, len(drawable))
	for _, p := range drawable {
		swatch := marker
		if useColor {
			swatch = classANSI[p.ColorClass] + marker + colorReset
		}
		label := runewidth.FillRight(string(p.Category), labelWidth)
		lines = append(lines, fmt.Sprintf("%s %s %5s%%  %s", swatch, label, shots.FormatValue(p.Frequency), p.ColorClass))
	}
	return lines
}

type sliceBound struct {
	end float64
}

// sliceBounds returns cumulative slice ends in [0,1]. Frequencies are scaled
// by the largest one first so the running sum cannot overflow.
func sliceBounds(points []model.ChartPoint) []sliceBound {
	largest := 0.0
	for _, p := range points {
		largest = math.Max(largest, p.Frequency)
	}
	var total float64
	for _, p := range points {
		total += p.Frequency / largest
	}
	bounds := make([]sliceBound, len(points))
	var acc float64
	for i, p := range points {
		acc += p.Frequency / largest
		bounds[i] = sliceBound{end: acc / total}
	}
	bounds[len(bounds)-1].end = 1
	return bounds
}

func sliceAt(bounds []sliceBound, frac float64) int {
	for i, b := range bounds {
		if frac < b.end {
			return i
		}
	}
	return len(bounds) - 1
}

// clockwiseFraction maps a dot offset to [0,1), starting at 12 o'clock.
func clockwiseFraction(dx, dy float64) float64 {
	angle := math.Atan2(dx, -dy)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return angle / (2 * math.Pi)
}

// composeCell merges slice masks and picks the slice owning most dots.
func composeCell(sliceMasks []uint8) (uint8, int) {
	var mask uint8
	best, bestCount := -1, 0
	for i, m := range sliceMasks {
		if m == 0 {
			continue
		}
		mask |= m
		if n := popcount(m); n > bestCount {
			best, bestCount = i, n
		}
	}
	return mask, best
}

func popcount(m uint8) int {
	n := 0
	for m != 0 {
		n += int(m & 1)
		m >>= 1
	}
	return n
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
