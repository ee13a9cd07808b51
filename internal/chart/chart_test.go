package chart

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/catstats/internal/model"
)

func samplePoints() []model.ChartPoint {
	return []model.ChartPoint{
		{Category: model.PickAndRollBallHandler, Frequency: 0, ColorClass: model.ClassLow},
		{Category: model.SpotUp, Frequency: 40, ColorClass: model.ClassHigh},
		{Category: model.Transition, Frequency: 60, ColorClass: model.ClassLow},
		{Category: model.Cut, Frequency: math.NaN(), ColorClass: model.ClassMid},
	}
}

func TestRenderSkipsHiddenPoints(t *testing.T) {
	v, err := Render(samplePoints(), Options{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	pts := v.Points()
	if len(pts) != 2 || pts[0].Category != model.SpotUp || pts[1].Category != model.Transition {
		t.Fatalf("unexpected drawn points: %+v", pts)
	}
}

func TestRenderNoSlices(t *testing.T) {
	points := []model.ChartPoint{
		{Category: model.SpotUp, Frequency: 0},
		{Category: model.Cut, Frequency: -10},
	}
	if _, err := Render(points, Options{}); !errors.Is(err, ErrNoSlices) {
		t.Fatalf("expected ErrNoSlices, got %v", err)
	}
}

func TestExportPNGNilVisual(t *testing.T) {
	if _, err := ExportPNG(nil); !errors.Is(err, ErrNoVisual) {
		t.Fatalf("expected ErrNoVisual, got %v", err)
	}
}

func TestExportWritesPNG(t *testing.T) {
	dir := t.TempDir()
	path, err := Export(samplePoints(), Options{Width: 200, Height: 200}, dir)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if filepath.Base(path) != ExportFilename {
		t.Fatalf("expected %s, got %s", ExportFilename, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Fatalf("unexpected image size: %v", b)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Fatalf("expected transparent corner, got alpha %d", a)
	}
	if n := countClass(img, model.ClassHigh); n < 500 {
		t.Fatalf("expected Spot Up slice in high colour, got %d px", n)
	}
	if n := countClass(img, model.ClassLow); n < 500 {
		t.Fatalf("expected Transition slice in low colour, got %d px", n)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only chart.png in export dir, got %d entries", len(entries))
	}
}

func decodeExport(t *testing.T, points []model.ChartPoint, opts Options) (image.Image, ringGeometry) {
	t.Helper()
	v, err := Render(points, opts)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	data, err := ExportPNG(v)
	if err != nil {
		t.Fatalf("ExportPNG failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img, donutGeometry(v.donut)
}

// countClass counts opaque pixels painted in the fill colour of class.
func countClass(img image.Image, class model.ColorClass) int {
	want := FillColor(class)
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0xff && c.R == want.R && c.G == want.G && c.B == want.B {
				n++
			}
		}
	}
	return n
}

// ringPixel returns the pixel midway through the ring at 45 degrees.
func ringPixel(img image.Image, g ringGeometry) color.NRGBA {
	r := (g.inner + g.outer) / 2
	x := int(g.cx + r*math.Cos(math.Pi/4))
	y := int(g.cy + r*math.Sin(math.Pi/4))
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestExportSingleSliceIsFilled(t *testing.T) {
	points := []model.ChartPoint{{Category: model.SpotUp, Frequency: 100, ColorClass: model.ClassHigh}}
	img, g := decodeExport(t, points, Options{Width: 200, Height: 200})
	if n := countClass(img, model.ClassHigh); n < 2000 {
		t.Fatalf("expected a filled high ring, got %d px", n)
	}
	want := FillColor(model.ClassHigh)
	if got := ringPixel(img, g); got.A != 0xff || got.R != want.R || got.G != want.G || got.B != want.B {
		t.Fatalf("expected ring pixel %+v, got %+v", want, got)
	}
}

func TestExportHoleIsTransparent(t *testing.T) {
	img, g := decodeExport(t, samplePoints(), Options{Width: 200, Height: 200})
	if _, _, _, a := img.At(int(g.cx), int(g.cy)).RGBA(); a != 0 {
		t.Fatalf("expected transparent centre, got alpha %d", a)
	}
	opaque := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if math.Hypot(float64(x)+0.5-g.cx, float64(y)+0.5-g.cy) > g.inner {
				continue
			}
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A != 0 {
				opaque++
			}
		}
	}
	if opaque != 0 {
		t.Fatalf("expected empty hole, found %d opaque px", opaque)
	}
}

func TestExportNonSquareHole(t *testing.T) {
	img, g := decodeExport(t, samplePoints(), Options{Width: 320, Height: 200})
	if _, _, _, a := img.At(int(g.cx), int(g.cy)).RGBA(); a != 0 {
		t.Fatalf("expected transparent centre, got alpha %d", a)
	}
	if n := countClass(img, model.ClassLow); n < 500 {
		t.Fatalf("expected low colour ring, got %d px", n)
	}
}

func TestExportHugeFrequencies(t *testing.T) {
	points := []model.ChartPoint{
		{Category: model.SpotUp, Frequency: math.MaxFloat64, ColorClass: model.ClassHigh},
		{Category: model.Cut, Frequency: math.MaxFloat64, ColorClass: model.ClassLow},
	}
	img, _ := decodeExport(t, points, Options{Width: 200, Height: 200})
	high, low := countClass(img, model.ClassHigh), countClass(img, model.ClassLow)
	if high < 500 || low < 500 {
		t.Fatalf("expected both slices drawn, got high=%d low=%d", high, low)
	}
}

func TestSliceBoundsHugeFrequencies(t *testing.T) {
	bounds := sliceBounds([]model.ChartPoint{
		{Category: model.SpotUp, Frequency: math.MaxFloat64},
		{Category: model.Cut, Frequency: math.MaxFloat64},
	})
	if math.Abs(bounds[0].end-0.5) > 1e-9 || bounds[1].end != 1 {
		t.Fatalf("unexpected bounds: %+v", bounds)
	}
}

func TestFillColorPalette(t *testing.T) {
	high := FillColor(model.ClassHigh)
	if high.R != 0x23 || high.G != 0x88 || high.B != 0x23 {
		t.Fatalf("unexpected high colour: %+v", high)
	}
	low := FillColor(model.ClassLow)
	if low.R != 0xd2 || low.G != 0x22 || low.B != 0x2d {
		t.Fatalf("unexpected low colour: %+v", low)
	}
	mid := FillColor(model.ClassMid)
	if mid.R != 0xff || mid.G != 0xbf || mid.B != 0x00 {
		t.Fatalf("unexpected mid colour: %+v", mid)
	}
}

func TestDonutLines(t *testing.T) {
	lines := DonutLines(samplePoints(), 8, false)
	if len(lines) != 8+1+2 {
		t.Fatalf("expected 11 lines, got %d", len(lines))
	}
	legend := strings.Join(lines[9:], "\n")
	if !strings.Contains(legend, "Spot Up") || !strings.Contains(legend, "high") {
		t.Fatalf("legend missing Spot Up: %s", legend)
	}
	if !strings.Contains(legend, "Transition") || !strings.Contains(legend, "60%") {
		t.Fatalf("legend missing Transition: %s", legend)
	}
	if strings.Contains(legend, "Cut") || strings.Contains(legend, "P&R BH") {
		t.Fatalf("legend should skip hidden slices: %s", legend)
	}
	body := strings.Join(lines[:8], "")
	if strings.Contains(body, "\x1b[") {
		t.Fatalf("expected no colour codes")
	}
	if strings.TrimSpace(strings.ReplaceAll(body, string(brailleFromMask(0)), "")) == "" {
		t.Fatalf("expected donut dots")
	}
}

func TestDonutLinesEmpty(t *testing.T) {
	lines := DonutLines([]model.ChartPoint{{Category: model.Cut}}, 8, false)
	if len(lines) != 1 || lines[0] != emptyChart {
		t.Fatalf("unexpected empty output: %v", lines)
	}
}

func TestClockwiseFraction(t *testing.T) {
	cases := []struct {
		dx, dy float64
		want   float64
	}{
		{0, -1, 0},
		{1, 0, 0.25},
		{0, 1, 0.5},
		{-1, 0, 0.75},
	}
	for _, tc := range cases {
		if got := clockwiseFraction(tc.dx, tc.dy); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("clockwiseFraction(%v,%v) = %v, want %v", tc.dx, tc.dy, got, tc.want)
		}
	}
}

func TestComposeCellPicksMajority(t *testing.T) {
	mask, idx := composeCell([]uint8{0x01, 0x06, 0})
	if mask != 0x07 || idx != 1 {
		t.Fatalf("unexpected compose result mask=%x idx=%d", mask, idx)
	}
}
