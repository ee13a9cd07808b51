// Package chart renders chart points as a donut chart, in the terminal or as PNG.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/verte-zerg/catstats/internal/model"
	"github.com/verte-zerg/catstats/internal/shots"
)

// ExportFilename is the name of the exported image.
const ExportFilename = "chart.png"

const (
	defaultSize = 500
	minSize     = 64
	// holeEdge covers the 4px white stroke go-chart draws around the hole
	// plus one pixel of antialiasing.
	holeEdge = 3
)

var (
	// ErrNoVisual is returned when exporting without a rendered chart.
	ErrNoVisual = errors.New("no chart to export")
	// ErrNoSlices is returned when no point has a drawable frequency.
	ErrNoSlices = errors.New("no slices to draw")
)

var (
	strokeColor = drawing.ColorFromHex("eeeeee")
	classFill   = map[model.ColorClass]drawing.Color{
		model.ClassHigh: drawing.ColorFromHex("238823"),
		model.ClassLow:  drawing.ColorFromHex("d2222d"),
		model.ClassMid:  drawing.ColorFromHex("ffbf00"),
	}
)

// Options controls the rendered image.
type Options struct {
	Width  int
	Height int
	Title  string
}

// Visual is a rendered chart ready for export.
type Visual struct {
	points []model.ChartPoint
	donut  gochart.DonutChart
}

// Points returns the slices drawn by v.
func (v *Visual) Points() []model.ChartPoint {
	if v == nil {
		return nil
	}
	return append([]model.ChartPoint(nil), v.points...)
}

// Render builds a donut chart from points. Points that are not visible are
// skipped, as are negative or infinite frequencies, which cannot be drawn.
func Render(points []model.ChartPoint, opts Options) (*Visual, error) {
	drawable := drawablePoints(points)
	if len(drawable) == 0 {
		return nil, ErrNoSlices
	}
	width, height := normalizeSize(opts.Width), normalizeSize(opts.Height)

	values := sliceValues(drawable)
	donut := gochart.DonutChart{
		Title:  opts.Title,
		Width:  width,
		Height: height,
		Background: gochart.Style{
			FillColor:   drawing.ColorTransparent,
			StrokeColor: drawing.ColorTransparent,
		},
		Canvas: gochart.Style{
			FillColor:   drawing.ColorTransparent,
			StrokeColor: drawing.ColorTransparent,
		},
		Values: values,
	}
	if opts.Title != "" {
		donut.TitleStyle = gochart.Style{FontColor: drawing.ColorFromHex("8c8c8c")}
	}
	return &Visual{points: drawable, donut: donut}, nil
}

// ExportPNG renders v as PNG bytes with a transparent background.
func ExportPNG(v *Visual) ([]byte, error) {
	if v == nil {
		return nil, ErrNoVisual
	}
	var buf bytes.Buffer
	if err := v.donut.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return clearHole(buf.Bytes(), donutGeometry(v.donut))
}

// sliceValues builds one go-chart value per point. Frequencies are scaled by
// the largest one so their sum stays finite.
func sliceValues(points []model.ChartPoint) []gochart.Value {
	largest := 0.0
	for _, p := range points {
		largest = math.Max(largest, p.Frequency)
	}
	values := make([]gochart.Value, 0, len(points)+1)
	for _, p := range points {
		values = append(values, gochart.Value{
			Label: string(p.Category),
			Value: p.Frequency / largest,
			Style: gochart.Style{
				FillColor:   FillColor(p.ColorClass),
				StrokeColor: strokeColor,
				StrokeWidth: 1,
			},
		})
	}
	if len(values) == 1 {
		// go-chart outlines a lone value without filling it, so draw it as
		// two seamless halves instead.
		only := values[0]
		only.Value /= 2
		only.Style.StrokeColor = only.Style.FillColor
		second := only
		second.Label = ""
		values = []gochart.Value{only, second}
	}
	return values
}

// ringGeometry locates the donut in pixel space, mirroring go-chart's layout.
type ringGeometry struct {
	cx, cy float64
	inner  float64
	outer  float64
}

func donutGeometry(d gochart.DonutChart) ringGeometry {
	box := d.Box()
	size := min(box.Width(), box.Height())
	box = box.Fit(gochart.Box{Right: size, Bottom: size})
	cx, cy := box.Center()
	radius := float64(min(box.Width(), box.Height())>>1) / 1.1
	return ringGeometry{
		cx:    float64(cx),
		cy:    float64(cy),
		inner: radius / 3.5,
		outer: radius / 1.25,
	}
}

// clearHole makes the opaque hole go-chart paints in the middle transparent.
func clearHole(data []byte, g ringGeometry) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode chart: %w", err)
	}
	bounds := src.Bounds()
	img := image.NewNRGBA(bounds)
	draw.Draw(img, bounds, src, bounds.Min, draw.Src)
	limit := g.inner + holeEdge
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if math.Hypot(float64(x)+0.5-g.cx, float64(y)+0.5-g.cy) <= limit {
				img.SetNRGBA(x, y, color.NRGBA{})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile atomically writes data to dir/chart.png and returns the path.
func WriteFile(dir string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	path := filepath.Join(dir, ExportFilename)
	tmpFile, err := os.CreateTemp(dir, "chart-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp chart: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close chart: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}
	return path, nil
}

// Export renders points and writes chart.png into dir.
func Export(points []model.ChartPoint, opts Options, dir string) (string, error) {
	visual, err := Render(points, opts)
	if err != nil {
		return "", err
	}
	data, err := ExportPNG(visual)
	if err != nil {
		return "", err
	}
	return WriteFile(dir, data)
}

// FillColor returns the palette colour of a class.
func FillColor(class model.ColorClass) drawing.Color {
	if c, ok := classFill[class]; ok {
		return c
	}
	return classFill[model.ClassMid]
}

func drawablePoints(points []model.ChartPoint) []model.ChartPoint {
	out := make([]model.ChartPoint, 0, len(points))
	for _, p := range shots.VisiblePoints(points) {
		if p.Frequency < 0 || math.IsInf(p.Frequency, 0) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func normalizeSize(v int) int {
	if v <= 0 {
		return defaultSize
	}
	if v < minSize {
		return minSize
	}
	return v
}
