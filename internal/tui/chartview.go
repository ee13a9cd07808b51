package tui

import (
	"strings"

	"github.com/verte-zerg/catstats/internal/chart"
	"github.com/verte-zerg/catstats/internal/model"
	"github.com/verte-zerg/catstats/internal/shots"
)

// chartView keeps the chart points of the latest snapshot and the image
// handle used for export.
type chartView struct {
	cfg      model.ChartConfig
	useColor bool
	points   []model.ChartPoint
	rendered *chart.Visual
}

func newChartView(cfg model.ChartConfig, useColor bool) chartView {
	return chartView{cfg: cfg, useColor: useColor}
}

func (c *chartView) refresh(s shots.Store) {
	c.points = shots.ToChartPoints(s)
	visual, err := chart.Render(c.points, chart.Options{Width: c.cfg.Width, Height: c.cfg.Height, Title: c.cfg.Title})
	if err != nil {
		c.rendered = nil
		return
	}
	c.rendered = visual
}

func (c *chartView) visual() *chart.Visual {
	return c.rendered
}

func (c *chartView) legendLen() int {
	return len(shots.VisiblePoints(c.points))
}

func (c *chartView) view(rows int) string {
	lines := chart.DonutLines(c.points, rows, c.useColor)
	return strings.Join(lines, "\n")
}
