package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ReportRow summarises one frame of a batch run.
type ReportRow struct {
	Stem         string
	LanesDrawn   int
	LanesEmpty   int
	Points       int
	Culled       int
	SkippedPairs int
}

// WriteReport renders an HTML page with per-frame bar charts of lanes and
// points.
func WriteReport(w io.Writer, title string, rows []ReportRow) error {
	stems := make([]string, len(rows))
	drawn := make([]opts.BarData, len(rows))
	empty := make([]opts.BarData, len(rows))
	skipped := make([]opts.BarData, len(rows))
	points := make([]opts.BarData, len(rows))
	culled := make([]opts.BarData, len(rows))
	for i, r := range rows {
		stems[i] = r.Stem
		drawn[i] = opts.BarData{Value: r.LanesDrawn}
		empty[i] = opts.BarData{Value: r.LanesEmpty}
		skipped[i] = opts.BarData{Value: r.SkippedPairs}
		points[i] = opts.BarData{Value: r.Points}
		culled[i] = opts.BarData{Value: r.Culled}
	}

	lanes := charts.NewBar()
	lanes.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Lanes per frame", Subtitle: fmt.Sprintf("frames=%d", len(rows))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	lanes.SetXAxis(stems).
		AddSeries("drawn", drawn, charts.WithBarChartOpts(opts.BarChart{Stack: "lanes"})).
		AddSeries("empty", empty, charts.WithBarChartOpts(opts.BarChart{Stack: "lanes"})).
		AddSeries("skipped pairs", skipped)

	pts := charts.NewBar()
	pts.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Samples per frame"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	pts.SetXAxis(stems).
		AddSeries("projected", points).
		AddSeries("culled", culled)

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(lanes, pts)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
