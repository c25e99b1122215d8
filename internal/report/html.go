package report

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// HTMLRenderer renders an interactive page with the lateral and vertical
// charts of a report.
type HTMLRenderer struct {
	// AssetsHost overrides where the echarts scripts are loaded from.
	AssetsHost string
}

func (h HTMLRenderer) Render(r *Report) ([]byte, error) {
	labels := make([]string, len(r.Samples))
	lateral := make([]opts.LineData, len(r.Samples))
	vertical := make([]opts.LineData, len(r.Samples))
	for i, s := range r.Samples {
		labels[i] = fmt.Sprintf("%.5f", s.PositionOrZero())
		lateral[i] = opts.LineData{Value: s.Y}
		vertical[i] = opts.LineData{Value: s.Z}
	}

	lat := h.newLine(r, AxisLateral)
	lat.SetXAxis(labels).AddSeries("Y", lateral)
	limits := []struct {
		name  string
		value float64
		color string
	}{
		{"LA", r.Thresholds.Alert, "#fbbf24"},
		{"LI", r.Thresholds.Intervention, "#f97316"},
		{"LAI", r.Thresholds.Immediate, "#ef4444"},
	}
	for _, l := range limits {
		for _, sign := range []float64{1, -1} {
			name := l.name
			if sign < 0 {
				name = "-" + l.name
			}
			lat.AddSeries(name, constant(len(labels), sign*l.value),
				charts.WithLineStyleOpts(opts.LineStyle{Color: l.color, Type: "dashed", Width: 1}),
			)
		}
	}

	vert := h.newLine(r, AxisVertical)
	vert.SetXAxis(labels).AddSeries("Z", vertical)

	page := components.NewPage()
	page.PageTitle = "Report " + r.ID
	if h.AssetsHost != "" {
		page.SetAssetsHost(h.AssetsHost)
	}
	page.AddCharts(lat, vert)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

func (h HTMLRenderer) newLine(r *Report, axis Axis) *charts.Line {
	init := opts.Initialization{Width: "100%", Height: "420px"}
	if h.AssetsHost != "" {
		init.AssetsHost = h.AssetsHost
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(init),
		charts.WithTitleOpts(opts.Title{Title: axis.title(), Subtitle: fmt.Sprintf("track %s  PK %s", r.Track, r.PKRange())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "PK (km)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "m/s²"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	return line
}

func constant(n int, v float64) []opts.LineData {
	out := make([]opts.LineData, n)
	for i := range out {
		out[i] = opts.LineData{Value: v}
	}
	return out
}
