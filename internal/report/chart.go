package report

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/trackinspect/pkrec/internal/session"
)

// Axis selects which acceleration a chart shows.
type Axis string

const (
	AxisLateral  Axis = "lateral"
	AxisVertical Axis = "vertical"
)

func (a Axis) value(s session.Sample) float64 {
	if a == AxisVertical {
		return s.Z
	}
	return s.Y
}

func (a Axis) title() string {
	if a == AxisVertical {
		return "Vertical acceleration Z (m/s²)"
	}
	return "Lateral acceleration Y (m/s²)"
}

var (
	seriesColor       = color.RGBA{R: 59, G: 130, B: 246, A: 255}
	alertColor        = color.RGBA{R: 251, G: 191, B: 36, A: 255}
	interventionColor = color.RGBA{R: 249, G: 115, B: 22, A: 255}
	immediateColor    = color.RGBA{R: 239, G: 68, B: 68, A: 255}
)

// ChartRenderer draws one axis against PK as a PNG. The lateral chart carries
// the three thresholds mirrored above and below zero.
type ChartRenderer struct {
	Axis   Axis
	Width  vg.Length
	Height vg.Length
}

func (c ChartRenderer) Render(r *Report) ([]byte, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s  track %s  PK %s", c.Axis.title(), r.Track, r.PKRange())
	p.X.Label.Text = "PK (km)"
	p.Y.Label.Text = "m/s²"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, len(r.Samples))
	for _, s := range r.Samples {
		pts = append(pts, plotter.XY{X: s.PositionOrZero(), Y: c.Axis.value(s)})
	}
	if len(pts) > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("%s series: %w", c.Axis, err)
		}
		line.Color = seriesColor
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(string(c.Axis), line)
	}

	if c.Axis == AxisLateral {
		limits := []struct {
			name  string
			value float64
			color color.Color
		}{
			{"LA", r.Thresholds.Alert, alertColor},
			{"LI", r.Thresholds.Intervention, interventionColor},
			{"LAI", r.Thresholds.Immediate, immediateColor},
		}
		for _, l := range limits {
			for _, sign := range []float64{1, -1} {
				v := sign * l.value
				fn := plotter.NewFunction(func(float64) float64 { return v })
				fn.Color = l.color
				fn.Width = vg.Points(1)
				fn.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
				p.Add(fn)
				if sign > 0 {
					p.Legend.Add(l.name, fn)
				}
			}
		}
		p.Y.Min = -r.Thresholds.Immediate * 1.2
		p.Y.Max = r.Thresholds.Immediate * 1.2
		for _, pt := range pts {
			if pt.Y < p.Y.Min {
				p.Y.Min = pt.Y
			}
			if pt.Y > p.Y.Max {
				p.Y.Max = pt.Y
			}
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	w, h := c.Width, c.Height
	if w == 0 {
		w = 12 * vg.Inch
	}
	if h == 0 {
		h = 5 * vg.Inch
	}
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("render %s chart: %w", c.Axis, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render %s chart: %w", c.Axis, err)
	}
	return buf.Bytes(), nil
}
