package render

import (
	"authviz/internal/aggregate"
	"authviz/internal/types"
	"fmt"
	"image/color"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const countryTitle = "Number of SSH login attempts per country"

// PNG saves charts as PNG images. The format does not depend on the file
// extension.
type PNG struct {
	path   string
	width  vg.Length
	height vg.Length
}

// NewPNG creates a renderer writing to path, size in inches
func NewPNG(path string, widthIn, heightIn float64) *PNG {
	return &PNG{
		path:   path,
		width:  vg.Length(widthIn) * vg.Inch,
		height: vg.Length(heightIn) * vg.Inch,
	}
}

func (p *PNG) Render(r Report) error {
	if err := checkReport(r); err != nil {
		return err
	}

	var plt *plot.Plot
	var err error
	switch r.Mode {
	case types.ModeCountry:
		plt, err = countryPlot(r.Countries)
	case types.ModeHeatmap:
		plt = heatmapPlot(*r.Heatmap)
	}
	if err != nil {
		return err
	}

	wt, err := plt.WriterTo(p.width, p.height, "png")
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	f, err := os.Create(p.path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", p.path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", p.path, err)
	}
	return f.Close()
}

func countryPlot(counts []aggregate.CountryCount) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = countryTitle
	p.X.Label.Text = "Country"
	p.Y.Label.Text = "Attempts"

	values := make(plotter.Values, len(counts))
	labels := make([]string, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Count)
		labels[i] = c.Country
	}

	// Narrower bars once there are many countries
	width := vg.Points(20)
	if n := len(counts); n > 20 {
		width = vg.Points(400 / float64(n))
	}

	bars, err := plotter.NewBarChart(values, width)
	if err != nil {
		return nil, fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = color.RGBA{R: 204, A: 255}
	bars.LineStyle.Width = 0

	p.Add(bars)
	p.NominalX(labels...)
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	return p, nil
}

// heatGrid adapts a Heatmap to plotter.GridXYZ: columns are days, rows hours
type heatGrid struct {
	h aggregate.Heatmap
}

func (g heatGrid) Dims() (c, r int)   { return g.h.Cols(), g.h.Rows() }
func (g heatGrid) Z(c, r int) float64 { return float64(g.h.Cells[r][c]) }
func (g heatGrid) X(c int) float64    { return float64(c) }
func (g heatGrid) Y(r int) float64    { return float64(r) }

func heatmapPlot(h aggregate.Heatmap) *plot.Plot {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("SSH login attempts per hour and day (max %d)", h.Max())
	p.X.Label.Text = "Day"
	p.Y.Label.Text = "Hour"

	hm := plotter.NewHeatMap(heatGrid{h: h}, palette.Heat(12, 1))
	if hm.Max <= hm.Min {
		// uniform grid, the palette still needs a non-empty range
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	dayTicks := make(plot.ConstantTicks, h.Cols())
	for c, label := range h.Columns {
		dayTicks[c] = plot.Tick{Value: float64(c), Label: label}
	}
	p.X.Tick.Marker = dayTicks

	hourTicks := make(plot.ConstantTicks, aggregate.HoursPerDay)
	for hour := 0; hour < aggregate.HoursPerDay; hour++ {
		hourTicks[hour] = plot.Tick{Value: float64(hour)}
		if hour%3 == 0 {
			hourTicks[hour].Label = strconv.Itoa(hour)
		}
	}
	p.Y.Tick.Marker = hourTicks

	return p
}
