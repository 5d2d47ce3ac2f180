package render

import (
	"authviz/internal/aggregate"
	"authviz/internal/types"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const defaultWidth = 80

// shades from empty to hottest, paired with heatColors
var shades = []string{"·", "░", "▒", "▓", "█"}

var heatColors = []lipgloss.Color{"240", "220", "214", "202", "196"}

// Terminal draws charts with block characters. Colors are only emitted when
// the output is a terminal that supports them.
type Terminal struct {
	out   io.Writer
	width int

	title lipgloss.Style
	bar   lipgloss.Style
	dim   lipgloss.Style
	heat  []lipgloss.Style
}

// NewTerminal creates a renderer for out, sized to the terminal when out is one
func NewTerminal(out io.Writer) *Terminal {
	width := defaultWidth
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	r := lipgloss.NewRenderer(out)
	t := &Terminal{
		out:   out,
		width: width,
		title: r.NewStyle().Bold(true),
		bar:   r.NewStyle().Foreground(lipgloss.Color("160")),
		dim:   r.NewStyle().Faint(true),
	}
	for _, c := range heatColors {
		t.heat = append(t.heat, r.NewStyle().Foreground(c))
	}
	return t
}

func (t *Terminal) Render(r Report) error {
	if err := checkReport(r); err != nil {
		return err
	}

	var b strings.Builder
	switch r.Mode {
	case types.ModeCountry:
		t.countries(&b, r)
	case types.ModeHeatmap:
		t.heatmap(&b, r)
	}

	_, err := io.WriteString(t.out, b.String())
	return err
}

func (t *Terminal) countries(b *strings.Builder, r Report) {
	fmt.Fprintf(b, "%s\n", t.title.Render(countryTitle))
	fmt.Fprintf(b, "%s\n\n", t.dim.Render(fmt.Sprintf("%d attempts in %s", r.Attempts, r.LogFile)))

	labelWidth := 0
	top := 0
	for _, c := range r.Countries {
		labelWidth = max(labelWidth, len(c.Country))
		top = max(top, c.Count)
	}
	countWidth := len(fmt.Sprint(top))

	barWidth := t.width - labelWidth - countWidth - 4
	if barWidth < 10 {
		barWidth = 10
	}

	for _, c := range r.Countries {
		n := c.Count * barWidth / top
		if n == 0 {
			n = 1
		}
		fmt.Fprintf(b, "%-*s │%s %*d\n", labelWidth, c.Country,
			t.bar.Render(strings.Repeat("█", n)), countWidth, c.Count)
	}

	if len(r.Sources) == 0 {
		return
	}

	fmt.Fprintf(b, "\n%s\n", t.title.Render("Top sources"))
	addrWidth := 0
	for _, s := range r.Sources {
		addrWidth = max(addrWidth, len(s.Address))
	}
	for _, s := range r.Sources {
		fmt.Fprintf(b, "  %-*s  %-8s %d\n", addrWidth, s.Address, s.Country, s.Count)
	}
}

// heatmap prints one line per day with the 24 hours across, so the grid fits
// a normal terminal however many days there are.
func (t *Terminal) heatmap(b *strings.Builder, r Report) {
	h := r.Heatmap
	top := h.Max()

	fmt.Fprintf(b, "%s\n", t.title.Render("SSH login attempts per hour and day"))
	fmt.Fprintf(b, "%s\n\n", t.dim.Render(fmt.Sprintf("%d attempts in %s, %s buckets", r.Attempts, r.LogFile, h.Bucketing)))

	labelWidth := 0
	for _, l := range h.Columns {
		labelWidth = max(labelWidth, len(l))
	}

	var header strings.Builder
	for hour := 0; hour < aggregate.HoursPerDay; hour++ {
		if hour%3 == 0 {
			fmt.Fprintf(&header, "%-6d", hour)
		}
	}
	fmt.Fprintf(b, "%*s  %s\n", labelWidth, "", strings.TrimRight(header.String(), " "))

	for col, label := range h.Columns {
		var row strings.Builder
		for hour := 0; hour < aggregate.HoursPerDay; hour++ {
			level := shadeLevel(h.Cells[hour][col], top)
			row.WriteString(t.heat[level].Render(strings.Repeat(shades[level], 2)))
		}
		fmt.Fprintf(b, "%*s  %s\n", labelWidth, label, row.String())
	}

	var legend strings.Builder
	for level := range shades {
		legend.WriteString(t.heat[level].Render(shades[level]))
		legend.WriteString(" ")
		legend.WriteString(legendRange(level, top))
		legend.WriteString("  ")
	}
	fmt.Fprintf(b, "\n%s\n", strings.TrimRight(legend.String(), " "))
}

// shadeLevel maps a count to 0 (none) or 1..4 relative to the max
func shadeLevel(v, top int) int {
	if v <= 0 || top <= 0 {
		return 0
	}
	steps := len(shades) - 1
	level := (v*steps + top - 1) / top
	if level > steps {
		level = steps
	}
	return level
}

func legendRange(level, top int) string {
	if level == 0 {
		return "0"
	}
	steps := len(shades) - 1
	lo := (level-1)*top/steps + 1
	hi := level * top / steps
	if hi < lo {
		return "-"
	}
	if lo == hi {
		return fmt.Sprint(lo)
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}
