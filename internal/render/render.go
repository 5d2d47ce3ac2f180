package render

import (
	"authviz/internal/aggregate"
	"authviz/internal/types"
	"encoding/json"
	"fmt"
	"io"
)

// Report is what a run hands to a renderer: one of the two aggregate tables
// plus enough context to label the output.
type Report struct {
	Mode      types.Mode               `json:"mode"`
	LogFile   string                   `json:"log_file"`
	Attempts  int                      `json:"attempts"`
	Countries []aggregate.CountryCount `json:"countries,omitempty"`
	Sources   []aggregate.SourceCount  `json:"top_sources,omitempty"`
	Heatmap   *aggregate.Heatmap       `json:"heatmap,omitempty"`
}

// Renderer turns a report into a chart
type Renderer interface {
	Render(r Report) error
}

func checkReport(r Report) error {
	switch r.Mode {
	case types.ModeCountry:
		if len(r.Countries) == 0 {
			return fmt.Errorf("nothing to render: no country counts")
		}
	case types.ModeHeatmap:
		if r.Heatmap == nil || r.Heatmap.Cols() == 0 {
			return fmt.Errorf("nothing to render: empty heatmap")
		}
	default:
		return fmt.Errorf("unknown mode %q", r.Mode)
	}
	return nil
}

// JSON writes the report as indented JSON
type JSON struct {
	out io.Writer
}

func NewJSON(out io.Writer) *JSON {
	return &JSON{out: out}
}

func (j *JSON) Render(r Report) error {
	if err := checkReport(r); err != nil {
		return err
	}
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
