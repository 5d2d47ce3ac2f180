package aggregate

import (
	"authviz/internal/types"
	"sort"
	"strconv"
	"time"
)

// HoursPerDay is the number of heatmap rows
const HoursPerDay = 24

const window = 24 * time.Hour

// Heatmap is a grid of attempt counts: one row per hour of day, one column
// per day bucket. Cells[hour][col] is the count.
type Heatmap struct {
	Bucketing types.Bucketing `json:"bucketing"`
	Columns   []string        `json:"columns"`
	Cells     [][]int         `json:"cells"`
}

// Rows is always HoursPerDay
func (h Heatmap) Rows() int {
	return len(h.Cells)
}

// Cols is the number of day buckets
func (h Heatmap) Cols() int {
	return len(h.Columns)
}

// Total is the sum over all cells
func (h Heatmap) Total() int {
	total := 0
	for _, row := range h.Cells {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// Max is the largest cell value
func (h Heatmap) Max() int {
	top := 0
	for _, row := range h.Cells {
		for _, v := range row {
			if v > top {
				top = v
			}
		}
	}
	return top
}

// BuildHeatmap buckets attempts by hour of day and by day. Attempts are
// walked in timestamp order; file order breaks ties.
func BuildHeatmap(attempts []types.LoginAttempt, bucketing types.Bucketing) Heatmap {
	if bucketing == "" {
		bucketing = types.BucketingCalendar
	}

	ordered := make([]types.LoginAttempt, len(attempts))
	copy(ordered, attempts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	h := Heatmap{Bucketing: bucketing, Cells: make([][]int, HoursPerDay)}
	columns := make(map[string]int)

	add := func(key, label string, hour int) {
		col, ok := columns[key]
		if !ok {
			col = len(h.Columns)
			columns[key] = col
			h.Columns = append(h.Columns, label)
			for r := range h.Cells {
				h.Cells[r] = append(h.Cells[r], 0)
			}
		}
		h.Cells[hour][col]++
	}

	switch bucketing {
	case types.BucketingRolling:
		// A window opens at an attempt and is keyed by that attempt's day of
		// month. The first attempt more than 24h later opens the next window.
		// Windows with equal keys share a column.
		var start time.Time
		var key string
		for i, a := range ordered {
			if i == 0 || a.Timestamp.Sub(start) > window {
				start = a.Timestamp
				key = strconv.Itoa(a.Timestamp.Day())
			}
			add(key, key, a.Timestamp.Hour())
		}
	default:
		multiYear := len(ordered) > 0 && ordered[0].Timestamp.Year() != ordered[len(ordered)-1].Timestamp.Year()
		for _, a := range ordered {
			ts := a.Timestamp
			label := ts.Format("Jan 02")
			if multiYear {
				label = ts.Format("2006 Jan 02")
			}
			add(ts.Format("2006-01-02"), label, ts.Hour())
		}
	}

	return h
}
