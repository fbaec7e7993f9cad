// Package charts shapes monthly disruption counts into a bar chart and
// renders it server-side with go-chart.
package charts

import (
	"time"

	"github.com/railstats/nsdisruptions/internal/disruptions"
)

const (
	// MonthLayout formats bar labels
	MonthLayout = "2006-01"

	XLabel = "Month"
	YLabel = "Number of Disruptions"
)

// Bar is the disruption count for one calendar month
type Bar struct {
	Label string    `json:"label"`
	Month time.Time `json:"month"`
	Count int       `json:"count"`
}

// BarChart is the "Disruptions by Month" chart
type BarChart struct {
	Title  string `json:"title"`
	XLabel string `json:"x_label"`
	YLabel string `json:"y_label"`
	Bars   []Bar  `json:"bars"`
}

// Monthly builds the chart from chronologically ordered month counts
func Monthly(title string, counts []disruptions.MonthCount) BarChart {
	c := BarChart{
		Title:  title,
		XLabel: XLabel,
		YLabel: YLabel,
		Bars:   make([]Bar, 0, len(counts)),
	}
	for _, m := range counts {
		c.Bars = append(c.Bars, Bar{
			Label: m.Month.Format(MonthLayout),
			Month: m.Month,
			Count: m.Count,
		})
	}
	return c
}

// Empty reports whether the chart has no bars
func (c BarChart) Empty() bool {
	return len(c.Bars) == 0
}

// MaxCount returns the tallest bar's count
func (c BarChart) MaxCount() int {
	max := 0
	for _, b := range c.Bars {
		if b.Count > max {
			max = b.Count
		}
	}
	return max
}
