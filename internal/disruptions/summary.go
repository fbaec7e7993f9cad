package disruptions

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes one filtered selection
type Summary struct {
	Total                 int         `json:"total"`
	Stations              int         `json:"stations"`
	Months                int         `json:"months"`
	MeanPerMonth          float64     `json:"mean_per_month"`
	PeakMonth             *MonthCount `json:"peak_month,omitempty"`
	MeanDurationMinutes   float64     `json:"mean_duration_minutes"`
	MedianDurationMinutes float64     `json:"median_duration_minutes"`
}

// Summarize computes totals and duration statistics for res. Records
// without a usable end time are left out of the duration figures only.
func Summarize(res Result) Summary {
	s := Summary{
		Total:    len(res.Records),
		Stations: len(res.Stations),
		Months:   len(res.Monthly),
	}

	if len(res.Monthly) > 0 {
		counts := make([]float64, len(res.Monthly))
		peak := res.Monthly[0]
		for i, m := range res.Monthly {
			counts[i] = float64(m.Count)
			if m.Count > peak.Count {
				peak = m
			}
		}
		s.MeanPerMonth = stat.Mean(counts, nil)
		s.PeakMonth = &peak
	}

	var minutes []float64
	for _, r := range res.Records {
		if d, ok := r.Duration(); ok {
			minutes = append(minutes, d.Minutes())
		}
	}
	if len(minutes) > 0 {
		sort.Float64s(minutes)
		s.MeanDurationMinutes = stat.Mean(minutes, nil)
		s.MedianDurationMinutes = stat.Quantile(0.5, stat.Empirical, minutes, nil)
	}

	return s
}
