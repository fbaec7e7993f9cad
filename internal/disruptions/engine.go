package disruptions

import (
	"sort"
	"time"
)

// StationCounts maps a station code to the number of matching disruptions.
// Stations without any matching disruption are absent.
type StationCounts map[string]int

// MonthCount is the number of matching disruptions that started in Month.
// Month is the first instant of the calendar month.
type MonthCount struct {
	Month time.Time `json:"month"`
	Count int       `json:"count"`
}

// Result holds the filtered records and both aggregates for one selection
type Result struct {
	Year     YearSelection `json:"-"`
	Cause    string        `json:"cause"`
	Records  []Record      `json:"-"`
	Stations StationCounts `json:"stations"`
	Monthly  []MonthCount  `json:"monthly"`
}

// FilterByYear keeps records whose DateN falls in the selected year
func FilterByYear(records []Record, year YearSelection) []Record {
	if year.All() {
		return records
	}

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if year.Contains(r.DateN) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByCause keeps records whose cause equals cause exactly
func FilterByCause(records []Record, cause string) []Record {
	out := make([]Record, 0)
	for _, r := range records {
		if r.StatisticalCauseEN == cause {
			out = append(out, r)
		}
	}
	return out
}

// Filter applies the year filter and then the cause filter
func Filter(records []Record, year YearSelection, cause string) []Record {
	return FilterByCause(FilterByYear(records, year), cause)
}

// CountByStation groups records by station code. Records without a
// station code are left out.
func CountByStation(records []Record) StationCounts {
	counts := make(StationCounts)
	for _, r := range records {
		if r.StationCode == "" {
			continue
		}
		counts[r.StationCode]++
	}
	return counts
}

// CountByMonth groups records by the calendar month of their start time.
// The result is ordered chronologically and months without records are absent.
func CountByMonth(records []Record) []MonthCount {
	byMonth := make(map[time.Time]int)
	for _, r := range records {
		byMonth[monthStart(r.StartTime)]++
	}

	out := make([]MonthCount, 0, len(byMonth))
	for m, c := range byMonth {
		out = append(out, MonthCount{Month: m, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month.Before(out[j].Month)
	})
	return out
}

func monthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// Aggregate runs the full filter and aggregation for one selection. It has
// no side effects; an empty selection yields empty aggregates.
func Aggregate(d *Dataset, year YearSelection, cause string) Result {
	filtered := Filter(d.Records(), year, cause)
	return Result{
		Year:     year,
		Cause:    cause,
		Records:  filtered,
		Stations: CountByStation(filtered),
		Monthly:  CountByMonth(filtered),
	}
}
