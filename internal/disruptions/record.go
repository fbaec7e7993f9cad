// Package disruptions loads historical NS disruption records and narrows
// them down to per-station and per-month counts for the dashboard.
package disruptions

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date without a time of day
type Date struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DateOf returns the calendar date of t in t's own location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Record is one logged disruption. Records are immutable once loaded.
type Record struct {
	StartTime          time.Time `json:"start_time"`
	EndTime            time.Time `json:"end_time"`
	StatisticalCauseEN string    `json:"statistical_cause_en"`
	StationCode        string    `json:"rdt_station_codes"`
	DateN              Date      `json:"date_n"`
}

// NewRecord builds a record and derives DateN from start
func NewRecord(start, end time.Time, cause, station string) Record {
	return Record{
		StartTime:          start,
		EndTime:            end,
		StatisticalCauseEN: cause,
		StationCode:        station,
		DateN:              DateOf(start),
	}
}

// Duration returns EndTime-StartTime. The second result is false when the
// end time is missing or earlier than the start.
func (r Record) Duration() (time.Duration, bool) {
	if r.EndTime.IsZero() || r.EndTime.Before(r.StartTime) {
		return 0, false
	}
	return r.EndTime.Sub(r.StartTime), true
}

// AllYearsLabel is the year selector entry that disables the year filter
const AllYearsLabel = "All Years"

// YearSelection is either a single calendar year or all years
type YearSelection struct {
	year int
}

// AllYears selects every record regardless of year
var AllYears = YearSelection{}

// Year selects a single calendar year
func Year(y int) YearSelection {
	return YearSelection{year: y}
}

// ParseYearSelection accepts "All Years" (or an empty string) and four-digit years
func ParseYearSelection(s string) (YearSelection, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, AllYearsLabel) || strings.EqualFold(s, "all") {
		return AllYears, nil
	}

	y, err := strconv.Atoi(s)
	if err != nil || y <= 0 {
		return AllYears, fmt.Errorf("invalid year selection %q", s)
	}
	return Year(y), nil
}

// All reports whether the selection covers every year
func (y YearSelection) All() bool {
	return y.year == 0
}

// Value returns the selected year, or 0 for all years
func (y YearSelection) Value() int {
	return y.year
}

func (y YearSelection) String() string {
	if y.All() {
		return AllYearsLabel
	}
	return strconv.Itoa(y.year)
}

// Contains reports whether d falls within the selection
func (y YearSelection) Contains(d Date) bool {
	return y.All() || d.Year == y.year
}
