package disruptions

import "sort"

// Dataset is the full set of loaded records. It is read-only after
// construction and safe to share between concurrent requests.
type Dataset struct {
	records []Record
	causes  []string
	years   []int
}

// NewDataset wraps records, which must not be modified afterwards
func NewDataset(records []Record) *Dataset {
	d := &Dataset{records: records}

	seenCause := make(map[string]bool)
	seenYear := make(map[int]bool)
	for _, r := range records {
		if r.StatisticalCauseEN != "" && !seenCause[r.StatisticalCauseEN] {
			seenCause[r.StatisticalCauseEN] = true
			d.causes = append(d.causes, r.StatisticalCauseEN)
		}
		if !seenYear[r.DateN.Year] {
			seenYear[r.DateN.Year] = true
			d.years = append(d.years, r.DateN.Year)
		}
	}
	sort.Ints(d.years)

	return d
}

// Records returns the loaded records. Callers must treat the slice as read-only.
func (d *Dataset) Records() []Record {
	return d.records
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.records)
}

// Causes returns the distinct non-empty statistical causes in first-seen order
func (d *Dataset) Causes() []string {
	return append([]string(nil), d.causes...)
}

// HasCause reports whether cause occurs in the dataset
func (d *Dataset) HasCause(cause string) bool {
	for _, c := range d.causes {
		if c == cause {
			return true
		}
	}
	return false
}

// Years returns the distinct calendar years present, ascending
func (d *Dataset) Years() []int {
	return append([]int(nil), d.years...)
}

// CauseOptions returns the cause selector entries and the default choice.
// The entries are the distinct causes in reverse first-seen order and the
// default is the last entry of that reversed list.
func (d *Dataset) CauseOptions() ([]string, string) {
	options := make([]string, len(d.causes))
	for i, c := range d.causes {
		options[len(d.causes)-1-i] = c
	}
	if len(options) == 0 {
		return options, ""
	}
	return options, options[len(options)-1]
}
