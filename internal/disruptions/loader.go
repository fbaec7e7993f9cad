package disruptions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"go.uber.org/zap"
)

// Column names of the rijdendetreinen.nl disruption tables
const (
	ColumnStartTime   = "start_time"
	ColumnEndTime     = "end_time"
	ColumnCause       = "statistical_cause_en"
	ColumnStationCode = "rdt_station_codes"
)

// RequiredColumns must be present in every table
var RequiredColumns = []string{ColumnStartTime, ColumnEndTime, ColumnCause, ColumnStationCode}

// ErrMissingColumn is returned when a table lacks one of RequiredColumns
var ErrMissingColumn = errors.New("missing required column")

// timestampLayouts are tried in order when parsing start_time and end_time.
// Timestamps without a zone are read as UTC wall-clock times.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04",
}

// ParseError describes a cell that could not be converted
type ParseError struct {
	Source string
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: row %d: column %s: cannot parse %q: %v", e.Source, e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Loader produces the full disruption dataset
type Loader interface {
	Load(ctx context.Context) (*Dataset, error)
}

// CSVLoader reads one table per year from Directory, named by Pattern
// (for example "disruptions-%d.csv"), and concatenates them in year order.
type CSVLoader struct {
	Directory string
	Pattern   string
	Years     []int
	logger    *zap.SugaredLogger
}

// NewCSVLoader creates a loader for the yearly CSV files
func NewCSVLoader(directory, pattern string, years []int, logger *zap.SugaredLogger) *CSVLoader {
	return &CSVLoader{
		Directory: directory,
		Pattern:   pattern,
		Years:     years,
		logger:    logger,
	}
}

// Load reads every yearly file. Any missing file, missing column or
// unparseable timestamp aborts the load.
func (l *CSVLoader) Load(ctx context.Context) (*Dataset, error) {
	var all []Record

	for _, year := range l.Years {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(l.Directory, fmt.Sprintf(l.Pattern, year))
		records, err := l.loadFile(path)
		if err != nil {
			return nil, err
		}

		if l.logger != nil {
			l.logger.Infow("loaded disruption file", "path", path, "records", len(records))
		}
		all = append(all, records...)
	}

	return NewDataset(all), nil
}

func (l *CSVLoader) loadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening disruption file: %w", err)
	}
	defer f.Close()

	return ReadCSV(f, path)
}

// ReadCSV parses one disruption table. source names the table in errors.
// A table with the required header and no data rows yields no records.
func ReadCSV(r io.Reader, source string) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: error reading table: %w", source, err)
	}

	df := dataframe.ReadCSV(bytes.NewReader(data), csvOptions...)
	if df.Err != nil {
		names, ok := headerOnly(data)
		if !ok {
			return nil, fmt.Errorf("%s: error reading table: %w", source, df.Err)
		}
		if err := checkColumns(names, source); err != nil {
			return nil, err
		}
		return []Record{}, nil
	}

	if err := checkColumns(df.Names(), source); err != nil {
		return nil, err
	}

	starts := df.Col(ColumnStartTime).Records()
	ends := df.Col(ColumnEndTime).Records()
	causes := df.Col(ColumnCause).Records()
	stations := df.Col(ColumnStationCode).Records()

	records := make([]Record, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		// +2: one for the header, one for 1-based numbering
		row := i + 2

		start, err := parseTimestamp(starts[i])
		if err != nil {
			return nil, &ParseError{Source: source, Row: row, Column: ColumnStartTime, Value: starts[i], Err: err}
		}

		var end time.Time
		if v := strings.TrimSpace(cellValue(ends[i])); v != "" {
			end, err = parseTimestamp(v)
			if err != nil {
				return nil, &ParseError{Source: source, Row: row, Column: ColumnEndTime, Value: ends[i], Err: err}
			}
		}

		records = append(records, NewRecord(start, end, cellValue(causes[i]), cellValue(stations[i])))
	}

	return records, nil
}

var csvOptions = []dataframe.LoadOption{
	dataframe.HasHeader(true),
	dataframe.DetectTypes(false),
	dataframe.DefaultType(series.String),
	dataframe.WithLazyQuotes(true),
}

// headerOnly reports the column names of a table that has a header line
// and nothing else. gota refuses to build a frame from such a table, so
// the header is read back as a plain data row.
func headerOnly(data []byte) ([]string, bool) {
	opts := append(append([]dataframe.LoadOption(nil), csvOptions...), dataframe.HasHeader(false))
	df := dataframe.ReadCSV(bytes.NewReader(data), opts...)
	if df.Err != nil || df.Nrow() != 1 {
		return nil, false
	}
	// Records() puts the generated column names first
	return df.Records()[1], true
}

func checkColumns(names []string, source string) error {
	present := make(map[string]bool)
	for _, name := range names {
		present[strings.TrimSpace(name)] = true
	}
	for _, col := range RequiredColumns {
		if !present[col] {
			return fmt.Errorf("%s: %w: %s", source, ErrMissingColumn, col)
		}
	}
	return nil
}

// cellValue maps gota's missing-value marker back to an empty string
func cellValue(v string) string {
	if v == "NaN" {
		return ""
	}
	return v
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}

	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
