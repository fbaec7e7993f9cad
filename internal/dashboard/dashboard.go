// Package dashboard runs the per-request pipeline behind the dashboard:
// fetch the rail-network feed, filter and aggregate the disruption
// dataset, then compose the map, chart and summary for one selection.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/railstats/nsdisruptions/internal/charts"
	"github.com/railstats/nsdisruptions/internal/disruptions"
	"github.com/railstats/nsdisruptions/internal/network"
	"github.com/railstats/nsdisruptions/internal/railmap"
	"github.com/railstats/nsdisruptions/pkg/config"
	"go.uber.org/zap"
)

// ChartTitle heads the monthly bar chart
const ChartTitle = "Disruptions by Month"

var (
	// ErrUnknownCause is returned for a cause that never occurs in the dataset
	ErrUnknownCause = errors.New("unknown statistical cause")
	// ErrInvalidSelection is returned for a malformed year or map size
	ErrInvalidSelection = errors.New("invalid selection")
)

// Selection is one combination of the dashboard controls
type Selection struct {
	Cause  string
	Year   disruptions.YearSelection
	Width  int
	Height int
}

// Controls lists the choices offered by the dashboard page
type Controls struct {
	Causes        []string `json:"causes"`
	DefaultCause  string   `json:"default_cause"`
	Years         []string `json:"years"`
	DefaultYear   string   `json:"default_year"`
	MinWidth      int      `json:"min_width"`
	MaxWidth      int      `json:"max_width"`
	DefaultWidth  int      `json:"default_width"`
	MinHeight     int      `json:"min_height"`
	MaxHeight     int      `json:"max_height"`
	DefaultHeight int      `json:"default_height"`
}

// View is the composed output of one render
type View struct {
	Cause   string              `json:"cause"`
	Year    string              `json:"year"`
	Map     railmap.View        `json:"map"`
	Chart   charts.BarChart     `json:"chart"`
	Summary disruptions.Summary `json:"summary"`
	Error   string              `json:"error,omitempty"`
}

// Pipeline holds the read-only inputs shared by every render
type Pipeline struct {
	dataset *disruptions.Dataset
	fetcher network.Fetcher
	mapOpts railmap.Options
	years   []int
	logger  *zap.SugaredLogger
}

// New creates a pipeline over an already loaded dataset
func New(dataset *disruptions.Dataset, fetcher network.Fetcher, mapCfg config.MapData, years []int, logger *zap.SugaredLogger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Pipeline{
		dataset: dataset,
		fetcher: fetcher,
		mapOpts: railmap.Options{
			Center:      railmap.LatLng{mapCfg.CenterLat, mapCfg.CenterLon},
			Zoom:        mapCfg.Zoom,
			Width:       mapCfg.DefaultWidth,
			Height:      mapCfg.DefaultHeight,
			Tiles:       mapCfg.Tiles,
			MarkerScale: mapCfg.MarkerScale,
		},
		years:  years,
		logger: logger,
	}
}

// Dataset returns the dataset the pipeline reads from
func (p *Pipeline) Dataset() *disruptions.Dataset {
	return p.dataset
}

// MapTiles names the base map tile layer
func (p *Pipeline) MapTiles() string {
	return p.mapOpts.Tiles
}

// Controls returns the selector options. Causes come in reverse first-seen
// order and the default cause is the last of them.
func (p *Pipeline) Controls() Controls {
	causes, def := p.dataset.CauseOptions()

	years := make([]string, 0, len(p.years)+1)
	years = append(years, disruptions.AllYearsLabel)
	for _, y := range p.years {
		years = append(years, strconv.Itoa(y))
	}

	return Controls{
		Causes:        causes,
		DefaultCause:  def,
		Years:         years,
		DefaultYear:   disruptions.AllYearsLabel,
		MinWidth:      railmap.MinWidth,
		MaxWidth:      railmap.MaxWidth,
		DefaultWidth:  p.mapOpts.Width,
		MinHeight:     railmap.MinHeight,
		MaxHeight:     railmap.MaxHeight,
		DefaultHeight: p.mapOpts.Height,
	}
}

// Resolve turns raw control values into a Selection. Empty values fall
// back to the control defaults; sizes outside the slider bounds are clamped.
// Only "All Years" and the configured years are accepted.
func (p *Pipeline) Resolve(cause, year, width, height string) (Selection, error) {
	sel := Selection{
		Cause:  cause,
		Width:  p.mapOpts.Width,
		Height: p.mapOpts.Height,
	}

	if sel.Cause == "" {
		_, sel.Cause = p.dataset.CauseOptions()
	}
	if !p.dataset.HasCause(sel.Cause) {
		return Selection{}, fmt.Errorf("%w: %q", ErrUnknownCause, sel.Cause)
	}

	ys, err := disruptions.ParseYearSelection(year)
	if err != nil {
		return Selection{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	if !ys.All() && !slices.Contains(p.years, ys.Value()) {
		return Selection{}, fmt.Errorf("%w: year %d is not offered", ErrInvalidSelection, ys.Value())
	}
	sel.Year = ys

	if width != "" {
		if sel.Width, err = strconv.Atoi(width); err != nil {
			return Selection{}, fmt.Errorf("%w: width %q is not a number", ErrInvalidSelection, width)
		}
	}
	if height != "" {
		if sel.Height, err = strconv.Atoi(height); err != nil {
			return Selection{}, fmt.Errorf("%w: height %q is not a number", ErrInvalidSelection, height)
		}
	}
	sel.Width, sel.Height = railmap.ClampSize(sel.Width, sel.Height)

	return sel, nil
}

// Render runs the full pipeline for sel. A feed failure is reported in
// View.Error and leaves the map without lines or markers; the chart and
// summary are built either way.
func (p *Pipeline) Render(ctx context.Context, sel Selection) View {
	v := View{
		Cause: sel.Cause,
		Year:  sel.Year.String(),
	}

	var features []network.Feature
	resp, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.logger.Warnw("rail-network feed unavailable", "error", err)
		v.Error = fmt.Sprintf("An error occurred: %v", err)
	} else {
		features = resp.FeatureList()
	}

	res := disruptions.Aggregate(p.dataset, sel.Year, sel.Cause)

	opts := p.mapOpts
	opts.Width, opts.Height = sel.Width, sel.Height
	v.Map = railmap.Compose(features, res.Stations, opts)
	v.Chart = charts.Monthly(ChartTitle, res.Monthly)
	v.Summary = disruptions.Summarize(res)

	p.logger.Debugw("rendered dashboard",
		"cause", sel.Cause,
		"year", v.Year,
		"records", len(res.Records),
		"lines", len(v.Map.Lines),
		"markers", len(v.Map.Markers))

	return v
}

// Chart builds only the monthly chart for sel; it never touches the feed
func (p *Pipeline) Chart(sel Selection) charts.BarChart {
	res := disruptions.Aggregate(p.dataset, sel.Year, sel.Cause)
	return charts.Monthly(ChartTitle, res.Monthly)
}
