// Package railmap joins per-station disruption counts onto the rail-network
// feed and lays out the lines and markers drawn by the dashboard map.
package railmap

import (
	"github.com/railstats/nsdisruptions/internal/disruptions"
	"github.com/railstats/nsdisruptions/internal/network"
)

// Map size bounds, matching the dashboard sliders
const (
	MinWidth  = 200
	MaxWidth  = 1000
	MinHeight = 200
	MaxHeight = 800
)

const (
	lineColor   = "red"
	lineWeight  = 1
	markerColor = "blue"
)

// LatLng is a [latitude, longitude] point in map order
type LatLng [2]float64

// Lat returns the latitude
func (p LatLng) Lat() float64 { return p[0] }

// Lon returns the longitude
func (p LatLng) Lon() float64 { return p[1] }

// Swap converts a feed [lon, lat] position to map [lat, lon] order
func Swap(p network.Position) LatLng {
	return LatLng{p.Lat(), p.Lon()}
}

// Polyline is one rail segment
type Polyline struct {
	From   string   `json:"from"`
	To     string   `json:"to,omitempty"`
	Points []LatLng `json:"points"`
	Color  string   `json:"color"`
	Weight int      `json:"weight"`
}

// Marker is a circle sized by a station's disruption count
type Marker struct {
	Station   string  `json:"station"`
	Position  LatLng  `json:"position"`
	Count     int     `json:"count"`
	Radius    float64 `json:"radius"`
	Color     string  `json:"color"`
	Fill      bool    `json:"fill"`
	FillColor string  `json:"fill_color"`
}

// Options fixes the map view
type Options struct {
	Center      LatLng
	Zoom        int
	Width       int
	Height      int
	Tiles       string
	MarkerScale float64
}

// View is everything the map widget needs to draw one render
type View struct {
	Center  LatLng     `json:"center"`
	Zoom    int        `json:"zoom"`
	Width   int        `json:"width"`
	Height  int        `json:"height"`
	Tiles   string     `json:"tiles"`
	Lines   []Polyline `json:"lines"`
	Markers []Marker   `json:"markers"`
}

// MatchedFeature is a feature whose From station has a disruption count
type MatchedFeature struct {
	Feature network.Feature
	Count   int
}

// JoinResult partitions features by whether their From station has a count
type JoinResult struct {
	Matched   []MatchedFeature
	Unmatched []network.Feature
}

// Join looks up every feature's From station in counts. Matching is by
// exact identifier equality; geometry plays no part.
func Join(features []network.Feature, counts disruptions.StationCounts) JoinResult {
	res := JoinResult{
		Matched:   make([]MatchedFeature, 0),
		Unmatched: make([]network.Feature, 0),
	}

	for _, f := range features {
		if n, ok := counts[f.Properties.From]; ok && n > 0 {
			res.Matched = append(res.Matched, MatchedFeature{Feature: f, Count: n})
		} else {
			res.Unmatched = append(res.Unmatched, f)
		}
	}
	return res
}

// ClampSize bounds the requested map size to the slider ranges
func ClampSize(width, height int) (int, int) {
	return clamp(width, MinWidth, MaxWidth), clamp(height, MinHeight, MaxHeight)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Compose draws every feature as a line and puts one marker per matched
// station at the first coordinate of its first matching feature. Features
// without coordinates are skipped.
func Compose(features []network.Feature, counts disruptions.StationCounts, opts Options) View {
	width, height := ClampSize(opts.Width, opts.Height)

	v := View{
		Center:  opts.Center,
		Zoom:    opts.Zoom,
		Width:   width,
		Height:  height,
		Tiles:   opts.Tiles,
		Lines:   make([]Polyline, 0, len(features)),
		Markers: make([]Marker, 0),
	}

	for _, f := range features {
		if len(f.Geometry.Coordinates) == 0 {
			continue
		}

		points := make([]LatLng, len(f.Geometry.Coordinates))
		for i, p := range f.Geometry.Coordinates {
			points[i] = Swap(p)
		}
		v.Lines = append(v.Lines, Polyline{
			From:   f.Properties.From,
			To:     f.Properties.To,
			Points: points,
			Color:  lineColor,
			Weight: lineWeight,
		})
	}

	placed := make(map[string]bool)
	for _, m := range Join(features, counts).Matched {
		station := m.Feature.Properties.From
		if placed[station] || len(m.Feature.Geometry.Coordinates) == 0 {
			continue
		}
		placed[station] = true

		v.Markers = append(v.Markers, Marker{
			Station:   station,
			Position:  Swap(m.Feature.Geometry.Coordinates[0]),
			Count:     m.Count,
			Radius:    float64(m.Count) * opts.MarkerScale,
			Color:     markerColor,
			Fill:      true,
			FillColor: markerColor,
		})
	}

	return v
}
