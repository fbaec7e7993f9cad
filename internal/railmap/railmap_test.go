package railmap

import (
	"testing"

	"github.com/railstats/nsdisruptions/internal/disruptions"
	"github.com/railstats/nsdisruptions/internal/network"
)

func feature(from string, coords ...network.Position) network.Feature {
	return network.Feature{
		Geometry:   network.Geometry{Type: "LineString", Coordinates: coords},
		Properties: network.Properties{From: from},
	}
}

var defaultOpts = Options{
	Center:      LatLng{52.1326, 5.2913},
	Zoom:        7,
	Width:       600,
	Height:      400,
	Tiles:       "Cartodb dark_matter",
	MarkerScale: 2,
}

func TestSwap(t *testing.T) {
	got := Swap(network.Position{5.12, 52.09})
	if got.Lat() != 52.09 || got.Lon() != 5.12 {
		t.Errorf("Swap([5.12, 52.09]) = %v, expected lat=52.09 lon=5.12", got)
	}
}

func TestJoin(t *testing.T) {
	features := []network.Feature{
		feature("UT", network.Position{5.11, 52.09}),
		feature("ASD", network.Position{4.90, 52.38}),
		feature("RTD", network.Position{4.47, 51.92}),
	}
	counts := disruptions.StationCounts{"UT": 4, "RTD": 1, "GVC": 9}

	res := Join(features, counts)

	if len(res.Matched) != 2 {
		t.Fatalf("Matched = %d features, expected 2", len(res.Matched))
	}
	if res.Matched[0].Feature.Properties.From != "UT" || res.Matched[0].Count != 4 {
		t.Errorf("Matched[0] = %+v", res.Matched[0])
	}
	if res.Matched[1].Feature.Properties.From != "RTD" || res.Matched[1].Count != 1 {
		t.Errorf("Matched[1] = %+v", res.Matched[1])
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0].Properties.From != "ASD" {
		t.Errorf("Unmatched = %+v, expected only ASD", res.Unmatched)
	}
}

func TestJoinIsExactMatch(t *testing.T) {
	res := Join([]network.Feature{feature("ut", network.Position{5.11, 52.09})}, disruptions.StationCounts{"UT": 3})
	if len(res.Matched) != 0 {
		t.Errorf("station codes must match case-sensitively, got %+v", res.Matched)
	}
}

func TestCompose(t *testing.T) {
	features := []network.Feature{
		feature("UT", network.Position{5.12, 52.09}, network.Position{5.20, 52.10}),
		feature("ASD", network.Position{4.90, 52.38}),
		feature("EMPTY"),
	}
	counts := disruptions.StationCounts{"UT": 3, "EMPTY": 2}

	v := Compose(features, counts, defaultOpts)

	if len(v.Lines) != 2 {
		t.Fatalf("Lines = %d, expected 2 (the feature without coordinates is skipped)", len(v.Lines))
	}
	if p := v.Lines[0].Points[0]; p != (LatLng{52.09, 5.12}) {
		t.Errorf("first line point = %v, expected [52.09 5.12]", p)
	}
	if v.Lines[0].Color != "red" || v.Lines[0].Weight != 1 {
		t.Errorf("line style = %s/%d", v.Lines[0].Color, v.Lines[0].Weight)
	}

	if len(v.Markers) != 1 {
		t.Fatalf("Markers = %+v, expected exactly one for UT", v.Markers)
	}
	m := v.Markers[0]
	if m.Station != "UT" || m.Count != 3 || m.Radius != 6 {
		t.Errorf("marker = %+v, expected UT count 3 radius 6", m)
	}
	if m.Position != (LatLng{52.09, 5.12}) {
		t.Errorf("marker position = %v, expected the swapped first coordinate", m.Position)
	}

	if v.Center != defaultOpts.Center || v.Zoom != 7 || v.Tiles != defaultOpts.Tiles {
		t.Errorf("view = %+v", v)
	}
}

func TestComposeOneMarkerPerStation(t *testing.T) {
	features := []network.Feature{
		feature("UT", network.Position{5.12, 52.09}, network.Position{5.20, 52.10}),
		feature("UT", network.Position{5.13, 52.08}, network.Position{5.00, 52.00}),
	}

	v := Compose(features, disruptions.StationCounts{"UT": 5}, defaultOpts)

	if len(v.Lines) != 2 {
		t.Errorf("Lines = %d, expected 2", len(v.Lines))
	}
	if len(v.Markers) != 1 {
		t.Fatalf("Markers = %d, expected 1", len(v.Markers))
	}
	if v.Markers[0].Position != (LatLng{52.09, 5.12}) {
		t.Errorf("marker should sit on the first matching feature, got %v", v.Markers[0].Position)
	}
}

func TestComposeMarkerRadiusIsMonotonic(t *testing.T) {
	features := []network.Feature{
		feature("A", network.Position{5.0, 52.0}),
		feature("B", network.Position{5.1, 52.1}),
		feature("C", network.Position{5.2, 52.2}),
	}
	counts := disruptions.StationCounts{"A": 1, "B": 7, "C": 3}

	v := Compose(features, counts, defaultOpts)

	radius := map[string]float64{}
	for _, m := range v.Markers {
		radius[m.Station] = m.Radius
	}
	if !(radius["A"] < radius["C"] && radius["C"] < radius["B"]) {
		t.Errorf("radii %v are not ordered by count", radius)
	}
}

func TestComposeEmptyInputs(t *testing.T) {
	v := Compose(nil, disruptions.StationCounts{}, defaultOpts)
	if v.Lines == nil || v.Markers == nil {
		t.Errorf("empty view should carry empty, non-nil slices")
	}
	if len(v.Lines) != 0 || len(v.Markers) != 0 {
		t.Errorf("view = %+v, expected no lines or markers", v)
	}
}

func TestClampSize(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		wantW int
		wantH int
	}{
		{name: "in range", w: 600, h: 400, wantW: 600, wantH: 400},
		{name: "too small", w: 10, h: 0, wantW: 200, wantH: 200},
		{name: "too large", w: 4000, h: 900, wantW: 1000, wantH: 800},
		{name: "bounds", w: 1000, h: 800, wantW: 1000, wantH: 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ClampSize(tt.w, tt.h)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("ClampSize(%d, %d) = %d, %d; expected %d, %d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}
