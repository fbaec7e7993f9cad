package restserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/railstats/nsdisruptions/internal/dashboard"
	"github.com/railstats/nsdisruptions/internal/disruptions"
	"github.com/railstats/nsdisruptions/internal/network"
	"github.com/railstats/nsdisruptions/pkg/config"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

type stubFetcher struct {
	resp *network.Response
	err  error
}

func (s stubFetcher) Fetch(ctx context.Context) (*network.Response, error) {
	return s.resp, s.err
}

func newTestController(t *testing.T, fetcher network.Fetcher) *Controller {
	t.Helper()

	start := time.Date(2021, time.May, 3, 7, 0, 0, 0, time.UTC)
	ds := disruptions.NewDataset([]disruptions.Record{
		disruptions.NewRecord(start, start.Add(time.Hour), "Weather", "ASD"),
		disruptions.NewRecord(start.AddDate(0, 1, 0), start.AddDate(0, 1, 0).Add(time.Hour), "Weather", "UT"),
		disruptions.NewRecord(start.AddDate(-1, 0, 0), time.Time{}, "Signal failure", "UT"),
	})

	cfg := config.ConfigData{}
	config.ApplyDefaults(&cfg)

	pipeline := dashboard.New(ds, fetcher, cfg.Map, cfg.Dataset.Years, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ctrl, err := NewController(ctx, &sync.WaitGroup{}, cfg.RESTServer, pipeline, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	return ctrl
}

func feed() *network.Response {
	return &network.Response{Payload: network.Payload{Features: []network.Feature{
		{
			Geometry:   network.Geometry{Coordinates: []network.Position{{4.90, 52.37}, {5.11, 52.09}}},
			Properties: network.Properties{From: "ASD", To: "UT"},
		},
	}}}
}

func serve(ctrl *Controller, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	ctrl.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestNewControllerDefaults(t *testing.T) {
	ctrl := newTestController(t, stubFetcher{resp: feed()})
	if ctrl.Server.Addr != "0.0.0.0:8080" {
		t.Errorf("Addr = %q, expected 0.0.0.0:8080", ctrl.Server.Addr)
	}

	if _, err := NewController(context.Background(), &sync.WaitGroup{}, config.RESTServerData{}, nil, nil); err == nil {
		t.Errorf("NewController() without pipeline succeeded, expected error")
	}
}

func TestGetDashboard(t *testing.T) {
	ctrl := newTestController(t, stubFetcher{resp: feed()})

	rec := serve(ctrl, http.MethodGet, "/api/dashboard?cause=Weather&year=2021&width=700&height=500")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Errorf("missing %s header", RequestIDHeader)
	}

	var view dashboard.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if view.Error != "" {
		t.Errorf("Error = %q, expected none", view.Error)
	}
	if view.Map.Width != 700 || view.Map.Height != 500 {
		t.Errorf("map size = %dx%d, expected 700x500", view.Map.Width, view.Map.Height)
	}
	if len(view.Map.Lines) != 1 || len(view.Map.Markers) != 1 {
		t.Errorf("map = %d lines, %d markers, expected 1 and 1", len(view.Map.Lines), len(view.Map.Markers))
	}
	if len(view.Chart.Bars) != 2 {
		t.Errorf("chart bars = %d, expected 2", len(view.Chart.Bars))
	}
	if view.Summary.Total != 2 {
		t.Errorf("Summary.Total = %d, expected 2", view.Summary.Total)
	}
}

func TestGetDashboardMsgPack(t *testing.T) {
	ctrl := newTestController(t, stubFetcher{resp: feed()})

	rec := serve(ctrl, http.MethodGet, "/api/dashboard?format=msgpack")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-msgpack" {
		t.Errorf("Content-Type = %q", ct)
	}

	var view map[string]any
	if err := msgpack.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("msgpack unmarshal error = %v", err)
	}
	if view["cause"] != "Weather" || view["year"] != "All Years" {
		t.Errorf("view = cause %v, year %v", view["cause"], view["year"])
	}
}

func TestGetDashboardFeedError(t *testing.T) {
	ctrl := newTestController(t, stubFetcher{err: errors.New("connection refused")})

	rec := serve(ctrl, http.MethodGet, "/api/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}

	var view dashboard.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if view.Error != "An error occurred: connection refused" {
		t.Errorf("Error = %q", view.Error)
	}
	if len(view.Map.Lines) != 0 || len(view.Map.Markers) != 0 {
		t.Errorf("map overlay should be empty on feed failure")
	}
	if len(view.Chart.Bars) == 0 {
		t.Errorf("chart should still be built on feed failure")
	}
}

func TestRequestErrors(t *testing.T) {
	ctrl := newTestController(t, stubFetcher{resp: feed()})

	tests := []struct {
		name     string
		method   string
		target   string
		expected int
	}{
		{name: "unknown cause", method: http.MethodGet, target: "/api/dashboard?cause=Aliens", expected: http.StatusBadRequest},
		{name: "bad year", method: http.MethodGet, target: "/api/dashboard?year=soon", expected: http.StatusBadRequest},
		{name: "bad width", method: http.MethodGet, target: "/api/dashboard?width=wide", expected: http.StatusBadRequest},
		{name: "chart bad cause", method: http.MethodGet, target: "/api/chart.png?cause=Aliens", expected: http.StatusBadRequest},
		{name: "year outside range", method: http.MethodGet, target: "/api/dashboard?year=1999", expected: http.StatusBadRequest},
		{name: "post dashboard", method: http.MethodPost, target: "/api/dashboard", expected: http.StatusMethodNotAllowed},
		{name: "post controls", method: http.MethodPost, target: "/api/controls", expected: http.StatusMethodNotAllowed},
		{name: "put chart", method: http.MethodPut, target: "/api/chart.svg", expected: http.StatusMethodNotAllowed},
		{name: "delete index", method: http.MethodDelete, target: "/", expected: http.StatusMethodNotAllowed},
		{name: "unknown api path", method: http.MethodGet, target: "/api/nothing", expected: http.StatusNotFound},
		{name: "unknown chart format", method: http.MethodGet, target: "/api/chart.gif", expected: http.StatusNotFound},
		{name: "unknown path", method: http.MethodGet, target: "/nothing", expected: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(ctrl, tt.method, tt.target)
			if rec.Code != tt.expected {
				t.Fatalf("status = %d, expected %d", rec.Code, tt.expected)
			}

			if rec.Code == http.StatusMethodNotAllowed && rec.Header().Get("Allow") != http.MethodGet {
				t.Errorf("Allow = %q, expected %q", rec.Header().Get("Allow"), http.MethodGet)
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("error body is not JSON: %v (%q)", err, rec.Body.String())
			}
			if body["error"] == "" {
				t.Errorf("error body = %v, expected an error message", body)
			}
		})
	}
}

func TestGetControls(t *testing.T) {
	ctrl := newTestController(t, stubFetcher{})

	rec := serve(ctrl, http.MethodGet, "/api/controls")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}

	var c dashboard.Controls
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if len(c.Causes) != 2 || c.Causes[0] != "Signal failure" || c.DefaultCause != "Weather" {
		t.Errorf("causes = %v default %q", c.Causes, c.DefaultCause)
	}
	if len(c.Years) != 6 || c.Years[0] != "All Years" {
		t.Errorf("years = %v", c.Years)
	}
}

func TestGetChart(t *testing.T) {
	ctrl := newTestController(t, stubFetcher{})

	tests := []struct {
		target      string
		contentType string
		prefix      string
	}{
		{target: "/api/chart.png?cause=Weather", contentType: "image/png", prefix: "\x89PNG"},
		{target: "/api/chart.svg?cause=Weather&year=2021", contentType: "image/svg+xml", prefix: "<svg"},
		{target: "/api/chart.svg?cause=Weather&year=2019", contentType: "image/svg+xml", prefix: "<svg"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := serve(ctrl, http.MethodGet, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, expected 200: %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q, expected %q", ct, tt.contentType)
			}
			if !strings.HasPrefix(rec.Body.String(), tt.prefix) {
				t.Errorf("body does not start with %q", tt.prefix)
			}
		})
	}
}

func TestServeIndexTemplate(t *testing.T) {
	ctrl := newTestController(t, stubFetcher{})

	rec := serve(ctrl, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"<title>NS Disruptions</title>",
		`<option value="Weather" selected>Weather</option>`,
		`<option value="Signal failure">Signal failure</option>`,
		`<option value="All Years" selected>All Years</option>`,
		`<option value="2023">2023</option>`,
		`min="200" max="1000" value="600"`,
		`min="200" max="800" value="400"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %q", want)
		}
	}
	if strings.Index(body, "Signal failure") > strings.Index(body, `value="Weather"`) {
		t.Errorf("causes are not listed in reverse first-seen order")
	}
}

func TestServeJSAndAssets(t *testing.T) {
	ctrl := newTestController(t, stubFetcher{})

	rec := serve(ctrl, http.MethodGet, "/js/dashboard.js")
	if rec.Code != http.StatusOK {
		t.Fatalf("js status = %d, expected 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "basemaps.cartocdn.com/dark_all") {
		t.Errorf("dashboard.js does not use the dark_matter tile layer")
	}

	rec = serve(ctrl, http.MethodGet, "/css/dashboard.css")
	if rec.Code != http.StatusOK {
		t.Errorf("css status = %d, expected 200", rec.Code)
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	ctrl := newTestController(t, stubFetcher{})

	rec := serve(ctrl, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, expected 200", rec.Code)
	}
	var body struct {
		Status  string `json:"status"`
		Records int    `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if body.Status != "ok" || body.Records != 3 {
		t.Errorf("healthz = %+v", body)
	}

	rec = serve(ctrl, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, expected 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "nsdisruptions_http_request_duration_seconds") {
		t.Errorf("metrics output missing request duration summary")
	}
}

func TestTileURL(t *testing.T) {
	tests := map[string]string{
		"Cartodb dark_matter":         "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
		"OpenStreetMap":               "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		"https://tiles.example/{z}":   "https://tiles.example/{z}",
		"something nobody configured": "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
	}
	for name, expected := range tests {
		if got := tileURL(name); got != expected {
			t.Errorf("tileURL(%q) = %q, expected %q", name, got, expected)
		}
	}
}
