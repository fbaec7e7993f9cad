package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestYAMLProviderDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
feed:
  subscription_key: abc123
`)

	cfg, err := NewYAMLProvider(path).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Feed.URL != DefaultFeedURL {
		t.Errorf("Feed.URL = %q, expected %q", cfg.Feed.URL, DefaultFeedURL)
	}
	if cfg.Feed.SubscriptionKey != "abc123" {
		t.Errorf("Feed.SubscriptionKey = %q, expected abc123", cfg.Feed.SubscriptionKey)
	}
	if cfg.Dataset.Source != "csv" {
		t.Errorf("Dataset.Source = %q, expected csv", cfg.Dataset.Source)
	}
	if len(cfg.Dataset.Years) != 5 || cfg.Dataset.Years[0] != 2019 || cfg.Dataset.Years[4] != 2023 {
		t.Errorf("Dataset.Years = %v, expected 2019..2023", cfg.Dataset.Years)
	}
	if cfg.RESTServer.Port != DefaultHTTPPort {
		t.Errorf("RESTServer.Port = %d, expected %d", cfg.RESTServer.Port, DefaultHTTPPort)
	}
	if cfg.Map.CenterLat != DefaultCenterLat || cfg.Map.CenterLon != DefaultCenterLon {
		t.Errorf("Map center = (%v, %v), expected (%v, %v)", cfg.Map.CenterLat, cfg.Map.CenterLon, DefaultCenterLat, DefaultCenterLon)
	}
	if cfg.Map.Zoom != 7 || cfg.Map.MarkerScale != 2 {
		t.Errorf("Map zoom/scale = %d/%v, expected 7/2", cfg.Map.Zoom, cfg.Map.MarkerScale)
	}
	if cfg.Map.DefaultWidth != 600 || cfg.Map.DefaultHeight != 400 {
		t.Errorf("Map size = %dx%d, expected 600x400", cfg.Map.DefaultWidth, cfg.Map.DefaultHeight)
	}
	if cfg.Feed.FeedTimeout() != 0 {
		t.Errorf("FeedTimeout() = %v, expected 0", cfg.Feed.FeedTimeout())
	}
}

func TestYAMLProviderValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "unknown dataset source",
			body: "dataset:\n  source: parquet\n",
		},
		{
			name: "postgres without connection string",
			body: "dataset:\n  source: postgres\n",
		},
		{
			name: "bad feed url",
			body: "feed:\n  url: not a url\n",
		},
		{
			name: "bad timeout",
			body: "feed:\n  timeout: soon\n",
		},
		{
			name: "duplicate year",
			body: "dataset:\n  years: [2020, 2020]\n",
		},
		{
			name: "map width out of range",
			body: "map:\n  default_width: 5000\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yaml", tt.body)
			if _, err := NewYAMLProvider(path).LoadConfig(); err == nil {
				t.Errorf("LoadConfig() succeeded, expected a validation error")
			}
		})
	}
}

func TestYAMLProviderSections(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
dataset:
  directory: /srv/data
  years: [2021, 2022]
feed:
  timeout: 15s
rest:
  port: 9000
  page_title: Storingen
map:
  marker_scale: 3
`)
	p := NewYAMLProvider(path)

	dataset, err := p.GetDatasetConfig()
	if err != nil {
		t.Fatalf("GetDatasetConfig() error = %v", err)
	}
	if dataset.Directory != "/srv/data" || len(dataset.Years) != 2 {
		t.Errorf("dataset = %+v", dataset)
	}

	feed, err := p.GetFeedConfig()
	if err != nil {
		t.Fatalf("GetFeedConfig() error = %v", err)
	}
	if feed.FeedTimeout() != 15*time.Second {
		t.Errorf("FeedTimeout() = %v, expected 15s", feed.FeedTimeout())
	}

	rest, err := p.GetRESTServerConfig()
	if err != nil {
		t.Fatalf("GetRESTServerConfig() error = %v", err)
	}
	if rest.Port != 9000 || rest.PageTitle != "Storingen" {
		t.Errorf("rest = %+v", rest)
	}

	m, err := p.GetMapConfig()
	if err != nil {
		t.Fatalf("GetMapConfig() error = %v", err)
	}
	if m.MarkerScale != 3 {
		t.Errorf("MarkerScale = %v, expected 3", m.MarkerScale)
	}

	if !p.IsReadOnly() {
		t.Errorf("YAML provider should be read-only")
	}
}

func TestSQLiteProviderRoundTrip(t *testing.T) {
	p, err := NewSQLiteProvider(filepath.Join(t.TempDir(), "config.db"))
	if err != nil {
		t.Fatalf("NewSQLiteProvider() error = %v", err)
	}
	defer p.Close()

	if err := p.InitSchema(); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	// already migrated, nothing to do
	if err := p.InitSchema(); err != nil {
		t.Fatalf("second InitSchema() error = %v", err)
	}

	// An empty database still yields a usable default configuration
	empty, err := p.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() on empty database error = %v", err)
	}
	if empty.Feed.URL != DefaultFeedURL {
		t.Errorf("Feed.URL = %q, expected default", empty.Feed.URL)
	}

	want := &ConfigData{
		Dataset: DatasetData{
			Source:    "csv",
			Directory: "/data",
			Years:     []int{2022, 2023},
		},
		Feed: FeedData{
			URL:             "https://example.com/spoorkaart",
			SubscriptionKey: "secret",
			Timeout:         "10s",
		},
		RESTServer: RESTServerData{Port: 8181, PageTitle: "Rail"},
		Map:        MapData{CenterLat: 52.0, CenterLon: 5.0, Zoom: 8, MarkerScale: 1.5},
	}

	if err := p.SaveConfig(want); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	// Saving twice replaces rather than duplicates
	if err := p.SaveConfig(want); err != nil {
		t.Fatalf("second SaveConfig() error = %v", err)
	}

	got, err := p.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if got.Dataset.Directory != "/data" || len(got.Dataset.Years) != 2 || got.Dataset.Years[1] != 2023 {
		t.Errorf("Dataset = %+v", got.Dataset)
	}
	if got.Feed.URL != want.Feed.URL || got.Feed.SubscriptionKey != "secret" || got.Feed.FeedTimeout() != 10*time.Second {
		t.Errorf("Feed = %+v", got.Feed)
	}
	if got.RESTServer.Port != 8181 || got.RESTServer.PageTitle != "Rail" {
		t.Errorf("RESTServer = %+v", got.RESTServer)
	}
	if got.Map.Zoom != 8 || got.Map.MarkerScale != 1.5 || got.Map.CenterLat != 52.0 {
		t.Errorf("Map = %+v", got.Map)
	}
	if got.Map.DefaultWidth != DefaultMapWidth {
		t.Errorf("Map.DefaultWidth = %d, expected default %d", got.Map.DefaultWidth, DefaultMapWidth)
	}
}
