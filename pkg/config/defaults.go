package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultFeedURL     = "https://gateway.apiportal.ns.nl/Spoorkaart-API/api/v1/spoorkaart"
	DefaultFilePattern = "disruptions-%d.csv"
	DefaultTable       = "disruptions"
	DefaultHTTPPort    = 8080
	DefaultPageTitle   = "NS Disruptions"

	// Centre of the Netherlands
	DefaultCenterLat = 52.1326
	DefaultCenterLon = 5.2913
	DefaultZoom      = 7
	DefaultTiles     = "Cartodb dark_matter"

	DefaultMarkerScale   = 2.0
	DefaultMapWidth      = 600
	DefaultMapHeight     = 400
	DefaultDatasetSource = "csv"
)

// DefaultYears are the yearly disruption files published by rijdendetreinen.nl
var DefaultYears = []int{2019, 2020, 2021, 2022, 2023}

var validate = validator.New()

// ApplyDefaults fills every unset field with its default value
func ApplyDefaults(c *ConfigData) {
	if c.Dataset.Source == "" {
		c.Dataset.Source = DefaultDatasetSource
	}
	if c.Dataset.FilePattern == "" {
		c.Dataset.FilePattern = DefaultFilePattern
	}
	if c.Dataset.Directory == "" {
		c.Dataset.Directory = "."
	}
	if c.Dataset.Table == "" {
		c.Dataset.Table = DefaultTable
	}
	if len(c.Dataset.Years) == 0 {
		c.Dataset.Years = append([]int(nil), DefaultYears...)
	}

	if c.Feed.URL == "" {
		c.Feed.URL = DefaultFeedURL
	}

	if c.RESTServer.Port == 0 {
		c.RESTServer.Port = DefaultHTTPPort
	}
	if c.RESTServer.ListenAddr == "" {
		c.RESTServer.ListenAddr = "0.0.0.0"
	}
	if c.RESTServer.PageTitle == "" {
		c.RESTServer.PageTitle = DefaultPageTitle
	}

	if c.Map.CenterLat == 0 && c.Map.CenterLon == 0 {
		c.Map.CenterLat = DefaultCenterLat
		c.Map.CenterLon = DefaultCenterLon
	}
	if c.Map.Zoom == 0 {
		c.Map.Zoom = DefaultZoom
	}
	if c.Map.Tiles == "" {
		c.Map.Tiles = DefaultTiles
	}
	if c.Map.MarkerScale == 0 {
		c.Map.MarkerScale = DefaultMarkerScale
	}
	if c.Map.DefaultWidth == 0 {
		c.Map.DefaultWidth = DefaultMapWidth
	}
	if c.Map.DefaultHeight == 0 {
		c.Map.DefaultHeight = DefaultMapHeight
	}
}

// Validate checks the struct tags and the fields that need more than a tag
func Validate(c *ConfigData) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Feed.Timeout != "" {
		if _, err := time.ParseDuration(c.Feed.Timeout); err != nil {
			return fmt.Errorf("invalid configuration: feed.timeout %q: %w", c.Feed.Timeout, err)
		}
	}

	seen := make(map[int]bool, len(c.Dataset.Years))
	for _, y := range c.Dataset.Years {
		if seen[y] {
			return fmt.Errorf("invalid configuration: dataset year %d listed twice", y)
		}
		seen[y] = true
	}

	return nil
}

// FeedTimeout returns the configured feed timeout, or zero when none is set
func (f FeedData) FeedTimeout() time.Duration {
	if f.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(f.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// finalize applies defaults and validates a freshly loaded configuration
func finalize(c *ConfigData) (*ConfigData, error) {
	ApplyDefaults(c)
	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}
