package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration, with defaults applied and validated
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetDatasetConfig() (*DatasetData, error)
	GetFeedConfig() (*FeedData, error)
	GetRESTServerConfig() (*RESTServerData, error)
	GetMapConfig() (*MapData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Dataset    DatasetData    `json:"dataset" yaml:"dataset"`
	Feed       FeedData       `json:"feed" yaml:"feed"`
	RESTServer RESTServerData `json:"rest" yaml:"rest"`
	Map        MapData        `json:"map" yaml:"map"`
}

// DatasetData describes where the historical disruption records are read from
type DatasetData struct {
	// Source is either "csv" (one file per year) or "postgres"
	Source string `json:"source" yaml:"source" validate:"omitempty,oneof=csv postgres"`

	// CSV source
	Directory   string `json:"directory,omitempty" yaml:"directory,omitempty"`
	FilePattern string `json:"file_pattern,omitempty" yaml:"file_pattern,omitempty"`

	// Postgres source
	ConnectionString string `json:"connection_string,omitempty" yaml:"connection_string,omitempty" validate:"required_if=Source postgres"`
	Table            string `json:"table,omitempty" yaml:"table,omitempty"`

	Years []int `json:"years" yaml:"years" validate:"dive,gte=1900,lte=2999"`
}

// FeedData holds the rail-network geometry endpoint settings
type FeedData struct {
	URL             string `json:"url" yaml:"url" validate:"omitempty,url"`
	SubscriptionKey string `json:"subscription_key" yaml:"subscription_key"`
	// Timeout is a Go duration string. Empty means no client-side timeout.
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// RESTServerData holds the dashboard HTTP server settings
type RESTServerData struct {
	Cert       string `json:"cert,omitempty" yaml:"cert,omitempty"`
	Key        string `json:"key,omitempty" yaml:"key,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty" validate:"gte=0,lte=65535"`
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	PageTitle  string `json:"page_title,omitempty" yaml:"page_title,omitempty"`
}

// MapData holds the fixed map view and marker sizing
type MapData struct {
	CenterLat     float64 `json:"center_lat" yaml:"center_lat" validate:"gte=-90,lte=90"`
	CenterLon     float64 `json:"center_lon" yaml:"center_lon" validate:"gte=-180,lte=180"`
	Zoom          int     `json:"zoom" yaml:"zoom" validate:"gte=0,lte=20"`
	Tiles         string  `json:"tiles" yaml:"tiles"`
	MarkerScale   float64 `json:"marker_scale" yaml:"marker_scale" validate:"gte=0"`
	DefaultWidth  int     `json:"default_width" yaml:"default_width" validate:"omitempty,gte=200,lte=1000"`
	DefaultHeight int     `json:"default_height" yaml:"default_height" validate:"omitempty,gte=200,lte=800"`
}
