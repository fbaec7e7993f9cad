package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var cfg ConfigData
	if err := yaml.Unmarshal(cfgFile, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", y.filename, err)
	}

	loaded, err := finalize(&cfg)
	if err != nil {
		return nil, err
	}

	y.config = loaded
	return loaded, nil
}

// GetDatasetConfig returns the dataset section
func (y *YAMLProvider) GetDatasetConfig() (*DatasetData, error) {
	cfg, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Dataset, nil
}

// GetFeedConfig returns the rail-network feed section
func (y *YAMLProvider) GetFeedConfig() (*FeedData, error) {
	cfg, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Feed, nil
}

// GetRESTServerConfig returns the HTTP server section
func (y *YAMLProvider) GetRESTServerConfig() (*RESTServerData, error) {
	cfg, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.RESTServer, nil
}

// GetMapConfig returns the map section
func (y *YAMLProvider) GetMapConfig() (*MapData, error) {
	cfg, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Map, nil
}

// IsReadOnly returns true since YAML files are read-only in this implementation
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
