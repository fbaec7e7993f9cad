package disruptions

import (
	"fmt"

	"github.com/railstats/nsdisruptions/pkg/config"
	"go.uber.org/zap"
)

// NewLoader returns the loader for the configured dataset source
func NewLoader(cfg config.DatasetData, logger *zap.SugaredLogger) (Loader, error) {
	switch cfg.Source {
	case "", "csv":
		return NewCSVLoader(cfg.Directory, cfg.FilePattern, cfg.Years, logger), nil
	case "postgres":
		return NewPostgresLoader(cfg.ConnectionString, cfg.Table, cfg.Years, logger), nil
	default:
		return nil, fmt.Errorf("unsupported dataset source: %s", cfg.Source)
	}
}
