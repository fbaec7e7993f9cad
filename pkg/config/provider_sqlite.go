package config

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/railstats/nsdisruptions/pkg/migrate"
	_ "modernc.org/sqlite"
)

// ConfigMigrationsTable tracks the applied configuration schema version
const ConfigMigrationsTable = "config_migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations returns the embedded configuration schema migrations
func Migrations() *migrate.FSProvider {
	return migrate.NewFSProvider(migrationsFS, "migrations", ConfigMigrationsTable)
}

const defaultConfigID = `(SELECT id FROM configs WHERE name = 'default')`

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// InitSchema brings the configuration schema up to the newest migration
func (s *SQLiteProvider) InitSchema() error {
	if err := migrate.NewMigrator(s.db, Migrations(), nil).Up(context.Background()); err != nil {
		return fmt.Errorf("failed to create configuration schema: %w", err)
	}
	return nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	cfg, err := s.loadRaw()
	if err != nil {
		return nil, err
	}
	return finalize(cfg)
}

func (s *SQLiteProvider) loadRaw() (*ConfigData, error) {
	cfg := &ConfigData{}

	dataset, err := s.getDataset()
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset config: %w", err)
	}
	cfg.Dataset = *dataset

	feed, err := s.getFeed()
	if err != nil {
		return nil, fmt.Errorf("failed to load feed config: %w", err)
	}
	cfg.Feed = *feed

	rest, err := s.getRESTServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load rest server config: %w", err)
	}
	cfg.RESTServer = *rest

	m, err := s.getMap()
	if err != nil {
		return nil, fmt.Errorf("failed to load map config: %w", err)
	}
	cfg.Map = *m

	return cfg, nil
}

// GetDatasetConfig returns the dataset section with defaults applied
func (s *SQLiteProvider) GetDatasetConfig() (*DatasetData, error) {
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Dataset, nil
}

// GetFeedConfig returns the feed section with defaults applied
func (s *SQLiteProvider) GetFeedConfig() (*FeedData, error) {
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Feed, nil
}

// GetRESTServerConfig returns the HTTP server section with defaults applied
func (s *SQLiteProvider) GetRESTServerConfig() (*RESTServerData, error) {
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.RESTServer, nil
}

// GetMapConfig returns the map section with defaults applied
func (s *SQLiteProvider) GetMapConfig() (*MapData, error) {
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Map, nil
}

func (s *SQLiteProvider) getDataset() (*DatasetData, error) {
	query := `
		SELECT source, directory, file_pattern, connection_string, table_name
		FROM dataset_configs
		WHERE config_id = ` + defaultConfigID

	var source, directory, pattern, connStr, table sql.NullString
	err := s.db.QueryRow(query).Scan(&source, &directory, &pattern, &connStr, &table)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query dataset config: %w", err)
	}

	dataset := &DatasetData{
		Source:           source.String,
		Directory:        directory.String,
		FilePattern:      pattern.String,
		ConnectionString: connStr.String,
		Table:            table.String,
	}

	rows, err := s.db.Query(`SELECT year FROM dataset_years WHERE config_id = ` + defaultConfigID + ` ORDER BY year`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset years: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("failed to scan dataset year: %w", err)
		}
		dataset.Years = append(dataset.Years, year)
	}

	return dataset, rows.Err()
}

func (s *SQLiteProvider) getFeed() (*FeedData, error) {
	query := `SELECT url, subscription_key, timeout FROM feed_configs WHERE config_id = ` + defaultConfigID

	var url, key, timeout sql.NullString
	err := s.db.QueryRow(query).Scan(&url, &key, &timeout)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query feed config: %w", err)
	}

	return &FeedData{
		URL:             url.String,
		SubscriptionKey: key.String,
		Timeout:         timeout.String,
	}, nil
}

func (s *SQLiteProvider) getRESTServer() (*RESTServerData, error) {
	query := `
		SELECT cert, key, port, listen_addr, page_title
		FROM rest_server_configs
		WHERE config_id = ` + defaultConfigID

	var cert, key, listenAddr, pageTitle sql.NullString
	var port sql.NullInt64
	err := s.db.QueryRow(query).Scan(&cert, &key, &port, &listenAddr, &pageTitle)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query rest server config: %w", err)
	}

	return &RESTServerData{
		Cert:       cert.String,
		Key:        key.String,
		Port:       int(port.Int64),
		ListenAddr: listenAddr.String,
		PageTitle:  pageTitle.String,
	}, nil
}

func (s *SQLiteProvider) getMap() (*MapData, error) {
	query := `
		SELECT center_lat, center_lon, zoom, tiles, marker_scale, default_width, default_height
		FROM map_configs
		WHERE config_id = ` + defaultConfigID

	var lat, lon, scale sql.NullFloat64
	var zoom, width, height sql.NullInt64
	var tiles sql.NullString
	err := s.db.QueryRow(query).Scan(&lat, &lon, &zoom, &tiles, &scale, &width, &height)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query map config: %w", err)
	}

	return &MapData{
		CenterLat:     lat.Float64,
		CenterLon:     lon.Float64,
		Zoom:          int(zoom.Int64),
		Tiles:         tiles.String,
		MarkerScale:   scale.Float64,
		DefaultWidth:  int(width.Int64),
		DefaultHeight: int(height.Int64),
	}, nil
}

// IsReadOnly returns false since SQLite supports write operations
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored 'default' configuration with configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.upsertConfig(tx, "default")
	if err != nil {
		return fmt.Errorf("failed to insert config: %w", err)
	}

	if err := s.clearExistingConfig(tx, configID); err != nil {
		return fmt.Errorf("failed to clear existing config: %w", err)
	}

	d := configData.Dataset
	if _, err := tx.Exec(`INSERT INTO dataset_configs (config_id, source, directory, file_pattern, connection_string, table_name) VALUES (?, ?, ?, ?, ?, ?)`,
		configID, nullString(d.Source), nullString(d.Directory), nullString(d.FilePattern), nullString(d.ConnectionString), nullString(d.Table)); err != nil {
		return fmt.Errorf("failed to insert dataset config: %w", err)
	}
	for _, year := range d.Years {
		if _, err := tx.Exec(`INSERT INTO dataset_years (config_id, year) VALUES (?, ?)`, configID, year); err != nil {
			return fmt.Errorf("failed to insert dataset year %d: %w", year, err)
		}
	}

	f := configData.Feed
	if _, err := tx.Exec(`INSERT INTO feed_configs (config_id, url, subscription_key, timeout) VALUES (?, ?, ?, ?)`,
		configID, nullString(f.URL), nullString(f.SubscriptionKey), nullString(f.Timeout)); err != nil {
		return fmt.Errorf("failed to insert feed config: %w", err)
	}

	r := configData.RESTServer
	if _, err := tx.Exec(`INSERT INTO rest_server_configs (config_id, cert, key, port, listen_addr, page_title) VALUES (?, ?, ?, ?, ?, ?)`,
		configID, nullString(r.Cert), nullString(r.Key), nullInt64(int64(r.Port)), nullString(r.ListenAddr), nullString(r.PageTitle)); err != nil {
		return fmt.Errorf("failed to insert rest server config: %w", err)
	}

	m := configData.Map
	if _, err := tx.Exec(`INSERT INTO map_configs (config_id, center_lat, center_lon, zoom, tiles, marker_scale, default_width, default_height) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		configID, nullFloat64(m.CenterLat), nullFloat64(m.CenterLon), nullInt64(int64(m.Zoom)), nullString(m.Tiles),
		nullFloat64(m.MarkerScale), nullInt64(int64(m.DefaultWidth)), nullInt64(int64(m.DefaultHeight))); err != nil {
		return fmt.Errorf("failed to insert map config: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteProvider) upsertConfig(tx *sql.Tx, name string) (int64, error) {
	_, err := tx.Exec(`
		INSERT INTO configs (name, created_at, updated_at) VALUES (?, datetime('now'), datetime('now'))
		ON CONFLICT(name) DO UPDATE SET updated_at = datetime('now')`, name)
	if err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRow(`SELECT id FROM configs WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLiteProvider) clearExistingConfig(tx *sql.Tx, configID int64) error {
	queries := []string{
		"DELETE FROM dataset_configs WHERE config_id = ?",
		"DELETE FROM dataset_years WHERE config_id = ?",
		"DELETE FROM feed_configs WHERE config_id = ?",
		"DELETE FROM rest_server_configs WHERE config_id = ?",
		"DELETE FROM map_configs WHERE config_id = ?",
	}

	for _, query := range queries {
		if _, err := tx.Exec(query, configID); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat64(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func nullInt64(i int64) sql.NullInt64 {
	if i == 0 {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: i, Valid: true}
}
