package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
)

var migrationFile = regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)

// FSProvider reads NNN_name.up.sql / NNN_name.down.sql pairs from a
// filesystem, usually an embed.FS
type FSProvider struct {
	fsys  fs.FS
	dir   string
	table string
	// postgres uses numbered placeholders
	postgres bool
}

// NewFSProvider creates a provider for SQLite databases
func NewFSProvider(fsys fs.FS, dir, table string) *FSProvider {
	if table == "" {
		table = "schema_migrations"
	}
	return &FSProvider{fsys: fsys, dir: dir, table: table}
}

// NewPostgresFSProvider creates a provider for PostgreSQL databases
func NewPostgresFSProvider(fsys fs.FS, dir, table string) *FSProvider {
	p := NewFSProvider(fsys, dir, table)
	p.postgres = true
	return p
}

// Migrations loads every migration found in the directory
func (p *FSProvider) Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(p.fsys, p.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory %s: %w", p.dir, err)
	}

	byVersion := make(map[int]*Migration)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := migrationFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}

		version, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid version number in file %s: %w", e.Name(), err)
		}
		content, err := fs.ReadFile(p.fsys, p.dir+"/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", e.Name(), err)
		}

		mg, ok := byVersion[version]
		if !ok {
			mg = &Migration{Version: version, Name: strings.ReplaceAll(m[2], "_", " ")}
			byVersion[version] = mg
		}
		if m[3] == "up" {
			mg.Up = string(content)
		} else {
			mg.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mg := range byVersion {
		migrations = append(migrations, *mg)
	}
	return migrations, nil
}

// CreateVersionTable creates the tracking table if it does not exist
func (p *FSProvider) CreateVersionTable(ctx context.Context, db *sql.DB) error {
	appliedType := "DATETIME"
	if p.postgres {
		appliedType = "TIMESTAMP"
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		version    INTEGER PRIMARY KEY,
		applied_at %s DEFAULT CURRENT_TIMESTAMP
	)`, p.table, appliedType)

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// CurrentVersion returns the highest recorded version, or 0
func (p *FSProvider) CurrentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	query := fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", p.table)
	if err := db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

// RecordVersion makes version the highest recorded version
func (p *FSProvider) RecordVersion(ctx context.Context, db Execer, version int) error {
	placeholder := "?"
	if p.postgres {
		placeholder = "$1"
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE version >= %s", p.table, placeholder), version); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	if version == 0 {
		return nil
	}

	insert := fmt.Sprintf("INSERT INTO %s (version) VALUES (%s)", p.table, placeholder)
	if _, err := db.ExecContext(ctx, insert, version); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	return nil
}
