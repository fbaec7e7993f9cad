package disruptions

import (
	"context"
	"fmt"
	"time"

	"github.com/railstats/nsdisruptions/internal/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// disruptionRow is the database shape of one disruption
type disruptionRow struct {
	ID                 uint64     `gorm:"column:id;primaryKey"`
	StartTime          time.Time  `gorm:"column:start_time;not null;index"`
	EndTime            *time.Time `gorm:"column:end_time"`
	StatisticalCauseEN string     `gorm:"column:statistical_cause_en"`
	RdtStationCodes    string     `gorm:"column:rdt_station_codes"`
}

// yearCondition limits a query to rows starting in one of a list of years
const yearCondition = "EXTRACT(YEAR FROM start_time) IN ?"

// PostgresLoader reads disruptions from a table with the same columns as
// the yearly CSV files, limited to the configured years.
type PostgresLoader struct {
	ConnectionString string
	Table            string
	Years            []int
	logger           *zap.SugaredLogger

	// open is replaceable so the row conversion can be exercised without a server
	open func(connStr string) (*gorm.DB, error)
}

// NewPostgresLoader creates a loader backed by a PostgreSQL table
func NewPostgresLoader(connStr, table string, years []int, logger *zap.SugaredLogger) *PostgresLoader {
	return &PostgresLoader{
		ConnectionString: connStr,
		Table:            table,
		Years:            years,
		logger:           logger,
		open:             database.CreateConnection,
	}
}

// Load queries all rows whose start_time falls in one of the configured years
func (l *PostgresLoader) Load(ctx context.Context) (*Dataset, error) {
	db, err := l.open(l.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("error connecting to disruption database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	var rows []disruptionRow
	q := db.WithContext(ctx).
		Table(l.Table).
		Select("start_time", "end_time", "statistical_cause_en", "rdt_station_codes").
		Order("start_time")
	if len(l.Years) > 0 {
		q = q.Where(yearCondition, l.Years)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying table %s: %w", l.Table, err)
	}

	if l.logger != nil {
		l.logger.Infow("loaded disruptions from database", "table", l.Table, "records", len(rows))
	}

	return NewDataset(rowsToRecords(rows)), nil
}

// rowsToRecords converts rows to records. Times are moved to UTC to match
// the CSV loader; the driver returns them in the local zone.
func rowsToRecords(rows []disruptionRow) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		var end time.Time
		if row.EndTime != nil {
			end = row.EndTime.UTC()
		}
		records = append(records, NewRecord(row.StartTime.UTC(), end, row.StatisticalCauseEN, row.RdtStationCodes))
	}
	return records
}

func recordsToRows(records []Record) []disruptionRow {
	rows := make([]disruptionRow, 0, len(records))
	for _, r := range records {
		row := disruptionRow{
			StartTime:          r.StartTime,
			StatisticalCauseEN: r.StatisticalCauseEN,
			RdtStationCodes:    r.StationCode,
		}
		if !r.EndTime.IsZero() {
			end := r.EndTime
			row.EndTime = &end
		}
		rows = append(rows, row)
	}
	return rows
}

// DefaultImportBatchSize is the number of rows per INSERT in ImportRecords
const DefaultImportBatchSize = 500

// ImportRecords creates table if needed and stores records in it in
// batches. Rows already stored for years are deleted first in the same
// transaction, so importing the same files again leaves a single copy.
// It returns the number of rows written.
func ImportRecords(ctx context.Context, db *gorm.DB, table string, years []int, records []Record, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = DefaultImportBatchSize
	}

	if err := db.WithContext(ctx).Table(table).AutoMigrate(&disruptionRow{}); err != nil {
		return 0, fmt.Errorf("error creating table %s: %w", table, err)
	}

	var written int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(years) > 0 {
			if err := deleteYears(tx, table, years).Error; err != nil {
				return fmt.Errorf("error clearing years %v from %s: %w", years, table, err)
			}
		}
		if len(records) == 0 {
			return nil
		}

		res := tx.Table(table).CreateInBatches(recordsToRows(records), batchSize)
		written = res.RowsAffected
		if res.Error != nil {
			return fmt.Errorf("error inserting into %s: %w", table, res.Error)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func deleteYears(tx *gorm.DB, table string, years []int) *gorm.DB {
	return tx.Table(table).Where(yearCondition, years).Delete(&disruptionRow{})
}
