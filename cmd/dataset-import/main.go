package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/railstats/nsdisruptions/internal/database"
	"github.com/railstats/nsdisruptions/internal/disruptions"
	"github.com/railstats/nsdisruptions/internal/log"
	"github.com/railstats/nsdisruptions/pkg/config"
)

// dataset-import copies the yearly disruption CSV files into the PostgreSQL
// table read by the "postgres" dataset source.
func main() {
	var (
		cfgFile   = flag.String("config", "config.yaml", "YAML configuration holding the dataset section")
		dsn       = flag.String("dsn", "", "PostgreSQL connection string (default: dataset.connection_string)")
		table     = flag.String("table", "", "Target table (default: dataset.table)")
		batchSize = flag.Int("batch", disruptions.DefaultImportBatchSize, "Rows per INSERT")
		dryRun    = flag.Bool("dry-run", false, "Read and validate the CSV files without writing")
		debug     = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.NewYAMLProvider(*cfgFile).LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	ds := cfg.Dataset
	if *dsn != "" {
		ds.ConnectionString = *dsn
	}
	if *table != "" {
		ds.Table = *table
	}
	if ds.ConnectionString == "" && !*dryRun {
		log.Fatal("no connection string: pass -dsn or set dataset.connection_string")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := disruptions.NewCSVLoader(ds.Directory, ds.FilePattern, ds.Years, log.Named("dataset"))
	dataset, err := loader.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to read disruption files: %v", err)
	}
	log.Infow("read disruption files", "directory", ds.Directory, "years", ds.Years, "records", dataset.Len())

	if *dryRun {
		fmt.Printf("DRY RUN - %d records would be written to %s\n", dataset.Len(), ds.Table)
		return
	}

	db, err := database.CreateConnection(ds.ConnectionString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	n, err := disruptions.ImportRecords(ctx, db, ds.Table, ds.Years, dataset.Records(), *batchSize)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("Imported %d records into %s, replacing years %v\n", n, ds.Table, ds.Years)
}
