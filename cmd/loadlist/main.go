// Command loadlist seeds the catalog store from a CSV list of chart files,
// one name,href pair per row. Useful for charts no locator can reach, or for
// rebuilding a store offline from an archived listing.
//
// Usage:
//
//	go run ./cmd/loadlist -csv data/nic_2006.csv [-db icecharts.sqlite] [-exact]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/seaice-catalog/internal/adapter/download"
	"github.com/couchcryptid/seaice-catalog/internal/adapter/locator"
	"github.com/couchcryptid/seaice-catalog/internal/config"
	"github.com/couchcryptid/seaice-catalog/internal/geometry"
	"github.com/couchcryptid/seaice-catalog/internal/observability"
	"github.com/couchcryptid/seaice-catalog/internal/pipeline"
	"github.com/couchcryptid/seaice-catalog/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "CSV file of name,href rows")
	db := flag.String("db", "", "catalog database path (default $CATALOG_DB)")
	exact := flag.Bool("exact", false, "compute exact geometry for each chart")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -csv")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *db == "" {
		*db = cfg.DBPath
	}
	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	links, err := locator.File{Path: *csvPath}.Locate(ctx, time.Time{})
	if err != nil {
		return err
	}
	log.Printf("%s: %d links", *csvPath, len(links))

	s, err := store.Open(ctx, *db)
	if err != nil {
		return fmt.Errorf("open catalog store %s: %w", *db, err)
	}
	defer s.Close(context.WithoutCancel(ctx))

	var refiner pipeline.Refiner
	if *exact {
		refiner = geometry.NewNormalizer(download.NewClient(cfg.HTTPTimeout, logger), "", logger)
	}
	p := pipeline.New(nil, s, refiner, nil,
		pipeline.Settings{HistoryStart: cfg.HistoryStart},
		logger, observability.NewMetrics())

	stats, err := p.Ingest(ctx, links, *exact)
	if err != nil {
		return err
	}
	log.Printf("upserted %d records, skipped %d unparseable, refined %d", stats.Upserted, stats.Unparseable, stats.Refined)
	return nil
}
