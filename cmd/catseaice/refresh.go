package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
	"github.com/couchcryptid/seaice-catalog/internal/pipeline"
	"github.com/couchcryptid/seaice-catalog/internal/store"
)

func runRefresh(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("refresh", flag.ContinueOnError)
	all := fs.Bool("all", false, "fetch the full history instead of resuming after the latest stored chart")
	since := fs.String("since", "", "fetch charts from this date (YYYY-MM-DD)")
	exact := fs.Bool("exact", false, "compute exact geometry for newly located charts")
	exactAll := fs.Bool("exact-all", false, "compute exact geometry for every stored chart lacking it")
	db := fs.String("db", "", "catalog database path (default $CATALOG_DB)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	opts := pipeline.RefreshOptions{Full: *all, Exact: *exact}
	if *since != "" {
		t, err := time.Parse(domain.EpochLayout, *since)
		if err != nil {
			return fmt.Errorf("invalid -since %q: want YYYY-MM-DD", *since)
		}
		opts.Since = t
	}

	s, err := a.openStore(ctx, *db)
	if err != nil {
		return err
	}
	defer a.closeStore(ctx, s)

	p, closeFeed := a.newPipeline(s, *exact || *exactAll)
	defer closeFeed()

	stats, err := p.Refresh(ctx, opts)
	a.logger.Info("refresh finished",
		"discovered", stats.Discovered,
		"upserted", stats.Upserted,
		"unparseable", stats.Unparseable,
		"refined", stats.Refined,
	)
	if err != nil {
		return err
	}

	if *exactAll {
		if _, err := p.RefineStored(ctx, store.Filter{}); err != nil {
			return err
		}
	}
	return nil
}
