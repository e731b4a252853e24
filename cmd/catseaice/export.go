package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/seaice-catalog/internal/catalog"
)

func runExport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	layoutName := fs.String("layout", catalog.SelfContained.String(), "link layout: SELF_CONTAINED, RELATIVE_PUBLISHED or ABSOLUTE_PUBLISHED")
	base := fs.String("base", "", "public URL of TARGET for published layouts (default derived from TARGET)")
	rootID := fs.String("id", catalog.DefaultRootID, "root catalog id")
	db := fs.String("db", "", "catalog database path (default $CATALOG_DB)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: catseaice export [flags] TARGET")
		return errUsage
	}
	layout, err := catalog.ParseLayout(*layoutName)
	if err != nil {
		return err
	}

	s, err := a.openStore(ctx, *db)
	if err != nil {
		return err
	}
	defer a.closeStore(ctx, s)

	root, err := catalog.NewAssembler(s, a.logger).Assemble(ctx, *rootID, catalog.DefaultRootDescription)
	if errors.Is(err, catalog.ErrNothingToExport) {
		a.logger.Info("nothing to export: the catalog store is empty")
		return nil
	}
	if err != nil {
		return err
	}

	sink, derivedBase, closer, err := catalog.OpenSink(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	defer closer.Close()

	if *base == "" {
		*base = derivedBase
	}
	_, err = catalog.NewExporter(sink, catalog.ExportConfig{
		Layout:      layout,
		BaseURL:     *base,
		Concurrency: a.cfg.ExportConcurrency,
	}, a.logger).Export(ctx, root)
	return err
}
