package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
)

func runReport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	db := fs.String("db", "", "catalog database path (default $CATALOG_DB)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	s, err := a.openStore(ctx, *db)
	if err != nil {
		return err
	}
	defer a.closeStore(ctx, s)

	summary, err := s.Summary(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
