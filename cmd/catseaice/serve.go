package main

import (
	"context"
	"errors"
	"flag"
	"net/http"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/seaice-catalog/internal/adapter/http"
	"github.com/couchcryptid/seaice-catalog/internal/pipeline"
)

func runServe(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	exact := fs.Bool("exact", false, "compute exact geometry for newly located charts")
	db := fs.String("db", "", "catalog database path (default $CATALOG_DB)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	s, err := a.openStore(ctx, *db)
	if err != nil {
		return err
	}
	defer a.closeStore(ctx, s)

	p, closeFeed := a.newPipeline(s, *exact)
	defer closeFeed()

	srv := httpadapter.NewServer(a.cfg.HTTPAddr, p, s, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return p.Run(gctx, a.cfg.RefreshInterval, pipeline.RefreshOptions{Exact: *exact})
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	a.logger.Info("shutdown complete")
	return err
}
