// Command catseaice maintains the sea-ice chart catalog.
//
// Usage:
//
//	catseaice refresh [-all] [-since YYYY-MM-DD] [-exact] [-exact-all] [-db PATH]
//	catseaice report [-db PATH]
//	catseaice export [-layout SELF_CONTAINED|RELATIVE_PUBLISHED|ABSOLUTE_PUBLISHED] [-base URL] [-id ID] [-db PATH] TARGET
//	catseaice serve [-exact] [-db PATH]
//
// Settings not covered by flags come from the environment; see internal/config.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/seaice-catalog/internal/config"
	"github.com/couchcryptid/seaice-catalog/internal/observability"
)

type command struct {
	name string
	run  func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{name: "refresh", run: runRefresh},
	{name: "report", run: runReport},
	{name: "export", run: runExport},
	{name: "serve", run: runServe},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	a := &app{
		cfg:     cfg,
		logger:  observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat),
		metrics: observability.NewMetrics(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, c := range commands {
		if c.name != os.Args[1] {
			continue
		}
		if err := c.run(ctx, a, os.Args[2:]); err != nil {
			if errors.Is(err, errUsage) {
				os.Exit(2)
			}
			a.logger.Error(c.name+" failed", "error", err)
			stop()
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
	usage()
	os.Exit(2)
}

var errUsage = errors.New("usage")

func usage() {
	fmt.Fprintln(os.Stderr, "usage: catseaice <refresh|report|export|serve> [flags]")
}
