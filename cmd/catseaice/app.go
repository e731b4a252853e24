package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/seaice-catalog/internal/adapter/download"
	kafkaadapter "github.com/couchcryptid/seaice-catalog/internal/adapter/kafka"
	"github.com/couchcryptid/seaice-catalog/internal/adapter/locator"
	"github.com/couchcryptid/seaice-catalog/internal/config"
	"github.com/couchcryptid/seaice-catalog/internal/geometry"
	"github.com/couchcryptid/seaice-catalog/internal/observability"
	"github.com/couchcryptid/seaice-catalog/internal/pipeline"
	"github.com/couchcryptid/seaice-catalog/internal/store"
)

// app carries the process-wide dependencies shared by every command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

func (a *app) openStore(ctx context.Context, path string) (*store.Store, error) {
	if path == "" {
		path = a.cfg.DBPath
	}
	s, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open catalog store %s: %w", path, err)
	}
	a.logger.Debug("catalog store opened", "path", path)
	return s, nil
}

func (a *app) locators(clock clockwork.Clock) []pipeline.Locator {
	prober := locator.NewHTTPProber(a.cfg.HTTPTimeout, a.metrics)
	return []pipeline.Locator{
		locator.NewNIC(a.cfg.NICSearchURL, a.cfg.HTTPTimeout, clock, a.logger),
		locator.NewCIS(a.cfg.CISArchiveURL, prober,
			locator.NewCachedProber(prober, a.cfg.ProbeCacheSize, a.metrics),
			clock, a.logger),
	}
}

func (a *app) refiner() pipeline.Refiner {
	return geometry.NewNormalizer(download.NewClient(a.cfg.HTTPTimeout, a.logger), "", a.logger)
}

// newPipeline wires a Pipeline over s. The returned close function releases the
// change feed writer, if any.
func (a *app) newPipeline(s *store.Store, exact bool) (*pipeline.Pipeline, func()) {
	clock := clockwork.NewRealClock()

	var refiner pipeline.Refiner
	if exact {
		refiner = a.refiner()
	}

	var publisher pipeline.Publisher
	closeFn := func() {}
	if a.cfg.FeedEnabled() {
		w := kafkaadapter.NewWriter(a.cfg, a.logger)
		publisher = w
		closeFn = func() {
			if err := w.Close(); err != nil {
				a.logger.Error("kafka writer close error", "error", err)
			}
		}
		a.logger.Info("change feed enabled", "topic", a.cfg.KafkaTopic, "brokers", a.cfg.KafkaBrokers)
	}

	p := pipeline.New(a.locators(clock), s, refiner, publisher,
		pipeline.Settings{HistoryStart: a.cfg.HistoryStart, Clock: clock},
		a.logger, a.metrics)
	return p, closeFn
}

func (a *app) closeStore(ctx context.Context, s *store.Store) {
	if err := s.Close(context.WithoutCancel(ctx)); err != nil {
		a.logger.Error("catalog store close error", "error", err)
	}
}
