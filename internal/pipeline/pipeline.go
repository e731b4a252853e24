package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
	"github.com/couchcryptid/seaice-catalog/internal/geometry"
	"github.com/couchcryptid/seaice-catalog/internal/observability"
	"github.com/couchcryptid/seaice-catalog/internal/store"
)

// Locator lists the chart files one source has published since a date.
type Locator interface {
	Source() domain.Source
	Locate(ctx context.Context, since time.Time) ([]domain.FileLink, error)
}

// Store persists chart records. Upserts are staged until Flush.
type Store interface {
	Upsert(rec domain.ChartRecord)
	Flush(ctx context.Context) ([]domain.ChartRecord, error)
	MostRecentEpoch(ctx context.Context, source domain.Source) (time.Time, bool, error)
	Query(ctx context.Context, f store.Filter) ([]domain.ChartRecord, error)
	Ping(ctx context.Context) error
}

// Refiner computes exact geometry for a record in place.
type Refiner interface {
	Refine(ctx context.Context, rec *domain.ChartRecord) (geometry.Outcome, error)
}

// Publisher receives records once they are committed.
type Publisher interface {
	Publish(ctx context.Context, records []domain.ChartRecord) error
}

// refineFlushEvery bounds how many refined records RefineStored holds before
// committing.
const refineFlushEvery = 25

// Settings tunes the pipeline.
type Settings struct {
	// HistoryStart is where a source with no stored records resumes.
	HistoryStart time.Time
	Clock        clockwork.Clock
}

// RefreshOptions select the window and work done by one refresh.
type RefreshOptions struct {
	// Full ignores stored epochs and fetches from HistoryStart.
	Full bool
	// Since, when set, overrides both the stored resume point and Full.
	Since time.Time
	// Exact refines geometry for each newly located record.
	Exact bool
}

// Stats counts what a refresh or refinement pass did.
type Stats struct {
	Discovered    int
	Unparseable   int
	Upserted      int
	Refined       int
	RefineSkipped int
	RefineFailed  int
}

func (s *Stats) add(o Stats) {
	s.Discovered += o.Discovered
	s.Unparseable += o.Unparseable
	s.Upserted += o.Upserted
	s.Refined += o.Refined
	s.RefineSkipped += o.RefineSkipped
	s.RefineFailed += o.RefineFailed
}

// Pipeline orchestrates catalog refreshes: locate, parse, optionally refine,
// and upsert, committing once per source.
type Pipeline struct {
	locators    []Locator
	store       Store
	transformer ChartTransformer
	refiner     Refiner
	publisher   Publisher
	settings    Settings
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline. refiner and publisher may be nil to disable exact
// geometry and the change feed.
func New(locators []Locator, s Store, refiner Refiner, publisher Publisher, settings Settings, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if settings.Clock == nil {
		settings.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		locators:  locators,
		store:     s,
		refiner:   refiner,
		publisher: publisher,
		settings:  settings,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a refresh has succeeded and the store is
// reachable.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	if !p.ready.Load() {
		return errors.New("no catalog refresh has completed yet")
	}
	return p.store.Ping(ctx)
}

// Refresh runs every locator in turn. Locator failures are logged and
// reported after the remaining sources have run; store failures abort.
func (p *Pipeline) Refresh(ctx context.Context, opts RefreshOptions) (Stats, error) {
	start := time.Now()
	p.metrics.RefreshRunning.Set(1)
	defer p.metrics.RefreshRunning.Set(0)

	var (
		total Stats
		errs  []error
	)
	for _, loc := range p.locators {
		src := loc.Source()
		since, err := p.resumeFrom(ctx, src, opts)
		if err != nil {
			return total, err
		}

		links, err := loc.Locate(ctx, since)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			p.logger.Error("locate failed", "source", src.String(), "since", since.Format(domain.EpochLayout), "error", err)
			errs = append(errs, fmt.Errorf("locate %s charts: %w", src, err))
			continue
		}
		p.metrics.FilesDiscovered.WithLabelValues(src.String()).Add(float64(len(links)))

		stats, err := p.Ingest(ctx, links, opts.Exact)
		total.add(stats)
		if err != nil {
			return total, err
		}
		p.logger.Info("source refreshed",
			"source", src.String(),
			"since", since.Format(domain.EpochLayout),
			"discovered", stats.Discovered,
			"upserted", stats.Upserted,
			"unparseable", stats.Unparseable,
		)
	}

	p.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	if len(errs) > 0 {
		return total, errors.Join(errs...)
	}
	p.ready.Store(true)
	return total, nil
}

// resumeFrom picks the first date to request from a source.
func (p *Pipeline) resumeFrom(ctx context.Context, src domain.Source, opts RefreshOptions) (time.Time, error) {
	switch {
	case !opts.Since.IsZero():
		return domain.Midnight(opts.Since), nil
	case opts.Full:
		return p.settings.HistoryStart, nil
	}
	last, ok, err := p.store.MostRecentEpoch(ctx, src)
	if err != nil {
		return time.Time{}, fmt.Errorf("resume point for %s: %w", src, err)
	}
	if !ok {
		return p.settings.HistoryStart, nil
	}
	return last.AddDate(0, 0, 1), nil
}

// Ingest parses, optionally refines, and upserts links, then commits them.
// Unparseable links are logged and skipped. If ctx is cancelled part way,
// records already processed are still committed.
func (p *Pipeline) Ingest(ctx context.Context, links []domain.FileLink, exact bool) (Stats, error) {
	stats := Stats{Discovered: len(links)}
	for _, link := range links {
		if ctx.Err() != nil {
			break
		}
		rec, err := p.transformer.Transform(link)
		if err != nil {
			p.logger.Warn("unparseable chart, skipping", "name", link.Name, "href", link.Href, "error", err)
			p.metrics.ParseErrors.WithLabelValues(domain.ErrorKind(err)).Inc()
			stats.Unparseable++
			continue
		}
		if exact {
			p.refine(ctx, &rec, &stats)
		}
		p.store.Upsert(rec)
	}

	committed, err := p.commit(context.WithoutCancel(ctx))
	stats.Upserted = len(committed)
	if err != nil {
		return stats, err
	}
	return stats, ctx.Err()
}

// RefineStored computes exact geometry for stored records matching f that do
// not have it yet.
func (p *Pipeline) RefineStored(ctx context.Context, f store.Filter) (Stats, error) {
	if p.refiner == nil {
		return Stats{}, errors.New("exact geometry is not configured")
	}
	pending := false
	f.ExactGeometry = &pending
	records, err := p.store.Query(ctx, f)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	staged := 0
	for i := range records {
		if ctx.Err() != nil {
			break
		}
		rec := records[i]
		if p.refine(ctx, &rec, &stats) != geometry.OutcomeRefined {
			continue
		}
		p.store.Upsert(rec)
		if staged++; staged == refineFlushEvery {
			n, err := p.commit(context.WithoutCancel(ctx))
			stats.Upserted += len(n)
			if err != nil {
				return stats, err
			}
			staged = 0
		}
	}

	n, err := p.commit(context.WithoutCancel(ctx))
	stats.Upserted += len(n)
	if err != nil {
		return stats, err
	}
	p.logger.Info("stored records refined",
		"candidates", len(records),
		"refined", stats.Refined,
		"skipped", stats.RefineSkipped,
		"failed", stats.RefineFailed,
	)
	return stats, ctx.Err()
}

// refine runs the refiner on rec, leaving rec unchanged on failure.
func (p *Pipeline) refine(ctx context.Context, rec *domain.ChartRecord, stats *Stats) geometry.Outcome {
	if p.refiner == nil {
		return geometry.OutcomeSkipped
	}
	outcome, err := p.refiner.Refine(ctx, rec)
	if err != nil {
		p.logger.Warn("exact geometry failed, keeping template", "name", rec.Name, "href", rec.Href, "error", err)
		p.metrics.GeometryOutcomes.WithLabelValues("failed").Inc()
		stats.RefineFailed++
		return geometry.OutcomeSkipped
	}
	p.metrics.GeometryOutcomes.WithLabelValues(outcome.String()).Inc()
	if outcome == geometry.OutcomeRefined {
		stats.Refined++
	} else {
		stats.RefineSkipped++
	}
	return outcome
}

// commit flushes staged upserts and publishes what was written.
func (p *Pipeline) commit(ctx context.Context) ([]domain.ChartRecord, error) {
	committed, err := p.store.Flush(ctx)
	if err != nil {
		return nil, fmt.Errorf("commit records: %w", err)
	}
	for _, rec := range committed {
		p.metrics.RecordsUpserted.WithLabelValues(rec.Source.String()).Inc()
	}
	if p.publisher != nil && len(committed) > 0 {
		if err := p.publisher.Publish(ctx, committed); err != nil {
			p.logger.Error("change feed publish failed", "records", len(committed), "error", err)
		} else {
			p.metrics.ChangesPublished.Add(float64(len(committed)))
		}
	}
	return committed, nil
}

// Run refreshes the catalog every interval until ctx is cancelled. A failed
// refresh is retried with exponential backoff capped at interval.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration, opts RefreshOptions) error {
	p.logger.Info("scheduler started", "interval", interval)

	backoff := initialBackoff
	for {
		stats, err := p.Refresh(ctx, opts)
		if ctx.Err() != nil {
			p.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		}

		wait := interval
		if err != nil {
			p.logger.Error("refresh failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, interval)
		} else {
			p.logger.Info("refresh complete", "upserted", stats.Upserted, "next_in", interval)
			backoff = initialBackoff
		}

		select {
		case <-ctx.Done():
			p.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-p.settings.Clock.After(wait):
		}
	}
}

const initialBackoff = 200 * time.Millisecond

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
