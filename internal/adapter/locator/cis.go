package locator

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
)

// DefaultCISArchiveURL is the root of the Canadian Ice Service chart archive.
const DefaultCISArchiveURL = "https://ice-glaces.ec.gc.ca/www_archive"

// cisProduct is one regional chart series. aoi is the numeric part of the
// region code (a09 -> "09").
type cisProduct struct {
	aoi  string
	code string
}

var cisProducts = []cisProduct{
	{aoi: "09", code: "CEXPRHB"},
	{aoi: "10", code: "CEXPRWA"},
	{aoi: "11", code: "CEXPREA"},
	{aoi: "12", code: "CEXPREC"},
	{aoi: "13", code: "CEXPRGL"},
}

// cisZipCutover is the first date the archive publishes zipped shapefiles
// instead of E00 coverages.
var cisZipCutover = time.Date(2020, time.January, 14, 0, 0, 0, 0, time.UTC)

// cisPublishGrace is how many days after its date a chart may still be
// uploaded. Probes for newer dates always go to the live prober.
const cisPublishGrace = 7

// CIS locates Canadian Ice Service regional charts by probing the archive for
// every day and region in the requested window.
type CIS struct {
	baseURL  string
	live     Prober
	archived Prober
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewCIS creates a CIS locator. live answers probes for recent charts, which
// may still appear; archived answers probes for dates older than the publish
// grace window and may cache.
func NewCIS(baseURL string, live, archived Prober, clock clockwork.Clock, logger *slog.Logger) *CIS {
	return &CIS{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		live:     live,
		archived: archived,
		clock:    clock,
		logger:   logger,
	}
}

func (c *CIS) Source() domain.Source { return domain.SourceCIS }

// Locate probes each day from since through today. Failed probes are logged
// and skipped.
func (c *CIS) Locate(ctx context.Context, since time.Time) ([]domain.FileLink, error) {
	today := domain.Midnight(c.clock.Now())
	settled := today.AddDate(0, 0, -cisPublishGrace)

	var links []domain.FileLink
	for day := domain.Midnight(since); !day.After(today); day = day.AddDate(0, 0, 1) {
		prober := c.live
		if day.Before(settled) {
			prober = c.archived
		}
		for _, p := range cisProducts {
			href := c.href(p, day)
			found, err := prober.Exists(ctx, href)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				c.logger.Warn("cis probe failed, skipping", "href", href, "error", err)
				continue
			}
			if found {
				name := path.Base(href)
				links = append(links, domain.FileLink{
					Name: strings.TrimSuffix(name, path.Ext(name)),
					Href: href,
				})
			}
		}
	}

	c.logger.Debug("cis archive probed", "since", since.Format(domain.EpochLayout), "files", len(links))
	return links, nil
}

func (c *CIS) href(p cisProduct, day time.Time) string {
	ext := "e00"
	if !day.Before(cisZipCutover) {
		ext = "zip"
	}
	return fmt.Sprintf("%s/AOI_%s/Coverages/rgc_a%s_%s_%s.%s",
		c.baseURL, p.aoi, p.aoi, day.Format("20060102"), p.code, ext)
}
