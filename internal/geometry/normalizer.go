package geometry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
	"github.com/couchcryptid/seaice-catalog/internal/stac"
)

// Outcome reports what Refine did to a record.
type Outcome int

const (
	// OutcomeSkipped means the record is not eligible and was left unchanged.
	OutcomeSkipped Outcome = iota
	OutcomeRefined
)

func (o Outcome) String() string {
	if o == OutcomeRefined {
		return "refined"
	}
	return "skipped"
}

// Fetcher downloads the file at href into dst.
type Fetcher interface {
	Fetch(ctx context.Context, href, dst string) error
}

// Normalizer replaces placeholder footprints with exact ones computed from the
// charts' data packages.
type Normalizer struct {
	fetcher Fetcher
	tempDir string
	logger  *slog.Logger
}

// NewNormalizer creates a Normalizer. Packages are downloaded under tempDir, or
// the system temp directory when empty.
func NewNormalizer(fetcher Fetcher, tempDir string, logger *slog.Logger) *Normalizer {
	return &Normalizer{fetcher: fetcher, tempDir: tempDir, logger: logger}
}

// Eligible reports whether exact geometry can be computed for rec.
func Eligible(rec domain.ChartRecord) bool {
	return rec.Format == domain.FormatShapefile && !rec.IsPrototype()
}

// Refine downloads rec's package and, on success, rewrites its document with the
// exact footprint and sets ExactGeometry. On any failure rec is unchanged.
func (n *Normalizer) Refine(ctx context.Context, rec *domain.ChartRecord) (Outcome, error) {
	if !Eligible(*rec) {
		return OutcomeSkipped, nil
	}

	dir, err := os.MkdirTemp(n.tempDir, "icechart-")
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("create download dir: %w", err)
	}
	defer os.RemoveAll(dir)

	archive := filepath.Join(dir, "package.zip")
	if err := n.fetcher.Fetch(ctx, rec.Href, archive); err != nil {
		return OutcomeSkipped, fmt.Errorf("%w: download %s: %w", ErrRefinement, rec.Href, err)
	}

	item := n.item(*rec)

	layer, err := ReadLayer(archive)
	if err != nil {
		return OutcomeSkipped, err
	}
	wkt := layer.WKT
	if wkt == "" {
		wkt = item.Properties.ProjWKT2
	}
	proj, err := ParseWKT(wkt)
	if err != nil {
		return OutcomeSkipped, err
	}
	res, err := Outline(layer.Points, proj)
	if err != nil {
		return OutcomeSkipped, err
	}

	stac.ApplyGeometry(&item, wkt, res.Native, res.Geographic)
	doc, err := stac.Encode(item)
	if err != nil {
		return OutcomeSkipped, err
	}

	rec.Document = doc
	rec.ExactGeometry = true
	n.logger.Debug("geometry refined",
		"name", rec.Name,
		"layer", layer.Name,
		"points", len(layer.Points),
		"encloses_pole", res.EnclosesPole,
	)
	return OutcomeRefined, nil
}

// item returns the stored item for rec, or a fresh one when rec carries no
// usable document.
func (n *Normalizer) item(rec domain.ChartRecord) stac.Item {
	if len(rec.Document) == 0 {
		return stac.NewItem(rec)
	}
	item, err := stac.Decode(rec.Document)
	if err != nil {
		n.logger.Warn("stored item unreadable, rebuilding", "name", rec.Name, "error", err)
		return stac.NewItem(rec)
	}
	return item
}
