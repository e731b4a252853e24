package geometry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
	"github.com/couchcryptid/seaice-catalog/internal/stac"
)

type fileFetcher struct {
	path  string
	err   error
	calls int
}

func (f *fileFetcher) Fetch(_ context.Context, _ string, dst string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	b, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o600)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func hudsonBay(t *testing.T) domain.ChartRecord {
	t.Helper()
	rec := domain.ChartRecord{
		Name:   "rgc_a09_20201214_CEXPRHB",
		Href:   "https://example.test/AOI_09/Coverages/rgc_a09_20201214_CEXPRHB.zip",
		Source: domain.SourceCIS,
		Region: "Hudson Bay",
		Epoch:  time.Date(2020, 12, 14, 0, 0, 0, 0, time.UTC),
		Format: domain.FormatShapefile,
	}
	require.NoError(t, stac.Attach(&rec))
	return rec
}

func TestNormalizer_Refine(t *testing.T) {
	proj := mustProjection(t, lambertWKT)
	box := orb.Bound{Min: orb.Point{-90, 55}, Max: orb.Point{-80, 60}}
	ring := grid(proj, box, 5)
	fetcher := &fileFetcher{path: writeShapefileZip(t, ring, "")}
	n := NewNormalizer(fetcher, t.TempDir(), discardLogger())

	rec := hudsonBay(t)
	out, err := n.Refine(context.Background(), &rec)
	require.NoError(t, err)

	assert.Equal(t, OutcomeRefined, out)
	assert.True(t, rec.ExactGeometry)
	item, err := stac.Decode(rec.Document)
	require.NoError(t, err)
	b := item.Bound()
	assert.InDelta(t, -90, b.Min[0], 1e-6)
	assert.InDelta(t, 55, b.Min[1], 1e-6)
	assert.InDelta(t, -80, b.Max[0], 1e-6)
	assert.InDelta(t, 60, b.Max[1], 1e-6)
	assert.Len(t, item.Properties.ProjBBox, 4)
	assert.Contains(t, item.Properties.ProjWKT2, "Lambert_Conformal_Conic_2SP")
	assert.Equal(t, 1, fetcher.calls)
}

func TestNormalizer_SkipsIneligible(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.ChartRecord)
	}{
		{"e00", func(r *domain.ChartRecord) { r.Format = domain.FormatE00 }},
		{"prototype polygon", func(r *domain.ChartRecord) { r.Name = "arctic_pl_a_20030105" }},
		{"prototype line", func(r *domain.ChartRecord) { r.Name = "arctic_ll_a_20030105" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fileFetcher{}
			n := NewNormalizer(fetcher, t.TempDir(), discardLogger())
			rec := hudsonBay(t)
			tt.mutate(&rec)
			before := rec

			out, err := n.Refine(context.Background(), &rec)
			require.NoError(t, err)
			assert.Equal(t, OutcomeSkipped, out)
			assert.Equal(t, before, rec)
			assert.Zero(t, fetcher.calls)
		})
	}
}

func TestNormalizer_FailureLeavesRecord(t *testing.T) {
	corrupt := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(corrupt, []byte("truncated"), 0o600))

	noDBF := shapefileMembers(t, []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 0}})
	delete(noDBF, "chart.dbf")

	tests := []struct {
		name    string
		fetcher *fileFetcher
		check   func(t *testing.T, err error)
	}{
		{"corrupt package", &fileFetcher{path: corrupt}, func(t *testing.T, err error) {
			var target *CorruptArchiveError
			assert.ErrorAs(t, err, &target)
		}},
		{"layer without attributes", &fileFetcher{path: writeZip(t, noDBF)}, func(t *testing.T, err error) {
			var target *CorruptArchiveError
			assert.ErrorAs(t, err, &target)
		}},
		{"no layer", &fileFetcher{path: writeZip(t, map[string][]byte{"a.txt": nil})}, func(t *testing.T, err error) {
			var target *NoLayerFoundError
			assert.ErrorAs(t, err, &target)
		}},
		{"download", &fileFetcher{err: errors.New("status 404")}, func(t *testing.T, err error) {
			assert.ErrorContains(t, err, "status 404")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(tt.fetcher, t.TempDir(), discardLogger())
			rec := hudsonBay(t)
			before := rec

			out, err := n.Refine(context.Background(), &rec)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRefinement)
			tt.check(t, err)
			assert.Equal(t, OutcomeSkipped, out)
			assert.Equal(t, before, rec)
		})
	}
}
