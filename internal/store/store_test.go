package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func record(source domain.Source, region string, epoch time.Time, name string) domain.ChartRecord {
	return domain.ChartRecord{
		Name:     name,
		Href:     "https://example.test/" + name + ".zip",
		Source:   source,
		Region:   region,
		Epoch:    epoch,
		Format:   domain.FormatShapefile,
		Document: []byte(`{"id":"` + name + `"}`),
	}
}

func seed(t *testing.T, s *Store, recs ...domain.ChartRecord) {
	t.Helper()
	for _, r := range recs {
		s.Upsert(r)
	}
	_, err := s.Flush(context.Background())
	require.NoError(t, err)
}

func TestUpsert_LastWriteWins(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	seed(t, s, record(domain.SourceNIC, "arctic", day(2020, 1, 6), "arctic200106"))
	second := record(domain.SourceNIC, "arctic", day(2020, 1, 6), "nic_arctic_20200106_pl_a")
	second.ExactGeometry = true
	seed(t, s, second)

	got, err := s.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "nic_arctic_20200106_pl_a", got[0].Name)
	assert.Equal(t, second.Href, got[0].Href)
	assert.True(t, got[0].ExactGeometry)
	assert.Equal(t, second.Document, got[0].Document)
}

func TestUpsert_DedupesWithinBatch(t *testing.T) {
	s := openMemory(t)

	s.Upsert(record(domain.SourceCIS, "Hudson Bay", day(2020, 12, 14), "first"))
	s.Upsert(record(domain.SourceCIS, "Hudson Bay", day(2020, 12, 14), "second"))
	assert.Equal(t, 1, s.Pending())

	flushed, err := s.Flush(context.Background())
	require.NoError(t, err)
	require.Len(t, flushed, 1)
	assert.Equal(t, "second", flushed[0].Name)
	assert.Zero(t, s.Pending())
}

func TestMostRecentEpoch(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	_, ok, err := s.MostRecentEpoch(ctx, domain.SourceNIC)
	require.NoError(t, err)
	assert.False(t, ok, "empty store")

	seed(t, s,
		record(domain.SourceNIC, "arctic", day(2019, 5, 1), "a"),
		record(domain.SourceNIC, "antarctic", day(2021, 3, 2), "b"),
		record(domain.SourceCIS, "Great Lakes", day(2022, 1, 1), "c"),
	)

	// Staged but unflushed records are invisible.
	s.Upsert(record(domain.SourceNIC, "arctic", day(2023, 1, 1), "d"))

	got, ok, err := s.MostRecentEpoch(ctx, domain.SourceNIC)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, day(2021, 3, 2), got)

	_, err = s.Flush(ctx)
	require.NoError(t, err)
	got, _, err = s.MostRecentEpoch(ctx, domain.SourceNIC)
	require.NoError(t, err)
	assert.Equal(t, day(2023, 1, 1), got)
}

func TestQuery_Filters(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	exact := record(domain.SourceNIC, "arctic", day(2006, 8, 3), "arctic060803")
	exact.ExactGeometry = true
	seed(t, s,
		exact,
		record(domain.SourceNIC, "arctic", day(2006, 8, 10), "arctic060810"),
		record(domain.SourceNIC, "arctic", day(2007, 1, 4), "arctic070104"),
		record(domain.SourceNIC, "antarctic", day(2006, 8, 3), "antarc060803"),
		record(domain.SourceCIS, "Eastern Arctic", day(2006, 12, 31), "rgc_a11_20061231_CEXPREA"),
	)

	yes, no := true, false
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all ordered", Filter{}, []string{
			"rgc_a11_20061231_CEXPREA", "antarc060803", "arctic070104", "arctic060810", "arctic060803",
		}},
		{"source", Filter{Source: domain.SourceCIS}, []string{"rgc_a11_20061231_CEXPREA"}},
		{"region", Filter{Source: domain.SourceNIC, Region: "arctic"}, []string{"arctic070104", "arctic060810", "arctic060803"}},
		{"year inclusive", Filter{}.InYear(2006), []string{
			"rgc_a11_20061231_CEXPREA", "antarc060803", "arctic060810", "arctic060803",
		}},
		{"range", Filter{From: day(2006, 8, 4), To: day(2007, 1, 4)}, []string{
			"rgc_a11_20061231_CEXPREA", "arctic070104", "arctic060810",
		}},
		{"exact", Filter{ExactGeometry: &yes}, []string{"arctic060803"}},
		{"not exact", Filter{Region: "arctic", ExactGeometry: &no}, []string{"arctic070104", "arctic060810"}},
		{"no match", Filter{Region: "Baltic"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(ctx, tt.filter)
			require.NoError(t, err)
			var names []string
			for _, r := range got {
				names = append(names, r.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestQuery_RoundTripsFields(t *testing.T) {
	s := openMemory(t)
	rec := record(domain.SourceCIS, "Hudson Bay", day(2019, 12, 2), "rgc_a09_20191202_CEXPRHB")
	rec.Format = domain.FormatE00
	seed(t, s, rec)

	got, err := s.Query(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])
}

func TestSummary(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.Total)
	assert.Empty(t, sum.Sources)

	seed(t, s,
		record(domain.SourceNIC, "antarctic", day(2005, 2, 1), "a"),
		record(domain.SourceNIC, "antarctic", day(2017, 4, 13), "b"),
		record(domain.SourceNIC, "arctic", day(2010, 6, 1), "c"),
		record(domain.SourceCIS, "Eastern Arctic", day(2020, 7, 6), "d"),
	)

	sum, err = s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Total)
	require.Len(t, sum.Sources, 2)

	cis, nic := sum.Sources[0], sum.Sources[1]
	assert.Equal(t, domain.SourceCIS, cis.Source)
	assert.Equal(t, 1, cis.Count)
	assert.Equal(t, []string{"Eastern Arctic"}, cis.RegionNames())

	assert.Equal(t, domain.SourceNIC, nic.Source)
	assert.Equal(t, 3, nic.Count)
	assert.Equal(t, day(2005, 2, 1), nic.First)
	assert.Equal(t, day(2017, 4, 13), nic.Last)
	assert.Equal(t, []string{"antarctic", "arctic"}, nic.RegionNames())

	antarctic := nic.Regions[0]
	assert.Equal(t, 2, antarctic.Count)
	assert.Equal(t, 2005, antarctic.Years()[0])
	assert.Len(t, antarctic.Years(), 13)
	assert.Equal(t, []int{2010}, nic.Regions[1].Years())
}

func TestClose_FlushesPending(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "charts.sqlite")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	s.Upsert(record(domain.SourceNIC, "arctic", day(2024, 1, 1), "x"))
	require.NoError(t, s.Close(ctx))

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close(ctx)
	got, ok, err := s.MostRecentEpoch(ctx, domain.SourceNIC)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, day(2024, 1, 1), got)
}
