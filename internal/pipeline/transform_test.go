package pipeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
	"github.com/couchcryptid/seaice-catalog/internal/pipeline"
	"github.com/couchcryptid/seaice-catalog/internal/stac"
)

func TestChartTransformer_ArchiveListings(t *testing.T) {
	cases := []struct {
		link   domain.FileLink
		source domain.Source
		region string
		epoch  time.Time
		format domain.Format
	}{
		{
			link:   domain.FileLink{Name: "arctic060803", Href: "https://example.test/arctic060803.e00"},
			source: domain.SourceNIC, region: "arctic", epoch: day(2006, 8, 3), format: domain.FormatE00,
		},
		{
			link:   domain.FileLink{Name: "nic_antarc_20050301_pl_a", Href: "https://example.test/nic_antarc_20050301_pl_a.zip"},
			source: domain.SourceNIC, region: "antarctic", epoch: day(2005, 3, 1), format: domain.FormatShapefile,
		},
		{
			link:   domain.FileLink{Href: "https://example.test/AOI_09/Coverages/rgc_a09_20201214_CEXPRHB.zip"},
			source: domain.SourceCIS, region: "Hudson Bay", epoch: day(2020, 12, 14), format: domain.FormatShapefile,
		},
		{
			link:   domain.FileLink{Name: "cisarctic20180712", Href: "https://example.test/cisarctic20180712.zip"},
			source: domain.SourceCIS, region: "arctic", epoch: day(2018, 7, 12), format: domain.FormatShapefile,
		},
	}

	var tr pipeline.ChartTransformer
	for _, tc := range cases {
		t.Run(tc.link.Href, func(t *testing.T) {
			rec, err := tr.Transform(tc.link)
			require.NoError(t, err)

			assert.Equal(t, tc.source, rec.Source)
			assert.Equal(t, tc.region, rec.Region)
			assert.Equal(t, tc.epoch, rec.Epoch)
			assert.Equal(t, tc.format, rec.Format)
			assert.False(t, rec.ExactGeometry)

			item, err := stac.Decode(rec.Document)
			require.NoError(t, err)
			assert.Equal(t, rec.Name, item.ID)
			assert.Equal(t, tc.link.Href, item.Assets[stac.DataAsset].Href)
		})
	}
}

func TestChartTransformer_NameFromHref(t *testing.T) {
	rec, err := pipeline.ChartTransformer{}.Transform(domain.FileLink{Href: "https://example.test/rgc_a13_20210104_CEXPRGL.zip"})
	require.NoError(t, err)
	assert.Equal(t, "rgc_a13_20210104_CEXPRGL", rec.Name)
}

func TestChartTransformer_Unparseable(t *testing.T) {
	_, err := pipeline.ChartTransformer{}.Transform(domain.FileLink{Name: "rgc_a99_20200101_X", Href: "https://example.test/rgc_a99_20200101_X.zip"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnparseable)
	assert.Equal(t, "unknown_region_code", domain.ErrorKind(err))
}
