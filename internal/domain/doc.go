// Package domain models published sea-ice charts and recovers their metadata
// from archive file names.
//
// # Data Sources
//
// Two ice services publish weekly charts as downloadable GIS files:
//
//   - NIC, the U.S. National Ice Center (https://usicecenter.gov). Hemispheric
//     charts for the Arctic and the Antarctic, distributed as zipped shapefiles
//     (older years also as E00 coverages).
//   - CIS, the Canadian Ice Service (https://ice-glaces.ec.gc.ca). Regional
//     charts for five areas of interest (AOIs), distributed as E00 coverages
//     until 2020-01-14 and as zipped shapefiles afterwards.
//
// Neither service publishes a manifest, so source, region, observation date and
// format are recovered from the file name alone.
//
// # File Naming Conventions
//
// NIC:
//
//	arctic180830.zip                  region=arctic     epoch=2018-08-30 (YYMMDD)
//	antarc140108.zip                  region=antarctic  epoch=2014-01-08
//	nic_arctic_20040301_pl_a.zip      prototype, five segments, third is YYYYMMDD
//	nic_antarc_20050207_pl_a.zip      prototype, antarctic
//	antarc070810_polygon.zip          underscored but not five segments, fuzzy date
//
// CIS:
//
//	rgc_a09_20161121_CEXPRHB.e00      AOI a09 (Hudson Bay), epoch=2016-11-21
//	rgc_a09_20201214_CEXPRHB.zip      same AOI after the shapefile switch
//	cisarctic20180712.zip             combined chart, trailing YYYYMMDD
//
// Download links sometimes carry the file name in a query string, e.g.
//
//	https://usicecenter.gov/File/DownloadProduct?products=...&fName=arctic060803.zip
//
// in which case the name is whatever follows the last '='.
//
// AOI codes:
//
//	a09 Hudson Bay | a10 Western Arctic | a11 Eastern Arctic | a12 Eastern Coast | a13 Great Lakes
//
// # Fuzzy Dates
//
// Some historical NIC names interleave digits with words. Those fall back to a
// year-first scan of the digit groups in the name (see [fuzzyDate]). A two-digit
// year resolves to the latest matching year that is not after the current clock
// year, so "06" reads as 2006 and "68" as 1968.
//
// # Identity
//
// A chart is identified by (source, region, epoch). Names and links for the
// same observation drift between archive crawls; the store keeps the most
// recent one written.
package domain
