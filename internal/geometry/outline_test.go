package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	northPolarWKT = `PROJCS["WGS_1984_Stereographic_North_Pole",GEOGCS["WGS 84",DATUM["WGS_1984",` +
		`SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.0174532925199433]],` +
		`PROJECTION["Polar_Stereographic"],PARAMETER["latitude_of_origin",60],PARAMETER["central_meridian",180],` +
		`PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1]]`

	southPolarWKT = `PROJCS["WGS_1984_Stereographic_South_Pole",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",` +
		`SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.017453292519943295]],` +
		`PROJECTION["Stereographic_South_Pole"],PARAMETER["False_Easting",0.0],PARAMETER["False_Northing",0.0],` +
		`PARAMETER["Central_Meridian",180.0],PARAMETER["standard_parallel_1",-60.0],UNIT["Meter",1.0]]`

	lambertWKT = `PROJCS["WGS_1984_Lambert_Conformal_Conic",GEOGCS["WGS 84",DATUM["WGS_1984",` +
		`SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.0174532925199433]],` +
		`PROJECTION["Lambert_Conformal_Conic_2SP"],PARAMETER["latitude_of_origin",40],` +
		`PARAMETER["central_meridian",-100],PARAMETER["standard_parallel_1",49],PARAMETER["standard_parallel_2",77],` +
		`PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1]]`
)

func mustProjection(t *testing.T, wkt string) Projection {
	t.Helper()
	p, err := ParseWKT(wkt)
	require.NoError(t, err)
	return p
}

// parallel projects points every step degrees of longitude along lat, offset
// half a step from the antimeridian.
func parallel(proj Projection, lat, step float64) []orb.Point {
	var out []orb.Point
	for lon := -180 + step/2; lon < 180; lon += step {
		out = append(out, proj.Forward(orb.Point{lon, lat}))
	}
	return out
}

// grid projects a lon/lat box sampled every step degrees.
func grid(proj Projection, b orb.Bound, step float64) []orb.Point {
	var out []orb.Point
	for lon := b.Min[0]; lon <= b.Max[0]; lon += step {
		for lat := b.Min[1]; lat <= b.Max[1]; lat += step {
			out = append(out, proj.Forward(orb.Point{lon, lat}))
		}
	}
	return out
}

func TestOutline_NorthPoleEnclosed(t *testing.T) {
	proj := mustProjection(t, northPolarWKT)

	res, err := Outline(parallel(proj, 65, 15), proj)
	require.NoError(t, err)

	assert.True(t, res.EnclosesPole)
	b := res.Bound()
	assert.InDelta(t, -179.9999, b.Min[0], 1e-9)
	assert.InDelta(t, 179.9999, b.Max[0], 1e-9)
	assert.InDelta(t, 90, b.Max[1], 1e-9)
	assert.InDelta(t, 65, b.Min[1], 1e-6)
	assert.True(t, res.Native.Bound().Contains(proj.Forward(orb.Point{0, 90})))
}

func TestOutline_SouthPoleEnclosed(t *testing.T) {
	proj := mustProjection(t, southPolarWKT)

	res, err := Outline(parallel(proj, -55, 10), proj)
	require.NoError(t, err)

	assert.True(t, res.EnclosesPole)
	b := res.Bound()
	assert.InDelta(t, -179.9999, b.Min[0], 1e-9)
	assert.InDelta(t, 179.9999, b.Max[0], 1e-9)
	assert.InDelta(t, -90, b.Min[1], 1e-9)
	assert.InDelta(t, -55, b.Max[1], 1e-6)
}

func TestOutline_NoPoleMatchesVertexReprojection(t *testing.T) {
	proj := mustProjection(t, lambertWKT)
	box := orb.Bound{Min: orb.Point{-95, 55}, Max: orb.Point{-80, 65}}

	res, err := Outline(grid(proj, box, 2.5), proj)
	require.NoError(t, err)
	assert.False(t, res.EnclosesPole)

	direct := orb.Ring{}
	for _, p := range res.Native[0] {
		direct = append(direct, proj.Inverse(p))
	}
	assert.Equal(t, direct.Bound(), res.Bound())

	b := res.Bound()
	assert.InDelta(t, -95, b.Min[0], 1e-6)
	assert.InDelta(t, 55, b.Min[1], 1e-6)
	assert.InDelta(t, -80, b.Max[0], 1e-6)
	assert.InDelta(t, 65, b.Max[1], 1e-6)
}

func TestOutline_PolarChartAwayFromPole(t *testing.T) {
	proj := mustProjection(t, northPolarWKT)
	box := orb.Bound{Min: orb.Point{-170, 50}, Max: orb.Point{-140, 70}}

	res, err := Outline(grid(proj, box, 5), proj)
	require.NoError(t, err)

	assert.False(t, res.EnclosesPole)
	b := res.Bound()
	assert.InDelta(t, -170, b.Min[0], 1e-6)
	assert.InDelta(t, -140, b.Max[0], 1e-6)
}

func TestOutline_Geographic(t *testing.T) {
	pts := []orb.Point{{-10, 80}, {10, 80}, {10, 89}, {-10, 89}, {0, 85}}

	res, err := Outline(pts, Geographic{})
	require.NoError(t, err)

	assert.False(t, res.EnclosesPole)
	assert.Equal(t, orb.Bound{Min: orb.Point{-10, 80}, Max: orb.Point{10, 89}}, res.Bound())
	assert.Equal(t, res.NativeBound(), res.Bound())
}

func TestOutline_Empty(t *testing.T) {
	_, err := Outline(nil, Geographic{})
	assert.ErrorIs(t, err, ErrEmptyLayer)
	assert.ErrorIs(t, err, ErrRefinement)
}

func TestConvexHull(t *testing.T) {
	pts := []orb.Point{{0, 0}, {2, 0}, {1, 1}, {2, 2}, {0, 2}, {2, 0}, {1, 0}}

	hull := convexHull(pts)

	assert.True(t, hull.Closed())
	assert.Len(t, hull, 5)
	assert.NotContains(t, hull, orb.Point{1, 1})
	assert.NotContains(t, hull, orb.Point{1, 0})
	assert.Equal(t, orb.CCW, hull.Orientation())
}

func TestConvexHull_Degenerate(t *testing.T) {
	hull := convexHull([]orb.Point{{3, 4}, {3, 4}})
	assert.Equal(t, orb.Ring{{3, 4}, {3, 4}}, hull)
}
