package stac

import (
	"github.com/paulmach/orb"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
)

// template is the placeholder footprint used for a chart until its exact
// geometry has been computed from the data file.
type template struct {
	bound orb.Bound
	// outline, when set, is a better-than-bbox footprint.
	outline orb.Polygon
	wkt     string
}

const (
	wktNICArctic = `PROJCS["WGS_1984_Stereographic_North_Pole",GEOGCS["WGS 84",DATUM["WGS_1984",` +
		`SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],` +
		`PRIMEM["Greenwich",0],UNIT["Degree",0.0174532925199433],AUTHORITY["EPSG","4326"]],` +
		`PROJECTION["Polar_Stereographic"],PARAMETER["latitude_of_origin",60],PARAMETER["central_meridian",180],` +
		`PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]]]`

	wktNICAntarctic = `PROJCS["WGS_1984_Stereographic_South_Pole",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",` +
		`SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.017453292519943295]],` +
		`PROJECTION["Stereographic_South_Pole"],PARAMETER["False_Easting",0.0],PARAMETER["False_Northing",0.0],` +
		`PARAMETER["Central_Meridian",180.0],PARAMETER["standard_parallel_1",-60.0],UNIT["Meter",1.0]]`

	wktCISLambert = `PROJCS["WGS_1984_Lambert_Conformal_Conic",GEOGCS["WGS 84",DATUM["WGS_1984",` +
		`SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],` +
		`PRIMEM["Greenwich",0],UNIT["Degree",0.0174532925199433],AUTHORITY["EPSG","4326"]],` +
		`PROJECTION["Lambert_Conformal_Conic_2SP"],PARAMETER["latitude_of_origin",40],` +
		`PARAMETER["central_meridian",-100],PARAMETER["standard_parallel_1",49],PARAMETER["standard_parallel_2",77],` +
		`PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]]]`
)

func bound(west, south, east, north float64) orb.Bound {
	return orb.Bound{Min: orb.Point{west, south}, Max: orb.Point{east, north}}
}

var nicTemplates = map[string]template{
	domain.RegionArctic: {
		bound: bound(-180, 27.7226, 180, 90),
		wkt:   wktNICArctic,
	},
	domain.RegionAntarctic: {
		bound: bound(-180, -90, 180, -39.2),
		wkt:   wktNICAntarctic,
	},
}

var cisTemplates = map[string]template{
	"Hudson Bay":        {bound: bound(-99.23757113710072, 49.21506337964712, -54.50984088206913, 68.24374994695228), wkt: wktCISLambert},
	"Eastern Arctic":    {bound: bound(-112.67872965304991, 62.64083386314862, -21.96924552899297, 82.38096680323945), wkt: wktCISLambert},
	"Western Arctic":    {bound: bound(-164.0500150152319, 61.15006417855897, -87.09086361115006, 80.6564251367662), wkt: wktCISLambert},
	"Eastern Coast":     {bound: bound(-74.91351570806856, 41.508843347704776, -38.827617249581365, 56.81556660731795), wkt: wktCISLambert},
	"Great Lakes":       {bound: bound(-95.58448470223105, 39.52776791241336, -72.1974532327571, 50.312768022080256), wkt: wktCISLambert},
	domain.RegionArctic: {bound: bound(-164.0500150152319, 39.52776791241336, -21.96924552899297, 82.38096680323945), wkt: wktCISLambert},
}

// templateFor returns the placeholder footprint for a source and region. Unknown
// combinations fall back to the whole globe so an item is always valid.
func templateFor(source domain.Source, region string) template {
	var t template
	var ok bool
	switch source {
	case domain.SourceNIC:
		t, ok = nicTemplates[region]
	case domain.SourceCIS:
		t, ok = cisTemplates[region]
	}
	if !ok {
		t = template{bound: bound(-180, -90, 180, 90)}
	}
	if t.outline == nil {
		t.outline = t.bound.ToPolygon()
	}
	return t
}
