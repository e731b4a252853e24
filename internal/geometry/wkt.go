package geometry

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	wktProjection = regexp.MustCompile(`PROJECTION\s*\[\s*"([^"]+)"`)
	wktParameter  = regexp.MustCompile(`PARAMETER\s*\[\s*"([^"]+)"\s*,\s*([-+0-9.eE]+)\s*\]`)
	wktSpheroid   = regexp.MustCompile(`SPHEROID\s*\[\s*"[^"]*"\s*,\s*([-+0-9.eE]+)\s*,\s*([-+0-9.eE]+)`)
)

// ParseWKT builds a Projection from an ESRI or OGC WKT1 coordinate system
// definition, as found in shapefile .prj sidecars. Geographic systems and an
// empty definition yield the identity projection.
func ParseWKT(wkt string) (Projection, error) {
	wkt = strings.TrimSpace(wkt)
	if wkt == "" || !strings.HasPrefix(strings.ToUpper(wkt), "PROJCS") {
		return Geographic{}, nil
	}

	el := wgs84
	if m := wktSpheroid.FindStringSubmatch(wkt); m != nil {
		a, errA := strconv.ParseFloat(m[1], 64)
		inv, errF := strconv.ParseFloat(m[2], 64)
		if errA == nil && errF == nil && a > 0 {
			el = newEllipsoid(a, inv)
		}
	}

	m := wktProjection.FindStringSubmatch(wkt)
	if m == nil {
		return nil, &UnsupportedProjectionError{Name: "missing PROJECTION"}
	}
	name := strings.ToLower(m[1])
	params := wktParams(wkt)

	switch {
	case strings.Contains(name, "stereographic") &&
		(strings.Contains(name, "polar") || strings.Contains(name, "pole")):
		latTS, ok := params.first("standard_parallel_1", "latitude_of_origin")
		if !ok {
			latTS = 90
		}
		if strings.Contains(name, "south") && latTS > 0 {
			latTS = -latTS
		}
		return NewPolarStereographic(el, latTS,
			params.get("central_meridian", "longitude_of_origin", "straight_vertical_longitude_from_pole"),
			params.get("scale_factor"),
			params.get("false_easting"),
			params.get("false_northing"),
		), nil
	case strings.Contains(name, "lambert_conformal_conic"):
		lat1, _ := params.first("standard_parallel_1")
		lat2, ok := params.first("standard_parallel_2")
		if !ok {
			lat2 = lat1
		}
		return NewLambertConformalConic(el,
			params.get("latitude_of_origin"),
			params.get("central_meridian", "longitude_of_origin"),
			lat1, lat2,
			params.get("false_easting"),
			params.get("false_northing"),
		), nil
	default:
		return nil, &UnsupportedProjectionError{Name: m[1]}
	}
}

type wktParamSet map[string]float64

func wktParams(wkt string) wktParamSet {
	out := wktParamSet{}
	for _, m := range wktParameter.FindAllStringSubmatch(wkt, -1) {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		out[strings.ToLower(m[1])] = v
	}
	return out
}

func (p wktParamSet) first(names ...string) (float64, bool) {
	for _, n := range names {
		if v, ok := p[n]; ok {
			return v, true
		}
	}
	return 0, false
}

func (p wktParamSet) get(names ...string) float64 {
	v, _ := p.first(names...)
	return v
}
