// Package geometry computes exact chart footprints from downloaded vector
// packages: a convex hull in the dataset's native projection and the same
// outline in longitude/latitude, with special handling for hulls that enclose
// a pole.
package geometry

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// poleLongitudes are the synthetic vertices added at an enclosed pole so the
// geographic hull spans the full longitude range.
var poleLongitudes = []float64{-179.9999, 0, 179.9999}

// Result is an exact footprint.
type Result struct {
	Native     orb.Polygon
	Geographic orb.Polygon
	// EnclosesPole is set when the native hull contained a projected pole.
	EnclosesPole bool
}

// NativeBound is the bbox in native coordinates.
func (r Result) NativeBound() orb.Bound { return r.Native.Bound() }

// Bound is the bbox in longitude/latitude.
func (r Result) Bound() orb.Bound { return r.Geographic.Bound() }

// Outline computes the footprint of a set of native coordinates.
func Outline(points []orb.Point, proj Projection) (Result, error) {
	if len(points) == 0 {
		return Result{}, ErrEmptyLayer
	}
	native := orb.Polygon{convexHull(points)}

	poles := enclosedPoles(native, proj)
	if len(poles) == 0 {
		ring := make(orb.Ring, len(native[0]))
		for i, p := range native[0] {
			ring[i] = proj.Inverse(p)
		}
		return Result{Native: native, Geographic: orb.Polygon{ring}}, nil
	}

	geo := make([]orb.Point, 0, len(native[0])+3*len(poles))
	for _, p := range native[0] {
		geo = append(geo, proj.Inverse(p))
	}
	for _, lat := range poles {
		for _, lon := range poleLongitudes {
			geo = append(geo, orb.Point{lon, lat})
		}
	}
	return Result{
		Native:       native,
		Geographic:   orb.Polygon{convexHull(geo)},
		EnclosesPole: true,
	}, nil
}

// enclosedPoles returns the latitudes (90, -90) of the poles whose projected
// position falls inside the native hull.
func enclosedPoles(native orb.Polygon, proj Projection) []float64 {
	if _, ok := proj.(Geographic); ok {
		return nil
	}
	var out []float64
	for _, lat := range []float64{90, -90} {
		if planar.PolygonContains(native, proj.Forward(orb.Point{0, lat})) {
			out = append(out, lat)
		}
	}
	return out
}

// convexHull returns the closed counter-clockwise hull ring of points using
// Andrew's monotone chain. Degenerate inputs yield a degenerate closed ring.
func convexHull(points []orb.Point) orb.Ring {
	pts := make([]orb.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})
	pts = dedupe(pts)
	if len(pts) < 3 {
		ring := orb.Ring(pts)
		return append(ring, pts[0])
	}

	hull := make(orb.Ring, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func dedupe(sorted []orb.Point) []orb.Point {
	out := sorted[:0]
	for _, p := range sorted {
		if len(out) > 0 && p == out[len(out)-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}
