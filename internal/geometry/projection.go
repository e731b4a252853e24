package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// Projection converts between geographic coordinates (longitude, latitude in
// degrees) and a dataset's native planar coordinates.
type Projection interface {
	Forward(p orb.Point) orb.Point
	Inverse(p orb.Point) orb.Point
}

// Geographic is the identity projection for datasets stored in lon/lat.
type Geographic struct{}

func (Geographic) Forward(p orb.Point) orb.Point { return p }
func (Geographic) Inverse(p orb.Point) orb.Point { return p }

// ellipsoid holds the semi-major axis and first eccentricity.
type ellipsoid struct {
	a, e float64
}

func newEllipsoid(a, invFlattening float64) ellipsoid {
	if invFlattening == 0 {
		return ellipsoid{a: a}
	}
	f := 1 / invFlattening
	return ellipsoid{a: a, e: math.Sqrt(2*f - f*f)}
}

var wgs84 = newEllipsoid(6378137, 298.257223563)

// m and t are the auxiliary functions used by the conformal projections.
func (el ellipsoid) m(phi float64) float64 {
	s := el.e * math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-s*s)
}

func (el ellipsoid) t(phi float64) float64 {
	s := el.e * math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-s)/(1+s), el.e/2)
}

// phi inverts t by fixed-point iteration.
func (el ellipsoid) phi(t float64) float64 {
	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 15; i++ {
		s := el.e * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-s)/(1+s), el.e/2))
		if math.Abs(next-phi) < 1e-12 {
			return next
		}
		phi = next
	}
	return phi
}

// PolarStereographic is the ellipsoidal polar stereographic projection with a
// latitude of true scale.
type PolarStereographic struct {
	el     ellipsoid
	south  bool
	lon0   float64 // radians
	k      float64 // rho = k * t
	falseE float64
	falseN float64
}

// NewPolarStereographic builds a polar stereographic projection. latTS is the
// latitude of true scale in degrees; its sign selects the hemisphere. When
// latTS is a pole, scale applies at the pole instead.
func NewPolarStereographic(el ellipsoid, latTS, lon0, scale, falseE, falseN float64) *PolarStereographic {
	p := &PolarStereographic{el: el, south: latTS < 0, falseE: falseE, falseN: falseN}
	phiC := radians(math.Abs(latTS))
	p.lon0 = radians(lon0)
	if p.south {
		p.lon0 = -p.lon0
	}
	if scale == 0 {
		scale = 1
	}
	if math.Abs(phiC-math.Pi/2) < 1e-10 {
		e := el.e
		p.k = 2 * el.a * scale / math.Sqrt(math.Pow(1+e, 1+e)*math.Pow(1-e, 1-e))
	} else {
		p.k = el.a * el.m(phiC) / el.t(phiC)
	}
	return p
}

func (p *PolarStereographic) Forward(pt orb.Point) orb.Point {
	lam, phi := radians(pt[0]), radians(pt[1])
	if p.south {
		lam, phi = -lam, -phi
	}
	rho := p.k * p.el.t(phi)
	d := wrapRadians(lam - p.lon0)
	x, y := rho*math.Sin(d), -rho*math.Cos(d)
	if p.south {
		x, y = -x, -y
	}
	return orb.Point{x + p.falseE, y + p.falseN}
}

func (p *PolarStereographic) Inverse(pt orb.Point) orb.Point {
	x, y := pt[0]-p.falseE, pt[1]-p.falseN
	if p.south {
		x, y = -x, -y
	}
	rho := math.Hypot(x, y)
	phi := p.el.phi(rho / p.k)
	lam := p.lon0 + math.Atan2(x, -y)
	if p.south {
		lam, phi = -lam, -phi
	}
	return orb.Point{degrees(wrapRadians(lam)), degrees(phi)}
}

// LambertConformalConic is the two standard parallel ellipsoidal Lambert
// conformal conic projection.
type LambertConformalConic struct {
	el     ellipsoid
	n      float64
	aF     float64
	rho0   float64
	lon0   float64
	falseE float64
	falseN float64
}

// NewLambertConformalConic builds an LCC projection. Angles are in degrees.
func NewLambertConformalConic(el ellipsoid, lat0, lon0, lat1, lat2, falseE, falseN float64) *LambertConformalConic {
	phi0, phi1, phi2 := radians(lat0), radians(lat1), radians(lat2)
	m1, m2 := el.m(phi1), el.m(phi2)
	t0, t1, t2 := el.t(phi0), el.t(phi1), el.t(phi2)

	n := math.Sin(phi1)
	if math.Abs(phi1-phi2) > 1e-10 {
		n = (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	}
	aF := el.a * m1 / (n * math.Pow(t1, n))
	return &LambertConformalConic{
		el:     el,
		n:      n,
		aF:     aF,
		rho0:   aF * math.Pow(t0, n),
		lon0:   radians(lon0),
		falseE: falseE,
		falseN: falseN,
	}
}

func (p *LambertConformalConic) Forward(pt orb.Point) orb.Point {
	lam, phi := radians(pt[0]), radians(pt[1])
	rho := p.aF * math.Pow(p.el.t(phi), p.n)
	theta := p.n * wrapRadians(lam-p.lon0)
	return orb.Point{
		rho*math.Sin(theta) + p.falseE,
		p.rho0 - rho*math.Cos(theta) + p.falseN,
	}
}

func (p *LambertConformalConic) Inverse(pt orb.Point) orb.Point {
	x, y := pt[0]-p.falseE, p.rho0-(pt[1]-p.falseN)
	if p.n < 0 {
		x, y = -x, -y
	}
	rho := math.Copysign(math.Hypot(x, y), p.n)
	theta := math.Atan2(x, y)
	phi := math.Pi / 2
	if rho != 0 {
		phi = p.el.phi(math.Pow(rho/p.aF, 1/p.n))
	} else if p.n < 0 {
		phi = -math.Pi / 2
	}
	lam := theta/p.n + p.lon0
	return orb.Point{degrees(wrapRadians(lam)), degrees(phi)}
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }

// wrapRadians folds an angle into [-pi, pi].
func wrapRadians(r float64) float64 {
	if r >= -math.Pi && r <= math.Pi {
		return r
	}
	r = math.Mod(r+math.Pi, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return r - math.Pi
}
