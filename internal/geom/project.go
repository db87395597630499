package geom

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// EarthRadius is the IUGG mean earth radius in meters.
const EarthRadius = 6371008.7714

const (
	DefaultResolution = 6
	DefaultOrder      = 12
)

var ErrInvalidScale = errors.New("geom: scale must be a positive finite number")

// Project maps p onto a sphere of the given radius, earth center at the
// origin and the north pole on +Z. Longitude is offset by 180 degrees and
// X/Y are negated to match the scene's axis convention.
func Project(p GeoPoint, radius float64) r3.Vec {
	phi := (90 - p.Lat) * (math.Pi / 180)
	theta := (p.Lon + 180) * (math.Pi / 180)
	r := radius + p.Alt
	return r3.Vec{
		X: -(r * math.Sin(phi) * math.Cos(theta)),
		Y: -(r * math.Sin(phi) * math.Sin(theta)),
		Z: r * math.Cos(phi),
	}
}

// BuildCurve projects points and rebases them onto the first one, so the
// first control point is always the local origin. It also returns that
// origin's projection before rebasing, which ComputeOrientation needs.
func BuildCurve(points []GeoPoint, scale float64, ct CurveType) (Curve, r3.Vec, error) {
	if len(points) == 0 {
		return Curve{}, r3.Vec{}, ErrNoCoordinates
	}
	if !(scale > 0) || math.IsInf(scale, 1) {
		return Curve{}, r3.Vec{}, ErrInvalidScale
	}

	origin := Project(points[0], EarthRadius)
	c := Curve{
		Type:       ct,
		Points:     make([]ControlPoint, len(points)),
		Resolution: DefaultResolution,
		Order:      clampOrder(DefaultOrder, len(points)),
	}
	for i, p := range points {
		c.Points[i].Co = r3.Scale(scale, r3.Sub(Project(p, EarthRadius), origin))
		if ct != Bezier {
			c.Points[i].W = 1
		}
	}
	if ct == Bezier {
		autoHandles(c.Points)
	}
	return c, origin, nil
}

func clampOrder(order, n int) int {
	if n < 2 {
		return 2
	}
	if order > n {
		return n
	}
	return order
}

// autoHandles places symmetric handles along the tangent through each
// point's neighbours, a third of the adjacent segment lengths long.
func autoHandles(pts []ControlPoint) {
	for i := range pts {
		p := pts[i].Co
		var dir r3.Vec
		var length float64
		switch {
		case i > 0 && i < len(pts)-1:
			prev, next := pts[i-1].Co, pts[i+1].Co
			dir = r3.Sub(next, prev)
			length = (r3.Norm(r3.Sub(p, prev)) + r3.Norm(r3.Sub(next, p))) / 6
		case i < len(pts)-1:
			dir = r3.Sub(pts[i+1].Co, p)
			length = r3.Norm(dir) / 3
		case i > 0:
			dir = r3.Sub(p, pts[i-1].Co)
			length = r3.Norm(dir) / 3
		}
		if n := r3.Norm(dir); n > 0 {
			dir = r3.Scale(length/n, dir)
		} else {
			dir = r3.Vec{}
		}
		pts[i].HandleLeft = r3.Sub(p, dir)
		pts[i].HandleRight = r3.Add(p, dir)
	}
}
