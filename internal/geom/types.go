package geom

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// GeoPoint is a KML coordinate tuple. Alt is 0 when the source omits it.
type GeoPoint struct {
	Lon float64
	Lat float64
	Alt float64
}

// SelectMode chooses which coordinate elements the extractor reads.
type SelectMode int

const (
	// PathMode reads the first path/polygon coordinate block.
	PathMode SelectMode = iota
	// PointMode reads every coordinates element directly under a Point.
	PointMode
)

func (m SelectMode) String() string {
	if m == PointMode {
		return "points"
	}
	return "path"
}

type CurveType int

const (
	Poly CurveType = iota
	Bezier
	NURBS
)

var curveTypeNames = [...]string{"poly", "bezier", "nurbs"}

func (c CurveType) String() string {
	if c < 0 || int(c) >= len(curveTypeNames) {
		return fmt.Sprintf("CurveType(%d)", int(c))
	}
	return curveTypeNames[c]
}

// ParseCurveType accepts poly, bezier or nurbs (case-insensitive).
func ParseCurveType(s string) (CurveType, error) {
	ls := strings.ToLower(strings.TrimSpace(s))
	for i, n := range curveTypeNames {
		if ls == n {
			return CurveType(i), nil
		}
	}
	return Poly, fmt.Errorf("unknown curve type %q (want poly, bezier or nurbs)", s)
}

// ControlPoint is one spline point. W is the homogeneous weight used by
// poly and NURBS splines; the handles are only set for Bezier splines.
type ControlPoint struct {
	Co          r3.Vec
	W           float64
	HandleLeft  r3.Vec
	HandleRight r3.Vec
}

// Curve is a single 3D spline expressed relative to its first point.
type Curve struct {
	Type       CurveType
	Points     []ControlPoint
	Resolution int
	Order      int
}

// Clone returns a deep copy so callers can mutate points freely.
func (c Curve) Clone() Curve {
	out := c
	out.Points = append([]ControlPoint(nil), c.Points...)
	return out
}

// BoundsXY returns the X/Y bounding box of pts.
func BoundsXY(pts []r3.Vec) BBox {
	var bbox BBox
	for i, p := range pts {
		if i == 0 {
			bbox = BBox{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
			continue
		}
		if p.X < bbox.MinX {
			bbox.MinX = p.X
		}
		if p.Y < bbox.MinY {
			bbox.MinY = p.Y
		}
		if p.X > bbox.MaxX {
			bbox.MaxX = p.X
		}
		if p.Y > bbox.MaxY {
			bbox.MaxY = p.Y
		}
	}
	return bbox
}
