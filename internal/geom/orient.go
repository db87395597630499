package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Orientation holds the rotations of the Up and North helpers for one import.
type Orientation struct {
	Up    r3.Rotation
	North r3.Rotation
}

var (
	upAxis    = r3.Vec{Z: 1}
	northTilt = r3.NewRotation(-math.Pi/2, r3.Vec{Y: 1})
)

// IdentityRotation is the zero rotation.
func IdentityRotation() r3.Rotation { return r3.Rotation{Real: 1} }

// ComputeOrientation aligns (0,0,1) with the radial direction at origin.
// North is the same rotation followed by -90 degrees about its own Y axis.
func ComputeOrientation(origin r3.Vec, radius float64) Orientation {
	up := RotationBetween(upAxis, r3.Scale(1/radius, origin))
	return Orientation{Up: up, North: Compose(up, northTilt)}
}

// RotationBetween returns the shortest-arc rotation taking the direction of
// a onto the direction of b. Degenerate inputs yield the identity.
func RotationBetween(a, b r3.Vec) r3.Rotation {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na == 0 || nb == 0 {
		return IdentityRotation()
	}
	a, b = r3.Scale(1/na, a), r3.Scale(1/nb, b)
	d := r3.Dot(a, b)
	if d >= 1-1e-12 {
		return IdentityRotation()
	}
	if d <= -1+1e-12 {
		axis := r3.Cross(a, r3.Vec{X: 1})
		if r3.Norm(axis) < 1e-6 {
			axis = r3.Cross(a, r3.Vec{Y: 1})
		}
		return r3.NewRotation(math.Pi, r3.Unit(axis))
	}
	c := r3.Cross(a, b)
	return normalize(quat.Number{Real: 1 + d, Imag: c.X, Jmag: c.Y, Kmag: c.Z})
}

// Compose returns the rotation that applies b first, then a.
func Compose(a, b r3.Rotation) r3.Rotation {
	return normalize(quat.Mul(quat.Number(a), quat.Number(b)))
}

// Inverse returns the opposite rotation of a unit rotation.
func Inverse(r r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Conj(quat.Number(r)))
}

func normalize(q quat.Number) r3.Rotation {
	n := quat.Abs(q)
	if n == 0 {
		return IdentityRotation()
	}
	return r3.Rotation(quat.Scale(1/n, q))
}

// EulerXYZ converts r to XYZ euler angles in radians (X applied first).
func EulerXYZ(r r3.Rotation) (x, y, z float64) {
	w, i, j, k := r.Real, r.Imag, r.Jmag, r.Kmag
	m00 := 1 - 2*(j*j+k*k)
	m10 := 2 * (i*j + w*k)
	m20 := 2 * (i*k - w*j)
	m21 := 2 * (j*k + w*i)
	m22 := 1 - 2*(i*i+j*j)

	cy := math.Hypot(m00, m10)
	if cy > 1e-9 {
		return math.Atan2(m21, m22), math.Atan2(-m20, cy), math.Atan2(m10, m00)
	}
	// gimbal lock: fold Z into X
	m11 := 1 - 2*(i*i+k*k)
	m12 := 2 * (j*k - w*i)
	return math.Atan2(-m12, m11), math.Atan2(-m20, cy), 0
}
