package scene

import (
	"gonum.org/v1/gonum/spatial/r3"

	"kmlcurve/internal/geom"
)

// Transform is a rigid transform: rotate by Rot, then translate by Loc.
type Transform struct {
	Loc r3.Vec
	Rot r3.Rotation
}

func Identity() Transform {
	return Transform{Rot: geom.IdentityRotation()}
}

// Mul returns the transform that applies u first and then t.
func (t Transform) Mul(u Transform) Transform {
	return Transform{
		Loc: r3.Add(t.Loc, t.Rot.Rotate(u.Loc)),
		Rot: geom.Compose(t.Rot, u.Rot),
	}
}

func (t Transform) Inverse() Transform {
	inv := geom.Inverse(t.Rot)
	return Transform{Loc: r3.Scale(-1, inv.Rotate(t.Loc)), Rot: inv}
}

func (t Transform) Apply(p r3.Vec) r3.Vec {
	return r3.Add(t.Rot.Rotate(p), t.Loc)
}
