package scene

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"kmlcurve/internal/geom"
)

func near(a, b r3.Vec) bool { return r3.Norm(r3.Sub(a, b)) < 1e-9 }

func sameTransform(a, b Transform) bool {
	for _, v := range []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}, {X: 2, Y: -3, Z: 5}} {
		if !near(a.Apply(v), b.Apply(v)) {
			return false
		}
	}
	return true
}

func testCurve() geom.Curve {
	return geom.Curve{Type: geom.Poly, Points: []geom.ControlPoint{
		{Co: r3.Vec{}, W: 1},
		{Co: r3.Vec{X: 1}, W: 1},
		{Co: r3.Vec{X: 1, Y: 1}, W: 1},
	}}
}

func TestTransform_MulInverse(t *testing.T) {
	a := Transform{Loc: r3.Vec{X: 1, Y: 2, Z: 3}, Rot: r3.NewRotation(0.8, r3.Vec{Z: 1})}
	b := Transform{Loc: r3.Vec{X: -4}, Rot: r3.NewRotation(-1.3, r3.Unit(r3.Vec{X: 1, Y: 1}))}

	if !sameTransform(a.Mul(a.Inverse()), Identity()) {
		t.Error("a * a^-1 is not identity")
	}
	p := r3.Vec{X: 0.5, Y: -2, Z: 7}
	if !near(a.Mul(b).Apply(p), a.Apply(b.Apply(p))) {
		t.Error("Mul does not apply the right operand first")
	}
}

func TestGraph_UniqueNames(t *testing.T) {
	g := NewGraph()
	var names []string
	for i := 0; i < 3; i++ {
		id, _ := g.CreateEmptyReference("North", SingleArrow)
		o, _ := g.Object(id)
		names = append(names, o.Name)
	}
	want := []string{"North", "North.001", "North.002"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("name[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestGraph_CurveIsCopied(t *testing.T) {
	g := NewGraph()
	c := testCurve()
	id, _ := g.CreateCurveObject("track", c)
	c.Points[1].Co = r3.Vec{X: 99}

	o, _ := g.Object(id)
	if o.Curve.Points[1].Co != (r3.Vec{X: 1}) {
		t.Errorf("scene curve changed with caller slice: %+v", o.Curve.Points[1].Co)
	}
}

func TestGraph_AttachPreserve(t *testing.T) {
	g := NewGraph()
	parent, _ := g.CreateEmptyReference("Up", SingleArrow)
	child, _ := g.CreateEmptyReference("North", SingleArrow)
	rp := r3.NewRotation(math.Pi/3, r3.Vec{X: 1})
	rc := r3.NewRotation(-math.Pi/4, r3.Vec{Z: 1})
	_ = g.SetRotation(parent, rp)
	_ = g.SetRotation(child, rc)

	before, _ := g.World(child)
	if err := g.Attach(parent, child, true); err != nil {
		t.Fatal(err)
	}
	after, _ := g.World(child)
	if !sameTransform(before, after) {
		t.Error("preserving attach moved the child")
	}

	// Resetting the parent now carries the child along.
	_ = g.SetRotation(parent, geom.IdentityRotation())
	moved, _ := g.World(child)
	want := Transform{Rot: geom.Compose(geom.Inverse(rp), rc)}
	if !sameTransform(moved, want) {
		t.Error("child did not follow parent rotation")
	}

	// Detaching with preserve keeps the world transform.
	if err := g.Detach(child, true); err != nil {
		t.Fatal(err)
	}
	detached, _ := g.World(child)
	if !sameTransform(detached, want) {
		t.Error("preserving detach moved the child")
	}
	if p, _ := g.Object(parent); len(p.Children) != 0 {
		t.Errorf("parent still lists children %v", p.Children)
	}
}

func TestGraph_AttachWithoutPreserve(t *testing.T) {
	g := NewGraph()
	parent, _ := g.CreateEmptyReference("Up", SingleArrow)
	child, _ := g.CreateEmptyReference("North", SingleArrow)
	rp := r3.NewRotation(0.5, r3.Vec{Y: 1})
	_ = g.SetRotation(parent, rp)

	if err := g.Attach(parent, child, false); err != nil {
		t.Fatal(err)
	}
	w, _ := g.World(child)
	if !sameTransform(w, Transform{Rot: rp}) {
		t.Error("non-preserving attach should inherit the parent transform")
	}
}

func TestGraph_AttachErrors(t *testing.T) {
	g := NewGraph()
	a, _ := g.CreateEmptyReference("a", PlainAxes)
	b, _ := g.CreateEmptyReference("b", PlainAxes)
	if err := g.Attach(a, b, true); err != nil {
		t.Fatal(err)
	}
	if err := g.Attach(b, a, true); !errors.Is(err, ErrCycle) {
		t.Errorf("cycle err = %v", err)
	}
	if err := g.Attach(a, a, true); !errors.Is(err, ErrCycle) {
		t.Errorf("self attach err = %v", err)
	}
	if err := g.Attach(a, 42, true); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("unknown child err = %v", err)
	}
	if err := g.ApplyRotation(42); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("unknown apply err = %v", err)
	}
}

func TestGraph_ApplyRotation(t *testing.T) {
	g := NewGraph()
	crv, _ := g.CreateCurveObject("track", testCurve())
	axes, _ := g.CreateEmptyReference("Original Axes", PlainAxes)
	if err := g.Attach(crv, axes, true); err != nil {
		t.Fatal(err)
	}
	r := r3.NewRotation(math.Pi/2, r3.Vec{Z: 1})
	_ = g.SetRotation(crv, r)

	beforePts, _ := g.WorldPoints(crv)
	beforeAxes, _ := g.World(axes)
	if err := g.ApplyRotation(crv); err != nil {
		t.Fatal(err)
	}

	o, _ := g.Object(crv)
	if !sameTransform(o.Local, Identity()) {
		t.Error("rotation not reset after apply")
	}
	afterPts, _ := g.WorldPoints(crv)
	for i := range beforePts {
		if !near(beforePts[i], afterPts[i]) {
			t.Errorf("point %d moved: %+v -> %+v", i, beforePts[i], afterPts[i])
		}
	}
	if !near(o.Curve.Points[1].Co, r3.Vec{Y: 1}) {
		t.Errorf("baked point = %+v, want (0,1,0)", o.Curve.Points[1].Co)
	}
	afterAxes, _ := g.World(axes)
	if !sameTransform(beforeAxes, afterAxes) {
		t.Error("child moved when parent rotation was applied")
	}
}

func TestGraph_WriteJSON(t *testing.T) {
	g := NewGraph()
	crv, _ := g.CreateCurveObject("track", testCurve())
	up, _ := g.CreateEmptyReference("Up", SingleArrow)
	_ = g.Attach(up, crv, false)

	var buf bytes.Buffer
	if err := g.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	var out struct {
		Objects []struct {
			Name    string `json:"name"`
			Kind    string `json:"kind"`
			Display string `json:"display"`
			Parent  string `json:"parent"`
			Curve   *struct {
				Points [][4]float64 `json:"points"`
			} `json:"curve"`
		} `json:"objects"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Objects) != 2 {
		t.Fatalf("objects = %d, want 2", len(out.Objects))
	}
	track := out.Objects[0]
	if track.Kind != "curve" || track.Parent != "Up" || track.Curve == nil || len(track.Curve.Points) != 3 {
		t.Errorf("track = %+v", track)
	}
	if out.Objects[1].Display != "single_arrow" {
		t.Errorf("up display = %q", out.Objects[1].Display)
	}
}
