// Package scene holds the object graph that imported curves are placed in.
//
// Collaborator is the narrow surface the importer drives; Graph is an
// in-memory implementation with rigid parent/child transforms.
package scene

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"kmlcurve/internal/geom"
)

// ID identifies an object in a scene. The zero ID means "no object".
type ID int

const None ID = 0

var (
	ErrUnknownObject = errors.New("scene: unknown object")
	ErrCycle         = errors.New("scene: parenting would create a cycle")
)

type Kind int

const (
	KindEmpty Kind = iota
	KindCurve
)

func (k Kind) String() string {
	if k == KindCurve {
		return "curve"
	}
	return "empty"
}

// Display is how an empty is drawn by the host.
type Display int

const (
	PlainAxes Display = iota
	SingleArrow
)

func (d Display) String() string {
	if d == SingleArrow {
		return "single_arrow"
	}
	return "plain_axes"
}

// Collaborator is the part of a host scene the importer needs.
// Every operation names its target explicitly.
type Collaborator interface {
	CreateCurveObject(name string, c geom.Curve) (ID, error)
	CreateEmptyReference(name string, display Display) (ID, error)
	SetRotation(id ID, r r3.Rotation) error
	// Attach parents child to parent. With preserveTransform the child keeps
	// its world transform; otherwise its local transform is kept and it moves
	// with the parent.
	Attach(parent, child ID, preserveTransform bool) error
	// Detach clears child's parent, optionally keeping its world transform.
	Detach(child ID, preserveTransform bool) error
	// ApplyRotation bakes the object's rotation into its geometry.
	ApplyRotation(id ID) error
}

type Object struct {
	ID       ID
	Name     string
	Kind     Kind
	Display  Display
	Curve    *geom.Curve
	Local    Transform
	Parent   ID
	Children []ID
}

// Graph is an in-memory Collaborator. It is not safe for concurrent use.
type Graph struct {
	objects []*Object
	byID    map[ID]*Object
	names   map[string]bool
	next    ID
}

var _ Collaborator = (*Graph)(nil)

func NewGraph() *Graph {
	return &Graph{byID: map[ID]*Object{}, names: map[string]bool{}, next: 1}
}

func (g *Graph) add(o *Object) ID {
	o.ID = g.next
	g.next++
	o.Name = g.uniqueName(o.Name)
	g.names[o.Name] = true
	g.objects = append(g.objects, o)
	g.byID[o.ID] = o
	return o.ID
}

// uniqueName suffixes taken names with .001, .002, ...
func (g *Graph) uniqueName(name string) string {
	if !g.names[name] {
		return name
	}
	for i := 1; ; i++ {
		n := fmt.Sprintf("%s.%03d", name, i)
		if !g.names[n] {
			return n
		}
	}
}

func (g *Graph) get(id ID) (*Object, error) {
	o, ok := g.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	return o, nil
}

func (g *Graph) CreateCurveObject(name string, c geom.Curve) (ID, error) {
	cc := c.Clone()
	return g.add(&Object{Name: name, Kind: KindCurve, Curve: &cc, Local: Identity()}), nil
}

func (g *Graph) CreateEmptyReference(name string, display Display) (ID, error) {
	return g.add(&Object{Name: name, Kind: KindEmpty, Display: display, Local: Identity()}), nil
}

func (g *Graph) SetRotation(id ID, r r3.Rotation) error {
	o, err := g.get(id)
	if err != nil {
		return err
	}
	o.Local.Rot = r
	return nil
}

func (g *Graph) Attach(parent, child ID, preserveTransform bool) error {
	p, err := g.get(parent)
	if err != nil {
		return err
	}
	c, err := g.get(child)
	if err != nil {
		return err
	}
	for a := p; a != nil; a = g.byID[a.Parent] {
		if a.ID == c.ID {
			return fmt.Errorf("%w: %s under %s", ErrCycle, c.Name, p.Name)
		}
	}
	if preserveTransform {
		c.Local = g.world(p).Inverse().Mul(g.world(c))
	}
	g.unlink(c)
	c.Parent = p.ID
	p.Children = append(p.Children, c.ID)
	return nil
}

func (g *Graph) Detach(child ID, preserveTransform bool) error {
	c, err := g.get(child)
	if err != nil {
		return err
	}
	if preserveTransform {
		c.Local = g.world(c)
	}
	g.unlink(c)
	return nil
}

func (g *Graph) unlink(c *Object) {
	p, ok := g.byID[c.Parent]
	c.Parent = None
	if !ok {
		return
	}
	for i, id := range p.Children {
		if id == c.ID {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}
}

// ApplyRotation rotates the curve points about the object origin, resets
// the object's rotation and adjusts children so they do not move.
func (g *Graph) ApplyRotation(id ID) error {
	o, err := g.get(id)
	if err != nil {
		return err
	}
	rot := o.Local.Rot
	if o.Curve != nil {
		for i := range o.Curve.Points {
			p := &o.Curve.Points[i]
			p.Co = rot.Rotate(p.Co)
			p.HandleLeft = rot.Rotate(p.HandleLeft)
			p.HandleRight = rot.Rotate(p.HandleRight)
		}
	}
	old := o.Local
	o.Local.Rot = geom.IdentityRotation()
	fix := o.Local.Inverse().Mul(old)
	for _, cid := range o.Children {
		c := g.byID[cid]
		c.Local = fix.Mul(c.Local)
	}
	return nil
}

// World returns the object's transform relative to the scene root.
func (g *Graph) World(id ID) (Transform, error) {
	o, err := g.get(id)
	if err != nil {
		return Transform{}, err
	}
	return g.world(o), nil
}

func (g *Graph) world(o *Object) Transform {
	w := o.Local
	for p := g.byID[o.Parent]; p != nil; p = g.byID[p.Parent] {
		w = p.Local.Mul(w)
	}
	return w
}

// Object returns a copy of the object with the given ID.
func (g *Graph) Object(id ID) (Object, bool) {
	o, ok := g.byID[id]
	if !ok {
		return Object{}, false
	}
	return *o, true
}

// Lookup finds an object by its (unique) name.
func (g *Graph) Lookup(name string) (Object, bool) {
	for _, o := range g.objects {
		if o.Name == name {
			return *o, true
		}
	}
	return Object{}, false
}

// Objects lists all objects in creation order.
func (g *Graph) Objects() []Object {
	out := make([]Object, 0, len(g.objects))
	for _, o := range g.objects {
		out = append(out, *o)
	}
	return out
}

// WorldPoints returns the curve's control points in world space.
func (g *Graph) WorldPoints(id ID) ([]r3.Vec, error) {
	o, err := g.get(id)
	if err != nil {
		return nil, err
	}
	if o.Curve == nil {
		return nil, nil
	}
	w := g.world(o)
	out := make([]r3.Vec, len(o.Curve.Points))
	for i, p := range o.Curve.Points {
		out[i] = w.Apply(p.Co)
	}
	return out, nil
}
