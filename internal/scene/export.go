package scene

import (
	"encoding/json"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"kmlcurve/internal/geom"
)

type jsonTransform struct {
	Location [3]float64 `json:"location"`
	Rotation [4]float64 `json:"rotation"` // w, x, y, z
}

type jsonCurve struct {
	Type       string          `json:"type"`
	Resolution int             `json:"resolution"`
	Order      int             `json:"order"`
	Points     [][4]float64    `json:"points"` // x, y, z, w
	Handles    [][2][3]float64 `json:"handles,omitempty"`
}

type jsonObject struct {
	Name    string        `json:"name"`
	Kind    string        `json:"kind"`
	Display string        `json:"display,omitempty"`
	Parent  string        `json:"parent,omitempty"`
	Local   jsonTransform `json:"local"`
	World   jsonTransform `json:"world"`
	Curve   *jsonCurve    `json:"curve,omitempty"`
}

func toJSONTransform(t Transform) jsonTransform {
	return jsonTransform{
		Location: vec3(t.Loc),
		Rotation: [4]float64{t.Rot.Real, t.Rot.Imag, t.Rot.Jmag, t.Rot.Kmag},
	}
}

func vec3(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// WriteJSON writes every object with its local and world transform.
func (g *Graph) WriteJSON(w io.Writer) error {
	out := struct {
		Objects []jsonObject `json:"objects"`
	}{Objects: make([]jsonObject, 0, len(g.objects))}

	for _, o := range g.objects {
		jo := jsonObject{
			Name:  o.Name,
			Kind:  o.Kind.String(),
			Local: toJSONTransform(o.Local),
			World: toJSONTransform(g.world(o)),
		}
		if o.Kind == KindEmpty {
			jo.Display = o.Display.String()
		}
		if p, ok := g.byID[o.Parent]; ok {
			jo.Parent = p.Name
		}
		if c := o.Curve; c != nil {
			jc := &jsonCurve{Type: c.Type.String(), Resolution: c.Resolution, Order: c.Order}
			for _, p := range c.Points {
				jc.Points = append(jc.Points, [4]float64{p.Co.X, p.Co.Y, p.Co.Z, p.W})
				if c.Type == geom.Bezier {
					jc.Handles = append(jc.Handles, [2][3]float64{vec3(p.HandleLeft), vec3(p.HandleRight)})
				}
			}
			jo.Curve = jc
		}
		out.Objects = append(out.Objects, jo)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
