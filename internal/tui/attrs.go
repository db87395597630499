package tui

import (
	"fmt"
	"math"
	"strings"

	table "github.com/charmbracelet/bubbles/table"
	"gonum.org/v1/gonum/spatial/r3"

	"kmlcurve/internal/geom"
	"kmlcurve/internal/scene"
)

// refreshAttrsFromCurrent fills the table with the control points of the
// most recently imported curve.
func (m *Model) refreshAttrsFromCurrent() {
	res, ok := m.lastCurve()
	if !ok {
		m.showAttrs = false
		m.status = "no curve imported yet"
		return
	}
	obj, ok := m.scene.Object(res.Curve)
	if !ok || obj.Curve == nil || len(obj.Curve.Points) == 0 {
		m.showAttrs = false
		m.status = "curve has no control points"
		return
	}
	cols, rows := controlPointRows(*obj.Curve)
	tcols := make([]table.Column, len(cols))
	for i, c := range cols {
		w := 12
		if i == 0 {
			w = 5
		}
		tcols[i] = table.Column{Title: c, Width: w}
	}
	trows := make([]table.Row, len(rows))
	for i, r := range rows {
		trows[i] = table.Row(r)
	}
	// Clear rows first so columns and rows never disagree mid-update.
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
	m.status = fmt.Sprintf("%s: %d %s points", obj.Name, len(rows), obj.Curve.Type)
}

// controlPointRows lays out a curve's control points in local coordinates.
func controlPointRows(c geom.Curve) ([]string, [][]string) {
	cols := []string{"#", "x", "y", "z", "w"}
	if c.Type == geom.Bezier {
		cols = []string{"#", "x", "y", "z", "handle in", "handle out"}
	}
	rows := make([][]string, 0, len(c.Points))
	for i, p := range c.Points {
		row := []string{fmt.Sprintf("%d", i+1), meters(p.Co.X), meters(p.Co.Y), meters(p.Co.Z)}
		if c.Type == geom.Bezier {
			row = append(row, meters(dist(p.HandleLeft, p.Co)), meters(dist(p.HandleRight, p.Co)))
		} else {
			row = append(row, fmt.Sprintf("%g", p.W))
		}
		rows = append(rows, row)
	}
	return cols, rows
}

func meters(v float64) string { return fmt.Sprintf("%.3f", v) }

func dist(a, b r3.Vec) float64 { return r3.Norm(r3.Sub(a, b)) }

// renderOutliner lists the scene hierarchy with world rotations in degrees.
func (m Model) renderOutliner() string {
	objs := m.scene.Objects()
	if len(objs) == 0 {
		return dimStyle.Render("scene is empty")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Scene"))
	var walk func(id scene.ID, depth int)
	walk = func(id scene.ID, depth int) {
		o, ok := m.scene.Object(id)
		if !ok {
			return
		}
		kind := o.Kind.String()
		if o.Kind == scene.KindEmpty {
			kind = o.Display.String()
		}
		line := fmt.Sprintf("%s%s (%s)", strings.Repeat("  ", depth), o.Name, kind)
		if w, err := m.scene.World(id); err == nil {
			x, y, z := geom.EulerXYZ(w.Rot)
			line += dimStyle.Render(fmt.Sprintf("  rot %.1f° %.1f° %.1f°", deg(x), deg(y), deg(z)))
		}
		b.WriteString("\n" + line)
		for _, c := range o.Children {
			walk(c, depth+1)
		}
	}
	for _, o := range objs {
		if o.Parent == scene.None {
			walk(o.ID, 0)
		}
	}
	return b.String()
}

func deg(rad float64) float64 { return rad * 180 / math.Pi }
