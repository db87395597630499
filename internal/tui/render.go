package tui

import "strings"

// cellToXY converts a map cell back to world X/Y meters using bbox, zoom
// and pan.
func (m Model) cellToXY(cx, cy, w, h int) (float64, float64, bool) {
	if !(m.bbox.MaxX > m.bbox.MinX && m.bbox.MaxY > m.bbox.MinY) || len(m.curves) == 0 {
		return 0, 0, false
	}
	if w <= 1 || h <= 1 {
		return 0, 0, false
	}
	zx := float64(cx-m.offsetX) / float64(w-1)
	zy := 1.0 - float64(cy-m.offsetY)/float64(h-1)
	nx := 0.5 + (zx-0.5)/m.zoom
	ny := 0.5 + (zy-0.5)/m.zoom
	return m.bbox.MinX + nx*(m.bbox.MaxX-m.bbox.MinX), m.bbox.MinY + ny*(m.bbox.MaxY-m.bbox.MinY), true
}

// screenXYMicro maps world X/Y into braille dot coordinates.
func (m Model) screenXYMicro(x, y float64, w, h int) (int, int, bool) {
	if !(m.bbox.MaxX > m.bbox.MinX && m.bbox.MaxY > m.bbox.MinY) {
		return 0, 0, false
	}
	nx := (x - m.bbox.MinX) / (m.bbox.MaxX - m.bbox.MinX)
	ny := (y - m.bbox.MinY) / (m.bbox.MaxY - m.bbox.MinY)
	zx := 0.5 + (nx-0.5)*m.zoom
	zy := 0.5 + (ny-0.5)*m.zoom
	sx := int(zx*float64(w*2-1)) + m.offsetX*2
	sy := int((1.0-zy)*float64(h*4-1)) + m.offsetY*4
	return sx, sy, true
}

// renderCurves draws every imported curve, top down, as braille polylines.
// The first point of each curve is marked.
func (m Model) renderCurves(w, h int) string {
	c := newCanvas(w, h)
	for _, crv := range m.curves {
		var px, py int
		for i, p := range crv {
			mx, my, ok := m.screenXYMicro(p.X, p.Y, w, h)
			if !ok {
				continue
			}
			if i == 0 {
				c.mark(mx, my)
			} else {
				c.line(px, py, mx, my)
			}
			px, py = mx, my
		}
	}

	rows := c.rows()
	lines := make([]string, h)
	for y, row := range rows {
		lines[y] = string(row)
	}

	if m.hovering && len(m.curves) > 0 {
		cx, cy := m.hoverMicX/2, m.hoverMicY/4
		if cy >= 0 && cy < h && cx >= 0 && cx < w {
			r := rows[cy]
			lines[cy] = string(r[:cx]) + hoverStyle.Render("◯") + string(r[cx+1:])
		}
	}
	return strings.Join(lines, "\n")
}
