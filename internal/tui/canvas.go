package tui

// canvas is a braille raster: every terminal cell holds a 2x4 dot grid.
type canvas struct {
	w, h  int // in cells
	cells [][]uint8
}

// dotBits maps a dot's (column, row) inside a cell to its braille bit.
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func newCanvas(w, h int) *canvas {
	cells := make([][]uint8, h)
	for i := range cells {
		cells[i] = make([]uint8, w)
	}
	return &canvas{w: w, h: h, cells: cells}
}

// set turns on the dot at dot coordinates (mx, my).
func (c *canvas) set(mx, my int) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cx >= c.w || cy >= c.h {
		return
	}
	c.cells[cy][cx] |= dotBits[mx%2][my%4]
}

// mark draws a 2x2 dot block so single vertices stay visible.
func (c *canvas) mark(mx, my int) {
	c.set(mx, my)
	c.set(mx+1, my)
	c.set(mx, my+1)
	c.set(mx+1, my+1)
}

// line draws a Bresenham segment in dot coordinates.
func (c *canvas) line(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		c.set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *canvas) rows() [][]rune {
	out := make([][]rune, c.h)
	for y, cells := range c.cells {
		row := make([]rune, c.w)
		for x, mask := range cells {
			if mask == 0 {
				row[x] = ' '
			} else {
				row[x] = rune(0x2800 + int(mask))
			}
		}
		out[y] = row
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
