package tui

import (
	"fmt"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"kmlcurve/internal/geom"
)

const sidebarWidth = 28

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.showSidebar {
			m.l.SetSize(sidebarWidth-2, m.height-1-2) // refined in View
		}
	case tea.KeyMsg:
		// While the list filters, keys belong to it.
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.pasteMode {
			return m.updatePaste(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "m":
			if m.opts.Mode == geom.PathMode {
				m.opts.Mode = geom.PointMode
			} else {
				m.opts.Mode = geom.PathMode
			}
			m.status = "select mode: " + m.opts.Mode.String()
		case "c":
			m.opts.Curve = (m.opts.Curve + 1) % (geom.NURBS + 1)
			m.status = "curve type: " + m.opts.Curve.String()
		case "+", "=":
			if m.zoom < 64 {
				m.zoom *= 1.2
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
			}
		case "-", "_":
			if m.zoom > 0.05 {
				m.zoom /= 1.2
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
			}
		case "tab":
			m.showSidebar = !m.showSidebar
			if m.showSidebar {
				m.refreshDir()
				m.l.SetSize(sidebarWidth-2, m.height-1-2)
			}
		case "p":
			m.pasteMode = true
			m.ta.SetValue("")
			m.ta.Focus()
			m.status = "paste mode"
		case "h":
			m.helpVisible = !m.helpVisible
		case "a":
			m.showAttrs = !m.showAttrs
			if m.showAttrs {
				m.refreshAttrsFromCurrent()
			}
		case "o":
			if m.outliner != "" {
				m.outliner = ""
			} else {
				m.outliner = m.renderOutliner()
			}
		case "esc":
			m.outliner = ""
			m.showAttrs = false
		case "enter":
			if m.showSidebar {
				if it, ok := m.l.SelectedItem().(fileItem); ok {
					m.loadPath(it.path)
					if m.outliner != "" {
						m.outliner = m.renderOutliner()
					}
				}
			}
		case "up":
			m.offsetY--
		case "down":
			m.offsetY++
		case "left":
			m.offsetX -= 2
		case "right":
			m.offsetX += 2
		}
	case tea.MouseMsg:
		m.trackHover(msg.X, msg.Y)
	}
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updatePaste(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.pasteMode = false
		m.ta.Blur()
		m.status = "paste cancelled"
		return m, nil
	case "ctrl+s":
		text := strings.TrimSpace(m.ta.Value())
		if text == "" {
			m.status = "paste: empty"
			return m, nil
		}
		if err := m.importPasted(text); err != nil {
			m.status = "import error: " + err.Error()
			return m, nil
		}
		m.pasteMode = false
		m.ta.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m, cmd
}

// layout returns the map's origin and size on screen. It must match View.
func (m Model) layout() (originX, originY, w, h int) {
	const headerHeight, footerHeight = 1, 2
	h = max(4, m.height-headerHeight-footerHeight)
	side := 0
	if m.showSidebar {
		side = sidebarWidth + 1
	}
	w = max(10, max(10, m.width)-side)
	return side, headerHeight, w, h
}

// trackHover records the vertex nearest to the mouse cell.
func (m *Model) trackHover(x, y int) {
	ox, oy, w, h := m.layout()
	if x < ox || x >= ox+w || y < oy || y >= oy+h {
		m.hovering = false
		m.hoverHasXY = false
		return
	}
	m.hovering = true
	m.hoverCellX, m.hoverCellY = x-ox, y-oy
	m.hoverX, m.hoverY, m.hoverHasXY = m.cellToXY(m.hoverCellX, m.hoverCellY, w, h)

	hx, hy := m.hoverCellX*2, m.hoverCellY*4
	best := 1<<31 - 1
	bx, by := hx, hy
	for _, crv := range m.curves {
		for _, p := range crv {
			mx, my, ok := m.screenXYMicro(p.X, p.Y, w, h)
			if !ok {
				continue
			}
			dx, dy := mx-hx, my-hy
			if d := dx*dx + dy*dy; d < best {
				best = d
				bx, by = mx, my
			}
		}
	}
	m.hoverMicX, m.hoverMicY = bx, by
}
