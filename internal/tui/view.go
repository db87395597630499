package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	_, _, mapWidth, mapHeight := m.layout()
	contentWidth := max(10, m.width)

	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, mapHeight-2)
	}

	// Header
	title := titleStyle.Render(" kmlcurve ─ KML path importer ")
	settings := dimStyle.Render(fmt.Sprintf("  mode=%s  curve=%s  scale=%g  objects=%d",
		m.opts.Mode, m.opts.Curve, m.opts.Scale, len(m.scene.Objects())))
	header := lipgloss.NewStyle().Width(contentWidth).Render(title + settings)

	var sidebar string
	if m.showSidebar {
		sidebar = lipgloss.NewStyle().Width(sidebarWidth).Render(m.l.View())
	}

	m.mapW = max(8, mapWidth)
	m.mapH = max(4, mapHeight)
	var mapView string
	switch {
	case m.showAttrs:
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		maxW := min(mapWidth, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(mapHeight-2, 20))
		box := boxStyle.Width(maxW).Render(m.tbl.View())
		mapView = lipgloss.Place(mapWidth, mapHeight, lipgloss.Center, lipgloss.Center, box)
	case m.pasteMode:
		m.ta.SetWidth(m.mapW)
		m.ta.SetHeight(min(m.mapH, 12))
		mapView = lipgloss.NewStyle().Width(mapWidth).Height(mapHeight).Render(m.ta.View())
	default:
		mapView = lipgloss.NewStyle().Width(mapWidth).Height(mapHeight).Render(m.renderCurves(m.mapW, m.mapH))
	}

	// Outliner overlays the left of the map.
	if m.outliner != "" && !m.showAttrs && !m.pasteMode {
		box := boxStyle.MaxWidth(min(48, mapWidth)).Render(m.outliner)
		mapView = lipgloss.Place(mapWidth, mapHeight, lipgloss.Left, lipgloss.Top, box)
	}

	body := mapView
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)
	}

	// Footer
	statusStyle := dimStyle
	if strings.Contains(m.status, "error") {
		statusStyle = warnStyle
	}
	status := statusStyle.Render(" " + m.status + " ")
	coords := ""
	if m.hoverHasXY {
		coords = dimStyle.Render(fmt.Sprintf("  x=%.1fm y=%.1fm  ", m.hoverX, m.hoverY))
	}
	left := lipgloss.JoinVertical(lipgloss.Left, status, m.renderHelp())
	spacerW := max(0, contentWidth-lipgloss.Width(left)-lipgloss.Width(coords))
	right := lipgloss.Place(spacerW+lipgloss.Width(coords), 1, lipgloss.Right, lipgloss.Bottom, coords)
	footer := lipgloss.NewStyle().Width(contentWidth).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, left, right))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return appStyle.Width(contentWidth).Height(m.height).Render(ui)
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"↑↓←→ pan",
		"+/- zoom",
		"Tab files",
		"Enter import",
		"m mode",
		"c curve",
		"p paste",
		"o outliner",
		"a points",
		"h help",
		"q quit",
	}
	if m.pasteMode {
		keys = []string{"Ctrl+S import", "Esc cancel"}
	}
	return dimStyle.Render(" " + strings.Join(keys, "  "))
}
