package tui

import (
	"os"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"gonum.org/v1/gonum/spatial/r3"

	"kmlcurve/internal/geom"
	"kmlcurve/internal/importer"
	"kmlcurve/internal/scene"
)

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool

	zoom    float64
	offsetX int
	offsetY int

	status string

	// File explorer
	cwd     string
	l       list.Model
	items   []list.Item
	selPath string

	// Import state
	scene   *scene.Graph
	opts    importer.Options
	results []importer.Result

	// World-space curves projected onto X/Y, one slice per curve object.
	curves [][]r3.Vec
	bbox   geom.BBox

	// last rendered map size
	mapW int
	mapH int

	// paste mode
	pasteMode bool
	ta        textarea.Model
	pasted    int

	// outliner popup
	outliner string

	// hover state
	hovering   bool
	hoverCellX int
	hoverCellY int
	hoverMicX  int
	hoverMicY  int
	hoverHasXY bool
	hoverX     float64
	hoverY     float64

	// control point table
	showAttrs bool
	tbl       table.Model
}

// New returns an importer UI that adds curves to sc using opts.
func New(sc *scene.Graph, opts importer.Options) Model {
	m := Model{
		showSidebar: true,
		helpVisible: true,
		zoom:        1.0,
		status:      "kmlcurve ready",
		scene:       sc,
		opts:        opts,
	}
	m.cwd, _ = os.Getwd()
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "KML files"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	m.ta = textarea.New()
	m.ta.Placeholder = "Paste a KML document here. Ctrl+S imports it; Esc cancels."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.refreshDir()
	return m
}

// NewWithPaths imports paths before the UI starts.
func NewWithPaths(sc *scene.Graph, opts importer.Options, paths []string) Model {
	m := New(sc, opts)
	if len(paths) > 0 {
		m.showSidebar = false
	}
	for _, p := range paths {
		m.loadPath(p)
	}
	return m
}

// Results returns the outcome of every import made through the UI.
func (m Model) Results() []importer.Result { return m.results }

func (m Model) Init() tea.Cmd { return nil }

// record stores an import outcome and refreshes the preview.
func (m *Model) record(res importer.Result, err error) {
	if err != nil {
		res.Err = err
	}
	m.results = append(m.results, res)
	m.refreshCurves()
	if m.showAttrs {
		m.refreshAttrsFromCurrent()
	}
}

// refreshCurves reads the world-space points of every imported curve back
// from the scene.
func (m *Model) refreshCurves() {
	m.curves = m.curves[:0]
	var all []r3.Vec
	for _, res := range m.results {
		if res.Err != nil || res.Curve == scene.None {
			continue
		}
		pts, err := m.scene.WorldPoints(res.Curve)
		if err != nil || len(pts) == 0 {
			continue
		}
		m.curves = append(m.curves, pts)
		all = append(all, pts...)
	}
	m.bbox = padBBox(geom.BoundsXY(all))
}

// padBBox gives degenerate extents a width so a single point or a straight
// north-south line still maps onto the canvas.
func padBBox(b geom.BBox) geom.BBox {
	if b.MaxX <= b.MinX {
		b.MinX--
		b.MaxX++
	}
	if b.MaxY <= b.MinY {
		b.MinY--
		b.MaxY++
	}
	// square extents keep the preview undistorted
	dx, dy := b.MaxX-b.MinX, b.MaxY-b.MinY
	if dx > dy {
		mid := (b.MinY + b.MaxY) / 2
		b.MinY, b.MaxY = mid-dx/2, mid+dx/2
	} else {
		mid := (b.MinX + b.MaxX) / 2
		b.MinX, b.MaxX = mid-dy/2, mid+dy/2
	}
	return b
}

// lastCurve returns the most recent successful import.
func (m Model) lastCurve() (importer.Result, bool) {
	for i := len(m.results) - 1; i >= 0; i-- {
		if m.results[i].Err == nil {
			return m.results[i], true
		}
	}
	return importer.Result{}, false
}
