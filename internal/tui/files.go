package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"

	"kmlcurve/internal/importer"
)

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".kml") {
			continue
		}
		items = append(items, fileItem{title: name, desc: "kml", path: filepath.Join(m.cwd, name)})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).Title() < items[j].(fileItem).Title() })
	m.items = items
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no .kml files in " + m.cwd
	}
}

// loadPath imports a KML file into the scene.
func (m *Model) loadPath(p string) {
	m.selPath = p
	res, err := importer.Import(m.scene, p, m.opts)
	m.record(res, err)
	if err != nil {
		m.status = "import error: " + err.Error()
		return
	}
	m.zoom = 1.0
	m.offsetX, m.offsetY = 0, 0
	m.status = fmt.Sprintf("imported %s: %d points as %s (%s)", filepath.Base(p), res.Points, m.opts.Curve, m.opts.Mode)
}

// importPasted imports the paste buffer as a new curve.
func (m *Model) importPasted(text string) error {
	m.pasted++
	name := "pasted"
	if m.pasted > 1 {
		name = fmt.Sprintf("pasted %d", m.pasted)
	}
	res, err := importer.ImportReader(m.scene, name, strings.NewReader(text), m.opts)
	m.record(res, err)
	if err != nil {
		return err
	}
	m.selPath = ""
	m.zoom = 1.0
	m.offsetX, m.offsetY = 0, 0
	m.status = fmt.Sprintf("imported %s: %d points as %s (%s)", res.Name, res.Points, m.opts.Curve, m.opts.Mode)
	return nil
}
