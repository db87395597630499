package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"kmlcurve/internal/config"
	"kmlcurve/internal/geom"
	"kmlcurve/internal/importer"
	"kmlcurve/internal/logging"
	"kmlcurve/internal/scene"
	"kmlcurve/internal/tui"
)

var (
	nameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
)

func main() {
	if err := run(os.Args[0], os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "kmlcurve:", err)
		os.Exit(1)
	}
}

func run(name string, args []string) error {
	fs := config.Flags(name)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	paths := cfg.Paths()
	interactive := cfg.UI.Enabled || len(paths) == 0

	logOut := io.Writer(os.Stderr)
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	} else if interactive {
		// stderr belongs to the terminal UI
		logOut = io.Discard
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, logOut)

	sc := scene.NewGraph()
	opts := cfg.Options()

	var results []importer.Result
	if interactive {
		final, err := tea.NewProgram(tui.NewWithPaths(sc, opts, paths), tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
		if err != nil {
			return err
		}
		if m, ok := final.(tui.Model); ok {
			results = m.Results()
		}
	} else {
		results = importer.ImportBatch(sc, paths, opts)
		printSummary(os.Stdout, results)
	}

	if cfg.Output.Scene != "" {
		if err := writeScene(sc, cfg.Output.Scene); err != nil {
			return err
		}
		slog.Info("scene written", "path", cfg.Output.Scene, "objects", len(sc.Objects()))
	}

	if !interactive && failed(results) == len(results) {
		return fmt.Errorf("no file imported (%d failed)", len(results))
	}
	return nil
}

func writeScene(sc *scene.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create scene file: %w", err)
	}
	if err := sc.WriteJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("write scene: %w", err)
	}
	return f.Close()
}

func failed(results []importer.Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func printSummary(w io.Writer, results []importer.Result) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s %s\n", failStyle.Render("✗ "+r.Path), dimStyle.Render(r.Err.Error()))
			continue
		}
		ux, uy, uz := degrees(geom.EulerXYZ(r.Orientation.Up))
		fmt.Fprintf(w, "%s %s\n", nameStyle.Render("✓ "+r.Name),
			dimStyle.Render(fmt.Sprintf("%d points  up %.2f° %.2f° %.2f°", r.Points, ux, uy, uz)))
	}
}

func degrees(x, y, z float64) (float64, float64, float64) {
	return x * 180 / math.Pi, y * 180 / math.Pi, z * 180 / math.Pi
}
