// Package importer turns KML files into oriented curve objects in a scene.
package importer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"kmlcurve/internal/geom"
	"kmlcurve/internal/scene"
)

const (
	NorthName = "North"
	UpName    = "Up"
	AxesName  = "Original Axes"
)

type Options struct {
	Scale float64
	Mode  geom.SelectMode
	Curve geom.CurveType
}

func DefaultOptions() Options {
	return Options{Scale: 1, Mode: geom.PathMode, Curve: geom.Poly}
}

// Stage is a step of a single import.
type Stage int

const (
	StageExtract Stage = iota
	StageProject
	StageBuildCurve
	StageComputeOrientation
	StageComposeHierarchy
	StageDone
)

var stageNames = [...]string{"extract", "project", "build-curve", "compute-orientation", "compose-hierarchy", "done"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Error reports the file and stage an import failed in.
type Error struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("import %s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result describes the objects created for one file.
type Result struct {
	Path        string
	Name        string
	Points      int
	Origin      r3.Vec
	Orientation geom.Orientation
	// Stage is StageDone on success, otherwise the stage that failed.
	Stage Stage

	Curve scene.ID
	North scene.ID
	Up    scene.ID
	Axes  scene.ID

	Err error
}

// Import reads the KML file at path and adds its curve to sc.
func Import(sc scene.Collaborator, path string, opts Options) (Result, error) {
	points, err := geom.LoadKML(path, opts.Mode)
	if err != nil {
		return Result{Path: path, Stage: StageExtract}, &Error{Path: path, Stage: StageExtract, Err: err}
	}
	return place(sc, path, ObjectName(path), points, opts)
}

// ImportReader is Import for KML that is not on disk; name becomes the
// curve object's name.
func ImportReader(sc scene.Collaborator, name string, r io.Reader, opts Options) (Result, error) {
	points, err := geom.ReadKML(r, opts.Mode)
	if err != nil {
		return Result{Path: name, Stage: StageExtract}, &Error{Path: name, Stage: StageExtract, Err: err}
	}
	return place(sc, name, name, points, opts)
}

func place(sc scene.Collaborator, path, name string, points []geom.GeoPoint, opts Options) (Result, error) {
	res := Result{Path: path, Name: name, Points: len(points), Stage: StageProject}
	fail := func(err error) (Result, error) {
		return res, &Error{Path: path, Stage: res.Stage, Err: err}
	}

	slog.Debug("kml extracted", "path", path, "points", len(points), "mode", opts.Mode)

	// BuildCurve projects and rebases in one pass; only the scale can be rejected.
	res.Stage = StageBuildCurve
	crv, origin, err := geom.BuildCurve(points, opts.Scale, opts.Curve)
	if err != nil {
		return fail(err)
	}
	res.Origin = origin

	res.Stage = StageComputeOrientation
	res.Orientation = geom.ComputeOrientation(origin, geom.EarthRadius)

	res.Stage = StageComposeHierarchy
	if err := compose(sc, name, crv, res.Orientation, &res); err != nil {
		return fail(err)
	}
	res.Stage = StageDone
	return res, nil
}

// compose creates the curve and its helpers and links them so that the
// curve lies in the tangent plane of its first point, with Up as its parent.
func compose(sc scene.Collaborator, name string, crv geom.Curve, o geom.Orientation, res *Result) error {
	var err error
	if res.Curve, err = sc.CreateCurveObject(name, crv); err != nil {
		return err
	}
	if res.North, err = sc.CreateEmptyReference(NorthName, scene.SingleArrow); err != nil {
		return err
	}
	if res.Up, err = sc.CreateEmptyReference(UpName, scene.SingleArrow); err != nil {
		return err
	}
	if res.Axes, err = sc.CreateEmptyReference(AxesName, scene.PlainAxes); err != nil {
		return err
	}

	steps := []func() error{
		func() error { return sc.SetRotation(res.Up, o.Up) },
		func() error { return sc.SetRotation(res.North, o.North) },
		func() error { return sc.Attach(res.Curve, res.Axes, true) },
		func() error { return sc.Attach(res.Up, res.Curve, true) },
		func() error { return sc.Attach(res.Up, res.North, true) },
		// Up's rotation now lives in its children; clearing it turns them back.
		func() error { return sc.SetRotation(res.Up, geom.IdentityRotation()) },
		func() error { return sc.Detach(res.Curve, true) },
		func() error { return sc.Detach(res.North, true) },
		func() error { return sc.ApplyRotation(res.Curve) },
		func() error { return sc.Attach(res.Up, res.Curve, false) },
		func() error { return sc.Attach(res.Up, res.North, false) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// ImportBatch imports paths one after another. A failing file is logged and
// skipped; its Result carries the error.
func ImportBatch(sc scene.Collaborator, paths []string, opts Options) []Result {
	results := make([]Result, 0, len(paths))
	for _, p := range paths {
		res, err := Import(sc, p, opts)
		if err != nil {
			res.Err = err
			attrs := []any{"path", p, "error", err}
			var ie *Error
			if errors.As(err, &ie) {
				attrs = append(attrs, "stage", ie.Stage.String())
			}
			slog.Warn("kml import failed", attrs...)
		} else {
			slog.Info("kml imported", "path", p, "object", res.Name, "points", res.Points, "curve", opts.Curve)
		}
		results = append(results, res)
	}
	return results
}

// ResolvePaths joins each relative file name onto directory. Without file
// names the fallback path is used on its own.
func ResolvePaths(directory string, files []string, fallback string) []string {
	var paths []string
	for _, f := range files {
		switch {
		case f == "":
			continue
		case filepath.IsAbs(f):
			paths = append(paths, f)
		default:
			paths = append(paths, filepath.Join(directory, f))
		}
	}
	if len(paths) == 0 && fallback != "" {
		paths = append(paths, fallback)
	}
	return paths
}

// ObjectName is the file's base name without its extension.
func ObjectName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
