package importer

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	kml "github.com/twpayne/go-kml"
	"gonum.org/v1/gonum/spatial/r3"

	"kmlcurve/internal/geom"
	"kmlcurve/internal/scene"
)

// A ~150 m walk near Zurich main station.
var walk = []kml.Coordinate{
	{Lon: 8.5402, Lat: 47.3782, Alt: 408},
	{Lon: 8.5410, Lat: 47.3786, Alt: 409},
	{Lon: 8.5421, Lat: 47.3790, Alt: 410},
	{Lon: 8.5425, Lat: 47.3781, Alt: 410},
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func pathKML(t *testing.T, coords ...kml.Coordinate) string {
	t.Helper()
	var buf bytes.Buffer
	doc := kml.KML(kml.Placemark(kml.Name("walk"), kml.LineString(kml.Coordinates(coords...))))
	if err := doc.WriteIndent(&buf, "", "  "); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func near(a, b r3.Vec, eps float64) bool { return r3.Norm(r3.Sub(a, b)) <= eps }

func sameRotation(a, b r3.Rotation) bool {
	for _, v := range []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}} {
		if !near(a.Rotate(v), b.Rotate(v), 1e-9) {
			return false
		}
	}
	return true
}

func TestImport_ComposesHierarchy(t *testing.T) {
	path := writeFile(t, t.TempDir(), "walk.kml", pathKML(t, walk...))
	g := scene.NewGraph()

	res, err := Import(g, path, Options{Scale: 1, Mode: geom.PathMode, Curve: geom.Poly})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Name != "walk" || res.Points != len(walk) || res.Stage != StageDone {
		t.Errorf("result = %+v", res)
	}

	crv, _ := g.Object(res.Curve)
	north, _ := g.Object(res.North)
	up, _ := g.Object(res.Up)
	axes, _ := g.Object(res.Axes)

	if crv.Parent != res.Up || north.Parent != res.Up {
		t.Errorf("curve parent = %d, north parent = %d, want Up (%d)", crv.Parent, north.Parent, res.Up)
	}
	if axes.Parent != res.Curve {
		t.Errorf("axes parent = %d, want curve (%d)", axes.Parent, res.Curve)
	}
	if up.Parent != scene.None || up.Display != scene.SingleArrow || axes.Display != scene.PlainAxes {
		t.Errorf("up = %+v, axes = %+v", up, axes)
	}

	upW, _ := g.World(res.Up)
	crvW, _ := g.World(res.Curve)
	if !sameRotation(upW.Rot, geom.IdentityRotation()) || !sameRotation(crvW.Rot, geom.IdentityRotation()) {
		t.Error("up and curve should end unrotated")
	}

	northW, _ := g.World(res.North)
	tilt := r3.NewRotation(-math.Pi/2, r3.Vec{Y: 1})
	if !sameRotation(northW.Rot, tilt) {
		t.Error("north should end rotated -90 degrees about Y")
	}

	inv := geom.Inverse(res.Orientation.Up)
	axesW, _ := g.World(res.Axes)
	if !sameRotation(axesW.Rot, inv) {
		t.Error("original axes should carry the inverse up rotation")
	}

	// The baked curve lies in the tangent plane of its first point, give or
	// take the few meters of altitude change along the walk.
	raw, _, _ := geom.BuildCurve(toGeo(walk), 1, geom.Poly)
	for i, p := range crv.Curve.Points {
		want := inv.Rotate(raw.Points[i].Co)
		if !near(p.Co, want, 1e-6) {
			t.Errorf("point %d = %+v, want %+v", i, p.Co, want)
		}
		if math.Abs(p.Co.Z) > 3 {
			t.Errorf("point %d height above tangent plane = %v", i, p.Co.Z)
		}
	}
	if crv.Curve.Points[0].Co != (r3.Vec{}) {
		t.Errorf("first point = %+v, want origin", crv.Curve.Points[0].Co)
	}
}

func toGeo(cs []kml.Coordinate) []geom.GeoPoint {
	out := make([]geom.GeoPoint, len(cs))
	for i, c := range cs {
		out[i] = geom.GeoPoint{Lon: c.Lon, Lat: c.Lat, Alt: c.Alt}
	}
	return out
}

func TestImport_NoCoordinates(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.kml", `<kml><Document><name>nothing</name></Document></kml>`)
	g := scene.NewGraph()

	res, err := Import(g, path, DefaultOptions())
	if !errors.Is(err, geom.ErrNoCoordinates) {
		t.Fatalf("err = %v, want ErrNoCoordinates", err)
	}
	var ie *Error
	if !errors.As(err, &ie) || ie.Stage != StageExtract || ie.Path != path {
		t.Errorf("err = %#v", err)
	}
	if res.Stage != StageExtract || res.Curve != scene.None {
		t.Errorf("result = %+v", res)
	}
	if n := len(g.Objects()); n != 0 {
		t.Errorf("scene has %d objects, want 0", n)
	}
}

func TestImport_InvalidScale(t *testing.T) {
	path := writeFile(t, t.TempDir(), "walk.kml", pathKML(t, walk...))
	g := scene.NewGraph()

	_, err := Import(g, path, Options{Scale: 0, Curve: geom.Poly})
	var ie *Error
	if !errors.As(err, &ie) || ie.Stage != StageBuildCurve || !errors.Is(err, geom.ErrInvalidScale) {
		t.Fatalf("err = %v", err)
	}
	if n := len(g.Objects()); n != 0 {
		t.Errorf("scene has %d objects, want 0", n)
	}
}

type failingScene struct {
	*scene.Graph
	attachFn func(parent, child scene.ID, preserve bool) error
}

func (f *failingScene) Attach(parent, child scene.ID, preserve bool) error {
	if f.attachFn != nil {
		return f.attachFn(parent, child, preserve)
	}
	return f.Graph.Attach(parent, child, preserve)
}

func TestImport_CollaboratorFailure(t *testing.T) {
	boom := errors.New("host refused parenting")
	sc := &failingScene{Graph: scene.NewGraph(), attachFn: func(_, _ scene.ID, _ bool) error { return boom }}

	_, err := ImportReader(sc, "walk", strings.NewReader(pathKML(t, walk...)), DefaultOptions())
	var ie *Error
	if !errors.As(err, &ie) || ie.Stage != StageComposeHierarchy || !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestImportReader_BezierPoints(t *testing.T) {
	doc := `<kml><Document>
  <Placemark><Point><coordinates>8.5402,47.3782,408</coordinates></Point></Placemark>
  <Placemark><Point><coordinates>8.5410,47.3786</coordinates></Point></Placemark>
  <Placemark><LineString><coordinates>0,0 1,1</coordinates></LineString></Placemark>
</Document></kml>`
	g := scene.NewGraph()

	res, err := ImportReader(g, "pasted", strings.NewReader(doc), Options{Scale: 0.5, Mode: geom.PointMode, Curve: geom.Bezier})
	if err != nil {
		t.Fatalf("ImportReader: %v", err)
	}
	o, _ := g.Object(res.Curve)
	if o.Name != "pasted" || o.Curve.Type != geom.Bezier || len(o.Curve.Points) != 2 {
		t.Errorf("curve = %+v", o)
	}
}

func TestImportBatch_ContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "first.kml", pathKML(t, walk...)),
		writeFile(t, dir, "empty.kml", `<kml/>`),
		writeFile(t, dir, "broken.kml", `<kml><<LineString/></kml>`),
		filepath.Join(dir, "missing.kml"),
		writeFile(t, dir, "second.kml", pathKML(t, walk[:2]...)),
	}
	g := scene.NewGraph()

	results := ImportBatch(g, paths, DefaultOptions())
	if len(results) != len(paths) {
		t.Fatalf("results = %d, want %d", len(results), len(paths))
	}
	if results[0].Err != nil || results[4].Err != nil {
		t.Errorf("good files failed: %v, %v", results[0].Err, results[4].Err)
	}
	if !errors.Is(results[1].Err, geom.ErrNoCoordinates) {
		t.Errorf("empty.kml err = %v", results[1].Err)
	}
	if !errors.Is(results[2].Err, geom.ErrUnparsableXML) {
		t.Errorf("broken.kml err = %v", results[2].Err)
	}
	if !errors.Is(results[3].Err, os.ErrNotExist) {
		t.Errorf("missing.kml err = %v", results[3].Err)
	}

	var names []string
	for _, o := range g.Objects() {
		names = append(names, o.Name)
	}
	want := []string{"first", "North", "Up", "Original Axes", "second", "North.001", "Up.001", "Original Axes.001"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("objects = %v, want %v", names, want)
	}
}

func TestResolvePaths(t *testing.T) {
	tests := []struct {
		name     string
		dir      string
		files    []string
		fallback string
		want     []string
	}{
		{"files", "/data", []string{"a.kml", "", "sub/b.kml"}, "/x.kml", []string{filepath.Join("/data", "a.kml"), filepath.Join("/data", "sub", "b.kml")}},
		{"absolute", "/data", []string{"/tmp/c.kml"}, "", []string{"/tmp/c.kml"}},
		{"fallback", "/data", nil, "/x.kml", []string{"/x.kml"}},
		{"nothing", "", nil, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolvePaths(tt.dir, tt.files, tt.fallback); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolvePaths = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	for in, want := range map[string]string{
		"/tmp/tracks/morning run.kml": "morning run",
		"route.v2.kml":                "route.v2",
		"plain":                       "plain",
	} {
		if got := ObjectName(in); got != want {
			t.Errorf("ObjectName(%q) = %q, want %q", in, got, want)
		}
	}
}
