package geom

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

var (
	ErrNoCoordinates = errors.New("kml: no coordinates found")
	ErrUnparsableXML = errors.New("kml: unparsable xml")
)

const (
	tagCoordinates = "coordinates"
	tagPoint       = "Point"
	tagTrackCoord  = "gx:coord"
)

// LoadKML parses the KML file at path and extracts its coordinates.
func LoadKML(path string, mode SelectMode) ([]GeoPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadKML(f, mode)
}

// ReadKML is LoadKML for an already opened document.
func ReadKML(r io.Reader, mode SelectMode) ([]GeoPoint, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparsableXML, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", ErrUnparsableXML)
	}
	return ExtractPoints(doc, mode)
}

// ExtractPoints collects coordinates from a parsed KML document.
//
// In PointMode every <coordinates> directly under a <Point> contributes one
// tuple. In PathMode only the first <coordinates> block outside a <Point> is
// read; later blocks are ignored. When neither yields anything the gx:coord
// track elements are used instead, one tuple per element.
func ExtractPoints(doc *etree.Document, mode SelectMode) ([]GeoPoint, error) {
	var points []GeoPoint
	for _, el := range elementsByTag(&doc.Element, tagCoordinates) {
		underPoint := parentTag(el) == tagPoint
		if mode == PointMode {
			if !underPoint {
				continue
			}
			if p, ok := parseTuple(strings.Split(strings.TrimSpace(el.Text()), ",")); ok {
				points = append(points, p)
			}
			continue
		}
		if underPoint {
			continue
		}
		points = append(points, parseCoordinateBlock(el.Text())...)
		break
	}

	if len(points) == 0 {
		for _, el := range elementsByTag(&doc.Element, tagTrackCoord) {
			if p, ok := parseTuple(strings.Fields(el.Text())); ok {
				points = append(points, p)
			}
		}
	}

	if len(points) == 0 {
		return nil, ErrNoCoordinates
	}
	return points, nil
}

// parseCoordinateBlock reads whitespace separated "lon,lat[,alt]" tokens.
// Malformed tokens are skipped.
func parseCoordinateBlock(text string) []GeoPoint {
	var out []GeoPoint
	for _, tok := range strings.Fields(text) {
		p, ok := parseTuple(strings.Split(tok, ","))
		if !ok {
			slog.Debug("kml: skipping malformed coordinate", "token", tok)
			continue
		}
		out = append(out, p)
	}
	return out
}

// parseTuple turns lon, lat and optional alt fields into a GeoPoint.
// Fields past the third are ignored.
func parseTuple(fields []string) (GeoPoint, bool) {
	if len(fields) < 2 {
		return GeoPoint{}, false
	}
	if len(fields) > 3 {
		fields = fields[:3]
	}
	var vals [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return GeoPoint{}, false
		}
		vals[i] = v
	}
	return GeoPoint{Lon: vals[0], Lat: vals[1], Alt: vals[2]}, true
}

// elementsByTag returns every descendant of root whose qualified name is tag,
// in document order.
func elementsByTag(root *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			if c.FullTag() == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func parentTag(e *etree.Element) string {
	if p := e.Parent(); p != nil {
		return p.FullTag()
	}
	return ""
}
