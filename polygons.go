package geofix

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
)

// CanonicalRegion is one named region from the polygon dataset: its geometry
// and a precomputed point guaranteed to lie inside it.
type CanonicalRegion struct {
	Name    string
	polygon *s2.Polygon
	rings   [][][2]float64 // raw (lon, lat) rings, kept for interior-point search
	rep     Coords
}

// PolygonIndex answers point-in-polygon, representative-point and
// nearest-polygon queries over the region dataset. Loaded once per run,
// immutable afterwards except for the nearest-query memo.
type PolygonIndex struct {
	regions  []*CanonicalRegion
	byFolded map[string]*CanonicalRegion
	shapes   *s2.ShapeIndex

	// nearestMemo caches Nearest results per geohash-encoded point; input
	// data repeats identical coordinates across many records.
	nearestMemo map[string]string
}

// geoJSON wire structures for the polygon dataset.
type geoJSONCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	Properties map[string]any  `json:"properties"`
	Geometry   geoJSONGeometry `json:"geometry"`
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// adminNameKeys are the property names tried, in order, for a feature's
// administrative name.
var adminNameKeys = []string{"ADMIN", "admin", "NAME", "name"}

// LoadPolygonIndex reads a GeoJSON FeatureCollection from path. A missing,
// unreadable or empty dataset is a precondition fault and returns an error.
func LoadPolygonIndex(path string) (*PolygonIndex, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening polygon dataset %s: %w", path, err)
	}
	defer fi.Close()
	idx, err := NewPolygonIndex(fi)
	if err != nil {
		return nil, fmt.Errorf("polygon dataset %s: %w", path, err)
	}
	return idx, nil
}

// NewPolygonIndex builds an index from GeoJSON read from r.
func NewPolygonIndex(r io.Reader) (*PolygonIndex, error) {
	var fc geoJSONCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decoding GeoJSON: %w", err)
	}

	pi := &PolygonIndex{
		byFolded:    make(map[string]*CanonicalRegion),
		shapes:      s2.NewShapeIndex(),
		nearestMemo: make(map[string]string),
	}

	for _, f := range fc.Features {
		name := featureName(f.Properties)
		if name == "" {
			continue
		}
		rings, err := featureRings(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", name, err)
		}
		if len(rings) == 0 {
			continue
		}

		region := &CanonicalRegion{
			Name:    name,
			polygon: polygonFromRings(rings),
			rings:   rings,
		}
		region.rep = representativePoint(region)

		key := Fold(name)
		if _, dup := pi.byFolded[key]; dup {
			// Names are unique after folding; keep the first feature.
			continue
		}
		pi.byFolded[key] = region
		pi.regions = append(pi.regions, region)
		pi.shapes.Add(region.polygon)
	}

	if len(pi.regions) == 0 {
		return nil, fmt.Errorf("no named polygon features in dataset")
	}
	return pi, nil
}

func featureName(props map[string]any) string {
	for _, k := range adminNameKeys {
		if v, ok := props[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// featureRings flattens Polygon and MultiPolygon geometry into a single ring
// list; s2 recovers the outer/hole nesting from loop containment.
func featureRings(g geoJSONGeometry) ([][][2]float64, error) {
	var out [][][2]float64
	appendRings := func(poly [][][]float64) {
		for _, ring := range poly {
			pts := make([][2]float64, 0, len(ring))
			for _, c := range ring {
				if len(c) < 2 {
					continue
				}
				pts = append(pts, [2]float64{c[0], c[1]})
			}
			// GeoJSON rings repeat the first point at the end.
			if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
				pts = pts[:len(pts)-1]
			}
			if len(pts) >= 3 {
				out = append(out, pts)
			}
		}
	}

	switch g.Type {
	case "Polygon":
		var poly [][][]float64
		if err := json.Unmarshal(g.Coordinates, &poly); err != nil {
			return nil, fmt.Errorf("decoding Polygon coordinates: %w", err)
		}
		appendRings(poly)
	case "MultiPolygon":
		var mp [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &mp); err != nil {
			return nil, fmt.Errorf("decoding MultiPolygon coordinates: %w", err)
		}
		for _, poly := range mp {
			appendRings(poly)
		}
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
	return out, nil
}

// polygonFromRings builds an s2 polygon. Normalizing each loop repairs
// inverted ring orientation from the source data; the polygon interior is
// the region covered by an odd number of loops, which handles holes
// (enclaves like Lesotho) without explicit nesting information.
func polygonFromRings(rings [][][2]float64) *s2.Polygon {
	loops := make([]*s2.Loop, 0, len(rings))
	for _, ring := range rings {
		pts := make([]s2.Point, 0, len(ring))
		for _, c := range ring {
			pts = append(pts, s2.PointFromLatLng(s2.LatLngFromDegrees(c[1], c[0])))
		}
		loop := s2.LoopFromPoints(pts)
		loop.Normalize()
		loops = append(loops, loop)
	}
	return s2.PolygonFromLoops(loops)
}

// validPoint rejects coordinate values that would misbehave inside s2.
func validPoint(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Contains returns the name of the region containing the point. When borders
// overlap, the first containing region in dataset order wins, which keeps
// the choice consistent for identical input across a run.
func (pi *PolygonIndex) Contains(lat, lon float64) (string, bool) {
	if !validPoint(lat, lon) {
		return "", false
	}
	p := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	for _, region := range pi.regions {
		if region.polygon.ContainsPoint(p) {
			return region.Name, true
		}
	}
	return "", false
}

// RepresentativePoint returns the interior point for the region with the
// given name (folded comparison), or false when the name is unknown.
func (pi *PolygonIndex) RepresentativePoint(name string) (Coords, bool) {
	region, ok := pi.byFolded[Fold(name)]
	if !ok {
		return Coords{}, false
	}
	return region.rep, true
}

// Canonical returns the properly-cased canonical name for any folded-equal
// spelling of a region name.
func (pi *PolygonIndex) Canonical(name string) (string, bool) {
	region, ok := pi.byFolded[Fold(name)]
	if !ok {
		return "", false
	}
	return region.Name, true
}

// Nearest returns the region whose boundary (or interior) is geodesically
// closest to the point. Distances are measured on the sphere, so results
// stay correct near the poles and the antimeridian.
func (pi *PolygonIndex) Nearest(lat, lon float64) string {
	if !validPoint(lat, lon) {
		return ""
	}
	key := geohash.EncodeWithPrecision(lat, lon, 9)
	if name, ok := pi.nearestMemo[key]; ok {
		return name
	}

	p := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	opts := s2.NewClosestEdgeQueryOptions().MaxResults(1).IncludeInteriors(true)
	query := s2.NewClosestEdgeQuery(pi.shapes, opts)
	target := s2.NewMinDistanceToPointTarget(p)

	name := ""
	if results := query.FindEdges(target); len(results) > 0 {
		id := int(results[0].ShapeID())
		if id >= 0 && id < len(pi.regions) {
			name = pi.regions[id].Name
		}
	}
	pi.nearestMemo[key] = name
	return name
}

// Names returns the canonical region names in dataset order.
func (pi *PolygonIndex) Names() []string {
	names := make([]string, len(pi.regions))
	for i, r := range pi.regions {
		names[i] = r.Name
	}
	return names
}

// Len returns the number of indexed regions.
func (pi *PolygonIndex) Len() int {
	return len(pi.regions)
}

// representativePoint finds a point inside the region. A raw centroid can
// fall outside concave or multi-part shapes, so the primary strategy is a
// scanline at the bounding-box mid-latitude: crossings with every ring are
// collected, and the midpoint of the widest interval that the polygon
// actually contains is chosen. Centroid and vertex fallbacks cover
// degenerate rings.
func representativePoint(region *CanonicalRegion) Coords {
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	for _, ring := range region.rings {
		for _, c := range ring {
			minLat = math.Min(minLat, c[1])
			maxLat = math.Max(maxLat, c[1])
		}
	}
	midLat := (minLat + maxLat) / 2

	var xs []float64
	for _, ring := range region.rings {
		n := len(ring)
		for i := 0; i < n; i++ {
			a, b := ring[i], ring[(i+1)%n]
			if (a[1] > midLat) == (b[1] > midLat) {
				continue
			}
			x := a[0] + (midLat-a[1])*(b[0]-a[0])/(b[1]-a[1])
			xs = append(xs, x)
		}
	}
	sort.Float64s(xs)

	type interval struct{ mid, width float64 }
	var intervals []interval
	for i := 0; i+1 < len(xs); i += 2 {
		intervals = append(intervals, interval{
			mid:   (xs[i] + xs[i+1]) / 2,
			width: xs[i+1] - xs[i],
		})
	}
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].width > intervals[j].width
	})

	contains := func(lat, lon float64) bool {
		if !validPoint(lat, lon) || lon < -180 || lon > 180 {
			return false
		}
		return region.polygon.ContainsPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon)))
	}

	for _, iv := range intervals {
		if contains(midLat, iv.mid) {
			return NewCoords(midLat, iv.mid)
		}
	}

	// Vertex-average centroid of the largest ring.
	var largest [][2]float64
	for _, ring := range region.rings {
		if len(ring) > len(largest) {
			largest = ring
		}
	}
	var sumLat, sumLon float64
	for _, c := range largest {
		sumLat += c[1]
		sumLon += c[0]
	}
	cLat, cLon := sumLat/float64(len(largest)), sumLon/float64(len(largest))
	if contains(cLat, cLon) {
		return NewCoords(cLat, cLon)
	}
	if len(intervals) > 0 {
		return NewCoords(midLat, intervals[0].mid)
	}
	return NewCoords(cLat, cLon)
}
