package mapengine

import (
	"errors"
	"fmt"
	"io"
	"math"

	geojson "github.com/paulmach/go.geojson"

	"github.com/osintfoundry/threat-map/pkg/fetchcache"
)

// ErrWorldUnavailable marks the terminal state entered when the world
// geometry cannot be fetched or parsed. The engine draws nothing but an
// error banner once in this state.
var ErrWorldUnavailable = errors.New("mapengine: world geometry unavailable")

// Country is a single feature of the world document: a display name plus a
// multipolygon boundary in longitude/latitude degrees.
type Country struct {
	Name string
	// Polygons -> rings -> points -> [lon, lat]
	Polygons [][][][]float64
	// Lon/lat centroid of the largest outer ring, used to anchor pulses.
	CentroidLon float64
	CentroidLat float64
}

// WorldGeometry is the immutable set of countries loaded once per mount.
type WorldGeometry struct {
	Countries []Country
	byName    map[string]int
}

// Country returns the named country, or nil when the dataset key has no
// geometry match.
func (w *WorldGeometry) Country(name string) *Country {
	if i, ok := w.byName[name]; ok {
		return &w.Countries[i]
	}
	return nil
}

// nameProperty is the feature property used as the join key against the
// risk dataset. Common world files disagree on its casing.
var namePropertyKeys = []string{"name", "NAME", "admin", "ADMIN", "name_long"}

func featureName(f *geojson.Feature) string {
	for _, key := range namePropertyKeys {
		if s, err := f.PropertyString(key); err == nil && s != "" {
			return s
		}
	}
	return ""
}

// ParseWorld decodes a GeoJSON FeatureCollection into WorldGeometry.
// Features without a name property or polygon geometry are skipped.
func ParseWorld(data []byte) (*WorldGeometry, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse world geometry: %w", err)
	}
	w := &WorldGeometry{byName: make(map[string]int)}
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		name := featureName(f)
		if name == "" {
			continue
		}
		var polys [][][][]float64
		if f.Geometry.IsPolygon() {
			polys = [][][][]float64{f.Geometry.Polygon}
		} else if f.Geometry.IsMultiPolygon() {
			polys = f.Geometry.MultiPolygon
		} else {
			continue
		}
		c := Country{Name: name, Polygons: polys}
		c.CentroidLon, c.CentroidLat = multiPolygonCentroid(polys)
		if _, dup := w.byName[name]; dup {
			continue
		}
		w.byName[name] = len(w.Countries)
		w.Countries = append(w.Countries, c)
	}
	if len(w.Countries) == 0 {
		return nil, fmt.Errorf("parse world geometry: no named polygon features")
	}
	return w, nil
}

// LoadWorld fetches the world document from a URL (cached after the first
// fetch when cacheDir is set) and parses it. This is the one-shot async
// load per mount; any failure is terminal for the mount.
func LoadWorld(url, cacheDir string) (*WorldGeometry, error) {
	r, err := fetchcache.Open(url, cacheDir, "[world]")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorldUnavailable, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorldUnavailable, err)
	}
	w, err := ParseWorld(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorldUnavailable, err)
	}
	return w, nil
}

// multiPolygonCentroid returns the area centroid of the largest outer ring.
// Planar shoelace math is fine here: the anchor only has to land inside the
// country, not be geodetically exact.
func multiPolygonCentroid(polys [][][][]float64) (lon, lat float64) {
	bestArea := 0.0
	for _, poly := range polys {
		if len(poly) == 0 {
			continue
		}
		a, cx, cy := ringCentroid(poly[0])
		if math.Abs(a) > math.Abs(bestArea) {
			bestArea = a
			lon, lat = cx, cy
		}
	}
	return lon, lat
}

func ringCentroid(ring [][]float64) (area, cx, cy float64) {
	n := len(ring)
	if n < 3 {
		return 0, 0, 0
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
		area += cross
		cx += (ring[i][0] + ring[j][0]) * cross
		cy += (ring[i][1] + ring[j][1]) * cross
	}
	area /= 2
	if math.Abs(area) < 1e-12 {
		// Degenerate ring; fall back to the vertex mean.
		var sx, sy float64
		for _, p := range ring {
			sx += p[0]
			sy += p[1]
		}
		return 0, sx / float64(n), sy / float64(n)
	}
	return area, cx / (6 * area), cy / (6 * area)
}
