package mapengine

import (
	"image/color"

	"github.com/osintfoundry/threat-map/pkg/geo"
)

// Point2 is a screen-space point.
type Point2 struct {
	X, Y float64
}

// CountryShape is the retained scene entry for one country: its projected
// screen rings plus the style resolved from the dataset and theme. Shapes
// are rebuilt from immutable inputs on every render pass; nothing mutates
// a live shape.
type CountryShape struct {
	Name string
	// Polygons -> rings; ring 0 of each polygon is the outer boundary,
	// later rings are holes. Even-odd filling and hit testing treat them
	// uniformly.
	Polygons [][][]Point2
	Fill     color.RGBA
	HasData  bool
	Level    RiskLevel

	Centroid        Point2
	CentroidVisible bool
}

// Scene is one render pass worth of drawable shapes.
type Scene struct {
	Shapes []CountryShape
	byName map[string]int
	Width  int
	Height int
}

// Shape returns the scene entry for a country name, or nil.
func (s *Scene) Shape(name string) *CountryShape {
	if i, ok := s.byName[name]; ok {
		return &s.Shapes[i]
	}
	return nil
}

// BuildScene projects every country through the projection and the view
// transform and resolves fills. Dataset keys without geometry are ignored
// here simply by never being looked up.
func BuildScene(world *WorldGeometry, data RiskDataset, proj *geo.Projection, vt ViewTransform, theme Theme, width, height int) *Scene {
	s := &Scene{
		byName: make(map[string]int, len(world.Countries)),
		Width:  width,
		Height: height,
	}
	cx, cy := float64(width)/2, float64(height)/2
	apply := func(x, y float64) Point2 {
		// Zoom about the viewport center, then pan.
		return Point2{
			X: (x-cx)*vt.Scale + cx + vt.TranslateX,
			Y: (y-cy)*vt.Scale + cy + vt.TranslateY,
		}
	}
	proj.SetRotation(vt.Rotation[0], vt.Rotation[1], vt.Rotation[2])

	for _, country := range world.Countries {
		var rec *RiskRecord
		if r, ok := data[country.Name]; ok {
			rec = &r
		}
		shape := CountryShape{
			Name:    country.Name,
			Fill:    theme.FillFor(rec),
			HasData: rec != nil,
		}
		if rec != nil {
			shape.Level = rec.RiskLevel
		}
		for _, poly := range country.Polygons {
			var rings [][]Point2
			for _, ring := range poly {
				pts := make([]Point2, 0, len(ring))
				for _, coord := range ring {
					x, y, visible := proj.Project(coord[0], coord[1])
					if !visible {
						continue
					}
					pts = append(pts, apply(x, y))
				}
				if len(pts) >= 3 {
					rings = append(rings, pts)
				}
			}
			if len(rings) > 0 {
				shape.Polygons = append(shape.Polygons, rings)
			}
		}
		x, y, visible := proj.Project(country.CentroidLon, country.CentroidLat)
		shape.Centroid = apply(x, y)
		shape.CentroidVisible = visible
		s.byName[country.Name] = len(s.Shapes)
		s.Shapes = append(s.Shapes, shape)
	}
	return s
}

// HitTest returns the topmost country shape containing the screen point,
// or nil. Containment is even-odd across all rings, so holes and islands
// behave correctly and adjacent countries never both claim a point.
func (s *Scene) HitTest(x, y float64) *CountryShape {
	for i := len(s.Shapes) - 1; i >= 0; i-- {
		if s.Shapes[i].contains(x, y) {
			return &s.Shapes[i]
		}
	}
	return nil
}

func (c *CountryShape) contains(x, y float64) bool {
	inside := false
	for _, poly := range c.Polygons {
		for _, ring := range poly {
			n := len(ring)
			for i, j := 0, n-1; i < n; j, i = i, i+1 {
				pi, pj := ring[i], ring[j]
				if (pi.Y > y) != (pj.Y > y) &&
					x < (pj.X-pi.X)*(y-pi.Y)/(pj.Y-pi.Y)+pi.X {
					inside = !inside
				}
			}
		}
	}
	return inside
}
