package geo

import (
	"errors"
	"math"
)

// ErrInvalidViewport is returned when a projection is requested for a
// viewport with a non-positive dimension. The engine retries on the next
// resize instead of surfacing this to the host repeatedly.
var ErrInvalidViewport = errors.New("geo: viewport dimensions must be positive")

// Projection maps longitude/latitude degrees to screen pixels for one
// projection kind and viewport. Rotation only affects the orthographic
// globe; SetRotation is a no-op for every other kind.
type Projection struct {
	kind  Kind
	raw   rawProjection
	scale float64
	tx    float64
	ty    float64

	rotation [3]float64 // lambda, phi, gamma in degrees
	rot      *rotator
}

// NewProjection builds a projection centered on the viewport midpoint with
// the kind's base scale multiplier applied to min(width, height).
func NewProjection(kind Kind, width, height float64) (*Projection, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidViewport
	}
	return &Projection{
		kind:  kind,
		raw:   rawFor(kind),
		scale: kind.scaleMultiplier() * math.Min(width, height),
		tx:    width / 2,
		ty:    height / 2,
	}, nil
}

func (p *Projection) Kind() Kind { return p.kind }

// Scale returns the current projection scale in pixels per unit.
func (p *Projection) Scale() float64 { return p.scale }

// MulScale multiplies the projection scale.
func (p *Projection) MulScale(factor float64) { p.scale *= factor }

// Translate shifts the projection center.
func (p *Projection) Translate(dx, dy float64) {
	p.tx += dx
	p.ty += dy
}

// Center returns the screen point the projection is centered on.
func (p *Projection) Center() (x, y float64) { return p.tx, p.ty }

// SetRotation sets the globe rotation triple in degrees. Ignored for
// non-orthographic kinds, where rotation has no meaning.
func (p *Projection) SetRotation(lambda, phi, gamma float64) {
	if p.kind != Orthographic {
		return
	}
	p.rotation = [3]float64{lambda, phi, gamma}
	if lambda == 0 && phi == 0 && gamma == 0 {
		p.rot = nil
		return
	}
	p.rot = newRotator(rad(lambda), rad(phi), rad(gamma))
}

// Rotation returns the active rotation triple in degrees.
func (p *Projection) Rotation() (lambda, phi, gamma float64) {
	return p.rotation[0], p.rotation[1], p.rotation[2]
}

// Project maps a longitude/latitude pair in degrees to screen coordinates.
// visible is false when the point falls on the culled back hemisphere of
// the orthographic globe; it is always true for flat projections.
func (p *Projection) Project(lon, lat float64) (x, y float64, visible bool) {
	lambda, phi := rad(lon), rad(lat)
	if p.rot != nil {
		lambda, phi = p.rot.forward(lambda, phi)
	}
	if p.kind == Orthographic {
		// Clip angle fixed at 90 degrees: cull where cos(c) < 0.
		if math.Cos(lambda)*math.Cos(phi) < 0 {
			rx, ry := p.raw.forward(lambda, phi)
			return p.tx + p.scale*rx, p.ty - p.scale*ry, false
		}
	}
	rx, ry := p.raw.forward(lambda, phi)
	return p.tx + p.scale*rx, p.ty - p.scale*ry, true
}

// Invert maps screen coordinates back to longitude/latitude degrees. ok is
// false outside the projection's valid image (for example off the globe
// disc or beyond the antimeridian).
func (p *Projection) Invert(x, y float64) (lon, lat float64, ok bool) {
	rx := (x - p.tx) / p.scale
	ry := (p.ty - y) / p.scale
	lambda, phi, ok := p.raw.inverse(rx, ry)
	if !ok {
		return 0, 0, false
	}
	if p.rot != nil {
		lambda, phi = p.rot.inverse(lambda, phi)
	}
	return deg(lambda), deg(phi), true
}

// rotator applies a three-axis spherical rotation and its inverse.
type rotator struct {
	deltaLambda        float64
	cosPhi, sinPhi     float64
	cosGamma, sinGamma float64
	identityPhiGamma   bool
}

func newRotator(deltaLambda, deltaPhi, deltaGamma float64) *rotator {
	return &rotator{
		deltaLambda:      deltaLambda,
		cosPhi:           math.Cos(deltaPhi),
		sinPhi:           math.Sin(deltaPhi),
		cosGamma:         math.Cos(deltaGamma),
		sinGamma:         math.Sin(deltaGamma),
		identityPhiGamma: deltaPhi == 0 && deltaGamma == 0,
	}
}

func (r *rotator) forward(lambda, phi float64) (float64, float64) {
	lambda += r.deltaLambda
	if lambda > math.Pi {
		lambda -= 2 * math.Pi
	} else if lambda < -math.Pi {
		lambda += 2 * math.Pi
	}
	if r.identityPhiGamma {
		return lambda, phi
	}
	cosPhi := math.Cos(phi)
	x := math.Cos(lambda) * cosPhi
	y := math.Sin(lambda) * cosPhi
	z := math.Sin(phi)
	k := z*r.cosPhi + x*r.sinPhi
	return math.Atan2(y*r.cosGamma-k*r.sinGamma, x*r.cosPhi-z*r.sinPhi),
		math.Asin(clamp(k*r.cosGamma+y*r.sinGamma, -1, 1))
}

func (r *rotator) inverse(lambda, phi float64) (float64, float64) {
	if !r.identityPhiGamma {
		cosPhi := math.Cos(phi)
		x := math.Cos(lambda) * cosPhi
		y := math.Sin(lambda) * cosPhi
		z := math.Sin(phi)
		k := z*r.cosGamma - y*r.sinGamma
		lambda = math.Atan2(y*r.cosGamma+z*r.sinGamma, x*r.cosPhi+k*r.sinPhi)
		phi = math.Asin(clamp(k*r.cosPhi-x*r.sinPhi, -1, 1))
	}
	lambda -= r.deltaLambda
	if lambda > math.Pi {
		lambda -= 2 * math.Pi
	} else if lambda < -math.Pi {
		lambda += 2 * math.Pi
	}
	return lambda, phi
}

func rad(d float64) float64 { return d * math.Pi / 180 }

func deg(r float64) float64 { return r * 180 / math.Pi }
