package mapengine

import (
	"math"
	"time"

	"github.com/osintfoundry/threat-map/pkg/geo"
)

// ViewTransform is the pan/zoom/rotation state applied on top of the base
// projection. Scale is always inside [minZoom, MaxZoom]; rotation is only
// meaningful for the orthographic globe.
type ViewTransform struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
	Rotation   [3]float64 // lambda, phi, gamma in degrees
}

// IdentityTransform is the state after a reset.
func IdentityTransform() ViewTransform {
	return ViewTransform{Scale: 1}
}

// rotateSensitivity converts drag pixels to rotation degrees.
const rotateSensitivity = 0.5

// resetDuration is the length of the smooth double-click reset.
const resetDuration = 750 * time.Millisecond

// TransformController owns the ViewTransform. All mutation goes through its
// command methods; every command clamps and reports the settled state
// through onChange.
type TransformController struct {
	vt        ViewTransform
	minZoom   float64
	rotatable bool
	trans     *transition
	onChange  func(ViewTransform)
}

type transition struct {
	from    ViewTransform
	to      ViewTransform
	startAt time.Time
}

func NewTransformController(kind geo.Kind) *TransformController {
	c := &TransformController{vt: IdentityTransform()}
	c.SetProjectionKind(kind)
	return c
}

// SetProjectionKind adjusts the zoom floor and rotation availability after
// a projection switch. Pan/zoom persist across switches by design; the
// current scale is re-clamped in case the floor rose.
func (c *TransformController) SetProjectionKind(kind geo.Kind) {
	c.minZoom = kind.MinZoom()
	c.rotatable = kind == geo.Orthographic
	c.vt.Scale = c.clampScale(c.vt.Scale)
}

// OnChange registers the viewport-change listener. Commands fire it after
// they settle; transition steps fire it once on completion.
func (c *TransformController) OnChange(fn func(ViewTransform)) { c.onChange = fn }

// Transform returns the current state.
func (c *TransformController) Transform() ViewTransform { return c.vt }

func (c *TransformController) clampScale(s float64) float64 {
	if s < c.minZoom {
		return c.minZoom
	}
	if s > geo.MaxZoom {
		return geo.MaxZoom
	}
	return s
}

func (c *TransformController) settled() {
	if c.onChange != nil {
		c.onChange(c.vt)
	}
}

// ZoomBy multiplies the current scale, clamped to the zoom range.
func (c *TransformController) ZoomBy(factor float64) {
	c.trans = nil
	c.vt.Scale = c.clampScale(c.vt.Scale * factor)
	c.settled()
}

// ZoomTo sets the scale directly, clamped.
func (c *TransformController) ZoomTo(scale float64) {
	c.trans = nil
	c.vt.Scale = c.clampScale(scale)
	c.settled()
}

// PanBy shifts the translate offset.
func (c *TransformController) PanBy(dx, dy float64) {
	c.trans = nil
	c.vt.TranslateX += dx
	c.vt.TranslateY += dy
	c.settled()
}

// RotateBy adds a drag delta (screen pixels) to the globe rotation, scaled
// by the fixed sensitivity. Silently ignored for flat projections.
func (c *TransformController) RotateBy(dLambda, dPhi float64) {
	if !c.rotatable {
		return
	}
	c.trans = nil
	c.vt.Rotation[0] += dLambda * rotateSensitivity
	c.vt.Rotation[1] += dPhi * rotateSensitivity
	c.vt.Rotation[1] = clampDeg(c.vt.Rotation[1], -89, 89)
	c.settled()
}

// ResetToIdentity snaps to scale 1, no pan, no rotation.
func (c *TransformController) ResetToIdentity() {
	c.trans = nil
	c.vt = IdentityTransform()
	c.settled()
}

// FitToViewport is the coarse "show whole world" shortcut. It deliberately
// uses a fixed scale rather than a bounding-box fit of the loaded
// geometry; a true fit would be an enhancement, not a correction.
func (c *TransformController) FitToViewport() {
	c.trans = nil
	c.vt.Scale = c.clampScale(0.9)
	c.vt.TranslateX = 0
	c.vt.TranslateY = 0
	c.settled()
}

// StartResetTransition begins the eased double-click reset.
func (c *TransformController) StartResetTransition(now time.Time) {
	c.trans = &transition{from: c.vt, to: IdentityTransform(), startAt: now}
}

// Transitioning reports whether a smooth reset is in flight.
func (c *TransformController) Transitioning() bool { return c.trans != nil }

// Step advances an in-flight transition. It returns true when the
// transform changed this tick; the change listener fires only when the
// transition lands.
func (c *TransformController) Step(now time.Time) bool {
	if c.trans == nil {
		return false
	}
	t := float64(now.Sub(c.trans.startAt)) / float64(resetDuration)
	if t >= 1 {
		c.vt = c.trans.to
		c.trans = nil
		c.settled()
		return true
	}
	if t < 0 {
		t = 0
	}
	e := easeInOutCubic(t)
	from, to := c.trans.from, c.trans.to
	c.vt.Scale = lerp(from.Scale, to.Scale, e)
	c.vt.TranslateX = lerp(from.TranslateX, to.TranslateX, e)
	c.vt.TranslateY = lerp(from.TranslateY, to.TranslateY, e)
	for i := 0; i < 3; i++ {
		c.vt.Rotation[i] = lerp(from.Rotation[i], to.Rotation[i], e)
	}
	return true
}

// GestureMode distinguishes pan drags from globe rotation drags.
type GestureMode int

const (
	GesturePan GestureMode = iota
	GestureRotate
)

// GestureState captures the drag baseline: the pointer position and
// transform at drag start. Drag moves apply a delta from this baseline
// instead of accumulating per-event increments, so event-rate jitter never
// drifts the view.
type GestureState struct {
	Mode   GestureMode
	StartX float64
	StartY float64
	Base   ViewTransform
}

// BeginGesture snapshots the baseline at pointer-down.
func (c *TransformController) BeginGesture(mode GestureMode, x, y float64) GestureState {
	c.trans = nil
	return GestureState{Mode: mode, StartX: x, StartY: y, Base: c.vt}
}

// ApplyGesture recomputes the transform from the gesture baseline and the
// current pointer position.
func (c *TransformController) ApplyGesture(g GestureState, x, y float64) {
	dx, dy := x-g.StartX, y-g.StartY
	switch g.Mode {
	case GestureRotate:
		if !c.rotatable {
			return
		}
		c.vt.Rotation = g.Base.Rotation
		c.vt.Rotation[0] = g.Base.Rotation[0] + dx*rotateSensitivity
		c.vt.Rotation[1] = clampDeg(g.Base.Rotation[1]-dy*rotateSensitivity, -89, 89)
	default:
		c.vt.TranslateX = g.Base.TranslateX + dx
		c.vt.TranslateY = g.Base.TranslateY + dy
	}
}

// EndGesture fires the settled viewport event once at pointer-up.
func (c *TransformController) EndGesture() { c.settled() }

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func clampDeg(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
