package mapengine

import (
	"math"
	"testing"
	"time"

	"github.com/osintfoundry/threat-map/pkg/geo"
)

func TestZoomAlwaysClamped(t *testing.T) {
	c := NewTransformController(geo.NaturalEarth)
	seq := []struct {
		op   string
		arg  float64
		want float64
	}{
		{"by", 2, 2},
		{"by", 10, 8},     // clamped at maxZoom
		{"by", 0.01, 0.5}, // clamped at minZoom
		{"to", 3.5, 3.5},
		{"to", 100, 8},
		{"to", -4, 0.5},
		{"by", 0.9, 0.5}, // 0.45 clamps back to the floor
	}
	for i, s := range seq {
		if s.op == "by" {
			c.ZoomBy(s.arg)
		} else {
			c.ZoomTo(s.arg)
		}
		got := c.Transform().Scale
		if math.Abs(got-s.want) > 1e-9 {
			t.Fatalf("step %d: scale = %v; want %v", i, got, s.want)
		}
		if got < 0.5-1e-9 || got > 8+1e-9 {
			t.Fatalf("step %d: scale %v escaped [0.5, 8]", i, got)
		}
	}
}

func TestOrthographicZoomFloor(t *testing.T) {
	c := NewTransformController(geo.Orthographic)
	c.ZoomTo(0.1)
	if got := c.Transform().Scale; got != 0.8 {
		t.Errorf("orthographic min zoom = %v; want 0.8", got)
	}
}

func TestSwitchProjectionReclampsScale(t *testing.T) {
	c := NewTransformController(geo.NaturalEarth)
	c.ZoomTo(0.5)
	c.SetProjectionKind(geo.Orthographic)
	if got := c.Transform().Scale; got != 0.8 {
		t.Errorf("scale after switch = %v; want re-clamped 0.8", got)
	}
}

func TestPanAndReset(t *testing.T) {
	c := NewTransformController(geo.Mercator)
	c.PanBy(40, -10)
	c.PanBy(5, 5)
	vt := c.Transform()
	if vt.TranslateX != 45 || vt.TranslateY != -5 {
		t.Errorf("translate = (%v, %v); want (45, -5)", vt.TranslateX, vt.TranslateY)
	}
	c.ResetToIdentity()
	vt = c.Transform()
	if vt.Scale != 1 || vt.TranslateX != 0 || vt.TranslateY != 0 || vt.Rotation != [3]float64{} {
		t.Errorf("after reset: %+v", vt)
	}
}

func TestFitToViewportUsesFixedScale(t *testing.T) {
	c := NewTransformController(geo.Robinson)
	c.ZoomTo(5)
	c.PanBy(100, 60)
	c.FitToViewport()
	vt := c.Transform()
	if vt.Scale != 0.9 || vt.TranslateX != 0 || vt.TranslateY != 0 {
		t.Errorf("fit = %+v; want scale 0.9, translate (0,0)", vt)
	}
}

func TestRotateByIgnoredForFlatProjections(t *testing.T) {
	c := NewTransformController(geo.Eckert4)
	c.RotateBy(30, 10)
	if vt := c.Transform(); vt.Rotation != [3]float64{} {
		t.Errorf("rotation = %v; want untouched zero", vt.Rotation)
	}
}

func TestRotateBySensitivity(t *testing.T) {
	c := NewTransformController(geo.Orthographic)
	c.RotateBy(30, 10)
	vt := c.Transform()
	if vt.Rotation[0] != 15 || vt.Rotation[1] != 5 {
		t.Errorf("rotation = %v; want (15, 5, 0) after 0.5 sensitivity", vt.Rotation)
	}
}

func TestResetTransitionEndsAtIdentity(t *testing.T) {
	c := NewTransformController(geo.NaturalEarth)
	c.ZoomTo(3.2)
	c.PanBy(40, -10)

	start := time.Now()
	c.StartResetTransition(start)
	if !c.Transitioning() {
		t.Fatal("transition should be in flight")
	}

	// Mid-flight the transform is strictly between start and identity.
	c.Step(start.Add(resetDuration / 2))
	mid := c.Transform()
	if mid.Scale >= 3.2 || mid.Scale <= 1 {
		t.Errorf("mid-transition scale = %v; want between 1 and 3.2", mid.Scale)
	}

	c.Step(start.Add(resetDuration + time.Millisecond))
	vt := c.Transform()
	if vt.Scale != 1 || vt.TranslateX != 0 || vt.TranslateY != 0 {
		t.Errorf("transition end = %+v; want identity", vt)
	}
	if c.Transitioning() {
		t.Error("transition should have landed")
	}
}

func TestGestureAppliesFromBaselineNotIncrementally(t *testing.T) {
	c := NewTransformController(geo.NaturalEarth)
	c.PanBy(10, 10)
	g := c.BeginGesture(GesturePan, 100, 100)

	// Many intermediate moves must not accumulate; only the offset from
	// the captured baseline matters.
	for i := 0; i < 50; i++ {
		c.ApplyGesture(g, 100+float64(i), 100)
	}
	c.ApplyGesture(g, 130, 80)
	vt := c.Transform()
	if vt.TranslateX != 40 || vt.TranslateY != -10 {
		t.Errorf("translate = (%v, %v); want baseline (10,10) plus delta (30,-20)", vt.TranslateX, vt.TranslateY)
	}
}

func TestRotateGestureFromBaseline(t *testing.T) {
	c := NewTransformController(geo.Orthographic)
	c.RotateBy(20, 0) // rotation now (10, 0, 0)
	g := c.BeginGesture(GestureRotate, 200, 200)
	c.ApplyGesture(g, 240, 220)
	vt := c.Transform()
	if vt.Rotation[0] != 10+40*0.5 {
		t.Errorf("lambda = %v; want 30", vt.Rotation[0])
	}
	if vt.Rotation[1] != -20*0.5 {
		t.Errorf("phi = %v; want -10", vt.Rotation[1])
	}
}

func TestViewportChangeFiresAfterCommands(t *testing.T) {
	c := NewTransformController(geo.NaturalEarth)
	var events []ViewTransform
	c.OnChange(func(vt ViewTransform) { events = append(events, vt) })
	c.ZoomBy(2)
	c.PanBy(1, 1)
	c.FitToViewport()
	if len(events) != 3 {
		t.Fatalf("got %d viewport events; want 3", len(events))
	}
	if events[0].Scale != 2 {
		t.Errorf("first event scale = %v; want 2", events[0].Scale)
	}
	if events[2].Scale != 0.9 {
		t.Errorf("last event scale = %v; want 0.9", events[2].Scale)
	}
}
