package mapengine

import (
	"errors"
	"testing"
	"time"

	"github.com/osintfoundry/threat-map/pkg/geo"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(Config{Width: 800, Height: 600, Projection: geo.NaturalEarth})
	e.SetWorld(testWorld())
	e.rebuildScene()
	return e
}

func TestProjectionSwitchPreservesPanZoom(t *testing.T) {
	e := newTestEngine(t)
	e.Controller().ZoomTo(3)
	e.Controller().PanBy(40, -10)

	e.SetProjection(geo.Orthographic)
	vt := e.Transform()
	if vt.Scale != 3 || vt.TranslateX != 40 || vt.TranslateY != -10 {
		t.Errorf("transform after switch = %+v; want pan/zoom preserved", vt)
	}
	if vt.Rotation != [3]float64{} {
		t.Errorf("rotation = %v; want zero when none existed before", vt.Rotation)
	}

	// Rotate the globe, switch away and back: the stored rotation survives
	// because flat projections merely ignore it.
	e.Controller().RotateBy(40, 0)
	e.SetProjection(geo.Mercator)
	e.SetProjection(geo.Orthographic)
	if got := e.Transform().Rotation[0]; got != 20 {
		t.Errorf("rotation after round trip = %v; want 20", got)
	}
}

func TestSetRiskDataKeepsEngineCopy(t *testing.T) {
	e := newTestEngine(t)
	data := RiskDataset{"Alpha": {RiskLevel: RiskHigh}}
	e.SetRiskData(data)
	data["Alpha"] = RiskRecord{RiskLevel: RiskLow}
	e.rebuildScene()
	if e.scene.Shape("Alpha").Level != RiskHigh {
		t.Error("engine must snapshot the dataset, not alias the host's map")
	}
}

func TestQueuedRiskDataAppliedOnTick(t *testing.T) {
	e := newTestEngine(t)

	// Queueing off-tick must not touch engine state until the next tick
	// drains it.
	e.QueueRiskData(RiskDataset{"Alpha": {RiskLevel: RiskHigh}})
	if _, ok := e.data["Alpha"]; ok {
		t.Fatal("queued dataset applied before the tick")
	}

	// Only the newest queued dataset survives between ticks.
	e.QueueRiskData(RiskDataset{"Alpha": {RiskLevel: RiskMedium, ThreatCount: 7}})
	e.drainPending()
	if got := e.data["Alpha"]; got.RiskLevel != RiskMedium || got.ThreatCount != 7 {
		t.Fatalf("drained record = %+v; want the latest queued one", got)
	}
	if !e.dirty {
		t.Fatal("drain must mark the scene dirty")
	}

	// An empty queue drains to a no-op.
	e.rebuildScene()
	e.drainPending()
	if e.dirty {
		t.Fatal("drain with nothing queued must not dirty the scene")
	}
}

func TestQueueRiskDataConcurrentProducers(t *testing.T) {
	e := newTestEngine(t)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				e.QueueRiskData(RiskDataset{"Alpha": {RiskLevel: RiskHigh}})
			}
		}()
	}
	for i := 0; i < 8; i++ {
		e.drainPending()
		e.rebuildScene()
		<-done
	}
	e.drainPending()
	if e.data["Alpha"].RiskLevel != RiskHigh {
		t.Fatal("final drain lost the queued dataset")
	}
}

func TestSelectionLifecycle(t *testing.T) {
	e := newTestEngine(t)
	e.SetRiskData(RiskDataset{"Alpha": {RiskLevel: RiskMedium, ThreatCount: 4}})
	e.rebuildScene()

	var selectedName string
	e.OnCountrySelect = func(name string, rec RiskRecord) { selectedName = name }

	proj, _ := geo.NewProjection(geo.NaturalEarth, 800, 600)
	x, y, _ := proj.Project(5, 5)
	e.handleClick(e.now(), x, y)

	if selectedName != "Alpha" {
		t.Fatalf("select event for %q; want Alpha", selectedName)
	}
	if e.Selection() == nil || e.Selection().Record.ThreatCount != 4 {
		t.Fatalf("selection = %+v", e.Selection())
	}

	// Only the host clears.
	e.ClearSelection()
	if e.Selection() != nil {
		t.Error("selection should be cleared")
	}
}

func TestDoubleClickStartsResetTransition(t *testing.T) {
	e := newTestEngine(t)
	e.Controller().ZoomTo(3.2)
	e.Controller().PanBy(40, -10)

	now := time.Now()
	e.handleClick(now, 400, 300)
	e.handleClick(now.Add(100*time.Millisecond), 402, 301)
	if !e.Controller().Transitioning() {
		t.Fatal("double click should start the smooth reset")
	}
	e.Controller().Step(now.Add(time.Second))
	vt := e.Transform()
	if vt.Scale != 1 || vt.TranslateX != 0 || vt.TranslateY != 0 {
		t.Errorf("post-reset transform = %+v; want identity", vt)
	}
}

func TestSlowSecondClickDoesNotReset(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()
	e.handleClick(now, 400, 300)
	e.handleClick(now.Add(time.Second), 400, 300)
	if e.Controller().Transitioning() {
		t.Error("clicks a second apart are not a double click")
	}
}

func TestInvalidViewportRetriesOnResize(t *testing.T) {
	e := NewEngine(Config{Width: 800, Height: 600})
	e.SetWorld(testWorld())
	e.SetViewport(0, 600)
	if e.proj != nil {
		t.Fatal("projection should be deferred for a zero-width viewport")
	}
	if e.Unavailable() != nil {
		t.Fatal("an invalid viewport is retryable, not terminal")
	}
	e.SetViewport(1024, 768)
	if e.proj == nil {
		t.Fatal("projection should rebuild on the next valid resize")
	}
}

func TestWorldLoadFailureIsTerminal(t *testing.T) {
	e := NewEngine(Config{Width: 800, Height: 600})
	var reported error
	e.OnError = func(err error) { reported = err }

	err := e.LoadWorldFrom("http://127.0.0.1:1/nope.json", "")
	if err == nil {
		t.Fatal("load from a dead endpoint should fail")
	}
	if !errors.Is(e.Unavailable(), ErrWorldUnavailable) {
		t.Errorf("unavailable = %v; want ErrWorldUnavailable", e.Unavailable())
	}
	if reported == nil {
		t.Error("OnError should have fired")
	}
}

func TestOverlayActionsDriveController(t *testing.T) {
	e := newTestEngine(t)
	e.applyOverlayAction(ActionZoomIn)
	if got := e.Transform().Scale; got != 1.3 {
		t.Errorf("zoom in scale = %v; want 1.3", got)
	}
	e.applyOverlayAction(ActionZoomOut)
	if got := e.Transform().Scale; got < 0.90 || got > 0.92 {
		t.Errorf("zoom out scale = %v; want 0.91", got)
	}
	e.applyOverlayAction(ActionFit)
	if got := e.Transform().Scale; got != 0.9 {
		t.Errorf("fit scale = %v; want 0.9", got)
	}
	e.applyOverlayAction(ActionCycleProjection)
	if e.Projection() != geo.Mercator {
		t.Errorf("projection after cycle = %v; want mercator", e.Projection())
	}
}
