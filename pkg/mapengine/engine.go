// Package mapengine renders the interactive geospatial threat map: world
// geometry joined with a per-country risk dataset, drawn under a selectable
// projection with zoom/pan/rotate, hover, selection and pulse overlays.
package mapengine

import (
	"bytes"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/osintfoundry/threat-map/pkg/geo"
)

// Config seeds a new engine. Zero values fall back to sensible defaults.
type Config struct {
	Width      int
	Height     int
	Projection geo.Kind
	Theme      ThemeName
	// AlertSoundDir optionally enables the escalation audio cue.
	AlertSoundDir string
}

const doubleClickWindow = 350 * time.Millisecond

// Engine is the composition root and the ebiten.Game driving the map. All
// engine state is owned here and mutated only on the update tick; hosts
// read state through the emitted events. Datasets arriving on other
// goroutines go through QueueRiskData and are drained on the tick.
type Engine struct {
	width  int
	height int

	world    *WorldGeometry
	data     RiskDataset
	theme    Theme
	projKind geo.Kind
	proj     *geo.Projection

	ctrl     *TransformController
	renderer *Renderer
	scene    *Scene
	pulses   *PulseAnimator
	overlay  *ControlOverlay
	interact interactionLayer
	alert    *AlertSounder

	selection *Selection
	dirty     bool

	// Latest dataset handed over from another goroutine, applied at the
	// start of the next Update. Only the newest queued dataset survives.
	pendingMu   sync.Mutex
	pendingData RiskDataset
	hasPending  bool

	// Terminal state after a failed world load; nothing renders past the
	// error banner.
	unavailable error
	// Deferred projection build after an invalid viewport; retried on the
	// next resize instead of erroring repeatedly.
	projPending bool

	gesture    *GestureState
	dragging   bool
	pressed    bool
	lastClick  time.Time
	lastClickX float64
	lastClickY float64

	fontSource *text.GoTextFaceSource

	// Host event callbacks.
	OnCountrySelect  func(name string, record RiskRecord)
	OnHoverChange    func(name string, record *RiskRecord, x, y float64)
	OnViewportChange func(ViewTransform)
	OnError          func(error)

	now func() time.Time
}

// NewEngine builds an engine with no geometry loaded yet. Rendering stays
// blank until SetWorld or LoadWorldFrom succeeds.
func NewEngine(cfg Config) *Engine {
	if cfg.Width == 0 {
		cfg.Width = 1280
	}
	if cfg.Height == 0 {
		cfg.Height = 720
	}
	if cfg.Projection == "" {
		cfg.Projection = geo.NaturalEarth
	}
	font, _ := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))

	e := &Engine{
		width:      cfg.Width,
		height:     cfg.Height,
		theme:      ThemeByName(cfg.Theme),
		projKind:   cfg.Projection,
		data:       RiskDataset{},
		ctrl:       NewTransformController(cfg.Projection),
		renderer:   NewRenderer(),
		pulses:     NewPulseAnimator(),
		overlay:    NewControlOverlay(font),
		alert:      NewAlertSounder(cfg.AlertSoundDir),
		fontSource: font,
		dirty:      true,
		now:        time.Now,
	}
	e.ctrl.OnChange(func(vt ViewTransform) {
		e.dirty = true
		if e.OnViewportChange != nil {
			e.OnViewportChange(vt)
		}
	})
	e.overlay.Layout(e.width, e.height)
	e.rebuildProjection()
	return e
}

// rebuildProjection constructs the projection handle for the current kind
// and viewport. An invalid viewport defers the build; SetViewport retries.
func (e *Engine) rebuildProjection() {
	p, err := geo.NewProjection(e.projKind, float64(e.width), float64(e.height))
	if err != nil {
		if errors.Is(err, geo.ErrInvalidViewport) {
			e.proj = nil
			e.projPending = true
			return
		}
		e.fail(err)
		return
	}
	e.proj = p
	e.projPending = false
	e.dirty = true
}

func (e *Engine) fail(err error) {
	e.unavailable = err
	log.Printf("[map] entering unavailable state: %v", err)
	if e.OnError != nil {
		e.OnError(err)
	}
}

// LoadWorldFrom performs the one-shot world geometry load. A failure puts
// the engine into its terminal unavailable state; no partial map is drawn.
func (e *Engine) LoadWorldFrom(url, cacheDir string) error {
	w, err := LoadWorld(url, cacheDir)
	if err != nil {
		e.fail(err)
		return err
	}
	e.SetWorld(w)
	return nil
}

// SetWorld installs host-loaded geometry.
func (e *Engine) SetWorld(w *WorldGeometry) {
	e.world = w
	e.dirty = true
}

// SetRiskData swaps in a new dataset snapshot and re-renders. The engine
// never mutates the supplied map; it keeps its own copy. Call it on the
// game tick or before RunGame starts; feed goroutines use QueueRiskData.
func (e *Engine) SetRiskData(d RiskDataset) {
	e.data = d.Clone()
	e.alert.Check(e.data)
	e.dirty = true
}

// QueueRiskData hands a dataset to the engine from any goroutine, for
// feed callbacks that do not run on the game tick. The dataset is applied
// on the next Update; intermediate datasets queued between ticks are
// superseded rather than replayed.
func (e *Engine) QueueRiskData(d RiskDataset) {
	snapshot := d.Clone()
	e.pendingMu.Lock()
	e.pendingData = snapshot
	e.hasPending = true
	e.pendingMu.Unlock()
}

// drainPending moves the queued dataset, if any, onto the tick.
func (e *Engine) drainPending() {
	e.pendingMu.Lock()
	d := e.pendingData
	has := e.hasPending
	e.pendingData = nil
	e.hasPending = false
	e.pendingMu.Unlock()
	if has {
		e.SetRiskData(d)
	}
}

// SetTheme switches palettes and forces a full redraw.
func (e *Engine) SetTheme(name ThemeName) {
	e.theme = ThemeByName(name)
	e.dirty = true
}

// SetProjection rebuilds the projection handle for a new kind. Pan and
// zoom persist across the switch by design; rotation stays stored in the
// transform and only the globe consults it.
func (e *Engine) SetProjection(kind geo.Kind) {
	if kind == e.projKind {
		return
	}
	e.projKind = kind
	e.ctrl.SetProjectionKind(kind)
	e.rebuildProjection()
}

// Projection returns the active projection kind.
func (e *Engine) Projection() geo.Kind { return e.projKind }

// SetViewport resizes the drawing surface. This is also the retry path
// after an invalid viewport.
func (e *Engine) SetViewport(width, height int) {
	if width == e.width && height == e.height && !e.projPending {
		return
	}
	e.width = width
	e.height = height
	e.overlay.Layout(width, height)
	e.rebuildProjection()
}

// Transform exposes the current view transform.
func (e *Engine) Transform() ViewTransform { return e.ctrl.Transform() }

// Controller exposes the transform command API for hosts that drive the
// view programmatically.
func (e *Engine) Controller() *TransformController { return e.ctrl }

// Selection returns the current selection, or nil.
func (e *Engine) Selection() *Selection { return e.selection }

// ClearSelection drops the selection; only the host clears, per contract.
func (e *Engine) ClearSelection() { e.selection = nil }

// Unavailable reports the terminal error state, if entered.
func (e *Engine) Unavailable() error { return e.unavailable }

// Update advances one cooperative tick: input, gestures, transitions, and
// scene rebuilds. Commands apply fully before the next draw reads the
// transform.
func (e *Engine) Update() error {
	if e.unavailable != nil {
		return nil
	}
	e.drainPending()
	now := e.now()
	if e.ctrl.Step(now) {
		e.dirty = true
	}

	mx, my := ebiten.CursorPosition()
	fx, fy := float64(mx), float64(my)

	if _, wy := ebiten.Wheel(); wy != 0 {
		e.ctrl.ZoomBy(math.Pow(1.1, wy))
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if action := e.overlay.Hit(fx, fy); action != ActionNone {
			e.applyOverlayAction(action)
		} else {
			mode := GesturePan
			if e.projKind == geo.Orthographic {
				mode = GestureRotate
			}
			g := e.ctrl.BeginGesture(mode, fx, fy)
			e.gesture = &g
			e.pressed = true
			e.dragging = false
		}
	}

	if e.pressed && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if e.gesture != nil {
			if !e.dragging && math.Hypot(fx-e.gesture.StartX, fy-e.gesture.StartY) > 3 {
				e.dragging = true
			}
			if e.dragging {
				e.ctrl.ApplyGesture(*e.gesture, fx, fy)
				e.dirty = true
			}
		}
	}

	if e.pressed && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		e.pressed = false
		if e.dragging {
			e.ctrl.EndGesture()
		} else {
			e.handleClick(now, fx, fy)
		}
		e.gesture = nil
		e.dragging = false
	}

	if !e.dragging {
		prevX, prevY := e.interact.hover.PointerX, e.interact.hover.PointerY
		changed := e.interact.pointerMoved(e.scene, e.data, fx, fy)
		moved := prevX != fx || prevY != fy
		if e.OnHoverChange != nil && (changed || (moved && e.interact.hover.Name != "")) {
			if e.interact.hover.Name == "" {
				e.OnHoverChange("", nil, fx, fy)
			} else {
				rec := e.interact.hover.Record
				e.OnHoverChange(e.interact.hover.Name, &rec, fx, fy)
			}
		}
	}
	e.interact.step()

	if e.dirty {
		e.rebuildScene()
	}
	return nil
}

func (e *Engine) handleClick(now time.Time, x, y float64) {
	if now.Sub(e.lastClick) < doubleClickWindow && math.Hypot(x-e.lastClickX, y-e.lastClickY) < 6 {
		// Double-click: smooth reset instead of an instant jump.
		e.ctrl.StartResetTransition(now)
		e.lastClick = time.Time{}
		return
	}
	e.lastClick = now
	e.lastClickX, e.lastClickY = x, y
	if sel := e.interact.click(e.scene, e.data, x, y); sel != nil {
		e.selection = sel
		if e.OnCountrySelect != nil {
			e.OnCountrySelect(sel.Name, sel.Record)
		}
	}
}

func (e *Engine) applyOverlayAction(action OverlayAction) {
	switch action {
	case ActionZoomIn:
		e.ctrl.ZoomBy(zoomInFactor)
	case ActionZoomOut:
		e.ctrl.ZoomBy(zoomOutFactor)
	case ActionReset:
		e.ctrl.ResetToIdentity()
	case ActionFit:
		e.ctrl.FitToViewport()
	case ActionCycleProjection:
		kinds := geo.Kinds()
		for i, k := range kinds {
			if k == e.projKind {
				e.SetProjection(kinds[(i+1)%len(kinds)])
				return
			}
		}
	}
}

// rebuildScene recomputes the retained scene and derived pulse markers
// from the current immutable inputs.
func (e *Engine) rebuildScene() {
	e.dirty = false
	if e.world == nil || e.proj == nil {
		e.scene = nil
		e.renderer.SetScene(nil)
		e.pulses.Rebuild(nil)
		return
	}
	e.scene = BuildScene(e.world, e.data, e.proj, e.ctrl.Transform(), e.theme, e.width, e.height)
	e.renderer.SetScene(e.scene)
	e.pulses.Rebuild(e.scene)
}

// Draw renders the frame: base map, pulse overlay, controls, tooltip, and
// the selection panel.
func (e *Engine) Draw(screen *ebiten.Image) {
	screen.Fill(e.theme.Background)
	if e.unavailable != nil {
		e.drawBanner(screen, "threat map unavailable: world geometry failed to load")
		return
	}
	if e.proj == nil || e.scene == nil {
		return
	}
	e.renderer.Draw(screen, e.theme, e.interact.hover.Name)
	e.pulses.Draw(screen, e.now(), e.theme)
	e.overlay.Draw(screen, e.theme, e.projKind.DisplayName())
	e.drawSelectionPanel(screen)
	e.interact.drawTooltip(screen, e.theme, e.fontSource)
}

// Layout keeps the fixed internal render size regardless of window size.
func (e *Engine) Layout(outsideWidth, outsideHeight int) (int, int) {
	return e.width, e.height
}

func (e *Engine) drawBanner(screen *ebiten.Image, msg string) {
	if e.fontSource == nil {
		return
	}
	face := &text.GoTextFace{Source: e.fontSource, Size: 18}
	tw, th := text.Measure(msg, face, 0)
	x := (float64(e.width) - tw) / 2
	y := (float64(e.height) - th) / 2
	drawBadge(screen, x-12, y-10, tw+24, th+20, e.theme.PanelBG, e.theme.FillHigh)
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(e.theme.Text)
	text.Draw(screen, msg, face, op)
}

// drawSelectionPanel shows the clicked country's record bottom-left.
func (e *Engine) drawSelectionPanel(screen *ebiten.Image) {
	if e.selection == nil || e.fontSource == nil {
		return
	}
	rec := e.selection.Record
	lines := []string{
		e.selection.Name,
		"risk " + string(rec.RiskLevel) + " / trend " + string(rec.Trend),
	}
	if len(rec.ActiveThreats) > 0 {
		lines = append(lines, "threats: "+joinMax(rec.ActiveThreats, 3))
	}
	if len(rec.TopTargets) > 0 {
		lines = append(lines, "targets: "+joinMax(rec.TopTargets, 3))
	}
	if rec.MitigationStatus != "" {
		lines = append(lines, "mitigation: "+rec.MitigationStatus)
	}

	face := &text.GoTextFace{Source: e.fontSource, Size: 14}
	const pad = 10.0
	w, h := 0.0, pad
	for _, line := range lines {
		tw, th := text.Measure(line, face, 0)
		if tw > w {
			w = tw
		}
		h += th + 3
	}
	w += 2 * pad
	h += pad - 3

	x, y := 14.0, float64(e.height)-h-14
	drawBadge(screen, x, y, w, h, e.theme.PanelBG, e.theme.PanelLine)
	ty := y + pad
	for i, line := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(x+pad, ty)
		op.ColorScale.ScaleWithColor(e.theme.Text)
		if i > 0 {
			op.ColorScale.ScaleAlpha(0.8)
		}
		text.Draw(screen, line, face, op)
		_, th := text.Measure(line, face, 0)
		ty += th + 3
	}
}

func joinMax(items []string, n int) string {
	if len(items) > n {
		items = items[:n]
	}
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
