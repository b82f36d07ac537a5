package mapengine

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// OverlayAction is a command issued by the control overlay.
type OverlayAction int

const (
	ActionNone OverlayAction = iota
	ActionZoomIn
	ActionZoomOut
	ActionReset
	ActionFit
	ActionCycleProjection
)

// Zoom steps for the overlay buttons.
const (
	zoomInFactor  = 1.3
	zoomOutFactor = 0.7
)

type overlayButton struct {
	action OverlayAction
	label  string
	x, y   float64
	w, h   float64
}

// ControlOverlay draws the zoom/reset/fit buttons and the projection
// switch, and maps clicks back to actions. It issues commands; the
// transform controller and engine own the resulting state.
type ControlOverlay struct {
	buttons []overlayButton
	font    *text.GoTextFaceSource
}

func NewControlOverlay(font *text.GoTextFaceSource) *ControlOverlay {
	return &ControlOverlay{font: font}
}

// Layout positions the button column against the top-right corner.
func (o *ControlOverlay) Layout(width, height int) {
	const (
		margin = 14.0
		size   = 34.0
		gap    = 8.0
	)
	x := float64(width) - margin - size
	y := margin
	o.buttons = o.buttons[:0]
	for _, b := range []struct {
		action OverlayAction
		label  string
		wide   bool
	}{
		{ActionZoomIn, "+", false},
		{ActionZoomOut, "-", false},
		{ActionReset, "R", false},
		{ActionFit, "F", false},
		{ActionCycleProjection, "", true},
	} {
		w := size
		bx := x
		if b.wide {
			w = 150
			bx = float64(width) - margin - w
		}
		o.buttons = append(o.buttons, overlayButton{action: b.action, label: b.label, x: bx, y: y, w: w, h: size})
		y += size + gap
	}
}

// Hit maps a screen point to the action under it.
func (o *ControlOverlay) Hit(x, y float64) OverlayAction {
	for _, b := range o.buttons {
		if x >= b.x && x <= b.x+b.w && y >= b.y && y <= b.y+b.h {
			return b.action
		}
	}
	return ActionNone
}

// Draw paints the buttons. The projection button shows the active kind's
// display name.
func (o *ControlOverlay) Draw(screen *ebiten.Image, theme Theme, projectionLabel string) {
	for _, b := range o.buttons {
		vector.DrawFilledRect(screen, float32(b.x), float32(b.y), float32(b.w), float32(b.h), theme.PanelBG, false)
		vector.StrokeRect(screen, float32(b.x), float32(b.y), float32(b.w), float32(b.h), 1, theme.PanelLine, false)
		label := b.label
		if b.action == ActionCycleProjection {
			label = projectionLabel
			vector.DrawFilledRect(screen, float32(b.x), float32(b.y), 3, float32(b.h), theme.Accent, false)
		}
		if o.font == nil || label == "" {
			continue
		}
		face := &text.GoTextFace{Source: o.font, Size: 16}
		tw, th := text.Measure(label, face, 0)
		op := &text.DrawOptions{}
		op.GeoM.Translate(b.x+(b.w-tw)/2, b.y+(b.h-th)/2)
		op.ColorScale.ScaleWithColor(theme.Text)
		text.Draw(screen, label, face, op)
	}
}

// drawBadge is shared by the overlay and tooltip for small text boxes.
func drawBadge(screen *ebiten.Image, x, y, w, h float64, bg, line color.RGBA) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), bg, false)
	vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1, line, false)
}
