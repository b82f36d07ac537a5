package mapengine

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// Tooltip offset from the pointer, matching the dashboard's fixed layout.
const (
	tooltipOffsetX = 10
	tooltipOffsetY = -28
)

// Selection is the single clicked country, if any. It snapshots the record
// at click time; later dataset updates do not rewrite an existing
// selection.
type Selection struct {
	Name   string
	Record RiskRecord
}

// HoverState tracks the single active (hovered) country and the pointer
// position the tooltip anchors to.
type HoverState struct {
	Name     string
	Record   RiskRecord
	HasData  bool
	PointerX float64
	PointerY float64
	fade     float64 // 0..1 tooltip alpha, ramps down after leave
}

// interactionLayer resolves pointer positions against the retained scene
// and produces hover/selection updates for the engine.
type interactionLayer struct {
	hover HoverState
}

// pointerMoved hit-tests the scene and returns true when the hovered
// country changed.
func (il *interactionLayer) pointerMoved(scene *Scene, data RiskDataset, x, y float64) bool {
	il.hover.PointerX = x
	il.hover.PointerY = y
	var name string
	if scene != nil {
		if shape := scene.HitTest(x, y); shape != nil {
			name = shape.Name
		}
	}
	if name == il.hover.Name {
		if name != "" {
			il.hover.fade = 1
		}
		return false
	}
	il.hover.Name = name
	if name == "" {
		// Keep the last payload while the tooltip fades out.
		return true
	}
	il.hover.fade = 1
	if rec, ok := data[name]; ok {
		il.hover.Record = rec
		il.hover.HasData = true
	} else {
		il.hover.Record = NoDataRecord()
		il.hover.HasData = false
	}
	return true
}

// click resolves a press into a selection, or nil when the point hits
// open water.
func (il *interactionLayer) click(scene *Scene, data RiskDataset, x, y float64) *Selection {
	if scene == nil {
		return nil
	}
	shape := scene.HitTest(x, y)
	if shape == nil {
		return nil
	}
	sel := &Selection{Name: shape.Name}
	if rec, ok := data[shape.Name]; ok {
		sel.Record = rec
	} else {
		sel.Record = NoDataRecord()
	}
	return sel
}

// step advances the tooltip fade; a short ramp rather than an instant cut.
func (il *interactionLayer) step() {
	if il.hover.Name == "" && il.hover.fade > 0 {
		il.hover.fade -= 0.12
		if il.hover.fade < 0 {
			il.hover.fade = 0
		}
	}
}

// drawTooltip renders the hover payload near the pointer.
func (il *interactionLayer) drawTooltip(screen *ebiten.Image, theme Theme, font *text.GoTextFaceSource) {
	if il.hover.fade <= 0 || font == nil {
		return
	}
	name := il.hover.Name
	if name == "" {
		return // fully faded payloads are not redrawn without a name
	}
	lines := tooltipLines(name, il.hover.Record, il.hover.HasData)

	face := &text.GoTextFace{Source: font, Size: 14}
	const pad = 8.0
	w, h := 0.0, pad
	for _, line := range lines {
		tw, th := text.Measure(line, face, 0)
		if tw > w {
			w = tw
		}
		h += th + 2
	}
	w += 2 * pad
	h += pad - 2

	x := il.hover.PointerX + tooltipOffsetX
	y := il.hover.PointerY + tooltipOffsetY - h
	if x+w > float64(screen.Bounds().Dx()) {
		x = il.hover.PointerX - w - tooltipOffsetX
	}
	if y < 0 {
		y = il.hover.PointerY - tooltipOffsetY
	}

	drawBadge(screen, x, y, w, h, theme.TooltipBG, theme.PanelLine)
	ty := y + pad
	for i, line := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(x+pad, ty)
		op.ColorScale.ScaleWithColor(theme.TooltipFG)
		alpha := il.hover.fade
		if i > 0 {
			alpha *= 0.8
		}
		op.ColorScale.ScaleAlpha(float32(alpha))
		text.Draw(screen, line, face, op)
		_, th := text.Measure(line, face, 0)
		ty += th + 2
	}
}

func tooltipLines(name string, rec RiskRecord, hasData bool) []string {
	if !hasData {
		return []string{name, "no data"}
	}
	return []string{
		name,
		fmt.Sprintf("risk: %s (%s)", rec.RiskLevel, rec.Trend),
		fmt.Sprintf("threats: %d  incidents: %d", rec.ThreatCount, rec.IncidentCount),
	}
}
