package mapengine

import (
	"hash/fnv"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// pulsePeriod is one full expand-and-fade cycle.
const pulsePeriod = 2 * time.Second

// PulseMarker is a derived, ephemeral animation anchor for one high-risk
// country. Markers are recomputed from the scene on every rebuild and
// never persisted; a country leaving the high-risk set simply stops
// appearing here, so nothing leaks.
type PulseMarker struct {
	Name  string
	X, Y  float64
	Phase float64 // 0..1 offset so neighbors don't pulse in lockstep
}

// PulseAnimator draws the looping expand/fade cue over every high-risk
// country. It is driven by the engine's frame clock; there is no timer or
// goroutine per marker.
type PulseAnimator struct {
	markers []PulseMarker
	texture *ebiten.Image
	epoch   time.Time
}

func NewPulseAnimator() *PulseAnimator {
	return &PulseAnimator{epoch: time.Now()}
}

// Markers exposes the current derived set.
func (a *PulseAnimator) Markers() []PulseMarker { return a.markers }

// Rebuild recomputes the marker set from a freshly built scene: countries
// with a dataset record at riskLevel=high whose centroid is on screen
// (front hemisphere for the globe).
func (a *PulseAnimator) Rebuild(scene *Scene) {
	a.markers = a.markers[:0]
	if scene == nil {
		return
	}
	for i := range scene.Shapes {
		s := &scene.Shapes[i]
		if !s.HasData || s.Level != RiskHigh || !s.CentroidVisible {
			continue
		}
		a.markers = append(a.markers, PulseMarker{
			Name:  s.Name,
			X:     s.Centroid.X,
			Y:     s.Centroid.Y,
			Phase: phaseOf(s.Name),
		})
	}
}

// phaseOf derives a stable per-country phase offset from the name.
func phaseOf(name string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return float64(h.Sum32()%1000) / 1000
}

// Draw renders every marker at its current cycle position: radius grows
// from base to expanded while alpha fades to zero, then the cycle restarts.
func (a *PulseAnimator) Draw(screen *ebiten.Image, now time.Time, theme Theme) {
	if len(a.markers) == 0 {
		return
	}
	if a.texture == nil {
		a.texture = newPulseTexture(128)
	}
	imgW := a.texture.Bounds().Dx()
	halfW := float64(imgW) / 2
	elapsed := now.Sub(a.epoch).Seconds() / pulsePeriod.Seconds()
	op := &ebiten.DrawImageOptions{}
	op.Blend = ebiten.BlendLighter
	c := theme.FillHigh
	cr, cg, cb := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	for _, m := range a.markers {
		progress := math.Mod(elapsed+m.Phase, 1)
		const baseRadius, growth = 6.0, 22.0
		radius := baseRadius + progress*growth
		alpha := (1 - progress) * 0.6
		scale := radius * 2 / float64(imgW)
		op.GeoM.Reset()
		op.GeoM.Translate(-halfW, -halfW)
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(m.X, m.Y)
		op.ColorScale.Reset()
		op.ColorScale.Scale(float32(cr*alpha), float32(cg*alpha), float32(cb*alpha), float32(alpha))
		screen.DrawImage(a.texture, op)
	}
}

// newPulseTexture builds the radial ring texture pulses are stamped from.
func newPulseTexture(size int) *ebiten.Image {
	img := ebiten.NewImage(size, size)
	pixels := make([]byte, size*size*4)
	center, maxDist := float64(size)/2, float64(size)/2
	const outer, inner = 0.9, 0.8
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist >= maxDist {
				continue
			}
			val := 0.0
			if dist > maxDist*outer {
				val = math.Cos(((dist - maxDist*(outer+((1-outer)/2))) / (maxDist * ((1 - outer) / 2))) * (math.Pi / 2))
			} else if dist > maxDist*inner {
				val = math.Sin(((dist - maxDist*inner) / (maxDist * (outer - inner))) * (math.Pi / 2))
			}
			off := (y*size + x) * 4
			pixels[off], pixels[off+1], pixels[off+2] = 255, 255, 255
			pixels[off+3] = uint8(val * 255)
		}
	}
	img.WritePixels(pixels)
	return img
}
