package mapengine

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Renderer rasterizes a Scene into a cached base image. The base is only
// rebuilt when the scene changes; per-frame work is limited to blitting it
// and stroking the hovered shape on top.
type Renderer struct {
	base  *ebiten.Image
	cpu   *image.RGBA
	dirty bool
	scene *Scene
}

func NewRenderer() *Renderer {
	return &Renderer{dirty: true}
}

// SetScene swaps in a freshly built scene and marks the base stale.
func (r *Renderer) SetScene(s *Scene) {
	r.scene = s
	r.dirty = true
}

// Draw paints the base map and, when set, the hover highlight.
func (r *Renderer) Draw(screen *ebiten.Image, theme Theme, hovered string) {
	if r.scene == nil {
		return
	}
	if r.dirty || r.base == nil {
		r.rebuild(theme)
	}
	screen.DrawImage(r.base, nil)
	if hovered != "" {
		if shape := r.scene.Shape(hovered); shape != nil {
			strokeShape(screen, shape, theme.Highlight, 2.5)
		}
	}
}

func (r *Renderer) rebuild(theme Theme) {
	w, h := r.scene.Width, r.scene.Height
	if r.cpu == nil || r.cpu.Bounds().Dx() != w || r.cpu.Bounds().Dy() != h {
		r.cpu = image.NewRGBA(image.Rect(0, 0, w, h))
		r.base = nil
	}
	draw.Draw(r.cpu, r.cpu.Bounds(), &image.Uniform{theme.Ocean}, image.Point{}, draw.Src)
	for i := range r.scene.Shapes {
		shape := &r.scene.Shapes[i]
		for _, poly := range shape.Polygons {
			fillRings(r.cpu, poly, shape.Fill, w, h)
			for _, ring := range poly {
				drawRing(r.cpu, ring, theme.Border, w, h)
			}
		}
	}
	if r.base == nil {
		r.base = ebiten.NewImageFromImage(r.cpu)
	} else {
		r.base.WritePixels(r.cpu.Pix)
	}
	r.dirty = false
}

// fillRings scanline-fills a polygon's rings with even-odd parity, so
// holes stay open.
func fillRings(img *image.RGBA, rings [][]Point2, c color.RGBA, width, height int) {
	if len(rings) == 0 {
		return
	}
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, ring := range rings {
		for _, p := range ring {
			if p.Y < minY {
				minY = p.Y
			}
			if p.Y > maxY {
				maxY = p.Y
			}
		}
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= float64(height) {
		maxY = float64(height) - 1
	}
	var nodes []int
	for y := int(minY); y <= int(maxY); y++ {
		nodes = nodes[:0]
		fy := float64(y)
		for _, ring := range rings {
			for i := 0; i < len(ring); i++ {
				j := (i + 1) % len(ring)
				if (ring[i].Y < fy && ring[j].Y >= fy) || (ring[j].Y < fy && ring[i].Y >= fy) {
					nodeX := ring[i].X + (fy-ring[i].Y)/(ring[j].Y-ring[i].Y)*(ring[j].X-ring[i].X)
					nodes = append(nodes, int(nodeX))
				}
			}
		}
		sort.Ints(nodes)
		for i := 0; i+1 < len(nodes); i += 2 {
			xs, xe := nodes[i], nodes[i+1]
			if xs < 0 {
				xs = 0
			}
			if xe >= width {
				xe = width - 1
			}
			for x := xs; x < xe; x++ {
				off := y*img.Stride + x*4
				img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = c.R, c.G, c.B, 255
			}
		}
	}
}

func drawRing(img *image.RGBA, ring []Point2, c color.RGBA, width, height int) {
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		drawLine(img, int(ring[i].X), int(ring[i].Y), int(ring[j].X), int(ring[j].Y), c, width, height)
	}
}

// drawLine is plain Bresenham into the CPU buffer.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA, width, height int) {
	dx, dy := math.Abs(float64(x2-x1)), math.Abs(float64(y2-y1))
	sx, sy := -1, -1
	if x1 < x2 {
		sx = 1
	}
	if y1 < y2 {
		sy = 1
	}
	err := dx - dy
	for {
		if x1 >= 0 && x1 < width && y1 >= 0 && y1 < height {
			off := y1*img.Stride + x1*4
			img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = c.R, c.G, c.B, 255
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// strokeShape re-strokes a country's rings on the GPU for the hover
// highlight; the base image underneath stays untouched.
func strokeShape(screen *ebiten.Image, shape *CountryShape, c color.RGBA, width float32) {
	for _, poly := range shape.Polygons {
		for _, ring := range poly {
			for i := 0; i < len(ring); i++ {
				j := (i + 1) % len(ring)
				vector.StrokeLine(screen,
					float32(ring[i].X), float32(ring[i].Y),
					float32(ring[j].X), float32(ring[j].Y),
					width, c, true)
			}
		}
	}
}
