package comet

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// discTextureSize is the edge length of the generated marker textures.
// Markers are scaled down from it, so it only needs to exceed the largest
// on-screen diameter for crisp edges.
const discTextureSize = 64

// glowScale is the glow halo diameter relative to the head.
const glowScale = 2

// gradientStop is one color stop of a radial gradient. At is the fraction of
// the gradient radius.
type gradientStop struct {
	at float64
	c  Color
}

var (
	// Accent core of the head; tinted with the accent color at draw time.
	headCoreStops = []gradientStop{
		{0, ColorWhite},
		{0.35, Color{1, 1, 1, 0}},
	}
	// Glassy highlight drawn over the core.
	headGlassStops = []gradientStop{
		{0, Color{1, 1, 1, 0}},
		{0.35, Color{1, 1, 1, 0.6}},
		{0.60, Color{1, 1, 1, 0.2}},
		{0.70, Color{1, 1, 1, 0}},
	}
	segmentStops = []gradientStop{
		{0, Color{1, 1, 1, 0.35}},
		{0.40, Color{1, 1, 1, 0.18}},
		{0.70, Color{1, 1, 1, 0.08}},
		{0.80, Color{1, 1, 1, 0}},
	}
	glowStops = []gradientStop{
		{0, Color{1, 1, 1, 0.45}},
		{1, Color{1, 1, 1, 0}},
	}
)

// Renderer draws a Frame onto an ebiten image: segments tail first, then
// the accent glow, the head core and its highlight.
type Renderer struct {
	cfg Config

	headCore  *ebiten.Image
	headGlass *ebiten.Image
	segment   *ebiten.Image
	glow      *ebiten.Image

	op ebiten.DrawImageOptions
}

// NewRenderer creates a renderer for markers sized by cfg. Textures are
// generated on the first Draw.
func NewRenderer(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

func (r *Renderer) ensureTextures() {
	if r.segment != nil {
		return
	}
	// Highlights sit at 30% 30% like a lit sphere; the glow is centred.
	hl := Vec2{0.3, 0.3}
	r.headCore = ebiten.NewImageFromImage(radialDisc(discTextureSize, hl, headCoreStops))
	r.headGlass = ebiten.NewImageFromImage(radialDisc(discTextureSize, hl, headGlassStops))
	r.segment = ebiten.NewImageFromImage(radialDisc(discTextureSize, hl, segmentStops))
	r.glow = ebiten.NewImageFromImage(radialDisc(discTextureSize, Vec2{0.5, 0.5}, glowStops))
}

// Draw renders f onto dst.
func (r *Renderer) Draw(dst *ebiten.Image, f *Frame) {
	r.ensureTextures()
	size := float64(discTextureSize)

	for i := len(f.Segments) - 1; i >= 0; i-- {
		t := f.Segments[i]
		if t.Opacity <= 0 {
			continue
		}
		r.drawTexture(dst, r.segment, t.matrix(size, r.cfg.SegmentDiameter(i), 1), ColorWhite, t.Opacity)
	}

	h := f.Head
	if h.Opacity <= 0 {
		return
	}
	r.drawTexture(dst, r.glow, h.matrix(size, r.cfg.HeadSize*glowScale, f.Emphasis), f.Accent, h.Opacity*0.5)
	m := h.matrix(size, r.cfg.HeadSize, f.Emphasis)
	r.drawTexture(dst, r.headCore, m, f.Accent, h.Opacity)
	r.drawTexture(dst, r.headGlass, m, ColorWhite, h.Opacity)
}

func (r *Renderer) drawTexture(dst, src *ebiten.Image, m [6]float64, tint Color, opacity float64) {
	r.op.GeoM = geoM(m)
	r.op.Filter = ebiten.FilterLinear
	r.op.ColorScale.Reset()
	// ColorScale applies to premultiplied texels.
	a := float32(tint.A)
	r.op.ColorScale.Scale(float32(tint.R)*a, float32(tint.G)*a, float32(tint.B)*a, a)
	r.op.ColorScale.ScaleAlpha(float32(opacity))
	dst.DrawImage(src, &r.op)
}

// radialDisc rasterises a circular texture filled with a radial gradient
// centred at hl (fractions of the size). The gradient radius reaches the
// farthest corner, as CSS radial-gradient does by default, and the result
// is clipped to the inscribed circle.
func radialDisc(size int, hl Vec2, stops []gradientStop) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	fs := float64(size)
	radius := math.Max(math.Hypot(hl.X, hl.Y), math.Hypot(1-hl.X, 1-hl.Y))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			u := (float64(x) + 0.5) / fs
			v := (float64(y) + 0.5) / fs
			if math.Hypot(u-0.5, v-0.5) > 0.5 {
				continue
			}
			t := math.Hypot(u-hl.X, v-hl.Y) / radius
			img.SetRGBA(x, y, sampleGradient(stops, t).toRGBA())
		}
	}
	return img
}

// sampleGradient interpolates stops (sorted by at) at position t. Positions
// outside the stops take the nearest end color.
func sampleGradient(stops []gradientStop, t float64) Color {
	if len(stops) == 0 {
		return Color{}
	}
	if t <= stops[0].at {
		return stops[0].c
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].at {
			a, b := stops[i-1], stops[i]
			f := (t - a.at) / (b.at - a.at)
			return Color{
				R: a.c.R + (b.c.R-a.c.R)*f,
				G: a.c.G + (b.c.G-a.c.G)*f,
				B: a.c.B + (b.c.B-a.c.B)*f,
				A: a.c.A + (b.c.A-a.c.A)*f,
			}
		}
	}
	return stops[len(stops)-1].c
}

// whitePixel is a 1x1 white image scaled up to draw solid node boxes.
var whitePixel *ebiten.Image

// drawNodes paints every visible node with a non-transparent Color as a
// solid box, parents before children.
func drawNodes(dst *ebiten.Image, n *Node) {
	if !n.Visible {
		return
	}
	if n.Color.A > 0 && n.Width > 0 && n.Height > 0 {
		if whitePixel == nil {
			whitePixel = ebiten.NewImage(1, 1)
			whitePixel.Fill(ColorWhite.toRGBA())
		}
		x, y := n.WorldPosition()
		var op ebiten.DrawImageOptions
		op.GeoM.Scale(n.Width, n.Height)
		op.GeoM.Translate(x, y)
		op.ColorScale.ScaleWithColor(n.Color.toRGBA())
		dst.DrawImage(whitePixel, &op)
	}
	for _, child := range n.children {
		drawNodes(dst, child)
	}
}
