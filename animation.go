package comet

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// cueEase is the easing used by every emphasis cue: quadratic ease-out.
var cueEase ease.TweenFunc = ease.OutQuad

// TweenGroup animates up to 4 float64 fields simultaneously. Create one via
// TweenScalar or TweenColor and call Update(dt) each frame; the group writes
// values straight into the target fields.
//
// There is no global animation manager; the owner calls Update itself.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	fields [4]*float64
	Done   bool
}

// Update advances all tweens by dt seconds and writes values to the target
// fields. No-op once Done.
func (g *TweenGroup) Update(dt float32) {
	if g == nil || g.Done {
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// TweenScalar creates a TweenGroup that animates *field to the target value
// over the specified duration using the easing function. A non-positive
// duration writes the target at once and returns a finished group.
func TweenScalar(field *float64, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	if duration <= 0 {
		*field = to
		return &TweenGroup{Done: true}
	}
	g := &TweenGroup{count: 1}
	g.tweens[0] = gween.New(float32(*field), float32(to), duration, fn)
	g.fields[0] = field
	return g
}

// TweenColor creates a TweenGroup that animates all four components of *c
// (R, G, B, A) to the target color over the specified duration. Like
// TweenScalar, a non-positive duration applies the target immediately.
func TweenColor(c *Color, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	if duration <= 0 {
		*c = to
		return &TweenGroup{Done: true}
	}
	g := &TweenGroup{count: 4}
	g.tweens[0] = gween.New(float32(c.R), float32(to.R), duration, fn)
	g.tweens[1] = gween.New(float32(c.G), float32(to.G), duration, fn)
	g.tweens[2] = gween.New(float32(c.B), float32(to.B), duration, fn)
	g.tweens[3] = gween.New(float32(c.A), float32(to.A), duration, fn)
	g.fields[0] = &c.R
	g.fields[1] = &c.G
	g.fields[2] = &c.B
	g.fields[3] = &c.A
	return g
}
