package comet

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// fpsOverlay displays the current FPS and TPS in the top-left corner. The
// text is redrawn about every 0.5 seconds.
type fpsOverlay struct {
	accum float64
	img   *ebiten.Image
	dirty bool
}

func (o *fpsOverlay) update(dt float64) {
	o.accum += dt
	if o.accum < 0.5 && o.img != nil {
		return
	}
	o.accum = 0
	o.dirty = true
}

func (o *fpsOverlay) draw(screen *ebiten.Image) {
	if o.img == nil {
		// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
		o.img = ebiten.NewImage(100, 32)
		o.dirty = true
	}
	if o.dirty {
		o.dirty = false
		o.img.Clear()
		o.img.Fill(color.RGBA{0, 0, 0, 128})
		ebitenutil.DebugPrint(o.img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
	screen.DrawImage(o.img, nil)
}
