package comet

import (
	"errors"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunConfig holds window settings for Run.
type RunConfig struct {
	Title   string
	Width   int
	Height  int
	ShowFPS bool
	// HideCursor hides the system cursor while the trail is active. On a
	// coarse pointer the trail never starts and the cursor stays visible.
	HideCursor bool
}

// Run starts the host's simulator and runs it as an Ebitengine game. It
// blocks until the window is closed, then stops the simulator.
func Run(h *Host, cfg RunConfig) error {
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
	}
	if cfg.ShowFPS {
		h.opts.ShowFPS = true
	}

	err := h.Start()
	switch {
	case errors.Is(err, ErrCoarsePointer):
		_, _ = fmt.Fprintln(os.Stderr, "[comet] coarse pointer: trail disabled")
	case err != nil:
		return err
	default:
		if cfg.HideCursor {
			ebiten.SetCursorMode(ebiten.CursorModeHidden)
		}
	}
	defer h.Stop()

	return ebiten.RunGame(h)
}
