package comet

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// defaultScreenshotDir is used when HostOptions.ScreenshotDir is empty.
const defaultScreenshotDir = "screenshots"

// captureMeta is written as JSON next to each capture's PNG, so a picture of
// the trail can be matched to the simulation state that produced it.
type captureMeta struct {
	Label         string    `json:"label"`
	Taken         time.Time `json:"taken"`
	Pointer       Vec2      `json:"pointer"`
	Velocity      Vec2      `json:"velocity"`
	Paused        bool      `json:"paused"`
	ReducedMotion bool      `json:"reduced_motion"`
	Coarse        bool      `json:"coarse"`
	Frame         Frame     `json:"frame"`
}

// Screenshot queues a labeled capture for the end of the current frame's
// Draw. Each capture writes <stamp>_f<tick>_<label>.png with the rendered
// screen and a .json of the same name holding the frame and pointer state.
// Safe to call from Update or Draw.
func (h *Host) Screenshot(label string) {
	h.screenshotQueue = append(h.screenshotQueue, label)
}

func (h *Host) captureDir() string {
	if h.opts.ScreenshotDir != "" {
		return h.opts.ScreenshotDir
	}
	return defaultScreenshotDir
}

// captureMeta snapshots the simulator for one queued label.
func (h *Host) captureMeta(label string, now time.Time) captureMeta {
	return captureMeta{
		Label:         label,
		Taken:         now,
		Pointer:       h.sim.Position(),
		Velocity:      h.sim.Velocity(),
		Paused:        h.sim.Paused(),
		ReducedMotion: h.sim.ReducedMotion(),
		Coarse:        h.CoarsePointer(),
		Frame:         h.sim.Snapshot(),
	}
}

// captureBase names the files of one capture, without extension.
func captureBase(now time.Time, tick uint64, label string) string {
	return fmt.Sprintf("%s_f%d_%s", now.Format("20060102_150405"), tick, sanitizeLabel(label))
}

// flushScreenshots writes every queued capture. Called at the end of
// Host.Draw; errors go to stderr and never stop the frame.
func (h *Host) flushScreenshots(screen *ebiten.Image) {
	if len(h.screenshotQueue) == 0 {
		return
	}
	defer func() { h.screenshotQueue = h.screenshotQueue[:0] }()

	dir := h.captureDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "[comet] screenshot: mkdir %s: %v\n", dir, err)
		return
	}

	bounds := screen.Bounds()
	pixels := make([]byte, 4*bounds.Dx()*bounds.Dy())
	screen.ReadPixels(pixels)
	img := unpremultiply(pixels, bounds.Dx(), bounds.Dy())

	now := time.Now()
	for _, label := range h.screenshotQueue {
		meta := h.captureMeta(label, now)
		base := filepath.Join(dir, captureBase(now, meta.Frame.Tick, label))
		if err := writePNG(base+".png", img); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "[comet] screenshot: %v\n", err)
			continue
		}
		if err := writeCaptureMeta(base+".json", meta); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "[comet] screenshot: %v\n", err)
		}
	}
}

// unpremultiply converts ebiten's premultiplied RGBA pixels to an NRGBA
// image, which is what PNG stores.
func unpremultiply(pixels []byte, w, ht int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, ht))
	copy(img.Pix, pixels)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := int(img.Pix[i+3])
		if a == 0 || a == 255 {
			continue
		}
		for c := i; c < i+3; c++ {
			img.Pix[c] = uint8(min(int(img.Pix[c])*255/a, 255))
		}
	}
	return img
}

func writePNG(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func writeCaptureMeta(path string, meta captureMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// sanitizeLabel keeps letters, digits, '-' and '.', replaces everything else
// with '_', and names empty labels "unlabeled".
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
