package comet

import (
	"fmt"
	"os"
	"runtime"

	"github.com/hajimehoshi/ebiten/v2"
)

// HostOptions configures a Host.
type HostOptions struct {
	// Width and Height are the logical screen size. The trail starts at the
	// center when Config.Origin is zero.
	Width, Height int

	// ReducedMotion disables the continuous trail.
	ReducedMotion bool
	// CoarsePointer disables the trail entirely. Always true on mobile
	// targets.
	CoarsePointer bool

	// ClearColor fills the screen before drawing when its alpha is non-zero.
	ClearColor Color
	// ShowFPS draws the FPS/TPS overlay.
	ShowFPS bool
	// ScreenshotDir receives Screenshot captures ("screenshots" if empty).
	ScreenshotDir string
}

// pointerState is the host's view of the mouse pointer between frames.
type pointerState struct {
	down      bool
	lastX     float64
	lastY     float64
	seen      bool
	hoverNode *Node // last node the pointer was over (for over/out)
	button    MouseButton

	mouseSeen bool // the mouse moved at least once
	touchOnly bool // touch input arrived before any mouse movement
	touchIDs  []ebiten.TouchID
}

// Host runs a Simulator inside an Ebitengine game: it polls the mouse and
// window focus, hit-tests a Node tree to derive over/out targets, drives the
// ticker, and draws the view and the trail. Host implements ebiten.Game and
// Environment.
type Host struct {
	root       *Node
	dispatcher *Dispatcher
	ticker     *Ticker
	sim        *Simulator
	renderer   *Renderer
	opts       HostOptions

	pointer     pointerState
	hitBuf      []*Node
	focused     bool
	injectQueue []syntheticPointerEvent
	runner      *ScriptRunner
	updateFunc  func() error

	screenshotQueue []string

	debug      bool
	debugAccum float64
	fps        fpsOverlay
}

// NewHost creates a host with an empty root node and a simulator built from
// cfg. The simulator is not started; call Start (Run does).
func NewHost(cfg Config, opts HostOptions) (*Host, error) {
	if cfg.Origin.IsZero() {
		cfg.Origin = Vec2{float64(opts.Width) / 2, float64(opts.Height) / 2}
	}
	sim, err := NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	root := NewNode("root", RoleGeneric)
	root.Width, root.Height = float64(opts.Width), float64(opts.Height)
	return &Host{
		root:       root,
		dispatcher: NewDispatcher(),
		ticker:     NewTicker(),
		sim:        sim,
		renderer:   NewRenderer(cfg),
		opts:       opts,
		focused:    true,
	}, nil
}

// Root returns the root node of the hosted view.
func (h *Host) Root() *Node { return h.root }

// Simulator returns the hosted simulator.
func (h *Host) Simulator() *Simulator { return h.sim }

// Ticker returns the host's frame scheduler.
func (h *Host) Ticker() *Ticker { return h.ticker }

// Dispatcher returns the host's input dispatcher.
func (h *Host) Dispatcher() *Dispatcher { return h.dispatcher }

// SetUpdateFunc sets a callback run at the end of every Update.
func (h *Host) SetUpdateFunc(fn func() error) { h.updateFunc = fn }

// ReducedMotion implements Environment.
func (h *Host) ReducedMotion() bool { return h.opts.ReducedMotion }

// CoarsePointer implements Environment. Mobile targets have no hover, so
// they always report a coarse pointer, as does a host that has seen touch
// input without a mouse.
func (h *Host) CoarsePointer() bool {
	return h.opts.CoarsePointer || h.pointer.touchOnly ||
		runtime.GOOS == "android" || runtime.GOOS == "ios"
}

// Start starts the simulator against this host.
func (h *Host) Start() error {
	return h.sim.Start(h.dispatcher, h.ticker, h)
}

// Stop stops the simulator. Idempotent.
func (h *Host) Stop() {
	h.sim.Stop()
}

// Replace swaps in a new simulator built from cfg, carrying the running
// state over: the old one is stopped and the new one started if the old
// one was running. The pointer sample and hover state carry over too, since
// the hovered node has not changed and no new pointer-over will arrive.
// Used for live config reloads.
func (h *Host) Replace(cfg Config) error {
	if cfg.Origin.IsZero() {
		cfg.Origin = h.sim.SmoothedPosition()
	}
	sim, err := NewSimulator(cfg)
	if err != nil {
		return err
	}
	wasRunning := h.sim.Running()
	h.sim.Stop()
	sim.carryOver(h.sim)
	h.sim = sim
	h.renderer = NewRenderer(cfg)
	if wasRunning {
		return h.sim.Start(h.dispatcher, h.ticker, h)
	}
	return nil
}

// --- ebiten.Game ---

// Update processes input and advances the ticker by one frame.
func (h *Host) Update() error {
	dt := 1.0 / float64(ebiten.TPS())

	if h.runner != nil {
		h.runner.step(h)
	}
	h.pollVisibility(ebiten.IsFocused())
	if !h.processInjectedInput() {
		h.processMousePointer()
	}
	h.ticker.Advance(dt)

	if h.opts.ShowFPS {
		h.fps.update(dt)
	}
	if h.debug {
		h.debugTick(dt)
	}
	if h.updateFunc != nil {
		return h.updateFunc()
	}
	return nil
}

// Draw paints the node tree and then the trail on top.
func (h *Host) Draw(screen *ebiten.Image) {
	if h.opts.ClearColor.A > 0 {
		screen.Fill(h.opts.ClearColor.toRGBA())
	}
	drawNodes(screen, h.root)
	h.renderer.Draw(screen, h.sim.Frame())
	if h.opts.ShowFPS {
		h.fps.draw(screen)
	}
	h.flushScreenshots(screen)
}

// Layout keeps the logical size fixed when one was configured.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	if h.opts.Width > 0 && h.opts.Height > 0 {
		return h.opts.Width, h.opts.Height
	}
	return outsideWidth, outsideHeight
}

// --- Input processing ---

// pollVisibility dispatches a visibility change when window focus flips.
func (h *Host) pollVisibility(focused bool) {
	if focused == h.focused {
		return
	}
	h.focused = focused
	h.dispatcher.DispatchVisibility(!focused)
}

// processMousePointer polls the mouse and feeds processPointer. A touch
// screen without a mouse is a coarse pointer: the first touch stops the
// trail for good.
func (h *Host) processMousePointer() {
	ps := &h.pointer
	if ps.touchIDs == nil {
		ps.touchIDs = make([]ebiten.TouchID, 0, maxPointers)
	}
	ps.touchIDs = ebiten.AppendTouchIDs(ps.touchIDs[:0])
	if len(ps.touchIDs) > 0 && !ps.mouseSeen {
		h.touchDetected()
		return
	}

	mx, my := ebiten.CursorPosition()
	if ps.seen && (float64(mx) != ps.lastX || float64(my) != ps.lastY) {
		ps.mouseSeen = true
	}

	// If the pointer is already down, keep the stored button.
	var pressed bool
	var button MouseButton
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	middle := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)

	if left || right || middle {
		pressed = true
		if left {
			button = MouseButtonLeft
		} else if right {
			button = MouseButtonRight
		} else {
			button = MouseButtonMiddle
		}
	}

	h.processPointer(float64(mx), float64(my), pressed, button)
}

// processPointer turns one polled pointer state into events: out/over when
// the hovered node changes, move when the position changes, down/up on
// button transitions.
func (h *Host) processPointer(x, y float64, pressed bool, button MouseButton) {
	ps := &h.pointer

	moved := !ps.seen || x != ps.lastX || y != ps.lastY
	if moved {
		ps.seen = true
		ps.lastX, ps.lastY = x, y
		h.dispatcher.DispatchPointerMove(x, y)
	}

	target := h.hitTest(x, y)
	if target != ps.hoverNode {
		if ps.hoverNode != nil {
			h.dispatcher.DispatchPointerOut(x, y, ps.hoverNode, elementOf(target))
		}
		if target != nil {
			h.dispatcher.DispatchPointerOver(x, y, target)
		}
		ps.hoverNode = target
	}

	if pressed && !ps.down {
		ps.down = true
		ps.button = button
		h.dispatcher.DispatchPointerDown(x, y, button)
	} else if !pressed && ps.down {
		ps.down = false
		h.dispatcher.DispatchPointerUp(x, y, ps.button)
	}
}

// touchDetected switches the host to coarse-pointer mode and stops the
// simulator. Idempotent.
func (h *Host) touchDetected() {
	if h.pointer.touchOnly {
		return
	}
	h.pointer.touchOnly = true
	h.sim.Stop()
	if globalDebug {
		_, _ = fmt.Fprintln(os.Stderr, "[comet] touch without mouse: trail disabled")
	}
}

// elementOf converts a possibly-nil node to an Element without producing a
// non-nil interface around a nil pointer.
func elementOf(n *Node) Element {
	if n == nil {
		return nil
	}
	return n
}

// --- Hit testing ---

// nodeContainsLocal tests whether (lx, ly) falls inside a node's hit region.
// Uses HitShape if set; otherwise the node's Width/Height box. The root is
// never a hit target.
func nodeContainsLocal(n *Node, lx, ly float64) bool {
	if n.HitShape != nil {
		return n.HitShape.Contains(lx, ly)
	}
	if n.Width == 0 && n.Height == 0 {
		return false
	}
	return lx >= 0 && lx <= n.Width && ly >= 0 && ly <= n.Height
}

// collectHittable walks the tree in painter order (DFS, child order),
// appending visible nodes to buf. Skips Visible=false subtrees.
func collectHittable(n *Node, buf []*Node) []*Node {
	if !n.Visible {
		return buf
	}
	buf = append(buf, n)
	for _, child := range n.children {
		buf = collectHittable(child, buf)
	}
	return buf
}

// hitTest finds the topmost node under (x, y), excluding the root.
// Returns nil if nothing is hit.
func (h *Host) hitTest(x, y float64) *Node {
	h.hitBuf = collectHittable(h.root, h.hitBuf[:0])

	// Iterate backward (reverse painter order): topmost visual node first.
	for i := len(h.hitBuf) - 1; i >= 1; i-- {
		n := h.hitBuf[i]
		lx, ly := n.WorldToLocal(x, y)
		if nodeContainsLocal(n, lx, ly) {
			return n
		}
	}
	return nil
}
