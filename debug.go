package comet

import (
	"fmt"
	"os"
)

// globalDebug mirrors the most recently set Host debug flag so that node
// operations, which have no host reference, can run their checks.
var globalDebug bool

// SetDebugMode enables or disables debug checks and the once-per-second
// stats line on stderr.
func (h *Host) SetDebugMode(enabled bool) {
	h.debug = enabled
	h.debugAccum = 0
	globalDebug = enabled
}

// debugTick prints simulator and scheduler stats to stderr about once a
// second.
func (h *Host) debugTick(dt float64) {
	h.debugAccum += dt
	if h.debugAccum < 1 {
		return
	}
	h.debugAccum = 0
	f := h.sim.Frame()
	v := h.sim.Velocity()
	_, _ = fmt.Fprintf(os.Stderr,
		"[comet] frame: %d | subs: %d | handlers: %d | pending: %d\n",
		h.ticker.Frames(), h.ticker.Len(), h.dispatcher.HandlerCount(), len(h.injectQueue))
	_, _ = fmt.Fprintf(os.Stderr,
		"[comet] head: (%.1f, %.1f) | speed: %.2f | stretch: %.3f | hover: %t | paused: %t\n",
		f.Head.X, f.Head.Y, v.Len(), f.Head.ScaleAlong, f.Hovering, h.sim.Paused())
}

// debugCheckDisposed panics with a descriptive message when a disposed node
// is used in a tree operation. Only called in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("comet debug: %s on disposed node %q (ID was %d)", op, n.Name, n.ID))
	}
}

// debugCheckTreeDepth warns on stderr if tree depth exceeds the threshold.
// Deep trees make the interactivity walk in IsInteractive slower.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.ParentNode() {
		depth++
	}
	if depth > debugMaxTreeDepth {
		_, _ = fmt.Fprintf(os.Stderr, "[comet] warning: tree depth %d exceeds %d (node %q)\n",
			depth, debugMaxTreeDepth, n.Name)
	}
}
