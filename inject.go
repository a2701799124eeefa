package comet

// syntheticPointerEvent represents a single injected pointer state. One is
// consumed per frame in place of polling the real mouse.
type syntheticPointerEvent struct {
	x, y    float64
	pressed bool
	button  MouseButton
}

// InjectMove queues a hover move (no button held) to (x, y).
func (h *Host) InjectMove(x, y float64) {
	h.injectQueue = append(h.injectQueue, syntheticPointerEvent{x: x, y: y})
}

// InjectPress queues a left-button press at (x, y).
func (h *Host) InjectPress(x, y float64) {
	h.injectQueue = append(h.injectQueue, syntheticPointerEvent{
		x: x, y: y,
		pressed: true,
		button:  MouseButtonLeft,
	})
}

// InjectRelease queues a button release at (x, y).
func (h *Host) InjectRelease(x, y float64) {
	h.injectQueue = append(h.injectQueue, syntheticPointerEvent{x: x, y: y})
}

// InjectClick is a convenience that queues a press followed by a release
// at the same coordinates. Consumes two frames.
func (h *Host) InjectClick(x, y float64) {
	h.InjectPress(x, y)
	h.InjectRelease(x, y)
}

// InjectPath queues hover moves from (fromX, fromY) to (toX, toY), linearly
// interpolated over the given number of frames (minimum 1; the last move
// lands exactly on the destination).
func (h *Host) InjectPath(fromX, fromY, toX, toY float64, frames int) {
	if frames < 1 {
		frames = 1
	}
	for i := 1; i <= frames; i++ {
		t := float64(i) / float64(frames)
		h.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
}

// Pending returns the number of queued synthetic events.
func (h *Host) Pending() int {
	return len(h.injectQueue)
}

// processInjectedInput pops one event from the inject queue and feeds it
// through processPointer. Returns true if an event was consumed (real
// mouse input should be skipped).
func (h *Host) processInjectedInput() bool {
	if len(h.injectQueue) == 0 {
		return false
	}
	evt := h.injectQueue[0]
	copy(h.injectQueue, h.injectQueue[1:])
	h.injectQueue = h.injectQueue[:len(h.injectQueue)-1]

	h.processPointer(evt.x, evt.y, evt.pressed, evt.button)
	return true
}
