package comet

// maxPointers sizes the host's touch ID buffer: pointer 0 is the mouse,
// 1-9 are touches.
const maxPointers = 10

// --- Built-in HitShape types ---

// HitShape is used for custom hit testing regions.
type HitShape interface {
	Contains(x, y float64) bool
}

// HitRect is an axis-aligned rectangular hit area in local coordinates.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r HitRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// HitCircle is a circular hit area in local coordinates.
type HitCircle struct {
	CenterX, CenterY, Radius float64
}

// Contains reports whether (x, y) lies inside or on the circle.
func (c HitCircle) Contains(x, y float64) bool {
	dx := x - c.CenterX
	dy := y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// --- Events ---

// PointerEvent carries the data of one raw input event.
type PointerEvent struct {
	Type      EventType
	X, Y      float64
	Target    Element // element the event concerns (entered for over, left for out)
	Related   Element // for out: the element being entered, if any
	Button    MouseButton
	PointerID int
}

// InputSource is the host side of the simulator's input: it delivers raw
// pointer events and visibility changes to registered callbacks. Each
// registration returns a handle that detaches it.
type InputSource interface {
	OnPointerMove(fn func(PointerEvent)) CallbackHandle
	OnPointerOver(fn func(PointerEvent)) CallbackHandle
	OnPointerOut(fn func(PointerEvent)) CallbackHandle
	OnPointerDown(fn func(PointerEvent)) CallbackHandle
	OnPointerUp(fn func(PointerEvent)) CallbackHandle
	OnVisibilityChange(fn func(hidden bool)) CallbackHandle
}

// --- Handler registry ---

type handler[F any] struct {
	id uint32
	fn F
}

type handlerRegistry struct {
	pointerMove []handler[func(PointerEvent)]
	pointerOver []handler[func(PointerEvent)]
	pointerOut  []handler[func(PointerEvent)]
	pointerDown []handler[func(PointerEvent)]
	pointerUp   []handler[func(PointerEvent)]
	visibility  []handler[func(bool)]
	nextID      uint32
}

// CallbackHandle allows removing a registered callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event EventType
}

// Remove unregisters this callback so it no longer fires.
// The entry is removed from the slice to avoid nil iteration waste.
// Removing an already-removed handle is a no-op.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	switch h.event {
	case EventPointerMove:
		h.reg.pointerMove = removeHandler(h.reg.pointerMove, h.id)
	case EventPointerOver:
		h.reg.pointerOver = removeHandler(h.reg.pointerOver, h.id)
	case EventPointerOut:
		h.reg.pointerOut = removeHandler(h.reg.pointerOut, h.id)
	case EventPointerDown:
		h.reg.pointerDown = removeHandler(h.reg.pointerDown, h.id)
	case EventPointerUp:
		h.reg.pointerUp = removeHandler(h.reg.pointerUp, h.id)
	case EventVisibility:
		h.reg.visibility = removeHandler(h.reg.visibility, h.id)
	}
}

func removeHandler[F any](s []handler[F], id uint32) []handler[F] {
	for i := range s {
		if s[i].id == id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = handler[F]{}
			return s[:len(s)-1]
		}
	}
	return s
}

// --- Dispatcher ---

// Dispatcher is an InputSource fed by the host: the host calls the Dispatch
// methods, and every registered callback runs synchronously, in
// registration order, on the host's goroutine.
type Dispatcher struct {
	handlers handlerRegistry
}

// NewDispatcher creates a dispatcher with no callbacks.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) register(event EventType, fn func(PointerEvent)) CallbackHandle {
	d.handlers.nextID++
	id := d.handlers.nextID
	h := handler[func(PointerEvent)]{id: id, fn: fn}
	switch event {
	case EventPointerMove:
		d.handlers.pointerMove = append(d.handlers.pointerMove, h)
	case EventPointerOver:
		d.handlers.pointerOver = append(d.handlers.pointerOver, h)
	case EventPointerOut:
		d.handlers.pointerOut = append(d.handlers.pointerOut, h)
	case EventPointerDown:
		d.handlers.pointerDown = append(d.handlers.pointerDown, h)
	case EventPointerUp:
		d.handlers.pointerUp = append(d.handlers.pointerUp, h)
	}
	return CallbackHandle{id: id, reg: &d.handlers, event: event}
}

// OnPointerMove registers a callback for pointer move events.
func (d *Dispatcher) OnPointerMove(fn func(PointerEvent)) CallbackHandle {
	return d.register(EventPointerMove, fn)
}

// OnPointerOver registers a callback fired when the pointer enters a target.
func (d *Dispatcher) OnPointerOver(fn func(PointerEvent)) CallbackHandle {
	return d.register(EventPointerOver, fn)
}

// OnPointerOut registers a callback fired when the pointer leaves a target.
func (d *Dispatcher) OnPointerOut(fn func(PointerEvent)) CallbackHandle {
	return d.register(EventPointerOut, fn)
}

// OnPointerDown registers a callback for pointer down events.
func (d *Dispatcher) OnPointerDown(fn func(PointerEvent)) CallbackHandle {
	return d.register(EventPointerDown, fn)
}

// OnPointerUp registers a callback for pointer up events.
func (d *Dispatcher) OnPointerUp(fn func(PointerEvent)) CallbackHandle {
	return d.register(EventPointerUp, fn)
}

// OnVisibilityChange registers a callback fired when the view is hidden or shown.
func (d *Dispatcher) OnVisibilityChange(fn func(hidden bool)) CallbackHandle {
	d.handlers.nextID++
	id := d.handlers.nextID
	d.handlers.visibility = append(d.handlers.visibility, handler[func(bool)]{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &d.handlers, event: EventVisibility}
}

// HandlerCount returns the number of registered callbacks of every kind.
func (d *Dispatcher) HandlerCount() int {
	r := &d.handlers
	return len(r.pointerMove) + len(r.pointerOver) + len(r.pointerOut) +
		len(r.pointerDown) + len(r.pointerUp) + len(r.visibility)
}

// DispatchPointerMove delivers a move to (x, y).
func (d *Dispatcher) DispatchPointerMove(x, y float64) {
	fire(d.handlers.pointerMove, PointerEvent{Type: EventPointerMove, X: x, Y: y})
}

// DispatchPointerOver delivers the pointer entering target at (x, y).
func (d *Dispatcher) DispatchPointerOver(x, y float64, target Element) {
	fire(d.handlers.pointerOver, PointerEvent{Type: EventPointerOver, X: x, Y: y, Target: target})
}

// DispatchPointerOut delivers the pointer leaving target for related.
func (d *Dispatcher) DispatchPointerOut(x, y float64, target, related Element) {
	fire(d.handlers.pointerOut, PointerEvent{Type: EventPointerOut, X: x, Y: y, Target: target, Related: related})
}

// DispatchPointerDown delivers a button press at (x, y).
func (d *Dispatcher) DispatchPointerDown(x, y float64, button MouseButton) {
	fire(d.handlers.pointerDown, PointerEvent{Type: EventPointerDown, X: x, Y: y, Button: button})
}

// DispatchPointerUp delivers a button release at (x, y).
func (d *Dispatcher) DispatchPointerUp(x, y float64, button MouseButton) {
	fire(d.handlers.pointerUp, PointerEvent{Type: EventPointerUp, X: x, Y: y, Button: button})
}

// DispatchVisibility delivers a visibility change.
func (d *Dispatcher) DispatchVisibility(hidden bool) {
	for _, h := range d.handlers.visibility {
		if h.fn != nil {
			h.fn(hidden)
		}
	}
}

// fire calls every handler in hs. A handler removed by an earlier one in
// the same dispatch leaves a zeroed slot behind, which is skipped.
func fire(hs []handler[func(PointerEvent)], ev PointerEvent) {
	for _, h := range hs {
		if h.fn != nil {
			h.fn(ev)
		}
	}
}
