package comet

import (
	"errors"
	"math"
)

var (
	// ErrCoarsePointer is returned by Start when the primary pointer is
	// touch-like. The trail would only hide the system cursor there.
	ErrCoarsePointer = errors.New("comet: coarse pointer, trail disabled")
	// ErrAlreadyStarted is returned by Start on a running simulator.
	ErrAlreadyStarted = errors.New("comet: simulator already started")
	// ErrNilCollaborator is returned by Start when the input source or
	// scheduler is nil.
	ErrNilCollaborator = errors.New("comet: nil input source or scheduler")
)

// Environment answers the two activation queries checked once at Start.
type Environment interface {
	// ReducedMotion reports whether the user asked for reduced motion.
	ReducedMotion() bool
	// CoarsePointer reports whether the primary pointer is touch-like.
	CoarsePointer() bool
}

// StaticEnvironment is an Environment with fixed answers.
type StaticEnvironment struct {
	Reduced bool
	Coarse  bool
}

func (e StaticEnvironment) ReducedMotion() bool { return e.Reduced }
func (e StaticEnvironment) CoarsePointer() bool { return e.Coarse }

// Frame is the render output of one tick. Segments[0] is nearest the head.
// Head.ScaleAlong*Head.ScalePerp is 1; Emphasis is a separate uniform
// factor from the hover and press cues, applied on top by the renderer.
type Frame struct {
	Tick     uint64      `json:"tick"`
	Head     Transform   `json:"head"`
	Segments []Transform `json:"segments"`
	Hovering bool        `json:"hovering"`
	Emphasis float64     `json:"emphasis"`
	Accent   Color       `json:"accent"`
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() Frame {
	c := *f
	c.Segments = append([]Transform(nil), f.Segments...)
	return c
}

// FrameSink receives a simulator's output: every frame and each hover
// transition. See Simulator.Attach.
type FrameSink interface {
	PublishFrame(f *Frame)
	PublishHover(hovering bool)
}

// FrameHandle allows removing a frame or hover observer.
type FrameHandle struct {
	id    uint32
	hover bool
	sim   *Simulator
}

// Remove unregisters the observer. Safe to call repeatedly.
func (h FrameHandle) Remove() {
	if h.sim == nil {
		return
	}
	if h.hover {
		h.sim.hoverObservers = removeHandler(h.sim.hoverObservers, h.id)
	} else {
		h.sim.observers = removeHandler(h.sim.observers, h.id)
	}
}

// Simulator is the pointer trail simulation: a smoothed head following the
// raw pointer and a chain of segments following the head.
//
// Ownership is split by writer. Input methods (PointerMove, PointerOver,
// PointerOut, PointerDown, PointerUp) only record the latest sample and
// the hover state and start cues; Tick owns every derived field. Nothing is
// rendered from an input method. Not safe for concurrent use: the host
// calls input methods and Tick from the same goroutine.
type Simulator struct {
	cfg Config

	// Written by input handlers.
	pointer  Vec2
	hovering bool

	// Written by Tick.
	lastRaw  Vec2
	smoothed Vec2
	velocity Vec2
	trail    trail
	frame    Frame

	// Cues, advanced by UpdateCues.
	emphasis    float64
	accent      Color
	emphasisCue *TweenGroup
	accentCue   *TweenGroup

	// Lifecycle.
	running        bool
	reduced        bool
	handles        []CallbackHandle
	tickSub        TickHandle
	cueSub         TickHandle
	observers      []handler[func(*Frame)]
	hoverObservers []handler[func(bool)]
	nextObsID      uint32
}

// NewSimulator validates cfg and creates a simulator with the head and every
// segment resting at cfg.Origin.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		cfg:      cfg,
		pointer:  cfg.Origin,
		lastRaw:  cfg.Origin,
		smoothed: cfg.Origin,
		trail:    newTrail(cfg),
		emphasis: 1,
		accent:   cfg.AccentBase,
	}
	s.frame.Segments = make([]Transform, cfg.Segments)
	s.frame.Head = Transform{X: cfg.Origin.X, Y: cfg.Origin.Y, ScaleAlong: 1, ScalePerp: 1, Opacity: 1}
	s.trail.render(s.frame.Segments, 0, 1, &s.cfg)
	s.syncCues()
	return s, nil
}

// Config returns the configuration the simulator was built with.
func (s *Simulator) Config() Config { return s.cfg }

// --- Input ---

// PointerMove records the latest raw pointer position. Non-finite
// coordinates are dropped so they never reach the chain.
func (s *Simulator) PointerMove(x, y float64) {
	p := Vec2{x, y}
	if !p.finite() {
		return
	}
	s.pointer = p
}

// PointerOver records the pointer entering target.
func (s *Simulator) PointerOver(target Element) {
	s.setHover(IsInteractive(target))
}

// PointerOut records the pointer leaving one element for entered (nil when
// it leaves for empty space). Hover follows the element being entered, so
// moving between two parts of the same button never drops the cue.
func (s *Simulator) PointerOut(left, entered Element) {
	s.setHover(IsInteractive(entered))
}

// PointerDown starts the press cue.
func (s *Simulator) PointerDown() {
	s.emphasisCue = TweenScalar(&s.emphasis, s.cfg.PressScale, float32(s.cfg.PressDuration), cueEase)
}

// PointerUp releases the press cue back to the hover or rest scale.
func (s *Simulator) PointerUp() {
	s.emphasisCue = TweenScalar(&s.emphasis, s.restScale(), float32(s.cfg.PressDuration), cueEase)
}

func (s *Simulator) setHover(active bool) {
	if active == s.hovering {
		return
	}
	s.hovering = active
	for _, o := range s.hoverObservers {
		if o.fn != nil {
			o.fn(active)
		}
	}
	accent := s.cfg.AccentBase
	if active {
		accent = s.cfg.AccentHover
	}
	d := float32(s.cfg.HoverDuration)
	s.emphasisCue = TweenScalar(&s.emphasis, s.restScale(), d, cueEase)
	s.accentCue = TweenColor(&s.accent, accent, d, cueEase)
}

// carryOver continues prev's live input state in s: the raw pointer (also
// as the last tick's sample, so the first tick sees no motion) and the hover
// and cue values. Cues still away from s's targets ease toward them.
func (s *Simulator) carryOver(prev *Simulator) {
	s.pointer = prev.pointer
	s.lastRaw = prev.pointer
	s.hovering = prev.hovering
	s.emphasis = prev.emphasis
	s.accent = prev.accent

	d := float32(s.cfg.HoverDuration)
	if rest := s.restScale(); s.emphasis != rest {
		s.emphasisCue = TweenScalar(&s.emphasis, rest, d, cueEase)
	}
	accent := s.cfg.AccentBase
	if s.hovering {
		accent = s.cfg.AccentHover
	}
	if s.accent != accent {
		s.accentCue = TweenColor(&s.accent, accent, d, cueEase)
	}
	s.syncCues()
}

func (s *Simulator) restScale() float64 {
	if s.hovering {
		return s.cfg.HoverScale
	}
	return 1
}

// --- Tick ---

// Tick advances the simulation by one step covering dt seconds and notifies
// frame observers. A dt of exactly 1/ReferenceHz (or dt <= 0) applies the
// per-frame coefficients unchanged.
func (s *Simulator) Tick(dt float64) {
	frames := s.referenceFrames(dt)

	// Velocity first, so the head orientation reflects this step's motion.
	s.velocity = s.pointer.Sub(s.lastRaw)
	s.lastRaw = s.pointer

	k := frameCoefficient(s.cfg.Stiffness, frames)
	s.smoothed = s.smoothed.Add(s.pointer.Sub(s.smoothed).Scale(k))

	angle := 0.0
	if !s.velocity.IsZero() {
		angle = math.Atan2(s.velocity.Y, s.velocity.X)
	}
	speed := s.velocity.Len() / frames
	stretch := math.Min(1+speed*s.cfg.SpeedGain, s.cfg.MaxStretch)

	s.frame.Tick++
	s.frame.Head = Transform{
		X:          s.smoothed.X,
		Y:          s.smoothed.Y,
		Rotation:   angle,
		ScaleAlong: stretch,
		ScalePerp:  1 / stretch,
		Opacity:    1,
	}

	s.trail.advance(s.smoothed, frames)
	s.trail.render(s.frame.Segments, angle, stretch, &s.cfg)
	s.syncCues()

	for _, o := range s.observers {
		if o.fn != nil {
			o.fn(&s.frame)
		}
	}
}

// UpdateCues advances the hover and press transitions by dt seconds. They
// run on their own subscription so they keep easing under reduced motion.
func (s *Simulator) UpdateCues(dt float64) {
	s.emphasisCue.Update(float32(dt))
	s.accentCue.Update(float32(dt))
	if s.emphasisCue != nil && s.emphasisCue.Done {
		s.emphasisCue = nil
	}
	if s.accentCue != nil && s.accentCue.Done {
		s.accentCue = nil
	}
	s.syncCues()
}

func (s *Simulator) syncCues() {
	s.frame.Hovering = s.hovering
	s.frame.Emphasis = s.emphasis
	s.frame.Accent = s.accent
}

// referenceFrames converts elapsed seconds to reference frames.
func (s *Simulator) referenceFrames(dt float64) float64 {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return 1
	}
	f := dt * s.cfg.ReferenceHz
	if math.Abs(f-1) < 1e-9 {
		return 1
	}
	return f
}

// --- Observation ---

// Frame returns the latest frame. The returned value is owned by the
// simulator and overwritten by the next Tick; it MUST NOT be mutated.
func (s *Simulator) Frame() *Frame { return &s.frame }

// Snapshot returns a deep copy of the latest frame.
func (s *Simulator) Snapshot() Frame { return s.frame.Clone() }

// OnFrame registers fn to be called after every Tick with the new frame.
// The frame MUST NOT be mutated or retained past the call.
func (s *Simulator) OnFrame(fn func(*Frame)) FrameHandle {
	s.nextObsID++
	s.observers = append(s.observers, handler[func(*Frame)]{id: s.nextObsID, fn: fn})
	return FrameHandle{id: s.nextObsID, sim: s}
}

// OnHoverChange registers fn to be called whenever the hover state flips.
func (s *Simulator) OnHoverChange(fn func(hovering bool)) FrameHandle {
	s.nextObsID++
	s.hoverObservers = append(s.hoverObservers, handler[func(bool)]{id: s.nextObsID, fn: fn})
	return FrameHandle{id: s.nextObsID, hover: true, sim: s}
}

// Attach forwards frames and hover transitions to sink until the returned
// detach func is called.
func (s *Simulator) Attach(sink FrameSink) (detach func()) {
	fh := s.OnFrame(sink.PublishFrame)
	hh := s.OnHoverChange(sink.PublishHover)
	return func() {
		fh.Remove()
		hh.Remove()
	}
}

// Position returns the latest raw pointer sample.
func (s *Simulator) Position() Vec2 { return s.pointer }

// SmoothedPosition returns the head anchor.
func (s *Simulator) SmoothedPosition() Vec2 { return s.smoothed }

// Velocity returns the raw displacement over the last tick.
func (s *Simulator) Velocity() Vec2 { return s.velocity }

// Hovering reports whether the pointer is over an interactive element.
func (s *Simulator) Hovering() bool { return s.hovering }

// Emphasis returns the current cue scale.
func (s *Simulator) Emphasis() float64 { return s.emphasis }

// SegmentPositions appends the segment positions to dst and returns it.
func (s *Simulator) SegmentPositions(dst []Vec2) []Vec2 {
	return append(dst, s.trail.pos...)
}

// --- Lifecycle ---

// Start checks the activation preconditions, subscribes to src and
// schedules the tick on sched. On a coarse pointer nothing is registered
// and ErrCoarsePointer is returned. Under reduced motion the input handlers
// and cues run but the kinematic tick is never scheduled, leaving the head
// at rest at the origin and the trail hidden.
func (s *Simulator) Start(src InputSource, sched Scheduler, env Environment) error {
	if s.running {
		return ErrAlreadyStarted
	}
	if src == nil || sched == nil {
		return ErrNilCollaborator
	}
	if env != nil && env.CoarsePointer() {
		return ErrCoarsePointer
	}
	s.reduced = env != nil && env.ReducedMotion()

	s.handles = append(s.handles[:0],
		src.OnPointerMove(func(e PointerEvent) { s.PointerMove(e.X, e.Y) }),
		src.OnPointerOver(func(e PointerEvent) { s.PointerOver(e.Target) }),
		src.OnPointerOut(func(e PointerEvent) { s.PointerOut(e.Target, e.Related) }),
		src.OnPointerDown(func(PointerEvent) { s.PointerDown() }),
		src.OnPointerUp(func(PointerEvent) { s.PointerUp() }),
		src.OnVisibilityChange(s.setVisible),
	)

	s.cueSub = sched.Schedule(s.UpdateCues)
	if s.reduced {
		for i := range s.frame.Segments {
			s.frame.Segments[i].Opacity = 0
		}
	} else {
		s.tickSub = sched.Schedule(s.Tick)
	}
	s.running = true
	return nil
}

// setVisible suspends ticking while the view is hidden. State is kept, and
// input keeps flowing; only the latest sample matters on resume.
func (s *Simulator) setVisible(hidden bool) {
	for _, sub := range []TickHandle{s.tickSub, s.cueSub} {
		if sub == nil {
			continue
		}
		if hidden {
			sub.Pause()
		} else {
			sub.Resume()
		}
	}
}

// Stop removes every input handler and cancels the scheduled tick in one
// step. Calling Stop on a stopped simulator is a no-op.
func (s *Simulator) Stop() {
	for _, h := range s.handles {
		h.Remove()
	}
	for i := range s.handles {
		s.handles[i] = CallbackHandle{}
	}
	s.handles = s.handles[:0]
	if s.tickSub != nil {
		s.tickSub.Cancel()
		s.tickSub = nil
	}
	if s.cueSub != nil {
		s.cueSub.Cancel()
		s.cueSub = nil
	}
	s.running = false
}

// Running reports whether Start succeeded and Stop has not been called.
func (s *Simulator) Running() bool { return s.running }

// ReducedMotion reports whether the last Start ran under reduced motion.
func (s *Simulator) ReducedMotion() bool { return s.reduced }

// Paused reports whether ticking is currently suspended by visibility.
func (s *Simulator) Paused() bool {
	return s.running && s.cueSub != nil && !s.cueSub.Active()
}
