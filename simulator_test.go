package comet

import (
	"errors"
	"math"
	"testing"
)

const frameDT = 1.0 / 60

type testRig struct {
	sim    *Simulator
	d      *Dispatcher
	ticker *Ticker
}

func startRig(t *testing.T, cfg Config, env Environment) testRig {
	t.Helper()
	sim, err := NewSimulator(cfg)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	r := testRig{sim: sim, d: NewDispatcher(), ticker: NewTicker()}
	if err := sim.Start(r.d, r.ticker, env); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return r
}

func (r testRig) advance(n int) {
	for i := 0; i < n; i++ {
		r.ticker.Advance(frameDT)
	}
}

// --- Kinematics ---

func TestFiftyTickScenario(t *testing.T) {
	r := startRig(t, DefaultConfig(), StaticEnvironment{})
	r.d.DispatchPointerMove(100, 0)
	r.advance(50)

	p := r.sim.SmoothedPosition()
	want := 100 - 100*math.Pow(0.78, 50)
	if math.Abs(p.X-want) > 1e-9 {
		t.Errorf("smoothed x = %v, want %v", p.X, want)
	}
	if p.X < 99.999 || p.X >= 100 {
		t.Errorf("smoothed x = %v, want just under 100", p.X)
	}
	if p.Y != 0 {
		t.Errorf("smoothed y = %v, want exactly 0", p.Y)
	}
}

func TestFirstTickAfterMove(t *testing.T) {
	cfg := DefaultConfig()
	r := startRig(t, cfg, StaticEnvironment{})
	r.d.DispatchPointerMove(100, 0)
	r.advance(1)

	f := r.sim.Frame()
	if f.Tick != 1 {
		t.Errorf("Tick = %d, want 1", f.Tick)
	}
	v := r.sim.Velocity()
	if v.X != 100 || v.Y != 0 {
		t.Errorf("velocity = %v, want (100, 0)", v)
	}
	assertNear(t, "head x", f.Head.X, 22)
	// speed 100 → 1 + 2 = 3, clamped.
	if f.Head.ScaleAlong != cfg.MaxStretch {
		t.Errorf("stretch = %v, want %v", f.Head.ScaleAlong, cfg.MaxStretch)
	}
	if f.Head.ScalePerp != 1/cfg.MaxStretch {
		t.Errorf("squash = %v, want 1/%v", f.Head.ScalePerp, cfg.MaxStretch)
	}
	if f.Head.Rotation != 0 {
		t.Errorf("rotation = %v, want 0", f.Head.Rotation)
	}
	if f.Head.Opacity != 1 {
		t.Errorf("head opacity = %v, want 1", f.Head.Opacity)
	}

	// Velocity is only the delta of one tick.
	r.advance(1)
	if !r.sim.Velocity().IsZero() {
		t.Errorf("velocity after idle tick = %v, want zero", r.sim.Velocity())
	}
	if f.Head.ScaleAlong != 1 || f.Head.ScalePerp != 1 {
		t.Errorf("stretch at rest = %v/%v, want 1/1", f.Head.ScaleAlong, f.Head.ScalePerp)
	}
}

func TestStretchBelowClamp(t *testing.T) {
	r := startRig(t, DefaultConfig(), StaticEnvironment{})
	r.d.DispatchPointerMove(0, 10)
	r.advance(1)

	h := r.sim.Frame().Head
	assertNear(t, "stretch", h.ScaleAlong, 1.2)
	assertNear(t, "rotation", h.Rotation, math.Pi/2)
	assertNear(t, "stretch*squash", h.ScaleAlong*h.ScalePerp, 1)
}

func TestStretchClampAndSquashIdentity(t *testing.T) {
	cfg := DefaultConfig()
	r := startRig(t, cfg, StaticEnvironment{})
	pos := []Vec2{{3, 4}, {500, -200}, {501, -200}, {-9000, 40}, {-9000, 40}, {1e6, 1e6}}
	for _, p := range pos {
		r.d.DispatchPointerMove(p.X, p.Y)
		r.advance(1)
		h := r.sim.Frame().Head
		if h.ScaleAlong < 1 || h.ScaleAlong > cfg.MaxStretch {
			t.Errorf("stretch %v outside [1, %v]", h.ScaleAlong, cfg.MaxStretch)
		}
		if h.ScalePerp != 1/h.ScaleAlong {
			t.Errorf("squash %v != 1/stretch %v", h.ScalePerp, h.ScaleAlong)
		}
		for i, s := range r.sim.Frame().Segments {
			if math.Abs(s.ScaleAlong*s.ScalePerp-1) > 1e-12 {
				t.Errorf("segment %d scale product = %v", i, s.ScaleAlong*s.ScalePerp)
			}
		}
	}
}

func TestZeroVelocityIsStable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Origin = Vec2{320, 240}
	r := startRig(t, cfg, StaticEnvironment{})
	r.advance(10)

	f := r.sim.Frame()
	if f.Head.X != 320 || f.Head.Y != 240 {
		t.Errorf("head = (%v, %v), want origin", f.Head.X, f.Head.Y)
	}
	if f.Head.Rotation != 0 || f.Head.ScaleAlong != 1 {
		t.Errorf("head at rest: rotation %v stretch %v", f.Head.Rotation, f.Head.ScaleAlong)
	}
	for i, s := range f.Segments {
		if s.X != 320 || s.Y != 240 {
			t.Errorf("segment %d = (%v, %v), want origin", i, s.X, s.Y)
		}
		if math.IsNaN(s.Rotation) {
			t.Errorf("segment %d rotation is NaN", i)
		}
	}
}

func TestConvergence(t *testing.T) {
	r := startRig(t, DefaultConfig(), StaticEnvironment{})
	r.d.DispatchPointerMove(-250, 410)
	r.advance(2000)

	target := Vec2{-250, 410}
	if d := r.sim.SmoothedPosition().Sub(target).Len(); d > 1e-6 {
		t.Errorf("head distance = %v", d)
	}
	for i, p := range r.sim.SegmentPositions(nil) {
		if d := p.Sub(target).Len(); d > 1e-6 {
			t.Errorf("segment %d distance = %v", i, d)
		}
	}
}

func TestChainOrdering(t *testing.T) {
	r := startRig(t, DefaultConfig(), StaticEnvironment{})
	r.d.DispatchPointerMove(100, 0)

	for tick := 0; tick < 200; tick++ {
		r.advance(1)
		lead := r.sim.SmoothedPosition().X
		if lead > 100 {
			t.Fatalf("tick %d: head overshot to %v", tick, lead)
		}
		for i, p := range r.sim.SegmentPositions(nil) {
			if p.X > lead {
				t.Fatalf("tick %d: segment %d at %v ahead of its leader at %v", tick, i, p.X, lead)
			}
			lead = p.X
		}
	}
}

func TestSegmentRenderAttributes(t *testing.T) {
	cfg := DefaultConfig()
	r := startRig(t, cfg, StaticEnvironment{})
	r.d.DispatchPointerMove(100, 0)
	r.advance(1)

	f := r.sim.Frame()
	if len(f.Segments) != 6 {
		t.Fatalf("segments = %d, want 6", len(f.Segments))
	}
	for i, s := range f.Segments {
		p := float64(i+1) / 7
		wantScale := 1 + (1.35-1)*(1-p)*0.7
		assertNear(t, "segment scale", s.ScaleAlong, wantScale)
		assertNear(t, "segment squash", s.ScalePerp, 1/wantScale)
		assertNear(t, "segment opacity", s.Opacity, 0.35*(1-p))
		if s.Rotation != f.Head.Rotation {
			t.Errorf("segment %d rotation = %v, want head's %v", i, s.Rotation, f.Head.Rotation)
		}
	}
	// Segment 0 chased the head by its own damping.
	assertNear(t, "segment 0 x", f.Segments[0].X, 22*0.14)
	assertNear(t, "segment 1 x", f.Segments[1].X, 22*0.14*0.128)
}

func TestNonFinitePointerIgnored(t *testing.T) {
	r := startRig(t, DefaultConfig(), StaticEnvironment{})
	r.d.DispatchPointerMove(50, 50)
	r.d.DispatchPointerMove(math.NaN(), 10)
	r.d.DispatchPointerMove(10, math.Inf(1))
	r.advance(3)

	if p := r.sim.Position(); p.X != 50 || p.Y != 50 {
		t.Errorf("position = %v, want (50, 50)", p)
	}
	h := r.sim.Frame().Head
	if math.IsNaN(h.X) || math.IsNaN(h.Y) || math.IsNaN(h.Rotation) {
		t.Errorf("NaN reached the head: %+v", h)
	}
}

func TestZeroSegments(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Segments = 0
	r := startRig(t, cfg, StaticEnvironment{})
	r.d.DispatchPointerMove(10, 10)
	r.advance(5)
	if n := len(r.sim.Frame().Segments); n != 0 {
		t.Errorf("segments = %d, want 0", n)
	}
}

// --- Frame-rate normalisation ---

func TestReferenceRateMatchesPerFrameFormula(t *testing.T) {
	a := startRig(t, DefaultConfig(), StaticEnvironment{})
	b := startRig(t, DefaultConfig(), StaticEnvironment{})
	a.d.DispatchPointerMove(80, -30)
	b.d.DispatchPointerMove(80, -30)
	for i := 0; i < 20; i++ {
		a.ticker.Advance(frameDT)
		b.ticker.Advance(0) // dt <= 0 is one reference frame
	}
	fa, fb := a.sim.Frame(), b.sim.Frame()
	if fa.Head != fb.Head {
		t.Errorf("head %+v != %+v", fa.Head, fb.Head)
	}
	for i := range fa.Segments {
		if fa.Segments[i] != fb.Segments[i] {
			t.Errorf("segment %d: %+v != %+v", i, fa.Segments[i], fb.Segments[i])
		}
	}
}

func TestTwoHalfStepsMatchOneFullStep(t *testing.T) {
	full := startRig(t, DefaultConfig(), StaticEnvironment{})
	half := startRig(t, DefaultConfig(), StaticEnvironment{})
	full.d.DispatchPointerMove(100, 40)
	half.d.DispatchPointerMove(100, 40)

	for i := 0; i < 10; i++ {
		full.ticker.Advance(frameDT)
		half.ticker.Advance(frameDT / 2)
		half.ticker.Advance(frameDT / 2)
	}

	if d := full.sim.SmoothedPosition().Sub(half.sim.SmoothedPosition()).Len(); d > 1e-9 {
		t.Errorf("head differs by %v", d)
	}
	// Segments chase a moving leader, so sub-stepping only approximates.
	fp := full.sim.SegmentPositions(nil)
	hp := half.sim.SegmentPositions(nil)
	for i := range fp {
		if d := fp[i].Sub(hp[i]).Len(); d > 3 {
			t.Errorf("segment %d differs by %v", i, d)
		}
	}
}

func TestHigherRateSpeedIsPerReferenceFrame(t *testing.T) {
	r := startRig(t, DefaultConfig(), StaticEnvironment{})
	// 5px in half a reference frame is 10px per reference frame.
	r.d.DispatchPointerMove(5, 0)
	r.ticker.Advance(frameDT / 2)
	assertNear(t, "stretch", r.sim.Frame().Head.ScaleAlong, 1.2)
}

// --- Cues ---

func TestHoverCueOnlyOnChange(t *testing.T) {
	r := startRig(t, DefaultConfig(), StaticEnvironment{})
	var changes []bool
	r.sim.OnHoverChange(func(h bool) { changes = append(changes, h) })

	btn := NewNode("btn", RoleButton)
	label := NewNode("label", RoleText)
	btn.AddChild(label)
	plain := NewNode("div", RoleGeneric)

	r.d.DispatchPointerOver(0, 0, plain) // not interactive, no change
	r.d.DispatchPointerOver(0, 0, btn)
	r.d.DispatchPointerOver(0, 0, label)     // still inside the button
	r.d.DispatchPointerOut(0, 0, btn, label) // moving onto the label keeps hover
	r.d.DispatchPointerOut(0, 0, label, nil) // left for empty space
	r.d.DispatchPointerOut(0, 0, plain, nil) // already off

	if len(changes) != 2 || !changes[0] || changes[1] {
		t.Errorf("changes = %v, want [true false]", changes)
	}
	if r.sim.Hovering() {
		t.Error("should not be hovering")
	}
}

func TestHoverCueEasesEmphasisAndAccent(t *testing.T) {
	cfg := DefaultConfig()
	r := startRig(t, cfg, StaticEnvironment{})
	r.d.DispatchPointerOver(0, 0, NewNode("a", RoleLink))

	r.advance(1)
	mid := r.sim.Emphasis()
	if mid <= 1 || mid >= cfg.HoverScale {
		t.Errorf("emphasis mid-cue = %v, want between 1 and %v", mid, cfg.HoverScale)
	}

	r.advance(15) // well past 0.18s
	f := r.sim.Frame()
	if math.Abs(f.Emphasis-cfg.HoverScale) > 1e-4 {
		t.Errorf("emphasis = %v, want %v", f.Emphasis, cfg.HoverScale)
	}
	if !f.Hovering {
		t.Error("frame should report hovering")
	}
	if math.Abs(f.Accent.G-cfg.AccentHover.G) > 1e-4 || math.Abs(f.Accent.A-cfg.AccentHover.A) > 1e-4 {
		t.Errorf("accent = %+v, want %+v", f.Accent, cfg.AccentHover)
	}
}

func TestPressCue(t *testing.T) {
	cfg := DefaultConfig()
	r := startRig(t, cfg, StaticEnvironment{})

	r.d.DispatchPointerDown(0, 0, MouseButtonLeft)
	r.advance(12)
	if math.Abs(r.sim.Emphasis()-cfg.PressScale) > 1e-4 {
		t.Errorf("pressed emphasis = %v, want %v", r.sim.Emphasis(), cfg.PressScale)
	}

	r.d.DispatchPointerUp(0, 0, MouseButtonLeft)
	r.advance(12)
	if math.Abs(r.sim.Emphasis()-1) > 1e-4 {
		t.Errorf("released emphasis = %v, want 1", r.sim.Emphasis())
	}
}

func TestPressReleaseWhileHovering(t *testing.T) {
	cfg := DefaultConfig()
	r := startRig(t, cfg, StaticEnvironment{})
	r.d.DispatchPointerOver(0, 0, NewNode("b", RoleButton))
	r.d.DispatchPointerDown(0, 0, MouseButtonLeft)
	r.advance(12)
	r.d.DispatchPointerUp(0, 0, MouseButtonLeft)
	r.advance(12)

	if math.Abs(r.sim.Emphasis()-cfg.HoverScale) > 1e-4 {
		t.Errorf("emphasis = %v, want hover scale %v", r.sim.Emphasis(), cfg.HoverScale)
	}
}

// --- Lifecycle ---

func TestStartRegistersHandlersAndTick(t *testing.T) {
	r := startRig(t, DefaultConfig(), StaticEnvironment{})
	if r.d.HandlerCount() != 6 {
		t.Errorf("HandlerCount = %d, want 6", r.d.HandlerCount())
	}
	if r.ticker.Len() != 2 {
		t.Errorf("ticker Len = %d, want 2 (tick and cues)", r.ticker.Len())
	}
	if !r.sim.Running() {
		t.Error("should be running")
	}
}

func TestStartTwice(t *testing.T) {
	r := startRig(t, DefaultConfig(), StaticEnvironment{})
	if err := r.sim.Start(r.d, r.ticker, StaticEnvironment{}); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestStartNilCollaborator(t *testing.T) {
	sim, _ := NewSimulator(DefaultConfig())
	if err := sim.Start(nil, NewTicker(), nil); !errors.Is(err, ErrNilCollaborator) {
		t.Errorf("Start(nil source) = %v, want ErrNilCollaborator", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	r := startRig(t, DefaultConfig(), StaticEnvironment{})
	r.sim.Stop()
	r.sim.Stop()

	if r.d.HandlerCount() != 0 {
		t.Errorf("HandlerCount = %d, want 0", r.d.HandlerCount())
	}
	if r.ticker.Len() != 0 {
		t.Errorf("ticker Len = %d, want 0", r.ticker.Len())
	}
	if r.sim.Running() {
		t.Error("should not be running")
	}

	// Events and frames after Stop change nothing.
	before := r.sim.Snapshot()
	r.d.DispatchPointerMove(99, 99)
	r.advance(3)
	if r.sim.Frame().Tick != before.Tick || r.sim.Position() != (Vec2{}) {
		t.Error("stopped simulator still reacting")
	}
}

func TestRestartAfterStop(t *testing.T) {
	r := startRig(t, DefaultConfig(), StaticEnvironment{})
	r.sim.Stop()
	if err := r.sim.Start(r.d, r.ticker, StaticEnvironment{}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	r.d.DispatchPointerMove(10, 0)
	r.advance(1)
	if r.sim.Frame().Tick != 1 {
		t.Errorf("Tick = %d, want 1", r.sim.Frame().Tick)
	}
}

func TestCoarsePointerRegistersNothing(t *testing.T) {
	sim, _ := NewSimulator(DefaultConfig())
	d, tk := NewDispatcher(), NewTicker()
	err := sim.Start(d, tk, StaticEnvironment{Coarse: true})
	if !errors.Is(err, ErrCoarsePointer) {
		t.Fatalf("Start = %v, want ErrCoarsePointer", err)
	}
	if d.HandlerCount() != 0 || tk.Len() != 0 {
		t.Errorf("registered %d handlers and %d subscriptions", d.HandlerCount(), tk.Len())
	}
	if sim.Running() {
		t.Error("should not be running")
	}
	sim.Stop() // no-op
}

func TestReducedMotion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Origin = Vec2{50, 50}
	r := startRig(t, cfg, StaticEnvironment{Reduced: true})

	if r.ticker.Len() != 1 {
		t.Errorf("ticker Len = %d, want 1 (cues only)", r.ticker.Len())
	}
	if r.d.HandlerCount() != 6 {
		t.Errorf("HandlerCount = %d, want 6", r.d.HandlerCount())
	}
	if !r.sim.ReducedMotion() {
		t.Error("ReducedMotion should report true")
	}

	r.d.DispatchPointerMove(300, 300)
	r.d.DispatchPointerOver(0, 0, NewNode("b", RoleButton))
	r.advance(20)

	f := r.sim.Frame()
	if f.Tick != 0 || f.Head.X != 50 || f.Head.Y != 50 {
		t.Errorf("head moved under reduced motion: tick %d at (%v, %v)", f.Tick, f.Head.X, f.Head.Y)
	}
	for i, s := range f.Segments {
		if s.Opacity != 0 {
			t.Errorf("segment %d opacity = %v, want 0", i, s.Opacity)
		}
	}
	if math.Abs(f.Emphasis-cfg.HoverScale) > 1e-4 {
		t.Errorf("hover cue should still run, emphasis = %v", f.Emphasis)
	}
}

func TestVisibilityPausesAndResumes(t *testing.T) {
	r := startRig(t, DefaultConfig(), StaticEnvironment{})
	r.d.DispatchPointerMove(100, 0)
	r.advance(5)
	before := r.sim.Snapshot()

	r.d.DispatchVisibility(true)
	if !r.sim.Paused() {
		t.Error("should be paused while hidden")
	}
	r.d.DispatchPointerMove(200, 0) // input still recorded
	r.advance(10)
	if r.sim.Frame().Tick != before.Tick || r.sim.Frame().Head != before.Head {
		t.Error("frame advanced while hidden")
	}

	r.d.DispatchVisibility(false)
	if r.sim.Paused() {
		t.Error("should resume when visible")
	}
	r.advance(1)
	f := r.sim.Frame()
	if f.Tick != before.Tick+1 {
		t.Errorf("Tick = %d, want %d", f.Tick, before.Tick+1)
	}
	// The state survived: one more step from where it paused.
	want := before.Head.X + (200-before.Head.X)*0.22
	assertNear(t, "head x after resume", f.Head.X, want)
}

// --- Observation ---

func TestOnFrameObserver(t *testing.T) {
	r := startRig(t, DefaultConfig(), StaticEnvironment{})
	var ticks []uint64
	h := r.sim.OnFrame(func(f *Frame) { ticks = append(ticks, f.Tick) })

	r.advance(2)
	h.Remove()
	h.Remove()
	r.advance(2)

	if len(ticks) != 2 || ticks[0] != 1 || ticks[1] != 2 {
		t.Errorf("ticks = %v, want [1 2]", ticks)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	r := startRig(t, DefaultConfig(), StaticEnvironment{})
	r.d.DispatchPointerMove(100, 0)
	r.advance(1)
	snap := r.sim.Snapshot()
	r.advance(1)

	if snap.Segments[0].X == r.sim.Frame().Segments[0].X {
		t.Error("snapshot shares segment storage with the live frame")
	}
}

func TestZeroDurationCuesApplyAtOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HoverDuration = 0
	cfg.PressDuration = 0
	r := startRig(t, cfg, StaticEnvironment{})

	r.d.DispatchPointerOver(0, 0, NewNode("b", RoleButton))
	r.ticker.Advance(0)
	if r.sim.Emphasis() != cfg.HoverScale || r.sim.Frame().Accent != cfg.AccentHover {
		t.Errorf("hover: emphasis %v accent %+v", r.sim.Emphasis(), r.sim.Frame().Accent)
	}

	r.d.DispatchPointerDown(0, 0, MouseButtonLeft)
	r.ticker.Advance(0)
	if r.sim.Emphasis() != cfg.PressScale {
		t.Errorf("press: emphasis = %v, want %v", r.sim.Emphasis(), cfg.PressScale)
	}
}

func TestReplayZeroDTWithInstantCues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HoverDuration = 0
	s := mustScript(t, `{"steps": [{"action": "over", "interactive": true}, {"action": "wait"}]}`)
	frames, err := Replay(s, cfg, 0)
	if err != nil {
		t.Fatal(err)
	}
	if frames[0].Emphasis != cfg.HoverScale {
		t.Errorf("emphasis = %v, want %v", frames[0].Emphasis, cfg.HoverScale)
	}
}
