package comet

// Scheduler delivers frame ticks. The simulator receives one and never
// reaches for a global loop, so tests can drive it with a bare Ticker.
type Scheduler interface {
	// Schedule subscribes fn to receive the elapsed seconds of every frame.
	Schedule(fn func(dt float64)) TickHandle
}

// TickHandle controls one scheduled subscription.
type TickHandle interface {
	// Pause stops delivery without removing the subscription.
	Pause()
	// Resume restarts delivery after Pause.
	Resume()
	// Cancel removes the subscription permanently. Safe to call repeatedly.
	Cancel()
	// Active reports whether the subscription is neither paused nor cancelled.
	Active() bool
}

// Ticker is a cooperative frame scheduler. The host calls Advance once per
// display frame; subscriptions fire in registration order on the caller's
// goroutine. The whole ticker can be put to sleep while the view is hidden.
type Ticker struct {
	subs      []*subscription
	asleep    bool
	advancing bool
	frames    uint64
	elapsed   float64
}

type subscription struct {
	owner     *Ticker
	fn        func(dt float64)
	paused    bool
	cancelled bool
}

// NewTicker creates an awake ticker with no subscriptions.
func NewTicker() *Ticker {
	return &Ticker{}
}

// Schedule implements Scheduler.
func (t *Ticker) Schedule(fn func(dt float64)) TickHandle {
	s := &subscription{owner: t, fn: fn}
	t.subs = append(t.subs, s)
	return s
}

// Advance delivers one frame of dt seconds to every active subscription.
// Subscriptions added during Advance first fire on the next frame; those
// cancelled during Advance do not fire again. No-op while asleep.
func (t *Ticker) Advance(dt float64) {
	if t.asleep || t.advancing {
		return
	}
	t.advancing = true
	n := len(t.subs)
	for i := 0; i < n; i++ {
		s := t.subs[i]
		if s.cancelled || s.paused {
			continue
		}
		s.fn(dt)
	}
	t.advancing = false
	t.frames++
	t.elapsed += dt
	t.compact()
}

// Sleep suspends every subscription until Wake.
func (t *Ticker) Sleep() { t.asleep = true }

// Wake resumes delivery after Sleep.
func (t *Ticker) Wake() { t.asleep = false }

// Sleeping reports whether the ticker is asleep.
func (t *Ticker) Sleeping() bool { return t.asleep }

// Len returns the number of live (not cancelled) subscriptions.
func (t *Ticker) Len() int {
	count := 0
	for _, s := range t.subs {
		if !s.cancelled {
			count++
		}
	}
	return count
}

// Frames returns the number of frames delivered so far.
func (t *Ticker) Frames() uint64 { return t.frames }

// Elapsed returns the total seconds delivered so far.
func (t *Ticker) Elapsed() float64 { return t.elapsed }

// compact drops cancelled subscriptions. Deferred while advancing so the
// frame loop never sees the slice shift under it.
func (t *Ticker) compact() {
	if t.advancing {
		return
	}
	live := t.subs[:0]
	for _, s := range t.subs {
		if !s.cancelled {
			live = append(live, s)
		}
	}
	for i := len(live); i < len(t.subs); i++ {
		t.subs[i] = nil
	}
	t.subs = live
}

func (s *subscription) Pause()  { s.paused = true }
func (s *subscription) Resume() { s.paused = false }

func (s *subscription) Cancel() {
	if s.cancelled {
		return
	}
	s.cancelled = true
	s.owner.compact()
}

func (s *subscription) Active() bool {
	return !s.cancelled && !s.paused
}
