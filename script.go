package comet

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Script actions.
const (
	ActionMove    = "move"       // pointer moves to (x, y)
	ActionPath    = "path"       // pointer glides to (x, y) over frames, one move per frame
	ActionPress   = "press"      // button down at the current position
	ActionRelease = "release"    // button up at the current position
	ActionOver    = "over"       // pointer enters an element (interactive or not)
	ActionOut     = "out"        // pointer leaves for empty space
	ActionWait    = "wait"       // advance frames (default 1)
	ActionHidden  = "hidden"     // view becomes hidden
	ActionVisible = "visible"    // view becomes visible
	ActionCapture = "screenshot" // capture the rendered frame (hosted runs only)
)

// ScriptStep is a single action in a pointer script.
type ScriptStep struct {
	Action      string  `yaml:"action" json:"action"`
	X           float64 `yaml:"x,omitempty" json:"x,omitempty"`
	Y           float64 `yaml:"y,omitempty" json:"y,omitempty"`
	Frames      int     `yaml:"frames,omitempty" json:"frames,omitempty"`
	Interactive bool    `yaml:"interactive,omitempty" json:"interactive,omitempty"`
	Label       string  `yaml:"label,omitempty" json:"label,omitempty"`
}

// Script is a recorded or hand-written pointer session.
type Script struct {
	Name  string       `yaml:"name,omitempty" json:"name,omitempty"`
	Steps []ScriptStep `yaml:"steps" json:"steps"`
}

// LoadScript parses a YAML or JSON pointer script and checks every action.
func LoadScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &script, nil
}

// Validate reports the first unknown action or malformed step.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("parse script: no steps")
	}
	for i, st := range s.Steps {
		switch st.Action {
		case ActionMove, ActionPress, ActionRelease, ActionOver, ActionOut,
			ActionHidden, ActionVisible, ActionCapture:
		case ActionPath, ActionWait:
			if st.Frames < 0 {
				return fmt.Errorf("parse script: step %d: negative frames", i)
			}
		default:
			return fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return nil
}

// scriptElement stands in for the element a scripted over event targets.
type scriptElement struct {
	interactive bool
}

func (e scriptElement) Parent() Element   { return nil }
func (e scriptElement) Interactive() bool { return e.interactive }

// ReplayFunc runs script headlessly against a fresh simulator built from
// cfg, advancing dt seconds per frame, and calls fn with a copy of every
// frame produced. Events are instantaneous; only wait and path advance
// frames, so nothing is produced while the script holds the view hidden.
// fn may stop the replay early by returning an error, which is returned.
func ReplayFunc(script *Script, cfg Config, dt float64, fn func(Frame) error) error {
	sim, err := NewSimulator(cfg)
	if err != nil {
		return err
	}
	d := NewDispatcher()
	ticker := NewTicker()
	if err := sim.Start(d, ticker, StaticEnvironment{}); err != nil {
		return err
	}
	defer sim.Stop()

	var ferr error
	sim.OnFrame(func(f *Frame) {
		if ferr == nil {
			ferr = fn(f.Clone())
		}
	})

	pos := cfg.Origin
	for _, st := range script.Steps {
		switch st.Action {
		case ActionMove:
			pos = Vec2{st.X, st.Y}
			d.DispatchPointerMove(pos.X, pos.Y)
		case ActionPath:
			frames := max(st.Frames, 1)
			from := pos
			for i := 1; i <= frames; i++ {
				t := float64(i) / float64(frames)
				pos = Vec2{from.X + (st.X-from.X)*t, from.Y + (st.Y-from.Y)*t}
				d.DispatchPointerMove(pos.X, pos.Y)
				ticker.Advance(dt)
			}
		case ActionPress:
			d.DispatchPointerDown(pos.X, pos.Y, MouseButtonLeft)
		case ActionRelease:
			d.DispatchPointerUp(pos.X, pos.Y, MouseButtonLeft)
		case ActionOver:
			d.DispatchPointerOver(pos.X, pos.Y, scriptElement{interactive: st.Interactive})
		case ActionOut:
			d.DispatchPointerOut(pos.X, pos.Y, nil, nil)
		case ActionWait:
			for i := 0; i < max(st.Frames, 1); i++ {
				ticker.Advance(dt)
			}
		case ActionHidden:
			d.DispatchVisibility(true)
		case ActionVisible:
			d.DispatchVisibility(false)
		}
		if ferr != nil {
			return ferr
		}
	}
	return nil
}

// Replay runs script like ReplayFunc and returns every frame.
func Replay(script *Script, cfg Config, dt float64) ([]Frame, error) {
	var frames []Frame
	err := ReplayFunc(script, cfg, dt, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	return frames, err
}

// ScriptRunner plays a script against a running Host through synthetic
// input, one step per frame once earlier injections have drained. Attach
// it with Host.SetScriptRunner.
type ScriptRunner struct {
	steps     []ScriptStep
	cursor    int
	waitCount int
	pos       Vec2
	done      bool
}

// NewScriptRunner creates a runner for script.
func NewScriptRunner(script *Script) *ScriptRunner {
	return &ScriptRunner{steps: script.Steps}
}

// SetScriptRunner attaches a runner to the host. The runner's step method
// is called from Host.Update before input processing each frame.
func (h *Host) SetScriptRunner(r *ScriptRunner) {
	h.runner = r
}

// Done reports whether all steps have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step advances the runner by one frame. Called from Host.Update.
func (r *ScriptRunner) step(h *Host) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if len(h.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case ActionMove:
		r.pos = Vec2{st.X, st.Y}
		h.InjectMove(st.X, st.Y)
	case ActionPath:
		h.InjectPath(r.pos.X, r.pos.Y, st.X, st.Y, st.Frames)
		r.pos = Vec2{st.X, st.Y}
	case ActionPress:
		h.InjectPress(r.pos.X, r.pos.Y)
	case ActionRelease:
		h.InjectRelease(r.pos.X, r.pos.Y)
	case ActionWait:
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case ActionHidden:
		h.dispatcher.DispatchVisibility(true)
	case ActionVisible:
		h.dispatcher.DispatchVisibility(false)
	case ActionCapture:
		h.Screenshot(st.Label)
	}
	// Over and out come from hit testing the host's tree.

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(h.injectQueue) == 0 {
		r.done = true
	}
}
