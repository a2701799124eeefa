package comet

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("comet: invalid config")

// Config holds the tuning constants of the trail. All coefficients are
// expressed per reference frame at ReferenceHz; Simulator.Tick rescales them
// for the actual elapsed time.
type Config struct {
	// Head follower.
	Stiffness  float64 `yaml:"stiffness"`   // exponential smoothing of the head, in (0, 1)
	SpeedGain  float64 `yaml:"speed_gain"`  // stretch gained per pixel of movement per frame
	MaxStretch float64 `yaml:"max_stretch"` // upper bound on head stretch

	// Segment chain. Segment i uses BaseDamping - i*LagStep.
	Segments    int     `yaml:"segments"`
	BaseDamping float64 `yaml:"base_damping"`
	LagStep     float64 `yaml:"lag_step"`

	// Segment appearance.
	SegmentStretchInfluence float64 `yaml:"segment_stretch_influence"`
	SegmentOpacity          float64 `yaml:"segment_opacity"`

	ReferenceHz float64 `yaml:"reference_hz"`

	// Emphasis cues (seconds for durations).
	HoverScale    float64 `yaml:"hover_scale"`
	PressScale    float64 `yaml:"press_scale"`
	HoverDuration float64 `yaml:"hover_duration"`
	PressDuration float64 `yaml:"press_duration"`

	// Sizes in pixels, consumed by the renderer.
	HeadSize        float64 `yaml:"head_size"`
	SegmentSize     float64 `yaml:"segment_size"`
	SegmentSizeStep float64 `yaml:"segment_size_step"`

	AccentBase  Color `yaml:"accent_base"`
	AccentHover Color `yaml:"accent_hover"`

	// Origin is where the head and every segment start before the first
	// pointer sample arrives.
	Origin Vec2 `yaml:"origin"`
}

// DefaultConfig returns the stock comet tuning: a six-segment trail with a
// cyan accent that shifts greener over interactive targets.
func DefaultConfig() Config {
	return Config{
		Stiffness:               0.22,
		SpeedGain:               0.02,
		MaxStretch:              1.35,
		Segments:                6,
		BaseDamping:             0.14,
		LagStep:                 0.012,
		SegmentStretchInfluence: 0.7,
		SegmentOpacity:          0.35,
		ReferenceHz:             60,
		HoverScale:              1.2,
		PressScale:              0.9,
		HoverDuration:           0.18,
		PressDuration:           0.12,
		HeadSize:                24,
		SegmentSize:             18,
		SegmentSizeStep:         2,
		AccentBase:              RGBA8(0, 200, 255, 0.9),
		AccentHover:             RGBA8(80, 240, 200, 0.95),
	}
}

// SegmentDamping returns the smoothing coefficient of segment i.
func (c Config) SegmentDamping(i int) float64 {
	return c.BaseDamping - float64(i)*c.LagStep
}

// SegmentDiameter returns the rendered base diameter of segment i, never
// less than one pixel.
func (c Config) SegmentDiameter(i int) float64 {
	return math.Max(c.SegmentSize-float64(i)*c.SegmentSizeStep, 1)
}

// Validate reports the first constraint the configuration violates. A
// configuration that would give any segment a non-positive damping
// coefficient is rejected rather than clamped.
func (c Config) Validate() error {
	if !(c.Stiffness > 0 && c.Stiffness < 1) {
		return fmt.Errorf("%w: stiffness %v outside (0, 1)", ErrInvalidConfig, c.Stiffness)
	}
	if c.Segments < 0 {
		return fmt.Errorf("%w: negative segment count %d", ErrInvalidConfig, c.Segments)
	}
	for i := 0; i < c.Segments; i++ {
		d := c.SegmentDamping(i)
		if !(d > 0) {
			return fmt.Errorf("%w: segment %d damping %v is not positive (base %v, lag step %v)",
				ErrInvalidConfig, i, d, c.BaseDamping, c.LagStep)
		}
		if d >= 1 {
			return fmt.Errorf("%w: segment %d damping %v is not below 1", ErrInvalidConfig, i, d)
		}
	}
	if c.SpeedGain < 0 || math.IsNaN(c.SpeedGain) {
		return fmt.Errorf("%w: negative speed gain %v", ErrInvalidConfig, c.SpeedGain)
	}
	if !(c.MaxStretch >= 1) {
		return fmt.Errorf("%w: max stretch %v below 1", ErrInvalidConfig, c.MaxStretch)
	}
	if !(c.ReferenceHz > 0) {
		return fmt.Errorf("%w: reference rate %v is not positive", ErrInvalidConfig, c.ReferenceHz)
	}
	if c.SegmentStretchInfluence < 0 || c.SegmentOpacity < 0 || c.SegmentOpacity > 1 {
		return fmt.Errorf("%w: segment stretch influence %v / opacity %v out of range",
			ErrInvalidConfig, c.SegmentStretchInfluence, c.SegmentOpacity)
	}
	if c.HoverDuration < 0 || c.PressDuration < 0 {
		return fmt.Errorf("%w: negative cue duration", ErrInvalidConfig)
	}
	if c.HoverScale <= 0 || c.PressScale <= 0 {
		return fmt.Errorf("%w: cue scales must be positive", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig parses YAML over DefaultConfig and validates the result. Keys
// absent from data keep their default values.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads and parses a YAML config file.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return LoadConfig(data)
}
