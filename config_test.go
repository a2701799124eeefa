package comet

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Segments != 6 || cfg.Stiffness != 0.22 || cfg.MaxStretch != 1.35 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestSegmentDamping(t *testing.T) {
	cfg := DefaultConfig()
	want := []float64{0.14, 0.128, 0.116, 0.104, 0.092, 0.08}
	for i, w := range want {
		assertNear(t, "damping", cfg.SegmentDamping(i), w)
	}
}

func TestValidateRejectsNonPositiveDamping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Segments = 20 // segment 12 would be 0.14 - 0.144 < 0
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Validate = %v, want ErrInvalidConfig", err)
	}
	if !strings.Contains(err.Error(), "segment 12") {
		t.Errorf("error should name the first bad segment: %v", err)
	}

	cfg.Segments = 11 // last damping 0.02
	if err := cfg.Validate(); err != nil {
		t.Errorf("11 segments should be valid: %v", err)
	}
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"zero stiffness", func(c *Config) { c.Stiffness = 0 }},
		{"unit stiffness", func(c *Config) { c.Stiffness = 1 }},
		{"negative segments", func(c *Config) { c.Segments = -1 }},
		{"negative gain", func(c *Config) { c.SpeedGain = -0.1 }},
		{"stretch below 1", func(c *Config) { c.MaxStretch = 0.9 }},
		{"zero reference rate", func(c *Config) { c.ReferenceHz = 0 }},
		{"opacity above 1", func(c *Config) { c.SegmentOpacity = 1.5 }},
		{"negative duration", func(c *Config) { c.PressDuration = -1 }},
		{"zero hover scale", func(c *Config) { c.HoverScale = 0 }},
		{"damping above 1", func(c *Config) { c.BaseDamping = 1.5 }},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mut(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: Validate = %v, want ErrInvalidConfig", tt.name, err)
		}
	}
}

func TestNewSimulatorRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Segments = 20
	if _, err := NewSimulator(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewSimulator = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	cfg, err := LoadConfig([]byte(`
segments: 4
stiffness: 0.3
accent_base: {r: 1, g: 0, b: 0, a: 1}
origin: {x: 10, y: 20}
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Segments != 4 || cfg.Stiffness != 0.3 {
		t.Errorf("overlay not applied: segments %d stiffness %v", cfg.Segments, cfg.Stiffness)
	}
	if cfg.AccentBase != (Color{1, 0, 0, 1}) {
		t.Errorf("accent = %+v", cfg.AccentBase)
	}
	if cfg.Origin != (Vec2{10, 20}) {
		t.Errorf("origin = %+v", cfg.Origin)
	}
	// Untouched keys keep defaults.
	if cfg.MaxStretch != 1.35 || cfg.BaseDamping != 0.14 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig([]byte("segments: [")); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("bad YAML: err = %v", err)
	}
	if _, err := LoadConfig([]byte("stiffness: 2")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("invalid values: err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "comet.yaml")
	if err := os.WriteFile(path, []byte("segments: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Segments != 3 {
		t.Errorf("segments = %d, want 3", cfg.Segments)
	}

	_, err = LoadConfigFile(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v, want os.ErrNotExist", err)
	}
}
