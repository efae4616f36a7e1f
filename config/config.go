// Package config loads the viewer configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

const (
	FieldDynamic = "dynamic"
	FieldStatic  = "static"

	RebuildEveryFrame = "every_frame"
	RebuildOnChange   = "on_change"

	LayoutGrid   = "grid"
	LayoutRandom = "random"
)

type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Present   PresentConfig   `yaml:"present"`
	Camera    CameraConfig    `yaml:"camera"`
	Field     FieldConfig     `yaml:"field"`
	Particles ParticlesConfig `yaml:"particles"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type PresentConfig struct {
	Mode string `yaml:"mode"` // fifo | immediate | mailbox
}

type CameraConfig struct {
	Position    [3]float32 `yaml:"position"`
	Yaw         float32    `yaml:"yaw"`   // radians
	Pitch       float32    `yaml:"pitch"` // radians
	FovDegrees  float32    `yaml:"fov_degrees"`
	Sensitivity float32    `yaml:"sensitivity"`
	MoveSpeed   float32    `yaml:"move_speed"`
}

// FovRadians is the vertical field of view in radians.
func (c CameraConfig) FovRadians() float32 {
	return c.FovDegrees * math.Pi / 180
}

type FieldConfig struct {
	Resolution         [3]int     `yaml:"resolution"`
	BoundsMin          [3]float32 `yaml:"bounds_min"`
	BoundsMax          [3]float32 `yaml:"bounds_max"`
	Mode               string     `yaml:"mode"`
	Rebuild            string     `yaml:"rebuild"`
	ParticlesPerBundle int        `yaml:"particles_per_bundle"`
}

type ParticlesConfig struct {
	Layout      string  `yaml:"layout"`
	Grid        [3]int  `yaml:"grid"`
	Count       int     `yaml:"count"`
	PositionMin float32 `yaml:"position_min"`
	PositionMax float32 `yaml:"position_max"`
	RadiusMin   float32 `yaml:"radius_min"`
	RadiusMax   float32 `yaml:"radius_max"`
	Seed        uint64  `yaml:"seed"`
}

type TelemetryConfig struct {
	FrameCSV   string `yaml:"frame_csv"` // empty disables
	FlushEvery int    `yaml:"flush_every"`
}

type LogConfig struct {
	Debug  bool   `yaml:"debug"`
	Prefix string `yaml:"prefix"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads the embedded defaults and merges the YAML file at path over
// them. An empty path uses the defaults alone. The result is validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := Merge(cfg, data); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overwrites only the fields present in data.
func Merge(cfg *Config, data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return invalid("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	switch c.Present.Mode {
	case "fifo", "immediate", "mailbox":
	default:
		return invalid("present.mode %q", c.Present.Mode)
	}

	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		return invalid("camera.fov_degrees %v must be in (0, 180)", c.Camera.FovDegrees)
	}
	if c.Camera.Sensitivity < 0 || c.Camera.MoveSpeed < 0 {
		return invalid("camera sensitivity and move_speed must not be negative")
	}

	f := c.Field
	for i := 0; i < 3; i++ {
		if f.Resolution[i] <= 0 {
			return invalid("field.resolution %v", f.Resolution)
		}
		if !(f.BoundsMax[i] > f.BoundsMin[i]) {
			return invalid("field bounds %v..%v", f.BoundsMin, f.BoundsMax)
		}
	}
	if f.Mode != FieldDynamic && f.Mode != FieldStatic {
		return invalid("field.mode %q", f.Mode)
	}
	if f.Rebuild != RebuildEveryFrame && f.Rebuild != RebuildOnChange {
		return invalid("field.rebuild %q", f.Rebuild)
	}
	if f.ParticlesPerBundle <= 0 {
		return invalid("field.particles_per_bundle %d", f.ParticlesPerBundle)
	}

	p := c.Particles
	switch p.Layout {
	case LayoutGrid:
		if p.Grid[0] <= 0 || p.Grid[1] <= 0 || p.Grid[2] <= 0 {
			return invalid("particles.grid %v", p.Grid)
		}
	case LayoutRandom:
		if p.Count < 0 {
			return invalid("particles.count %d", p.Count)
		}
		if p.PositionMax < p.PositionMin {
			return invalid("particles position range %v..%v", p.PositionMin, p.PositionMax)
		}
	default:
		return invalid("particles.layout %q", p.Layout)
	}
	if !(p.RadiusMin > 0) || p.RadiusMax < p.RadiusMin {
		return invalid("particles radius range %v..%v", p.RadiusMin, p.RadiusMax)
	}

	if c.Telemetry.FlushEvery < 0 {
		return invalid("telemetry.flush_every %d", c.Telemetry.FlushEvery)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
