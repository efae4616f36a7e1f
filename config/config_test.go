package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, "fifo", cfg.Present.Mode)
	assert.Equal(t, [3]int{64, 64, 64}, cfg.Field.Resolution)
	assert.Equal(t, FieldDynamic, cfg.Field.Mode)
	assert.Equal(t, RebuildOnChange, cfg.Field.Rebuild)
	assert.Equal(t, 32, cfg.Field.ParticlesPerBundle)
	assert.Equal(t, LayoutGrid, cfg.Particles.Layout)
	assert.Equal(t, [3]int{8, 8, 8}, cfg.Particles.Grid)
	assert.InDelta(t, 0.2, cfg.Camera.Sensitivity, 1e-6)
	assert.InDelta(t, 1.0, cfg.Camera.MoveSpeed, 1e-6)
	assert.InDelta(t, 1.0471976, cfg.Camera.FovRadians(), 1e-5)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
field:
  mode: static
  resolution: [32, 16, 8]
particles:
  layout: random
  count: 100
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, FieldStatic, cfg.Field.Mode)
	assert.Equal(t, [3]int{32, 16, 8}, cfg.Field.Resolution)
	// untouched keys keep their defaults
	assert.Equal(t, RebuildOnChange, cfg.Field.Rebuild)
	assert.Equal(t, [3]float32{-1, -1, -1}, cfg.Field.BoundsMin)
	assert.Equal(t, LayoutRandom, cfg.Particles.Layout)
	assert.Equal(t, 100, cfg.Particles.Count)
	assert.Equal(t, 720, cfg.Window.Height)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero window", func(c *Config) { c.Window.Width = 0 }},
		{"present mode", func(c *Config) { c.Present.Mode = "vsync" }},
		{"fov", func(c *Config) { c.Camera.FovDegrees = 180 }},
		{"negative speed", func(c *Config) { c.Camera.MoveSpeed = -1 }},
		{"resolution", func(c *Config) { c.Field.Resolution[1] = 0 }},
		{"empty bounds", func(c *Config) { c.Field.BoundsMax[2] = c.Field.BoundsMin[2] }},
		{"field mode", func(c *Config) { c.Field.Mode = "hybrid" }},
		{"rebuild", func(c *Config) { c.Field.Rebuild = "sometimes" }},
		{"bundle size", func(c *Config) { c.Field.ParticlesPerBundle = 0 }},
		{"grid dims", func(c *Config) { c.Particles.Grid = [3]int{8, 0, 8} }},
		{"layout", func(c *Config) { c.Particles.Layout = "spiral" }},
		{"radius", func(c *Config) { c.Particles.RadiusMin = 0 }},
		{"radius order", func(c *Config) { c.Particles.RadiusMax = c.Particles.RadiusMin / 2 }},
		{"random range", func(c *Config) {
			c.Particles.Layout = LayoutRandom
			c.Particles.PositionMin, c.Particles.PositionMax = 1, 0
		}},
		{"flush", func(c *Config) { c.Telemetry.FlushEvery = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Field.Mode = FieldStatic
	cfg.Particles.Seed = 42

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
