package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/particlesdf/config"
	"github.com/gekko3d/particlesdf/rt/app"
	"github.com/gekko3d/particlesdf/rt/core"
	"github.com/gekko3d/particlesdf/rt/field"
	"github.com/gekko3d/particlesdf/rt/gpu"
	"github.com/gekko3d/particlesdf/rt/particles"
)

func init() {
	runtime.LockOSThread()
}

var keyFromGlfw = map[glfw.Key]core.Key{
	glfw.KeyW:         core.KeyW,
	glfw.KeyA:         core.KeyA,
	glfw.KeyS:         core.KeyS,
	glfw.KeyD:         core.KeyD,
	glfw.KeySpace:     core.KeySpace,
	glfw.KeyLeftShift: core.KeyLeftShift,
	glfw.KeyEscape:    core.KeyEscape,
}

var buttonFromGlfw = map[glfw.MouseButton]core.MouseButton{
	glfw.MouseButtonLeft:   core.MouseButtonLeft,
	glfw.MouseButtonRight:  core.MouseButtonRight,
	glfw.MouseButtonMiddle: core.MouseButtonMiddle,
}

// windowCursor tracks the last cursor position so raw motion can be turned
// into deltas across recentres.
type windowCursor struct {
	window       *glfw.Window
	lastX, lastY float64
}

func (c *windowCursor) Capture() {
	c.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	c.lastX, c.lastY = c.window.GetCursorPos()
}

func (c *windowCursor) Release() {
	c.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
}

func (c *windowCursor) Recenter() {
	w, h := c.window.GetSize()
	c.lastX, c.lastY = float64(w)/2, float64(h)/2
	c.window.SetCursorPos(c.lastX, c.lastY)
}

func (c *windowCursor) delta(x, y float64) (float32, float32) {
	dx, dy := x-c.lastX, y-c.lastY
	c.lastX, c.lastY = x, y
	return float32(dx), float32(dy)
}

func makeParticles(p config.ParticlesConfig) []particles.Particle {
	rng := particles.NewRand(p.Seed)
	radius := particles.RadiusRange{Min: p.RadiusMin, Max: p.RadiusMax}
	if p.Layout == config.LayoutRandom {
		return particles.Random(p.Count, p.PositionMin, p.PositionMax, radius, rng)
	}
	return particles.Grid(p.Grid[0], p.Grid[1], p.Grid[2], radius, rng)
}

func main() {
	configPath := flag.String("config", "", "YAML config merged over the built-in defaults")
	debug := flag.Bool("debug", false, "Enable debug logging (per-frame timings)")
	static := flag.Bool("static", false, "Build the field once on the CPU instead of with compute passes")
	writeConfig := flag.String("write-config", "", "Write the effective config to this path and exit")
	flag.Parse()

	if err := run(*configPath, *debug, *static, *writeConfig); err != nil {
		fmt.Fprintf(os.Stderr, "particlesdf: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, debug, static bool, writeConfig string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if debug {
		cfg.Log.Debug = true
	}
	if static {
		cfg.Field.Mode = config.FieldStatic
	}
	if writeConfig != "" {
		return cfg.WriteYAML(writeConfig)
	}

	runID := uuid.New()
	logger := core.NewDefaultLogger(cfg.Log.Prefix, cfg.Log.Debug)
	logger.Infof("run %s", runID)

	grid, err := field.NewGrid(cfg.Field.Resolution, cfg.Field.BoundsMin, cfg.Field.BoundsMax)
	if err != nil {
		return err
	}
	presentMode, err := gpu.ParsePresentMode(cfg.Present.Mode)
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	width, height := window.GetFramebufferSize()
	ctx, err := gpu.NewContext(wgpuglfw.GetSurfaceDescriptor(window), width, height, presentMode)
	if err != nil {
		return err
	}
	defer ctx.Release()

	renderer, err := gpu.NewRenderer(ctx, gpu.RendererOptions{
		Grid:               grid,
		ParticlesPerBundle: cfg.Field.ParticlesPerBundle,
		Static:             cfg.Field.Mode == config.FieldStatic,
		RebuildEveryFrame:  cfg.Field.Rebuild == config.RebuildEveryFrame,
		Logger:             logger.Named("gpu"),
	})
	if err != nil {
		return err
	}
	defer renderer.Release()

	var telemetry *app.FrameTelemetry
	if cfg.Telemetry.FrameCSV != "" {
		f, err := os.Create(cfg.Telemetry.FrameCSV)
		if err != nil {
			return fmt.Errorf("create frame csv: %w", err)
		}
		defer f.Close()
		telemetry = app.NewFrameTelemetry(f, runID, cfg.Telemetry.FlushEvery)
	}

	camera := core.NewCamera()
	camera.Position = mgl32.Vec3(cfg.Camera.Position)
	camera.Yaw = core.WrapAngle(cfg.Camera.Yaw)
	camera.Pitch = mgl32.Clamp(cfg.Camera.Pitch, core.MinPitch, core.MaxPitch)
	camera.Fov = cfg.Camera.FovRadians()
	camera.Sensitivity = cfg.Camera.Sensitivity
	camera.MoveSpeed = cfg.Camera.MoveSpeed

	cursor := &windowCursor{window: window}
	application := app.New(renderer, cursor, width, height, app.Options{
		Logger:    logger.Named("app"),
		Camera:    camera,
		Telemetry: telemetry,
	})
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warnf("%v", err)
		}
	}()

	if err := application.SetParticles(makeParticles(cfg.Particles)); err != nil {
		return err
	}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		application.MouseDelta(cursor.delta(xpos, ypos))
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Repeat {
			return
		}
		if k, ok := keyFromGlfw[key]; ok {
			application.KeyEvent(k, action == glfw.Press)
		}
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if b, ok := buttonFromGlfw[button]; ok {
			application.MouseButton(b, action == glfw.Press)
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		if err := application.Render(); err != nil {
			return err
		}
	}
	return nil
}
