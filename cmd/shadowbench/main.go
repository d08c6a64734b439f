// Command shadowbench renders the shadow map of a generated scene headlessly and reports
// what the shadow task recorded.
//
//	go run ./cmd/shadowbench -config cmd/shadowbench/shadowbench.yaml
//
// With -wgpu the command list is replayed on a WebGPU device instead of being recorded.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine"
	"github.com/Carmen-Shannon/oxy-shadow/engine/camera"
	"github.com/Carmen-Shannon/oxy-shadow/engine/config"
	"github.com/Carmen-Shannon/oxy-shadow/engine/gpu"
	"github.com/Carmen-Shannon/oxy-shadow/engine/light"
	"github.com/Carmen-Shannon/oxy-shadow/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shadow/engine/scene"
	"github.com/Carmen-Shannon/oxy-shadow/engine/shadow"
	"github.com/Carmen-Shannon/oxy-shadow/engine/shape"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	frames := flag.Int("frames", -1, "frames to render, overrides engine.frames")
	useWGPU := flag.Bool("wgpu", false, "replay on a WebGPU device")
	fallback := flag.Bool("fallback", false, "request the software fallback adapter (with -wgpu)")
	flag.Parse()

	opts := benchOptions{
		configPath: *configPath,
		frames:     *frames,
		wgpu:       *useWGPU,
		fallback:   *fallback,
	}
	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "shadowbench:", err)
		os.Exit(1)
	}
}

type benchOptions struct {
	configPath string
	// frames overrides engine.frames when non-negative.
	frames   int
	wgpu     bool
	fallback bool
}

func run(opts benchOptions) error {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.frames >= 0 {
		cfg.Engine.Frames = opts.frames
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	engine.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	logger := engine.Logger()

	// ── Lights ──────────────────────────────────────────────────────────
	sun := light.NewLight(light.LightTypeDirectional,
		light.WithDirection(-0.3, -1, -0.2),
		light.WithColor(1.0, 0.95, 0.85),
		light.WithIntensity(1.5),
		light.WithCastsShadows(true),
	)
	device, shadowMap, release, err := openDevice(opts, cfg.Shadow.MapResolution)
	if err != nil {
		return err
	}
	defer release()
	stage := light.NewStage(light.WithLight(sun, light.NewShadow(sun, shadowMap, cfg.Shadow.ShadowOptions()...)))

	// ── Shadow task ─────────────────────────────────────────────────────
	prof := profiler.NewProfiler()
	taskOpts := append(cfg.Shadow.TaskOptions(), shadow.WithJobObserver(prof.ObserveJob))
	shadowTask, err := shadow.NewTask(stage, taskOpts...)
	if err != nil {
		return err
	}

	// ── Camera ──────────────────────────────────────────────────────────
	orbit := camera.NewOrbitController(
		camera.WithRadius(cfg.Scene.Spread*2),
		camera.WithElevation(0.4),
	)
	cam := camera.NewCamera(
		camera.WithFov(float32(60.0*math.Pi/180.0)),
		camera.WithAspect(16.0/9.0),
		camera.WithNear(0.5),
		camera.WithFar(500),
		camera.WithController(orbit),
	)

	// ── Engine ──────────────────────────────────────────────────────────
	eng := engine.NewEngine(gpu.NewContext(device),
		engine.WithScene(buildScene(cfg.Scene)),
		engine.WithCamera(cam),
		engine.WithRenderable(shadowTask),
		engine.WithProfiler(prof),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithParallelTasks(cfg.Engine.ParallelTasks),
		engine.WithRenderFrameLimit(cfg.Engine.FrameLimit),
	)
	defer eng.Close()

	eng.SetRenderCallback(func(dt float32) {
		orbit.Orbit(0.01, 0)
		if cfg.Engine.Frames > 0 && eng.Frames() >= uint64(cfg.Engine.Frames) {
			eng.Quit()
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("shadowbench: starting", "casters", cfg.Scene.Casters, "frames", cfg.Engine.Frames,
		"nearOffset", cfg.Shadow.NearOffset, "farOffset", cfg.Shadow.FarOffset)
	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	d := eng.Details()
	attrs := []any{
		"frames", eng.Frames(),
		"lastFrameDraws", d.DrawCalls,
		"lastFrameSkipped", d.Skipped,
		"recoveredPanics", eng.RecoveredPanics(),
	}
	switch dev := device.(type) {
	case *gpu.RecordingDevice:
		attrs = append(attrs, "submissions", dev.Submissions(), "totalDraws", dev.TotalDraws())
	case *gpu.WGPUDevice:
		attrs = append(attrs, "gpuSkippedDraws", dev.SkippedDraws())
	}
	logger.Info("shadowbench: done", attrs...)
	return nil
}

// openDevice returns the device frames are submitted to, a shadow map framebuffer it can
// render into and a function releasing both.
func openDevice(opts benchOptions, resolution int) (gpu.Device, gpu.Framebuffer, func(), error) {
	if !opts.wgpu {
		fb := gpu.NewFramebuffer("keylight_shadow", resolution, resolution)
		return gpu.NewRecordingDevice(), fb, func() {}, nil
	}
	dev, err := gpu.OpenWGPUDevice("shadowbench", opts.fallback)
	if err != nil {
		return nil, nil, nil, err
	}
	fb, err := gpu.NewDepthFramebuffer(dev, "keylight_shadow", resolution, resolution)
	if err != nil {
		dev.Release()
		return nil, nil, nil, err
	}
	return dev, fb, func() {
		fb.Release()
		dev.Release()
	}, nil
}

// buildScene places the casters on a grid centered on the origin. Every SkinnedEvery-th
// caster is skinned.
func buildScene(cfg config.SceneConfig) scene.Scene {
	s := scene.NewScene("shadowbench", scene.WithActive(true))
	if cfg.Casters == 0 {
		return s
	}
	rigid := shape.NewKeyBuilder().Build()
	skinned := shape.NewKeyBuilder().WithSkinned().Build()

	side := int(math.Ceil(math.Sqrt(float64(cfg.Casters))))
	step := 2 * cfg.Spread / float32(max(side-1, 1))
	for i := 0; i < cfg.Casters; i++ {
		x := -cfg.Spread + float32(i%side)*step
		z := -cfg.Spread + float32(i/side)*step
		key := rigid
		var bones [][16]float32
		if cfg.SkinnedEvery > 0 && i%cfg.SkinnedEvery == 0 {
			key = skinned
			bones = make([][16]float32, 1)
			common.Identity(bones[0][:])
		}
		item := scene.Item{
			Key:         key,
			Bounds:      common.BoxAround([3]float32{x, 1, z}, [3]float32{0.5, 1, 0.5}),
			Bones:       bones,
			CastsShadow: true,
		}
		common.Identity(item.Transform[:])
		item.Transform[12], item.Transform[13], item.Transform[14] = x, 1, z
		s.Add(item)
	}
	return s
}
