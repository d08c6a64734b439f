package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-shadow/engine/camera"
	"github.com/Carmen-Shannon/oxy-shadow/engine/gpu"
	"github.com/Carmen-Shannon/oxy-shadow/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shadow/engine/scene"
	"github.com/Carmen-Shannon/oxy-shadow/engine/task"
)

// Renderable is a unit of per-frame render work, such as a shadow task.
type Renderable interface {
	// Name identifies the renderable in diagnostics.
	Name() string

	// Run renders one frame against the scene and render contexts.
	Run(sc *task.SceneContext, rc *task.RenderContext)
}

// engine implements the Engine interface.
type engine struct {
	// mu guards configuration; frameMu serializes frames and guards the per-frame state.
	mu      sync.Mutex
	frameMu sync.Mutex

	quitChannel chan struct{}
	quitOnce    sync.Once

	scene       scene.Scene
	camera      camera.Camera
	renderables []Renderable

	frameRenderables []Renderable

	sceneContext  task.SceneContext
	renderContext task.RenderContext
	args          task.RenderArgs
	lastDetails   task.RenderDetails

	// parallel is the worker count; 0 runs renderables in order on the calling goroutine.
	parallel     int
	pool         worker.DynamicWorkerPool
	parallelArgs []task.RenderArgs

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderCallback   func(deltaTime float32)
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastRender       time.Time

	frames atomic.Uint64
	panics atomic.Uint64
}

// Engine drives the per-frame render loop: every registered Renderable runs once per frame
// against a shared scene, camera frustum and GPU context.
type Engine interface {
	// AddRenderable appends r to the frame. Renderables run in registration order.
	//
	// Parameters:
	//   - r: the renderable to add
	AddRenderable(r Renderable)

	// Renderables returns a copy of the registered renderables.
	Renderables() []Renderable

	// Scene returns the rendered scene.
	Scene() scene.Scene

	// SetScene replaces the rendered scene.
	SetScene(s scene.Scene)

	// Camera returns the camera whose frustum is handed to renderables.
	Camera() camera.Camera

	// SetCamera replaces the camera.
	SetCamera(c camera.Camera)

	// Context returns the GPU context renderables record into.
	Context() gpu.Context

	// Details returns the counters of the last rendered frame.
	//
	// Returns:
	//   - task.RenderDetails: a copy of the counters
	Details() task.RenderDetails

	// Frames returns the number of frames rendered.
	Frames() uint64

	// RecoveredPanics returns the number of renderable panics recovered by the loop.
	RecoveredPanics() uint64

	// RenderFrame renders one frame: updates the camera, runs every renderable and ticks the
	// profiler. A panicking renderable is logged and does not stop the others.
	RenderFrame()

	// Run renders frames until ctx is done or Quit is called.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//
	// Returns:
	//   - error: ctx.Err() when ctx ended the loop, nil after Quit
	Run(ctx context.Context) error

	// Quit stops Run. Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// Close stops the worker pool. The engine must not be used afterwards.
	Close()

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// Profiler returns the engine's profiler.
	Profiler() *profiler.Profiler

	// SetRenderCallback registers the function called after each frame.
	//
	// Parameters:
	//   - callback: receives the frame's delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)
}

var _ Engine = &engine{}

// NewEngine creates a new Engine. A GPU context is required: it is where every renderable
// records its batches.
//
// Parameters:
//   - ctx: the GPU context
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(ctx gpu.Context, options ...EngineBuilderOption) Engine {
	if ctx == nil {
		panic("engine: NewEngine requires a GPU context")
	}
	e := &engine{
		quitChannel: make(chan struct{}),
		profiler:    profiler.NewProfiler(),
	}
	e.args.Context = ctx
	e.renderContext.Args = &e.args

	for _, opt := range options {
		opt(e)
	}

	if e.parallel > 0 {
		e.pool = worker.NewDynamicWorkerPool(e.parallel, 256, time.Second)
	}
	return e
}

func (e *engine) AddRenderable(r Renderable) {
	if r == nil {
		panic("engine: AddRenderable requires a renderable")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderables = append(e.renderables, r)
}

func (e *engine) Renderables() []Renderable {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Renderable, len(e.renderables))
	copy(out, e.renderables)
	return out
}

func (e *engine) Scene() scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene
}

func (e *engine) SetScene(s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene = s
}

func (e *engine) Camera() camera.Camera {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.camera
}

func (e *engine) SetCamera(c camera.Camera) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.camera = c
}

func (e *engine) Context() gpu.Context {
	return e.args.Context
}

func (e *engine) Details() task.RenderDetails {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastDetails
}

func (e *engine) Frames() uint64 {
	return e.frames.Load()
}

func (e *engine) RecoveredPanics() uint64 {
	return e.panics.Load()
}

func (e *engine) RenderFrame() {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()

	e.mu.Lock()
	e.frameRenderables = append(e.frameRenderables[:0], e.renderables...)
	cam := e.camera
	callback := e.renderCallback
	profiling := e.profilingEnabled
	e.sceneContext.Scene = e.scene
	e.mu.Unlock()

	now := time.Now()
	var dt float32
	if !e.lastRender.IsZero() {
		dt = float32(now.Sub(e.lastRender).Seconds())
	}
	e.lastRender = now

	e.args.Details.Reset()
	e.args.ViewFrustum = nil
	if cam != nil {
		cam.Update()
		e.args.ViewFrustum = cam.Frustum()
	}

	if e.pool != nil && len(e.frameRenderables) > 1 {
		e.renderParallel()
	} else {
		for _, r := range e.frameRenderables {
			e.runRenderable(r, &e.renderContext)
		}
	}
	clear(e.frameRenderables)

	e.mu.Lock()
	e.lastDetails = e.args.Details
	e.mu.Unlock()
	e.frames.Add(1)

	if callback != nil {
		callback(dt)
	}
	if profiling && e.profiler != nil {
		e.profiler.Tick()
	}
}

// renderParallel runs every renderable on the worker pool, each against its own copy of
// the render arguments, and merges their counters once all have finished.
func (e *engine) renderParallel() {
	n := len(e.frameRenderables)
	if cap(e.parallelArgs) < n {
		e.parallelArgs = make([]task.RenderArgs, n)
	}
	e.parallelArgs = e.parallelArgs[:n]

	var wg sync.WaitGroup
	for i, r := range e.frameRenderables {
		e.parallelArgs[i] = *e.args.Clone()
		args := &e.parallelArgs[i]

		wg.Add(1)
		e.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				e.runRenderable(r, &task.RenderContext{Args: args})
				return nil, nil
			},
		})
	}
	wg.Wait()

	for i := range e.parallelArgs {
		e.args.Details.Add(&e.parallelArgs[i].Details)
	}
}

// runRenderable runs r and recovers a panic so that the frame and the loop continue.
func (e *engine) runRenderable(r Renderable, rc *task.RenderContext) {
	defer func() {
		if rec := recover(); rec != nil {
			e.panics.Add(1)
			Logger().Error("engine: recovered from renderable panic", "renderable", describe(r), "panic", rec)
		}
	}()
	r.Run(&e.sceneContext, rc)
}

// describe names r in diagnostics, preferring its String form when it has one.
func describe(r Renderable) string {
	if s, ok := r.(fmt.Stringer); ok {
		return s.String()
	}
	return r.Name()
}

func (e *engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.quitChannel:
			return nil
		default:
		}

		start := time.Now()
		e.RenderFrame()

		if limit := e.frameLimit(); limit > 0 {
			if remaining := limit - time.Since(start); remaining > 0 {
				timer := time.NewTimer(remaining)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-e.quitChannel:
					timer.Stop()
					return nil
				case <-timer.C:
				}
			}
		}
	}
}

func (e *engine) frameLimit() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.renderFrameLimit
}

// Quit closes the quit channel. sync.Once makes repeated calls no-ops.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Close() {
	e.Quit()
	if e.pool != nil {
		e.pool.Stop()
	}
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameDuration(fps)
}

func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
