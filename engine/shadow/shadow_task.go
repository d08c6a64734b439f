// Package shadow renders the depth map of the keylight. A Task derives a light frustum
// from the camera frustum, installs it in the render context for the length of the run,
// and drives a five-job chain: fetch casters, cull them against the light, group them by
// shape key, sort each group front to back, and record the draws into one GPU batch.
package shadow

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/light"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-shadow/engine/scene"
	"github.com/Carmen-Shannon/oxy-shadow/engine/shape"
	"github.com/Carmen-Shannon/oxy-shadow/engine/task"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// DefaultNearOffset is added to the camera near distance to get the near bound of the
	// view slice covered by the shadow map.
	DefaultNearOffset float32 = -2.0

	// DefaultFarOffset is added to the camera near distance to get the far bound of the
	// view slice covered by the shadow map.
	DefaultFarOffset float32 = 20.0
)

// Job names, in execution order.
const (
	FetchJobName        = "FetchShadowMap"
	CullJobName         = "CullShadowMap"
	PipelineSortJobName = "PipelineSortShadowSort"
	DepthSortJobName    = "DepthSortShadowMap"
	RenderJobName       = "RenderShadowMap"
)

// ErrInvalidOffsets is returned by NewTask when the slice offsets are not finite or the far
// offset does not exceed the near offset.
var ErrInvalidOffsets = errors.New("shadow: invalid slice offsets")

// Task renders the shadow map of a stage's keylight.
type Task struct {
	name    string
	stage   light.Stage
	plumber shape.Plumber
	chain   *task.Task

	nearOffset float32
	farOffset  float32

	depthBias      int32
	depthBiasSlope float32
	observer       task.JobObserver

	rigid   pipeline.Pipeline
	skinned pipeline.Pipeline
	render  *RenderShadowMap

	casters task.Varying[scene.ItemBounds]
	visible task.Varying[scene.ItemBounds]
	shapes  task.Varying[ShapeBounds]
	stats   task.Varying[RenderStats]
}

// NewTask builds the shadow task for stage. The shadow programs are parsed from the
// embedded WGSL and registered in a plumber: rigid shapes first, then skinned shapes. Both
// pipelines cull back faces and test depth with LessEqual.
//
// Parameters:
//   - stage: the light stage supplying the keylight and its shadow state
//   - opts: a variadic list of TaskBuilderOption functions
//
// Returns:
//   - *Task: the shadow task
//   - error: ErrInvalidOffsets, or a wrapped shader or plumber error
func NewTask(stage light.Stage, opts ...TaskBuilderOption) (*Task, error) {
	if stage == nil {
		panic("shadow: NewTask requires a light stage")
	}
	t := &Task{
		name:       "RenderShadowTask",
		stage:      stage,
		nearOffset: DefaultNearOffset,
		farOffset:  DefaultFarOffset,
	}
	for _, opt := range opts {
		opt(t)
	}
	if !common.IsFinite32(t.nearOffset) || !common.IsFinite32(t.farOffset) || t.farOffset <= t.nearOffset {
		return nil, fmt.Errorf("%w: near %v far %v", ErrInvalidOffsets, t.nearOffset, t.farOffset)
	}

	modelProgram, err := shader.NewProgramFromSource("model_shadow", ModelShadowVertexSource, ShadowFragmentSource)
	if err != nil {
		return nil, fmt.Errorf("shadow: %w", err)
	}
	skinProgram, err := shader.NewProgramFromSource("skin_model_shadow", SkinModelShadowVertexSource, ShadowFragmentSource)
	if err != nil {
		return nil, fmt.Errorf("shadow: %w", err)
	}

	state := []pipeline.PipelineBuilderOption{
		pipeline.WithCullMode(wgpu.CullModeBack),
		pipeline.WithDepthTestEnabled(true),
		pipeline.WithDepthWriteEnabled(true),
		pipeline.WithDepthCompare(wgpu.CompareFunctionLessEqual),
		pipeline.WithDepthBias(t.depthBias, t.depthBiasSlope),
	}
	t.plumber = shape.NewPlumber(shape.WithLabel(t.name))
	if t.rigid, err = t.plumber.AddPipeline(shape.NewFilterBuilder().WithoutSkinned().Build(), modelProgram, state...); err != nil {
		return nil, fmt.Errorf("shadow: %w", err)
	}
	if t.skinned, err = t.plumber.AddPipeline(shape.NewFilterBuilder().WithSkinned().Build(), skinProgram, state...); err != nil {
		return nil, fmt.Errorf("shadow: %w", err)
	}
	t.plumber.Freeze()
	t.plumber.Warm(rigidKey, skinnedKey)

	var chainOpts []task.TaskBuilderOption
	if t.observer != nil {
		chainOpts = append(chainOpts, task.WithJobObserver(t.observer))
	}
	t.chain = task.NewTask(t.name, chainOpts...)
	t.casters = task.AddRootJob[scene.ItemBounds](t.chain, FetchJobName, FetchItems{})
	t.visible = task.AddJob[scene.ItemBounds, scene.ItemBounds](t.chain, CullJobName, t.casters, CullItems{Kind: task.ShadowItem})
	t.shapes = task.AddJob[scene.ItemBounds, ShapeBounds](t.chain, PipelineSortJobName, t.visible, NewPipelineSortShapes())
	sorted := task.AddJob[ShapeBounds, ShapeBounds](t.chain, DepthSortJobName, t.shapes, DepthSortShapes{})
	t.render = NewRenderShadowMap(t.plumber)
	t.stats = task.AddJob[ShapeBounds, RenderStats](t.chain, RenderJobName, sorted, t.render)
	return t, nil
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// String returns the task name and a short form of its instance ID.
func (t *Task) String() string { return t.chain.String() }

// Jobs returns the job names in execution order.
func (t *Task) Jobs() []string { return t.chain.Jobs() }

// Plumber returns the task's shape-to-pipeline cache.
func (t *Task) Plumber() shape.Plumber { return t.plumber }

// RigidPipeline returns the pipeline registered for shapes without skinning.
func (t *Task) RigidPipeline() pipeline.Pipeline { return t.rigid }

// SkinnedPipeline returns the pipeline registered for skinned shapes.
func (t *Task) SkinnedPipeline() pipeline.Pipeline { return t.skinned }

// NearOffset returns the offset from the camera near distance to the slice near bound.
func (t *Task) NearOffset() float32 { return t.nearOffset }

// FarOffset returns the offset from the camera near distance to the slice far bound.
func (t *Task) FarOffset() float32 { return t.farOffset }

// Casters returns the casters fetched during the last run.
func (t *Task) Casters() scene.ItemBounds { return t.casters.Get() }

// Visible returns the casters that survived culling during the last run.
func (t *Task) Visible() scene.ItemBounds { return t.visible.Get() }

// Shapes returns the shape groups built during the last run.
func (t *Task) Shapes() ShapeBounds { return t.shapes.Get() }

// Stats returns what the render job recorded during the last run.
func (t *Task) Stats() RenderStats { return t.stats.Get() }

// Run renders one frame of the keylight's shadow map. It does nothing when the scene is
// missing or inactive, when the render arguments lack a frustum or a GPU context, or when
// the stage has no keylight with shadow state. Otherwise rc.Args.ViewFrustum is replaced by the light frustum
// for the length of the run and always restored before Run returns, including when a job
// panics.
//
// Parameters:
//   - sc: the scene context
//   - rc: the render context
func (t *Task) Run(sc *task.SceneContext, rc *task.RenderContext) {
	if !task.Ready(sc, rc) || rc.Args.ViewFrustum == nil || rc.Args.Context == nil {
		return
	}
	keylight := t.stage.Keylight()
	if keylight == nil {
		return
	}
	keyShadow := t.stage.Shadow(keylight)
	if keyShadow == nil {
		return
	}

	ref := rc.Args.ViewFrustum
	keyShadow.SetKeylightFrustum(ref, ref.Near()+t.nearOffset, ref.Near()+t.farOffset)

	t.render.target = keyShadow
	defer func() { t.render.target = nil }()

	guard := task.InstallFrustum(rc.Args, keyShadow.Frustum())
	defer guard.Restore()

	t.chain.Run(sc, rc)
}
