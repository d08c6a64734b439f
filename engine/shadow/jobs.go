package shadow

import (
	"cmp"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/gpu"
	"github.com/Carmen-Shannon/oxy-shadow/engine/light"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shadow/engine/scene"
	"github.com/Carmen-Shannon/oxy-shadow/engine/shape"
	"github.com/Carmen-Shannon/oxy-shadow/engine/task"
	"github.com/Carmen-Shannon/oxy-shadow/internal/logging"
)

var (
	rigidKey   = shape.NewKeyBuilder().Build()
	skinnedKey = shape.NewKeyBuilder().WithSkinned().Build()

	// shadowClearColor is the clear color of the shadow map: far everywhere.
	shadowClearColor = [4]float32{1, 1, 1, 1}
)

// ShapeGroup is the set of items sharing one shape key.
type ShapeGroup struct {
	Key   shape.Key
	Items scene.ItemBounds
}

// ShapeBounds is a list of shape groups. Rigid keys come before skinned keys; within each
// half groups are in ascending key order.
type ShapeBounds []ShapeGroup

// Len returns the number of items across all groups.
func (s ShapeBounds) Len() int {
	n := 0
	for _, g := range s {
		n += len(g.Items)
	}
	return n
}

// RenderStats is the output of RenderShadowMap.
type RenderStats struct {
	// Draws is the number of draw calls recorded.
	Draws int
	// Skipped is the number of items dropped because their key has no pipeline.
	Skipped int
}

// FetchItems collects the shadow casters of the scene.
type FetchItems struct{}

func (FetchItems) Run(sc *task.SceneContext, _ *task.RenderContext, out *scene.ItemBounds) {
	items := (*out)[:0]
	sc.Scene.ForEachShadowCaster(func(b scene.ItemBound) {
		items = append(items, b)
	})
	*out = items
}

// CullItems keeps the items whose bounds intersect the installed frustum and updates the
// counters of Kind.
type CullItems struct {
	Kind task.ItemKind
}

func (c CullItems) Run(_ *task.SceneContext, rc *task.RenderContext, in scene.ItemBounds, out *scene.ItemBounds) {
	kept := (*out)[:0]
	frustum := rc.Args.ViewFrustum
	stats := rc.Args.Details.Items(c.Kind)
	stats.Considered += len(in)
	if frustum == nil {
		stats.OutOfView += len(in)
		*out = kept
		return
	}
	for _, item := range in {
		if frustum.IntersectsBox(item.Bounds) {
			kept = append(kept, item)
		}
	}
	stats.OutOfView += len(in) - len(kept)
	stats.Rendered += len(kept)
	*out = kept
}

// PipelineSortShapes groups items by shape key.
type PipelineSortShapes struct {
	index map[shape.Key]int
}

// NewPipelineSortShapes creates the grouping job.
func NewPipelineSortShapes() *PipelineSortShapes {
	return &PipelineSortShapes{index: make(map[shape.Key]int)}
}

func (p *PipelineSortShapes) Run(_ *task.SceneContext, _ *task.RenderContext, in scene.ItemBounds, out *ShapeBounds) {
	clear(p.index)
	groups := (*out)[:0]
	for _, item := range in {
		i, ok := p.index[item.Key]
		if !ok {
			i = len(groups)
			p.index[item.Key] = i
			groups = appendGroup(groups, item.Key)
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	slices.SortFunc(groups, compareGroups)
	*out = groups
}

// appendGroup adds an empty group for key, reusing the item storage of a group left beyond
// the current length by a previous frame.
func appendGroup(groups ShapeBounds, key shape.Key) ShapeBounds {
	if n := len(groups); n < cap(groups) {
		groups = groups[:n+1]
		groups[n].Key = key
		groups[n].Items = groups[n].Items[:0]
		return groups
	}
	return append(groups, ShapeGroup{Key: key})
}

func compareGroups(a, b ShapeGroup) int {
	if as, bs := a.Key.IsSkinned(), b.Key.IsSkinned(); as != bs {
		if as {
			return 1
		}
		return -1
	}
	return cmp.Compare(a.Key, b.Key)
}

// DepthSortShapes orders the items of every group by the distance of their bounds center
// from the frustum position, nearest first. Items at equal distance keep their order.
type DepthSortShapes struct{}

func (DepthSortShapes) Run(_ *task.SceneContext, rc *task.RenderContext, in ShapeBounds, out *ShapeBounds) {
	groups := (*out)[:0]
	for _, g := range in {
		groups = appendGroup(groups, g.Key)
		last := &groups[len(groups)-1]
		last.Items = append(last.Items, g.Items...)
	}
	*out = groups
	if rc.Args.ViewFrustum == nil {
		return
	}
	eye := rc.Args.ViewFrustum.Position()
	for i := range groups {
		slices.SortStableFunc(groups[i].Items, func(a, b scene.ItemBound) int {
			return cmp.Compare(
				common.DistanceSquared3(a.Bounds.Center(), eye),
				common.DistanceSquared3(b.Bounds.Center(), eye),
			)
		})
	}
}

// RenderShadowMap records the shadow map of the keylight in one batch: clear, light
// transforms, then every rigid group followed by every skinned group.
type RenderShadowMap struct {
	plumber shape.Plumber
	// target is the shadow Task.Run resolved and whose frustum it installed. It is set only
	// for the length of that run.
	target *light.Shadow

	rigid   pipeline.Pipeline
	skinned pipeline.Pipeline

	// warned holds the keys whose missing pipeline has been logged.
	warned sync.Map
}

// NewRenderShadowMap creates the render job. The rigid and skinned pipelines are resolved
// from plumber once, here.
//
// Parameters:
//   - plumber: the frozen shape-to-pipeline cache
//
// Returns:
//   - *RenderShadowMap: the job
func NewRenderShadowMap(plumber shape.Plumber) *RenderShadowMap {
	r := &RenderShadowMap{plumber: plumber}
	r.rigid, _ = plumber.PickPipeline(rigidKey)
	r.skinned, _ = plumber.PickPipeline(skinnedKey)
	return r
}

func (r *RenderShadowMap) Run(sc *task.SceneContext, rc *task.RenderContext, in ShapeBounds, out *RenderStats) {
	*out = RenderStats{}
	args := rc.Args
	if r.target == nil || args.Context == nil || args.ViewFrustum == nil {
		return
	}
	fb := r.target.Framebuffer()
	frustum := args.ViewFrustum

	defer func() {
		args.Pipeline = nil
		args.Batch = nil
	}()

	err := args.Context.DoInBatch(RenderJobName, func(b gpu.Batch) {
		args.Batch = b

		rect := gpu.FullRect(fb)
		b.SetViewport(rect)
		b.SetScissor(rect)
		b.SetFramebuffer(fb)
		b.ClearFramebuffer(gpu.ClearColor|gpu.ClearDepth, shadowClearColor, 1.0, 0)

		b.SetProjectionTransform(frustum.Projection())
		b.SetViewTransform(frustum.View())

		r.recordGroups(sc, args, b, in, false, out)
		r.recordGroups(sc, args, b, in, true, out)
	})
	if err != nil {
		logging.Logger().Error("shadow: shadow map submission failed", "err", err)
	}
	args.Details.DrawCalls += out.Draws
	args.Details.Skipped += out.Skipped
}

// recordGroups binds the base pipeline of one half and records its groups.
func (r *RenderShadowMap) recordGroups(sc *task.SceneContext, args *task.RenderArgs, b gpu.Batch, groups ShapeBounds, skinned bool, out *RenderStats) {
	base := r.rigid
	if skinned {
		base = r.skinned
	}
	if base != nil {
		b.SetPipeline(base)
	}
	args.Pipeline = base

	for _, g := range groups {
		if g.Key.IsSkinned() != skinned {
			continue
		}
		p, err := r.plumber.PickPipeline(g.Key)
		if err != nil {
			if _, seen := r.warned.LoadOrStore(g.Key, struct{}{}); !seen {
				logging.Logger().Warn("shadow: skipping shapes without a pipeline", "key", g.Key, "err", err)
			}
			logging.Logger().Debug("shadow: skipped shapes", "key", g.Key, "items", len(g.Items))
			out.Skipped += len(g.Items)
			continue
		}
		if p != args.Pipeline {
			b.SetPipeline(p)
			args.Pipeline = p
		}
		for _, ib := range g.Items {
			item, ok := sc.Scene.Get(ib.ID)
			if !ok {
				continue
			}
			b.Draw(gpu.DrawCall{
				Item:      uint64(item.ID),
				Mesh:      item.Mesh,
				Transform: item.Transform,
				Bones:     item.Bones,
			})
			out.Draws++
		}
	}
}
