package task

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/gpu"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shadow/engine/scene"
)

// ItemKind selects which counters of RenderDetails a cull job updates.
type ItemKind int

const (
	// OpaqueItem counts items culled against the camera.
	OpaqueItem ItemKind = iota
	// ShadowItem counts items culled against a light.
	ShadowItem
	// OtherItem counts everything else.
	OtherItem

	numItemKinds
)

func (k ItemKind) String() string {
	switch k {
	case OpaqueItem:
		return "opaque"
	case ShadowItem:
		return "shadow"
	case OtherItem:
		return "other"
	default:
		return fmt.Sprintf("ItemKind(%d)", int(k))
	}
}

// ItemStats counts what happened to items of one kind during a frame.
type ItemStats struct {
	Considered int
	OutOfView  int
	Rendered   int
}

// RenderDetails holds per-frame counters. It is reset by the frame loop, not by jobs.
type RenderDetails struct {
	items     [numItemKinds]ItemStats
	DrawCalls int
	Skipped   int
}

// Items returns the counters for kind.
func (d *RenderDetails) Items(kind ItemKind) *ItemStats {
	return &d.items[kind]
}

// Reset zeroes every counter.
func (d *RenderDetails) Reset() {
	*d = RenderDetails{}
}

// Add accumulates the counters of other into d.
func (d *RenderDetails) Add(other *RenderDetails) {
	for i := range d.items {
		d.items[i].Considered += other.items[i].Considered
		d.items[i].OutOfView += other.items[i].OutOfView
		d.items[i].Rendered += other.items[i].Rendered
	}
	d.DrawCalls += other.DrawCalls
	d.Skipped += other.Skipped
}

// RenderArgs is the mutable state shared by the jobs of a task during one run.
//
// ViewFrustum is not owned: it points at a frustum owned by a camera or a light. Batch and
// Pipeline are only set inside a recording scope. A job that replaces ViewFrustum or Pipeline
// must put the previous value back before its task returns.
type RenderArgs struct {
	ViewFrustum *common.ViewFrustum
	Context     gpu.Context
	Batch       gpu.Batch
	Pipeline    pipeline.Pipeline
	Details     RenderDetails
}

// Clone returns a copy of a with fresh counters and no recording state, for running a
// task on its own goroutine.
func (a *RenderArgs) Clone() *RenderArgs {
	return &RenderArgs{
		ViewFrustum: a.ViewFrustum,
		Context:     a.Context,
	}
}

// RenderContext is handed to every job of a task.
type RenderContext struct {
	Args *RenderArgs
}

// SceneContext carries the scene a task renders.
type SceneContext struct {
	Scene scene.Scene
}

// FrustumGuard restores a RenderArgs frustum replaced by InstallFrustum.
type FrustumGuard struct {
	args     *RenderArgs
	saved    *common.ViewFrustum
	restored bool
}

// InstallFrustum replaces args.ViewFrustum with f and returns a guard remembering the
// previous value. Callers defer Restore immediately:
//
//	guard := task.InstallFrustum(args, light)
//	defer guard.Restore()
func InstallFrustum(args *RenderArgs, f *common.ViewFrustum) FrustumGuard {
	if args == nil {
		panic("task: InstallFrustum requires render args")
	}
	g := FrustumGuard{args: args, saved: args.ViewFrustum}
	args.ViewFrustum = f
	return g
}

// Saved returns the frustum that will be restored.
func (g *FrustumGuard) Saved() *common.ViewFrustum {
	return g.saved
}

// Restore puts the saved frustum back. Only the first call has an effect.
func (g *FrustumGuard) Restore() {
	if g.restored || g.args == nil {
		return
	}
	g.args.ViewFrustum = g.saved
	g.restored = true
}
