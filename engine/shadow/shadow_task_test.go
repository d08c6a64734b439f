package shadow

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/gpu"
	"github.com/Carmen-Shannon/oxy-shadow/engine/light"
	"github.com/Carmen-Shannon/oxy-shadow/engine/scene"
	"github.com/Carmen-Shannon/oxy-shadow/engine/shape"
	"github.com/Carmen-Shannon/oxy-shadow/engine/task"
	"github.com/Carmen-Shannon/oxy-shadow/internal/logging"
)

var (
	rigid   = shape.NewKeyBuilder().Build()
	skinned = shape.NewKeyBuilder().WithSkinned().Build()
)

type fixture struct {
	camera *common.ViewFrustum
	shadow *light.Shadow
	stage  light.Stage
	scene  scene.Scene
	device *gpu.RecordingDevice
	args   *task.RenderArgs
	task   *Task
}

// newFixture builds a camera at the origin looking down -Z (near 1, far 100) and a sun
// shining straight down.
func newFixture(t *testing.T, withKeylight bool, opts ...TaskBuilderOption) *fixture {
	t.Helper()
	f := &fixture{
		camera: common.NewPerspectiveFrustum([3]float32{}, [3]float32{0, 0, -1}, math.Pi/2, 1, 1, 100),
		scene:  scene.NewScene("shadow-test", scene.WithActive(true)),
		device: gpu.NewRecordingDevice(),
	}
	var stageOpts []light.StageBuilderOption
	if withKeylight {
		sun := light.NewLight(light.LightTypeDirectional, light.WithDirection(0, -1, 0), light.WithCastsShadows(true))
		f.shadow = light.NewShadow(sun, gpu.NewFramebuffer("shadow", 1024, 1024))
		stageOpts = append(stageOpts, light.WithLight(sun, f.shadow))
	}
	f.stage = light.NewStage(stageOpts...)

	tk, err := NewTask(f.stage, opts...)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	f.task = tk
	f.args = &task.RenderArgs{ViewFrustum: f.camera, Context: gpu.NewContext(f.device)}
	return f
}

func (f *fixture) addCaster(key shape.Key, center [3]float32) scene.ItemID {
	return f.scene.Add(scene.Item{
		Key:         key,
		Bounds:      common.BoxAround(center, [3]float32{0.5, 0.5, 0.5}),
		CastsShadow: true,
	})
}

func (f *fixture) run() {
	f.task.Run(&task.SceneContext{Scene: f.scene}, &task.RenderContext{Args: f.args})
}

func (f *fixture) lastList(t *testing.T) *gpu.CommandList {
	t.Helper()
	list, name := f.device.Last()
	if list == nil {
		t.Fatal("no batch was submitted")
	}
	if name != RenderJobName {
		t.Errorf("batch name = %q, want %q", name, RenderJobName)
	}
	return list
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { logging.SetLogger(nil) })
	return &buf
}

func TestNewTaskJobOrder(t *testing.T) {
	f := newFixture(t, true)
	want := []string{FetchJobName, CullJobName, PipelineSortJobName, DepthSortJobName, RenderJobName}
	if got := f.task.Jobs(); !slices.Equal(got, want) {
		t.Errorf("Jobs() = %v, want %v", got, want)
	}
	if !f.task.Plumber().Frozen() {
		t.Error("plumber is not frozen after NewTask")
	}
	if f.task.Plumber().Len() != 2 {
		t.Errorf("Plumber().Len() = %d, want 2", f.task.Plumber().Len())
	}
}

func TestNewTaskRejectsOffsets(t *testing.T) {
	tests := []struct {
		name      string
		near, far float32
	}{
		{"far equal to near", 5, 5},
		{"far below near", 5, 1},
		{"NaN near", float32(math.NaN()), 20},
		{"infinite far", -2, float32(math.Inf(1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTask(light.NewStage(), WithNearOffset(tt.near), WithFarOffset(tt.far))
			if !errors.Is(err, ErrInvalidOffsets) {
				t.Errorf("NewTask() error = %v, want ErrInvalidOffsets", err)
			}
		})
	}
}

func TestNewTaskPanicsWithoutStage(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewTask(nil) did not panic")
		}
	}()
	_, _ = NewTask(nil)
}

func TestRunWithoutKeylightLeavesFrustum(t *testing.T) {
	f := newFixture(t, false)
	f.addCaster(rigid, [3]float32{0, 0, -10})
	before := *f.camera

	f.run()

	if f.args.ViewFrustum != f.camera {
		t.Fatal("ViewFrustum pointer changed without a keylight")
	}
	if *f.camera != before {
		t.Error("camera frustum was modified without a keylight")
	}
	if n := f.device.Submissions(); n != 0 {
		t.Errorf("Submissions() = %d, want 0", n)
	}
}

func TestRunWithoutShadowStateLeavesFrustum(t *testing.T) {
	f := newFixture(t, false)
	sun := light.NewLight(light.LightTypeDirectional, light.WithCastsShadows(true))
	f.stage.AddLight(sun, nil)
	f.addCaster(rigid, [3]float32{0, 0, -10})

	f.run()

	if f.args.ViewFrustum != f.camera {
		t.Error("ViewFrustum pointer changed for a keylight without shadow state")
	}
	if n := f.device.Submissions(); n != 0 {
		t.Errorf("Submissions() = %d, want 0", n)
	}
}

func TestRunWithoutViewFrustumIsNoop(t *testing.T) {
	f := newFixture(t, true)
	f.args.ViewFrustum = nil

	f.run()

	if f.args.ViewFrustum != nil {
		t.Error("ViewFrustum set on a run without a frustum")
	}
	if n := f.device.Submissions(); n != 0 {
		t.Errorf("Submissions() = %d, want 0", n)
	}
}

func TestRunWithoutGPUContextIsNoop(t *testing.T) {
	f := newFixture(t, true)
	f.addCaster(rigid, [3]float32{0, 0, -10})
	f.args.Context = nil

	f.run()

	if f.args.ViewFrustum != f.camera {
		t.Error("ViewFrustum changed on a run without a GPU context")
	}
	if n := len(f.task.Casters()); n != 0 {
		t.Errorf("len(Casters()) = %d, want 0: jobs ran without a GPU context", n)
	}
	if got := f.args.Details.Items(task.ShadowItem); got.Considered != 0 || got.Rendered != 0 {
		t.Errorf("shadow item stats = %+v, want zero", got)
	}
	if n := f.device.Submissions(); n != 0 {
		t.Errorf("Submissions() = %d, want 0", n)
	}
}

func TestRunWithInactiveSceneIsNoop(t *testing.T) {
	f := newFixture(t, true)
	f.addCaster(rigid, [3]float32{0, 0, -10})
	f.scene.SetActive(false)

	f.run()

	if f.args.ViewFrustum != f.camera {
		t.Error("ViewFrustum changed on a run over an inactive scene")
	}
	if n := len(f.task.Casters()); n != 0 {
		t.Errorf("len(Casters()) = %d, want 0", n)
	}
	if n := f.device.Submissions(); n != 0 {
		t.Errorf("Submissions() = %d, want 0", n)
	}

	f.scene.SetActive(true)
	f.run()
	if got := f.device.TotalDraws(); got != 1 {
		t.Errorf("TotalDraws() after reactivation = %d, want 1", got)
	}
}

func TestRunRendersIntoResolvedShadow(t *testing.T) {
	f := newFixture(t, true)
	f.addCaster(rigid, [3]float32{0, 0, -10})
	sun := f.stage.Keylight()
	other := light.NewLight(light.LightTypeDirectional, light.WithDirection(1, -1, 0), light.WithCastsShadows(true))
	otherShadow := light.NewShadow(other, gpu.NewFramebuffer("other", 256, 256))
	f.scene = fetchHookScene{Scene: f.scene, onFetch: func() {
		f.stage.RemoveLight(sun)
		f.stage.AddLight(other, otherShadow)
	}}

	f.run()

	commands := f.lastList(t).Commands()
	if len(commands) < 3 {
		t.Fatalf("got %d commands, want the batch prologue", len(commands))
	}
	if commands[2].Framebuffer != f.shadow.Framebuffer() {
		t.Errorf("bound framebuffer = %s, want the shadow whose frustum was installed", commands[2].Framebuffer.Label())
	}
	if r := commands[0].Rect; r.Width != 1024 {
		t.Errorf("viewport width = %d, want 1024", r.Width)
	}
}

func TestTaskString(t *testing.T) {
	a := newFixture(t, true).task
	b := newFixture(t, true).task
	if a.Name() != b.Name() {
		t.Fatalf("names differ: %s, %s", a.Name(), b.Name())
	}
	if a.String() == b.String() {
		t.Errorf("two tasks share String() %s", a)
	}
	if !strings.HasPrefix(a.String(), a.Name()+"(") {
		t.Errorf("String() = %s, want the name then the short ID", a)
	}
}

func TestRunWithZeroCasters(t *testing.T) {
	f := newFixture(t, true)

	f.run()

	if f.args.ViewFrustum != f.camera {
		t.Error("ViewFrustum not restored after the run")
	}
	list := f.lastList(t)
	if list.DrawCount() != 0 {
		t.Errorf("DrawCount() = %d, want 0", list.DrawCount())
	}
	var cleared bool
	for _, c := range list.Commands() {
		if c.Kind != gpu.CommandClear {
			continue
		}
		cleared = true
		if c.ClearMask != gpu.ClearColor|gpu.ClearDepth {
			t.Errorf("clear mask = %v, want color|depth", c.ClearMask)
		}
		if c.ClearColor != [4]float32{1, 1, 1, 1} || c.ClearDepth != 1 || c.ClearValue != 0 {
			t.Errorf("clear = %v depth %v stencil %v, want white, 1, 0", c.ClearColor, c.ClearDepth, c.ClearValue)
		}
	}
	if !cleared {
		t.Error("shadow map was not cleared")
	}
	if f.args.Batch != nil || f.args.Pipeline != nil {
		t.Errorf("Batch = %v, Pipeline = %v after the run, want nil", f.args.Batch, f.args.Pipeline)
	}
}

func TestRunCommandPrologue(t *testing.T) {
	f := newFixture(t, true)
	f.addCaster(rigid, [3]float32{0, 0, -10})

	f.run()

	want := []gpu.CommandKind{
		gpu.CommandSetViewport, gpu.CommandSetScissor, gpu.CommandSetFramebuffer, gpu.CommandClear,
		gpu.CommandSetProjection, gpu.CommandSetView, gpu.CommandSetPipeline,
	}
	commands := f.lastList(t).Commands()
	if len(commands) < len(want) {
		t.Fatalf("got %d commands, want at least %d", len(commands), len(want))
	}
	for i, kind := range want {
		if commands[i].Kind != kind {
			t.Errorf("command %d = %s, want %s", i, commands[i].Kind, kind)
		}
	}
	if r := commands[0].Rect; r.Width != 1024 || r.Height != 1024 {
		t.Errorf("viewport = %+v, want the 1024x1024 shadow map", r)
	}
	if commands[2].Framebuffer != f.shadow.Framebuffer() {
		t.Error("bound framebuffer is not the shadow map")
	}
	var proj [16]float32
	copy(proj[:], f.shadow.Projection())
	if commands[4].Matrix != proj {
		t.Error("projection transform is not the light projection")
	}
}

func TestRunDerivesSliceFromCameraNear(t *testing.T) {
	tests := []struct {
		name      string
		opts      []TaskBuilderOption
		near, far float32
	}{
		{"defaults", nil, DefaultNearOffset, DefaultFarOffset},
		{"configured", []TaskBuilderOption{WithNearOffset(0.5), WithFarOffset(40)}, 0.5, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true, tt.opts...)
			f.run()

			if got, want := f.shadow.Near(), f.camera.Near()+tt.near; got != want {
				t.Errorf("shadow Near() = %v, want %v", got, want)
			}
			if got, want := f.shadow.Far(), f.camera.Near()+tt.far; got != want {
				t.Errorf("shadow Far() = %v, want %v", got, want)
			}
		})
	}
}

func TestRunUsesLightFrustumDuringJobs(t *testing.T) {
	var seen *common.ViewFrustum
	f := newFixture(t, true)
	f.task.chain = task.NewTask("observe")
	task.AddRootJob[struct{}](f.task.chain, "observe", hook(func(rc *task.RenderContext) {
		seen = rc.Args.ViewFrustum
	}))

	f.run()

	if seen != f.shadow.Frustum() {
		t.Errorf("jobs saw frustum %p, want the light frustum %p", seen, f.shadow.Frustum())
	}
	if f.args.ViewFrustum != f.camera {
		t.Error("ViewFrustum not restored after the run")
	}
}

func TestRunRestoresFrustumOnPanic(t *testing.T) {
	f := newFixture(t, true)
	f.scene = panickingScene{Scene: f.scene}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("Run did not propagate the job panic")
			}
		}()
		f.run()
	}()

	if f.args.ViewFrustum != f.camera {
		t.Error("ViewFrustum not restored after a panicking job")
	}
}

func TestPickPipelineIsStable(t *testing.T) {
	f := newFixture(t, true)
	keys := []shape.Key{
		rigid,
		skinned,
		shape.NewKeyBuilder().WithTangents().Build(),
		shape.NewKeyBuilder().WithSkinned().WithSpecular().Build(),
	}
	for _, key := range keys {
		first, err := f.task.Plumber().PickPipeline(key)
		if err != nil {
			t.Fatalf("PickPipeline(%s) error = %v", key, err)
		}
		for i := 0; i < 3; i++ {
			again, _ := f.task.Plumber().PickPipeline(key)
			if again != first {
				t.Fatalf("PickPipeline(%s) returned a different pipeline on call %d", key, i+2)
			}
		}
		want := f.task.RigidPipeline()
		if key.IsSkinned() {
			want = f.task.SkinnedPipeline()
		}
		if first != want {
			t.Errorf("PickPipeline(%s) = %v, want %v", key, first, want)
		}
	}
}

func TestRunOneRigidCaster(t *testing.T) {
	f := newFixture(t, true)
	id := f.addCaster(rigid, [3]float32{0, 0, -10})

	f.run()

	draws := f.lastList(t).Draws()
	if len(draws) != 1 {
		t.Fatalf("got %d draws, want 1", len(draws))
	}
	if draws[0].Draw.Item != uint64(id) {
		t.Errorf("drew item %d, want %d", draws[0].Draw.Item, id)
	}
	if draws[0].Pipeline != f.task.RigidPipeline() {
		t.Errorf("draw bound to %v, want the rigid pipeline", draws[0].Pipeline)
	}
	if f.args.Details.DrawCalls != 1 {
		t.Errorf("Details.DrawCalls = %d, want 1", f.args.Details.DrawCalls)
	}
}

func TestRunRecordsSkinnedAfterRigid(t *testing.T) {
	f := newFixture(t, true)
	skinnedID := f.addCaster(skinned, [3]float32{0, 0, -5})
	rigidID := f.addCaster(rigid, [3]float32{0, 0, -10})

	f.run()

	draws := f.lastList(t).Draws()
	if len(draws) != 2 {
		t.Fatalf("got %d draws, want 2", len(draws))
	}
	if draws[0].Draw.Item != uint64(rigidID) || draws[0].Pipeline != f.task.RigidPipeline() {
		t.Errorf("first draw = item %d on %v, want rigid item %d on the rigid pipeline",
			draws[0].Draw.Item, draws[0].Pipeline, rigidID)
	}
	if draws[1].Draw.Item != uint64(skinnedID) || draws[1].Pipeline != f.task.SkinnedPipeline() {
		t.Errorf("second draw = item %d on %v, want skinned item %d on the skinned pipeline",
			draws[1].Draw.Item, draws[1].Pipeline, skinnedID)
	}
}

func TestRunSkinnedAlwaysUseSkinnedPipeline(t *testing.T) {
	f := newFixture(t, true)
	for i := 0; i < 6; i++ {
		key := rigid
		if i%2 == 0 {
			key = skinned
		}
		f.addCaster(key, [3]float32{float32(i) - 3, 0, -8})
	}

	f.run()

	skinnedSeen := false
	for i, d := range f.lastList(t).Draws() {
		item, ok := f.scene.Get(scene.ItemID(d.Draw.Item))
		if !ok {
			t.Fatalf("draw %d references unknown item %d", i, d.Draw.Item)
		}
		if item.Key.IsSkinned() {
			skinnedSeen = true
			if d.Pipeline != f.task.SkinnedPipeline() {
				t.Errorf("skinned item %d drawn with %v", item.ID, d.Pipeline)
			}
		} else {
			if skinnedSeen {
				t.Errorf("rigid item %d drawn after a skinned item", item.ID)
			}
			if d.Pipeline != f.task.RigidPipeline() {
				t.Errorf("rigid item %d drawn with %v", item.ID, d.Pipeline)
			}
		}
	}
}

func TestRunCullsBothDirections(t *testing.T) {
	f := newFixture(t, true)
	inside := f.addCaster(rigid, [3]float32{0, 0, -10})
	outside := f.addCaster(rigid, [3]float32{500, 0, -10})
	behind := f.addCaster(skinned, [3]float32{0, -400, -10})

	f.run()

	drawn := make(map[uint64]bool)
	for _, d := range f.lastList(t).Draws() {
		drawn[d.Draw.Item] = true
	}
	if !drawn[uint64(inside)] {
		t.Error("item fully inside the light frustum was culled")
	}
	if drawn[uint64(outside)] || drawn[uint64(behind)] {
		t.Error("item fully outside the light frustum was drawn")
	}

	stats := f.args.Details.Items(task.ShadowItem)
	if stats.Considered != 3 || stats.OutOfView != 2 || stats.Rendered != 1 {
		t.Errorf("shadow stats = %+v, want 3 considered, 2 out of view, 1 rendered", *stats)
	}
	if got := len(f.task.Visible()); got != 1 {
		t.Errorf("len(Visible()) = %d, want 1", got)
	}
}

func TestRunSkipsKeysWithoutPipeline(t *testing.T) {
	logs := captureLogs(t)
	f := newFixture(t, true)
	orphan := f.addCaster(shape.InvalidKey(), [3]float32{0, 0, -6})
	kept := f.addCaster(rigid, [3]float32{0, 0, -10})

	f.run()
	f.run()

	draws := f.lastList(t).Draws()
	if len(draws) != 1 || draws[0].Draw.Item != uint64(kept) {
		t.Fatalf("draws = %+v, want only item %d", draws, kept)
	}
	for _, d := range draws {
		if d.Draw.Item == uint64(orphan) {
			t.Error("item without a pipeline was drawn")
		}
	}
	if got := f.task.Stats().Skipped; got != 1 {
		t.Errorf("Stats().Skipped = %d, want 1", got)
	}
	if n := strings.Count(logs.String(), "shadow: skipping shapes without a pipeline"); n != 1 {
		t.Errorf("missing-pipeline warning logged %d times over two frames, want 1\n%s", n, logs.String())
	}
	if n := strings.Count(logs.String(), "msg=\"shadow: skipped shapes\""); n != 2 {
		t.Errorf("per-frame skip record logged %d times over two frames, want 2\n%s", n, logs.String())
	}
	if !strings.Contains(logs.String(), "level=WARN") {
		t.Errorf("warning not logged at WARN level:\n%s", logs.String())
	}
}

func TestRunReusesOutputSlots(t *testing.T) {
	f := newFixture(t, true)
	for i := 0; i < 8; i++ {
		f.addCaster(rigid, [3]float32{float32(i), 0, -10})
	}
	f.run()
	first := f.task.Casters()

	f.run()
	second := f.task.Casters()

	if len(first) == 0 || &first[0] != &second[0] {
		t.Error("fetch job allocated a new slice on the second frame")
	}
	if f.device.Submissions() != 2 {
		t.Errorf("Submissions() = %d, want 2", f.device.Submissions())
	}
}

// hook is a root job that calls itself with the render context.
type hook func(rc *task.RenderContext)

func (h hook) Run(_ *task.SceneContext, rc *task.RenderContext, _ *struct{}) {
	h(rc)
}

// fetchHookScene calls onFetch before listing shadow casters.
type fetchHookScene struct {
	scene.Scene
	onFetch func()
}

func (s fetchHookScene) ForEachShadowCaster(fn func(scene.ItemBound)) {
	s.onFetch()
	s.Scene.ForEachShadowCaster(fn)
}

// panickingScene panics while listing shadow casters.
type panickingScene struct {
	scene.Scene
}

func (panickingScene) ForEachShadowCaster(func(scene.ItemBound)) {
	panic("scene: corrupted")
}
