package task

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-shadow/common"
)

func TestFrustumGuardRestores(t *testing.T) {
	camera := common.NewPerspectiveFrustum([3]float32{}, [3]float32{0, 0, -1}, 1, 1, 0.1, 100)
	light := common.NewOrthoFrustum([3]float32{0, 10, 0}, [3]float32{0, -1, 0}, -5, 5, -5, 5, 0, 20)
	args := &RenderArgs{ViewFrustum: camera}

	g := InstallFrustum(args, light)
	if args.ViewFrustum != light {
		t.Fatal("InstallFrustum did not install the light frustum")
	}
	if g.Saved() != camera {
		t.Error("Saved() is not the camera frustum")
	}
	g.Restore()
	if args.ViewFrustum != camera {
		t.Error("Restore did not put the camera frustum back")
	}

	args.ViewFrustum = light
	g.Restore()
	if args.ViewFrustum != light {
		t.Error("second Restore had an effect")
	}
}

func TestFrustumGuardRestoresOnPanic(t *testing.T) {
	camera := common.NewPerspectiveFrustum([3]float32{}, [3]float32{0, 0, -1}, 1, 1, 0.1, 100)
	light := common.NewOrthoFrustum([3]float32{}, [3]float32{0, -1, 0}, -1, 1, -1, 1, 0, 1)
	args := &RenderArgs{ViewFrustum: camera}

	func() {
		defer func() { _ = recover() }()
		g := InstallFrustum(args, light)
		defer g.Restore()
		panic("job failed")
	}()

	if args.ViewFrustum != camera {
		t.Error("frustum not restored after panic")
	}
}

func TestRenderDetails(t *testing.T) {
	var d RenderDetails
	d.Items(ShadowItem).Considered = 3
	d.DrawCalls = 2
	if d.Items(OpaqueItem).Considered != 0 {
		t.Error("kinds share counters")
	}
	d.Reset()
	if d.Items(ShadowItem).Considered != 0 || d.DrawCalls != 0 {
		t.Errorf("Reset left %+v", d)
	}
	if ShadowItem.String() != "shadow" {
		t.Errorf("String() = %q", ShadowItem.String())
	}
}

func TestRenderDetailsAdd(t *testing.T) {
	var total, frame RenderDetails
	frame.Items(ShadowItem).Considered = 4
	frame.Items(ShadowItem).Rendered = 3
	frame.DrawCalls = 3
	frame.Skipped = 1

	total.Add(&frame)
	total.Add(&frame)

	if s := total.Items(ShadowItem); s.Considered != 8 || s.Rendered != 6 {
		t.Errorf("shadow stats = %+v, want 8 considered, 6 rendered", *s)
	}
	if total.DrawCalls != 6 || total.Skipped != 2 {
		t.Errorf("DrawCalls = %d, Skipped = %d, want 6 and 2", total.DrawCalls, total.Skipped)
	}
}

func TestRenderArgsClone(t *testing.T) {
	f := common.NewPerspectiveFrustum([3]float32{}, [3]float32{0, 0, -1}, 1, 1, 0.1, 100)
	a := &RenderArgs{ViewFrustum: f}
	a.Details.DrawCalls = 4
	c := a.Clone()
	if c == a || c.ViewFrustum != f || c.Details.DrawCalls != 0 {
		t.Errorf("Clone() = %+v", c)
	}
}
