package gpu

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// stubProgram satisfies shader.Program without parsing any WGSL.
type stubProgram struct{ key string }

func (p stubProgram) Key() string             { return p.key }
func (p stubProgram) Vertex() shader.Shader   { return nil }
func (p stubProgram) Fragment() shader.Shader { return nil }
func (p stubProgram) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return nil
}

func testPipeline(key string) pipeline.Pipeline {
	return pipeline.NewPipeline(key, stubProgram{key: key})
}

func TestCommandListRecordsInOrder(t *testing.T) {
	fb := NewFramebuffer("shadow", 1024, 1024)
	p := testPipeline("model")
	l := NewCommandList(0)

	l.SetViewport(FullRect(fb))
	l.SetScissor(FullRect(fb))
	l.SetFramebuffer(fb)
	l.ClearFramebuffer(ClearColor|ClearDepth, [4]float32{1, 1, 1, 1}, 1, 0)
	l.SetProjectionTransform(make([]float32, 16))
	l.SetViewTransform(make([]float32, 16))
	l.SetPipeline(p)
	l.Draw(DrawCall{Item: 7})

	want := []CommandKind{
		CommandSetViewport, CommandSetScissor, CommandSetFramebuffer, CommandClear,
		CommandSetProjection, CommandSetView, CommandSetPipeline, CommandDraw,
	}
	got := l.Commands()
	if len(got) != len(want) {
		t.Fatalf("Len() = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Kind != want[i] {
			t.Errorf("command %d = %s, want %s", i, got[i].Kind, want[i])
		}
	}
	if got[0].Rect.Width != 1024 || got[0].Rect.Height != 1024 {
		t.Errorf("viewport = %+v, want 1024x1024", got[0].Rect)
	}
	if got[3].ClearMask != ClearColor|ClearDepth || got[3].ClearDepth != 1 {
		t.Errorf("clear = mask %v depth %v", got[3].ClearMask, got[3].ClearDepth)
	}
}

func TestCommandListTransformsAreCopied(t *testing.T) {
	l := NewCommandList(2)
	m := make([]float32, 16)
	m[0] = 3
	l.SetProjectionTransform(m)
	m[0] = 9

	if got := l.Commands()[0].Matrix[0]; got != 3 {
		t.Errorf("Matrix[0] = %v, want 3", got)
	}
}

func TestCommandListDraws(t *testing.T) {
	a, b := testPipeline("a"), testPipeline("b")
	l := NewCommandList(0)
	l.SetPipeline(a)
	l.Draw(DrawCall{Item: 1})
	l.Draw(DrawCall{Item: 2})
	l.SetPipeline(b)
	l.Draw(DrawCall{Item: 3})

	if got := l.DrawCount(); got != 3 {
		t.Fatalf("DrawCount() = %d, want 3", got)
	}
	draws := l.Draws()
	wantPipelines := []pipeline.Pipeline{a, a, b}
	for i, d := range draws {
		if d.Pipeline != wantPipelines[i] {
			t.Errorf("draw %d pipeline = %v, want %v", i, d.Pipeline, wantPipelines[i])
		}
		if d.Draw.Item != uint64(i+1) {
			t.Errorf("draw %d item = %d, want %d", i, d.Draw.Item, i+1)
		}
	}
	if got := len(l.Pipelines()); got != 2 {
		t.Errorf("len(Pipelines()) = %d, want 2", got)
	}
}

func TestCommandListResetKeepsStorage(t *testing.T) {
	l := NewCommandList(0)
	for i := 0; i < 100; i++ {
		l.Draw(DrawCall{Item: uint64(i)})
	}
	before := cap(l.commands)
	l.Reset()

	if l.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", l.Len())
	}
	if cap(l.commands) != before {
		t.Errorf("cap after Reset = %d, want %d", cap(l.commands), before)
	}
	allocs := testing.AllocsPerRun(10, func() {
		l.Reset()
		for i := 0; i < 100; i++ {
			l.Draw(DrawCall{Item: uint64(i)})
		}
	})
	if allocs != 0 {
		t.Errorf("re-recording allocated %v times, want 0", allocs)
	}
}

func TestCommandKindString(t *testing.T) {
	tests := []struct {
		kind CommandKind
		want string
	}{
		{CommandDraw, "Draw"},
		{CommandClear, "Clear"},
		{CommandKind(42), "CommandKind(42)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestNewFramebufferRejectsEmptySize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewFramebuffer(0, 10) did not panic")
		}
	}()
	NewFramebuffer("bad", 0, 10)
}
