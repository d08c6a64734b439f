package shape

import (
	"errors"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const testVertexSource = `
@vertex
fn main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 1.0);
}
`

func testProgram(t *testing.T, key string) shader.Program {
	t.Helper()
	p, err := shader.NewProgramFromSource(key, testVertexSource, "")
	if err != nil {
		t.Fatalf("NewProgramFromSource(%s) error = %v", key, err)
	}
	return p
}

func newShadowPlumber(t *testing.T) (Plumber, pipeline.Pipeline, pipeline.Pipeline) {
	t.Helper()
	p := NewPlumber(WithLabel("test"))
	rigid, err := p.AddPipeline(NewFilterBuilder().WithoutSkinned().Build(), testProgram(t, "rigid"),
		pipeline.WithCullMode(wgpu.CullModeBack))
	if err != nil {
		t.Fatalf("AddPipeline(rigid) error = %v", err)
	}
	skinned, err := p.AddPipeline(NewFilterBuilder().WithSkinned().Build(), testProgram(t, "skinned"))
	if err != nil {
		t.Fatalf("AddPipeline(skinned) error = %v", err)
	}
	p.Freeze()
	return p, rigid, skinned
}

func TestPickPipelineSelectsByFilter(t *testing.T) {
	p, rigid, skinned := newShadowPlumber(t)
	tests := []struct {
		key  Key
		want pipeline.Pipeline
	}{
		{NewKeyBuilder().Build(), rigid},
		{NewKeyBuilder().WithTranslucent().WithTangents().Build(), rigid},
		{NewKeyBuilder().WithSkinned().Build(), skinned},
		{NewKeyBuilder().WithSkinned().WithWireframe().Build(), skinned},
	}
	for _, tt := range tests {
		got, err := p.PickPipeline(tt.key)
		if err != nil {
			t.Fatalf("PickPipeline(%s) error = %v", tt.key, err)
		}
		if got != tt.want {
			t.Errorf("PickPipeline(%s) = %v, want %v", tt.key, got, tt.want)
		}
		if got.Program().Vertex() == nil {
			t.Errorf("PickPipeline(%s) returned a pipeline without a vertex stage", tt.key)
		}
	}
}

func TestPickPipelineFirstMatchWins(t *testing.T) {
	p := NewPlumber()
	first, err := p.AddPipeline(NewFilterBuilder().Build(), testProgram(t, "first"))
	if err != nil {
		t.Fatalf("AddPipeline(first) error = %v", err)
	}
	if _, err := p.AddPipeline(NewFilterBuilder().WithSkinned().Build(), testProgram(t, "second")); err != nil {
		t.Fatalf("AddPipeline(second) error = %v", err)
	}
	got, err := p.PickPipeline(Skinned)
	if err != nil || got != first {
		t.Errorf("PickPipeline(Skinned) = %v, %v; want first registered pipeline", got, err)
	}
}

func TestPickPipelineInvalidKey(t *testing.T) {
	p, _, _ := newShadowPlumber(t)
	got, err := p.PickPipeline(InvalidKey())
	if !errors.Is(err, ErrNoPipeline) {
		t.Fatalf("PickPipeline(Invalid) error = %v, want ErrNoPipeline", err)
	}
	if got != nil {
		t.Errorf("PickPipeline(Invalid) = %v, want nil", got)
	}
}

func TestPickPipelineMemoizesMisses(t *testing.T) {
	p := NewPlumber()
	if _, err := p.AddPipeline(NewFilterBuilder().WithSkinned().Build(), testProgram(t, "skinned")); err != nil {
		t.Fatalf("AddPipeline() error = %v", err)
	}
	p.Freeze()
	_, err1 := p.PickPipeline(0)
	_, err2 := p.PickPipeline(0)
	if err1 == nil || err1 != err2 {
		t.Errorf("repeated misses returned %v and %v, want the same memoized error", err1, err2)
	}
}

func TestAddPipelineAfterFreeze(t *testing.T) {
	p, _, _ := newShadowPlumber(t)
	_, err := p.AddPipeline(NewFilterBuilder().Build(), testProgram(t, "late"))
	if !errors.Is(err, ErrPlumberFrozen) {
		t.Errorf("AddPipeline() after Freeze error = %v, want ErrPlumberFrozen", err)
	}
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
}

func TestAddPipelineInvalidatesMemo(t *testing.T) {
	p := NewPlumber()
	if _, err := p.PickPipeline(Skinned); !errors.Is(err, ErrNoPipeline) {
		t.Fatalf("PickPipeline() on empty plumber error = %v, want ErrNoPipeline", err)
	}
	want, err := p.AddPipeline(NewFilterBuilder().WithSkinned().Build(), testProgram(t, "skinned"))
	if err != nil {
		t.Fatalf("AddPipeline() error = %v", err)
	}
	got, err := p.PickPipeline(Skinned)
	if err != nil || got != want {
		t.Errorf("PickPipeline() after registration = %v, %v; want %v", got, err, want)
	}
}

func TestPickPipelineConcurrent(t *testing.T) {
	p, rigid, skinned := newShadowPlumber(t)
	p.Warm(0, Skinned)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				key := Key(i % 64)
				got, err := p.PickPipeline(key)
				if err != nil {
					t.Errorf("goroutine %d: PickPipeline(%s) error = %v", g, key, err)
					return
				}
				want := rigid
				if key.IsSkinned() {
					want = skinned
				}
				if got != want {
					t.Errorf("goroutine %d: PickPipeline(%s) = %v, want %v", g, key, got, want)
					return
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestPickPipelineDuringRegistration(t *testing.T) {
	for round := 0; round < 50; round++ {
		p := NewPlumber()
		prog := testProgram(t, "skinned")

		stop := make(chan struct{})
		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
						_, _ = p.PickPipeline(Skinned)
					}
				}
			}()
		}
		if _, err := p.AddPipeline(NewFilterBuilder().WithoutSkinned().Build(), prog); err != nil {
			t.Fatalf("AddPipeline(rigid) error = %v", err)
		}
		want, err := p.AddPipeline(NewFilterBuilder().WithSkinned().Build(), prog)
		if err != nil {
			t.Fatalf("AddPipeline(skinned) error = %v", err)
		}
		close(stop)
		wg.Wait()
		p.Freeze()

		got, err := p.PickPipeline(Skinned)
		if err != nil || got != want {
			t.Fatalf("round %d: PickPipeline() after registration = %v, %v; want %v", round, got, err, want)
		}
	}
}
