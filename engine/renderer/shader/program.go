package shader

import (
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// program is the implementation of the Program interface.
type program struct {
	key      string
	vertex   Shader
	fragment Shader
	layouts  map[int]wgpu.BindGroupLayoutDescriptor
}

// Program pairs a vertex shader with an optional fragment shader. A depth-only program
// may omit the fragment stage.
type Program interface {
	// Key returns the unique key of the program.
	//
	// Returns:
	//   - string: the program key
	Key() string

	// Vertex returns the vertex stage.
	//
	// Returns:
	//   - Shader: the vertex shader, never nil
	Vertex() Shader

	// Fragment returns the fragment stage.
	//
	// Returns:
	//   - Shader: the fragment shader, or nil for depth-only programs
	Fragment() Shader

	// BindGroupLayoutDescriptors returns the bind group layouts of both stages merged per group.
	// Entries declared by both stages are combined into one entry visible to both.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor
}

var _ Program = &program{}

// NewProgram pairs a vertex and a fragment shader.
//
// Parameters:
//   - key: the unique key of the program
//   - vertex: a shader of type ShaderTypeVertex
//   - fragment: a shader of type ShaderTypeFragment, or nil
//
// Returns:
//   - Program: the program
//   - error: when a stage has the wrong type
func NewProgram(key string, vertex, fragment Shader) (Program, error) {
	if vertex == nil {
		return nil, fmt.Errorf("shader: program %s requires a vertex shader", key)
	}
	if vertex.ShaderType() != ShaderTypeVertex {
		return nil, fmt.Errorf("shader: program %s: %s is a %s shader, want vertex", key, vertex.Key(), vertex.ShaderType())
	}
	if fragment != nil && fragment.ShaderType() != ShaderTypeFragment {
		return nil, fmt.Errorf("shader: program %s: %s is a %s shader, want fragment", key, fragment.Key(), fragment.ShaderType())
	}
	p := &program{
		key:      key,
		vertex:   vertex,
		fragment: fragment,
	}
	p.layouts = mergeLayouts(vertex, fragment)
	return p, nil
}

// NewProgramFromSource parses a vertex and a fragment WGSL source and pairs them.
// An empty fragment source produces a depth-only program.
//
// Parameters:
//   - key: the unique key of the program; stage keys are derived from it
//   - vertexSource: the WGSL vertex source
//   - fragmentSource: the WGSL fragment source, or ""
//
// Returns:
//   - Program: the program
//   - error: a wrapped ErrInvalidShader or ErrNoEntryPoint
func NewProgramFromSource(key, vertexSource, fragmentSource string) (Program, error) {
	vs, err := NewShader(key+"_vert", ShaderTypeVertex, vertexSource)
	if err != nil {
		return nil, fmt.Errorf("shader: program %s: %w", key, err)
	}
	var fs Shader
	if fragmentSource != "" {
		fs, err = NewShader(key+"_frag", ShaderTypeFragment, fragmentSource)
		if err != nil {
			return nil, fmt.Errorf("shader: program %s: %w", key, err)
		}
	}
	return NewProgram(key, vs, fs)
}

func (p *program) Key() string {
	return p.key
}

func (p *program) Vertex() Shader {
	return p.vertex
}

func (p *program) Fragment() Shader {
	return p.fragment
}

func (p *program) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return p.layouts
}

func mergeLayouts(stages ...Shader) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)
	for _, s := range stages {
		if s == nil {
			continue
		}
		for group, desc := range s.BindGroupLayoutDescriptors() {
			m := merged[group]
			if m.Label == "" {
				m.Label = desc.Label
			}
		entries:
			for _, e := range desc.Entries {
				for i := range m.Entries {
					if m.Entries[i].Binding == e.Binding {
						m.Entries[i].Visibility |= e.Visibility
						continue entries
					}
				}
				m.Entries = append(m.Entries, e)
			}
			merged[group] = m
		}
	}
	for group, m := range merged {
		slices.SortFunc(m.Entries, func(a, b wgpu.BindGroupLayoutEntry) int {
			return int(a.Binding) - int(b.Binding)
		})
		merged[group] = m
	}
	return merged
}
