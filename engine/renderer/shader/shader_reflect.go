package shader

import (
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga/ir"
)

// vertexFormatInfo pairs a wgpu vertex format with its size in bytes.
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// vertexFormats maps (scalar kind, component count) to a vertex format.
var vertexFormats = map[ir.ScalarKind][5]vertexFormatInfo{
	ir.ScalarFloat: {
		1: {wgpu.VertexFormatFloat32, 4},
		2: {wgpu.VertexFormatFloat32x2, 8},
		3: {wgpu.VertexFormatFloat32x3, 12},
		4: {wgpu.VertexFormatFloat32x4, 16},
	},
	ir.ScalarSint: {
		1: {wgpu.VertexFormatSint32, 4},
		2: {wgpu.VertexFormatSint32x2, 8},
		3: {wgpu.VertexFormatSint32x3, 12},
		4: {wgpu.VertexFormatSint32x4, 16},
	},
	ir.ScalarUint: {
		1: {wgpu.VertexFormatUint32, 4},
		2: {wgpu.VertexFormatUint32x2, 8},
		3: {wgpu.VertexFormatUint32x3, 12},
		4: {wgpu.VertexFormatUint32x4, 16},
	},
}

// vertexInput is a location-bound entry point input.
type vertexInput struct {
	location uint32
	name     string
	typ      ir.TypeHandle
}

// findEntryPoint returns the first entry point declared for stage, or nil.
func findEntryPoint(module *ir.Module, stage ir.ShaderStage) *ir.EntryPoint {
	for i := range module.EntryPoints {
		if module.EntryPoints[i].Stage == stage {
			return &module.EntryPoints[i]
		}
	}
	return nil
}

// locationOf returns the @location index of a binding, if it has one.
func locationOf(b *ir.Binding) (uint32, bool) {
	if b == nil {
		return 0, false
	}
	if loc, ok := (*b).(ir.LocationBinding); ok {
		return loc.Location, true
	}
	return 0, false
}

// collectVertexInputs gathers the location-bound inputs of an entry point, looking through
// struct-typed arguments whose members carry the bindings.
func collectVertexInputs(module *ir.Module, ep *ir.EntryPoint) []vertexInput {
	var inputs []vertexInput
	for _, arg := range ep.Function.Arguments {
		if loc, ok := locationOf(arg.Binding); ok {
			inputs = append(inputs, vertexInput{location: loc, name: arg.Name, typ: arg.Type})
			continue
		}
		if arg.Binding != nil || int(arg.Type) >= len(module.Types) {
			continue
		}
		st, ok := module.Types[arg.Type].Inner.(ir.StructType)
		if !ok {
			continue
		}
		for _, m := range st.Members {
			if loc, ok := locationOf(m.Binding); ok {
				inputs = append(inputs, vertexInput{location: loc, name: m.Name, typ: m.Type})
			}
		}
	}
	slices.SortFunc(inputs, func(a, b vertexInput) int {
		return int(a.location) - int(b.location)
	})
	return inputs
}

// vertexFormatOf maps a scalar or vector IR type to its vertex format.
func vertexFormatOf(module *ir.Module, h ir.TypeHandle) (vertexFormatInfo, bool) {
	if int(h) >= len(module.Types) {
		return vertexFormatInfo{}, false
	}
	var (
		kind  ir.ScalarKind
		count int
	)
	switch t := module.Types[h].Inner.(type) {
	case ir.ScalarType:
		if t.Width != 4 {
			return vertexFormatInfo{}, false
		}
		kind, count = t.Kind, 1
	case ir.VectorType:
		if t.Scalar.Width != 4 {
			return vertexFormatInfo{}, false
		}
		kind, count = t.Scalar.Kind, int(t.Size)
	default:
		return vertexFormatInfo{}, false
	}
	formats, ok := vertexFormats[kind]
	if !ok || count < 1 || count > 4 {
		return vertexFormatInfo{}, false
	}
	return formats[count], true
}

// reflectVertexLayout packs every location-bound input of a vertex entry point into one
// interleaved vertex buffer layout, in location order with sequential offsets.
//
// Parameters:
//   - module: the lowered IR module
//   - ep: the vertex entry point
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout (no attributes when the entry point has no vertex inputs)
//   - error: when an input type has no vertex format
func reflectVertexLayout(module *ir.Module, ep *ir.EntryPoint) (wgpu.VertexBufferLayout, error) {
	inputs := collectVertexInputs(module, ep)
	attrs := make([]wgpu.VertexAttribute, 0, len(inputs))
	var offset uint64
	for _, in := range inputs {
		info, ok := vertexFormatOf(module, in.typ)
		if !ok {
			return wgpu.VertexBufferLayout{}, fmt.Errorf("vertex input %q at location %d has no vertex format", in.name, in.location)
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         info.format,
			Offset:         offset,
			ShaderLocation: in.location,
		})
		offset += info.size
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, nil
}

// reflectBindGroupLayouts builds one layout descriptor per bind group from the resource-bound
// global variables of the module.
//
// Parameters:
//   - module: the lowered IR module
//   - label: prefix used for descriptor labels
//   - visibility: the stage visibility applied to each entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding index
func reflectBindGroupLayouts(module *ir.Module, label string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	descriptors := make(map[int]wgpu.BindGroupLayoutDescriptor)
	names := make(map[int]map[int]string)

	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		group := int(gv.Binding.Group)
		entry := classifyResource(module, gv, visibility)

		desc := descriptors[group]
		if desc.Label == "" {
			desc.Label = fmt.Sprintf("%s_group%d", label, group)
		}
		desc.Entries = append(desc.Entries, entry)
		descriptors[group] = desc

		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][int(gv.Binding.Binding)] = gv.Name
	}

	for group, desc := range descriptors {
		slices.SortFunc(desc.Entries, func(a, b wgpu.BindGroupLayoutEntry) int {
			return int(a.Binding) - int(b.Binding)
		})
		descriptors[group] = desc
	}
	return descriptors, names
}

// classifyResource fills the buffer, sampler or texture layout of an entry from the global's
// address space and type.
func classifyResource(module *ir.Module, gv ir.GlobalVariable, visibility wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    gv.Binding.Binding,
		Visibility: visibility,
	}

	switch gv.Space {
	case ir.SpaceUniform:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		return entry
	case ir.SpaceStorage:
		if gv.Access == ir.StorageRead {
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		} else {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
		return entry
	}

	if int(gv.Type) >= len(module.Types) {
		return entry
	}
	switch t := module.Types[gv.Type].Inner.(type) {
	case ir.SamplerType:
		if t.Comparison {
			entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
		} else {
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		}
	case ir.ImageType:
		entry.Texture.ViewDimension = viewDimension(t)
		entry.Texture.Multisampled = t.Multisampled
		switch {
		case t.Class == ir.ImageClassDepth:
			entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		case t.SampledKind == ir.ScalarSint:
			entry.Texture.SampleType = wgpu.TextureSampleTypeSint
		case t.SampledKind == ir.ScalarUint:
			entry.Texture.SampleType = wgpu.TextureSampleTypeUint
		default:
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		}
	}
	return entry
}

func viewDimension(t ir.ImageType) wgpu.TextureViewDimension {
	switch t.Dim {
	case ir.Dim1D:
		return wgpu.TextureViewDimension1D
	case ir.Dim3D:
		return wgpu.TextureViewDimension3D
	case ir.DimCube:
		if t.Arrayed {
			return wgpu.TextureViewDimensionCubeArray
		}
		return wgpu.TextureViewDimensionCube
	default:
		if t.Arrayed {
			return wgpu.TextureViewDimension2DArray
		}
		return wgpu.TextureViewDimension2D
	}
}
