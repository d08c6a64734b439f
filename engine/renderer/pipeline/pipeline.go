package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
// It pairs a shader program with the fixed-function state used to draw with it.
// A pipeline is immutable after construction; its identity is the pointer.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and diagnostics
	pipelineKey string
	// program is the vertex/fragment pair executed by this pipeline
	program shader.Program

	// The following properties configure the fixed-function state and can be set with the builder options.

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthCompare        wgpu.CompareFunction
	depthBias           int32
	depthBiasSlopeScale float32
	cullMode            wgpu.CullMode
}

// Pipeline defines the interface for a render pipeline: a shader program plus the fixed-function
// state (depth and cull settings) it is drawn with. Pipelines render depth only: triangle lists
// wound counter-clockwise, with no color targets. GPU objects are created from
// a Pipeline by the device that replays it; the Pipeline itself holds CPU-side state only, so two
// Pipeline values are the same pipeline exactly when they compare equal.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Program returns the shader program executed by this pipeline.
	//
	// Returns:
	//   - shader.Program: the vertex/fragment program
	Program() shader.Program

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// DepthCompare returns the depth comparison function. When depth testing is disabled
	// this is wgpu.CompareFunctionAlways regardless of the configured value.
	//
	// Returns:
	//   - wgpu.CompareFunction: the effective depth comparison function
	DepthCompare() wgpu.CompareFunction

	// DepthBias returns the depth bias value configured for this pipeline.
	//
	// Returns:
	//   - int32: the depth bias value for this pipeline
	DepthBias() int32

	// DepthBiasSlopeScale returns the depth bias slope scale configured for this pipeline.
	//
	// Returns:
	//   - float32: the depth bias slope scale for this pipeline
	DepthBiasSlopeScale() float32

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline (e.g., wgpu.CullModeNone, wgpu.CullModeFront, wgpu.CullModeBack)
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology, always wgpu.PrimitiveTopologyTriangleList.
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order, always wgpu.FrontFaceCCW.
	FrontFace() wgpu.FrontFace

	// String returns a short description used in diagnostics.
	String() string
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline. A shader program must be provided.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - program: the shader program the pipeline executes
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified program and configuration
func NewPipeline(pipelineKey string, program shader.Program, opts ...PipelineBuilderOption) Pipeline {
	if program == nil {
		panic(fmt.Sprintf("pipeline: %s requires a shader program", pipelineKey))
	}
	p := &pipeline{
		pipelineKey:       pipelineKey,
		program:           program,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthCompare:      wgpu.CompareFunctionLess,
		cullMode:          wgpu.CullModeNone,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Program() shader.Program {
	return p.program
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	if !p.depthTestEnabled {
		return wgpu.CompareFunctionAlways
	}
	return p.depthCompare
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return wgpu.PrimitiveTopologyTriangleList
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return wgpu.FrontFaceCCW
}

func (p *pipeline) String() string {
	return fmt.Sprintf("pipeline(%s, program=%s)", p.pipelineKey, p.program.Key())
}
