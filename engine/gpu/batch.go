package gpu

import (
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pipeline"
)

// ClearMask selects the framebuffer planes cleared by ClearFramebuffer.
type ClearMask uint8

const (
	// ClearColor clears the color attachment.
	ClearColor ClearMask = 1 << iota
	// ClearDepth clears the depth attachment.
	ClearDepth
	// ClearStencil clears the stencil attachment.
	ClearStencil
)

// Rect is an integer rectangle in framebuffer pixels.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Mesh is drawable geometry owned by the scene. Devices type-assert to their own mesh type.
type Mesh interface {
	// IndexCount returns the number of indices drawn.
	IndexCount() uint32
}

// DrawCall is one indexed draw of a scene item.
type DrawCall struct {
	// Item identifies the scene item, for diagnostics and tests.
	Item uint64
	// Mesh is the geometry to draw. It may be nil in headless runs.
	Mesh Mesh
	// Transform is the model-to-world matrix (column-major).
	Transform [16]float32
	// Bones holds the skinning matrices for skinned items; nil for rigid items.
	Bones [][16]float32
}

// Batch records GPU work for later submission. A Batch is only valid inside the
// Context.DoInBatch callback that handed it out and must not be retained.
type Batch interface {
	// SetViewport sets the viewport rectangle.
	SetViewport(r Rect)

	// SetScissor sets the scissor rectangle.
	SetScissor(r Rect)

	// SetFramebuffer binds the render target for subsequent commands.
	SetFramebuffer(fb Framebuffer)

	// ClearFramebuffer clears the planes in mask of the bound framebuffer.
	//
	// Parameters:
	//   - mask: the planes to clear
	//   - color: the clear color (RGBA)
	//   - depth: the clear depth
	//   - stencil: the clear stencil value
	ClearFramebuffer(mask ClearMask, color [4]float32, depth float32, stencil int32)

	// SetProjectionTransform sets the projection matrix (column-major, 16 elements).
	SetProjectionTransform(m []float32)

	// SetViewTransform sets the world-to-view matrix (column-major, 16 elements).
	SetViewTransform(m []float32)

	// SetPipeline binds the pipeline used by subsequent draws.
	SetPipeline(p pipeline.Pipeline)

	// Draw records an indexed draw with the bound pipeline.
	Draw(dc DrawCall)
}
