package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// DepthFramebuffer is a Depth32Float render target suitable for shadow maps, together with
// the comparison sampler used to read it back.
type DepthFramebuffer struct {
	label   string
	width   int
	height  int
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

var _ Framebuffer = &DepthFramebuffer{}

// NewDepthFramebuffer creates a depth texture, its view and a comparison sampler on d.
//
// Parameters:
//   - d: the device that owns the texture
//   - label: the texture label
//   - width: width in pixels
//   - height: height in pixels
//
// Returns:
//   - *DepthFramebuffer: the framebuffer
//   - error: when any of the GPU objects fails to create
func NewDepthFramebuffer(d *WGPUDevice, label string, width, height int) (*DepthFramebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("gpu: depth framebuffer %s has invalid size %dx%d", label, width, height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create depth texture %s: %w", label, err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("gpu: create depth view %s: %w", label, err)
	}

	samp, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Comparison Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       wgpu.CompareFunctionLess,
		MaxAnisotropy: 1,
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, fmt.Errorf("gpu: create comparison sampler %s: %w", label, err)
	}

	return &DepthFramebuffer{
		label:   label,
		width:   width,
		height:  height,
		texture: tex,
		view:    view,
		sampler: samp,
	}, nil
}

func (f *DepthFramebuffer) Width() int    { return f.width }
func (f *DepthFramebuffer) Height() int   { return f.height }
func (f *DepthFramebuffer) Label() string { return f.label }

// View returns the depth texture view for binding as an attachment or a sampled texture.
func (f *DepthFramebuffer) View() *wgpu.TextureView { return f.view }

// Sampler returns the comparison sampler for shadow lookups.
func (f *DepthFramebuffer) Sampler() *wgpu.Sampler { return f.sampler }

// Release frees the GPU objects.
func (f *DepthFramebuffer) Release() {
	if f.sampler != nil {
		f.sampler.Release()
		f.sampler = nil
	}
	if f.view != nil {
		f.view.Release()
		f.view = nil
	}
	if f.texture != nil {
		f.texture.Release()
		f.texture = nil
	}
}

// WGPUMesh is indexed geometry uploaded to GPU buffers. Indices are 32-bit.
type WGPUMesh struct {
	label        string
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   uint32
}

var _ Mesh = &WGPUMesh{}

// NewWGPUMesh uploads interleaved vertex data and indices.
//
// Parameters:
//   - d: the device that owns the buffers
//   - label: the buffer label prefix
//   - vertexData: interleaved vertex bytes matching the pipeline's vertex layout
//   - indices: triangle list indices
//
// Returns:
//   - *WGPUMesh: the mesh
//   - error: when a buffer fails to create or either input is empty
func NewWGPUMesh(d *WGPUDevice, label string, vertexData []byte, indices []uint32) (*WGPUMesh, error) {
	if len(vertexData) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("gpu: mesh %s has no geometry", label)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	vb, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: mesh %s vertex buffer: %w", label, err)
	}
	d.queue.WriteBuffer(vb, 0, vertexData)

	indexData := common.SliceToBytes(indices)
	ib, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return nil, fmt.Errorf("gpu: mesh %s index buffer: %w", label, err)
	}
	d.queue.WriteBuffer(ib, 0, indexData)

	return &WGPUMesh{
		label:        label,
		vertexBuffer: vb,
		indexBuffer:  ib,
		indexCount:   uint32(len(indices)),
	}, nil
}

func (m *WGPUMesh) IndexCount() uint32 { return m.indexCount }

// Release frees the GPU buffers.
func (m *WGPUMesh) Release() {
	if m.vertexBuffer != nil {
		m.vertexBuffer.Release()
		m.vertexBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Release()
		m.indexBuffer = nil
	}
}
