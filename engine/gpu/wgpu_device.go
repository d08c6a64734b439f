package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// MaxBones is the number of skinning matrices a per-draw uniform holds.
	MaxBones = 64

	matrixSize = 16 * 4
	// frameUniformSize holds the projection then the view matrix.
	frameUniformSize = 2 * matrixSize
	// drawUniformSize holds the model matrix then MaxBones skinning matrices.
	drawUniformSize = matrixSize + MaxBones*matrixSize
)

var (
	// ErrNoFramebuffer is returned when a list draws before binding a framebuffer.
	ErrNoFramebuffer = errors.New("gpu: no framebuffer bound")

	// ErrNoPipeline is returned when a list draws before binding a pipeline.
	ErrNoPipeline = errors.New("gpu: no pipeline bound")

	// ErrUnsupportedFramebuffer is returned when a framebuffer was not created by the device.
	ErrUnsupportedFramebuffer = errors.New("gpu: framebuffer not created by this device")

	// ErrTooManyBones is returned when a draw carries more than MaxBones skinning matrices.
	ErrTooManyBones = errors.New("gpu: too many bones")
)

// gpuPipeline holds the GPU objects created for one pipeline.Pipeline.
type gpuPipeline struct {
	render     *wgpu.RenderPipeline
	layouts    []*wgpu.BindGroupLayout
	frameGroup *wgpu.BindGroup
	// drawGroups holds one bind group per draw slot, created on demand.
	drawGroups []*wgpu.BindGroup
}

// WGPUDevice replays command lists on a WebGPU device. Pipelines are realized lazily on first
// use and cached for the lifetime of the device.
//
// Bind group 0 of every pipeline receives the batch's projection and view matrices. Bind group 1
// receives the per-draw model matrix followed by the skinning matrices. Draws whose mesh is not a
// *WGPUMesh are skipped.
type WGPUDevice struct {
	mu sync.Mutex

	// instance and adapter are set only when the device was opened by OpenWGPUDevice.
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	pipelines    map[pipeline.Pipeline]*gpuPipeline
	frameUniform *wgpu.Buffer
	drawSlots    []*wgpu.Buffer
	// scratch is the staging area for one per-draw uniform.
	scratch [drawUniformSize / 4]float32
	skipped int
}

var _ Device = &WGPUDevice{}

// NewWGPUDevice wraps a WebGPU device and its queue.
//
// Parameters:
//   - device: the WebGPU device
//
// Returns:
//   - *WGPUDevice: the device
//   - error: when the shared uniform buffer fails to create
func NewWGPUDevice(device *wgpu.Device) (*WGPUDevice, error) {
	if device == nil {
		panic("gpu: NewWGPUDevice requires a device")
	}
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Batch Transform Uniform",
		Size:  frameUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create transform uniform: %w", err)
	}
	return &WGPUDevice{
		device:       device,
		queue:        device.GetQueue(),
		pipelines:    make(map[pipeline.Pipeline]*gpuPipeline),
		frameUniform: buf,
	}, nil
}

// SkippedDraws returns how many draws were skipped because their mesh had no GPU buffers.
func (d *WGPUDevice) SkippedDraws() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.skipped
}

func (d *WGPUDevice) Submit(name string, list *CommandList) error {
	if list == nil {
		return ErrNilCommandList
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("gpu: %s: create encoder: %w", name, err)
	}
	defer encoder.Release()

	r := replay{d: d, encoder: encoder}
	for i := range list.commands {
		if err := r.apply(&list.commands[i]); err != nil {
			r.endPass()
			return fmt.Errorf("gpu: %s: command %d (%s): %w", name, i, list.commands[i].Kind, err)
		}
	}
	if err := r.finish(); err != nil {
		return fmt.Errorf("gpu: %s: %w", name, err)
	}

	d.queue.WriteBuffer(d.frameUniform, 0, common.SliceToBytes(r.transforms[:]))

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("gpu: %s: finish: %w", name, err)
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

// Release frees every cached GPU object. The device must not be used afterwards.
func (d *WGPUDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for p, gp := range d.pipelines {
		for _, bg := range gp.drawGroups {
			if bg != nil {
				bg.Release()
			}
		}
		if gp.frameGroup != nil {
			gp.frameGroup.Release()
		}
		for _, l := range gp.layouts {
			if l != nil {
				l.Release()
			}
		}
		gp.render.Release()
		delete(d.pipelines, p)
	}
	for _, b := range d.drawSlots {
		b.Release()
	}
	d.drawSlots = nil
	if d.frameUniform != nil {
		d.frameUniform.Release()
		d.frameUniform = nil
	}
	if d.instance != nil {
		d.queue.Release()
		d.device.Release()
		d.adapter.Release()
		d.instance.Release()
		d.instance = nil
	}
}

// realize returns the cached GPU pipeline for p, creating it on first use.
func (d *WGPUDevice) realize(p pipeline.Pipeline) (*gpuPipeline, error) {
	if gp, ok := d.pipelines[p]; ok {
		return gp, nil
	}

	program := p.Program()
	vertexShader := program.Vertex()
	vs, err := d.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return nil, fmt.Errorf("create vertex module %s: %w", vertexShader.Key(), err)
	}
	defer vs.Release()

	var fragment *wgpu.FragmentState
	if fragmentShader := program.Fragment(); fragmentShader != nil {
		fs, err := d.device.CreateShaderModule(fragmentShader.Module())
		if err != nil {
			return nil, fmt.Errorf("create fragment module %s: %w", fragmentShader.Key(), err)
		}
		defer fs.Release()
		// No color targets: the fragment stage only exists to satisfy the pipeline.
		fragment = &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
		}
	}

	descriptors := program.BindGroupLayoutDescriptors()
	maxGroup := -1
	for g := range descriptors {
		maxGroup = max(maxGroup, g)
	}
	gp := &gpuPipeline{layouts: make([]*wgpu.BindGroupLayout, maxGroup+1)}
	for g := 0; g <= maxGroup; g++ {
		desc := descriptors[g]
		layout, err := d.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("create bind group layout %d: %w", g, err)
		}
		gp.layouts[g] = layout
	}

	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: gp.layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	gp.render, err = d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey(),
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexShader.VertexLayouts(),
		},
		Fragment: fragment,
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled:   p.DepthWriteEnabled(),
			DepthCompare:        p.DepthCompare(),
			DepthBias:           p.DepthBias(),
			DepthBiasSlopeScale: p.DepthBiasSlopeScale(),
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline %s: %w", p.PipelineKey(), err)
	}

	if len(gp.layouts) > 0 {
		gp.frameGroup, err = d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  p.PipelineKey() + " Transform Bind Group",
			Layout: gp.layouts[0],
			Entries: []wgpu.BindGroupEntry{{
				Binding: 0,
				Buffer:  d.frameUniform,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}},
		})
		if err != nil {
			return nil, fmt.Errorf("create transform bind group: %w", err)
		}
	}

	d.pipelines[p] = gp
	return gp, nil
}

// drawGroup returns the per-draw bind group of gp for slot, growing the slot pool as needed.
func (d *WGPUDevice) drawGroup(p pipeline.Pipeline, gp *gpuPipeline, slot int) (*wgpu.BindGroup, error) {
	if len(gp.layouts) < 2 {
		return nil, nil
	}
	for len(d.drawSlots) <= slot {
		buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("Draw Uniform %d", len(d.drawSlots)),
			Size:  drawUniformSize,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("create draw uniform %d: %w", slot, err)
		}
		d.drawSlots = append(d.drawSlots, buf)
	}
	for len(gp.drawGroups) <= slot {
		gp.drawGroups = append(gp.drawGroups, nil)
	}
	if gp.drawGroups[slot] == nil {
		bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("%s Draw Bind Group %d", p.PipelineKey(), slot),
			Layout: gp.layouts[1],
			Entries: []wgpu.BindGroupEntry{{
				Binding: 0,
				Buffer:  d.drawSlots[slot],
				Offset:  0,
				Size:    wgpu.WholeSize,
			}},
		})
		if err != nil {
			return nil, fmt.Errorf("create draw bind group %d: %w", slot, err)
		}
		gp.drawGroups[slot] = bg
	}
	return gp.drawGroups[slot], nil
}

// replay walks one command list into a command encoder. Passes begin lazily so that
// viewport, scissor and clear commands recorded before the first draw are folded into them.
type replay struct {
	d       *WGPUDevice
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder

	target      *DepthFramebuffer
	clearDepth  float32
	clearQueued bool
	viewport    *Rect
	scissor     *Rect

	transforms [32]float32
	bound      pipeline.Pipeline
	boundGPU   *gpuPipeline
	slot       int
}

func (r *replay) apply(c *Command) error {
	switch c.Kind {
	case CommandSetFramebuffer:
		r.endPass()
		fb, ok := c.Framebuffer.(*DepthFramebuffer)
		if !ok {
			return fmt.Errorf("%w: %T", ErrUnsupportedFramebuffer, c.Framebuffer)
		}
		r.target = fb
		r.clearQueued = false
	case CommandClear:
		if c.ClearMask&ClearDepth != 0 {
			// A clear is a load op, so it needs a fresh pass.
			r.endPass()
			r.clearDepth = c.ClearDepth
			r.clearQueued = true
		}
	case CommandSetViewport:
		rect := c.Rect
		r.viewport = &rect
		if r.pass != nil {
			r.applyViewport()
		}
	case CommandSetScissor:
		rect := c.Rect
		r.scissor = &rect
		if r.pass != nil {
			r.applyScissor()
		}
	case CommandSetProjection:
		copy(r.transforms[:16], c.Matrix[:])
	case CommandSetView:
		copy(r.transforms[16:], c.Matrix[:])
	case CommandSetPipeline:
		gp, err := r.d.realize(c.Pipeline)
		if err != nil {
			return err
		}
		if err := r.beginPass(); err != nil {
			return err
		}
		r.bound, r.boundGPU = c.Pipeline, gp
		r.pass.SetPipeline(gp.render)
		if gp.frameGroup != nil {
			r.pass.SetBindGroup(0, gp.frameGroup, nil)
		}
	case CommandDraw:
		return r.draw(&c.Draw)
	}
	return nil
}

func (r *replay) draw(dc *DrawCall) error {
	if r.boundGPU == nil {
		return ErrNoPipeline
	}
	mesh, ok := dc.Mesh.(*WGPUMesh)
	if !ok || mesh == nil || mesh.vertexBuffer == nil {
		r.d.skipped++
		return nil
	}
	if len(dc.Bones) > MaxBones {
		return fmt.Errorf("%w: item %d has %d, limit %d", ErrTooManyBones, dc.Item, len(dc.Bones), MaxBones)
	}
	if err := r.beginPass(); err != nil {
		return err
	}

	group, err := r.d.drawGroup(r.bound, r.boundGPU, r.slot)
	if err != nil {
		return err
	}
	if group != nil {
		n := copy(r.d.scratch[:16], dc.Transform[:])
		for _, bone := range dc.Bones {
			n += copy(r.d.scratch[n:n+16], bone[:])
		}
		r.d.queue.WriteBuffer(r.d.drawSlots[r.slot], 0, common.SliceToBytes(r.d.scratch[:n]))
		r.pass.SetBindGroup(1, group, nil)
		r.slot++
	}

	r.pass.SetVertexBuffer(0, mesh.vertexBuffer, 0, wgpu.WholeSize)
	r.pass.SetIndexBuffer(mesh.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	r.pass.DrawIndexed(mesh.indexCount, 1, 0, 0, 0)
	return nil
}

func (r *replay) beginPass() error {
	if r.pass != nil {
		return nil
	}
	if r.target == nil {
		return ErrNoFramebuffer
	}
	attachment := &wgpu.RenderPassDepthStencilAttachment{
		View:         r.target.view,
		DepthLoadOp:  wgpu.LoadOpLoad,
		DepthStoreOp: wgpu.StoreOpStore,
	}
	if r.clearQueued {
		attachment.DepthLoadOp = wgpu.LoadOpClear
		attachment.DepthClearValue = r.clearDepth
		r.clearQueued = false
	}
	r.pass = r.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments:       nil,
		DepthStencilAttachment: attachment,
	})
	if r.viewport != nil {
		r.applyViewport()
	}
	if r.scissor != nil {
		r.applyScissor()
	}
	if r.boundGPU != nil {
		r.pass.SetPipeline(r.boundGPU.render)
		if r.boundGPU.frameGroup != nil {
			r.pass.SetBindGroup(0, r.boundGPU.frameGroup, nil)
		}
	}
	return nil
}

func (r *replay) applyViewport() {
	v := r.viewport
	r.pass.SetViewport(float32(v.X), float32(v.Y), float32(v.Width), float32(v.Height), 0, 1)
}

func (r *replay) applyScissor() {
	s := r.scissor
	r.pass.SetScissorRect(uint32(max(s.X, 0)), uint32(max(s.Y, 0)), uint32(max(s.Width, 0)), uint32(max(s.Height, 0)))
}

func (r *replay) endPass() {
	if r.pass == nil {
		return
	}
	r.pass.End()
	r.pass = nil
}

// finish runs a pending clear that no draw consumed and closes the open pass.
func (r *replay) finish() error {
	if r.pass == nil && r.clearQueued && r.target != nil {
		if err := r.beginPass(); err != nil {
			return err
		}
	}
	r.endPass()
	return nil
}
