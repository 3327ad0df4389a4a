package webgpu

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	errNotInitialized = errors.New("webgpu backend not initialized")
	errForeignSurface = errors.New("surface was not created by this backend")
)

// vertexStride is the byte size of one interleaved position + normal vertex.
const vertexStride = 6 * 4

// gpuSurface is an offscreen texture, or the display when display is set. The display
// view is only valid between the first submission to it and EndFrame.
type gpuSurface struct {
	label         string
	width, height int
	display       bool
	released      bool

	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (s *gpuSurface) Label() string { return s.label }
func (s *gpuSurface) Width() int    { return s.width }
func (s *gpuSurface) Height() int   { return s.height }

func (s *gpuSurface) release() {
	if s.view != nil {
		s.view.Release()
		s.view = nil
	}
	if s.texture != nil {
		s.texture.Release()
		s.texture = nil
	}
	s.released = true
}

// gpuProgram holds the GPU objects created for one linked program.
type gpuProgram struct {
	pipeline        *wgpu.RenderPipeline
	bindGroupLayout *wgpu.BindGroupLayout
	uniformBuffer   *wgpu.Buffer

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   uint32

	wirePipeline    *wgpu.RenderPipeline
	lineIndexBuffer *wgpu.Buffer
	lineIndexCount  uint32
}

func (p *gpuProgram) release() {
	for _, buf := range []*wgpu.Buffer{p.uniformBuffer, p.vertexBuffer, p.indexBuffer, p.lineIndexBuffer} {
		if buf != nil {
			buf.Release()
		}
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
	}
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	if p.wirePipeline != nil {
		p.wirePipeline.Release()
	}
}

type wgpuRendererBackendImpl struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	clearColor    wgpu.Color
	forceFallback bool

	sampler  *wgpu.Sampler
	display  *gpuSurface
	surfaces map[*gpuSurface]struct{}
	programs map[string]*gpuProgram
	depth    map[[2]int]*gpuSurface

	initialized bool
	initErr     error

	// per-frame state
	inFrame      bool
	frameSurface *wgpu.Texture
	frames       uint64
}

// Backend is the WebGPU implementation of renderer.RendererBackend. Offscreen surfaces are
// textures in the swapchain format so one pipeline per program serves every target.
// Each SubmitPass records and submits its own command buffer, so uniform writes for
// repeated programs land in submission order.
type Backend interface {
	renderer.RendererBackend

	// Err returns the error that left the backend uninitialized, if any.
	//
	// Returns:
	//   - error: the initialization error, or nil
	Err() error

	// ConfigureSurface reconfigures the swapchain. Called by Resize and at construction.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	Device() *wgpu.Device
	Queue() *wgpu.Queue
	Adapter() *wgpu.Adapter
	Surface() *wgpu.Surface
}

var _ Backend = &wgpuRendererBackendImpl{}

// NewBackend acquires an adapter and device for the given window surface and configures
// the swapchain. Failures leave the backend uninitialized with the cause in Err(), so the
// render loop can refuse to start instead of crashing here.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, e.g. from wgpuglfw.GetSurfaceDescriptor
//   - width: initial framebuffer width in pixels
//   - height: initial framebuffer height in pixels
//   - options: functional options to configure the backend
//
// Returns:
//   - Backend: the backend, initialized or not
func NewBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...BackendBuilderOption) Backend {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		presentMode: wgpu.PresentModeFifo,
		clearColor:  wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		surfaces:    make(map[*gpuSurface]struct{}),
		programs:    make(map[string]*gpuProgram),
		depth:       make(map[[2]int]*gpuSurface),
		display:     &gpuSurface{label: "display", display: true},
	}
	for _, opt := range options {
		opt(b)
	}

	if err := b.init(surfaceDescriptor, width, height); err != nil {
		b.initErr = err
		common.Logger().Error("webgpu backend unavailable", "error", err)
		return b
	}
	b.initialized = true
	return b
}

func (b *wgpuRendererBackendImpl) init(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int) error {
	if surfaceDescriptor == nil {
		return errors.New("no surface descriptor")
	}
	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallback,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	b.sampler, err = d.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Linear Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}

	b.configureSurface(width, height)
	return nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configureSurface(width, height)
}

func (b *wgpuRendererBackendImpl) configureSurface(width, height int) {
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.display.width, b.display.height = width, height

	for key, d := range b.depth {
		d.release()
		delete(b.depth, key)
	}
}

func (b *wgpuRendererBackendImpl) Initialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized
}

func (b *wgpuRendererBackendImpl) Err() error {
	return b.initErr
}

func (b *wgpuRendererBackendImpl) CreateSurface(label string, width, height int) (renderer.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface %q: invalid size %dx%d", label, width, height)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil, errNotInitialized
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        b.surfaceFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("surface %q: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("surface %q view: %w", label, err)
	}

	s := &gpuSurface{label: label, width: width, height: height, texture: tex, view: view}
	b.surfaces[s] = struct{}{}
	return s, nil
}

func (b *wgpuRendererBackendImpl) ReleaseSurface(s renderer.Surface) {
	gs, ok := s.(*gpuSurface)
	if !ok || gs.display {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, live := b.surfaces[gs]; !live {
		return
	}
	gs.release()
	delete(b.surfaces, gs)
}

func (b *wgpuRendererBackendImpl) DisplaySurface() renderer.Surface {
	return b.display
}

func (b *wgpuRendererBackendImpl) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", width, height)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return errNotInitialized
	}
	b.configureSurface(width, height)
	return nil
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode renderer.PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case renderer.PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case renderer.PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) LinkProgram(p renderer.Program, layout renderer.UniformLayout) error {
	src, ok := renderer.WGSLModule(p, layout)
	if !ok {
		return fmt.Errorf("%w: %q has no WGSL fragment stage", renderer.ErrUnsupportedProgram, p.Key())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return errNotInitialized
	}

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: p.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: src,
		},
	})
	if err != nil {
		return fmt.Errorf("shader module: %w", err)
	}
	defer module.Release()

	gp := &gpuProgram{}
	gp.bindGroupLayout, err = b.device.CreateBindGroupLayout(bindGroupLayoutDescriptor(p))
	if err != nil {
		return fmt.Errorf("bind group layout: %w", err)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.Key(),
		BindGroupLayouts: []*wgpu.BindGroupLayout{gp.bindGroupLayout},
	})
	if err != nil {
		gp.release()
		return fmt.Errorf("pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.Key() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	if g, ok := p.(renderer.Geometry); ok {
		if err := b.initMeshBuffers(gp, p.Key(), g); err != nil {
			gp.release()
			return err
		}
		desc.Vertex.Buffers = []wgpu.VertexBufferLayout{
			{
				ArrayStride: vertexStride,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
				},
			},
		}
		desc.Primitive.CullMode = wgpu.CullModeBack
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	gp.pipeline, err = b.device.CreateRenderPipeline(desc)
	if err != nil {
		gp.release()
		return fmt.Errorf("render pipeline: %w", err)
	}

	if _, ok := p.(renderer.Wireframe); ok && gp.indexCount > 0 {
		desc.Label = p.Key() + " Wireframe Pipeline"
		desc.Primitive.Topology = wgpu.PrimitiveTopologyLineList
		desc.Primitive.CullMode = wgpu.CullModeNone
		gp.wirePipeline, err = b.device.CreateRenderPipeline(desc)
		if err != nil {
			gp.release()
			return fmt.Errorf("wireframe pipeline: %w", err)
		}
	}

	gp.uniformBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: p.Key() + " Params",
		Size:  uint64(layout.Size),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		gp.release()
		return fmt.Errorf("uniform buffer: %w", err)
	}

	if old, exists := b.programs[p.Key()]; exists {
		old.release()
	}
	b.programs[p.Key()] = gp
	return nil
}

// bindGroupLayoutDescriptor lays out binding 0 as the Params block, binding 1 as the
// linear sampler and one float texture per program input from binding 2.
func bindGroupLayoutDescriptor(p renderer.Program) *wgpu.BindGroupLayoutDescriptor {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, 2+len(p.Inputs()))

	params := wgpu.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
	params.Buffer.Type = wgpu.BufferBindingTypeUniform
	entries = append(entries, params)

	sampler := wgpu.BindGroupLayoutEntry{
		Binding:    1,
		Visibility: wgpu.ShaderStageFragment,
	}
	sampler.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	entries = append(entries, sampler)

	for i := range p.Inputs() {
		tex := wgpu.BindGroupLayoutEntry{
			Binding:    renderer.TextureBinding(i),
			Visibility: wgpu.ShaderStageFragment,
		}
		tex.Texture.SampleType = wgpu.TextureSampleTypeFloat
		tex.Texture.ViewDimension = wgpu.TextureViewDimension2D
		entries = append(entries, tex)
	}

	return &wgpu.BindGroupLayoutDescriptor{
		Label:   p.Key() + " Bind Group Layout",
		Entries: entries,
	}
}

func (b *wgpuRendererBackendImpl) initMeshBuffers(gp *gpuProgram, label string, g renderer.Geometry) error {
	vertices, indices := g.Vertices(), g.Indices()
	if len(vertices) == 0 || len(indices) == 0 {
		return fmt.Errorf("program %q: empty geometry", label)
	}

	vertexData := common.SliceToBytes(vertices)
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label + " Vertex Buffer",
		Size:             uint64(len(vertexData)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return err
	}
	b.queue.WriteBuffer(buf, 0, vertexData)
	gp.vertexBuffer = buf

	indexData := common.SliceToBytes(indices)
	buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label + " Index Buffer",
		Size:             uint64(len(indexData)),
		Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return err
	}
	b.queue.WriteBuffer(buf, 0, indexData)
	gp.indexBuffer = buf
	gp.indexCount = uint32(len(indices))

	if _, ok := g.(renderer.Wireframe); !ok {
		return nil
	}
	lines := renderer.LineIndices(indices)
	lineData := common.SliceToBytes(lines)
	buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Line Index Buffer",
		Size:  uint64(len(lineData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	b.queue.WriteBuffer(buf, 0, lineData)
	gp.lineIndexBuffer = buf
	gp.lineIndexCount = uint32(len(lines))
	return nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return errNotInitialized
	}
	if b.inFrame || b.frameSurface != nil {
		// the previous frame failed before EndFrame; drop it unpresented
		common.Logger().Warn("discarding unfinished frame", "frame", b.frames)
		b.discardFrame()
	}
	b.inFrame = true
	b.frames++
	return nil
}

// acquireDisplay fetches the swapchain texture the first time the display is targeted in a frame.
func (b *wgpuRendererBackendImpl) acquireDisplay() error {
	if b.frameSurface != nil {
		return nil
	}
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	b.frameSurface = surfaceTexture
	b.display.view = view
	return nil
}

// depthView returns a cached depth attachment for targets of the given size.
func (b *wgpuRendererBackendImpl) depthView(width, height int) (*wgpu.TextureView, error) {
	key := [2]int{width, height}
	if d, ok := b.depth[key]; ok {
		return d.view, nil
	}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	b.depth[key] = &gpuSurface{label: "depth", width: width, height: height, texture: tex, view: view}
	return view, nil
}

func (b *wgpuRendererBackendImpl) SubmitPass(p renderer.Program, layout renderer.UniformLayout, inputs []renderer.Surface, target renderer.Surface, values renderer.UniformReader) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return errNotInitialized
	}
	if !b.inFrame {
		return errors.New("SubmitPass called outside BeginFrame/EndFrame")
	}
	gp, ok := b.programs[p.Key()]
	if !ok {
		return fmt.Errorf("%w: %q was not linked by this backend", renderer.ErrProgramNotFound, p.Key())
	}
	dst, ok := target.(*gpuSurface)
	if !ok {
		return fmt.Errorf("target %q: %w", target.Label(), errForeignSurface)
	}
	if dst.released {
		return fmt.Errorf("target %q was released", dst.label)
	}
	if dst.display {
		if err := b.acquireDisplay(); err != nil {
			return fmt.Errorf("acquire display: %w", err)
		}
	}

	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: gp.uniformBuffer, Offset: 0, Size: wgpu.WholeSize},
		{Binding: 1, Sampler: b.sampler},
	}
	for i, in := range inputs {
		src, ok := in.(*gpuSurface)
		if !ok {
			return fmt.Errorf("input %d: %w", i, errForeignSurface)
		}
		if src.display {
			return fmt.Errorf("program %q samples the display surface", p.Key())
		}
		if src == dst {
			return fmt.Errorf("program %q reads and writes %q in the same pass", p.Key(), dst.label)
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: renderer.TextureBinding(i), TextureView: src.view})
	}

	b.queue.WriteBuffer(gp.uniformBuffer, 0, common.SliceToBytes(layout.Pack(values)))

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.Key() + " Bind Group",
		Layout:  gp.bindGroupLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	clearValue := wgpu.Color{}
	if gp.indexCount > 0 {
		clearValue = b.clearColor
	}
	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       dst.view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: clearValue,
			},
		},
	}
	if gp.indexCount > 0 {
		depth, err := b.depthView(dst.width, dst.height)
		if err != nil {
			return fmt.Errorf("depth attachment: %w", err)
		}
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depth,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		}
	}

	wire := false
	if w, ok := p.(renderer.Wireframe); ok && gp.wirePipeline != nil {
		wire = w.Wireframe()
	}

	pass := encoder.BeginRenderPass(desc)
	if wire {
		pass.SetPipeline(gp.wirePipeline)
	} else {
		pass.SetPipeline(gp.pipeline)
	}
	pass.SetBindGroup(0, bindGroup, nil)
	switch {
	case wire:
		pass.SetVertexBuffer(0, gp.vertexBuffer, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(gp.lineIndexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(gp.lineIndexCount, 1, 0, 0, 0)
	case gp.indexCount > 0:
		pass.SetVertexBuffer(0, gp.vertexBuffer, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(gp.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(gp.indexCount, 1, 0, 0, 0)
	default:
		pass.Draw(3, 1, 0, 0)
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish %q: %w", p.Key(), err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

// discardFrame releases the acquired swapchain texture without presenting it.
func (b *wgpuRendererBackendImpl) discardFrame() {
	if b.display.view != nil {
		b.display.view.Release()
		b.display.view = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
	b.inFrame = false
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inFrame {
		return errors.New("EndFrame called without BeginFrame")
	}
	b.inFrame = false

	// nothing targeted the display this frame
	if b.frameSurface == nil {
		return nil
	}

	b.surface.Present()

	if b.display.view != nil {
		b.display.view.Release()
		b.display.view = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
	return nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s := range b.surfaces {
		s.release()
	}
	clear(b.surfaces)
	for key, p := range b.programs {
		p.release()
		delete(b.programs, key)
	}
	for key, d := range b.depth {
		d.release()
		delete(b.depth, key)
	}
	if b.sampler != nil {
		b.sampler.Release()
		b.sampler = nil
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
	b.initialized = false
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) Adapter() *wgpu.Adapter {
	return b.adapter
}

func (b *wgpuRendererBackendImpl) Surface() *wgpu.Surface {
	return b.surface
}
