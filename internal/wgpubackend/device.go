// SPDX-License-Identifier: Unlicense OR MIT

// Package wgpubackend is the production internal/driver.Device,
// backed by github.com/cogentcore/webgpu/wgpu (a cgo binding over
// wgpu-native) with a GLFW-opened window supplying the native surface.
package wgpubackend

import (
	"fmt"
	"image"
	"runtime"
	"sort"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/fieldflock/fieldflock/internal/driver"
	"github.com/fieldflock/fieldflock/internal/shaders"
)

func init() {
	// wgpu-native and GLFW both require calls to originate from the
	// thread that created the window.
	runtime.LockOSThread()
}

// Device owns the GLFW window, WebGPU instance/adapter/device/queue,
// and the current frame's render target. It implements
// internal/driver.Device.
type Device struct {
	Window *glfw.Window

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	width, height int

	bound      *Program
	encoder    *wgpu.CommandEncoder
	clearColor wgpu.Color
}

// New opens a width x height GLFW window titled title, and acquires a
// WebGPU adapter/device against it. Adapter acquisition is retried up
// to three times with a growing delay; when GLFW, the adapter or the
// device still cannot be acquired, it returns an error wrapping the
// cause.
func New(width, height int, title string) (*Device, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("wgpubackend: glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("wgpubackend: create window: %w", err)
	}

	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(glfwSurfaceDescriptor(window))

	opts := &wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	}
	adapter, err := instance.RequestAdapter(opts)
	for retry := 1; err != nil && retry <= 3; retry++ {
		time.Sleep(time.Duration(retry) * 100 * time.Millisecond)
		adapter, err = instance.RequestAdapter(opts)
	}
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("wgpubackend: no compatible adapter: %w", err)
	}

	dev, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "fieldflock"})
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("wgpubackend: device creation failed: %w", err)
	}

	caps := surface.GetCapabilities(adapter)
	format := wgpu.TextureFormatBGRA8UnormSrgb
	if len(caps.Formats) > 0 {
		format = caps.Formats[0]
	}
	surface.Configure(adapter, dev, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   wgpu.CompositeAlphaModeAuto,
	})

	return &Device{
		Window: window, instance: instance, adapter: adapter, device: dev,
		queue: dev.GetQueue(), surface: surface,
		surfaceFormat: format, width: width, height: height,
	}, nil
}

func (d *Device) Resize(width, height int) {
	d.width, d.height = width, height
	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage: wgpu.TextureUsageRenderAttachment, Format: d.surfaceFormat,
		Width: uint32(width), Height: uint32(height),
		PresentMode: wgpu.PresentModeFifo, AlphaMode: wgpu.CompositeAlphaModeAuto,
	})
}

func (d *Device) BeginFrame(target driver.RenderTarget, clear bool, viewport image.Point) driver.Framebuffer {
	tex, view, err := d.surface.GetCurrentTexture()
	if err != nil {
		return nil
	}
	d.encoder, _ = d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "frame"})
	return &Framebuffer{surfaceTexture: tex, view: view, width: d.width, height: d.height}
}

func (d *Device) EndFrame() {
	if d.encoder == nil {
		return
	}
	cmd, _ := d.encoder.Finish(nil)
	d.queue.Submit(cmd)
	d.surface.Present()
	d.encoder.Release()
	d.encoder = nil
}

func (d *Device) Caps() driver.Caps {
	return driver.Caps{
		Features:       driver.FeatureCompute | driver.FeatureTimers,
		MaxTextureSize: 8192,
	}
}

func (d *Device) NewTimer() driver.Timer { return newTimer(d.device) }
func (d *Device) IsTimeContinuous() bool { return false }

func (d *Device) NewTexture(format driver.TextureFormat, width, height int, minFilter, magFilter driver.TextureFilter, bindings driver.BufferBinding) (driver.Texture, error) {
	usage := wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst
	if bindings&driver.BufferBindingFramebuffer != 0 {
		usage |= wgpu.TextureUsageStorageBinding
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "texture",
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        toWGPUFormat(format),
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: create texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: texture view: %w", err)
	}
	return &Texture{tex: tex, view: view, queue: d.queue, format: format, width: width, height: height}, nil
}

func (d *Device) NewFramebuffer(tex driver.Texture) (driver.Framebuffer, error) {
	t, ok := tex.(*Texture)
	if !ok {
		return nil, fmt.Errorf("wgpubackend: not a wgpubackend.Texture")
	}
	return &Framebuffer{view: t.view, width: t.width, height: t.height}, nil
}

func (d *Device) NewImmutableBuffer(typ driver.BufferBinding, data []byte) (driver.Buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "immutable", Size: uint64(len(data)), Usage: toWGPUUsage(typ) | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: create buffer: %w", err)
	}
	d.queue.WriteBuffer(buf, 0, data)
	return &Buffer{buf: buf, queue: d.queue, size: len(data)}, nil
}

func (d *Device) NewBuffer(typ driver.BufferBinding, size int) (driver.Buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "buffer", Size: uint64(size), Usage: toWGPUUsage(typ) | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: create buffer: %w", err)
	}
	return &Buffer{buf: buf, queue: d.queue, device: d.device, size: size}, nil
}

func (d *Device) NewComputeProgram(src shaders.Source) (driver.Program, error) {
	mod, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          src.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.WGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: compile %s: %w", src.Label, err)
	}
	defer mod.Release()
	pipeline, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   src.Label,
		Compute: wgpu.ProgrammableStageDescriptor{Module: mod, EntryPoint: src.Compute},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: pipeline %s: %w", src.Label, err)
	}
	return &Program{device: d.device, compute: pipeline, storage: make(map[int]*Buffer)}, nil
}

func (d *Device) NewProgram(vertexShader, fragmentShader shaders.Source) (driver.Program, error) {
	vmod, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: vertexShader.Label, WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: vertexShader.WGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: compile %s: %w", vertexShader.Label, err)
	}
	defer vmod.Release()
	fmod, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: fragmentShader.Label, WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: fragmentShader.WGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: compile %s: %w", fragmentShader.Label, err)
	}
	defer fmod.Release()

	pipeline, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:   vertexShader.Label + "/" + fragmentShader.Label,
		Vertex:  wgpu.VertexState{Module: vmod, EntryPoint: vertexShader.Vertex},
		Fragment: &wgpu.FragmentState{
			Module: fmod, EntryPoint: fragmentShader.Fragment,
			Targets: []wgpu.ColorTargetState{{Format: d.surfaceFormat, WriteMask: wgpu.ColorWriteMaskAll, Blend: &wgpu.BlendState{
				Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
				Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
			}}},
		},
		Primitive: wgpu.PrimitiveState{Topology: wgpu.PrimitiveTopologyTriangleList},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: render pipeline: %w", err)
	}
	return &Program{device: d.device, render: pipeline, storage: make(map[int]*Buffer)}, nil
}

func (d *Device) NewInputLayout(vertexShader shaders.Source, layout []driver.InputDesc) (driver.InputLayout, error) {
	return InputLayout{layout: layout}, nil
}

func (d *Device) Clear(r, g, b, a float32)                { d.clearColor = wgpu.Color{R: float64(r), G: float64(g), B: float64(b), A: float64(a)} }
func (d *Device) Viewport(x, y, width, height int)        {}
func (d *Device) SetBlend(enable bool)                    {}
func (d *Device) BlendFunc(sfactor, dfactor driver.BlendFactor) {}
func (d *Device) BindInputLayout(i driver.InputLayout)    {}
func (d *Device) BindFramebuffer(f driver.Framebuffer)    {}
func (d *Device) BindTexture(unit int, t driver.Texture)  {}
func (d *Device) BindVertexBuffer(b driver.Buffer, stride, offset int) {}
func (d *Device) BindImageTexture(unit int, texture driver.Texture, access driver.AccessBits, format driver.TextureFormat) {
}

func (d *Device) BindProgram(p driver.Program) { d.bound, _ = p.(*Program) }

func (d *Device) MemoryBarrier() {}

func (d *Device) DrawArrays(mode driver.DrawMode, off, count int) {
	d.drawInstanced(mode, off, count, 1)
}

func (d *Device) DrawArraysInstanced(mode driver.DrawMode, off, count, instances int) {
	d.drawInstanced(mode, off, count, instances)
}

func (d *Device) drawInstanced(mode driver.DrawMode, off, count, instances int) {
	if d.bound == nil || d.bound.render == nil || d.encoder == nil {
		return
	}
	pass, err := d.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			LoadOp: wgpu.LoadOpLoad, StoreOp: wgpu.StoreOpStore, ClearValue: d.clearColor,
		}},
	})
	if err != nil {
		return
	}
	pass.SetPipeline(d.bound.render)
	if bg := d.bound.bindGroup(); bg != nil {
		pass.SetBindGroup(0, bg, nil)
	}
	pass.Draw(uint32(count), uint32(instances), uint32(off), 0)
	pass.End()
}

func (d *Device) Release() {
	if d.device != nil {
		d.device.Release()
	}
	if d.surface != nil {
		d.surface.Release()
	}
	if d.adapter != nil {
		d.adapter.Release()
	}
	if d.instance != nil {
		d.instance.Release()
	}
	if d.Window != nil {
		d.Window.Destroy()
	}
	glfw.Terminate()
}

func (d *Device) DispatchCompute(x, y, z int) {
	if d.bound == nil || d.bound.compute == nil {
		return
	}
	encoder := d.encoder
	owned := false
	if encoder == nil {
		encoder, _ = d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "compute"})
		owned = true
	}
	pass, err := encoder.BeginComputePass(nil)
	if err != nil {
		return
	}
	pass.SetPipeline(d.bound.compute)
	if bg := d.bound.bindGroup(); bg != nil {
		pass.SetBindGroup(0, bg, nil)
	}
	pass.DispatchWorkgroups(uint32(x), uint32(y), uint32(z))
	pass.End()
	if owned {
		cmd, _ := encoder.Finish(nil)
		d.queue.Submit(cmd)
		encoder.Release()
	}
}

var _ driver.Device = (*Device)(nil)

func toWGPUUsage(typ driver.BufferBinding) wgpu.BufferUsage {
	var usage wgpu.BufferUsage
	if typ&driver.BufferBindingIndices != 0 {
		usage |= wgpu.BufferUsageIndex
	}
	if typ&driver.BufferBindingVertices != 0 {
		usage |= wgpu.BufferUsageVertex
	}
	if typ&driver.BufferBindingUniforms != 0 {
		usage |= wgpu.BufferUsageUniform
	}
	if typ&driver.BufferBindingShaderStorage != 0 {
		usage |= wgpu.BufferUsageStorage
	}
	return usage
}

func toWGPUFormat(format driver.TextureFormat) wgpu.TextureFormat {
	switch format {
	case driver.TextureFormatR8:
		return wgpu.TextureFormatR8Unorm
	case driver.TextureFormatRGBA8:
		return wgpu.TextureFormatRGBA8Unorm
	default:
		return wgpu.TextureFormatRGBA8UnormSrgb
	}
}

func sortedBindings(m map[int]*Buffer) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
