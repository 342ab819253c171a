// SPDX-License-Identifier: Unlicense OR MIT

package wgpubackend

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/fieldflock/fieldflock/internal/driver"
)

// Program is either a compute or a render pipeline plus the storage
// and uniform buffers bound to it. The bind group is built lazily on
// first dispatch/draw and rebuilt whenever a binding changes, since
// driver.Program's SetStorageBuffer calls happen before the pipeline
// knows it's about to be used.
type Program struct {
	device *wgpu.Device

	compute *wgpu.ComputePipeline
	render  *wgpu.RenderPipeline

	storage             map[int]*Buffer
	vertUniforms, fragUniforms *Buffer

	group     *wgpu.BindGroup
	groupDirty bool
}

func (p *Program) SetStorageBuffer(binding int, buf driver.Buffer) {
	b, _ := buf.(*Buffer)
	p.storage[binding] = b
	p.groupDirty = true
}

func (p *Program) SetVertexUniforms(buf driver.Buffer) {
	p.vertUniforms, _ = buf.(*Buffer)
	p.groupDirty = true
}

func (p *Program) SetFragmentUniforms(buf driver.Buffer) {
	p.fragUniforms, _ = buf.(*Buffer)
	p.groupDirty = true
}

// bindGroup builds (or reuses) the single bind group carrying every
// storage buffer plus the uniform buffer at binding 0. Uniform layout
// slot 0 is reserved for it, matching internal/shaders' WGSL preamble
// (@binding(0) var<uniform> u: Uniforms).
func (p *Program) bindGroup() *wgpu.BindGroup {
	if !p.groupDirty && p.group != nil {
		return p.group
	}
	pipeline := p.compute
	var layout *wgpu.BindGroupLayout
	if pipeline != nil {
		layout = pipeline.GetBindGroupLayout(0)
	} else if p.render != nil {
		layout = p.render.GetBindGroupLayout(0)
	} else {
		return nil
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(p.storage)+1)
	uniforms := p.vertUniforms
	if uniforms == nil {
		uniforms = p.fragUniforms
	}
	if uniforms != nil {
		entries = append(entries, wgpu.BindGroupEntry{Binding: 0, Buffer: uniforms.buf, Size: wgpu.WholeSize})
	}
	for _, binding := range sortedBindings(p.storage) {
		buf := p.storage[binding]
		if buf == nil {
			continue
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(binding + 1), Buffer: buf.buf, Size: wgpu.WholeSize})
	}

	group, err := p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{Layout: layout, Entries: entries})
	if err != nil {
		return p.group
	}
	p.group = group
	p.groupDirty = false
	return group
}

func (p *Program) Release() {
	if p.compute != nil {
		p.compute.Release()
	}
	if p.render != nil {
		p.render.Release()
	}
	if p.group != nil {
		p.group.Release()
	}
}

var _ driver.Program = (*Program)(nil)

// InputLayout records the vertex attribute layout passed at creation;
// the renderer's three draw calls are all instanced full-screen/quad
// passes reading exclusively from storage buffers, so no vertex
// buffer is ever actually bound through it, but the type is kept to
// satisfy driver.Device symmetrically with the render pipeline's
// vertex state.
type InputLayout struct {
	layout []driver.InputDesc
}

func (InputLayout) Release() {}

var _ driver.InputLayout = InputLayout{}
