// SPDX-License-Identifier: Unlicense OR MIT

// Package driver abstracts the GPU operations the simulation core needs
// so that the compute/render orchestration in internal/sim never talks
// to a concrete graphics API directly. internal/wgpubackend is the
// production implementation, backed by WebGPU.
package driver

import (
	"errors"
	"image"
	"time"

	"github.com/fieldflock/fieldflock/internal/shaders"
)

// Device represents the abstraction of the underlying GPU API (WebGPU in
// production) that the simulation's compute passes and render pass run
// against.
type Device interface {
	BeginFrame(target RenderTarget, clear bool, viewport image.Point) Framebuffer
	EndFrame()
	Caps() Caps
	NewTimer() Timer
	// IsTimeContinuous reports whether all timer measurements are valid
	// at the point of call.
	IsTimeContinuous() bool

	NewTexture(format TextureFormat, width, height int, minFilter, magFilter TextureFilter, bindings BufferBinding) (Texture, error)
	NewFramebuffer(tex Texture) (Framebuffer, error)
	NewImmutableBuffer(typ BufferBinding, data []byte) (Buffer, error)
	NewBuffer(typ BufferBinding, size int) (Buffer, error)
	NewComputeProgram(src shaders.Source) (Program, error)
	NewProgram(vertexShader, fragmentShader shaders.Source) (Program, error)
	NewInputLayout(vertexShader shaders.Source, layout []InputDesc) (InputLayout, error)

	Clear(r, g, b, a float32)
	Viewport(x, y, width, height int)
	DrawArrays(mode DrawMode, off, count int)
	DrawArraysInstanced(mode DrawMode, off, count, instances int)
	SetBlend(enable bool)
	BlendFunc(sfactor, dfactor BlendFactor)

	BindInputLayout(i InputLayout)
	BindProgram(p Program)
	BindFramebuffer(f Framebuffer)
	BindTexture(unit int, t Texture)
	BindVertexBuffer(b Buffer, stride, offset int)
	BindImageTexture(unit int, texture Texture, access AccessBits, format TextureFormat)

	MemoryBarrier()
	DispatchCompute(x, y, z int)

	Release()
}

// RenderTarget is the destination of a render pass: typically the
// window's current swapchain view.
type RenderTarget interface {
	implementsRenderTarget()
}

// InputDesc describes a vertex attribute as laid out in a Buffer.
type InputDesc struct {
	Type   DataType
	Size   int
	Offset int
}

// InputLayout is the driver specific representation of the mapping
// between Buffers and shader attributes.
type InputLayout interface {
	Release()
}

type AccessBits uint8

type BlendFactor uint8

type DrawMode uint8

type DataType uint8

type TextureFilter uint8
type TextureFormat uint8

type BufferBinding uint8

type Features uint

type Caps struct {
	Features       Features
	MaxTextureSize int
}

type Program interface {
	Release()
	SetStorageBuffer(binding int, buf Buffer)
	SetVertexUniforms(buf Buffer)
	SetFragmentUniforms(buf Buffer)
}

type Buffer interface {
	Release()
	Upload(data []byte)
	Download(data []byte) error
}

type Framebuffer interface {
	RenderTarget
	Invalidate()
	Release()
	ReadPixels(src image.Rectangle, pixels []byte) error
}

type Timer interface {
	Begin()
	End()
	Duration() (time.Duration, bool)
	Release()
}

type Texture interface {
	Upload(offset, size image.Point, pixels []byte, stride int)
	Release()
}

const (
	BufferBindingIndices BufferBinding = 1 << iota
	BufferBindingVertices
	BufferBindingUniforms
	BufferBindingTexture
	BufferBindingFramebuffer
	BufferBindingShaderStorage
)

const (
	TextureFormatSRGBA TextureFormat = iota
	TextureFormatR8
	TextureFormatRGBA8
)

const (
	AccessRead AccessBits = 1 + iota
	AccessWrite
)

const (
	FilterNearest TextureFilter = iota
	FilterLinear
)

const (
	FeatureTimers Features = 1 << iota
	FeatureCompute
	FeatureSRGB
)

const (
	DataTypeFloat DataType = iota
	DataTypeUint
)

const (
	DrawModeTriangleStrip DrawMode = iota
	DrawModeTriangles
)

const (
	BlendFactorOne BlendFactor = iota
	BlendFactorOneMinusSrcAlpha
	BlendFactorZero
	BlendFactorDstColor
)

// ErrContentLost is returned from Buffer.Download when the device was
// lost and the contents can no longer be retrieved; the caller should
// tear down and reinitialize rather than retry the same buffer.
var ErrContentLost = errors.New("driver: buffer content lost")

func (f Features) Has(feats Features) bool {
	return f&feats == feats
}

// DownloadImage reads a framebuffer's pixels into a fresh image.RGBA.
// It exists for test harnesses; the steady-state frame loop never
// calls it.
func DownloadImage(d Device, f Framebuffer, r image.Rectangle) (*image.RGBA, error) {
	img := image.NewRGBA(r)
	if err := f.ReadPixels(r, img.Pix); err != nil {
		return nil, err
	}
	return img, nil
}
