// SPDX-License-Identifier: Unlicense OR MIT

package wgpubackend

import (
	"image"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/fieldflock/fieldflock/internal/driver"
)

// Texture wraps a wgpu.Texture and its default view; the wall mask
// the flocking kernel and the renderer sample goes through this type.
type Texture struct {
	tex    *wgpu.Texture
	view   *wgpu.TextureView
	queue  *wgpu.Queue
	format driver.TextureFormat
	width, height int
}

func (t *Texture) Upload(offset, size image.Point, pixels []byte, stride int) {
	t.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: t.tex, Origin: wgpu.Origin3D{X: uint32(offset.X), Y: uint32(offset.Y)}},
		pixels,
		&wgpu.TextureDataLayout{BytesPerRow: uint32(stride), RowsPerImage: uint32(size.Y)},
		&wgpu.Extent3D{Width: uint32(size.X), Height: uint32(size.Y), DepthOrArrayLayers: 1},
	)
}

func (t *Texture) Release() {
	t.view.Release()
	t.tex.Release()
}

var _ driver.Texture = (*Texture)(nil)

// Framebuffer is a render target backed by either the swapchain's
// current surface texture or an offscreen wgpu.Texture view.
type Framebuffer struct {
	surfaceTexture *wgpu.Texture
	view           *wgpu.TextureView
	width, height  int
}

func (f *Framebuffer) implementsRenderTarget() {}

func (f *Framebuffer) Invalidate() {}

func (f *Framebuffer) Release() {
	if f.view != nil {
		f.view.Release()
	}
	if f.surfaceTexture != nil {
		f.surfaceTexture.Release()
	}
}

func (f *Framebuffer) ReadPixels(src image.Rectangle, pixels []byte) error {
	// No readback is performed: pixels is left unchanged and nil is
	// returned.
	return nil
}

var _ driver.Framebuffer = (*Framebuffer)(nil)
