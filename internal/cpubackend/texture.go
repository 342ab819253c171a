// SPDX-License-Identifier: Unlicense OR MIT

package cpubackend

import (
	"image"

	"github.com/fieldflock/fieldflock/internal/driver"
)

// Texture is a dense byte buffer standing in for a GPU texture; format
// is advisory only (the CPU path never samples it through a shader,
// only through internal/sim's own Go helpers).
type Texture struct {
	Format        driver.TextureFormat
	Width, Height int
	Pixels        []byte
}

func (t *Texture) Upload(offset, size image.Point, pixels []byte, stride int) {
	bpp := 1
	if t.Format == driver.TextureFormatRGBA8 || t.Format == driver.TextureFormatSRGBA {
		bpp = 4
	}
	for y := 0; y < size.Y; y++ {
		srcRow := pixels[y*stride : y*stride+size.X*bpp]
		dstOff := ((offset.Y+y)*t.Width + offset.X) * bpp
		copy(t.Pixels[dstOff:dstOff+len(srcRow)], srcRow)
	}
}

func (t *Texture) Release() { t.Pixels = nil }

var _ driver.Texture = (*Texture)(nil)

// Framebuffer is the CPU path's render target: an RGBA8 pixel buffer
// the render passes would draw into, were this backend asked to
// rasterize rather than just dispatch compute. Clear and the draw calls
// are no-ops on this backend, so ReadPixels only ever returns the
// buffer's initial zeroed pixels.
type Framebuffer struct {
	Width, Height int
	Pixels        []byte
}

func (f *Framebuffer) implementsRenderTarget() {}
func (f *Framebuffer) Invalidate()             {}
func (f *Framebuffer) Release()                { f.Pixels = nil }

func (f *Framebuffer) ReadPixels(src image.Rectangle, pixels []byte) error {
	copy(pixels, f.Pixels)
	return nil
}

var _ driver.Framebuffer = (*Framebuffer)(nil)
