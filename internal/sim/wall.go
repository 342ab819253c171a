// SPDX-License-Identifier: Unlicense OR MIT

package sim

import "github.com/fieldflock/fieldflock/internal/config"

// wallDimensions returns the R8 wall mask's texel size for a canvas:
// one texel per WallScale simulation units, ceiling-rounded so the
// mask always covers the full canvas.
func wallDimensions(width, height float32) (w, h int) {
	w = int(width) / config.WallScale
	if int(width)%config.WallScale != 0 {
		w++
	}
	h = int(height) / config.WallScale
	if int(height)%config.WallScale != 0 {
		h++
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// WallMask is the host-side twin of the R8 texture the flocking kernel
// samples for avoidance and the renderer draws as a painted obstacle
// layer: a dense byte-per-texel mask where a higher value means more
// solid.
type WallMask struct {
	Width, Height int
	Pixels        []byte
}

// NewWallMask allocates a zeroed mask sized for the given canvas.
func NewWallMask(width, height float32) *WallMask {
	w, h := wallDimensions(width, height)
	return &WallMask{Width: w, Height: h, Pixels: make([]byte, w*h)}
}

// PaintDisc sets every texel within radius (in simulation units) of
// (cx, cy) to value, the host-side tool the optional obstacle-painting
// UI uses before re-uploading the mask (config.DirtyWall).
func (m *WallMask) PaintDisc(cx, cy, radius float32, value byte) {
	texelRadius := radius / config.WallScale
	cxTex := cx / config.WallScale
	cyTex := cy / config.WallScale
	r2 := texelRadius * texelRadius
	minX, maxX := clampInt(int(cxTex-texelRadius), 0, m.Width-1), clampInt(int(cxTex+texelRadius), 0, m.Width-1)
	minY, maxY := clampInt(int(cyTex-texelRadius), 0, m.Height-1), clampInt(int(cyTex+texelRadius), 0, m.Height-1)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := float32(x) - cxTex
			dy := float32(y) - cyTex
			if dx*dx+dy*dy <= r2 {
				m.Pixels[y*m.Width+x] = value
			}
		}
	}
}

// Clear resets every texel to zero (no obstacle).
func (m *WallMask) Clear() {
	for i := range m.Pixels {
		m.Pixels[i] = 0
	}
}
