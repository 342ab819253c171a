// SPDX-License-Identifier: Unlicense OR MIT

package config

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// uniformSlots is the number of 4-byte words in the fixed uniform
// block. 64 slots * 4 bytes = UniformSize, matching spec.md §6.
const uniformSlots = 64

// UniformSize is the fixed byte size of the uniform block every kernel
// binds. Changing the slot table below must never change this value.
const UniformSize = uniformSlots * 4

// slot indices, in declaration order. This table is the single source
// of truth for the uniform block layout: Uniforms.Bytes packs it,
// WGSLUniformsBlock renders the matching WGSL struct, and every kernel
// source in internal/shaders is prepended with that same text.
const (
	slotWidth = iota
	slotHeight
	slotCellSize
	slotGridW
	slotGridH
	slotBoidCount
	slotTrailLength
	slotTrailHead
	slotAlignment
	slotCohesion
	slotSeparation
	slotPerception
	slotMaxSpeed
	slotMaxForce
	slotNoise
	slotRebels
	slotBoundaryMode
	slotCursorMode
	slotCursorShape
	slotCursorVortex
	slotCursorForce
	slotCursorRadius
	slotCursorX
	slotCursorY
	slotCursorPressed
	slotCursorActive
	slotBoidSize
	slotColorMode
	slotColorSpectrum
	slotSensitivity
	slotDeltaTime
	slotTime
	slotFrameCount
	slotTimeScale
	slotSaturationSource
	slotBrightnessSource
	slotSpectralMode
	slotReducedWidth
	slotTotalSlots
	slotGlobalCollision
	slotFineGrid
	slotCurveEnabled
	numUsedSlots
)

type uniformField struct {
	slot int
	name string
	wgsl string // "f32" or "u32"
}

// uniformLayout enumerates every named slot, in order, for the WGSL
// generator. Slots at or beyond numUsedSlots are reserved padding.
var uniformLayout = []uniformField{
	{slotWidth, "width", "f32"},
	{slotHeight, "height", "f32"},
	{slotCellSize, "cell_size", "f32"},
	{slotGridW, "grid_w", "u32"},
	{slotGridH, "grid_h", "u32"},
	{slotBoidCount, "boid_count", "u32"},
	{slotTrailLength, "trail_length", "u32"},
	{slotTrailHead, "trail_head", "u32"},
	{slotAlignment, "alignment", "f32"},
	{slotCohesion, "cohesion", "f32"},
	{slotSeparation, "separation", "f32"},
	{slotPerception, "perception", "f32"},
	{slotMaxSpeed, "max_speed", "f32"},
	{slotMaxForce, "max_force", "f32"},
	{slotNoise, "noise", "f32"},
	{slotRebels, "rebels", "f32"},
	{slotBoundaryMode, "boundary_mode", "u32"},
	{slotCursorMode, "cursor_mode", "u32"},
	{slotCursorShape, "cursor_shape", "u32"},
	{slotCursorVortex, "cursor_vortex", "f32"},
	{slotCursorForce, "cursor_force", "f32"},
	{slotCursorRadius, "cursor_radius", "f32"},
	{slotCursorX, "cursor_x", "f32"},
	{slotCursorY, "cursor_y", "f32"},
	{slotCursorPressed, "cursor_pressed", "f32"},
	{slotCursorActive, "cursor_active", "f32"},
	{slotBoidSize, "boid_size", "f32"},
	{slotColorMode, "color_mode", "u32"},
	{slotColorSpectrum, "color_spectrum", "u32"},
	{slotSensitivity, "sensitivity", "f32"},
	{slotDeltaTime, "delta_time", "f32"},
	{slotTime, "time", "f32"},
	{slotFrameCount, "frame_count", "u32"},
	{slotTimeScale, "time_scale", "f32"},
	{slotSaturationSource, "saturation_source", "u32"},
	{slotBrightnessSource, "brightness_source", "u32"},
	{slotSpectralMode, "spectral_mode", "u32"},
	{slotReducedWidth, "reduced_width", "u32"},
	{slotTotalSlots, "total_slots", "u32"},
	{slotGlobalCollision, "global_collision", "u32"},
	{slotFineGrid, "fine_grid", "u32"},
	{slotCurveEnabled, "curve_enabled", "u32"},
}

// Uniforms is the typed view over the 256-byte uniform block. Every
// field lives at a fixed slot; Bytes() is the only thing a kernel
// binding ever sees.
type Uniforms struct {
	slots [uniformSlots]uint32
}

func (u *Uniforms) setF(slot int, v float32) { u.slots[slot] = math.Float32bits(v) }
func (u *Uniforms) setU(slot int, v uint32)   { u.slots[slot] = v }

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// SetCanvas sets the canvas dimensions in simulation units.
func (u *Uniforms) SetCanvas(w, h float32) {
	u.setF(slotWidth, w)
	u.setF(slotHeight, h)
}

// SetGrid sets the spatial-hash cell size and grid dimensions.
func (u *Uniforms) SetGrid(cellSize float32, gridW, gridH uint32) {
	u.setF(slotCellSize, cellSize)
	u.setU(slotGridW, gridW)
	u.setU(slotGridH, gridH)
}

// SetGridMeta sets the locally-perfect hash's reduced width and the
// total slot count, both derived from gridW/gridH at reallocation.
func (u *Uniforms) SetGridMeta(reducedWidth, totalSlots uint32) {
	u.setU(slotReducedWidth, reducedWidth)
	u.setU(slotTotalSlots, totalSlots)
}

// SetPopulation sets the active boid count and trail bookkeeping.
func (u *Uniforms) SetPopulation(boidCount, trailLength, trailHead uint32) {
	u.setU(slotBoidCount, boidCount)
	u.setU(slotTrailLength, trailLength)
	u.setU(slotTrailHead, trailHead)
}

// SetDefaults sets the active-species flocking defaults used as a
// fallback when a per-species override is absent.
func (u *Uniforms) SetDefaults(alignment, cohesion, separation, perception, maxSpeed, maxForce, noise, rebels float32) {
	u.setF(slotAlignment, alignment)
	u.setF(slotCohesion, cohesion)
	u.setF(slotSeparation, separation)
	u.setF(slotPerception, perception)
	u.setF(slotMaxSpeed, maxSpeed)
	u.setF(slotMaxForce, maxForce)
	u.setF(slotNoise, noise)
	u.setF(slotRebels, rebels)
}

// SetBoundaryMode sets the active boundary topology (0-8, see
// internal/config.BoundaryMode).
func (u *Uniforms) SetBoundaryMode(mode BoundaryMode) {
	u.setU(slotBoundaryMode, uint32(mode))
}

// SetCursor sets the interactive cursor's mode, shape and force field.
func (u *Uniforms) SetCursor(mode, shape uint32, vortex, force, radius, x, y float32, pressed, active bool) {
	u.setU(slotCursorMode, mode)
	u.setU(slotCursorShape, shape)
	u.setF(slotCursorVortex, vortex)
	u.setF(slotCursorForce, force)
	u.setF(slotCursorRadius, radius)
	u.setF(slotCursorX, x)
	u.setF(slotCursorY, y)
	u.setF(slotCursorPressed, boolToF32(pressed))
	u.setF(slotCursorActive, boolToF32(active))
}

func boolToF32(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// SetAppearance sets the global boid render-size multiplier, applied
// by the boid draw shader on top of each species' authored size.
func (u *Uniforms) SetAppearance(boidSize float32) {
	u.setF(slotBoidSize, boidSize)
}

// SetColor sets the HSL color-channel sources and the spectrum palette
// used when the hue channel selects a palette instead of a curve.
func (u *Uniforms) SetColor(hueMode, spectrum, satSource, brightSource uint32, sensitivity float32) {
	u.setU(slotColorMode, hueMode)
	u.setU(slotColorSpectrum, spectrum)
	u.setU(slotSaturationSource, satSource)
	u.setU(slotBrightnessSource, brightSource)
	u.setF(slotSensitivity, sensitivity)
}

// SetClock advances the per-frame clock fields.
func (u *Uniforms) SetClock(deltaTime, simTime float32, frameCount uint32, timeScale float32) {
	u.setF(slotDeltaTime, deltaTime)
	u.setF(slotTime, simTime)
	u.setU(slotFrameCount, frameCount)
	u.setF(slotTimeScale, timeScale)
}

// SetSpectralMode sets the active iterative-relaxation statistic (see
// internal/config.SpectralMode).
func (u *Uniforms) SetSpectralMode(mode uint32) {
	u.setU(slotSpectralMode, mode)
}

// SetFineGrid toggles the perception/2, 5x5-window neighbor search
// variant described as an opt-in quality setting in spec.md §9.
func (u *Uniforms) SetFineGrid(enabled bool) {
	u.setU(slotFineGrid, boolToU32(enabled))
}

// SetGlobalCollision toggles the species-agnostic near-zero-distance
// separation push every neighbor pair is otherwise subject to.
func (u *Uniforms) SetGlobalCollision(enabled bool) {
	u.setU(slotGlobalCollision, boolToU32(enabled))
}

// Curve-enabled bit positions within slotCurveEnabled.
const (
	CurveBitHue = 1 << iota
	CurveBitSaturation
	CurveBitBrightness
)

// SetCurveEnabled packs which of the three curve LUTs are active
// (color sources that bypass the curve, like Solid or a spectrum
// palette, leave their bit clear so the shader skips the lookup).
func (u *Uniforms) SetCurveEnabled(bits uint32) {
	u.setU(slotCurveEnabled, bits)
}

// Bytes packs the uniform block into its wire representation, ready
// for Buffer.Upload. The slice is always exactly UniformSize bytes.
func (u *Uniforms) Bytes() []byte {
	out := make([]byte, UniformSize)
	for i, v := range u.slots {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

// UniformsFromBytes decodes a wire uniform block back into a typed
// view. Used by internal/cpubackend, which has no GPU and so reads the
// same bytes a real compute pass would bind, to recover the fields it
// needs to run the native Go equivalent of each pass.
func UniformsFromBytes(data []byte) *Uniforms {
	var u Uniforms
	for i := range u.slots {
		u.slots[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return &u
}

func (u *Uniforms) getF(slot int) float32 { return math.Float32frombits(u.slots[slot]) }
func (u *Uniforms) getU(slot int) uint32  { return u.slots[slot] }

func (u *Uniforms) Width() float32          { return u.getF(slotWidth) }
func (u *Uniforms) Height() float32         { return u.getF(slotHeight) }
func (u *Uniforms) CellSize() float32       { return u.getF(slotCellSize) }
func (u *Uniforms) GridW() uint32           { return u.getU(slotGridW) }
func (u *Uniforms) GridH() uint32           { return u.getU(slotGridH) }
func (u *Uniforms) BoidCount() uint32       { return u.getU(slotBoidCount) }
func (u *Uniforms) TrailLength() uint32     { return u.getU(slotTrailLength) }
func (u *Uniforms) TrailHead() uint32       { return u.getU(slotTrailHead) }
func (u *Uniforms) BoundaryMode() BoundaryMode { return BoundaryMode(u.getU(slotBoundaryMode)) }
func (u *Uniforms) DeltaTime() float32      { return u.getF(slotDeltaTime) }
func (u *Uniforms) FrameCount() uint32      { return u.getU(slotFrameCount) }
func (u *Uniforms) ReducedWidth() uint32    { return u.getU(slotReducedWidth) }
func (u *Uniforms) TotalSlots() uint32      { return u.getU(slotTotalSlots) }
func (u *Uniforms) FineGrid() bool          { return u.getU(slotFineGrid) != 0 }
func (u *Uniforms) Noise() float32          { return u.getF(slotNoise) }
func (u *Uniforms) GlobalCollision() bool   { return u.getU(slotGlobalCollision) != 0 }

// WGSLUniformsBlock renders the WGSL struct declaration matching the
// slot table above, including the trailing reserved padding array.
// internal/shaders prepends this text to every kernel so there is
// exactly one place the uniform layout is declared.
func WGSLUniformsBlock() string {
	var b strings.Builder
	b.WriteString("struct Uniforms {\n")
	for _, f := range uniformLayout {
		fmt.Fprintf(&b, "    %s: %s,\n", f.name, f.wgsl)
	}
	if pad := uniformSlots - numUsedSlots; pad > 0 {
		fmt.Fprintf(&b, "    _reserved: array<u32, %d>,\n", pad)
	}
	b.WriteString("};\n")
	return b.String()
}
