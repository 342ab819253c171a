// SPDX-License-Identifier: Unlicense OR MIT

package config

// Domain-wide constants shared between the host packing code and the
// WGSL kernels in internal/shaders. These never vary per-config; they
// bound buffer sizes and wire formats.
const (
	// TrailCapacity is the fixed length of each boid's trail ring
	// buffer; a species' TrailLength is always <= TrailCapacity and
	// selects how much of the ring the renderer walks.
	TrailCapacity = 64

	// WallScale is the wall mask's resolution divisor: the mask is
	// ceil(W/WallScale) x ceil(H/WallScale) texels.
	WallScale = 4

	// MinPerception is the smallest perception radius the grid buffers
	// are ever sized for; shrinking perception below the value used at
	// the last reallocation never triggers a new one.
	MinPerception = 20

	// CurveSamples is the resampled LUT length for each of the three
	// HSL channel curves.
	CurveSamples = 64
)
