// SPDX-License-Identifier: Unlicense OR MIT

package colorfield

import "math"

// Spectrum palette functions, the host-side twin of apply_spectrum in
// internal/shaders.colorCommon — used by tests that check a palette
// never leaves [0,1]^3.

// Chrome returns a three-phase cosine palette.
func Chrome(h float32) (r, g, b float32) {
	const tau = 2 * math.Pi
	return 0.5 + 0.5*cos32(tau*(h+0.0)),
		0.5 + 0.5*cos32(tau*(h+0.33)),
		0.5 + 0.5*cos32(tau*(h+0.67))
}

// Ocean linearly interpolates a deep-to-bright teal ramp.
func Ocean(h float32) (r, g, b float32) {
	return lerp(0.0, 0.2, h), lerp(0.05, 0.9, h), lerp(0.2, 1.0, h)
}

// Bands quantizes hue into six discrete HSL hues.
func Bands(h float32) (r, g, b float32) {
	band := float32(math.Floor(float64(h)*6)) / 6
	return HSLToRGB(band, 0.8, 0.5)
}

// Rainbow is a direct full-saturation HSL ramp.
func Rainbow(h float32) (r, g, b float32) {
	return HSLToRGB(h, 1.0, 0.5)
}

// Mono maps hue directly to a gray level.
func Mono(h float32) (r, g, b float32) {
	return h, h, h
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func cos32(v float32) float32 { return float32(math.Cos(float64(v))) }
