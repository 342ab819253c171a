// SPDX-License-Identifier: Unlicense OR MIT

// Package colorfield is the host-side twin of the HSL color channel
// system the boid fragment shader implements in WGSL (see
// internal/shaders.Boids): hslToRgb/rgbToHue and the five spectrum
// palette functions, kept here so property tests can check the
// round-trip without standing up a GPU.
package colorfield

import "math"

// HSLToRGB converts hue/saturation/lightness, each in [0,1], to RGB in
// [0,1]. Matches the hsl_to_rgb WGSL function bit for bit in algorithm.
func HSLToRGB(h, s, l float32) (r, g, b float32) {
	if s <= 0.0001 {
		return l, l, l
	}
	var q float32
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	hk := h - float32(math.Floor(float64(h)))
	return hueChannel(p, q, hk+1.0/3.0), hueChannel(p, q, hk), hueChannel(p, q, hk-1.0/3.0)
}

func hueChannel(p, q, t float32) float32 {
	t = t - float32(math.Floor(float64(t)))
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}

// RGBToHSL is HSLToRGB's inverse, used by the round-trip property
// test; channel ordering and range match HSLToRGB's.
func RGBToHSL(r, g, b float32) (h, s, l float32) {
	max := maxf(r, maxf(g, b))
	min := minf(r, minf(g, b))
	l = (max + min) / 2
	if max == min {
		return 0, 0, l
	}
	d := max - min
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}
	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h /= 6
	return h, s, l
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
