// SPDX-License-Identifier: Unlicense OR MIT

// Package curve resamples a sparse, user-authored control-point curve
// into a fixed-length lookup table the renderer binds as a GPU
// storage buffer, using a monotonic cubic Hermite spline so the
// curve never overshoots between control points.
package curve

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/fieldflock/fieldflock/internal/config"
)

// Samples is the resampled LUT length, matching config.CurveSamples.
const Samples = config.CurveSamples

// Point is one authored control point; X must be unique per curve but
// need not be supplied in sorted order — Resample sorts defensively.
type Point struct {
	X, Y float32
}

// Resample turns a sparse set of control points into a Samples-length
// LUT via monotonic cubic Hermite interpolation (Fritsch-Carlson
// tangents), so the curve passes through every control point without
// overshoot. An empty input produces the identity ramp; a single-point
// input produces a flat LUT at that point's Y.
func Resample(points []Point) [Samples]float32 {
	var out [Samples]float32
	if len(points) == 0 {
		for i := range out {
			out[i] = float32(i) / float32(Samples-1)
		}
		return out
	}
	pts := append([]Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	if len(pts) == 1 {
		for i := range out {
			out[i] = pts[0].Y
		}
		return out
	}

	tangents := fritschCarlsonTangents(pts)
	for i := 0; i < Samples; i++ {
		t := float32(i) / float32(Samples-1)
		out[i] = evalAt(pts, tangents, t)
	}
	return out
}

// fritschCarlsonTangents computes the monotone-preserving tangent at
// each control point: the Fritsch-Carlson limiter zeroes a tangent at
// any local extremum and clamps the interior ones so the resulting
// Hermite spline cannot overshoot a neighboring segment's slope.
func fritschCarlsonTangents(pts []Point) []float32 {
	n := len(pts)
	secants := make([]float32, n-1)
	for i := 0; i < n-1; i++ {
		dx := pts[i+1].X - pts[i].X
		if dx <= 0 {
			dx = 1e-6
		}
		secants[i] = (pts[i+1].Y - pts[i].Y) / dx
	}

	tangents := make([]float32, n)
	tangents[0] = secants[0]
	tangents[n-1] = secants[n-2]
	for i := 1; i < n-1; i++ {
		if secants[i-1]*secants[i] <= 0 {
			tangents[i] = 0
		} else {
			tangents[i] = (secants[i-1] + secants[i]) / 2
		}
	}

	for i := 0; i < n-1; i++ {
		if secants[i] == 0 {
			tangents[i] = 0
			tangents[i+1] = 0
			continue
		}
		a := tangents[i] / secants[i]
		b := tangents[i+1] / secants[i]
		if a < 0 {
			tangents[i] = 0
		}
		if b < 0 {
			tangents[i+1] = 0
		}
		if sq := a*a + b*b; sq > 9 {
			scale := 3 / float32(math.Sqrt(float64(sq)))
			tangents[i] = scale * a * secants[i]
			tangents[i+1] = scale * b * secants[i]
		}
	}
	return tangents
}

func evalAt(pts []Point, tangents []float32, x float32) float32 {
	n := len(pts)
	if x <= pts[0].X {
		return pts[0].Y
	}
	if x >= pts[n-1].X {
		return pts[n-1].Y
	}
	seg := sort.Search(n-1, func(i int) bool { return pts[i+1].X >= x })
	x0, x1 := pts[seg].X, pts[seg+1].X
	y0, y1 := pts[seg].Y, pts[seg+1].Y
	m0, m1 := tangents[seg], tangents[seg+1]
	h := x1 - x0
	if h <= 0 {
		return y0
	}
	t := (x - x0) / h
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return h00*y0 + h10*h*m0 + h01*y1 + h11*h*m1
}

// Bytes packs hue, saturation and brightness LUTs concatenated, the
// wire layout described in spec.md §6: 3 x 64 floats.
func Bytes(hue, saturation, brightness [Samples]float32) []byte {
	out := make([]byte, Samples*3*4)
	appendFloats(out, hue[:])
	appendFloats(out[Samples*4:], saturation[:])
	appendFloats(out[Samples*8:], brightness[:])
	return out
}

func appendFloats(dst []byte, vs []float32) {
	for i, v := range vs {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}
