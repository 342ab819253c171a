// SPDX-License-Identifier: Unlicense OR MIT

package colorfield

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const epsilon = 1e-3

func TestHSLRoundTrip(t *testing.T) {
	cases := []struct{ h, s, l float32 }{
		{0, 0.5, 0.5}, {0.25, 0.8, 0.3}, {0.5, 1.0, 0.5}, {0.75, 0.2, 0.7}, {0.99, 0.6, 0.1},
	}
	for _, c := range cases {
		r, g, b := HSLToRGB(c.h, c.s, c.l)
		h2, s2, l2 := RGBToHSL(r, g, b)
		assert.InDelta(t, c.l, l2, epsilon)
		if c.s > epsilon {
			assert.InDelta(t, c.s, s2, epsilon)
			// Hue is circular: compare the shortest distance around it.
			dh := h2 - c.h
			dh -= float32(math.Round(float64(dh)))
			assert.InDelta(t, 0, dh, epsilon)
		}
	}
}

func TestHSLGrayscaleHasZeroSaturation(t *testing.T) {
	r, g, b := HSLToRGB(0.3, 0, 0.4)
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestSpectrumPalettesStayInUnitCube(t *testing.T) {
	palettes := []func(float32) (float32, float32, float32){Chrome, Ocean, Bands, Rainbow, Mono}
	for _, fn := range palettes {
		for i := 0; i <= 10; i++ {
			h := float32(i) / 10
			r, g, b := fn(h)
			assert.GreaterOrEqual(t, r, float32(-1e-4))
			assert.LessOrEqual(t, r, float32(1.0001))
			assert.GreaterOrEqual(t, g, float32(-1e-4))
			assert.LessOrEqual(t, g, float32(1.0001))
			assert.GreaterOrEqual(t, b, float32(-1e-4))
			assert.LessOrEqual(t, b, float32(1.0001))
		}
	}
}
