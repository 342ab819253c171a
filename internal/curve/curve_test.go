// SPDX-License-Identifier: Unlicense OR MIT

package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResampleIdentityOnEmpty(t *testing.T) {
	out := Resample(nil)
	assert.InDelta(t, 0, out[0], 1e-6)
	assert.InDelta(t, 1, out[Samples-1], 1e-6)
}

func TestResampleSinglePointIsFlat(t *testing.T) {
	out := Resample([]Point{{X: 0.5, Y: 0.7}})
	for _, v := range out {
		assert.InDelta(t, 0.7, v, 1e-6)
	}
}

func TestResamplePassesThroughControlPoints(t *testing.T) {
	pts := []Point{{X: 0, Y: 0}, {X: 0.5, Y: 1}, {X: 1, Y: 0}}
	out := Resample(pts)
	assert.InDelta(t, 0, out[0], 1e-3)
	assert.InDelta(t, 0, out[Samples-1], 1e-3)
	mid := Samples / 2
	assert.InDelta(t, 1, out[mid], 0.05)
}

func TestResampleIsMonotoneBetweenMonotoneControlPoints(t *testing.T) {
	pts := []Point{{X: 0, Y: 0}, {X: 0.3, Y: 0.2}, {X: 1, Y: 1}}
	out := Resample(pts)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqualf(t, out[i], out[i-1]-1e-4, "sample %d should not dip below sample %d under monotone control points", i, i-1)
	}
}

func TestResampleIsIdempotent(t *testing.T) {
	pts := []Point{{X: 0.2, Y: 0.1}, {X: 0, Y: 0}, {X: 1, Y: 0.9}, {X: 0.6, Y: 0.4}}
	a := Resample(pts)
	b := Resample(pts)
	require.Equal(t, a, b)
}

func TestBytesLength(t *testing.T) {
	h := Resample(nil)
	s := Resample(nil)
	b := Resample(nil)
	out := Bytes(h, s, b)
	assert.Len(t, out, Samples*3*4)
}
