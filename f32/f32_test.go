// SPDX-License-Identifier: Unlicense OR MIT

package f32

import "testing"

func TestLimitLen(t *testing.T) {
	p := Point{X: 3, Y: 4}
	got := p.LimitLen(2)
	if want := float32(2); want-got.Len() > 1e-4 {
		t.Errorf("LimitLen(2) = %v, length %v, want %v", got, got.Len(), want)
	}
	small := Point{X: 1, Y: 0}
	if got := small.LimitLen(2); got != small {
		t.Errorf("LimitLen should not extend a vector shorter than max: got %v", got)
	}
}

func TestNormalizeZero(t *testing.T) {
	var z Point
	if got := z.Normalize(); got != z {
		t.Errorf("Normalize of zero vector = %v, want zero", got)
	}
}

func TestRotated90(t *testing.T) {
	p := Point{X: 1, Y: 0}
	r := p.Rotated90()
	if r.X != 0 || r.Y != 1 {
		t.Errorf("Rotated90(%v) = %v, want (0,1)", p, r)
	}
}
