// SPDX-License-Identifier: Unlicense OR MIT

package sim

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/fieldflock/fieldflock/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRandomBoids(n int, width, height, speed float32, species int, seed int64) []Boid {
	r := rand.New(rand.NewSource(seed))
	boids := make([]Boid, n)
	for i := range boids {
		angle := r.Float64() * 2 * math.Pi
		boids[i] = Boid{
			Pos:     Vec2{float32(r.Float64()) * width, float32(r.Float64()) * height},
			Vel:     Vec2{float32(math.Cos(angle)) * speed, float32(math.Sin(angle)) * speed},
			Species: species,
		}
	}
	return boids
}

// TestInBounds is invariant 5: position stays in [0,W)x[0,H) after
// boundary application, checked across all nine topologies.
func TestInBounds(t *testing.T) {
	for mode := config.BoundaryPlane; mode <= config.BoundaryProjectivePlane; mode++ {
		cfg := config.Default(500)
		cfg.BoundaryMode = mode
		cfg.BoidCount = 200
		f := NewFlock(cfg)
		boids := seedRandomBoids(200, cfg.Width, cfg.Height, 4, 0, int64(mode))

		for frame := 0; frame < 30; frame++ {
			f.Step(boids, 1.0/60.0)
		}
		for _, b := range boids {
			assert.GreaterOrEqualf(t, b.Pos.X, float32(0), "mode %v", mode)
			assert.Lessf(t, b.Pos.X, cfg.Width, "mode %v", mode)
			assert.GreaterOrEqualf(t, b.Pos.Y, float32(0), "mode %v", mode)
			assert.Lessf(t, b.Pos.Y, cfg.Height, "mode %v", mode)
		}
	}
}

// TestTrailRingCorrectness is invariant 7.
func TestTrailRingCorrectness(t *testing.T) {
	ring := NewTrailRing(4)
	pos := Vec2{12, 34}
	ring.Write(2, pos)
	ring.Advance()
	assert.Equal(t, pos, ring.At(2, 1))
}

// TestTorusWrapInvariance is invariant 8: running N frames from state
// S and from state S translated by (W,0) yields identical positions
// modulo W.
func TestTorusWrapInvariance(t *testing.T) {
	cfg := config.Default(50)
	cfg.BoundaryMode = config.BoundaryTorus
	cfg.BoidCount = 50
	cfg.Noise = 0

	boidsA := seedRandomBoids(50, cfg.Width, cfg.Height, 3, 0, 42)
	boidsB := make([]Boid, len(boidsA))
	copy(boidsB, boidsA)
	for i := range boidsB {
		boidsB[i].Pos.X += cfg.Width
	}

	fa := NewFlock(cfg)
	fb := NewFlock(cfg)
	for frame := 0; frame < 10; frame++ {
		fa.Step(boidsA, 1.0/60.0)
		fb.Step(boidsB, 1.0/60.0)
	}

	for i := range boidsA {
		ax := mod32(boidsA[i].Pos.X, cfg.Width)
		bx := mod32(boidsB[i].Pos.X, cfg.Width)
		assert.InDelta(t, ax, bx, 1e-2)
		assert.InDelta(t, boidsA[i].Pos.Y, boidsB[i].Pos.Y, 1e-2)
	}
}

func mod32(v, m float32) float32 {
	r := float32(math.Mod(float64(v), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

// TestE1SingleSpeciesCoherence matches spec.md scenario E1: 1000 boids,
// random velocities speed 2, 600 frames with defaults; expect mean
// pairwise velocity alignment above 0.7.
func TestE1SingleSpeciesCoherence(t *testing.T) {
	if testing.Short() {
		t.Skip("scenario E1 runs 600 frames of 1000 boids")
	}
	cfg := config.Default(1000)
	cfg.BoidCount = 1000
	boids := seedRandomBoids(1000, cfg.Width, cfg.Height, 2, 0, 7)

	f := NewFlock(cfg)
	for frame := 0; frame < 600; frame++ {
		f.Step(boids, 1.0/60.0)
	}

	var sumCos float64
	var pairs int
	for i := 0; i < len(boids); i++ {
		li := length(boids[i].Vel)
		if li < 1e-4 {
			continue
		}
		for j := i + 1; j < len(boids); j++ {
			lj := length(boids[j].Vel)
			if lj < 1e-4 {
				continue
			}
			cos := float64(boids[i].Vel.X*boids[j].Vel.X+boids[i].Vel.Y*boids[j].Vel.Y) / float64(li*lj)
			sumCos += cos
			pairs++
		}
	}
	mean := sumCos / float64(pairs)
	assert.Greater(t, mean, 0.7)
}

// TestE2SeparationUnderCrowding matches scenario E2: 2000 boids in a
// 100x100 box at canvas center, 200 frames; 95th-percentile pairwise
// distance at t=200 should exceed 3x that at t=0.
func TestE2SeparationUnderCrowding(t *testing.T) {
	if testing.Short() {
		t.Skip("scenario E2 runs 200 frames of 2000 boids")
	}
	cfg := config.Default(2000)
	cfg.BoidCount = 2000
	cfg.Width, cfg.Height = 800, 600

	r := rand.New(rand.NewSource(11))
	cx, cy := cfg.Width/2, cfg.Height/2
	boids := make([]Boid, 2000)
	for i := range boids {
		boids[i] = Boid{Pos: Vec2{cx - 50 + float32(r.Float64())*100, cy - 50 + float32(r.Float64())*100}}
	}

	p0 := percentilePairwiseDistance(boids, 0.95)

	f := NewFlock(cfg)
	for frame := 0; frame < 200; frame++ {
		f.Step(boids, 1.0/60.0)
	}
	p200 := percentilePairwiseDistance(boids, 0.95)

	assert.Greater(t, p200, 3*p0)
}

func percentilePairwiseDistance(boids []Boid, pct float64) float32 {
	var dists []float32
	for i := 0; i < len(boids); i++ {
		for j := i + 1; j < len(boids); j++ {
			d := boids[i].Pos.Sub(boids[j].Pos)
			dists = append(dists, length(d))
		}
	}
	sort.Slice(dists, func(a, b int) bool { return dists[a] < dists[b] })
	idx := int(pct * float64(len(dists)-1))
	return dists[idx]
}

// TestE3WrapCorrectness matches scenario E3: 1 boid at (1,300), vel
// (-4,0), torus, 5 frames at dt=1/60. Expected x_k=(1-4k) mod 800.
func TestE3WrapCorrectness(t *testing.T) {
	cfg := config.Default(1)
	cfg.BoidCount = 1
	cfg.Width, cfg.Height = 800, 600
	cfg.BoundaryMode = config.BoundaryTorus
	cfg.Noise = 0
	cfg.Species = []config.Species{{Alignment: 0, Cohesion: 0, Separation: 0, Perception: 80, MaxSpeed: 4, MaxForce: 0.2}}

	boids := []Boid{{Pos: Vec2{1, 300}, Vel: Vec2{-4, 0}}}
	f := NewFlock(cfg)
	for k := 1; k <= 5; k++ {
		f.Step(boids, 1.0/60.0)
		expectedX := mod32(1-4*float32(k), 800)
		assert.InDelta(t, expectedX, boids[0].Pos.X, 1e-2, "frame %d", k)
		assert.InDelta(t, float32(300), boids[0].Pos.Y, 1e-2, "frame %d", k)
	}
}

// TestE4FlipWrap matches scenario E4: 1 boid at (1,100), vel (-4,0),
// mobius-X, 1 frame. Expected (797,500) within 1e-3 and reversed
// y-velocity. The fixture's canvas is 800x600 so that flipping y
// across the full height maps 100 -> 500.
func TestE4FlipWrap(t *testing.T) {
	cfg := config.Default(1)
	cfg.BoidCount = 1
	cfg.Width, cfg.Height = 800, 600
	cfg.BoundaryMode = config.BoundaryMobiusX
	cfg.Noise = 0
	cfg.Species = []config.Species{{Alignment: 0, Cohesion: 0, Separation: 0, Perception: 80, MaxSpeed: 4, MaxForce: 0.2}}

	boids := []Boid{{Pos: Vec2{1, 100}, Vel: Vec2{-4, 0}}}
	f := NewFlock(cfg)
	f.Step(boids, 1.0/60.0)

	assert.InDelta(t, float32(797), boids[0].Pos.X, 1e-3)
	assert.InDelta(t, float32(500), boids[0].Pos.Y, 1e-3)
	// The fixture's y-velocity is exactly 0, so negating it is a
	// no-op; TestApplyBoundaryFlipsOrthogonalVelocity below checks the
	// reversal itself with a nonzero component.
}

// TestApplyBoundaryFlipsOrthogonalVelocity checks the velocity-reversal
// half of a flip-wrap crossing directly, with a nonzero y-velocity so
// the sign flip is observable (E4's own fixture has vel.y == 0).
func TestApplyBoundaryFlipsOrthogonalVelocity(t *testing.T) {
	rule := config.BoundaryMobiusX.Rule()
	pos, vel := applyBoundary(Vec2{-3, 100}, Vec2{-4, 2}, 800, 600, rule)
	assert.InDelta(t, float32(797), pos.X, 1e-2)
	assert.InDelta(t, float32(500), pos.Y, 1e-2)
	assert.InDelta(t, float32(-2), vel.Y, 1e-2)
}

// TestE6PredatorPrey matches scenario E6: two 1000-boid species,
// species 0 pursues species 1 (strength 0.8), species 1 avoids species
// 0 (strength 0.8); after 300 frames the center-of-mass distance
// between species decreases monotonically in at least 80% of 30-frame
// windows.
func TestE6PredatorPrey(t *testing.T) {
	if testing.Short() {
		t.Skip("scenario E6 runs 300 frames of 2000 boids")
	}
	cfg := config.Default(2000)
	cfg.BoidCount = 2000
	cfg.Species = []config.Species{
		{Alignment: 1.3, Cohesion: 0.6, Separation: 1.5, Perception: 80, MaxSpeed: 4, MaxForce: 0.2},
		{Alignment: 1.3, Cohesion: 0.6, Separation: 1.5, Perception: 80, MaxSpeed: 4, MaxForce: 0.2},
	}
	cfg.Interactions = []config.RawRule{
		{Source: 0, Target: 1, Rule: config.InteractionRule{Behavior: config.BehaviorPursue, Strength: 0.8, Range: 200}},
		{Source: 1, Target: 0, Rule: config.InteractionRule{Behavior: config.BehaviorAvoid, Strength: 0.8, Range: 200}},
	}

	boids := make([]Boid, 2000)
	r := rand.New(rand.NewSource(99))
	for i := range boids {
		species := i % 2
		boids[i] = Boid{
			Pos:     Vec2{float32(r.Float64()) * cfg.Width, float32(r.Float64()) * cfg.Height},
			Species: species,
		}
	}

	f := NewFlock(cfg)
	var distances []float32
	distances = append(distances, centerOfMassDistance(boids))
	for frame := 0; frame < 300; frame++ {
		f.Step(boids, 1.0/60.0)
		distances = append(distances, centerOfMassDistance(boids))
	}

	windowSize := 30
	monotonic := 0
	totalWindows := 0
	for start := 0; start+windowSize < len(distances); start += windowSize {
		totalWindows++
		if distances[start+windowSize] < distances[start] {
			monotonic++
		}
	}
	require.Greater(t, totalWindows, 0)
	assert.GreaterOrEqual(t, float64(monotonic)/float64(totalWindows), 0.8)
}

func centerOfMassDistance(boids []Boid) float32 {
	var sum0, sum1 Vec2
	var n0, n1 int
	for _, b := range boids {
		if b.Species == 0 {
			sum0 = sum0.Add(b.Pos)
			n0++
		} else {
			sum1 = sum1.Add(b.Pos)
			n1++
		}
	}
	com0 := sum0.Mul(1.0 / float32(n0))
	com1 := sum1.Mul(1.0 / float32(n1))
	return length(com0.Sub(com1))
}
