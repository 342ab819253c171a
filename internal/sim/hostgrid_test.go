// SPDX-License-Identifier: Unlicense OR MIT

package sim

import (
	"math/rand"
	"testing"

	"github.com/fieldflock/fieldflock/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomPositions(n int, width, height float32, seed int64) []Vec2 {
	r := rand.New(rand.NewSource(seed))
	out := make([]Vec2, n)
	for i := range out {
		out[i] = Vec2{float32(r.Float64()) * width, float32(r.Float64()) * height}
	}
	return out
}

// TestSumPreservation is invariant 1: after the count pass,
// Σ cellCounts == boidCount.
func TestSumPreservation(t *testing.T) {
	g := NewGrid(800, 600, 80, config.BoundaryTorus)
	positions := randomPositions(500, 800, 600, 1)
	g.Build(positions)

	var sum uint32
	for _, c := range g.CellCounts {
		sum += c
	}
	assert.Equal(t, uint32(len(positions)), sum)
}

// TestScatterCorrectness is invariant 2 / scenario E5: for every cell
// and every k in [0, cellCounts[c]), sortedIndices[prefixSums[c]+k]
// has boidCellIndex == c, verified by full enumeration over 500 boids
// at known positions.
func TestScatterCorrectness(t *testing.T) {
	g := NewGrid(800, 600, 80, config.BoundaryTorus)
	positions := randomPositions(500, 800, 600, 2)
	g.Build(positions)

	for slot := uint32(0); slot < g.TotalSlots; slot++ {
		for _, idx := range g.CellRange(slot) {
			require.Equal(t, slot, g.BoidCellIndex[idx], "boid %d in cell %d's range but cached index says %d", idx, slot, g.BoidCellIndex[idx])
		}
	}
}

// TestPrefixSumExclusivity is invariant 3.
func TestPrefixSumExclusivity(t *testing.T) {
	g := NewGrid(800, 600, 80, config.BoundaryTorus)
	g.Build(randomPositions(300, 800, 600, 3))

	assert.Equal(t, uint32(0), g.PrefixSums[0])
	for c := uint32(0); c < g.TotalSlots-1; c++ {
		assert.Equal(t, g.CellCounts[c], g.PrefixSums[c+1]-g.PrefixSums[c])
	}
}

// TestSpeciesConservation is invariant 6: sum of per-species
// populations equals the active boid count regardless of grid state.
func TestSpeciesConservation(t *testing.T) {
	boids := make([]Boid, 300)
	for i := range boids {
		boids[i] = Boid{Pos: Vec2{float32(i % 800), float32(i % 600)}, Species: i % 3}
	}
	counts := map[int]int{}
	for _, b := range boids {
		counts[b.Species]++
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, len(boids), total)
}

// TestLocallyPerfectHashCollisionFree is invariant 9: for any cell and
// any offset in {-1,0,1}^2, hash(cx,cy) != hash(cx+dx,cy+dy) unless
// the offset is (0,0).
func TestLocallyPerfectHashCollisionFree(t *testing.T) {
	g := NewGrid(800, 600, 80, config.BoundaryTorus)
	for cy := 0; cy < int(g.GridH); cy++ {
		for cx := 0; cx < int(g.GridW); cx++ {
			base := g.Hash(cx, cy)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					ncx, ncy := cx+dx, cy+dy
					if ncx < 0 || ncy < 0 || ncx >= int(g.GridW) || ncy >= int(g.GridH) {
						continue
					}
					other := g.Hash(ncx, ncy)
					require.NotEqual(t, base, other, "cell (%d,%d) collides with neighbor (%d,%d)", cx, cy, ncx, ncy)
				}
			}
		}
	}
}

func TestCellSizePolicyMatchesPerceptionOrHalf(t *testing.T) {
	cfg := config.Default(1000)
	cfg.FineGrid = false
	f := NewFlock(cfg)
	assert.Equal(t, cfg.Perception, f.Grid.CellSize)

	cfg.FineGrid = true
	f = NewFlock(cfg)
	assert.Equal(t, cfg.Perception/2, f.Grid.CellSize)
}
