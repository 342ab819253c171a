// SPDX-License-Identifier: Unlicense OR MIT

package sim

import "github.com/fieldflock/fieldflock/internal/config"

// Grid is the pure-Go twin of passes 1-4 of the spatial-hash builder
// (internal/shaders.Clear/Count/Scan/ScanBlockSums/BlockOffsetAdd/
// Scatter). It exists for two reasons: it is the test oracle the
// property tests in this package check the invariants against, and it
// is the engine the headless CPU backend runs instead of dispatching
// WGSL.
type Grid struct {
	Width, Height   float32
	CellSize        float32
	GridW, GridH    uint32
	ReducedWidth    uint32
	TotalSlots      uint32
	BoundaryMode    config.BoundaryMode

	CellCounts     []uint32
	PrefixSums     []uint32
	SortedIndices  []uint32
	BoidCellIndex  []uint32
}

// NewGrid sizes a grid for the given canvas and cell size, exactly as
// the buffer manager does at reallocation: buffers are sized once for
// the minimum allowed perception and reused unchanged as perception
// grows (spec.md §3).
func NewGrid(width, height, cellSize float32, mode config.BoundaryMode) *Grid {
	gridW := uint32(ceilDiv(width, cellSize))
	gridH := uint32(ceilDiv(height, cellSize))
	reducedWidth := ceilDiv3(gridW)
	reducedHeight := ceilDiv3(gridH)
	totalSlots := 9 * reducedWidth * reducedHeight

	return &Grid{
		Width: width, Height: height, CellSize: cellSize,
		GridW: gridW, GridH: gridH,
		ReducedWidth: reducedWidth, TotalSlots: totalSlots,
		BoundaryMode: mode,
		CellCounts:   make([]uint32, totalSlots),
		PrefixSums:   make([]uint32, totalSlots),
	}
}

func ceilDiv(a, b float32) int {
	if b <= 0 {
		return 1
	}
	n := int(a / b)
	if float32(n)*b < a {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

func ceilDiv3(n uint32) uint32 {
	return (n + 2) / 3
}

// CellCoords returns the clamped grid cell a position falls in.
func (g *Grid) CellCoords(x, y float32) (cx, cy int) {
	cx = clampInt(int(x/g.CellSize), 0, int(g.GridW)-1)
	cy = clampInt(int(y/g.CellSize), 0, int(g.GridH)-1)
	return
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Hash implements the locally-perfect hash from the data model:
// kappa = 3*(cx mod 3) + (cy mod 3), beta = floor(cy/3)*reducedWidth +
// floor(cx/3), slot = 9*beta + kappa. Collision-free within any 3x3
// window.
func (g *Grid) Hash(cx, cy int) uint32 {
	kappa := uint32(3*mod3(cx) + mod3(cy))
	beta := uint32(cy/3)*g.ReducedWidth + uint32(cx/3)
	return 9*beta + kappa
}

func mod3(v int) int {
	m := v % 3
	if m < 0 {
		m += 3
	}
	return m
}

// FlipHash is the flip-aware variant used by the flocking kernel's
// neighbor search: a cell coordinate crossing a flip-wrap boundary has
// its orthogonal coordinate mirrored before hashing, so the search
// reaches the mirrored cell's contents instead of an unflipped one.
func (g *Grid) FlipHash(cx, cy int) uint32 {
	rule := g.BoundaryMode.Rule()
	gw, gh := int(g.GridW), int(g.GridH)
	if cx < 0 {
		cx += gw
		if rule.FlipOnWrapX {
			cy = gh - 1 - cy
		}
	}
	if cx >= gw {
		cx -= gw
		if rule.FlipOnWrapX {
			cy = gh - 1 - cy
		}
	}
	if cy < 0 {
		cy += gh
		if rule.FlipOnWrapY {
			cx = gw - 1 - cx
		}
	}
	if cy >= gh {
		cy -= gh
		if rule.FlipOnWrapY {
			cx = gw - 1 - cx
		}
	}
	cx = clampInt(cx, 0, gw-1)
	cy = clampInt(cy, 0, gh-1)
	return g.Hash(cx, cy)
}

// Build runs the four spatial-hash passes against positions, sized for
// boidCount entries: clear, count (+cache boidCellIndex), exclusive
// prefix sum, and scatter. It is the sequential reference the property
// tests in hostgrid_test.go check, and the engine the CPU fallback
// runs every frame.
func (g *Grid) Build(positions []Vec2) {
	n := len(positions)
	for i := range g.CellCounts {
		g.CellCounts[i] = 0
	}
	if cap(g.BoidCellIndex) < n {
		g.BoidCellIndex = make([]uint32, n)
	} else {
		g.BoidCellIndex = g.BoidCellIndex[:n]
	}

	// Pass 2: count.
	for i, p := range positions {
		cx, cy := g.CellCoords(p.X, p.Y)
		slot := g.Hash(cx, cy)
		g.BoidCellIndex[i] = slot
		g.CellCounts[slot]++
	}

	// Pass 3: exclusive prefix sum (sequential; Blelloch in the WGSL
	// kernel is the parallel form of this same scan).
	var running uint32
	for i, c := range g.CellCounts {
		g.PrefixSums[i] = running
		running += c
	}

	// Pass 4: scatter.
	if cap(g.SortedIndices) < n {
		g.SortedIndices = make([]uint32, n)
	} else {
		g.SortedIndices = g.SortedIndices[:n]
	}
	cursor := make([]uint32, len(g.CellCounts))
	for i := range positions {
		slot := g.BoidCellIndex[i]
		g.SortedIndices[g.PrefixSums[slot]+cursor[slot]] = uint32(i)
		cursor[slot]++
	}
}

// CellRange returns the sorted-index slice for one grid slot.
func (g *Grid) CellRange(slot uint32) []uint32 {
	start := g.PrefixSums[slot]
	end := start + g.CellCounts[slot]
	return g.SortedIndices[start:end]
}

// Vec2 is the pure-Go mirror of the WGSL vec2<f32> position/velocity
// type, kept distinct from f32.Point so the reference engine has no
// dependency on render-side geometry helpers.
type Vec2 struct {
	X, Y float32
}

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Mul(s float32) Vec2 { return Vec2{a.X * s, a.Y * s} }
