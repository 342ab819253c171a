// SPDX-License-Identifier: Unlicense OR MIT

package sim

import (
	"image"

	"github.com/fieldflock/fieldflock/internal/config"
	"github.com/fieldflock/fieldflock/internal/driver"
)

// BufferManager owns every GPU resource the compute passes and the
// render pass read and write: the position/velocity ping-pong pairs,
// the spatial-hash grid arrays, the species/interaction/curve
// uniform tables, the trail ring, the metrics array, the wall mask
// texture, and the fixed uniform block. It is sized once per
// reallocation (spec.md §4.1) and reused unchanged as perception
// grows within that sizing.
type BufferManager struct {
	device driver.Device

	maxBoids int
	grid     *Grid

	wallW, wallH int

	PositionsA, PositionsB   driver.Buffer
	VelocitiesA, VelocitiesB driver.Buffer
	SpeciesIDs               driver.Buffer
	Trails                   driver.Buffer
	Metrics                  driver.Buffer
	RankA, RankB             driver.Buffer

	BoidCellIndex driver.Buffer
	CellCounts    driver.Buffer
	PrefixSums    driver.Buffer
	BlockSums     driver.Buffer
	SortedIndices driver.Buffer

	SpeciesTable driver.Buffer
	Interactions driver.Buffer
	Uniforms     driver.Buffer
	Curves       driver.Buffer

	Wall driver.Texture

	readFromA bool
}

// NewBufferManager allocates every buffer for maxBoids and a grid
// sized for config.MinPerception, the smallest perception the UI ever
// allows — growing perception above that later never reallocates, per
// the Open Question resolution recorded in DESIGN.md.
func NewBufferManager(d driver.Device, cfg *config.Config) (*BufferManager, error) {
	bm := &BufferManager{device: d, maxBoids: cfg.MaxBoids, readFromA: true}
	if err := bm.reallocate(cfg); err != nil {
		return nil, err
	}
	return bm, nil
}

// reallocate rebuilds every buffer sized from BoidCount/canvas/
// perception policy. Called at construction and whenever
// config.DirtyNeedsReallocate is set.
func (bm *BufferManager) reallocate(cfg *config.Config) error {
	// Tear down the previous generation before recreating it.
	bm.Release()
	bm.Wall = nil

	cellSize := cfg.Perception
	if cellSize < config.MinPerception {
		cellSize = config.MinPerception
	}
	if cfg.FineGrid {
		cellSize /= 2
	}
	bm.grid = NewGrid(cfg.Width, cfg.Height, cellSize, cfg.BoundaryMode)

	n := bm.maxBoids
	vec2Bytes := n * 8
	u32Bytes := n * 4

	var err error
	newBuf := func(typ driver.BufferBinding, size int) driver.Buffer {
		if err != nil {
			return nil
		}
		var b driver.Buffer
		b, err = bm.device.NewBuffer(typ, size)
		return b
	}

	bm.PositionsA = newBuf(driver.BufferBindingShaderStorage, vec2Bytes)
	bm.PositionsB = newBuf(driver.BufferBindingShaderStorage, vec2Bytes)
	bm.VelocitiesA = newBuf(driver.BufferBindingShaderStorage, vec2Bytes)
	bm.VelocitiesB = newBuf(driver.BufferBindingShaderStorage, vec2Bytes)
	bm.SpeciesIDs = newBuf(driver.BufferBindingShaderStorage, u32Bytes)
	bm.Trails = newBuf(driver.BufferBindingShaderStorage, n*config.TrailCapacity*8)
	bm.Metrics = newBuf(driver.BufferBindingShaderStorage, n*16)
	bm.RankA = newBuf(driver.BufferBindingShaderStorage, u32Bytes)
	bm.RankB = newBuf(driver.BufferBindingShaderStorage, u32Bytes)

	bm.BoidCellIndex = newBuf(driver.BufferBindingShaderStorage, u32Bytes)
	bm.CellCounts = newBuf(driver.BufferBindingShaderStorage, int(bm.grid.TotalSlots)*4)
	bm.PrefixSums = newBuf(driver.BufferBindingShaderStorage, int(bm.grid.TotalSlots)*4)
	bm.BlockSums = newBuf(driver.BufferBindingShaderStorage, blockCount(bm.grid.TotalSlots)*4)
	bm.SortedIndices = newBuf(driver.BufferBindingShaderStorage, u32Bytes)

	bm.SpeciesTable = newBuf(driver.BufferBindingShaderStorage, config.SpeciesTableBytes)
	bm.Interactions = newBuf(driver.BufferBindingShaderStorage, config.InteractionMatrixBytes)
	bm.Uniforms = newBuf(driver.BufferBindingUniforms, config.UniformSize)
	bm.Curves = newBuf(driver.BufferBindingShaderStorage, config.CurveSamples*3*4)

	if err != nil {
		return newError(KindEnvironmental, "BufferManager.reallocate", err)
	}

	bm.wallW, bm.wallH = wallDimensions(cfg.Width, cfg.Height)
	bm.Wall, err = bm.device.NewTexture(driver.TextureFormatR8, bm.wallW, bm.wallH, driver.FilterLinear, driver.FilterLinear, driver.BufferBindingTexture)
	if err != nil {
		return newError(KindEnvironmental, "BufferManager.reallocate", err)
	}
	return nil
}

// WriteWall re-uploads the full obstacle mask. pixels covers
// wallW*wallH bytes, the size wallDimensions(cfg.Width, cfg.Height)
// computed at the last reallocate; a shorter mask is zero-padded to
// that size.
func (bm *BufferManager) WriteWall(pixels []byte) {
	n := bm.wallW * bm.wallH
	if len(pixels) < n {
		padded := make([]byte, n)
		copy(padded, pixels)
		pixels = padded
	}
	bm.Wall.Upload(image.Point{}, image.Point{X: bm.wallW, Y: bm.wallH}, pixels, bm.wallW)
}

// WriteCurves re-uploads the resampled hue/saturation/brightness LUTs,
// packed by internal/curve.Bytes.
func (bm *BufferManager) WriteCurves(data []byte) {
	bm.Curves.Upload(data)
}

func blockCount(totalSlots uint32) int {
	const blockSize = 512
	return int((totalSlots + blockSize - 1) / blockSize)
}

// ReadPositions/WritePositions name the current ping-pong pair; callers
// swap by flipping readFromA once per frame, matching invariant 2.
func (bm *BufferManager) ReadPositions() driver.Buffer {
	if bm.readFromA {
		return bm.PositionsA
	}
	return bm.PositionsB
}

func (bm *BufferManager) WritePositions() driver.Buffer {
	if bm.readFromA {
		return bm.PositionsB
	}
	return bm.PositionsA
}

func (bm *BufferManager) ReadVelocities() driver.Buffer {
	if bm.readFromA {
		return bm.VelocitiesA
	}
	return bm.VelocitiesB
}

func (bm *BufferManager) WriteVelocities() driver.Buffer {
	if bm.readFromA {
		return bm.VelocitiesB
	}
	return bm.VelocitiesA
}

// Swap flips which buffer is read from, the host-side half of
// invariant 2 ("readFromA toggles every frame").
func (bm *BufferManager) Swap() { bm.readFromA = !bm.readFromA }

// Release frees every GPU resource this manager owns.
func (bm *BufferManager) Release() {
	buffers := []driver.Buffer{
		bm.PositionsA, bm.PositionsB, bm.VelocitiesA, bm.VelocitiesB,
		bm.SpeciesIDs, bm.Trails, bm.Metrics, bm.RankA, bm.RankB,
		bm.BoidCellIndex, bm.CellCounts, bm.PrefixSums, bm.BlockSums, bm.SortedIndices,
		bm.SpeciesTable, bm.Interactions, bm.Uniforms, bm.Curves,
	}
	for _, b := range buffers {
		if b != nil {
			b.Release()
		}
	}
	if bm.Wall != nil {
		bm.Wall.Release()
	}
}
