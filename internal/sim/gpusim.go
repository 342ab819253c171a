// SPDX-License-Identifier: Unlicense OR MIT

package sim

import (
	"image"

	"github.com/fieldflock/fieldflock/internal/config"
	"github.com/fieldflock/fieldflock/internal/driver"
	"github.com/fieldflock/fieldflock/internal/shaders"
)

const workgroupSize = shaders.WorkgroupSize

func dispatchCount(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + workgroupSize - 1) / workgroupSize
}

// GPUSim compiles every compute and render pass once against a
// driver.Device and runs them in the fixed order the DAG in spec.md
// §4 and §5 describes: clear, count, scan, scan-block-sums,
// block-offset-add, scatter, flock, rank-init-or-iterate,
// write-metrics, then the three render draws.
type GPUSim struct {
	device driver.Device

	clear          driver.Program
	count          driver.Program
	scan           driver.Program
	scanBlockSums  driver.Program
	blockOffsetAdd driver.Program
	scatter        driver.Program
	flock          driver.Program
	rankInit       driver.Program
	rankIterAtoB   driver.Program
	rankIterBtoA   driver.Program
	writeMetrics   driver.Program

	walls  renderPass
	trails renderPass
	boids  renderPass
}

type renderPass struct {
	program driver.Program
	layout  driver.InputLayout
}

// NewGPUSim compiles every shaders.Source against d. Any compile
// failure is reported as a KindEnvironmental error, matching exit code
// 4 in spec.md §6 ("shader compile failed").
func NewGPUSim(d driver.Device) (*GPUSim, error) {
	g := &GPUSim{device: d}

	compute := []struct {
		src *driver.Program
		s   shaders.Source
	}{
		{&g.clear, shaders.Clear},
		{&g.count, shaders.Count},
		{&g.scan, shaders.Scan},
		{&g.scanBlockSums, shaders.ScanBlockSums},
		{&g.blockOffsetAdd, shaders.BlockOffsetAdd},
		{&g.scatter, shaders.Scatter},
		{&g.flock, shaders.Flocking},
		{&g.rankInit, shaders.RankInit},
		{&g.rankIterAtoB, shaders.RankIterAtoB},
		{&g.rankIterBtoA, shaders.RankIterBtoA},
		{&g.writeMetrics, shaders.WriteMetrics},
	}
	for _, c := range compute {
		p, err := d.NewComputeProgram(c.s)
		if err != nil {
			return nil, newError(KindEnvironmental, "NewGPUSim", err)
		}
		*c.src = p
	}

	var err error
	g.walls.program, err = d.NewProgram(shaders.Walls, shaders.Walls)
	if err != nil {
		return nil, newError(KindEnvironmental, "NewGPUSim", err)
	}
	g.trails.program, err = d.NewProgram(shaders.Trails, shaders.Trails)
	if err != nil {
		return nil, newError(KindEnvironmental, "NewGPUSim", err)
	}
	g.boids.program, err = d.NewProgram(shaders.Boids, shaders.Boids)
	if err != nil {
		return nil, newError(KindEnvironmental, "NewGPUSim", err)
	}
	return g, nil
}

// DispatchCompute runs passes 1-7 against bm, in the order the data
// model's DAG requires: the spatial hash must finish (with a memory
// barrier) before the flocking kernel reads it, and the metrics
// relaxation must run its even iteration count before the final write.
func (g *GPUSim) DispatchCompute(bm *BufferManager, boidCount int) {
	d := g.device
	groups := dispatchCount(boidCount)
	slotGroups := dispatchCount(int(bm.grid.TotalSlots))

	// Every compute pass binds the same fixed uniform block; Program
	// only exposes a vertex/fragment uniform setter (carried over from
	// the teacher's render-only Program shape), so compute passes reuse
	// SetVertexUniforms as their single uniform slot.
	bindUniforms := func(p driver.Program) { p.SetVertexUniforms(bm.Uniforms) }

	bindGrid := func(p driver.Program) {
		p.SetStorageBuffer(BindPositionsIn, bm.ReadPositions())
		p.SetStorageBuffer(BindBoidCellIndex, bm.BoidCellIndex)
		p.SetStorageBuffer(BindCellCounts, bm.CellCounts)
		p.SetStorageBuffer(BindPrefixSums, bm.PrefixSums)
		p.SetStorageBuffer(BindSortedIndices, bm.SortedIndices)
	}

	d.BindProgram(g.clear)
	bindUniforms(g.clear)
	g.clear.SetStorageBuffer(BindCellCounts, bm.CellCounts)
	g.clear.SetStorageBuffer(BindPrefixSums, bm.PrefixSums)
	d.DispatchCompute(slotGroups, 1, 1)
	d.MemoryBarrier()

	d.BindProgram(g.count)
	bindUniforms(g.count)
	bindGrid(g.count)
	d.DispatchCompute(groups, 1, 1)
	d.MemoryBarrier()

	d.BindProgram(g.scan)
	bindUniforms(g.scan)
	g.scan.SetStorageBuffer(BindCellCounts, bm.CellCounts)
	g.scan.SetStorageBuffer(BindPrefixSums, bm.PrefixSums)
	g.scan.SetStorageBuffer(BindBlockSums, bm.BlockSums)
	d.DispatchCompute(blockCount(bm.grid.TotalSlots), 1, 1)
	d.MemoryBarrier()

	d.BindProgram(g.scanBlockSums)
	bindUniforms(g.scanBlockSums)
	g.scanBlockSums.SetStorageBuffer(BindBlockSums, bm.BlockSums)
	d.DispatchCompute(1, 1, 1)
	d.MemoryBarrier()

	d.BindProgram(g.blockOffsetAdd)
	bindUniforms(g.blockOffsetAdd)
	g.blockOffsetAdd.SetStorageBuffer(BindPrefixSums, bm.PrefixSums)
	g.blockOffsetAdd.SetStorageBuffer(BindBlockSums, bm.BlockSums)
	d.DispatchCompute(slotGroups, 1, 1)
	d.MemoryBarrier()

	d.BindProgram(g.scatter)
	bindUniforms(g.scatter)
	bindGrid(g.scatter)
	d.DispatchCompute(groups, 1, 1)
	d.MemoryBarrier()

	d.BindProgram(g.flock)
	bindUniforms(g.flock)
	g.flock.SetStorageBuffer(BindPositionsIn, bm.ReadPositions())
	g.flock.SetStorageBuffer(BindPositionsOut, bm.WritePositions())
	g.flock.SetStorageBuffer(BindVelocitiesIn, bm.ReadVelocities())
	g.flock.SetStorageBuffer(BindVelocitiesOut, bm.WriteVelocities())
	g.flock.SetStorageBuffer(BindSpeciesIDs, bm.SpeciesIDs)
	g.flock.SetStorageBuffer(BindBoidCellIndex, bm.BoidCellIndex)
	g.flock.SetStorageBuffer(BindPrefixSums, bm.PrefixSums)
	g.flock.SetStorageBuffer(BindCellCounts, bm.CellCounts)
	g.flock.SetStorageBuffer(BindSortedIndices, bm.SortedIndices)
	g.flock.SetStorageBuffer(BindSpeciesTable, bm.SpeciesTable)
	g.flock.SetStorageBuffer(BindInteractions, bm.Interactions)
	g.flock.SetStorageBuffer(BindTrails, bm.Trails)
	g.flock.SetStorageBuffer(BindMetrics, bm.Metrics)
	d.DispatchCompute(groups, 1, 1)
	d.MemoryBarrier()
	bm.Swap()

	d.BindProgram(g.rankInit)
	bindUniforms(g.rankInit)
	g.rankInit.SetStorageBuffer(BindPositionsIn, bm.ReadPositions())
	g.rankInit.SetStorageBuffer(BindVelocitiesIn, bm.ReadVelocities())
	g.rankInit.SetStorageBuffer(BindRankA, bm.RankA)
	d.DispatchCompute(groups, 1, 1)
	d.MemoryBarrier()

	for i := 0; i < shaders.RankIterations/2; i++ {
		d.BindProgram(g.rankIterAtoB)
	bindUniforms(g.rankIterAtoB)
		g.rankIterAtoB.SetStorageBuffer(BindBoidCellIndex, bm.BoidCellIndex)
		g.rankIterAtoB.SetStorageBuffer(BindPrefixSums, bm.PrefixSums)
		g.rankIterAtoB.SetStorageBuffer(BindCellCounts, bm.CellCounts)
		g.rankIterAtoB.SetStorageBuffer(BindSortedIndices, bm.SortedIndices)
		g.rankIterAtoB.SetStorageBuffer(BindRankA, bm.RankA)
		g.rankIterAtoB.SetStorageBuffer(BindRankB, bm.RankB)
		d.DispatchCompute(groups, 1, 1)
		d.MemoryBarrier()

		d.BindProgram(g.rankIterBtoA)
	bindUniforms(g.rankIterBtoA)
		g.rankIterBtoA.SetStorageBuffer(BindBoidCellIndex, bm.BoidCellIndex)
		g.rankIterBtoA.SetStorageBuffer(BindPrefixSums, bm.PrefixSums)
		g.rankIterBtoA.SetStorageBuffer(BindCellCounts, bm.CellCounts)
		g.rankIterBtoA.SetStorageBuffer(BindSortedIndices, bm.SortedIndices)
		g.rankIterBtoA.SetStorageBuffer(BindRankA, bm.RankA)
		g.rankIterBtoA.SetStorageBuffer(BindRankB, bm.RankB)
		d.DispatchCompute(groups, 1, 1)
		d.MemoryBarrier()
	}

	d.BindProgram(g.writeMetrics)
	bindUniforms(g.writeMetrics)
	g.writeMetrics.SetStorageBuffer(BindRankA, bm.RankA)
	g.writeMetrics.SetStorageBuffer(BindMetrics, bm.Metrics)
	d.DispatchCompute(groups, 1, 1)
	d.MemoryBarrier()
}

// DispatchRender runs the three draw calls (walls, trails, boids) into
// target. The boid draw is ghost-instanced by 4 the way render.go's
// WGSL expects (instance_index % 4u selects the ghost); the trail draw
// issues one instance per boid per segment (TrailLength-1 segments).
func (g *GPUSim) DispatchRender(target driver.RenderTarget, viewport image.Point, bm *BufferManager, cfg *config.Config) {
	d := g.device
	fb := d.BeginFrame(target, true, viewport)
	defer d.EndFrame()
	d.BindFramebuffer(fb)
	d.Clear(0, 0, 0, 1)
	d.Viewport(0, 0, viewport.X, viewport.Y)

	d.BindProgram(g.walls.program)
	g.walls.program.SetVertexUniforms(bm.Uniforms)
	g.walls.program.SetFragmentUniforms(bm.Uniforms)
	d.BindTexture(0, bm.Wall)
	d.DrawArrays(driver.DrawModeTriangles, 0, 6)

	d.SetBlend(true)
	d.BlendFunc(driver.BlendFactorOne, driver.BlendFactorOneMinusSrcAlpha)

	d.BindProgram(g.trails.program)
	g.trails.program.SetVertexUniforms(bm.Uniforms)
	g.trails.program.SetFragmentUniforms(bm.Uniforms)
	g.trails.program.SetStorageBuffer(BindTrails, bm.Trails)
	g.trails.program.SetStorageBuffer(BindSpeciesIDs, bm.SpeciesIDs)
	g.trails.program.SetStorageBuffer(BindSpeciesTable, bm.SpeciesTable)
	segmentsPerBoid := cfg.TrailLength - 1
	d.DrawArraysInstanced(driver.DrawModeTriangles, 0, 6, cfg.BoidCount*segmentsPerBoid)

	d.BindProgram(g.boids.program)
	g.boids.program.SetVertexUniforms(bm.Uniforms)
	g.boids.program.SetFragmentUniforms(bm.Uniforms)
	g.boids.program.SetStorageBuffer(BindPositionsIn, bm.ReadPositions())
	g.boids.program.SetStorageBuffer(BindVelocitiesIn, bm.ReadVelocities())
	g.boids.program.SetStorageBuffer(BindSpeciesIDs, bm.SpeciesIDs)
	g.boids.program.SetStorageBuffer(BindSpeciesTable, bm.SpeciesTable)
	g.boids.program.SetStorageBuffer(BindMetrics, bm.Metrics)
	g.boids.program.SetStorageBuffer(BindCurves, bm.Curves)
	d.DrawArraysInstanced(driver.DrawModeTriangles, 0, 18, cfg.BoidCount*4)

	d.SetBlend(false)
}

// Release frees every compiled program.
func (g *GPUSim) Release() {
	programs := []driver.Program{
		g.clear, g.count, g.scan, g.scanBlockSums, g.blockOffsetAdd, g.scatter,
		g.flock, g.rankInit, g.rankIterAtoB, g.rankIterBtoA, g.writeMetrics,
		g.walls.program, g.trails.program, g.boids.program,
	}
	for _, p := range programs {
		if p != nil {
			p.Release()
		}
	}
}
