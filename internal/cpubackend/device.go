// SPDX-License-Identifier: Unlicense OR MIT

package cpubackend

import (
	"encoding/binary"
	"errors"
	"image"
	"math"

	"github.com/fieldflock/fieldflock/internal/config"
	"github.com/fieldflock/fieldflock/internal/driver"
	"github.com/fieldflock/fieldflock/internal/shaders"
	"github.com/fieldflock/fieldflock/internal/sim"
)

// Device is the headless driver.Device implementation: every buffer
// and texture lives in plain Go memory, and DispatchCompute recognizes
// the eleven compute pass labels internal/shaders defines and runs
// the matching internal/sim reference function instead of interpreting
// WGSL. The parallel spatial-hash DAG (clear/count/scan/scan-block-
// sums/add-block-offsets/scatter) collapses into one sim.Grid.Build
// call at the count_boids dispatch; the other five passes in that
// group are no-ops here, since they exist only to make the scan
// parallelizable on real hardware.
type Device struct {
	bound *Program
	grid  *sim.Grid

	trails         *sim.TrailRing
	trailBoidCount int

	bindingGroups int
}

// New returns a headless Device, the escape hatch the teacher's own
// gpu/compute.go reaches for (g.useCPU) generalized from path
// rasterization to boid compute.
func New() *Device { return &Device{} }

func (d *Device) BeginFrame(target driver.RenderTarget, clear bool, viewport image.Point) driver.Framebuffer {
	fb, _ := target.(*Framebuffer)
	if fb == nil {
		fb = &Framebuffer{Width: viewport.X, Height: viewport.Y, Pixels: make([]byte, viewport.X*viewport.Y*4)}
	}
	return fb
}

func (d *Device) EndFrame() {}

func (d *Device) Caps() driver.Caps {
	return driver.Caps{Features: driver.FeatureCompute, MaxTextureSize: 8192}
}

func (d *Device) NewTimer() driver.Timer          { return Timer{} }
func (d *Device) IsTimeContinuous() bool          { return true }

func (d *Device) NewTexture(format driver.TextureFormat, width, height int, minFilter, magFilter driver.TextureFilter, bindings driver.BufferBinding) (driver.Texture, error) {
	bpp := 1
	if format == driver.TextureFormatRGBA8 || format == driver.TextureFormatSRGBA {
		bpp = 4
	}
	return &Texture{Format: format, Width: width, Height: height, Pixels: make([]byte, width*height*bpp)}, nil
}

func (d *Device) NewFramebuffer(tex driver.Texture) (driver.Framebuffer, error) {
	t, ok := tex.(*Texture)
	if !ok {
		return nil, errors.New("cpubackend: not a cpubackend.Texture")
	}
	return &Framebuffer{Width: t.Width, Height: t.Height, Pixels: t.Pixels}, nil
}

func (d *Device) NewImmutableBuffer(typ driver.BufferBinding, data []byte) (driver.Buffer, error) {
	b := newBuffer(len(data))
	b.Upload(data)
	return b, nil
}

func (d *Device) NewBuffer(typ driver.BufferBinding, size int) (driver.Buffer, error) {
	return newBuffer(size), nil
}

func (d *Device) NewComputeProgram(src shaders.Source) (driver.Program, error) {
	return newProgram(src.Compute), nil
}

func (d *Device) NewProgram(vertexShader, fragmentShader shaders.Source) (driver.Program, error) {
	return newProgram(vertexShader.Vertex + "/" + fragmentShader.Fragment), nil
}

func (d *Device) NewInputLayout(vertexShader shaders.Source, layout []driver.InputDesc) (driver.InputLayout, error) {
	return InputLayout{}, nil
}

// Render state is tracked only enough to satisfy the interface; the
// CPU backend never rasterizes (see Framebuffer's doc comment), so
// these are no-ops.
func (d *Device) Clear(r, g, b, a float32)                                 {}
func (d *Device) Viewport(x, y, width, height int)                         {}
func (d *Device) DrawArrays(mode driver.DrawMode, off, count int)          {}
func (d *Device) DrawArraysInstanced(mode driver.DrawMode, off, count, instances int) {}
func (d *Device) SetBlend(enable bool)                                     {}
func (d *Device) BlendFunc(sfactor, dfactor driver.BlendFactor)            {}
func (d *Device) BindInputLayout(i driver.InputLayout)                    {}
func (d *Device) BindFramebuffer(f driver.Framebuffer)                    {}
func (d *Device) BindTexture(unit int, t driver.Texture)                  {}
func (d *Device) BindVertexBuffer(b driver.Buffer, stride, offset int)    {}
func (d *Device) BindImageTexture(unit int, texture driver.Texture, access driver.AccessBits, format driver.TextureFormat) {
}

func (d *Device) BindProgram(p driver.Program) { d.bound, _ = p.(*Program) }

func (d *Device) MemoryBarrier() {}

// DispatchCompute runs the pass currently bound by BindProgram. x/y/z
// are ignored beyond reporting there is work to do: a sequential Go
// pass has no notion of workgroup count.
func (d *Device) DispatchCompute(x, y, z int) {
	if d.bound == nil || x == 0 {
		return
	}
	switch d.bound.label {
	case "count_boids":
		d.runSpatialHash(d.bound)
	case "clear_grid", "scan_blelloch", "scan_block_sums", "add_block_offsets", "scatter_indices":
		// Folded into count_boids above.
	case "flock":
		d.runFlock(d.bound)
	case "rank_init", "rank_iter_a_to_b", "rank_iter_b_to_a", "write_metrics":
		// The spectral/flow metrics channel is cosmetic; the CPU
		// fallback skips the relaxation and leaves the rank channel
		// at its seeded value rather than porting four more kernels
		// nothing in §8's properties exercises.
	}
}

func (d *Device) Release() {}

var _ driver.Device = (*Device)(nil)

func (d *Device) runSpatialHash(p *Program) {
	u := config.UniformsFromBytes(p.vertUniforms.data)
	positions := decodeVec2s(p.storage[sim.BindPositionsIn].data, int(u.BoidCount()))
	d.grid = sim.NewGrid(u.Width(), u.Height(), u.CellSize(), u.BoundaryMode())
	d.grid.Build(positions)

	encodeUint32s(p.storage[sim.BindBoidCellIndex].data, d.grid.BoidCellIndex)
	encodeUint32s(p.storage[sim.BindCellCounts].data, d.grid.CellCounts)
	encodeUint32s(p.storage[sim.BindPrefixSums].data, d.grid.PrefixSums)
	encodeUint32s(p.storage[sim.BindSortedIndices].data, d.grid.SortedIndices)
}

func (d *Device) runFlock(p *Program) {
	u := config.UniformsFromBytes(p.vertUniforms.data)
	n := int(u.BoidCount())

	positions := decodeVec2s(p.storage[sim.BindPositionsIn].data, n)
	velocities := decodeVec2s(p.storage[sim.BindVelocitiesIn].data, n)
	speciesIDs := decodeUint32s(p.storage[sim.BindSpeciesIDs].data, n)
	speciesTable := config.UnpackSpeciesTable(p.storage[sim.BindSpeciesTable].data)
	matrix := config.UnpackInteractionMatrix(p.storage[sim.BindInteractions].data)

	cfg := &config.Config{
		Width: u.Width(), Height: u.Height(),
		BoidCount: n, Perception: u.CellSize(), FineGrid: u.FineGrid(),
		BoundaryMode: u.BoundaryMode(), Noise: u.Noise(),
		GlobalCollision: u.GlobalCollision(),
		Species:         speciesTable,
	}

	boids := make([]sim.Boid, n)
	for i := range boids {
		sp := 0
		if i < len(speciesIDs) {
			sp = int(speciesIDs[i])
		}
		boids[i] = sim.Boid{Pos: positions[i], Vel: velocities[i], Species: sp}
	}

	f := &sim.Flock{Config: cfg, Grid: d.grid, Matrix: matrix, FrameCount: u.FrameCount()}
	if f.Grid == nil {
		f.Grid = sim.NewGrid(cfg.Width, cfg.Height, cfg.Perception, cfg.BoundaryMode)
	}
	f.Step(boids, u.DeltaTime())

	outPositions := make([]sim.Vec2, n)
	outVelocities := make([]sim.Vec2, n)
	for i, b := range boids {
		outPositions[i] = b.Pos
		outVelocities[i] = b.Vel
	}
	encodeVec2s(p.storage[sim.BindPositionsOut].data, outPositions)
	encodeVec2s(p.storage[sim.BindVelocitiesOut].data, outVelocities)

	// The rank/spectral channel (metrics.w) is left at its seeded
	// value: the CPU fallback skips the six-pass relaxation kernel,
	// per DESIGN.md.
	metricsData := p.storage[sim.BindMetrics].data
	for i, b := range boids {
		off := i * 16
		binary.LittleEndian.PutUint32(metricsData[off:], math.Float32bits(b.Density))
		binary.LittleEndian.PutUint32(metricsData[off+4:], math.Float32bits(b.Anisotropy))
		binary.LittleEndian.PutUint32(metricsData[off+8:], math.Float32bits(b.Turning))
	}

	if d.trails == nil || d.trailBoidCount != n {
		d.trails = sim.NewTrailRing(n)
		d.trailBoidCount = n
	}
	d.trails.Head = int(u.TrailHead())
	for i, pos := range outPositions {
		d.trails.Write(i, pos)
	}
	copy(p.storage[sim.BindTrails].data, d.trails.Bytes())
}

func decodeVec2s(data []byte, n int) []sim.Vec2 {
	out := make([]sim.Vec2, n)
	for i := 0; i < n; i++ {
		off := i * 8
		out[i] = sim.Vec2{
			X: math.Float32frombits(binary.LittleEndian.Uint32(data[off:])),
			Y: math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:])),
		}
	}
	return out
}

func encodeVec2s(data []byte, vs []sim.Vec2) {
	for i, v := range vs {
		off := i * 8
		binary.LittleEndian.PutUint32(data[off:], math.Float32bits(v.X))
		binary.LittleEndian.PutUint32(data[off+4:], math.Float32bits(v.Y))
	}
}

func decodeUint32s(data []byte, n int) []uint32 {
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return out
}

func encodeUint32s(data []byte, vs []uint32) {
	for i, v := range vs {
		if (i+1)*4 > len(data) {
			break
		}
		binary.LittleEndian.PutUint32(data[i*4:], v)
	}
}
