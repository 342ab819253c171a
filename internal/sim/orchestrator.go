// SPDX-License-Identifier: Unlicense OR MIT

package sim

import (
	"image"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/fieldflock/fieldflock/internal/config"
	"github.com/fieldflock/fieldflock/internal/curve"
	"github.com/fieldflock/fieldflock/internal/driver"
	"github.com/fieldflock/fieldflock/internal/logging"
)

var log = logging.New("sim")

// Orchestrator drives one simulation: it owns the device-agnostic
// GPUSim/BufferManager pair, walks Config's dirty bitset once per
// frame to decide what to re-upload, and reports FPS at 1 Hz the way
// the teacher's own frame loop tracks paint timings.
type Orchestrator struct {
	device driver.Device
	engine *GPUSim
	bm     *BufferManager
	cfg    *config.Config
	life   *Lifecycle

	// RunID labels this instance in its startup and FPS log lines so
	// concurrent runs can be told apart.
	RunID uuid.UUID

	uniforms   config.Uniforms
	frameCount uint32
	simTime    float32

	fpsWindowStart time.Time
	fpsFrames      int
}

// NewOrchestrator brings a device from Uninitialized through
// BuffersReady, uploading every initial buffer from cfg.
func NewOrchestrator(d driver.Device, cfg *config.Config) (*Orchestrator, error) {
	life := NewLifecycle()
	if err := life.Transition(DeviceReady); err != nil {
		return nil, err
	}

	engine, err := NewGPUSim(d)
	if err != nil {
		return nil, err
	}
	bm, err := NewBufferManager(d, cfg)
	if err != nil {
		return nil, newError(KindEnvironmental, "NewOrchestrator", err)
	}
	if err := life.Transition(BuffersReady); err != nil {
		return nil, err
	}

	o := &Orchestrator{device: d, engine: engine, bm: bm, cfg: cfg, life: life, RunID: uuid.New(), fpsWindowStart: time.Now()}
	o.seed()
	o.uploadStaticState()
	if err := life.Transition(Running); err != nil {
		return nil, err
	}
	log.Infof("run %s started: boids=%d canvas=%.0fx%.0f", o.RunID, o.cfg.BoidCount, o.cfg.Width, o.cfg.Height)
	return o, nil
}

// seed places BoidCount boids uniformly at random across the canvas
// with unit-speed random headings, the same fixture E1-E6 assume
// "random initial placement" means.
func (o *Orchestrator) seed() {
	n := o.cfg.BoidCount
	positions := make([]byte, n*8)
	velocities := make([]byte, n*8)
	speciesIDs := make([]byte, n*4)
	r := rand.New(rand.NewSource(1))
	for i := 0; i < n; i++ {
		x := r.Float32() * o.cfg.Width
		y := r.Float32() * o.cfg.Height
		angle := r.Float32() * 2 * 3.14159265
		sp := uint32(0)
		if len(o.cfg.Species) > 1 {
			sp = uint32(i % len(o.cfg.Species))
		}
		putVec2(positions, i, x, y)
		putVec2(velocities, i, float32(math.Cos(float64(angle))), float32(math.Sin(float64(angle))))
		putU32(speciesIDs, i, sp)
	}
	o.bm.PositionsA.Upload(positions)
	o.bm.VelocitiesA.Upload(velocities)
	o.bm.SpeciesIDs.Upload(speciesIDs)
	o.bm.Trails.Upload(make([]byte, n*config.TrailCapacity*8))
}

func (o *Orchestrator) uploadStaticState() {
	o.uniforms.SetCanvas(o.cfg.Width, o.cfg.Height)
	o.applyParams()
	matrix := config.BuildInteractionMatrix(o.cfg.Interactions)
	o.bm.Interactions.Upload(matrix.Bytes())
	o.bm.SpeciesTable.Upload(config.PackSpeciesTable(o.cfg.Species))
	o.bm.Uniforms.Upload(o.uniforms.Bytes())
}

func (o *Orchestrator) applyParams() {
	cellSize := o.cfg.Perception
	if cellSize < config.MinPerception {
		cellSize = config.MinPerception
	}
	if o.cfg.FineGrid {
		cellSize /= 2
	}
	o.uniforms.SetGrid(cellSize, o.bm.grid.GridW, o.bm.grid.GridH)
	o.uniforms.SetGridMeta(o.bm.grid.ReducedWidth, o.bm.grid.TotalSlots)
	o.uniforms.SetPopulation(uint32(o.cfg.BoidCount), uint32(o.cfg.TrailLength), 0)
	o.uniforms.SetDefaults(o.cfg.Alignment, o.cfg.Cohesion, o.cfg.Separation, o.cfg.Perception, o.cfg.MaxSpeed, o.cfg.MaxForce, o.cfg.Noise, o.cfg.Rebels)
	o.uniforms.SetBoundaryMode(o.cfg.BoundaryMode)
	o.uniforms.SetFineGrid(o.cfg.FineGrid)
	o.uniforms.SetGlobalCollision(o.cfg.GlobalCollision)
	o.uniforms.SetAppearance(o.cfg.BoidSize)
}

// uploadCurves resamples the authored hue/saturation/brightness
// control points into fixed-length LUTs and uploads the packed result,
// the host-visible half of config.DirtyCurves.
func (o *Orchestrator) uploadCurves() {
	hue := curve.Resample(toCurvePoints(o.cfg.Curves.Hue))
	sat := curve.Resample(toCurvePoints(o.cfg.Curves.Saturation))
	bright := curve.Resample(toCurvePoints(o.cfg.Curves.Brightness))
	o.bm.WriteCurves(curve.Bytes(hue, sat, bright))
}

// toCurvePoints unflattens a (x0,y0,x1,y1,...) control-point list into
// curve.Points; an odd trailing value is dropped.
func toCurvePoints(flat []float32) []curve.Point {
	n := len(flat) / 2
	pts := make([]curve.Point, n)
	for i := 0; i < n; i++ {
		pts[i] = curve.Point{X: flat[i*2], Y: flat[i*2+1]}
	}
	return pts
}

// Frame advances the simulation by dt seconds, applying any
// configuration the host mutated since the last call before
// dispatching compute and render. It is the single per-frame entry
// point cmd/fieldflock's event loop calls.
func (o *Orchestrator) Frame(target driver.RenderTarget, viewport image.Point, dt float32) error {
	if o.life.State() != Running {
		return nil
	}
	dirty := o.cfg.ClearDirty()
	if dirty.Has(config.DirtyNeedsReallocate) {
		if err := o.bm.reallocate(o.cfg); err != nil {
			return err
		}
		o.seed()
		dirty |= config.DirtySpecies | config.DirtyInteractions
	}
	if dirty.Has(config.DirtyNeedsReset) {
		o.seed()
	}
	if dirty.Has(config.DirtyNeedsTrailsClear) {
		o.bm.Trails.Upload(make([]byte, o.cfg.BoidCount*config.TrailCapacity*8))
	}
	if dirty.Has(config.DirtySpecies) {
		o.bm.SpeciesTable.Upload(config.PackSpeciesTable(o.cfg.Species))
	}
	if dirty.Has(config.DirtyInteractions) {
		matrix := config.BuildInteractionMatrix(o.cfg.Interactions)
		o.bm.Interactions.Upload(matrix.Bytes())
	}
	if dirty.Has(config.DirtyWall) {
		o.bm.WriteWall(o.cfg.Wall)
	}
	if dirty.Has(config.DirtyCurves) {
		o.uploadCurves()
	}
	if dirty != 0 {
		o.applyParams()
	}

	o.simTime += dt
	o.frameCount++
	trailHead := o.frameCount % uint32(config.TrailCapacity)
	o.uniforms.SetPopulation(uint32(o.cfg.BoidCount), uint32(o.cfg.TrailLength), trailHead)
	o.uniforms.SetClock(dt, o.simTime, o.frameCount, o.cfg.TimeScale)
	c := o.cfg.Cursor
	o.uniforms.SetCursor(uint32(c.Mode), uint32(c.Shape), c.Vortex, c.Force, c.Radius, c.X, c.Y, c.Pressed, c.Active)
	o.bm.Uniforms.Upload(o.uniforms.Bytes())

	o.engine.DispatchCompute(o.bm, o.cfg.BoidCount)
	o.engine.DispatchRender(target, viewport, o.bm, o.cfg)

	o.fpsFrames++
	if elapsed := time.Since(o.fpsWindowStart); elapsed >= time.Second {
		log.Infof("run %s fps=%.1f boids=%d", o.RunID, float64(o.fpsFrames)/elapsed.Seconds(), o.cfg.BoidCount)
		o.fpsFrames = 0
		o.fpsWindowStart = time.Now()
	}
	return nil
}

// Pause and Resume implement the Running<->Paused half of the
// lifecycle (spec.md §4.7); a paused orchestrator's Frame is a no-op.
func (o *Orchestrator) Pause() error  { return o.life.Transition(Paused) }
func (o *Orchestrator) Resume() error { return o.life.Transition(Running) }

func (o *Orchestrator) State() State { return o.life.State() }

// Close tears down every GPU resource and transitions to TornDown.
func (o *Orchestrator) Close() {
	o.bm.Release()
	o.engine.Release()
	o.device.Release()
	o.life.Transition(TornDown)
}

func putVec2(dst []byte, i int, x, y float32) {
	off := i * 8
	putF32(dst, off, x)
	putF32(dst, off+4, y)
}

func putF32(dst []byte, off int, v float32) {
	bits := math.Float32bits(v)
	dst[off] = byte(bits)
	dst[off+1] = byte(bits >> 8)
	dst[off+2] = byte(bits >> 16)
	dst[off+3] = byte(bits >> 24)
}

func putU32(dst []byte, i int, v uint32) {
	off := i * 4
	dst[off] = byte(v)
	dst[off+1] = byte(v >> 8)
	dst[off+2] = byte(v >> 16)
	dst[off+3] = byte(v >> 24)
}
