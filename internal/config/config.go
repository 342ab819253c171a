// SPDX-License-Identifier: Unlicense OR MIT

// Package config holds the plain configuration struct the simulation
// core is driven by, the dirty-flag bitset the host sets to signal
// what changed, and the packing logic that turns both into the wire
// formats described in spec.md §6.
//
// There is deliberately no reactive store here: the host mutates
// Config through the setters below, each of which ORs a bit into
// Dirty. The orchestrator reads and clears that bitset once per frame.
// This replaces the source's framework-reactive store with the plain
// struct-plus-bitset shape spec.md §9 calls for.
package config

// ColorSource selects what raw per-boid quantity feeds a curve (or,
// for the hue channel only, a spectrum palette) in the HSL color
// system described in spec.md §4.5.
type ColorSource uint32

const (
	ColorSourceSpeed ColorSource = iota
	ColorSourceOrientation
	ColorSourceTurning
	ColorSourceTrueTurning
	ColorSourceSpecies
	ColorSourceDensity
	ColorSourceAnisotropy
	ColorSourceSpectral
	ColorSourceSolid
)

// Spectrum selects a built-in palette function for the hue channel,
// used instead of the hue curve when ColorSource selects it.
type Spectrum uint32

const (
	SpectrumNone Spectrum = iota
	SpectrumChrome
	SpectrumOcean
	SpectrumBands
	SpectrumRainbow
	SpectrumMono
)

// SpectralMode selects the statistic the iterative relaxation kernel
// (spec.md §4.4) computes for the spectral/flow metrics channel.
type SpectralMode uint32

const (
	SpectralAngular SpectralMode = iota
	SpectralRadial
	SpectralAsymmetry
	SpectralFlowAngular
	SpectralFlowRadial
	SpectralFlowDivergence
)

// CursorMode selects the interactive cursor's steering behavior.
type CursorMode uint32

const (
	CursorOff CursorMode = iota
	CursorAttract
	CursorRepel
	CursorVortex
)

// CursorShape selects the falloff shape of the cursor's influence
// field; Off/attract/repel/vortex all share this.
type CursorShape uint32

const (
	CursorShapeDisc CursorShape = iota
	CursorShapeRing
)

// Dirty is a bitset the host ORs into as it mutates Config; the
// orchestrator drains and clears it once per frame (spec.md §4.6).
type Dirty uint32

const (
	DirtyParams Dirty = 1 << iota
	DirtySpecies
	DirtyInteractions
	DirtyCurves
	DirtyWall
	DirtyNeedsReallocate
	DirtyNeedsTrailsClear
	DirtyNeedsReset
)

// Has reports whether all bits in want are set.
func (d Dirty) Has(want Dirty) bool { return d&want == want }

// Cursor is the live interactive-cursor state, mutated by the host
// every time the pointer moves or a button changes.
type Cursor struct {
	Mode      CursorMode
	Shape     CursorShape
	Vortex    float32
	Force     float32
	Radius    float32
	Influence float32 // radius beyond which the cursor has no effect
	X, Y      float32
	Pressed   bool
	Active    bool
}

// Color holds the three independent HSL channel sources plus the
// spectrum palette used when the hue channel selects one.
type Color struct {
	HueSource        ColorSource
	SaturationSource ColorSource
	BrightnessSource ColorSource
	Spectrum         Spectrum
	Sensitivity      float32
}

// Config is the plain struct the host mutates; it has no observers and
// no framework bindings. Setters live on *Config and OR the relevant
// bit into Dirty; the orchestrator is the only reader of Dirty.
type Config struct {
	Width, Height float32

	MaxBoids   int // hard ceiling from --max-boids
	BoidCount  int
	Perception float32 // drives cell size; see FineGrid
	FineGrid   bool    // perception/2, 5x5 window opt-in (spec.md §9)

	TrailLength int // TRAIL_CAPACITY's active prefix, per species max

	Alignment, Cohesion, Separation float32
	MaxSpeed, MaxForce              float32
	Noise, Rebels                   float32

	BoundaryMode    BoundaryMode
	Cursor          Cursor
	Color           Color
	BoidSize        float32 // global render-size multiplier on top of each species' authored size
	TimeScale       float32
	GlobalCollision bool // gates the species-agnostic near-zero-distance separation push

	Species      []Species
	Interactions []RawRule
	Curves       Curves

	Wall []byte // R8 obstacle mask, wallDimensions(Width,Height) texels; nil means no obstacles

	Dirty Dirty
}

// Curves holds the authored control points for the three independent
// HSL channel curves (spec.md §4.5); each is a sparse list of (x, y)
// pairs in [0,1]^2 that internal/curve resamples into a 64-sample LUT.
// A nil slice means "identity curve".
type Curves struct {
	Hue        []float32 // flattened (x0,y0,x1,y1,...)
	Saturation []float32
	Brightness []float32
}

// Default returns a Config with the E1 fixture's defaults from
// spec.md §8 and a single default species, ready for immediate use.
func Default(maxBoids int) *Config {
	return &Config{
		Width:        800,
		Height:       600,
		MaxBoids:     maxBoids,
		BoidCount:    min(1000, maxBoids),
		Perception:   80,
		TrailLength:  12,
		Alignment:    1.3,
		Cohesion:     0.6,
		Separation:   1.5,
		MaxSpeed:     4,
		MaxForce:     0.2,
		Noise:        0.02,
		Rebels:       0.1,
		BoundaryMode: BoundaryTorus,
		Color: Color{
			HueSource:        ColorSourceSpecies,
			SaturationSource: ColorSourceSolid,
			BrightnessSource: ColorSourceSolid,
			Sensitivity:      1,
		},
		BoidSize:        1,
		TimeScale:       1,
		GlobalCollision: true,
		Cursor: Cursor{
			Shape:     CursorShapeDisc,
			Vortex:    2,
			Force:     2,
			Radius:    150,
			Influence: 150,
		},
		Species: []Species{{
			Alignment: 1.3, Cohesion: 0.6, Separation: 1.5, Perception: 80,
			MaxSpeed: 4, MaxForce: 0.2, Rebels: 0.1,
			Hue: 0.55, Saturation: 0.7, Lightness: 0.55,
			Size: 6, TrailLength: 12,
		}},
		Dirty: DirtyParams | DirtySpecies | DirtyInteractions | DirtyCurves | DirtyNeedsReallocate | DirtyNeedsReset,
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// SetPopulation changes the active boid count, clamped to
// [0, MaxBoids], and marks the buffers as needing reallocation. A
// count that is unchanged after clamping leaves Dirty untouched.
func (c *Config) SetPopulation(n int) {
	if n < 0 {
		n = 0
	}
	if n > c.MaxBoids {
		n = c.MaxBoids
	}
	if n == c.BoidCount {
		return
	}
	c.BoidCount = n
	c.Dirty |= DirtyParams | DirtyNeedsReallocate
}

// SetPerception changes the default perception radius. Shrinking it
// never reallocates the grid (spec.md §4.1); growing it past the
// value the grid was sized for does.
func (c *Config) SetPerception(p float32, gridMinPerception float32) {
	c.Perception = p
	c.Dirty |= DirtyParams
	if p > gridMinPerception {
		c.Dirty |= DirtyNeedsReallocate
	}
}

// SetSpecies replaces the species table and marks it dirty.
func (c *Config) SetSpecies(species []Species) {
	if len(species) > MaxSpecies {
		species = species[:MaxSpecies]
	}
	c.Species = species
	c.Dirty |= DirtySpecies
}

// SetInteractions replaces the authored interaction rules and marks
// the matrix dirty; expansion happens when the orchestrator next
// consumes the dirty flag.
func (c *Config) SetInteractions(rules []RawRule) {
	c.Interactions = rules
	c.Dirty |= DirtyInteractions
}

// SetBoundaryMode changes the active topology.
func (c *Config) SetBoundaryMode(m BoundaryMode) {
	c.BoundaryMode = m
	c.Dirty |= DirtyParams
}

// SetCanvas resizes the simulation's canvas, requiring a grid
// recompute and a trail reset (spec.md §4.6).
func (c *Config) SetCanvas(w, h float32) {
	c.Width, c.Height = w, h
	c.Dirty |= DirtyParams | DirtyNeedsReallocate | DirtyNeedsTrailsClear
}

// SetWall replaces the obstacle mask and marks it as needing a
// re-upload; pixels must be wallDimensions(c.Width, c.Height) texels.
func (c *Config) SetWall(pixels []byte) {
	c.Wall = pixels
	c.Dirty |= DirtyWall
}

// SetGlobalCollision toggles the species-agnostic push applied when two
// boids land on nearly the same point.
func (c *Config) SetGlobalCollision(enabled bool) {
	c.GlobalCollision = enabled
	c.Dirty |= DirtyParams
}

// SetCurves replaces the authored HSL curve control points and marks
// them as needing a resample and re-upload.
func (c *Config) SetCurves(curves Curves) {
	c.Curves = curves
	c.Dirty |= DirtyCurves
}

// SetCursor replaces the live interactive-cursor state; the host calls
// this from its pointer-move/button callbacks every time either
// changes.
func (c *Config) SetCursor(cursor Cursor) {
	c.Cursor = cursor
}

// ClearDirty drains and clears the dirty bitset, returning the flags
// that were set since the last call.
func (c *Config) ClearDirty() Dirty {
	d := c.Dirty
	c.Dirty = 0
	return d
}
