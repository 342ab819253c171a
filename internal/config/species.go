// SPDX-License-Identifier: Unlicense OR MIT

package config

import (
	"encoding/binary"
	"math"
)

// MaxSpecies bounds the species table, per spec.md §3.
const MaxSpecies = 7

// HeadShape names a boid silhouette. It is parsed from TOML and packed
// into the species table; the boid draw shader (internal/shaders.Boids)
// does not read it and always draws a hexagonal triangle fan.
type HeadShape uint32

const (
	HeadShapeArrow HeadShape = iota
	HeadShapeChevron
	HeadShapeDiamond
	HeadShapeCircle
)

// AlphaMode names how a species' boid opacity is derived. It is packed
// into the species table; the boid fragment shader does not read it
// and always draws boids fully opaque.
type AlphaMode uint32

const (
	AlphaOpaque AlphaMode = iota
	AlphaSpeedFade
	AlphaDensityFade
)

// Species is one parameter record, packed as 5 four-float vectors per
// spec.md §3: flocking weights, appearance, and cursor response.
type Species struct {
	// Flocking weights.
	Alignment  float32
	Cohesion   float32
	Separation float32
	Perception float32
	MaxSpeed   float32
	MaxForce   float32
	Rebels     float32

	// Appearance.
	Hue         float32
	Saturation  float32
	Lightness   float32
	HeadShape   HeadShape
	Size        float32
	TrailLength uint32
	AlphaMode   AlphaMode

	// Cursor response.
	CursorForce    float32
	CursorResponse float32
	CursorVortex   float32
}

// speciesRecordFloats is the number of float32 slots per species
// record: 5 vec4s as specified in spec.md §3/§6.
const speciesRecordFloats = 20

// SpeciesTableBytes is the total byte size of the packed species
// uniform array (7 records * 5 vec4s * 4 bytes), zero-padded for
// unused species per spec.md §6.
const SpeciesTableBytes = MaxSpecies * speciesRecordFloats * 4

// PackSpeciesTable packs up to MaxSpecies records into the flat,
// zero-padded array the species uniform buffer expects.
func PackSpeciesTable(species []Species) []byte {
	out := make([]byte, SpeciesTableBytes)
	for i := 0; i < MaxSpecies && i < len(species); i++ {
		packSpeciesRecord(out[i*speciesRecordFloats*4:], species[i])
	}
	return out
}

func packSpeciesRecord(dst []byte, s Species) {
	putF := func(off int, v float32) { putFloat32(dst, off*4, v) }
	putU := func(off int, v uint32) { binary.LittleEndian.PutUint32(dst[off*4:], v) }

	// vec4 0: flocking core.
	putF(0, s.Alignment)
	putF(1, s.Cohesion)
	putF(2, s.Separation)
	putF(3, s.Perception)
	// vec4 1: flocking limits + rebels, padding.
	putF(4, s.MaxSpeed)
	putF(5, s.MaxForce)
	putF(6, s.Rebels)
	putF(7, 0)
	// vec4 2: appearance color.
	putF(8, s.Hue)
	putF(9, s.Saturation)
	putF(10, s.Lightness)
	putU(11, uint32(s.HeadShape))
	// vec4 3: appearance size/trail/alpha.
	putF(12, s.Size)
	putU(13, s.TrailLength)
	putU(14, uint32(s.AlphaMode))
	putF(15, 0)
	// vec4 4: cursor response.
	putF(16, s.CursorForce)
	putF(17, s.CursorResponse)
	putF(18, s.CursorVortex)
	putF(19, 0)
}

func putFloat32(dst []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(v))
}

// UnpackSpeciesTable is PackSpeciesTable's inverse, used by the CPU
// fallback backend to recover a []Species from the same wire bytes a
// real compute pass would bind.
func UnpackSpeciesTable(data []byte) []Species {
	out := make([]Species, MaxSpecies)
	for i := range out {
		out[i] = unpackSpeciesRecord(data[i*speciesRecordFloats*4:])
	}
	return out
}

func unpackSpeciesRecord(src []byte) Species {
	getF := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(src[off*4:])) }
	getU := func(off int) uint32 { return binary.LittleEndian.Uint32(src[off*4:]) }
	return Species{
		Alignment: getF(0), Cohesion: getF(1), Separation: getF(2), Perception: getF(3),
		MaxSpeed: getF(4), MaxForce: getF(5), Rebels: getF(6),
		Hue: getF(8), Saturation: getF(9), Lightness: getF(10), HeadShape: HeadShape(getU(11)),
		Size: getF(12), TrailLength: getU(13), AlphaMode: AlphaMode(getU(14)),
		CursorForce: getF(16), CursorResponse: getF(17), CursorVortex: getF(18),
	}
}
