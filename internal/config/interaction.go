// SPDX-License-Identifier: Unlicense OR MIT

package config

import (
	"encoding/binary"
	"math"
)

// Behavior selects the steering response a species applies toward
// another species it interacts with.
type Behavior uint32

const (
	BehaviorIgnore Behavior = iota
	BehaviorAvoid
	BehaviorPursue
	BehaviorAttract
	BehaviorMirror
	BehaviorOrbit
)

// InteractionRule is one (source, target) cell of the interaction
// matrix described in spec.md §3/§6.
type InteractionRule struct {
	Behavior Behavior
	Strength float32
	Range    float32
}

// TargetAll is the sentinel target species index meaning "every other
// species", pre-expanded into concrete matrix cells at load time per
// the Open Question resolution in spec.md §9.
const TargetAll = -1

// RawRule is a single authored rule, as it appears in a config file,
// before the target="all" sentinel is expanded.
type RawRule struct {
	Source, Target int // Target == TargetAll means "every other species".
	Rule            InteractionRule
}

// InteractionMatrix is the MAX_SPECIES x MAX_SPECIES table of rules.
type InteractionMatrix [MaxSpecies][MaxSpecies]InteractionRule

// BuildInteractionMatrix expands a set of authored rules into the
// dense matrix. Rules with Target == TargetAll are expanded into every
// column except Source; an explicit (source, target) rule that
// appears anywhere in raw takes precedence over an all-others
// expansion touching the same cell, regardless of which was declared
// first — ties among explicit rules are resolved by declaration order
// (last one wins), matching "idempotent regardless of iteration
// order" for the all-others case while still giving authors a
// deterministic override.
func BuildInteractionMatrix(raw []RawRule) InteractionMatrix {
	var m InteractionMatrix
	var explicit [MaxSpecies][MaxSpecies]bool

	// Pass 1: apply all-others expansions first so later explicit
	// cells always win.
	for _, r := range raw {
		if r.Target != TargetAll {
			continue
		}
		if r.Source < 0 || r.Source >= MaxSpecies {
			continue
		}
		for t := 0; t < MaxSpecies; t++ {
			if t == r.Source || explicit[r.Source][t] {
				continue
			}
			m[r.Source][t] = r.Rule
		}
	}
	// Pass 2: explicit cells always take precedence.
	for _, r := range raw {
		if r.Target == TargetAll {
			continue
		}
		if r.Source < 0 || r.Source >= MaxSpecies || r.Target < 0 || r.Target >= MaxSpecies {
			continue
		}
		m[r.Source][r.Target] = r.Rule
		explicit[r.Source][r.Target] = true
	}
	return m
}

// InteractionMatrixBytes is the wire size of the packed matrix: 49
// vec4s of (behavior, strength, range, 0).
const InteractionMatrixBytes = MaxSpecies * MaxSpecies * 4 * 4

// Bytes packs the matrix row-major in (source, target) order, each
// cell as (behavior, strength, range, 0).
func (m InteractionMatrix) Bytes() []byte {
	out := make([]byte, InteractionMatrixBytes)
	i := 0
	for s := 0; s < MaxSpecies; s++ {
		for t := 0; t < MaxSpecies; t++ {
			r := m[s][t]
			off := i * 16
			binary.LittleEndian.PutUint32(out[off:], uint32(r.Behavior))
			binary.LittleEndian.PutUint32(out[off+4:], math.Float32bits(r.Strength))
			binary.LittleEndian.PutUint32(out[off+8:], math.Float32bits(r.Range))
			binary.LittleEndian.PutUint32(out[off+12:], 0)
			i++
		}
	}
	return out
}

// UnpackInteractionMatrix is Bytes' inverse, used by the CPU fallback
// backend to recover the dense matrix from the same wire bytes a real
// compute pass would bind.
func UnpackInteractionMatrix(data []byte) InteractionMatrix {
	var m InteractionMatrix
	i := 0
	for s := 0; s < MaxSpecies; s++ {
		for t := 0; t < MaxSpecies; t++ {
			off := i * 16
			m[s][t] = InteractionRule{
				Behavior: Behavior(binary.LittleEndian.Uint32(data[off:])),
				Strength: math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:])),
				Range:    math.Float32frombits(binary.LittleEndian.Uint32(data[off+8:])),
			}
			i++
		}
	}
	return m
}
