// SPDX-License-Identifier: Unlicense OR MIT

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInteractionMatrixAllOthersExpansion(t *testing.T) {
	raw := []RawRule{
		{Source: 0, Target: TargetAll, Rule: InteractionRule{Behavior: BehaviorAvoid, Strength: 1}},
	}
	m := BuildInteractionMatrix(raw)
	for t2 := 0; t2 < MaxSpecies; t2++ {
		if t2 == 0 {
			assert.Equal(t, InteractionRule{}, m[0][t2], "source should not target itself")
			continue
		}
		assert.Equal(t, BehaviorAvoid, m[0][t2].Behavior)
	}
}

func TestBuildInteractionMatrixExplicitOverridesAllOthers(t *testing.T) {
	raw := []RawRule{
		{Source: 0, Target: TargetAll, Rule: InteractionRule{Behavior: BehaviorAvoid, Strength: 1}},
		{Source: 0, Target: 2, Rule: InteractionRule{Behavior: BehaviorPursue, Strength: 2}},
	}
	m := BuildInteractionMatrix(raw)
	assert.Equal(t, BehaviorPursue, m[0][2].Behavior)
	assert.Equal(t, BehaviorAvoid, m[0][1].Behavior)
}

func TestBuildInteractionMatrixOrderIndependent(t *testing.T) {
	a := []RawRule{
		{Source: 1, Target: TargetAll, Rule: InteractionRule{Behavior: BehaviorMirror}},
		{Source: 1, Target: 3, Rule: InteractionRule{Behavior: BehaviorOrbit}},
	}
	b := []RawRule{a[1], a[0]}
	assert.Equal(t, BuildInteractionMatrix(a), BuildInteractionMatrix(b))
}

func TestBuildInteractionMatrixLastExplicitWins(t *testing.T) {
	raw := []RawRule{
		{Source: 0, Target: 1, Rule: InteractionRule{Behavior: BehaviorAvoid}},
		{Source: 0, Target: 1, Rule: InteractionRule{Behavior: BehaviorAttract}},
	}
	m := BuildInteractionMatrix(raw)
	assert.Equal(t, BehaviorAttract, m[0][1].Behavior)
}

func TestInteractionMatrixBytesLength(t *testing.T) {
	var m InteractionMatrix
	assert.Len(t, m.Bytes(), InteractionMatrixBytes)
}

func TestBoundaryRuleDefaultsToPlane(t *testing.T) {
	var unknown BoundaryMode = 99
	assert.Equal(t, BoundaryPlane.Rule(), unknown.Rule())
}

func TestBoundaryRuleTable(t *testing.T) {
	torus := BoundaryTorus.Rule()
	assert.True(t, torus.WrapsAxis(0))
	assert.True(t, torus.WrapsAxis(1))

	mobiusX := BoundaryMobiusX.Rule()
	assert.True(t, mobiusX.WrapsAxis(0))
	assert.False(t, mobiusX.WrapsAxis(1))
	assert.True(t, mobiusX.FlipOnWrapX)
	assert.True(t, mobiusX.BounceY)
}

func TestPackSpeciesTablePadsUnused(t *testing.T) {
	out := PackSpeciesTable([]Species{{Alignment: 1}})
	assert.Len(t, out, SpeciesTableBytes)
	// Second record onward must be all-zero.
	for _, b := range out[speciesRecordFloats*4:] {
		if b != 0 {
			t.Fatalf("expected zero padding beyond first species record")
		}
	}
}

func TestUniformsBytesRoundTrips(t *testing.T) {
	var u Uniforms
	u.SetCanvas(800, 600)
	u.SetPopulation(15000, 12, 0)
	out := u.Bytes()
	require.Len(t, out, UniformSize)
	assert.Equal(t, &u, UniformsFromBytes(out))
}

func TestWGSLUniformsBlockCoversAllFields(t *testing.T) {
	block := WGSLUniformsBlock()
	for _, f := range uniformLayout {
		assert.Contains(t, block, f.name)
	}
	assert.Contains(t, block, "_reserved")
}

func TestLoadBytesOverridesDefaults(t *testing.T) {
	data := []byte(`
[sim]
boid_count = 500
boundary = "klein_x"

[[species]]
alignment = 2.0
hue = 0.1

[[interaction]]
source = 0
target = "all"
behavior = "avoid"
strength = 1.0
range = 50.0
`)
	c, err := LoadBytes(data, 20000)
	require.NoError(t, err)
	assert.Equal(t, 500, c.BoidCount)
	assert.Equal(t, BoundaryKleinX, c.BoundaryMode)
	require.Len(t, c.Species, 1)
	assert.Equal(t, float32(2.0), c.Species[0].Alignment)
	require.Len(t, c.Interactions, 1)
	assert.Equal(t, TargetAll, c.Interactions[0].Target)
}

func TestLoadBytesRejectsUnknownEnum(t *testing.T) {
	_, err := LoadBytes([]byte("[sim]\nboundary = \"not-a-topology\"\n"), 1000)
	assert.Error(t, err)
}

func TestConfigSetPopulationClampsAndMarksDirty(t *testing.T) {
	c := Default(2000)
	c.ClearDirty()
	c.SetPopulation(5000)
	assert.Equal(t, 2000, c.BoidCount)
	assert.True(t, c.Dirty.Has(DirtyNeedsReallocate))
}

func TestConfigSetCanvasMarksTrailsClear(t *testing.T) {
	c := Default(1000)
	c.ClearDirty()
	c.SetCanvas(1024, 768)
	assert.True(t, c.Dirty.Has(DirtyNeedsTrailsClear))
}
