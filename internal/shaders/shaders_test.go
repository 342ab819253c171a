// SPDX-License-Identifier: Unlicense OR MIT

package shaders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSourcesCarryUniformBlock(t *testing.T) {
	sources := []Source{Clear, Count, Scan, ScanBlockSums, BlockOffsetAdd, Scatter, Flocking, RankInit, RankIterAtoB, RankIterBtoA, WriteMetrics}
	for _, s := range sources {
		assert.NotEmpty(t, s.Compute, s.Label)
		assert.Contains(t, s.WGSL, "struct Uniforms", s.Label)
		assert.Contains(t, s.WGSL, "@compute", s.Label)
	}
}

func TestRenderSourcesCarryUniformBlock(t *testing.T) {
	sources := []Source{Walls, Trails, Boids}
	for _, s := range sources {
		assert.NotEmpty(t, s.Vertex, s.Label)
		assert.NotEmpty(t, s.Fragment, s.Label)
		assert.Contains(t, s.WGSL, "struct Uniforms", s.Label)
		assert.Contains(t, s.WGSL, "@vertex", s.Label)
		assert.Contains(t, s.WGSL, "@fragment", s.Label)
	}
}

func TestFlockingBodyHasNoUnresolvedPlaceholders(t *testing.T) {
	assert.False(t, strings.Contains(Flocking.WGSL, "%!"), "flocking WGSL contains an unresolved fmt verb")
	assert.False(t, strings.Contains(Flocking.WGSL, "${"), "flocking WGSL contains an unresolved template placeholder")
	assert.Contains(t, Flocking.WGSL, "fn flock(")
}

func TestRankIterationsIsEven(t *testing.T) {
	assert.Equal(t, 0, RankIterations%2)
}
