// SPDX-License-Identifier: Unlicense OR MIT

package sim

// Binding indices for the compute passes' storage buffers. These are
// the single place the orchestrator (which calls Program.SetStorageBuffer
// while building each pass) and a driver.Device backend (which reads
// those bindings back out at dispatch time) agree on buffer order,
// standing in for the WGSL @binding reflection a production WebGPU
// backend would normally read from the shader module.
const (
	BindPositionsIn = iota
	BindPositionsOut
	BindVelocitiesIn
	BindVelocitiesOut
	BindSpeciesIDs
	BindBoidCellIndex
	BindPrefixSums
	BindCellCounts
	BindSortedIndices
	BindBlockSums
	BindSpeciesTable
	BindInteractions
	BindTrails
	BindMetrics
	BindRankA
	BindRankB
	BindCurves
)
