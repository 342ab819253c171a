// SPDX-License-Identifier: Unlicense OR MIT

// Package shaders holds the WGSL kernel and render sources the
// simulation core dispatches, along with the Go-side constants
// (workgroup size, entry point names) that must agree with them.
//
// Every kernel's text is generated by prepending the single uniform
// struct declaration from internal/config.WGSLUniformsBlock to a body
// string, so the struct can never drift between the Go packing code
// and the WGSL it feeds.
package shaders

import "github.com/fieldflock/fieldflock/internal/config"

// WorkgroupSize is the compute workgroup size of every per-boid and
// per-slot kernel in this package. It must match the @workgroup_size
// attribute embedded in each of those kernel bodies. The scan kernels
// differ: Scan and BlockOffsetAdd declare 256 and ScanBlockSums 1.
const WorkgroupSize = 64

// Source is a compiled-from-text shader module plus the metadata the
// driver needs to build a pipeline from it: its entry point names and,
// for a render module, its vertex attribute layout hint.
type Source struct {
	// Label names the module for driver-level diagnostics and GPU
	// profiler captures.
	Label string
	// WGSL is the full shader module text, uniform struct included.
	WGSL string
	// Compute is the @compute entry point name, empty for render
	// sources.
	Compute string
	// Vertex and Fragment are the render entry point names, empty for
	// compute sources.
	Vertex, Fragment string
}

// withUniforms prepends the shared uniform struct declaration to body.
func withUniforms(body string) string {
	return config.WGSLUniformsBlock() + "\n" + body
}
