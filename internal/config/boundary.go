// SPDX-License-Identifier: Unlicense OR MIT

package config

// BoundaryMode selects one of the nine boundary topologies described in
// spec.md §6. The numeric values are the wire values shared with the
// WGSL kernels and must never be renumbered without updating both
// sides.
type BoundaryMode uint32

const (
	BoundaryPlane BoundaryMode = iota
	BoundaryCylinderX
	BoundaryCylinderY
	BoundaryTorus
	BoundaryMobiusX
	BoundaryMobiusY
	BoundaryKleinX
	BoundaryKleinY
	BoundaryProjectivePlane
)

// BoundaryRule describes how a single topology treats each axis: does
// it wrap at all, does wrapping flip the orthogonal axis, and does the
// non-wrapping axis bounce (reflect velocity) instead of clamping.
type BoundaryRule struct {
	WrapX, WrapY         bool
	FlipOnWrapX          bool
	FlipOnWrapY          bool
	BounceX, BounceY     bool
}

// boundaryTable is indexed by BoundaryMode and is the single place the
// nine topologies are defined; the flocking kernel's neighbor search
// and the integrator's boundary step both read it.
var boundaryTable = [...]BoundaryRule{
	BoundaryPlane:           {BounceX: true, BounceY: true},
	BoundaryCylinderX:       {WrapX: true, BounceY: true},
	BoundaryCylinderY:       {WrapY: true, BounceX: true},
	BoundaryTorus:           {WrapX: true, WrapY: true},
	BoundaryMobiusX:         {WrapX: true, FlipOnWrapX: true, BounceY: true},
	BoundaryMobiusY:         {WrapY: true, FlipOnWrapY: true, BounceX: true},
	BoundaryKleinX:          {WrapX: true, WrapY: true, FlipOnWrapX: true},
	BoundaryKleinY:          {WrapX: true, WrapY: true, FlipOnWrapY: true},
	BoundaryProjectivePlane: {WrapX: true, WrapY: true, FlipOnWrapX: true, FlipOnWrapY: true},
}

// Rule returns the boundary behavior for mode, or the Plane rule for
// an unrecognized value — the "unknown values fall through to a
// documented default branch" policy from spec.md §9.
func (m BoundaryMode) Rule() BoundaryRule {
	if int(m) < len(boundaryTable) {
		return boundaryTable[m]
	}
	return boundaryTable[BoundaryPlane]
}

// WrapsAxis reports whether the given axis wraps under this topology.
func (r BoundaryRule) WrapsAxis(axis int) bool {
	if axis == 0 {
		return r.WrapX
	}
	return r.WrapY
}
