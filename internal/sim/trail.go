// SPDX-License-Identifier: Unlicense OR MIT

package sim

import (
	"encoding/binary"
	"math"

	"github.com/fieldflock/fieldflock/internal/config"
)

// TrailRing is the pure-Go twin of the per-boid trail ring buffer the
// flocking kernel writes one slot of every frame
// (trails[i*TrailCapacity+trailHead] = new_pos). One store per frame,
// per spec.md §9's "no legacy per-segment append path" resolution.
type TrailRing struct {
	Capacity int
	Head     int
	slots    []Vec2 // boidCount * Capacity, row-major by boid
	perBoid  int
}

// NewTrailRing allocates a ring sized for boidCount boids.
func NewTrailRing(boidCount int) *TrailRing {
	return &TrailRing{
		Capacity: config.TrailCapacity,
		slots:    make([]Vec2, boidCount*config.TrailCapacity),
		perBoid:  config.TrailCapacity,
	}
}

// Write stores pos at the current head slot for boid i. The caller
// advances Head once per frame, after every boid has been written,
// exactly as the orchestrator increments trailHead between frames.
func (r *TrailRing) Write(i int, pos Vec2) {
	r.slots[i*r.perBoid+r.Head] = pos
}

// Advance moves the head to the next ring slot, wrapping at Capacity.
func (r *TrailRing) Advance() {
	r.Head = (r.Head + 1) % r.Capacity
}

// At returns the stored position for boid i, slots-back frames before
// the current head. 0 is the head slot itself, which Write fills next;
// once Advance has run, 1 is the slot Write last wrote to.
func (r *TrailRing) At(i, slotsBack int) Vec2 {
	slot := ((r.Head-slotsBack)%r.Capacity + r.Capacity) % r.Capacity
	return r.slots[i*r.perBoid+slot]
}

// Bytes packs the full ring into the same row-major-by-boid wire
// layout the GPU trails buffer uses (trails[i*Capacity+slot]).
func (r *TrailRing) Bytes() []byte {
	out := make([]byte, len(r.slots)*8)
	for i, v := range r.slots {
		binary.LittleEndian.PutUint32(out[i*8:], math.Float32bits(v.X))
		binary.LittleEndian.PutUint32(out[i*8+4:], math.Float32bits(v.Y))
	}
	return out
}
