// SPDX-License-Identifier: Unlicense OR MIT

package sim

import (
	"math"

	"github.com/fieldflock/fieldflock/internal/config"
)

// Boid is one simulated agent's position/velocity/species. It mirrors
// the three storage buffers internal/shaders.Flocking reads
// (positions, velocities, species_ids) collapsed into one struct,
// since the reference engine has no GPU buffer layout to respect.
type Boid struct {
	Pos     Vec2
	Vel     Pos2
	Species int

	// Density, Anisotropy and Turning mirror the per-boid metrics
	// channel the WGSL kernel writes every frame (flocking.go); Step
	// recomputes them from the same neighbor walk that feeds
	// alignment/cohesion.
	Density    float32
	Anisotropy float32
	Turning    float32
}

// Pos2 is an alias kept distinct from Vec2 only for readability at
// call sites that pass a velocity; the underlying type is identical.
type Pos2 = Vec2

// Flock is the pure-Go twin of pass 5 (internal/shaders.Flocking): it
// advances one frame of every boid's position and velocity using the
// same alignment/cohesion/separation/interaction/noise/boundary math
// as the WGSL kernel. It is the oracle the property tests in
// flockref_test.go check invariants 5-8 and scenarios E1-E4/E6
// against, and the engine the headless CPU backend runs every frame.
type Flock struct {
	Config *config.Config
	Grid   *Grid
	Matrix config.InteractionMatrix

	FrameCount uint32
}

// NewFlock builds a reference engine for cfg, sizing its grid from the
// configured cell policy (perception for the 3x3 window, perception/2
// for the 5x5 opt-in).
func NewFlock(cfg *config.Config) *Flock {
	cellSize := cfg.Perception
	if cfg.FineGrid {
		cellSize = cfg.Perception / 2
	}
	return &Flock{
		Config: cfg,
		Grid:   NewGrid(cfg.Width, cfg.Height, cellSize, cfg.BoundaryMode),
		Matrix: config.BuildInteractionMatrix(cfg.Interactions),
	}
}

// Step advances boids by one frame in place, using dt seconds and the
// engine's current FrameCount for the rebel-phase and noise hash
// seeds, then increments FrameCount. Every boid's update reads the
// frame's starting state; the results are copied back into boids only
// after all of them are computed, so the previous frame's values are
// not kept.
func (f *Flock) Step(boids []Boid, dt float32) {
	positions := make([]Vec2, len(boids))
	for i, b := range boids {
		positions[i] = b.Pos
	}
	f.Grid.Build(positions)

	cfg := f.Config
	rule := cfg.BoundaryMode.Rule()
	window := 1
	if cfg.FineGrid {
		window = 2
	}

	next := make([]Boid, len(boids))
	for i, b := range boids {
		sp := speciesOrDefault(cfg.Species, b.Species)
		perception := sp.Perception
		if perception <= 0 {
			perception = cfg.Perception
		}

		rebelFactor := float32(1.0)
		if sp.Rebels > 0 {
			if hash11(uint32(i)*7919) < sp.Rebels*5.0 {
				phase := uint32(hash11(uint32(i)*104729) * 180)
				t := (f.FrameCount + phase) % 180
				if t < 60 {
					rebelFactor = 0.2
				}
			}
		}

		myCX, myCY := f.Grid.CellCoords(b.Pos.X, b.Pos.Y)

		var alignSum, cohesionSum, separationSum, interactionForce Vec2
		var alignN, cohesionN float32
		var density, covXX, covYY, covXY float32

		for oy := -window; oy <= window; oy++ {
			for ox := -window; ox <= window; ox++ {
				ncx, ncy := myCX+ox, myCY+oy
				gw, gh := int(f.Grid.GridW), int(f.Grid.GridH)
				if (ncx < 0 || ncx >= gw) && !rule.WrapX {
					continue
				}
				if (ncy < 0 || ncy >= gh) && !rule.WrapY {
					continue
				}
				slot := f.Grid.FlipHash(ncx, ncy)
				for _, j := range f.Grid.CellRange(slot) {
					if int(j) == i {
						continue
					}
					other := boids[j]
					d := topoDelta(b.Pos, other.Pos, cfg.Width, cfg.Height, rule)
					distSq := d.X*d.X + d.Y*d.Y

					if distSq < 1e-2 {
						if cfg.GlobalCollision {
							push := random2(uint32(i)*92821 + j).Mul(sp.MaxForce * 3.0)
							interactionForce = interactionForce.Add(push)
						}
						continue
					}
					if distSq > perception*perception {
						continue
					}
					dist := float32(math.Sqrt(float64(distSq)))

					if other.Species == b.Species {
						wa := wAlign(dist, perception)
						alignSum = alignSum.Add(other.Vel.Mul(wa))
						alignN += wa
						cohesionSum = cohesionSum.Add(d.Mul(wa))
						cohesionN += wa
						density += wa
						covXX += d.X * d.X * wa
						covYY += d.Y * d.Y * wa
						covXY += d.X * d.Y * wa
						if dist < perception*0.5 {
							ws := wSep(dist, perception*0.5)
							separationSum = separationSum.Sub(d.Mul(ws / maxf32(dist, 1e-3)))
						}
					} else {
						r := f.Matrix[b.Species][other.Species]
						if dist < r.Range && r.Behavior != config.BehaviorIgnore {
							dir := d.Mul(1.0 / dist)
							interactionForce = interactionForce.Add(interactionRuleForce(r, dir, b.Vel, other.Vel))
						}
					}
				}
			}
		}

		var steer Vec2
		if alignN > 0 {
			steer = steer.Add(limitLen(alignSum.Mul(1.0/alignN).Sub(b.Vel), sp.MaxForce).Mul(sp.Alignment * rebelFactor))
		}
		if cohesionN > 0 {
			steer = steer.Add(limitLen(cohesionSum.Mul(1.0/cohesionN), sp.MaxForce).Mul(sp.Cohesion * rebelFactor))
		}
		steer = steer.Add(limitLen(separationSum, sp.MaxForce*3.0).Mul(sp.Separation))
		steer = steer.Add(interactionForce)

		if cfg.Cursor.Mode != config.CursorOff && cfg.Cursor.Active {
			cd := topoDelta(b.Pos, Vec2{cfg.Cursor.X, cfg.Cursor.Y}, cfg.Width, cfg.Height, rule)
			cdist := float32(math.Sqrt(float64(cd.X*cd.X + cd.Y*cd.Y)))
			if cdist < cfg.Cursor.Radius && cdist > 1e-3 {
				dir := cd.Mul(1.0 / cdist)
				falloff := 1.0 - cdist/cfg.Cursor.Radius
				pressedFactor := float32(1.0)
				if cfg.Cursor.Pressed {
					pressedFactor = 1.5
				}
				var cf Vec2
				switch cfg.Cursor.Mode {
				case config.CursorAttract:
					cf = dir.Mul(cfg.Cursor.Force * falloff)
				case config.CursorRepel:
					cf = dir.Mul(-cfg.Cursor.Force * falloff)
				case config.CursorVortex:
					cf = Vec2{-dir.Y, dir.X}.Mul(cfg.Cursor.Vortex * falloff)
				}
				steer = steer.Add(cf.Mul(sp.CursorResponse * pressedFactor))
			}
		}

		steer = steer.Add(random2(uint32(i)*1290347 + f.FrameCount).Mul(cfg.Noise * sp.MaxForce))

		newVel := limitLen(b.Vel.Add(steer), sp.MaxSpeed)
		minSpeed := 0.3 * sp.MaxSpeed
		if length(newVel) < minSpeed {
			dir := random2(uint32(i) * 777)
			if length(newVel) > 1e-4 {
				dir = newVel.Mul(1.0 / length(newVel))
			}
			newVel = dir.Mul(minSpeed)
		}

		clampedDt := clamp32(dt, 0, 0.1)
		newPos := b.Pos.Add(newVel.Mul(clampedDt * 60.0))
		newPos, newVel = applyBoundary(newPos, newVel, cfg.Width, cfg.Height, rule)

		prevHeading := float32(math.Atan2(float64(b.Vel.Y), float64(b.Vel.X)))
		newHeading := float32(math.Atan2(float64(newVel.Y), float64(newVel.X)))
		dh := newHeading - prevHeading
		if dh > math.Pi {
			dh -= 2 * math.Pi
		}
		if dh < -math.Pi {
			dh += 2 * math.Pi
		}
		turning := float32(math.Abs(float64(dh))) / maxf32(sp.MaxSpeed*clampedDt, 1e-4)

		var anisotropy float32
		if density > 1e-4 {
			mxx, myy, mxy := covXX/density, covYY/density, covXY/density
			tr := mxx + myy
			det := mxx*myy - mxy*mxy
			disc := maxf32(tr*tr-4*det, 0)
			sq := float32(math.Sqrt(float64(disc)))
			l1, l2 := (tr+sq)*0.5, (tr-sq)*0.5
			if l1+l2 > 1e-4 {
				anisotropy = clamp32((l1-l2)/(l1+l2), 0, 1)
			}
		}

		next[i] = Boid{
			Pos: newPos, Vel: newVel, Species: b.Species,
			Density: density, Anisotropy: anisotropy, Turning: turning,
		}
	}
	copy(boids, next)
	f.FrameCount++
}

func speciesOrDefault(species []config.Species, idx int) config.Species {
	if idx >= 0 && idx < len(species) {
		return species[idx]
	}
	return config.Species{Alignment: 1, Cohesion: 1, Separation: 1, Perception: 80, MaxSpeed: 4, MaxForce: 0.2}
}

func interactionRuleForce(r config.InteractionRule, dir, selfVel, otherVel Vec2) Vec2 {
	switch r.Behavior {
	case config.BehaviorAvoid:
		return dir.Mul(-r.Strength)
	case config.BehaviorPursue:
		return dir.Mul(r.Strength)
	case config.BehaviorAttract:
		return dir.Mul(r.Strength)
	case config.BehaviorMirror:
		return otherVel.Sub(selfVel).Mul(r.Strength)
	case config.BehaviorOrbit:
		return Vec2{-dir.Y, dir.X}.Mul(r.Strength)
	default:
		return Vec2{}
	}
}

func topoDelta(a, b Vec2, width, height float32, rule config.BoundaryRule) Vec2 {
	d := b.Sub(a)
	if rule.WrapX {
		if d.X > width*0.5 {
			d.X -= width
		}
		if d.X < -width*0.5 {
			d.X += width
		}
	}
	if rule.WrapY {
		if d.Y > height*0.5 {
			d.Y -= height
		}
		if d.Y < -height*0.5 {
			d.Y += height
		}
	}
	return d
}

func applyBoundary(pos, vel Vec2, width, height float32, rule config.BoundaryRule) (Vec2, Vec2) {
	if rule.WrapX {
		if pos.X < 0 {
			pos.X += width
			if rule.FlipOnWrapX {
				pos.Y = height - pos.Y
				vel.Y = -vel.Y
			}
		}
		if pos.X >= width {
			pos.X -= width
			if rule.FlipOnWrapX {
				pos.Y = height - pos.Y
				vel.Y = -vel.Y
			}
		}
	} else {
		if pos.X < 0 {
			pos.X = 0
			vel.X = float32(math.Abs(float64(vel.X)))
		}
		if pos.X >= width {
			pos.X = width - 0.001
			vel.X = -float32(math.Abs(float64(vel.X)))
		}
	}
	if rule.WrapY {
		if pos.Y < 0 {
			pos.Y += height
			if rule.FlipOnWrapY {
				pos.X = width - pos.X
				vel.X = -vel.X
			}
		}
		if pos.Y >= height {
			pos.Y -= height
			if rule.FlipOnWrapY {
				pos.X = width - pos.X
				vel.X = -vel.X
			}
		}
	} else {
		if pos.Y < 0 {
			pos.Y = 0
			vel.Y = float32(math.Abs(float64(vel.Y)))
		}
		if pos.Y >= height {
			pos.Y = height - 0.001
			vel.Y = -float32(math.Abs(float64(vel.Y)))
		}
	}
	return pos, vel
}

func wAlign(d, r float32) float32 {
	t := clamp32(1.0-d/r, 0, 1)
	return t * t * t
}

func wSep(d, r float32) float32 {
	t := clamp32(1.0-d/r, 0, 1)
	return t * t * 2.0 / (d/r + 0.5)
}

func limitLen(v Vec2, maxLen float32) Vec2 {
	l := length(v)
	if l > maxLen && l > 0 {
		return v.Mul(maxLen / l)
	}
	return v
}

func length(v Vec2) float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxf32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// hash11 is the Go twin of the WGSL integer hash used for the rebel
// cohort/phase and noise seeds: the same integer steps as the WGSL
// hash11, so the reference engine's stochastic behavior comes from the
// same algorithm rather than math/rand.
func hash11(x uint32) float32 {
	n := x
	n = (n ^ 61) ^ (n >> 16)
	n = n + (n << 3)
	n = n ^ (n >> 4)
	n = n * 0x27d4eb2d
	n = n ^ (n >> 15)
	return float32(n) / 4294967295.0
}

func random2(seed uint32) Vec2 {
	a := float64(hash11(seed)) * 6.2831853
	return Vec2{float32(math.Cos(a)), float32(math.Sin(a))}
}
