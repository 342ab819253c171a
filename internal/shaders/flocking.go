// SPDX-License-Identifier: Unlicense OR MIT

package shaders

import (
	"fmt"

	"github.com/fieldflock/fieldflock/internal/config"
)

// RebelPeriod and RebelDuration bound the rebel-phase cycle every
// boid hashes from its own index.
const (
	RebelPeriod   = 180
	RebelDuration = 60
)

// MaxNeighborsPerCell caps how many boids a single cell walk inspects,
// bounding worst-case work per thread under a degenerate clump.
const MaxNeighborsPerCell = 64

// Flocking is pass 5: the single per-boid kernel that reads the "in"
// position/velocity buffers and writes the "out" pair, folding in
// rebel attenuation, inter-species interaction rules, cursor forces,
// wall avoidance, noise and topology-aware boundary handling.
var Flocking = Source{
	Label:   "flocking",
	Compute: "flock",
	WGSL: withUniforms(fmt.Sprintf(`
struct Species {
    alignment: f32, cohesion: f32, separation: f32, perception: f32,
    max_speed: f32, max_force: f32, rebels: f32, _pad0: f32,
    hue: f32, saturation: f32, lightness: f32, head_shape: u32,
    size: f32, trail_length: u32, alpha_mode: u32, _pad1: f32,
    cursor_force: f32, cursor_response: f32, cursor_vortex: f32, _pad2: f32,
};

struct InteractionRule { behavior: u32, strength: f32, range: f32, _pad: f32 };

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var<storage, read> positions_in: array<vec2<f32>>;
@group(0) @binding(2) var<storage, read_write> positions_out: array<vec2<f32>>;
@group(0) @binding(3) var<storage, read> velocities_in: array<vec2<f32>>;
@group(0) @binding(4) var<storage, read_write> velocities_out: array<vec2<f32>>;
@group(0) @binding(5) var<storage, read> species_ids: array<u32>;
@group(0) @binding(6) var<storage, read> boid_cell_index: array<u32>;
@group(0) @binding(7) var<storage, read> prefix_sums: array<u32>;
@group(0) @binding(8) var<storage, read> cell_counts: array<u32>;
@group(0) @binding(9) var<storage, read> sorted_indices: array<u32>;
@group(1) @binding(0) var<storage, read> species_table: array<Species, 7>;
@group(1) @binding(1) var<storage, read> interactions: array<InteractionRule, 49>;
@group(1) @binding(2) var<storage, read_write> trails: array<vec2<f32>>;
@group(1) @binding(3) var<storage, read_write> metrics: array<vec4<f32>>;
@group(1) @binding(4) var wall_tex: texture_2d<f32>;
@group(1) @binding(5) var wall_samp: sampler;

fn hash11(x: u32) -> f32 {
    var n = x;
    n = (n ^ 61u) ^ (n >> 16u);
    n = n + (n << 3u);
    n = n ^ (n >> 4u);
    n = n * 0x27d4eb2du;
    n = n ^ (n >> 15u);
    return f32(n) / 4294967295.0;
}

fn random2(seed: u32) -> vec2<f32> {
    let a = hash11(seed) * 6.2831853;
    return vec2<f32>(cos(a), sin(a));
}

// boundary_rule mirrors the nine-topology table from the data model as
// (wrapX, wrapY, bounceX, bounceY); the flip-on-wrap flags are
// flips_y (an x-wrap mirrors y) and flips_x (a y-wrap mirrors x) below.
fn boundary_rule(mode: u32) -> vec4<u32> {
    switch mode {
        case 0u: { return vec4<u32>(0u, 0u, 1u, 1u); }        // plane: bounce both
        case 1u: { return vec4<u32>(1u, 0u, 0u, 1u); }        // cylinder-x
        case 2u: { return vec4<u32>(0u, 1u, 1u, 0u); }        // cylinder-y
        case 3u: { return vec4<u32>(1u, 1u, 0u, 0u); }        // torus
        case 4u: { return vec4<u32>(1u, 0u, 0u, 1u); }        // mobius-x (x-wrap flips y)
        case 5u: { return vec4<u32>(0u, 1u, 1u, 0u); }        // mobius-y (y-wrap flips x)
        case 6u: { return vec4<u32>(1u, 1u, 0u, 0u); }        // klein-x (x-wrap flips y)
        case 7u: { return vec4<u32>(1u, 1u, 0u, 0u); }        // klein-y (y-wrap flips x)
        default: { return vec4<u32>(1u, 1u, 0u, 0u); }        // projective plane
    }
}
fn flips_x(mode: u32) -> bool { return mode == 5u || mode == 7u || mode == 8u; }
fn flips_y(mode: u32) -> bool { return mode == 4u || mode == 6u || mode == 8u; }
fn wraps_x(mode: u32) -> bool { let r = boundary_rule(mode); return r.x == 1u; }
fn wraps_y(mode: u32) -> bool { let r = boundary_rule(mode); return r.y == 1u; }

// cell_hash is the flip-aware locally perfect hash: when a
// neighbor cell lies across a flip-wrap boundary, the orthogonal
// coordinate is mirrored before hashing so the flipped cell's
// contents are reached instead of the unflipped one.
fn cell_hash(cx_in: i32, cy_in: i32) -> u32 {
    var cx = cx_in;
    var cy = cy_in;
    let gw = i32(u.grid_w);
    let gh = i32(u.grid_h);
    if (cx < 0) { cx = cx + gw; if (flips_y(u.boundary_mode)) { cy = gh - 1 - cy; } }
    if (cx >= gw) { cx = cx - gw; if (flips_y(u.boundary_mode)) { cy = gh - 1 - cy; } }
    if (cy < 0) { cy = cy + gh; if (flips_x(u.boundary_mode)) { cx = gw - 1 - cx; } }
    if (cy >= gh) { cy = cy - gh; if (flips_x(u.boundary_mode)) { cx = gw - 1 - cx; } }
    cx = clamp(cx, 0, gw - 1);
    cy = clamp(cy, 0, gh - 1);
    let kappa = 3u * (u32(cx) %% 3u) + (u32(cy) %% 3u);
    let beta = (u32(cy) / 3u) * u.reduced_width + (u32(cx) / 3u);
    return 9u * beta + kappa;
}

// topo_delta returns the shortest displacement from a to b under the
// active topology: non-flip wraps reduce axis differences past half
// extent by the full extent. The flip component of a flip wrap is not
// applied here; only the wrapped axis is reduced.
fn topo_delta(a: vec2<f32>, b: vec2<f32>) -> vec2<f32> {
    var d = b - a;
    if (wraps_x(u.boundary_mode)) {
        if (d.x > u.width * 0.5) { d.x = d.x - u.width; }
        if (d.x < -u.width * 0.5) { d.x = d.x + u.width; }
    }
    if (wraps_y(u.boundary_mode)) {
        if (d.y > u.height * 0.5) { d.y = d.y - u.height; }
        if (d.y < -u.height * 0.5) { d.y = d.y + u.height; }
    }
    return d;
}

fn limit_len(v: vec2<f32>, max_len: f32) -> vec2<f32> {
    let l = length(v);
    if (l > max_len && l > 0.0) {
        return v * (max_len / l);
    }
    return v;
}

fn w_align(d: f32, r: f32) -> f32 {
    let t = clamp(1.0 - d / r, 0.0, 1.0);
    return t * t * t;
}

fn w_sep(d: f32, r: f32) -> f32 {
    let t = clamp(1.0 - d / r, 0.0, 1.0);
    return t * t * 2.0 / (d / r + 0.5);
}

fn apply_boundary(pos_in: vec2<f32>, vel_in: vec2<f32>) -> vec2<vec2<f32>> {
    var pos = pos_in;
    var vel = vel_in;
    let rule = boundary_rule(u.boundary_mode);
    if (rule.x == 1u) {
        if (pos.x < 0.0) { pos.x = pos.x + u.width; if (flips_y(u.boundary_mode)) { pos.y = u.height - pos.y; vel.y = -vel.y; } }
        if (pos.x >= u.width) { pos.x = pos.x - u.width; if (flips_y(u.boundary_mode)) { pos.y = u.height - pos.y; vel.y = -vel.y; } }
    } else {
        if (pos.x < 0.0) { pos.x = 0.0; vel.x = abs(vel.x); }
        if (pos.x >= u.width) { pos.x = u.width - 0.001; vel.x = -abs(vel.x); }
    }
    if (rule.y == 1u) {
        if (pos.y < 0.0) { pos.y = pos.y + u.height; if (flips_x(u.boundary_mode)) { pos.x = u.width - pos.x; vel.x = -vel.x; } }
        if (pos.y >= u.height) { pos.y = pos.y - u.height; if (flips_x(u.boundary_mode)) { pos.x = u.width - pos.x; vel.x = -vel.x; } }
    } else {
        if (pos.y < 0.0) { pos.y = 0.0; vel.y = abs(vel.y); }
        if (pos.y >= u.height) { pos.y = u.height - 0.001; vel.y = -abs(vel.y); }
    }
    return array<vec2<f32>, 2>(pos, vel);
}

@compute @workgroup_size(64)
fn flock(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= u.boid_count) {
        return;
    }

    let pos = positions_in[i];
    let vel = velocities_in[i];
    let my_species = species_ids[i];
    let sp = species_table[my_species];

    // Rebel phase: a persistent per-index cohort and cycle offset.
    let is_rebel_cohort = hash11(i * 7919u) < sp.rebels * 5.0;
    var rebel_factor = 1.0;
    if (is_rebel_cohort) {
        let phase = u32(hash11(i * 104729u) * f32(%d));
        let t = (u.frame_count + phase) %% u32(%d);
        if (t < u32(%d)) {
            rebel_factor = 0.2;
        }
    }

    let perception = select(sp.perception, u.perception, sp.perception <= 0.0);
    let window = select(1, 2, u.fine_grid == 1u); // 3x3 (window=1) or 5x5 (window=2)
    let cell_size = u.cell_size;
    let my_cx = i32(clamp(pos.x / cell_size, 0.0, f32(u.grid_w) - 1.0));
    let my_cy = i32(clamp(pos.y / cell_size, 0.0, f32(u.grid_h) - 1.0));

    var align_sum = vec2<f32>(0.0, 0.0);
    var align_n = 0.0;
    var cohesion_sum = vec2<f32>(0.0, 0.0);
    var cohesion_n = 0.0;
    var separation_sum = vec2<f32>(0.0, 0.0);
    var density = 0.0;
    var cov_xx = 0.0; var cov_yy = 0.0; var cov_xy = 0.0;
    var interaction_force = vec2<f32>(0.0, 0.0);

    for (var oy = -window; oy <= window; oy = oy + 1) {
        for (var ox = -window; ox <= window; ox = ox + 1) {
            let gw = i32(u.grid_w);
            let gh = i32(u.grid_h);
            let ncx = my_cx + ox;
            let ncy = my_cy + oy;
            if ((ncx < 0 || ncx >= gw) && !wraps_x(u.boundary_mode)) { continue; }
            if ((ncy < 0 || ncy >= gh) && !wraps_y(u.boundary_mode)) { continue; }

            let slot = cell_hash(ncx, ncy);
            let count = min(cell_counts[slot], u32(%d));
            let start = prefix_sums[slot];
            for (var k: u32 = 0u; k < count; k = k + 1u) {
                let j = sorted_indices[start + k];
                if (j == i) { continue; }

                let other_pos = positions_in[j];
                let other_vel = velocities_in[j];
                let d = topo_delta(pos, other_pos);
                var dist_sq = dot(d, d);

                if (dist_sq < 1e-2) {
                    if (u.global_collision == 1u) {
                        let push = random2(i * 92821u + j) * sp.max_force * 3.0;
                        interaction_force = interaction_force + push;
                    }
                    continue;
                }
                if (dist_sq > perception * perception) { continue; }

                let dist = sqrt(dist_sq);
                let other_species = species_ids[j];

                if (other_species == my_species) {
                    let wa = w_align(dist, perception);
                    align_sum = align_sum + other_vel * wa;
                    align_n = align_n + wa;
                    cohesion_sum = cohesion_sum + d * wa;
                    cohesion_n = cohesion_n + wa;
                    density = density + wa;
                    cov_xx = cov_xx + d.x * d.x * wa;
                    cov_yy = cov_yy + d.y * d.y * wa;
                    cov_xy = cov_xy + d.x * d.y * wa;
                    if (dist < perception * 0.5) {
                        let ws = w_sep(dist, perception * 0.5);
                        separation_sum = separation_sum - d * (ws / max(dist, 1e-3));
                    }
                } else {
                    let rule = interactions[my_species * 7u + other_species];
                    if (dist < rule.range && rule.behavior != 0u) {
                        let dir = d / dist;
                        switch rule.behavior {
                            case 1u: { interaction_force = interaction_force - dir * rule.strength; } // avoid
                            case 2u: { interaction_force = interaction_force + dir * rule.strength; } // pursue
                            case 3u: { interaction_force = interaction_force + dir * rule.strength; } // attract
                            case 4u: { interaction_force = interaction_force + (other_vel - vel) * rule.strength; } // mirror
                            case 5u: { interaction_force = interaction_force + vec2<f32>(-dir.y, dir.x) * rule.strength; } // orbit
                            default: {}
                        }
                    }
                }
            }
        }
    }

    var steer = vec2<f32>(0.0, 0.0);
    if (align_n > 0.0) {
        steer = steer + limit_len(align_sum / align_n - vel, sp.max_force) * sp.alignment * rebel_factor;
    }
    if (cohesion_n > 0.0) {
        steer = steer + limit_len(cohesion_sum / cohesion_n, sp.max_force) * sp.cohesion * rebel_factor;
    }
    steer = steer + limit_len(separation_sum, sp.max_force * 3.0) * sp.separation;
    steer = steer + interaction_force;

    if (u.cursor_mode != 0u && u.cursor_active == 1.0) {
        let cd = topo_delta(pos, vec2<f32>(u.cursor_x, u.cursor_y));
        let cdist = length(cd);
        if (cdist < u.cursor_radius && cdist > 1e-3) {
            let dir = cd / cdist;
            let falloff = 1.0 - cdist / u.cursor_radius;
            let pressed_factor = select(1.0, 1.5, u.cursor_pressed == 1.0);
            var cf = vec2<f32>(0.0, 0.0);
            switch u.cursor_mode {
                case 1u: { cf = dir * u.cursor_force * falloff; }                              // attract
                case 2u: { cf = -dir * u.cursor_force * falloff; }                              // repel
                case 3u: { cf = vec2<f32>(-dir.y, dir.x) * u.cursor_vortex * falloff; }         // vortex
                default: {}
            }
            steer = steer + cf * sp.cursor_response * pressed_factor;
        }
    }

    // Wall avoidance: sample the mask ahead along the current heading.
    let heading = select(vec2<f32>(1.0, 0.0), normalize(vel), length(vel) > 1e-4);
    for (var s: i32 = 1; s <= 3; s = s + 1) {
        let probe = pos + heading * f32(s) * 8.0;
        let uv = vec2<f32>(probe.x / u.width, probe.y / u.height);
        let mask = textureSampleLevel(wall_tex, wall_samp, uv, 0.0).r;
        if (mask > 0.2) {
            steer = steer - heading * mask * sp.max_force * 2.0;
        }
    }

    steer = steer + random2(i * 1290347u + u.frame_count) * u.noise * sp.max_force;

    var new_vel = limit_len(vel + steer, sp.max_speed);
    let min_speed = 0.3 * sp.max_speed;
    if (length(new_vel) < min_speed) {
        let dir = select(random2(i * 777u), normalize(new_vel), length(new_vel) > 1e-4);
        new_vel = dir * min_speed;
    }

    let dt = clamp(u.delta_time, 0.0, 0.1);
    var new_pos = pos + new_vel * dt * 60.0;
    let bounded = apply_boundary(new_pos, new_vel);
    new_pos = bounded[0];
    new_vel = bounded[1];

    positions_out[i] = new_pos;
    velocities_out[i] = new_vel;

    // True angular turning: heading change since last frame, normalized.
    let prev_heading = atan2(vel.y, vel.x);
    let new_heading = atan2(new_vel.y, new_vel.x);
    var dh = new_heading - prev_heading;
    if (dh > 3.14159265) { dh = dh - 6.2831853; }
    if (dh < -3.14159265) { dh = dh + 6.2831853; }
    let turning = abs(dh) / max(sp.max_speed * dt, 1e-4);

    var anisotropy = 0.0;
    if (density > 1e-4) {
        let mxx = cov_xx / density;
        let myy = cov_yy / density;
        let mxy = cov_xy / density;
        let tr = mxx + myy;
        let det = mxx * myy - mxy * mxy;
        let disc = max(tr * tr - 4.0 * det, 0.0);
        let l1 = (tr + sqrt(disc)) * 0.5;
        let l2 = (tr - sqrt(disc)) * 0.5;
        if (l1 + l2 > 1e-4) {
            anisotropy = clamp((l1 - l2) / (l1 + l2), 0.0, 1.0);
        }
    }

    metrics[i] = vec4<f32>(density, anisotropy, turning, metrics[i].w);
    trails[i * %d + u.trail_head] = new_pos;
}
`, RebelPeriod, RebelPeriod, RebelDuration, MaxNeighborsPerCell, config.TrailCapacity)),
}
