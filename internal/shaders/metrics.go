// SPDX-License-Identifier: Unlicense OR MIT

package shaders

// RankIterations is the fixed, even iteration count the spectral/flow
// relaxation runs for each frame so the final value always lands back
// in the A-side ping-pong buffer.
const RankIterations = 6

// RankSmoothing is the blend factor between a boid's previous rank
// value and its freshly aggregated neighborhood statistic.
const RankSmoothing = 0.85

const rankCommon = `
@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var<storage, read> positions_in: array<vec2<f32>>;
@group(0) @binding(2) var<storage, read> velocities_in: array<vec2<f32>>;
@group(0) @binding(3) var<storage, read> boid_cell_index: array<u32>;
@group(0) @binding(4) var<storage, read> prefix_sums: array<u32>;
@group(0) @binding(5) var<storage, read> cell_counts: array<u32>;
@group(0) @binding(6) var<storage, read> sorted_indices: array<u32>;

fn wraps_x(mode: u32) -> bool { return mode == 1u || mode == 3u || mode == 4u || mode == 6u || mode == 7u || mode == 8u; }
fn wraps_y(mode: u32) -> bool { return mode == 2u || mode == 3u || mode == 5u || mode == 6u || mode == 7u || mode == 8u; }

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
`

// RankInit seeds the ping-pong rank buffer's A side with a raw,
// position- or velocity-derived statistic before iteration begins.
var RankInit = Source{
	Label:   "metrics.rank_init",
	Compute: "rank_init",
	WGSL: withUniforms(rankCommon + `
@group(0) @binding(7) var<storage, read_write> rank_a: array<f32>;

@compute @workgroup_size(64)
fn rank_init(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= u.boid_count) {
        return;
    }
    let pos = positions_in[i];
    let vel = velocities_in[i];
    switch u.spectral_mode {
        case 0u, 3u: { rank_a[i] = atan2(vel.y, vel.x); }                       // angular, flow-angular seed
        case 1u, 4u: { rank_a[i] = length(vel); }                              // radial, flow-radial seed
        default: { rank_a[i] = atan2(pos.y - u.height * 0.5, pos.x - u.width * 0.5); }
    }
}
`),
}

// rankIterSource builds one relaxation pass reading from `src` and
// writing `dst`, so the even-iteration-count discipline can alternate
// the same kernel text between the two ping-pong buffers.
func rankIterSource(label, entry, src, dst string) Source {
	body := rankCommon + `
@group(0) @binding(7) var<storage, read> ` + src + `: array<f32>;
@group(0) @binding(8) var<storage, read_write> ` + dst + `: array<f32>;

@compute @workgroup_size(64)
fn ` + entry + `(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= u.boid_count) {
        return;
    }
    let pos = positions_in[i];
    let vel = velocities_in[i];
    let cell_size = u.cell_size;
    let my_cx = i32(clamp(pos.x / cell_size, 0.0, f32(u.grid_w) - 1.0));
    let my_cy = i32(clamp(pos.y / cell_size, 0.0, f32(u.grid_h) - 1.0));

    var com = vec2<f32>(0.0, 0.0);
    var speed_sum = 0.0;
    var n = 0.0;

    for (var oy = -2; oy <= 2; oy = oy + 1) {
        for (var ox = -2; ox <= 2; ox = ox + 1) {
            let gw = i32(u.grid_w);
            let gh = i32(u.grid_h);
            var ncx = my_cx + ox;
            var ncy = my_cy + oy;
            if (ncx < 0) { if (!wraps_x(u.boundary_mode)) { continue; } ncx = ncx + gw; }
            if (ncx >= gw) { if (!wraps_x(u.boundary_mode)) { continue; } ncx = ncx - gw; }
            if (ncy < 0) { if (!wraps_y(u.boundary_mode)) { continue; } ncy = ncy + gh; }
            if (ncy >= gh) { if (!wraps_y(u.boundary_mode)) { continue; } ncy = ncy - gh; }

            let kappa = 3u * (u32(ncx) % 3u) + (u32(ncy) % 3u);
            let beta = (u32(ncy) / 3u) * u.reduced_width + (u32(ncx) / 3u);
            let slot = 9u * beta + kappa;

            let count = cell_counts[slot];
            let start = prefix_sums[slot];
            for (var k: u32 = 0u; k < count; k = k + 1u) {
                let j = sorted_indices[start + k];
                let d = topo_delta(pos, positions_in[j]);
                com = com + d;
                speed_sum = speed_sum + length(velocities_in[j]);
                n = n + 1.0;
            }
        }
    }

    var raw = 0.0;
    if (n > 0.0) {
        let local_com = com / n;
        let mean_speed = speed_sum / n;
        switch u.spectral_mode {
            case 0u: { raw = atan2(local_com.y, local_com.x); }
            case 1u: { raw = clamp(length(local_com) / u.perception, 0.0, 1.0); }
            case 2u: { raw = clamp(length(local_com), 0.0, 1.0); }
            case 3u: {
                let radial_dir = normalize(-local_com);
                raw = atan2(vel.y, vel.x) - atan2(radial_dir.y, radial_dir.x);
            }
            case 4u: {
                let radial_dir = normalize(-local_com);
                raw = dot(vel, radial_dir);
            }
            default: { raw = select(1.0, length(vel) / mean_speed, mean_speed > 1e-4); }
        }
    }

    let prev = ` + src + `[i];
    let angular_mode = u.spectral_mode == 0u || u.spectral_mode == 3u;
    if (angular_mode) {
        // Smooth in vector space to avoid angle-wrap discontinuities.
        let prev_v = vec2<f32>(cos(prev), sin(prev));
        let raw_v = vec2<f32>(cos(raw), sin(raw));
        let blended = prev_v * ` + rankAlphaLit + ` + raw_v * ` + rankOneMinusAlphaLit + `;
        ` + dst + `[i] = atan2(blended.y, blended.x);
    } else {
        ` + dst + `[i] = prev * ` + rankAlphaLit + ` + raw * ` + rankOneMinusAlphaLit + `;
    }
}
`
	return Source{Label: label, Compute: entry, WGSL: withUniforms(body)}
}

const (
	rankAlphaLit        = "0.85"
	rankOneMinusAlphaLit = "0.15"
)

// RankIterAtoB and RankIterBtoA are the two directions of a single
// relaxation step; the orchestrator alternates them RankIterations
// times (an even count) so the canonical result always ends in A.
var RankIterAtoB = rankIterSource("metrics.rank_iter_a_to_b", "rank_iter_a_to_b", "rank_a", "rank_b")
var RankIterBtoA = rankIterSource("metrics.rank_iter_b_to_a", "rank_iter_b_to_a", "rank_b", "rank_a")

// WriteMetrics is the final pass-7 kernel copying the converged rank
// value into metrics.w, the spectral/flow channel.
var WriteMetrics = Source{
	Label:   "metrics.write",
	Compute: "write_metrics",
	WGSL: withUniforms(`
@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var<storage, read> rank_a: array<f32>;
@group(0) @binding(2) var<storage, read_write> metrics: array<vec4<f32>>;

@compute @workgroup_size(64)
fn write_metrics(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= u.boid_count) {
        return;
    }
    var m = metrics[i];
    m.w = rank_a[i];
    metrics[i] = m;
}
`),
}
