// SPDX-License-Identifier: Unlicense OR MIT

package shaders

// EdgeThresholdFactor sets how close (in multiples of the rendered
// boid size) a boid must be to a wrapping edge before its ghost copy
// becomes visible. Mirrored as a literal in the WGSL below (1.5).
const EdgeThresholdFactor = 1.5

// WrapClampFraction is the fraction of canvas extent a trail segment's
// delta must exceed before its far endpoint is clamped to the edge
// instead of being drawn crossing the whole canvas. Mirrored as a
// literal in the WGSL below (0.4).
const WrapClampFraction = 0.4

const colorCommon = `
const SRC_SPEED: u32 = 0u;
const SRC_ORIENTATION: u32 = 1u;
const SRC_TURNING: u32 = 2u;
const SRC_TRUE_TURNING: u32 = 3u;
const SRC_SPECIES: u32 = 4u;
const SRC_DENSITY: u32 = 5u;
const SRC_ANISOTROPY: u32 = 6u;
const SRC_SPECTRAL: u32 = 7u;
const SRC_SOLID: u32 = 8u;

// CURVE_SAMPLES must match internal/config.CurveSamples (64).
fn sample_curve(curve: ptr<storage, array<f32>, read>, t: f32) -> f32 {
    let clamped = clamp(t, 0.0, 1.0) * 63.0;
    let lo = u32(floor(clamped));
    let hi = min(lo + 1u, 63u);
    let frac = clamped - f32(lo);
    return mix((*curve)[lo], (*curve)[hi], frac);
}

fn hsl_to_rgb(h: f32, s: f32, l: f32) -> vec3<f32> {
    if (s <= 0.0001) {
        return vec3<f32>(l, l, l);
    }
    let q = select(l + s - l * s, l * (1.0 + s), l < 0.5);
    let p = 2.0 * l - q;
    let hk = fract(h);
    var t = vec3<f32>(hk + 1.0 / 3.0, hk, hk - 1.0 / 3.0);
    t = fract(t + vec3<f32>(1.0, 1.0, 1.0));
    var out: vec3<f32>;
    for (var i = 0; i < 3; i = i + 1) {
        let c = t[i];
        var v: f32;
        if (c < 1.0 / 6.0) { v = p + (q - p) * 6.0 * c; }
        else if (c < 0.5) { v = q; }
        else if (c < 2.0 / 3.0) { v = p + (q - p) * (2.0 / 3.0 - c) * 6.0; }
        else { v = p; }
        out[i] = v;
    }
    return out;
}

fn spectrum_chrome(h: f32) -> vec3<f32> {
    return vec3<f32>(0.5 + 0.5 * cos(6.2831853 * (h + 0.0)),
                      0.5 + 0.5 * cos(6.2831853 * (h + 0.33)),
                      0.5 + 0.5 * cos(6.2831853 * (h + 0.67)));
}
fn spectrum_ocean(h: f32) -> vec3<f32> {
    return mix(vec3<f32>(0.0, 0.05, 0.2), vec3<f32>(0.2, 0.9, 1.0), h);
}
fn spectrum_bands(h: f32) -> vec3<f32> {
    let band = floor(h * 6.0) / 6.0;
    return hsl_to_rgb(band, 0.8, 0.5);
}
fn spectrum_rainbow(h: f32) -> vec3<f32> {
    return hsl_to_rgb(h, 1.0, 0.5);
}
fn spectrum_mono(h: f32) -> vec3<f32> {
    return vec3<f32>(h, h, h);
}

fn apply_spectrum(spectrum: u32, h: f32) -> vec3<f32> {
    switch spectrum {
        case 1u: { return spectrum_chrome(h); }
        case 2u: { return spectrum_ocean(h); }
        case 3u: { return spectrum_bands(h); }
        case 4u: { return spectrum_rainbow(h); }
        case 5u: { return spectrum_mono(h); }
        default: { return vec3<f32>(h, h, h); }
    }
}
`

// Walls is the first of three draw calls: a full-screen quad that
// samples the wall mask, detects inner edges by an 8-neighbor
// comparison, and composites a dark fill with a lighter stroke.
var Walls = Source{
	Label:  "render.walls",
	Vertex: "walls_vs", Fragment: "walls_fs",
	WGSL: withUniforms(`
@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var wall_tex: texture_2d<f32>;
@group(0) @binding(2) var wall_samp: sampler;

struct VSOut { @builtin(position) pos: vec4<f32>, @location(0) uv: vec2<f32> };

@vertex
fn walls_vs(@builtin(vertex_index) vi: u32) -> VSOut {
    var quad = array<vec2<f32>, 6>(
        vec2<f32>(-1.0, -1.0), vec2<f32>(1.0, -1.0), vec2<f32>(-1.0, 1.0),
        vec2<f32>(-1.0, 1.0), vec2<f32>(1.0, -1.0), vec2<f32>(1.0, 1.0));
    var out: VSOut;
    let p = quad[vi];
    out.pos = vec4<f32>(p, 0.0, 1.0);
    out.uv = p * 0.5 + vec2<f32>(0.5, 0.5);
    out.uv.y = 1.0 - out.uv.y;
    return out;
}

// WALL_SCALE must match internal/config.WallScale (4).
fn wall_at(uv: vec2<f32>, dx: f32, dy: f32) -> f32 {
    let texel = vec2<f32>(1.0 / u.width, 1.0 / u.height) * 4.0;
    return textureSample(wall_tex, wall_samp, uv + vec2<f32>(dx, dy) * texel).r;
}

@fragment
fn walls_fs(in: VSOut) -> @location(0) vec4<f32> {
    let center = wall_at(in.uv, 0.0, 0.0);
    if (center < 0.02) {
        discard;
    }
    var edge = 0.0;
    for (var dy = -1.0; dy <= 1.0; dy = dy + 1.0) {
        for (var dx = -1.0; dx <= 1.0; dx = dx + 1.0) {
            edge = max(edge, abs(center - wall_at(in.uv, dx, dy)));
        }
    }
    let fill = vec3<f32>(0.08, 0.09, 0.11);
    let stroke = vec3<f32>(0.35, 0.38, 0.42);
    let noise = fract(sin(dot(in.uv, vec2<f32>(12.9898, 78.233))) * 43758.5453) * 0.03;
    let color = mix(fill, stroke, clamp(edge * 4.0, 0.0, 1.0)) + noise;
    return vec4<f32>(color * center, center);
}
`),
}

// Trails is the second draw call: instanced ring-buffer quads that
// taper in width and fade in alpha from head to tail, clamped at the
// edge where a segment would otherwise smear across a wrap boundary.
var Trails = Source{
	Label:  "render.trails",
	Vertex: "trails_vs", Fragment: "trails_fs",
	WGSL: withUniforms(colorCommon + `
struct Species {
    alignment: f32, cohesion: f32, separation: f32, perception: f32,
    max_speed: f32, max_force: f32, rebels: f32, _pad0: f32,
    hue: f32, saturation: f32, lightness: f32, head_shape: u32,
    size: f32, trail_length: u32, alpha_mode: u32, _pad1: f32,
    cursor_force: f32, cursor_response: f32, cursor_vortex: f32, _pad2: f32,
};

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var<storage, read> trails: array<vec2<f32>>;
@group(0) @binding(2) var<storage, read> positions: array<vec2<f32>>;
@group(0) @binding(3) var<storage, read> species_ids: array<u32>;
@group(0) @binding(4) var<storage, read> species_table: array<Species, 7>;

struct VSOut { @builtin(position) pos: vec4<f32>, @location(0) color: vec4<f32> };

fn clip_space(p: vec2<f32>) -> vec4<f32> {
    let ndc = vec2<f32>(p.x / u.width * 2.0 - 1.0, 1.0 - p.y / u.height * 2.0);
    return vec4<f32>(ndc, 0.0, 1.0);
}

// TRAIL_CAPACITY must match internal/config.TrailCapacity (64).
const TRAIL_CAPACITY: u32 = 64u;
// WRAP_CLAMP_FRACTION must match WrapClampFraction (0.4).
const WRAP_CLAMP_FRACTION: f32 = 0.4;

@vertex
fn trails_vs(@builtin(vertex_index) vi: u32, @builtin(instance_index) ii: u32) -> VSOut {
    let segments_per_boid = u.trail_length - 1u;
    let boid = ii / segments_per_boid;
    let seg = ii % segments_per_boid;
    let sp = species_table[species_ids[boid]];

    let newest = (u.trail_head + TRAIL_CAPACITY - 1u) % TRAIL_CAPACITY;
    let older_slot = (newest + TRAIL_CAPACITY - 1u - seg) % TRAIL_CAPACITY;
    let newer_slot = (newest + TRAIL_CAPACITY - seg) % TRAIL_CAPACITY;

    var p_new = trails[boid * TRAIL_CAPACITY + newer_slot];
    var p_old = trails[boid * TRAIL_CAPACITY + older_slot];
    if (seg == 0u) {
        p_new = positions[boid];
    }

    var delta = p_new - p_old;
    if (abs(delta.x) > u.width * WRAP_CLAMP_FRACTION || abs(delta.y) > u.height * WRAP_CLAMP_FRACTION) {
        // The segment crosses a wrap: take the short way round and stop
        // the far endpoint at the canvas edge.
        if (abs(delta.x) > u.width * WRAP_CLAMP_FRACTION) { delta.x = delta.x - sign(delta.x) * u.width; }
        if (abs(delta.y) > u.height * WRAP_CLAMP_FRACTION) { delta.y = delta.y - sign(delta.y) * u.height; }
        p_old = clamp(p_new - delta, vec2<f32>(0.0, 0.0), vec2<f32>(u.width, u.height));
        delta = p_new - p_old;
    }
    let dir = select(vec2<f32>(1.0, 0.0), normalize(delta), length(delta) > 1e-4);
    let perp = vec2<f32>(-dir.y, dir.x);

    let t_head = 1.0 - f32(seg) / f32(segments_per_boid);
    let width = mix(1.0, sp.size * u.boid_size * 0.6, t_head);
    let alpha = mix(0.6, 1.0, t_head);

    var corner = array<vec2<f32>, 6>(
        p_old - perp * width, p_new - perp * width, p_old + perp * width,
        p_old + perp * width, p_new - perp * width, p_new + perp * width);

    var out: VSOut;
    out.pos = clip_space(corner[vi]);
    out.color = vec4<f32>(hsl_to_rgb(sp.hue, sp.saturation, sp.lightness), alpha);
    return out;
}

@fragment
fn trails_fs(in: VSOut) -> @location(0) vec4<f32> {
    return vec4<f32>(in.color.rgb * in.color.a, in.color.a);
}
`),
}

// Boids is the third draw call: a hexagonal triangle-fan silhouette,
// instanced x4 per boid for the wrap-boundary ghost copies, colored
// by the three-channel HSL curve/spectrum system.
var Boids = Source{
	Label:  "render.boids",
	Vertex: "boids_vs", Fragment: "boids_fs",
	WGSL: withUniforms(colorCommon + `
struct Species {
    alignment: f32, cohesion: f32, separation: f32, perception: f32,
    max_speed: f32, max_force: f32, rebels: f32, _pad0: f32,
    hue: f32, saturation: f32, lightness: f32, head_shape: u32,
    size: f32, trail_length: u32, alpha_mode: u32, _pad1: f32,
    cursor_force: f32, cursor_response: f32, cursor_vortex: f32, _pad2: f32,
};

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var<storage, read> positions: array<vec2<f32>>;
@group(0) @binding(2) var<storage, read> velocities: array<vec2<f32>>;
@group(0) @binding(3) var<storage, read> species_ids: array<u32>;
@group(0) @binding(4) var<storage, read> species_table: array<Species, 7>;
@group(0) @binding(5) var<storage, read> metrics: array<vec4<f32>>;
@group(0) @binding(6) var<storage, read> birth_colors: array<f32>;
@group(1) @binding(0) var<storage, read> hue_curve: array<f32>;
@group(1) @binding(1) var<storage, read> sat_curve: array<f32>;
@group(1) @binding(2) var<storage, read> bright_curve: array<f32>;

struct VSOut {
    @builtin(position) pos: vec4<f32>,
    @location(0) color: vec3<f32>,
};

fn clip_space(p: vec2<f32>) -> vec4<f32> {
    let ndc = vec2<f32>(p.x / u.width * 2.0 - 1.0, 1.0 - p.y / u.height * 2.0);
    return vec4<f32>(ndc, 0.0, 1.0);
}

fn raw_channel(source: u32, speed: f32, heading: f32, turning: f32, true_turning: f32,
               species_id: u32, density: f32, anisotropy: f32, spectral: f32, birth: f32) -> f32 {
    switch source {
        case SRC_SPEED: { return clamp(speed / 6.0, 0.0, 1.0); }
        case SRC_ORIENTATION: { return fract(heading / 6.2831853 + 0.5); }
        case SRC_TURNING: { return clamp(turning, 0.0, 1.0); }
        case SRC_TRUE_TURNING: { return clamp(true_turning, 0.0, 1.0); }
        case SRC_SPECIES: { return f32(species_id) / 7.0; }
        case SRC_DENSITY: { return clamp(density, 0.0, 1.0); }
        case SRC_ANISOTROPY: { return clamp(anisotropy, 0.0, 1.0); }
        case SRC_SPECTRAL: { return fract(spectral / 6.2831853 + 0.5); }
        default: { return birth; }
    }
}

// EDGE_THRESHOLD_FACTOR must match EdgeThresholdFactor (1.5).
const EDGE_THRESHOLD_FACTOR: f32 = 1.5;

@vertex
fn boids_vs(@builtin(vertex_index) vi: u32, @builtin(instance_index) ii: u32) -> VSOut {
    let boid = ii / 4u;
    let ghost = ii % 4u;
    let sp = species_table[species_ids[boid]];
    let pos = positions[boid];
    let vel = velocities[boid];
    let heading = atan2(vel.y, vel.x);
    let speed = length(vel);
    let size = sp.size * u.boid_size;

    var offset = vec2<f32>(0.0, 0.0);
    var visible = true;
    let wrap_x = u.boundary_mode == 1u || u.boundary_mode == 3u || u.boundary_mode == 4u || u.boundary_mode == 6u || u.boundary_mode == 7u || u.boundary_mode == 8u;
    let wrap_y = u.boundary_mode == 2u || u.boundary_mode == 3u || u.boundary_mode == 5u || u.boundary_mode == 6u || u.boundary_mode == 7u || u.boundary_mode == 8u;
    let threshold = size * EDGE_THRESHOLD_FACTOR;

    if (ghost == 1u) {
        visible = wrap_x && (pos.x < threshold || pos.x > u.width - threshold);
        offset.x = select(u.width, -u.width, pos.x < threshold);
    } else if (ghost == 2u) {
        visible = wrap_y && (pos.y < threshold || pos.y > u.height - threshold);
        offset.y = select(u.height, -u.height, pos.y < threshold);
    } else if (ghost == 3u) {
        visible = wrap_x && wrap_y &&
            (pos.x < threshold || pos.x > u.width - threshold) &&
            (pos.y < threshold || pos.y > u.height - threshold);
        offset.x = select(u.width, -u.width, pos.x < threshold);
        offset.y = select(u.height, -u.height, pos.y < threshold);
    }

    var local = array<vec2<f32>, 18>();
    let n_sides = 6u;
    for (var k: u32 = 0u; k < 18u; k = k + 1u) {
        if (k < n_sides * 3u) {
            let tri = k / 3u;
            let corner = k % 3u;
            if (corner == 0u) {
                local[k] = vec2<f32>(0.0, 0.0);
            } else {
                let a = (f32(tri) + f32(corner) - 1.0) / f32(n_sides) * 6.2831853;
                local[k] = vec2<f32>(cos(a), sin(a)) * size;
            }
        } else {
            local[k] = vec2<f32>(0.0, 0.0);
        }
    }

    let c = cos(heading);
    let s = sin(heading);
    let lp = local[vi % 18u];
    let rotated = vec2<f32>(lp.x * c - lp.y * s, lp.x * s + lp.y * c);
    var world = pos + rotated + offset;
    if (!visible) {
        world = vec2<f32>(-1e6, -1e6);
    }

    let m = metrics[boid];
    let hue_raw = raw_channel(u.color_mode, speed, heading, m.z, m.z, species_ids[boid], m.x, m.y, m.w, birth_colors[boid]);
    let sat_raw = raw_channel(u.saturation_source, speed, heading, m.z, m.z, species_ids[boid], m.x, m.y, m.w, birth_colors[boid]);
    let bright_raw = raw_channel(u.brightness_source, speed, heading, m.z, m.z, species_ids[boid], m.x, m.y, m.w, birth_colors[boid]);

    var hue = hue_raw;
    var sat = sat_raw;
    var bright = bright_raw;
    if (u.saturation_source != SRC_SPECIES && (u.curve_enabled & 2u) != 0u) {
        sat = sample_curve(&sat_curve, sat_raw);
    }
    if (u.brightness_source != SRC_SPECIES && (u.curve_enabled & 4u) != 0u) {
        bright = sample_curve(&bright_curve, bright_raw);
    }

    var rgb: vec3<f32>;
    if (u.color_mode == SRC_SPECIES) {
        rgb = hsl_to_rgb(sp.hue, sp.saturation, sp.lightness);
    } else if (u.color_spectrum != 0u) {
        if ((u.curve_enabled & 1u) != 0u) {
            hue = sample_curve(&hue_curve, hue_raw);
        }
        let base = apply_spectrum(u.color_spectrum, hue);
        let luminance = dot(base, vec3<f32>(0.299, 0.587, 0.114));
        rgb = mix(base, vec3<f32>(luminance, luminance, luminance), 1.0 - sat) * bright * 2.0;
    } else {
        if ((u.curve_enabled & 1u) != 0u) {
            hue = sample_curve(&hue_curve, hue_raw);
        }
        rgb = hsl_to_rgb(hue, sat, bright);
    }

    var out: VSOut;
    out.pos = clip_space(world);
    out.color = rgb * u.sensitivity;
    return out;
}

@fragment
fn boids_fs(in: VSOut) -> @location(0) vec4<f32> {
    return vec4<f32>(in.color, 1.0);
}
`),
}
