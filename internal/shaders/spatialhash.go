// SPDX-License-Identifier: Unlicense OR MIT

package shaders

// SpatialHashWorkgroup is the Blelloch scan's workgroup size; each
// workgroup processes 2x this many grid slots.
const SpatialHashWorkgroup = 256

// Clear is pass 1: zero cellCounts and cellOffsets for every grid slot
// in one dispatch.
var Clear = Source{
	Label:   "spatialhash.clear",
	Compute: "clear_grid",
	WGSL: withUniforms(`
@group(0) @binding(0) var<storage, read_write> cell_counts: array<atomic<u32>>;
@group(0) @binding(1) var<storage, read_write> cell_offsets: array<atomic<u32>>;
@group(0) @binding(2) var<uniform> u: Uniforms;

@compute @workgroup_size(64)
fn clear_grid(@builtin(global_invocation_id) gid: vec3<u32>) {
    let slot = gid.x;
    if (slot >= u.total_slots) {
        return;
    }
    atomicStore(&cell_counts[slot], 0u);
    atomicStore(&cell_offsets[slot], 0u);
}
`),
}

// Count is pass 2: hash every boid into its grid cell and atomically
// bump that cell's count, caching the slot on the boid for pass 4.
var Count = Source{
	Label:   "spatialhash.count",
	Compute: "count_boids",
	WGSL: withUniforms(`
@group(0) @binding(0) var<storage, read> positions_in: array<vec2<f32>>;
@group(0) @binding(1) var<storage, read_write> cell_counts: array<atomic<u32>>;
@group(0) @binding(2) var<storage, read_write> boid_cell_index: array<u32>;
@group(0) @binding(3) var<uniform> u: Uniforms;

// locally_perfect_hash implements the kappa/beta/slot construction from
// the spatial grid data model: collision-free within any 3x3 window.
fn locally_perfect_hash(cx: i32, cy: i32) -> u32 {
    let kappa = 3u * (u32(cx) % 3u) + (u32(cy) % 3u);
    let beta = (u32(cy) / 3u) * u.reduced_width + (u32(cx) / 3u);
    return 9u * beta + kappa;
}

@compute @workgroup_size(64)
fn count_boids(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= u.boid_count) {
        return;
    }
    let p = positions_in[i];
    var cx = i32(clamp(p.x / u.cell_size, 0.0, f32(u.grid_w) - 1.0));
    var cy = i32(clamp(p.y / u.cell_size, 0.0, f32(u.grid_h) - 1.0));
    let slot = locally_perfect_hash(cx, cy);
    boid_cell_index[i] = slot;
    atomicAdd(&cell_counts[slot], 1u);
}
`),
}

// Scan is pass 3: an exclusive Blelloch prefix sum over cellCounts,
// writing prefixSums in place and each workgroup's total to blockSums.
var Scan = Source{
	Label:   "spatialhash.scan",
	Compute: "scan_blelloch",
	WGSL: withUniforms(`
@group(0) @binding(0) var<storage, read> cell_counts: array<u32>;
@group(0) @binding(1) var<storage, read_write> prefix_sums: array<u32>;
@group(0) @binding(2) var<storage, read_write> block_sums: array<u32>;
@group(0) @binding(3) var<uniform> u: Uniforms;

const SCAN_WG: u32 = 256u;
var<workgroup> shared_data: array<u32, 512>;

@compute @workgroup_size(256)
fn scan_blelloch(@builtin(workgroup_id) wgid: vec3<u32>, @builtin(local_invocation_id) lid: vec3<u32>) {
    let block = wgid.x;
    let tid = lid.x;
    let base = block * (2u * SCAN_WG);

    let a = base + 2u * tid;
    let b = a + 1u;
    shared_data[2u * tid]     = select(0u, cell_counts[a], a < u.total_slots);
    shared_data[2u * tid + 1u] = select(0u, cell_counts[b], b < u.total_slots);

    var offset: u32 = 1u;
    var d: u32 = SCAN_WG;
    loop {
        if (d == 0u) { break; }
        workgroupBarrier();
        if (tid < d) {
            let ai = offset * (2u * tid + 1u) - 1u;
            let bi = offset * (2u * tid + 2u) - 1u;
            shared_data[bi] = shared_data[bi] + shared_data[ai];
        }
        offset = offset * 2u;
        d = d / 2u;
    }

    if (tid == 0u) {
        block_sums[block] = shared_data[2u * SCAN_WG - 1u];
        shared_data[2u * SCAN_WG - 1u] = 0u;
    }

    offset = SCAN_WG;
    d = 1u;
    loop {
        if (offset == 0u) { break; }
        workgroupBarrier();
        if (tid < d) {
            let ai = offset * (2u * tid + 1u) - 1u;
            let bi = offset * (2u * tid + 2u) - 1u;
            let t = shared_data[ai];
            shared_data[ai] = shared_data[bi];
            shared_data[bi] = shared_data[bi] + t;
        }
        d = d * 2u;
        offset = offset / 2u;
    }
    workgroupBarrier();

    if (a < u.total_slots) {
        prefix_sums[a] = shared_data[2u * tid];
    }
    if (b < u.total_slots) {
        prefix_sums[b] = shared_data[2u * tid + 1u];
    }
}
`),
}

// ScanBlockSums is pass 3a: a single-thread exclusive scan of
// blockSums itself, run only when the grid spans more than one
// workgroup.
var ScanBlockSums = Source{
	Label:   "spatialhash.scan_block_sums",
	Compute: "scan_block_sums",
	WGSL: withUniforms(`
@group(0) @binding(0) var<storage, read_write> block_sums: array<u32>;
@group(0) @binding(1) var<uniform> u: Uniforms;

@compute @workgroup_size(1)
fn scan_block_sums(@builtin(global_invocation_id) gid: vec3<u32>) {
    let num_blocks = (u.total_slots + 511u) / 512u;
    var running: u32 = 0u;
    for (var b: u32 = 0u; b < num_blocks; b = b + 1u) {
        let total = block_sums[b];
        block_sums[b] = running;
        running = running + total;
    }
}
`),
}

// BlockOffsetAdd is pass 3b: adds each slot's block total onto its
// local prefix sum, turning the per-workgroup scan into a global one.
var BlockOffsetAdd = Source{
	Label:   "spatialhash.block_offset_add",
	Compute: "add_block_offsets",
	WGSL: withUniforms(`
@group(0) @binding(0) var<storage, read_write> prefix_sums: array<u32>;
@group(0) @binding(1) var<storage, read> block_sums: array<u32>;
@group(0) @binding(2) var<uniform> u: Uniforms;

@compute @workgroup_size(256)
fn add_block_offsets(@builtin(global_invocation_id) gid: vec3<u32>) {
    let slot = gid.x;
    if (slot >= u.total_slots) {
        return;
    }
    let block = slot / 512u;
    prefix_sums[slot] = prefix_sums[slot] + block_sums[block];
}
`),
}

// Scatter is pass 4: each boid claims a slot inside its cell's run via
// an atomic counter seeded from the zeroed cellOffsets, and writes its
// own index there.
var Scatter = Source{
	Label:   "spatialhash.scatter",
	Compute: "scatter_indices",
	WGSL: withUniforms(`
@group(0) @binding(0) var<storage, read> boid_cell_index: array<u32>;
@group(0) @binding(1) var<storage, read> prefix_sums: array<u32>;
@group(0) @binding(2) var<storage, read_write> cell_offsets: array<atomic<u32>>;
@group(0) @binding(3) var<storage, read_write> sorted_indices: array<u32>;
@group(0) @binding(4) var<uniform> u: Uniforms;

@compute @workgroup_size(64)
fn scatter_indices(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= u.boid_count) {
        return;
    }
    let slot = boid_cell_index[i];
    let within = atomicAdd(&cell_offsets[slot], 1u);
    sorted_indices[prefix_sums[slot] + within] = i;
}
`),
}
