//go:build windows

package webgpu

// WGSL compute shaders for the device kernels.
//
// Every shader is one-dimensional over its output: the host dispatches
// ceil(size / workgroupSize) workgroups, folded into a second dimension when
// the count exceeds the per-dimension limit, and the shader recovers the flat
// index from num_workgroups. Tensors use the observation-major layout
// ((n*C + c)*H + h)*W + w.

// workgroupSize is the number of threads per workgroup.
const workgroupSize = 256

// conv2dShader performs 2D convolution with bias.
// Input: [H, W, C, N], filters: [FH, FW, C, F], output: [HOut, WOut, F, N].
const conv2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> filters: array<f32>;
@group(0) @binding(2) var<storage, read> bias: array<f32>;
@group(0) @binding(3) var<storage, read_write> output: array<f32>;

struct Params {
    size: u32,
    in_channels: u32,
    in_height: u32,
    in_width: u32,
    out_channels: u32,
    out_height: u32,
    out_width: u32,
    kernel_h: u32,
    kernel_w: u32,
    stride_h: u32,
    stride_w: u32,
    pad_h: u32,
    pad_w: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.x + gid.y * nwg.x * 256u;
    if (idx >= params.size) {
        return;
    }

    let ow = idx % params.out_width;
    let oh = (idx / params.out_width) % params.out_height;
    let f = (idx / (params.out_width * params.out_height)) % params.out_channels;
    let n = idx / (params.out_width * params.out_height * params.out_channels);

    var sum: f32 = bias[f];
    for (var c: u32 = 0u; c < params.in_channels; c = c + 1u) {
        for (var i: u32 = 0u; i < params.kernel_h; i = i + 1u) {
            let ih = i32(oh * params.stride_h + i) - i32(params.pad_h);
            if (ih < 0 || ih >= i32(params.in_height)) {
                continue;
            }
            for (var j: u32 = 0u; j < params.kernel_w; j = j + 1u) {
                let iw = i32(ow * params.stride_w + j) - i32(params.pad_w);
                if (iw < 0 || iw >= i32(params.in_width)) {
                    continue;
                }
                let in_idx = ((n * params.in_channels + c) * params.in_height + u32(ih)) * params.in_width + u32(iw);
                let k_idx = ((f * params.in_channels + c) * params.kernel_h + i) * params.kernel_w + j;
                sum = sum + input[in_idx] * filters[k_idx];
            }
        }
    }
    output[idx] = sum;
}
`

// fullyConnectedShader computes z = W x + b per observation.
// Input: [N, K] rows, weights: [O, K] rows, output: [N, O] rows.
const fullyConnectedShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> weights: array<f32>;
@group(0) @binding(2) var<storage, read> bias: array<f32>;
@group(0) @binding(3) var<storage, read_write> output: array<f32>;

struct Params {
    size: u32,
    inputs: u32,
    outputs: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.x + gid.y * nwg.x * 256u;
    if (idx >= params.size) {
        return;
    }

    let o = idx % params.outputs;
    let n = idx / params.outputs;

    var sum: f32 = bias[o];
    for (var k: u32 = 0u; k < params.inputs; k = k + 1u) {
        sum = sum + input[n * params.inputs + k] * weights[o * params.inputs + k];
    }
    output[idx] = sum;
}
`

// pool2dShader performs max (mode 0) or average (mode 1) pooling with
// padding. Padding never wins a max and counts as zero in an average,
// which always divides by the full window area.
const pool2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;

struct Params {
    size: u32,
    channels: u32,
    in_height: u32,
    in_width: u32,
    out_height: u32,
    out_width: u32,
    pool_h: u32,
    pool_w: u32,
    stride_h: u32,
    stride_w: u32,
    pad_h: u32,
    pad_w: u32,
    mode: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.x + gid.y * nwg.x * 256u;
    if (idx >= params.size) {
        return;
    }

    let ow = idx % params.out_width;
    let oh = (idx / params.out_width) % params.out_height;
    let plane = idx / (params.out_width * params.out_height);
    let base = plane * params.in_height * params.in_width;

    var best: f32 = -3.402823e+38; // -FLT_MAX
    var sum: f32 = 0.0;
    for (var i: u32 = 0u; i < params.pool_h; i = i + 1u) {
        let ih = i32(oh * params.stride_h + i) - i32(params.pad_h);
        if (ih < 0 || ih >= i32(params.in_height)) {
            continue;
        }
        for (var j: u32 = 0u; j < params.pool_w; j = j + 1u) {
            let iw = i32(ow * params.stride_w + j) - i32(params.pad_w);
            if (iw < 0 || iw >= i32(params.in_width)) {
                continue;
            }
            let v = input[base + u32(ih) * params.in_width + u32(iw)];
            best = max(best, v);
            sum = sum + v;
        }
    }

    if (params.mode == 0u) {
        output[idx] = best;
    } else {
        output[idx] = sum / f32(params.pool_h * params.pool_w);
    }
}
`

// reluShader applies ReLU activation: result = max(0, x).
const reluShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.x + gid.y * nwg.x * 256u;
    if (idx < params.size) {
        result[idx] = max(0.0, input[idx]);
    }
}
`

// reluBackwardShader computes the ReLU gradient: grad * (input > 0).
const reluBackwardShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.x + gid.y * nwg.x * 256u;
    if (idx < params.size) {
        result[idx] = select(0.0, grad[idx], input[idx] > 0.0);
    }
}
`

// softmaxShader normalizes across channels. One thread handles one
// (h, w, n) position; channels are plane elements apart.
const softmaxShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    channels: u32,
    plane: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.x + gid.y * nwg.x * 256u;
    if (idx >= params.size) {
        return;
    }

    let base = (idx / params.plane) * params.channels * params.plane + idx % params.plane;

    var max_val: f32 = input[base];
    for (var c: u32 = 1u; c < params.channels; c = c + 1u) {
        max_val = max(max_val, input[base + c * params.plane]);
    }

    var sum: f32 = 0.0;
    for (var c: u32 = 0u; c < params.channels; c = c + 1u) {
        let e = exp(input[base + c * params.plane] - max_val);
        result[base + c * params.plane] = e;
        sum = sum + e;
    }

    for (var c: u32 = 0u; c < params.channels; c = c + 1u) {
        result[base + c * params.plane] = result[base + c * params.plane] / sum;
    }
}
`

// softmaxBackwardShader computes d_input = s * (grad - sum(s * grad)) across
// channels, where s is the softmax output.
const softmaxBackwardShader = `
@group(0) @binding(0) var<storage, read> output: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    channels: u32,
    plane: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(num_workgroups) nwg: vec3<u32>) {
    let idx = gid.x + gid.y * nwg.x * 256u;
    if (idx >= params.size) {
        return;
    }

    let base = (idx / params.plane) * params.channels * params.plane + idx % params.plane;

    var dot_product: f32 = 0.0;
    for (var c: u32 = 0u; c < params.channels; c = c + 1u) {
        let o = base + c * params.plane;
        dot_product = dot_product + output[o] * grad[o];
    }

    for (var c: u32 = 0u; c < params.channels; c = c + 1u) {
        let o = base + c * params.plane;
        result[o] = output[o] * (grad[o] - dot_product);
    }
}
`

// shaderSources maps kernel names to their WGSL source.
var shaderSources = map[string]string{
	kernelConv2D:          conv2dShader,
	kernelFullyConnected:  fullyConnectedShader,
	kernelPool2D:          pool2dShader,
	kernelReLU:            reluShader,
	kernelReLUBackward:    reluBackwardShader,
	kernelSoftmax:         softmaxShader,
	kernelSoftmaxBackward: softmaxBackwardShader,
}
