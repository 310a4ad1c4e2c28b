package compute

import (
	"fmt"

	"github.com/san-kum/lifesim/internal/gpu"
	"github.com/san-kum/lifesim/internal/grid"
)

// DefaultTileSize is the edge of the square workgroup.
const DefaultTileSize = 8

const lifeShaderTemplate = `#version 430

layout(local_size_x = %[1]d, local_size_y = %[1]d) in;

layout(std430, binding = 0) readonly buffer Current { uint cells_in[]; };
layout(std430, binding = 1) buffer Next { uint cells_out[]; };

uniform uint side;

uint wrap(int v) {
    int n = int(side);
    return uint(((v %% n) + n) %% n);
}

void main() {
    uint x = gl_GlobalInvocationID.x;
    uint y = gl_GlobalInvocationID.y;
    if (x >= side || y >= side) {
        return;
    }

    uint neighbors = 0u;
    for (int dy = -1; dy <= 1; dy++) {
        for (int dx = -1; dx <= 1; dx++) {
            if (dx == 0 && dy == 0) {
                continue;
            }
            uint nx = wrap(int(x) + dx);
            uint ny = wrap(int(y) + dy);
            neighbors += cells_in[ny * side + nx];
        }
    }

    uint idx = y * side + x;
    uint cell = cells_in[idx];
    if (cell == 1u && (neighbors < 2u || neighbors > 3u)) {
        cells_out[idx] = 0u;
    } else if (cell == 0u && neighbors == 3u) {
        cells_out[idx] = 1u;
    } else {
        cells_out[idx] = cell;
    }
}
`

// LifeShader returns the GLSL compute shader for the given tile size.
func LifeShader(tile int) string {
	return fmt.Sprintf(lifeShaderTemplate, tile)
}

// LifeInvocation is one accelerator invocation in host form. Invocations
// past the grid edge, produced by rounding the dispatch up, do nothing.
func LifeInvocation(x, y uint32, p gpu.Params, read, write []uint32) {
	side := p.Side
	if x >= side || y >= side {
		return
	}
	idx := y*side + x
	write[idx] = Rule(read[idx], grid.Neighbors(read, int(side), int(x), int(y)))
}

// LifePipeline describes the accelerator step kernel.
func LifePipeline(tile int) gpu.PipelineDescriptor {
	if tile <= 0 {
		tile = DefaultTileSize
	}
	return gpu.PipelineDescriptor{
		Label:    "life_step",
		TileSize: tile,
		GLSL:     LifeShader(tile),
		Kernel:   LifeInvocation,
	}
}

// Workgroups returns the dispatch size along one axis for side cells.
func Workgroups(side, tile int) uint32 {
	return gpu.Workgroups(side, tile)
}
