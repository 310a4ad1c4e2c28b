// Package compute provides the Game of Life step kernels.
//
// Two kernels compute generation N+1 from generation N and must agree cell
// for cell:
//
//   - [CPU]: a data-parallel host kernel that splits rows across workers
//   - [LifePipeline]: the accelerator kernel, as a GLSL compute shader for
//     OpenGL devices and as a per-invocation host function for the software
//     device in package gpu
//
// Both apply [Rule] to the sum of the eight toroidal neighbors.
//
//	cpu := compute.NewCPU(0)
//	next := cpu.Step(current)
package compute
