// Package gpu provides the accelerator devices the simulation dispatches
// compute kernels on.
//
// Work reaches a device only through an explicit command stream:
//
//	enc := dev.CreateEncoder("frame")
//	enc.Dispatch(pipeline, gpu.BindGroup{Read: a, Write: b}, params, gx, gy)
//	enc.Draw(target, b, side)
//	cb, err := enc.Finish()
//	err = dev.Submit(cb) // returns before the work runs
//
// Commands inside one command buffer execute in recorded order and command
// buffers execute in submission order, so a render pass recorded after a
// dispatch always observes the dispatch's output.
//
// Two devices are available:
//
//   - soft: a software queue that runs compute kernels on host goroutines,
//     tiled into workgroups exactly as a GPU would. Always available.
//   - opengl: OpenGL 4.3 compute shaders over shader storage buffers.
//     Build with -tags opengl and create a GL context first.
package gpu
