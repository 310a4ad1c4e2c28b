package gpu

import "context"

// Buffer is a device-resident array of 32-bit cells.
type Buffer interface {
	Label() string
	Len() int
}

// BindGroup binds Read to storage binding 0 (read-only) and Write to
// storage binding 1 (read-write).
type BindGroup struct {
	Read  Buffer
	Write Buffer
}

// Params are the uniforms passed to every kernel invocation.
type Params struct {
	Side uint32
}

// KernelFunc is the host form of a compute kernel: one call per invocation,
// identified by its global (x, y) id.
type KernelFunc func(x, y uint32, p Params, read, write []uint32)

// PipelineDescriptor describes a compute kernel. Devices use the form they
// can execute: GLSL for OpenGL, Kernel for the software queue.
type PipelineDescriptor struct {
	Label    string
	TileSize int
	GLSL     string
	Kernel   KernelFunc
}

// Pipeline is a compiled compute kernel.
type Pipeline interface {
	Label() string
	TileSize() int
}

// Target is one acquired presentation frame.
type Target interface {
	// DrawCells rasterizes a side x side generation. cells is only valid for
	// the duration of the call.
	DrawCells(cells []uint32, side int)
	// Present hands the frame to the screen.
	Present()
}

// Surface produces presentation frames.
type Surface interface {
	// Acquire returns the next frame, or ErrFrameUnavailable when none can
	// be had right now.
	Acquire() (Target, error)
	// Resize reconfigures presentation dimensions.
	Resize(width, height int)
}

// Encoder records commands. Nothing runs until the finished command buffer
// is submitted.
type Encoder interface {
	// WriteBuffer records a host-to-device upload. data is copied at record time.
	WriteBuffer(dst Buffer, data []uint32)
	// Dispatch records a compute pass of groupsX x groupsY workgroups.
	Dispatch(p Pipeline, bg BindGroup, params Params, groupsX, groupsY uint32)
	// Draw records a render pass that rasterizes src into dst and presents it.
	Draw(dst Target, src Buffer, side int)
	// Finish validates the recording and returns the command buffer.
	Finish() (CommandBuffer, error)
}

// CommandBuffer is a finished, submittable recording.
type CommandBuffer interface {
	Label() string
	Len() int
}

// Device is an accelerator with its own memory and an in-order queue.
type Device interface {
	Name() string
	CreateBuffer(label string, cells int) (Buffer, error)
	CreateBufferInit(label string, data []uint32) (Buffer, error)
	CreatePipeline(desc PipelineDescriptor) (Pipeline, error)
	CreateEncoder(label string) Encoder
	// Submit enqueues cb and returns without waiting for it to run.
	Submit(cb CommandBuffer) error
	// ReadBuffer copies b back to the host once all previously submitted
	// work has completed.
	ReadBuffer(ctx context.Context, b Buffer) ([]uint32, error)
	// WaitIdle blocks until all submitted work has completed.
	WaitIdle(ctx context.Context) error
	Close() error
}

// Workgroups returns how many tiles of size tile cover side cells, rounding up.
func Workgroups(side, tile int) uint32 {
	return uint32((side + tile - 1) / tile)
}
