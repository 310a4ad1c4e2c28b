package gpu

import "errors"

var (
	// ErrNoDevice indicates that no device with the requested name exists.
	ErrNoDevice = errors.New("gpu: no such device")

	// ErrUnavailable indicates a device that exists but cannot be opened here.
	ErrUnavailable = errors.New("gpu: device not available")

	// ErrClosed indicates use of a device after Close.
	ErrClosed = errors.New("gpu: device closed")

	// ErrForeignResource indicates a buffer or pipeline from another device.
	ErrForeignResource = errors.New("gpu: resource belongs to a different device")

	// ErrAliasedBinding indicates a bind group whose read and write buffers are the same.
	ErrAliasedBinding = errors.New("gpu: read and write bindings alias the same buffer")

	// ErrBufferSize indicates a buffer too small for the requested access.
	ErrBufferSize = errors.New("gpu: buffer size mismatch")

	// ErrPipeline indicates an invalid pipeline descriptor.
	ErrPipeline = errors.New("gpu: invalid pipeline")

	// ErrFrameUnavailable indicates a presentation frame could not be acquired.
	// It is transient; callers skip display for that frame.
	ErrFrameUnavailable = errors.New("gpu: frame unavailable")
)
