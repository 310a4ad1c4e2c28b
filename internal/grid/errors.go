package grid

import "errors"

var (
	// ErrSide indicates a non-positive side length.
	ErrSide = errors.New("grid: side length must be positive")

	// ErrLength indicates a cell buffer whose length is not side*side.
	ErrLength = errors.New("grid: cell buffer length does not match side*side")

	// ErrCellValue indicates a cell holding something other than 0 or 1.
	ErrCellValue = errors.New("grid: cell value out of range")

	// ErrDensity indicates a live probability outside [0, 1].
	ErrDensity = errors.New("grid: live probability must be within [0, 1]")
)
