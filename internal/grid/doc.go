// Package grid holds the canonical representation of one Game of Life
// generation: a square, row-major buffer of 32-bit cells that are either
// [Dead] or [Alive].
//
// The grid is a torus. Every coordinate lookup goes through [Wrap], so
// there are no edges and no out-of-range accesses:
//
//	g := grid.Random(256, 0.2, grid.NewRNG(42))
//	n := grid.Neighbors(g.Cells, g.Side, 0, 0) // reads row 255 and column 255
//
// The same addressing is compiled into the accelerator shader in package
// compute, so host and device kernels see the same topology.
package grid
