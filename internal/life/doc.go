// Package life runs a toroidal Game of Life on a compute device.
//
// A [Simulation] owns the host copy of the grid, a pair of device buffers
// managed by [Buffers], the accelerator pipeline and the CPU kernel. Each call
// to [Simulation.Frame] produces exactly one generation with the selected
// kernel and records its display into the same command buffer, so the
// device queue sees compute, upload and draw in order.
//
// Parity is generation mod 2: buffer A holds the current generation when the
// generation count is even, buffer B when it is odd. Switching from the
// accelerator to the CPU reads the current device buffer back into the host
// copy first, so the CPU kernel always steps the displayed generation.
package life
