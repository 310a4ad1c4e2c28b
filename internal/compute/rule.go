package compute

import "github.com/san-kum/lifesim/internal/grid"

// Rule returns the next state of a cell given its live neighbor count.
func Rule(cell, neighbors uint32) uint32 {
	switch {
	case cell == grid.Alive && (neighbors < 2 || neighbors > 3):
		return grid.Dead
	case cell == grid.Dead && neighbors == 3:
		return grid.Alive
	default:
		return cell
	}
}
