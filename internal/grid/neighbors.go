package grid

// Offsets lists the eight Moore neighbors as (dx, dy).
var Offsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Neighbors sums the live values of the eight toroidal neighbors of (x, y).
func Neighbors(cells []uint32, side, x, y int) uint32 {
	var n uint32
	for _, o := range Offsets {
		nx := Wrap(x+o[0], side)
		ny := Wrap(y+o[1], side)
		n += cells[ny*side+nx]
	}
	return n
}
