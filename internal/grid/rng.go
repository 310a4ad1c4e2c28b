package grid

import "math/rand/v2"

// NewRNG returns a deterministic PCG source for the given seed.
func NewRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

// Random returns a grid where each cell is independently alive with probability p.
func Random(side int, p float64, rng *rand.Rand) Grid {
	if p < 0 || p > 1 {
		panic(ErrDensity)
	}
	g := New(side)
	Fill(g.Cells, p, rng)
	return g
}

// Fill overwrites buf with cells alive at probability p.
func Fill(buf []uint32, p float64, rng *rand.Rand) {
	for i := range buf {
		if rng.Float64() < p {
			buf[i] = Alive
		} else {
			buf[i] = Dead
		}
	}
}
