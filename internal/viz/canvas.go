package viz

import (
	"strings"

	"github.com/san-kum/lifesim/internal/render"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800 // Empty braille char
		}
	}
	return c
}

// Set sets a pixel at (x, y) where x,y are in "sub-pixel" coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	// Early bounds check for negative coordinates
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	subX := x % 2
	subY := y % 4

	c.Grid[row][col] |= rune(pixelMap[subY][subX])
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Dots returns the canvas size in sub-pixels.
func (c *Canvas) Dots() (int, int) { return c.Width * 2, c.Height * 4 }

// Plot draws a side x side generation as the largest square that fits,
// sampling cells when the grid is larger than the canvas.
func (c *Canvas) Plot(cells []uint32, side int, scratch []uint32) []uint32 {
	c.Clear()
	dw, dh := c.Dots()
	edge := min(dw, dh, side)
	if edge <= 0 {
		return scratch
	}
	if cap(scratch) < edge*edge {
		scratch = make([]uint32, edge*edge)
	}
	scratch = scratch[:edge*edge]
	render.Sample(scratch, edge, edge, cells, side)
	for y := 0; y < edge; y++ {
		for x := 0; x < edge; x++ {
			if scratch[y*edge+x] != 0 {
				c.Set(x, y)
			}
		}
	}
	return scratch
}
