// Package render turns cell buffers into pixels for the presentation adapters.
package render

import "image/color"

// FillBinaryRGBA converts binary cell data (0/1) into RGBA pixels in buf.
func FillBinaryRGBA(buf []byte, cells []uint32, on, off color.Color) {
	rOn, gOn, bOn, aOn := on.RGBA()
	rOff, gOff, bOff, aOff := off.RGBA()
	for i, c := range cells {
		base := i * 4
		if c != 0 {
			buf[base+0] = uint8(rOn >> 8)
			buf[base+1] = uint8(gOn >> 8)
			buf[base+2] = uint8(bOn >> 8)
			buf[base+3] = uint8(aOn >> 8)
			continue
		}
		buf[base+0] = uint8(rOff >> 8)
		buf[base+1] = uint8(gOff >> 8)
		buf[base+2] = uint8(bOff >> 8)
		buf[base+3] = uint8(aOff >> 8)
	}
}

// Sample resamples a side x side grid into dst, a w x h grid, picking the
// nearest source cell for each destination cell.
func Sample(dst []uint32, w, h int, cells []uint32, side int) {
	if w == side && h == side {
		copy(dst, cells[:side*side])
		return
	}
	for y := 0; y < h; y++ {
		sy := y * side / h
		row := sy * side
		for x := 0; x < w; x++ {
			dst[y*w+x] = cells[row+x*side/w]
		}
	}
}

// Population counts the live cells.
func Population(cells []uint32) int {
	n := 0
	for _, c := range cells {
		n += int(c)
	}
	return n
}

// Fit returns the texture edge for a side x side grid capped at limit.
func Fit(side, limit int) int {
	if limit > 0 && side > limit {
		return limit
	}
	return side
}
