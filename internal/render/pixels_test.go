package render

import (
	"image/color"
	"testing"
)

func TestFillBinaryRGBA(t *testing.T) {
	cells := []uint32{1, 0}
	buf := make([]byte, 8)
	FillBinaryRGBA(buf, cells, color.RGBA{R: 10, G: 20, B: 30, A: 255}, color.RGBA{A: 255})

	want := []byte{10, 20, 30, 255, 0, 0, 0, 255}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("buf = %v, want %v", buf, want)
		}
	}
}

func TestSample(t *testing.T) {
	// 4x4 with only the top-left 2x2 block alive.
	cells := []uint32{
		1, 1, 0, 0,
		1, 1, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 1,
	}
	dst := make([]uint32, 4)
	Sample(dst, 2, 2, cells, 4)
	want := []uint32{1, 0, 0, 0}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst = %v, want %v", dst, want)
			break
		}
	}

	same := make([]uint32, 16)
	Sample(same, 4, 4, cells, 4)
	for i := range cells {
		if same[i] != cells[i] {
			t.Fatalf("identity sample changed cell %d", i)
		}
	}
}

func TestPopulation(t *testing.T) {
	if got := Population([]uint32{1, 0, 1, 1}); got != 3 {
		t.Errorf("Population = %d, want 3", got)
	}
}

func TestFit(t *testing.T) {
	tests := []struct{ side, limit, want int }{
		{100, 2048, 100},
		{4096, 2048, 2048},
		{4096, 0, 4096},
	}
	for _, tt := range tests {
		if got := Fit(tt.side, tt.limit); got != tt.want {
			t.Errorf("Fit(%d, %d) = %d, want %d", tt.side, tt.limit, got, tt.want)
		}
	}
}
