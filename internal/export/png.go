package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/san-kum/lifesim/internal/render"
)

var (
	CellOn  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	CellOff = color.RGBA{R: 10, G: 10, B: 10, A: 255}
)

// GridImage rasterizes a side x side generation, sampled down to at most
// limit pixels per edge.
func GridImage(cells []uint32, side, limit int) *image.RGBA {
	edge := render.Fit(side, limit)
	sampled := make([]uint32, edge*edge)
	render.Sample(sampled, edge, edge, cells, side)

	img := image.NewRGBA(image.Rect(0, 0, edge, edge))
	render.FillBinaryRGBA(img.Pix, sampled, CellOn, CellOff)
	return img
}

// GridPNG writes a generation to path as a PNG.
func GridPNG(path string, cells []uint32, side, limit int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, GridImage(cells, side, limit))
}

// FrameWriter is a presentation target that writes every presented frame
// to dir as frame_00001.png, frame_00002.png and so on.
type FrameWriter struct {
	dir   string
	limit int

	mu    sync.Mutex
	image *image.RGBA
	n     int
	err   error
}

func NewFrameWriter(dir string, limit int) (*FrameWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FrameWriter{dir: dir, limit: limit}, nil
}

func (w *FrameWriter) DrawCells(cells []uint32, side int) {
	img := GridImage(cells, side, w.limit)
	w.mu.Lock()
	w.image = img
	w.mu.Unlock()
}

func (w *FrameWriter) Present() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.image == nil || w.err != nil {
		return
	}
	w.n++
	path := filepath.Join(w.dir, fmt.Sprintf("frame_%05d.png", w.n))
	f, err := os.Create(path)
	if err != nil {
		w.err = err
		return
	}
	defer f.Close()
	if err := png.Encode(f, w.image); err != nil {
		w.err = err
	}
	w.image = nil
}

// Written returns how many frames were saved and the first write error.
func (w *FrameWriter) Written() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n, w.err
}
