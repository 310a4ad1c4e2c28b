package viz

import (
	"image"
	"image/color"
	"image/gif"
	"os"
)

// Recorder collects canvas frames into a GIF.
type Recorder struct {
	frames []*image.Paletted
}

const (
	charW = 8
	charH = 16
)

// Capture rasterizes c into a new GIF frame.
func (r *Recorder) Capture(c *Canvas) {
	img := image.NewPaletted(image.Rect(0, 0, c.Width*charW, c.Height*charH), color.Palette{color.Black, color.White})
	dotW, dotH := charW/2, charH/4
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			ch := c.Grid[row][col]
			if ch <= 0x2800 {
				continue
			}
			pattern := int(ch - 0x2800)
			baseX, baseY := col*charW, row*charH
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(baseX+dx*dotW+px, baseY+dy*dotH+py, 1)
						}
					}
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

func (r *Recorder) Len() int { return len(r.frames) }

// Save writes the frames to path. It does nothing when no frames were captured.
func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}
