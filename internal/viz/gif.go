package viz

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
)

// GIFRecorder rasterizes canvas snapshots into an animated GIF.
type GIFRecorder struct {
	CellW, CellH int
	// Delay between frames in hundredths of a second.
	Delay  int
	frames []*image.Paletted
}

func NewGIFRecorder() *GIFRecorder {
	return &GIFRecorder{CellW: 8, CellH: 16, Delay: 2}
}

var gifPalette = color.Palette{color.Black, color.RGBA{0x00, 0xc8, 0xff, 0xff}}

// Capture appends the current canvas contents as a frame.
func (g *GIFRecorder) Capture(c *Canvas) {
	img := image.NewPaletted(image.Rect(0, 0, c.Width*g.CellW, c.Height*g.CellH), gifPalette)
	dotW, dotH := g.CellW/2, g.CellH/4
	dw, dh := c.Dots()
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if !c.Get(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	g.frames = append(g.frames, img)
}

func (g *GIFRecorder) Frames() int { return len(g.frames) }

var ErrNoFrames = errors.New("viz: no frames captured")

// Encode writes every captured frame and forgets them.
func (g *GIFRecorder) Encode(w io.Writer) error {
	if len(g.frames) == 0 {
		return ErrNoFrames
	}
	anim := gif.GIF{LoopCount: 0}
	for _, f := range g.frames {
		anim.Image = append(anim.Image, f)
		anim.Delay = append(anim.Delay, g.Delay)
	}
	g.frames = nil
	return gif.EncodeAll(w, &anim)
}
