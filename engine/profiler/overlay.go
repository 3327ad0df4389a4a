package profiler

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	overlayBackground = color.RGBA{R: 0x00, G: 0x00, B: 0x22, A: 0xe6}
	overlayBar        = color.RGBA{R: 0x00, G: 0xff, B: 0xff, A: 0xff}
	overlaySlowBar    = color.RGBA{R: 0xff, G: 0x55, B: 0x55, A: 0xff}
	overlayText       = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// graphCeiling is the frame time drawn at full graph height, in milliseconds.
const graphCeiling = 100.0

// slowFrame is the frame time above which bars are drawn in the warning colour.
const slowFrame = 1000.0 / 30.0

func (p *profiler) Overlay() *image.RGBA {
	p.mu.Lock()
	deltas := p.deltas()
	fps := p.fps()
	w, h := p.overlayWidth, p.overlayHeight
	p.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: overlayBackground}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	textHeight := face.Metrics().Height.Ceil()
	graphTop := min(textHeight+2, h)

	// one column per frame, newest on the right
	for i := range deltas {
		x := w - len(deltas) + i
		if x < 0 {
			continue
		}
		d := deltas[i]
		barHeight := int(float64(h-graphTop) * min(d, graphCeiling) / graphCeiling)
		c := overlayBar
		if d > slowFrame {
			c = overlaySlowBar
		}
		draw.Draw(img, image.Rect(x, h-barHeight, x+1, h), &image.Uniform{C: c}, image.Point{}, draw.Src)
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: overlayText},
		Face: face,
		Dot:  fixed.P(2, face.Metrics().Ascent.Ceil()+1),
	}
	d.DrawString(fmt.Sprintf("%.0f FPS", fps))
	return img
}
