package software

import (
	"image"
	"image/color"
)

// RGBA is a texel in linear [0, 1] floats.
type RGBA [4]float32

// Texel samples src at the destination pixel (x, y) of a dw x dh target using nearest
// filtering, so inputs of a different size are stretched to fit.
//
// Parameters:
//   - src: the image to sample
//   - x: destination column
//   - y: destination row
//   - dw: destination width
//   - dh: destination height
//
// Returns:
//   - RGBA: the sampled texel
func Texel(src *image.RGBA, x, y, dw, dh int) RGBA {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw == 0 || sh == 0 {
		return RGBA{}
	}
	sx, sy := x, y
	if sw != dw {
		sx = x * sw / dw
	}
	if sh != dh {
		sy = y * sh / dh
	}
	i := src.PixOffset(sb.Min.X+sx, sb.Min.Y+sy)
	p := src.Pix[i : i+4 : i+4]
	return RGBA{
		float32(p[0]) / 255,
		float32(p[1]) / 255,
		float32(p[2]) / 255,
		float32(p[3]) / 255,
	}
}

// Put writes a texel to dst at (x, y), clamping each channel to [0, 1] and rounding.
//
// Parameters:
//   - dst: the image to write
//   - x: column
//   - y: row
//   - c: the texel
func Put(dst *image.RGBA, x, y int, c RGBA) {
	i := dst.PixOffset(x, y)
	p := dst.Pix[i : i+4 : i+4]
	for k := range 4 {
		p[k] = quantize(c[k])
	}
}

func quantize(v float32) uint8 {
	switch {
	case v != v || v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

// Color converts a texel into a color.RGBA.
func (c RGBA) Color() color.RGBA {
	var px [4]uint8
	for k, v := range c {
		px[k] = quantize(v)
	}
	return color.RGBA{R: px[0], G: px[1], B: px[2], A: px[3]}
}

// Luminance returns the Rec. 709 luma of the texel.
func (c RGBA) Luminance() float32 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}
