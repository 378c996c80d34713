package gifenc

import (
	"image"
	"image/draw"
)

// lumaThreshold splits Rec.601 luma into white (>=) and black.
const lumaThreshold = 128

// quantize maps src onto the two-colour palette of dst. Both share the same
// size; dst's origin is (0, 0).
func quantize(dst *image.Paletted, src *image.RGBA, dither bool) {
	if dither {
		draw.FloydSteinberg.Draw(dst, dst.Rect, src, src.Rect.Min)
		return
	}

	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < h; y++ {
		in := src.Pix[src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y):]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := range out {
			r, g, b := int(in[x*4]), int(in[x*4+1]), int(in[x*4+2])
			if (299*r+587*g+114*b)/1000 >= lumaThreshold {
				out[x] = indexWhite
			} else {
				out[x] = indexBlack
			}
		}
	}
}
