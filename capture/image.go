package capture

import (
	"image"
	"image/draw"
)

// frameFromRGBA wraps img as an RGBA frame. The pixel buffer is reused when
// it is already tightly packed, otherwise rows are copied out.
func frameFromRGBA(img *image.RGBA) Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rowLen := w * 4

	pix := img.Pix
	if img.Stride != rowLen || len(pix) != rowLen*h {
		pix = make([]byte, rowLen*h)
		for y := 0; y < h; y++ {
			src := img.Pix[y*img.Stride : y*img.Stride+rowLen]
			copy(pix[y*rowLen:(y+1)*rowLen], src)
		}
	}
	return Frame{Pix: pix, Width: w, Height: h, Format: PixelFormatRGBA}
}

// frameFromImage converts any decoded image into an RGBA frame.
func frameFromImage(img image.Image) Frame {
	if rgba, ok := img.(*image.RGBA); ok {
		return frameFromRGBA(rgba)
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return frameFromRGBA(dst)
}
