// Package transform converts raw captures into the RGBA frames the encoder
// consumes.
package transform

import (
	"errors"
	"fmt"
	"image"

	"go2tv.app/clipper/capture"
)

var (
	// ErrUnsupportedFormat reports a pixel format with no converter.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
	// ErrShortBuffer reports a Pix length other than Width×Height×4.
	ErrShortBuffer = errors.New("pixel buffer does not match frame size")
	// ErrTooSmall reports a frame that decimates to zero width or height.
	ErrTooSmall = errors.New("frame too small to downsample")
)

// Frame is an RGBA image, tightly packed. It never shares memory with the
// capture.Frame it was made from.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
}

// RGBA views f as an image without copying.
func (f Frame) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// ProgressFunc receives a completion fraction in [0, 1].
type ProgressFunc func(float64)

// Transformer reorders channels to RGBA and optionally decimates by 2.
type Transformer struct {
	Downsample bool
}

// OutputSize reports the frame size produced for a width×height capture.
func (t Transformer) OutputSize(width, height int) (int, int) {
	if t.Downsample {
		return DecimatedSize(width, height)
	}
	return width, height
}

// Frame transforms one raw capture into a new RGBA buffer.
func (t Transformer) Frame(src capture.Frame) (Frame, error) {
	if src.Width <= 0 || src.Height <= 0 || len(src.Pix) != src.Width*src.Height*4 {
		return Frame{}, fmt.Errorf("%w: %d bytes for %dx%d", ErrShortBuffer, len(src.Pix), src.Width, src.Height)
	}
	swap := false
	switch src.Format {
	case capture.PixelFormatBGRA:
		swap = true
	case capture.PixelFormatRGBA:
	default:
		return Frame{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, src.Format)
	}

	var out Frame
	if t.Downsample {
		if w, h := DecimatedSize(src.Width, src.Height); w == 0 || h == 0 {
			return Frame{}, fmt.Errorf("%w: %dx%d", ErrTooSmall, src.Width, src.Height)
		}
		out.Pix, out.Width, out.Height = DecimateStride2(src.Pix, src.Width, src.Height)
	} else {
		out.Pix = make([]byte, len(src.Pix))
		copy(out.Pix, src.Pix)
		out.Width, out.Height = src.Width, src.Height
	}
	if swap {
		SwapRedBlue(out.Pix, out.Pix)
	}
	return out, nil
}

// All transforms frames in order. Each raw frame is released from the input
// slice as soon as it has been converted. progress, when set, is called after
// every frame with (i+1)/n, so the final report is exactly 1; an empty input
// reports 1 once.
func (t Transformer) All(frames []capture.Frame, progress ProgressFunc) ([]Frame, error) {
	n := len(frames)
	out := make([]Frame, 0, n)
	if n == 0 {
		report(progress, 1)
		return out, nil
	}
	for i := range frames {
		f, err := t.Frame(frames[i])
		if err != nil {
			return nil, fmt.Errorf("transform frame %d of %d: %w", i+1, n, err)
		}
		frames[i] = capture.Frame{}
		out = append(out, f)
		report(progress, Fraction(i+1, n))
	}
	return out, nil
}

// Fraction returns done/total clamped to [0, 1]; done == total yields
// exactly 1.
func Fraction(done, total int) float64 {
	if total <= 0 || done >= total {
		return 1
	}
	if done <= 0 {
		return 0
	}
	return float64(done) / float64(total)
}

func report(progress ProgressFunc, v float64) {
	if progress != nil {
		progress(v)
	}
}
