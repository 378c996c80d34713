package gifenc

import (
	"fmt"
	"image"
	"io"
	"time"
)

// EncodeAll writes frames to w as one animation, reporting progress after
// each frame as written/total. An empty frames slice yields a valid
// zero-frame file and a single progress report of 1.
func EncodeAll(w io.Writer, width, height int, frames []*image.RGBA, delay time.Duration, opts Options, progress func(float64)) error {
	e, err := New(w, width, height, opts)
	if err != nil {
		return err
	}
	n := len(frames)
	for i, img := range frames {
		if err := e.WriteFrame(img, delay); err != nil {
			_ = e.Close()
			return fmt.Errorf("encode frame %d of %d: %w", i+1, n, err)
		}
		if progress != nil {
			if i+1 == n {
				progress(1)
			} else {
				progress(float64(i+1) / float64(n))
			}
		}
	}
	if n == 0 && progress != nil {
		progress(1)
	}
	return e.Close()
}
