package capture

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Display describes one active monitor.
type Display struct {
	Index   int
	Bounds  image.Rectangle
	Primary bool
}

// Displays enumerates active monitors. Index 0 is the primary display.
func Displays() ([]Display, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, ErrNoDisplay
	}
	out := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Display{
			Index:   i,
			Bounds:  screenshot.GetDisplayBounds(i),
			Primary: i == 0,
		})
	}
	return out, nil
}

type screenshotTarget struct {
	display int
	bounds  image.Rectangle
}

func newScreenshotGrab(display int) (grabTarget, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, ErrNoDisplay
	}
	if display >= n {
		return nil, fmt.Errorf("%w: Display %d out of range (displays=%d)", ErrInvalidOptions, display, n)
	}
	bounds := screenshot.GetDisplayBounds(display)
	if bounds.Empty() {
		return nil, fmt.Errorf("invalid display size %dx%d", bounds.Dx(), bounds.Dy())
	}
	return &screenshotTarget{display: display, bounds: bounds}, nil
}

func (t *screenshotTarget) grab() (Frame, error) {
	img, err := screenshot.CaptureRect(t.bounds)
	if err != nil {
		return Frame{}, fmt.Errorf("screenshot display %d: %w", t.display, err)
	}
	return frameFromRGBA(img), nil
}

func (t *screenshotTarget) close() error {
	return nil
}
