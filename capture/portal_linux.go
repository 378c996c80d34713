//go:build linux

package capture

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"time"

	"go2tv.app/clipper/internal/portal"
)

const portalGrabTimeout = 10 * time.Second

type portalTarget struct{}

func newPortalGrab() (grabTarget, error) {
	if !portal.ScreenshotAvailable() {
		return nil, fmt.Errorf("%w: xdg-desktop-portal screenshot interface unavailable", ErrNotImplemented)
	}
	return portalTarget{}, nil
}

func (portalTarget) grab() (Frame, error) {
	ctx, cancel := context.WithTimeout(context.Background(), portalGrabTimeout)
	defer cancel()

	uri, err := portal.Screenshot(ctx, &portal.ScreenshotOptions{})
	if err != nil {
		if errors.Is(err, portal.ErrCancelled) {
			return Frame{}, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		return Frame{}, fmt.Errorf("portal screenshot: %w", err)
	}

	path, err := portal.LocalPath(uri)
	if err != nil {
		return Frame{}, err
	}
	// The portal writes every grab to a fresh file we own.
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		return Frame{}, fmt.Errorf("open portal screenshot: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return Frame{}, fmt.Errorf("decode portal screenshot %s: %w", path, err)
	}
	return frameFromImage(img), nil
}

func (portalTarget) close() error {
	return nil
}
