//go:build !linux

package capture

import "fmt"

func newPortalGrab() (grabTarget, error) {
	return nil, fmt.Errorf("%w: the xdg-desktop-portal backend requires linux", ErrNotImplemented)
}
