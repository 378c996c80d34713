package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// PixelFormat names the byte order of one 4-byte pixel in Frame.Pix.
type PixelFormat string

const (
	// PixelFormatBGRA is the native order of most platform capture APIs.
	PixelFormatBGRA PixelFormat = "BGRA"
	// PixelFormatRGBA is the order delivered by image.RGBA based backends.
	PixelFormatRGBA PixelFormat = "RGBA"
)

// Backend selects the platform capture implementation.
type Backend string

const (
	BackendAuto       Backend = "auto"
	BackendScreenshot Backend = "screenshot"
	BackendPortal     Backend = "portal"
)

var (
	ErrWouldBlock     = errors.New("screen capture frame not ready")
	ErrNotImplemented = errors.New("screen capture backend is not implemented on this platform")
	ErrCancelled      = errors.New("screen capture request was cancelled")
	ErrNoDisplay      = errors.New("screen capture found no active display")
	ErrInvalidOptions = errors.New("invalid screen capture options")
	ErrClosed         = errors.New("screen capture source is closed")
)

const defaultFirstFrameTimeout = 8 * time.Second

// Frame is one raw capture. Pix is tightly packed, Width*Height*4 bytes, in
// the order named by Format. Pix must not be modified once the frame has been
// returned by Poll.
type Frame struct {
	Pix       []byte
	Width     int
	Height    int
	Format    PixelFormat
	Timestamp time.Time
	Seq       uint64
}

// Validate reports whether the buffer length matches the declared geometry.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", f.Width, f.Height)
	}
	if want := f.Width * f.Height * 4; len(f.Pix) != want {
		return fmt.Errorf("frame buffer is %d bytes, want %d for %dx%d", len(f.Pix), want, f.Width, f.Height)
	}
	return nil
}

// Source is a non-blocking frame producer for a single recording session.
//
// Poll returns ErrWouldBlock when no new frame is ready; callers retry after
// a short delay. Any other error is fatal for the source.
type Source interface {
	Poll() (Frame, error)
	Size() (width, height int)
	Close() error
}

// Options configures a capture session.
type Options struct {
	// Backend defaults to BackendAuto.
	Backend Backend
	// Display selects the monitor for the screenshot backend. Default is 0.
	Display int
	// FirstFrameTimeout bounds how long Open waits for the initial frame.
	FirstFrameTimeout time.Duration
	Logger            *slog.Logger
}

// ParseBackend maps a config string onto a Backend.
func ParseBackend(value string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(value))); b {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendScreenshot, BackendPortal:
		return b, nil
	default:
		return "", fmt.Errorf("%w: unknown backend %q", ErrInvalidOptions, value)
	}
}

// Open acquires the capture target and returns a source that already holds
// its first frame, so Size is known before recording starts.
func Open(options *Options) (Source, error) {
	opts, err := validateOpenOptions(options)
	if err != nil {
		return nil, err
	}

	var grab grabTarget
	var platform string
	switch resolveBackend(opts.Backend) {
	case BackendPortal:
		platform = "portal"
		grab, err = newPortalGrab()
	default:
		platform = "screenshot"
		grab, err = newScreenshotGrab(opts.Display)
	}
	if err != nil {
		return nil, err
	}

	g := newGrabber(platform, grab, opts.Logger)
	if err := g.waitForFirstFrame(opts.FirstFrameTimeout); err != nil {
		_ = g.Close()
		return nil, err
	}
	return g, nil
}

func validateOpenOptions(options *Options) (*Options, error) {
	opts := Options{}
	if options != nil {
		opts = *options
	}
	if opts.Display < 0 {
		return nil, fmt.Errorf("%w: Display must be >= 0", ErrInvalidOptions)
	}
	backend, err := ParseBackend(string(opts.Backend))
	if err != nil {
		return nil, err
	}
	opts.Backend = backend
	if opts.FirstFrameTimeout <= 0 {
		opts.FirstFrameTimeout = defaultFirstFrameTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &opts, nil
}

func resolveBackend(b Backend) Backend {
	if b != BackendAuto {
		return b
	}
	if os.Getenv("WAYLAND_DISPLAY") != "" && os.Getenv("DISPLAY") == "" {
		return BackendPortal
	}
	return BackendScreenshot
}
