// Package gifenc writes animated GIF89a files one frame at a time.
//
// Every file uses the same two-entry global palette, white at index 0 and
// black at index 1, and carries a NETSCAPE2.0 extension asking for infinite
// playback. Frames are quantized to that palette, LZW compressed and flushed
// to the underlying writer before WriteFrame returns, so memory use does not
// grow with the number of frames.
package gifenc

import (
	"bufio"
	"compress/lzw"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"time"
)

var (
	// ErrFrameSize reports a frame whose bounds differ from the canvas.
	ErrFrameSize = errors.New("frame size does not match the animation")
	// ErrTooLarge reports a canvas beyond the 65535 pixel GIF limit.
	ErrTooLarge = errors.New("animation dimensions exceed the GIF limit")
	// ErrClosed is returned by WriteFrame after Close.
	ErrClosed = errors.New("gif encoder is closed")
)

const (
	// MinDelay is the shortest per-frame delay written. Many decoders treat
	// smaller values as 100ms.
	MinDelay = 20 * time.Millisecond

	maxDimension = 1<<16 - 1
	lzwMinCode   = 2
)

// Palette is the fixed global colour table.
var Palette = color.Palette{
	color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
	color.RGBA{0x00, 0x00, 0x00, 0xFF},
}

const (
	indexWhite = 0
	indexBlack = 1
)

// Options tunes quantization.
type Options struct {
	// Dither enables Floyd-Steinberg error diffusion instead of a plain
	// luma threshold.
	Dither bool
}

// Encoder is a streaming GIF writer. It is not safe for concurrent use.
type Encoder struct {
	w      *bufio.Writer
	closer io.Closer
	width  int
	height int
	opts   Options

	paletted *image.Paletted
	frames   int
	err      error
	closed   bool
}

// New writes the GIF header to w and returns an encoder for width×height
// frames.
func New(w io.Writer, width, height int, opts Options) (*Encoder, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid animation size %dx%d", width, height)
	}
	if width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, width, height)
	}
	e := &Encoder{
		w:        bufio.NewWriter(w),
		width:    width,
		height:   height,
		opts:     opts,
		paletted: image.NewPaletted(image.Rect(0, 0, width, height), Palette),
	}
	if err := e.writeHeader(); err != nil {
		return nil, fmt.Errorf("write gif header: %w", err)
	}
	return e, nil
}

// Create truncates or creates path and returns an encoder writing to it.
// Close closes the file.
func Create(path string, width, height int, opts Options) (*Encoder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create gif: %w", err)
	}
	e, err := New(f, width, height, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	e.closer = f
	return e, nil
}

// Size returns the animation dimensions.
func (e *Encoder) Size() (int, int) { return e.width, e.height }

// Frames returns how many frames have been written.
func (e *Encoder) Frames() int { return e.frames }

// WriteFrame quantizes img and appends it with the given display delay. The
// first write error is sticky.
func (e *Encoder) WriteFrame(img *image.RGBA, delay time.Duration) error {
	if e.closed {
		return ErrClosed
	}
	if e.err != nil {
		return e.err
	}
	b := img.Bounds()
	if b.Dx() != e.width || b.Dy() != e.height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), e.width, e.height)
	}

	quantize(e.paletted, img, e.opts.Dither)
	if err := e.writeFrame(delay); err != nil {
		e.err = fmt.Errorf("write gif frame %d: %w", e.frames+1, err)
		return e.err
	}
	e.frames++
	return nil
}

// Close writes the trailer, flushes, and closes the file opened by Create.
// An encoder that wrote zero frames still produces a valid file.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	var errs []error
	if e.err == nil {
		if err := e.w.WriteByte(0x3B); err != nil {
			errs = append(errs, fmt.Errorf("write gif trailer: %w", err))
		} else if err := e.w.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush gif: %w", err))
		}
	}
	if e.closer != nil {
		if err := e.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close gif: %w", err))
		}
	}
	return errors.Join(errs...)
}

// DelayCentiseconds converts d to the GIF delay unit, rounding to the
// nearest 10ms and clamping to [MinDelay, 655.35s].
func DelayCentiseconds(d time.Duration) uint16 {
	cs := (d + 5*time.Millisecond) / (10 * time.Millisecond)
	if floor := MinDelay / (10 * time.Millisecond); cs < floor {
		cs = floor
	}
	if cs > 0xFFFF {
		cs = 0xFFFF
	}
	return uint16(cs)
}

func (e *Encoder) writeHeader() error {
	var hdr [13]byte
	copy(hdr[:6], "GIF89a")
	binary.LittleEndian.PutUint16(hdr[6:8], uint16(e.width))
	binary.LittleEndian.PutUint16(hdr[8:10], uint16(e.height))
	// Global colour table present, 1-bit colour resolution, 2 entries.
	hdr[10] = 0x80
	if _, err := e.w.Write(hdr[:]); err != nil {
		return err
	}
	for _, c := range Palette {
		rgba := c.(color.RGBA)
		if _, err := e.w.Write([]byte{rgba.R, rgba.G, rgba.B}); err != nil {
			return err
		}
	}
	loop := []byte{
		0x21, 0xFF, 0x0B,
		'N', 'E', 'T', 'S', 'C', 'A', 'P', 'E', '2', '.', '0',
		0x03, 0x01,
		0x00, 0x00, // loop count 0: forever
		0x00,
	}
	if _, err := e.w.Write(loop); err != nil {
		return err
	}
	return e.w.Flush()
}

func (e *Encoder) writeFrame(delay time.Duration) error {
	var gce [8]byte
	gce[0], gce[1], gce[2] = 0x21, 0xF9, 0x04
	binary.LittleEndian.PutUint16(gce[4:6], DelayCentiseconds(delay))
	if _, err := e.w.Write(gce[:]); err != nil {
		return err
	}

	var desc [11]byte
	desc[0] = 0x2C
	binary.LittleEndian.PutUint16(desc[5:7], uint16(e.width))
	binary.LittleEndian.PutUint16(desc[7:9], uint16(e.height))
	desc[10] = lzwMinCode
	if _, err := e.w.Write(desc[:]); err != nil {
		return err
	}

	bw := &blockWriter{w: e.w}
	lw := lzw.NewWriter(bw, lzw.LSB, lzwMinCode)
	if _, err := lw.Write(e.paletted.Pix); err != nil {
		return err
	}
	if err := lw.Close(); err != nil {
		return err
	}
	if err := bw.close(); err != nil {
		return err
	}
	return e.w.Flush()
}

// blockWriter splits a byte stream into GIF data sub-blocks of at most 255
// bytes, each prefixed by its length.
type blockWriter struct {
	w   io.Writer
	buf [256]byte
	n   int
	err error
}

func (b *blockWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 && b.err == nil {
		c := copy(b.buf[1+b.n:], p)
		b.n += c
		written += c
		p = p[c:]
		if b.n == 255 {
			b.flush()
		}
	}
	return written, b.err
}

func (b *blockWriter) flush() {
	if b.n == 0 || b.err != nil {
		return
	}
	b.buf[0] = byte(b.n)
	_, b.err = b.w.Write(b.buf[:1+b.n])
	b.n = 0
}

// close flushes the last sub-block and writes the block terminator.
func (b *blockWriter) close() error {
	b.flush()
	if b.err != nil {
		return b.err
	}
	_, b.err = b.w.Write([]byte{0x00})
	return b.err
}
