// Package capturetest provides scripted capture sources for tests.
package capturetest

import (
	"sync"
	"time"

	"go2tv.app/clipper/capture"
)

// Step is one scripted Poll result. A zero Frame with a nil Err produces a
// synthetic frame.
type Step struct {
	Frame capture.Frame
	Err   error
}

// Pending is a Step that reports capture.ErrWouldBlock.
var Pending = Step{Err: capture.ErrWouldBlock}

// Source replays Script, then keeps producing synthetic frames when Endless
// is set, or reports capture.ErrWouldBlock otherwise.
type Source struct {
	Width   int
	Height  int
	Format  capture.PixelFormat
	Script  []Step
	Endless bool

	mu     sync.Mutex
	next   int
	seq    uint64
	polls  int
	closes int
}

// NewSource returns a BGRA source of the given size.
func NewSource(width, height int, steps ...Step) *Source {
	return &Source{Width: width, Height: height, Format: capture.PixelFormatBGRA, Script: steps}
}

func (s *Source) Poll() (capture.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++

	if s.closes > 0 {
		return capture.Frame{}, capture.ErrClosed
	}
	if s.next < len(s.Script) {
		step := s.Script[s.next]
		s.next++
		if step.Err != nil {
			return capture.Frame{}, step.Err
		}
		if step.Frame.Pix != nil {
			return step.Frame, nil
		}
		return s.synthesizeLocked(), nil
	}
	if s.Endless {
		return s.synthesizeLocked(), nil
	}
	return capture.Frame{}, capture.ErrWouldBlock
}

func (s *Source) Size() (int, int) {
	return s.Width, s.Height
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Closed reports whether Close has been called at least once.
func (s *Source) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes > 0
}

// Polls returns how many times Poll was called.
func (s *Source) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

func (s *Source) synthesizeLocked() capture.Frame {
	s.seq++
	f := Fill(s.Width, s.Height, byte(s.seq))
	f.Format = s.Format
	f.Seq = s.seq
	f.Timestamp = time.Now()
	return f
}

// Fill returns a BGRA frame whose every byte equals v.
func Fill(width, height int, v byte) capture.Frame {
	pix := make([]byte, width*height*4)
	for i := range pix {
		pix[i] = v
	}
	return capture.Frame{Pix: pix, Width: width, Height: height, Format: capture.PixelFormatBGRA}
}

// Pattern returns a BGRA frame where pixel (x, y) holds B=x, G=y, R=seed, A=255.
func Pattern(width, height int, seed byte) capture.Frame {
	pix := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			pix[i+0] = byte(x)
			pix[i+1] = byte(y)
			pix[i+2] = seed
			pix[i+3] = 255
		}
	}
	return capture.Frame{Pix: pix, Width: width, Height: height, Format: capture.PixelFormatBGRA}
}

// Opener returns an open function that hands out src, or err when set.
func Opener(src capture.Source, err error) func(*capture.Options) (capture.Source, error) {
	return func(*capture.Options) (capture.Source, error) {
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}
