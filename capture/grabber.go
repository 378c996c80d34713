package capture

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const slowGrabThreshold = 100 * time.Millisecond

// grabTarget is a blocking platform capture call plus its scoped resource.
type grabTarget interface {
	grab() (Frame, error)
	close() error
}

// GrabFunc captures one frame, blocking until it is ready.
type GrabFunc func() (Frame, error)

type funcTarget GrabFunc

func (f funcTarget) grab() (Frame, error) { return f() }

func (funcTarget) close() error { return nil }

// NewPolledSource adapts a blocking grab into a non-blocking Source with the
// same on-demand semantics as the built-in backends. Size reports 0x0 until
// the first grab completes.
func NewPolledSource(grab GrabFunc, logger *slog.Logger) Source {
	return newGrabber("custom", funcTarget(grab), logger)
}

type grabResult struct {
	frame Frame
	err   error
}

// grabber turns a blocking grabTarget into a non-blocking Source. A Poll that
// finds the slot empty asks the worker goroutine for one grab and returns
// ErrWouldBlock; a later Poll collects the result. Frames are grabbed on
// demand only, so a returned frame is never older than the poll that asked
// for it.
type grabber struct {
	platform string
	target   grabTarget
	logger   *slog.Logger

	want  chan struct{}
	done  chan struct{}
	ready chan struct{}

	mu        sync.Mutex
	slot      *grabResult
	fatal     error
	requested bool
	closed    bool
	width     int
	height    int
	seq       uint64

	readyOnce sync.Once
	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup

	lastSlowLog atomic.Int64
}

func newGrabber(platform string, target grabTarget, logger *slog.Logger) *grabber {
	if logger == nil {
		logger = slog.Default()
	}
	g := &grabber{
		platform: platform,
		target:   target,
		logger:   logger.With("component", "capture", "platform", platform),
		want:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		ready:    make(chan struct{}),
	}
	g.wg.Add(1)
	go g.loop()
	return g
}

func (g *grabber) Poll() (Frame, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return Frame{}, ErrClosed
	}
	if g.fatal != nil {
		return Frame{}, g.fatal
	}
	if g.slot != nil {
		r := g.slot
		g.slot = nil
		if r.err != nil {
			g.fatal = r.err
			return Frame{}, r.err
		}
		return r.frame, nil
	}
	g.requestLocked()
	return Frame{}, ErrWouldBlock
}

func (g *grabber) Size() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.width, g.height
}

func (g *grabber) Close() error {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		g.closed = true
		g.mu.Unlock()

		close(g.done)
		g.wg.Wait()
		g.closeErr = g.target.close()
	})
	return g.closeErr
}

// waitForFirstFrame blocks until the first grab completes so Size is known.
// The first frame stays in the slot for the first Poll.
func (g *grabber) waitForFirstFrame(timeout time.Duration) error {
	g.mu.Lock()
	g.requestLocked()
	g.mu.Unlock()

	select {
	case <-g.ready:
	case <-time.After(timeout):
		return fmt.Errorf("%s capture timed out waiting for first frame", g.platform)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.slot != nil && g.slot.err != nil {
		return g.slot.err
	}
	return nil
}

func (g *grabber) requestLocked() {
	if g.requested {
		return
	}
	g.requested = true
	select {
	case g.want <- struct{}{}:
	default:
	}
}

func (g *grabber) loop() {
	defer g.wg.Done()

	for {
		select {
		case <-g.done:
			return
		case <-g.want:
		}

		start := time.Now()
		frame, err := g.target.grab()
		d := time.Since(start)
		if d > slowGrabThreshold && shouldLogEvery(&g.lastSlowLog, time.Second) {
			g.logger.Debug("slow screen grab", "duration", d)
		}
		if err == nil {
			err = frame.Validate()
		}

		g.mu.Lock()
		if err == nil {
			g.seq++
			frame.Seq = g.seq
			frame.Timestamp = time.Now()
			g.width, g.height = frame.Width, frame.Height
		}
		g.slot = &grabResult{frame: frame, err: err}
		g.requested = false
		g.mu.Unlock()

		g.readyOnce.Do(func() { close(g.ready) })
		if err != nil {
			g.logger.Warn("screen grab failed", "error", err)
			return
		}
	}
}
