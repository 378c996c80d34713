// Package session runs one capture session at a time: countdown, paced
// capture into a frame store, conversion, and GIF encoding. Progress is
// reported through a latest-value Mailbox that the shell polls.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"go2tv.app/clipper/capture"
	"go2tv.app/clipper/recorder"
)

// Mode selects how a recording ends and what it keeps.
type Mode int

const (
	// ModeRecord keeps every frame and stops after Seconds.
	ModeRecord Mode = iota
	// ModeClip keeps the last Seconds of frames until stopped.
	ModeClip
)

func (m Mode) String() string {
	switch m {
	case ModeRecord:
		return "record"
	case ModeClip:
		return "clip"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

var (
	// ErrInvalidPath rejects a destination without a .gif extension.
	ErrInvalidPath = errors.New("destination path must end in .gif")
	// ErrInvalidDuration rejects a non-positive Seconds.
	ErrInvalidDuration = errors.New("duration must be a positive number of seconds")
	// ErrInvalidMode rejects a Mode other than ModeRecord or ModeClip.
	ErrInvalidMode = errors.New("unknown session mode")
	// ErrBusy is returned by Start while a session is active.
	ErrBusy = errors.New("a session is already active")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("session controller is closed")
)

// Request starts a session.
type Request struct {
	Path    string
	Seconds int
	Mode    Mode
}

// Validate checks the request without touching the filesystem.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Path) == "" || !strings.EqualFold(filepath.Ext(r.Path), ".gif") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, r.Path)
	}
	if r.Seconds <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, r.Seconds)
	}
	if r.Mode != ModeRecord && r.Mode != ModeClip {
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(r.Mode))
	}
	return nil
}

// DelayPolicy decides the per-frame GIF delay.
type DelayPolicy string

const (
	// DelayMeasured uses the mean spacing of the captured frames.
	DelayMeasured DelayPolicy = "measured"
	// DelayFixed uses RecordDelay or ClipDelay.
	DelayFixed DelayPolicy = "fixed"
)

// Options configures every session run by a Controller.
type Options struct {
	Capture capture.Options
	// Open acquires a capture source. Defaults to capture.Open.
	Open func(*capture.Options) (capture.Source, error)

	FPS           int
	RetryDelay    time.Duration
	Countdown     int
	CountdownTick time.Duration

	Downsample         bool
	Dither             bool
	SeparateConversion bool

	DelayPolicy DelayPolicy
	RecordDelay time.Duration
	ClipDelay   time.Duration

	// OnState, when set, is called on the session goroutine for every state
	// published. It must not block or call back into the Controller.
	OnState func(State)
}

// DefaultOptions returns the stock session settings.
func DefaultOptions() Options {
	return Options{
		FPS:           15,
		RetryDelay:    recorder.DefaultRetryDelay,
		Countdown:     3,
		CountdownTick: time.Second,
		Downsample:    true,
		DelayPolicy:   DelayMeasured,
		RecordDelay:   40 * time.Millisecond,
		ClipDelay:     70 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Open == nil {
		o.Open = capture.Open
	}
	if o.FPS <= 0 {
		o.FPS = def.FPS
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = def.RetryDelay
	}
	if o.Countdown < 0 {
		o.Countdown = 0
	}
	if o.CountdownTick <= 0 {
		o.CountdownTick = def.CountdownTick
	}
	if o.DelayPolicy == "" {
		o.DelayPolicy = def.DelayPolicy
	}
	if o.RecordDelay <= 0 {
		o.RecordDelay = def.RecordDelay
	}
	if o.ClipDelay <= 0 {
		o.ClipDelay = def.ClipDelay
	}
	return o
}

// Result summarises a finished session.
type Result struct {
	ID       string
	Path     string
	Mode     Mode
	Captured int
	Encoded  int
	Evicted  int
	Width    int
	Height   int
	Delay    time.Duration
	Elapsed  time.Duration
	Started  time.Time
	Finished time.Time
	Err      error
}

type run struct {
	id  string
	req Request

	ctx    context.Context
	cancel context.CancelFunc

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func (r *run) requestStop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Controller owns the single active session and is the only writer of
// session state.
type Controller struct {
	opts    Options
	logger  *slog.Logger
	mailbox *Mailbox

	mu     sync.Mutex
	active *run
	phase  Phase
	last   Result
	closed bool
	wg     sync.WaitGroup
}

// New returns an idle controller.
func New(opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		opts:    opts.withDefaults(),
		logger:  logger.With("component", "session"),
		mailbox: NewMailbox(),
	}
}

// Mailbox returns the state mailbox the shell polls.
func (c *Controller) Mailbox() *Mailbox {
	return c.mailbox
}

// Start validates req and launches a session in the background.
func (c *Controller) Start(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.active != nil {
		return ErrBusy
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		id:     uuid.NewString(),
		req:    req,
		ctx:    ctx,
		cancel: cancel,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	c.active = r
	c.phase = PhaseCountdown

	c.wg.Add(1)
	go c.execute(r)
	return nil
}

// Stop ends the recording phase of the active session. It is ignored, and
// returns false, in any other phase.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.phase != PhaseRecording {
		return false
	}
	c.active.requestStop()
	return true
}

// Toggle starts a session when idle and stops it while recording. During
// countdown and encoding it does nothing. started reports whether a new
// session was launched.
func (c *Controller) Toggle(req Request) (started bool, err error) {
	c.mu.Lock()
	active := c.active != nil
	c.mu.Unlock()

	if !active {
		if err := c.Start(req); err != nil {
			return false, err
		}
		return true, nil
	}
	c.Stop()
	return false, nil
}

// Cancel aborts the active session in any phase. The session still ends
// with exactly one Idle state, carrying context.Canceled.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return false
	}
	c.active.cancel()
	return true
}

// Phase returns the phase of the active session, or PhaseIdle.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Done is closed when the active session ends. With no session it is
// already closed.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return closedChan
	}
	return c.active.done
}

// LastResult returns the summary of the most recently finished session.
func (c *Controller) LastResult() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Close cancels any active session, waits for it to finish, and rejects
// further Starts.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.active != nil {
		c.active.cancel()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller) execute(r *run) {
	defer c.wg.Done()

	logger := c.logger.With("session_id", r.id, "mode", r.req.Mode.String())
	res := Result{
		ID:      r.id,
		Path:    r.req.Path,
		Mode:    r.req.Mode,
		Started: time.Now(),
	}

	func() {
		defer func() {
			if p := recover(); p != nil {
				res.Err = fmt.Errorf("session panic: %v", p)
			}
		}()
		res.Err = c.pipeline(r, &res, logger)
	}()
	res.Finished = time.Now()

	switch {
	case res.Err == nil:
		logger.Info("session finished",
			"path", res.Path,
			"frames", res.Encoded,
			"evicted", res.Evicted,
			"delay", res.Delay,
			"duration", res.Finished.Sub(res.Started),
		)
	case errors.Is(res.Err, context.Canceled):
		logger.Info("session cancelled", "frames_captured", res.Captured)
	default:
		logger.Error("session failed", "error", res.Err)
	}

	c.mu.Lock()
	c.active = nil
	c.phase = PhaseIdle
	c.last = res
	c.mailbox.Put(idle(res.Err))
	c.mu.Unlock()

	if c.opts.OnState != nil {
		c.opts.OnState(idle(res.Err))
	}
	r.cancel()
	close(r.done)
}

// publish records s as the current phase and delivers it to the shell. It
// is a no-op once r is no longer the active session.
func (c *Controller) publish(r *run, s State) {
	c.mu.Lock()
	if c.active != r {
		c.mu.Unlock()
		return
	}
	c.phase = s.Phase
	c.mailbox.Put(s)
	c.mu.Unlock()

	if c.opts.OnState != nil {
		c.opts.OnState(s)
	}
}
