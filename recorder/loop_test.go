package recorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go2tv.app/clipper/capture"
	"go2tv.app/clipper/capture/capturetest"
	"go2tv.app/clipper/framestore"
)

type fakeClock struct {
	t     time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	c.t = c.t.Add(d)
	return ctx.Err()
}

// slowSource advances the fake clock by cost on every poll and stamps frames
// with the clock.
type slowSource struct {
	*capturetest.Source
	clock *fakeClock
	cost  time.Duration
}

func (s *slowSource) Poll() (capture.Frame, error) {
	s.clock.t = s.clock.t.Add(s.cost)
	f, err := s.Source.Poll()
	if err == nil {
		f.Timestamp = s.clock.t
	}
	return f, err
}

func newLoop(t *testing.T, src capture.Source, policy framestore.Policy, clock *fakeClock, interval time.Duration) *Loop {
	t.Helper()
	store, err := framestore.New(policy)
	require.NoError(t, err)
	return &Loop{
		Source:   src,
		Store:    store,
		Interval: interval,
		now:      clock.now,
		sleep:    clock.sleep,
	}
}

func TestRunPacesToInterval(t *testing.T) {
	clock := newFakeClock()
	src := &slowSource{Source: &capturetest.Source{Width: 2, Height: 2, Endless: true}, clock: clock, cost: 10 * time.Millisecond}
	loop := newLoop(t, src, framestore.Fixed(0), clock, 50*time.Millisecond)

	stats, err := loop.Run(context.Background(), After(200*time.Millisecond))
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Frames)
	assert.Equal(t, 4, loop.Store.Len())
	for _, d := range clock.slept {
		assert.Equal(t, 40*time.Millisecond, d)
	}
	assert.Equal(t, 50*time.Millisecond, stats.MeanInterval())
	assert.Equal(t, 200*time.Millisecond, stats.Elapsed)
}

func TestRunDoesNotSleepWhenCaptureIsSlow(t *testing.T) {
	clock := newFakeClock()
	src := &slowSource{Source: &capturetest.Source{Width: 2, Height: 2, Endless: true}, clock: clock, cost: 80 * time.Millisecond}
	loop := newLoop(t, src, framestore.Fixed(0), clock, 50*time.Millisecond)

	stats, err := loop.Run(context.Background(), After(400*time.Millisecond))
	require.NoError(t, err)

	assert.Empty(t, clock.slept)
	assert.Equal(t, 5, stats.Frames)
	assert.Equal(t, 5, stats.Slow)
}

func TestRunRetriesPending(t *testing.T) {
	clock := newFakeClock()
	src := capturetest.NewSource(2, 2, capturetest.Pending, capturetest.Pending, capturetest.Step{}, capturetest.Pending)
	loop := newLoop(t, src, framestore.Fixed(0), clock, 50*time.Millisecond)

	calls := 0
	stop := StopFunc(func(time.Duration) bool {
		calls++
		return calls > 5
	})
	stats, err := loop.Run(context.Background(), stop)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Frames)
	assert.Equal(t, 4, stats.Pending)
	// The two pending polls before the frame count toward its interval.
	want := []time.Duration{DefaultRetryDelay, DefaultRetryDelay, 50*time.Millisecond - 2*DefaultRetryDelay, DefaultRetryDelay, DefaultRetryDelay}
	assert.Equal(t, want, clock.slept)
}

// latentSource needs `pending` polls per frame, each costing a millisecond
// of fake time, before a frame is ready.
type latentSource struct {
	clock   *fakeClock
	pending int
	waited  int
	seq     uint64
}

func (s *latentSource) Poll() (capture.Frame, error) {
	s.clock.t = s.clock.t.Add(time.Millisecond)
	if s.waited < s.pending {
		s.waited++
		return capture.Frame{}, capture.ErrWouldBlock
	}
	s.waited = 0
	s.seq++
	return capture.Frame{
		Pix:       make([]byte, 4),
		Width:     1,
		Height:    1,
		Format:    capture.PixelFormatBGRA,
		Timestamp: s.clock.t,
		Seq:       s.seq,
	}, nil
}

func (s *latentSource) Size() (int, int) { return 1, 1 }
func (s *latentSource) Close() error     { return nil }

func TestRunCountsPendingTimeTowardInterval(t *testing.T) {
	clock := newFakeClock()
	src := &latentSource{clock: clock, pending: 3}
	loop := newLoop(t, src, framestore.Fixed(0), clock, 50*time.Millisecond)
	loop.RetryDelay = 5 * time.Millisecond

	stats, err := loop.Run(context.Background(), After(200*time.Millisecond))
	require.NoError(t, err)

	// Each frame: 4 polls at 1ms plus 3 retries at 5ms = 19ms spent, so the
	// pacing sleep is the remaining 31ms.
	assert.Equal(t, 4, stats.Frames)
	assert.Equal(t, 12, stats.Pending)
	var pacing []time.Duration
	for _, d := range clock.slept {
		if d != loop.RetryDelay {
			pacing = append(pacing, d)
		}
	}
	assert.Equal(t, []time.Duration{31 * time.Millisecond, 31 * time.Millisecond, 31 * time.Millisecond, 31 * time.Millisecond}, pacing)
	assert.Equal(t, 50*time.Millisecond, stats.MeanInterval())
	assert.Zero(t, stats.Slow)
}

func TestRunKeepsRateWithBackgroundGrabs(t *testing.T) {
	if testing.Short() {
		t.Skip("uses wall-clock timing")
	}
	const latency = 30 * time.Millisecond
	const interval = 50 * time.Millisecond

	src := capture.NewPolledSource(func() (capture.Frame, error) {
		time.Sleep(latency)
		return capture.Frame{Pix: make([]byte, 4), Width: 1, Height: 1, Format: capture.PixelFormatBGRA}, nil
	}, nil)
	defer src.Close()

	store, err := framestore.New(framestore.Fixed(0))
	require.NoError(t, err)
	loop := &Loop{Source: src, Store: store, Interval: interval}

	stats, err := loop.Run(context.Background(), After(time.Second))
	require.NoError(t, err)

	// A grab faster than the interval must not stretch the cadence.
	assert.GreaterOrEqual(t, stats.Frames, 16)
	assert.Less(t, stats.MeanInterval(), interval+10*time.Millisecond)
	assert.Positive(t, stats.Pending)
}

func TestRunFatalErrorStopsLoop(t *testing.T) {
	clock := newFakeClock()
	boom := errors.New("display disconnected")
	src := capturetest.NewSource(2, 2, capturetest.Step{}, capturetest.Pending, capturetest.Step{Err: boom}, capturetest.Step{})
	loop := newLoop(t, src, framestore.Fixed(0), clock, time.Millisecond)

	stats, err := loop.Run(context.Background(), After(time.Hour))
	require.ErrorIs(t, err, boom)

	var capErr *CaptureError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 1, capErr.Frames)
	assert.Equal(t, 1, stats.Frames)
	assert.Equal(t, 3, src.Polls())
}

func TestRunSignalDrivenStop(t *testing.T) {
	clock := newFakeClock()
	done := make(chan struct{})
	inner := &capturetest.Source{Width: 1, Height: 1, Endless: true}
	src := &closingSource{Source: inner, after: 7, done: done}
	loop := newLoop(t, src, framestore.SlidingWindow(1, 3), clock, 10*time.Millisecond)

	stats, err := loop.Run(context.Background(), Until(done))
	require.NoError(t, err)

	assert.Equal(t, 7, stats.Frames)
	assert.Equal(t, 4, stats.Evicted)
	assert.Equal(t, 3, loop.Store.Len())
}

// closingSource closes done after producing `after` frames.
type closingSource struct {
	*capturetest.Source
	after int
	n     int
	done  chan struct{}
}

func (s *closingSource) Poll() (capture.Frame, error) {
	f, err := s.Source.Poll()
	if err == nil {
		s.n++
		if s.n == s.after {
			close(s.done)
		}
	}
	return f, err
}

func TestRunStopsBeforeFirstPoll(t *testing.T) {
	clock := newFakeClock()
	done := make(chan struct{})
	close(done)
	src := &capturetest.Source{Width: 1, Height: 1, Endless: true}
	loop := newLoop(t, src, framestore.Fixed(0), clock, time.Millisecond)

	stats, err := loop.Run(context.Background(), Until(done))
	require.NoError(t, err)
	assert.Zero(t, stats.Frames)
	assert.Zero(t, src.Polls())
}

func TestRunCancelled(t *testing.T) {
	clock := newFakeClock()
	src := &capturetest.Source{Width: 1, Height: 1, Endless: true}
	loop := newLoop(t, src, framestore.Fixed(0), clock, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := loop.Run(ctx, After(time.Hour))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunFrozenStoreIsError(t *testing.T) {
	clock := newFakeClock()
	src := &capturetest.Source{Width: 1, Height: 1, Endless: true}
	loop := newLoop(t, src, framestore.Fixed(0), clock, time.Millisecond)
	_, err := loop.Store.Snapshot()
	require.NoError(t, err)

	_, err = loop.Run(context.Background(), After(time.Hour))
	require.ErrorIs(t, err, framestore.ErrFrozen)
}

func TestRunValidatesInputs(t *testing.T) {
	_, err := (&Loop{}).Run(context.Background(), After(time.Second))
	require.Error(t, err)

	store, _ := framestore.New(framestore.Fixed(0))
	_, err = (&Loop{Source: &capturetest.Source{}, Store: store}).Run(context.Background(), nil)
	require.Error(t, err)
}

func TestStopConditions(t *testing.T) {
	assert.False(t, After(time.Second).Stop(999*time.Millisecond))
	assert.True(t, After(time.Second).Stop(time.Second))

	done := make(chan struct{})
	until := Until(done)
	assert.False(t, until.Stop(0))
	close(done)
	assert.True(t, until.Stop(0))

	assert.True(t, Any(nil, After(time.Hour), until).Stop(0))
	assert.False(t, Any(After(time.Hour)).Stop(0))
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
