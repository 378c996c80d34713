// Package recorder drives a capture source at a target frame interval and
// feeds the frames into a frame store.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go2tv.app/clipper/capture"
	"go2tv.app/clipper/framestore"
)

// DefaultRetryDelay is the back-off after a source reports no frame ready.
const DefaultRetryDelay = time.Second / 60

// CaptureError reports a fatal source failure. Frames counts the frames that
// were stored before it.
type CaptureError struct {
	Err    error
	Frames int
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture failed after %d frames: %v", e.Frames, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Stats summarises one Run.
type Stats struct {
	Frames  int
	Pending int
	Evicted int
	Slow    int
	Elapsed time.Duration
	First   time.Time
	Last    time.Time
}

// MeanInterval is the average spacing of the captured frames, or 0 when
// fewer than two frames were captured.
func (s Stats) MeanInterval() time.Duration {
	if s.Frames < 2 || !s.Last.After(s.First) {
		return 0
	}
	return s.Last.Sub(s.First) / time.Duration(s.Frames-1)
}

// Loop is a paced capture loop. Interval is an upper bound on frame rate
// only: when polling takes longer than Interval the loop runs flat out.
type Loop struct {
	Source     capture.Source
	Store      *framestore.Store
	Interval   time.Duration
	RetryDelay time.Duration
	Logger     *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Run captures until stop fires, the source fails, or ctx is cancelled.
// A normal stop returns a nil error; cancellation returns ctx.Err().
func (l *Loop) Run(ctx context.Context, stop StopCondition) (Stats, error) {
	var stats Stats
	if l.Source == nil || l.Store == nil {
		return stats, errors.New("recorder loop needs a source and a store")
	}
	if stop == nil {
		return stats, errors.New("recorder loop needs a stop condition")
	}

	now := l.now
	if now == nil {
		now = time.Now
	}
	sleep := l.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	retry := l.RetryDelay
	if retry <= 0 {
		retry = DefaultRetryDelay
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastSlowLog time.Time
	// attempt marks the first poll for the frame being waited on, so time
	// spent on pending polls counts toward Interval.
	var attempt time.Time
	began := now()
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Elapsed = now().Sub(began)
		if stop.Stop(stats.Elapsed) {
			return stats, nil
		}

		if attempt.IsZero() {
			attempt = now()
		}
		frame, err := l.Source.Poll()
		if errors.Is(err, capture.ErrWouldBlock) {
			stats.Pending++
			if err := sleep(ctx, retry); err != nil {
				return stats, err
			}
			continue
		}
		if err != nil {
			return stats, &CaptureError{Err: err, Frames: stats.Frames}
		}

		if frame.Timestamp.IsZero() {
			frame.Timestamp = now()
		}
		evicted, err := l.Store.Append(frame)
		if err != nil {
			return stats, fmt.Errorf("store frame %d: %w", frame.Seq, err)
		}
		stats.Frames++
		if evicted {
			stats.Evicted++
		}
		if stats.First.IsZero() {
			stats.First = frame.Timestamp
		}
		stats.Last = frame.Timestamp

		took := now().Sub(attempt)
		attempt = time.Time{}
		if took > l.Interval {
			stats.Slow++
			if t := now(); t.Sub(lastSlowLog) >= time.Second {
				lastSlowLog = t
				logger.Debug("capture slower than target interval",
					"took", took, "interval", l.Interval, "frames", stats.Frames)
			}
			continue
		}
		if err := sleep(ctx, l.Interval-took); err != nil {
			return stats, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
