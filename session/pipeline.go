package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"go2tv.app/clipper/capture"
	"go2tv.app/clipper/framestore"
	"go2tv.app/clipper/gifenc"
	"go2tv.app/clipper/internal/logging"
	"go2tv.app/clipper/recorder"
	"go2tv.app/clipper/transform"
)

const (
	minMeasuredDelay = 20 * time.Millisecond
	maxMeasuredDelay = 100 * time.Millisecond
)

func (c *Controller) pipeline(r *run, res *Result, logger *slog.Logger) error {
	for n := c.opts.Countdown; n > 0; n-- {
		c.publish(r, countdown(n))
		if err := sleepContext(r.ctx, c.opts.CountdownTick); err != nil {
			return err
		}
	}

	capOpts := c.opts.Capture
	if capOpts.Logger == nil {
		capOpts.Logger = logger
	}
	src, err := c.opts.Open(&capOpts)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	closeSource := sync.OnceValue(src.Close)
	defer func() {
		if err := closeSource(); err != nil {
			logger.Warn("close capture source", "error", err)
		}
	}()

	store, err := framestore.New(c.storePolicy(r.req))
	if err != nil {
		return err
	}

	width, height := src.Size()
	logger.Info("recording started",
		"path", r.req.Path,
		"seconds", r.req.Seconds,
		"fps", c.opts.FPS,
		"width", width,
		"height", height,
		"store", store.Policy().Kind.String(),
	)
	c.publish(r, recording())

	loop := &recorder.Loop{
		Source:     src,
		Store:      store,
		Interval:   time.Second / time.Duration(c.opts.FPS),
		RetryDelay: c.opts.RetryDelay,
		Logger:     logger,
	}
	stats, err := loop.Run(r.ctx, c.stopCondition(r))
	res.Captured = stats.Frames
	res.Evicted = stats.Evicted
	res.Elapsed = stats.Elapsed
	if err != nil {
		return err
	}

	frames, err := store.Snapshot()
	if err != nil {
		return err
	}
	if err := closeSource(); err != nil {
		logger.Warn("close capture source", "error", err)
	}
	logger.Info("recording stopped",
		"frames", len(frames),
		"captured", stats.Frames,
		"evicted", stats.Evicted,
		"pending_polls", stats.Pending,
		"elapsed", stats.Elapsed,
		"mean_interval", stats.MeanInterval(),
	)

	res.Delay = c.frameDelay(r.req.Mode, frames)

	tf := transform.Transformer{Downsample: c.opts.Downsample}
	if len(frames) > 0 {
		width, height = frames[0].Width, frames[0].Height
	}
	res.Width, res.Height = tf.OutputSize(width, height)

	enc, err := gifenc.Create(r.req.Path, res.Width, res.Height, gifenc.Options{Dither: c.opts.Dither})
	if err != nil {
		return err
	}
	encodeErr := c.encode(r, enc, tf, frames, res.Delay, logger)
	closeErr := enc.Close()
	res.Encoded = enc.Frames()
	return errors.Join(encodeErr, closeErr)
}

func (c *Controller) encode(r *run, enc *gifenc.Encoder, tf transform.Transformer, frames []capture.Frame, delay time.Duration, logger *slog.Logger) error {
	sampler := logging.NewProgressSampler(25)
	report := func(s State) {
		c.publish(r, s)
		if sampler.ShouldLog(s.Phase.String(), s.Progress) {
			logger.Debug("session progress", "phase", s.Phase.String(), logging.Percent("percent", s.Progress))
		}
	}

	if c.opts.SeparateConversion {
		report(converting(0))
		converted, err := tf.All(frames, func(p float64) { report(converting(p)) })
		if err != nil {
			return err
		}
		if err := r.ctx.Err(); err != nil {
			return err
		}
		report(encoding(0))
		for i := range converted {
			if err := r.ctx.Err(); err != nil {
				return err
			}
			if err := enc.WriteFrame(converted[i].RGBA(), delay); err != nil {
				return err
			}
			converted[i] = transform.Frame{}
			report(encoding(transform.Fraction(i+1, len(converted))))
		}
		if len(converted) == 0 {
			report(encoding(1))
		}
		return nil
	}

	report(encoding(0))
	for i := range frames {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		f, err := tf.Frame(frames[i])
		if err != nil {
			return fmt.Errorf("transform frame %d of %d: %w", i+1, len(frames), err)
		}
		frames[i] = capture.Frame{}
		if err := enc.WriteFrame(f.RGBA(), delay); err != nil {
			return err
		}
		report(encoding(transform.Fraction(i+1, len(frames))))
	}
	if len(frames) == 0 {
		report(encoding(1))
	}
	return nil
}

func (c *Controller) storePolicy(req Request) framestore.Policy {
	if req.Mode == ModeClip {
		return framestore.SlidingWindow(req.Seconds, c.opts.FPS)
	}
	return framestore.Fixed(req.Seconds * c.opts.FPS)
}

func (c *Controller) stopCondition(r *run) recorder.StopCondition {
	if r.req.Mode == ModeClip {
		return recorder.Until(r.stop)
	}
	return recorder.Any(
		recorder.After(time.Duration(r.req.Seconds)*time.Second),
		recorder.Until(r.stop),
	)
}

func (c *Controller) frameDelay(mode Mode, frames []capture.Frame) time.Duration {
	fixed := c.opts.RecordDelay
	if mode == ModeClip {
		fixed = c.opts.ClipDelay
	}
	if c.opts.DelayPolicy == DelayFixed {
		return fixed
	}
	if measured, ok := MeasuredDelay(frames); ok {
		return measured
	}
	return fixed
}

// MeasuredDelay is the mean spacing of frames rounded to the GIF
// centisecond and clamped to [20ms, 100ms]. ok is false when fewer than two
// frames carry increasing timestamps.
func MeasuredDelay(frames []capture.Frame) (d time.Duration, ok bool) {
	if len(frames) < 2 {
		return 0, false
	}
	first, last := frames[0].Timestamp, frames[len(frames)-1].Timestamp
	if first.IsZero() || !last.After(first) {
		return 0, false
	}
	mean := last.Sub(first) / time.Duration(len(frames)-1)
	cs := math.Round(float64(mean) / float64(10*time.Millisecond))
	d = time.Duration(cs) * 10 * time.Millisecond
	return min(max(d, minMeasuredDelay), maxMeasuredDelay), true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
