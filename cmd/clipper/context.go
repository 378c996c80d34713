package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go2tv.app/clipper/capture"
	"go2tv.app/clipper/internal/config"
	"go2tv.app/clipper/internal/logging"
	"go2tv.app/clipper/session"
)

type commandContext struct {
	configFlag string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	logOnce   sync.Once
	log       *slog.Logger
	logCloser io.Closer
	logErr    error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	c.logOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logErr = err
			return
		}
		c.log, c.logCloser, c.logErr = logging.NewFromConfig(cfg)
		if c.logErr == nil {
			slog.SetDefault(c.log)
		}
	})
	return c.log, c.logErr
}

func (c *commandContext) close() {
	if c.logCloser != nil {
		_ = c.logCloser.Close()
	}
}

func sessionOptions(cfg *config.Config, logger *slog.Logger) session.Options {
	opts := session.DefaultOptions()
	opts.Capture = capture.Options{
		Backend:           capture.Backend(cfg.Capture.Backend),
		Display:           cfg.Capture.Display,
		FirstFrameTimeout: time.Duration(cfg.Capture.FirstFrameTimeoutSeconds) * time.Second,
		Logger:            logger,
	}
	opts.FPS = cfg.Capture.FPS
	opts.Downsample = cfg.Capture.Downsample
	opts.Countdown = cfg.Session.Countdown
	opts.Dither = cfg.Encode.Dither
	opts.SeparateConversion = cfg.Encode.SeparateConversion
	opts.DelayPolicy = session.DelayPolicy(cfg.Encode.DelayPolicy)
	opts.RecordDelay = time.Duration(cfg.Encode.RecordDelayMS) * time.Millisecond
	opts.ClipDelay = time.Duration(cfg.Encode.ClipDelayMS) * time.Millisecond
	return opts
}
