package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateEncode(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCapture() error {
	switch c.Capture.Backend {
	case "auto", "screenshot", "portal":
	default:
		return fmt.Errorf("capture.backend: unsupported value %q (want auto, screenshot or portal)", c.Capture.Backend)
	}
	if c.Capture.Display < 0 {
		return errors.New("capture.display must be >= 0")
	}
	if c.Capture.FPS < 1 || c.Capture.FPS > maxFPS {
		return fmt.Errorf("capture.fps must be between 1 and %d", maxFPS)
	}
	if c.Capture.FirstFrameTimeoutSeconds < 0 {
		return errors.New("capture.first_frame_timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateEncode() error {
	switch c.Encode.DelayPolicy {
	case DelayPolicyMeasured, DelayPolicyFixed:
	default:
		return fmt.Errorf("encode.delay_policy: unsupported value %q (want measured or fixed)", c.Encode.DelayPolicy)
	}
	if c.Encode.RecordDelayMS <= 0 {
		return errors.New("encode.record_delay_ms must be positive")
	}
	if c.Encode.ClipDelayMS <= 0 {
		return errors.New("encode.clip_delay_ms must be positive")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.Countdown < 0 {
		return errors.New("session.countdown must be >= 0")
	}
	if c.Session.DefaultSeconds <= 0 {
		return errors.New("session.default_seconds must be positive")
	}
	if c.Session.DefaultPath != "" && !strings.EqualFold(filepath.Ext(c.Session.DefaultPath), ".gif") {
		return fmt.Errorf("session.default_path %q must end in .gif", c.Session.DefaultPath)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
