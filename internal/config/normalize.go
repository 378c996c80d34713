package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.Capture.Backend = strings.ToLower(strings.TrimSpace(c.Capture.Backend))
	if c.Capture.Backend == "" {
		c.Capture.Backend = defaultBackend
	}
	if c.Capture.FPS == 0 {
		c.Capture.FPS = defaultFPS
	}
	if c.Capture.FirstFrameTimeoutSeconds == 0 {
		c.Capture.FirstFrameTimeoutSeconds = defaultFirstFrameSecs
	}

	c.Encode.DelayPolicy = strings.ToLower(strings.TrimSpace(c.Encode.DelayPolicy))
	if c.Encode.DelayPolicy == "" {
		c.Encode.DelayPolicy = defaultDelayPolicy
	}

	var err error
	c.Session.DefaultPath = strings.TrimSpace(c.Session.DefaultPath)
	if c.Session.DefaultPath, err = expandPath(c.Session.DefaultPath); err != nil {
		return fmt.Errorf("session.default_path: %w", err)
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
