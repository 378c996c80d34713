package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment switches read after the config file.
const (
	EnvDebug     = "CLIPPER_DEBUG"
	EnvDebugFile = "CLIPPER_DEBUG_FILE"
	EnvFPS       = "CLIPPER_FPS"
	EnvBackend   = "CLIPPER_BACKEND"
)

// envString returns the trimmed value of name and whether it was non-empty.
func envString(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	return v, v != ""
}

// envSwitch parses an on/off variable. Unset or unrecognised values leave
// ok false so the file setting stands.
func envSwitch(name string) (on, ok bool) {
	v, set := envString(name)
	if !set {
		return false, false
	}
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true, true
	case "0", "false", "off", "no":
		return false, true
	default:
		return false, false
	}
}

// envRate parses an integer variable clamped to [lo, hi]. A value that is
// not an integer is ignored.
func envRate(name string, lo, hi int) (int, bool) {
	v, set := envString(name)
	if !set {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return min(max(n, lo), hi), true
}

// DebugEnabled reports whether the CLIPPER_DEBUG umbrella switch is on.
func DebugEnabled() bool {
	on, _ := envSwitch(EnvDebug)
	return on
}

func applyEnv(c *Config) {
	if DebugEnabled() {
		c.Logging.Level = "debug"
	}
	if path, ok := envString(EnvDebugFile); ok {
		c.Logging.File = path
	}
	if fps, ok := envRate(EnvFPS, 1, maxFPS); ok {
		c.Capture.FPS = fps
	}
	if backend, ok := envString(EnvBackend); ok {
		c.Capture.Backend = backend
	}
}
