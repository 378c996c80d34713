// Package config loads clipper's TOML configuration.
//
// Configuration is read once at startup and never written back. Values are
// resolved in order: built-in defaults, the TOML file, then environment
// overrides (CLIPPER_DEBUG, CLIPPER_DEBUG_FILE, CLIPPER_FPS, CLIPPER_BACKEND).
package config
