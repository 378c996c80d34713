// Package logging builds the slog loggers used across clipper and provides
// small helpers shared by the pipeline packages.
package logging
