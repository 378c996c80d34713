package logging

import "log/slog"

// Error renders err under the conventional "error" key.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Percent renders a [0, 1] fraction as a rounded percentage.
func Percent(key string, fraction float64) slog.Attr {
	return slog.Int(key, int(fraction*100+0.5))
}
