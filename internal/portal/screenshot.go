package portal

import (
	"context"
	"fmt"
	"net/url"

	"github.com/godbus/dbus/v5"
)

const (
	screenshotInterface = CallBaseName + ".Screenshot"
	screenshotName      = screenshotInterface + ".Screenshot"
)

// ScreenshotOptions mirrors the options dictionary of Screenshot.Screenshot.
type ScreenshotOptions struct {
	ParentWindow string
	Interactive  bool
}

// ScreenshotAvailable reports whether the session bus exposes the portal
// Screenshot interface.
func ScreenshotAvailable() bool {
	v, err := GetProperty(screenshotInterface, "version")
	if err != nil {
		return false
	}
	_, ok := v.(uint32)
	return ok
}

// Screenshot captures the whole screen and returns the URI of the PNG the
// portal wrote.
func Screenshot(ctx context.Context, options *ScreenshotOptions) (string, error) {
	if options == nil {
		options = &ScreenshotOptions{}
	}
	token := generateToken()
	data := map[string]dbus.Variant{
		"handle_token": fromString(token),
		"interactive":  fromBool(options.Interactive),
	}

	results, err := request(ctx, screenshotName, token, options.ParentWindow, data)
	if err != nil {
		return "", err
	}
	v, ok := results["uri"]
	if !ok {
		return "", fmt.Errorf("%w: screenshot response has no uri", ErrUnexpectedResponse)
	}
	uri, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("%w: screenshot uri is %T", ErrUnexpectedResponse, v.Value())
	}
	return uri, nil
}

// LocalPath converts a file:// URI returned by the portal to a filesystem path.
func LocalPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse screenshot uri: %w", err)
	}
	if u.Scheme != "file" || u.Path == "" {
		return "", fmt.Errorf("%w: screenshot uri %q is not a local file", ErrUnexpectedResponse, uri)
	}
	return u.Path, nil
}
