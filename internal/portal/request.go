package portal

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

var (
	ErrUnexpectedResponse = errors.New("unexpected response from dbus")
	ErrCancelled          = errors.New("portal request was cancelled")
)

const (
	requestInterface = CallBaseName + ".Request"
	responseMember   = "Response"
	responseSignal   = requestInterface + "." + responseMember
	closeCallName    = requestInterface + ".Close"
)

type ResponseStatus = uint32

const (
	Success   ResponseStatus = 0
	Cancelled ResponseStatus = 1
	Ended     ResponseStatus = 2
)

// request calls a portal method that answers asynchronously through a
// Request object and waits for its Response signal. The subscription is made
// before the call so a fast response cannot be missed.
func request(ctx context.Context, method, token string, args ...any) (map[string]dbus.Variant, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}

	match := []dbus.MatchOption{
		dbus.WithMatchInterface(requestInterface),
		dbus.WithMatchMember(responseMember),
	}
	if err := conn.AddMatchSignal(match...); err != nil {
		return nil, err
	}
	defer conn.RemoveMatchSignal(match...)

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	expected := dbus.ObjectPath("")
	if names := conn.Names(); len(names) > 0 {
		expected = requestPath(names[0], token)
	}

	c, err := call(ctx, conn, method, args...)
	if err != nil {
		return nil, err
	}
	var handle dbus.ObjectPath
	if err := c.Store(&handle); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Object(ObjectName, handle).Call(closeCallName, 0).Err
			return nil, ctx.Err()
		case sig, ok := <-signals:
			if !ok {
				return nil, ErrUnexpectedResponse
			}
			if sig.Name != responseSignal || (sig.Path != handle && sig.Path != expected) {
				continue
			}
			return parseResponse(sig.Body)
		}
	}
}

func parseResponse(body []any) (map[string]dbus.Variant, error) {
	if len(body) != 2 {
		return nil, ErrUnexpectedResponse
	}
	status, ok := body[0].(ResponseStatus)
	if !ok {
		return nil, ErrUnexpectedResponse
	}
	results, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return nil, ErrUnexpectedResponse
	}
	switch status {
	case Success:
		return results, nil
	case Cancelled:
		return nil, ErrCancelled
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedResponse, status)
	}
}
